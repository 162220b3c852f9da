package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/config"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/palette"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/pipeline"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/svg"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	var (
		input       = flag.String("input", "", "Input image path (png, jpg, gif, bmp, tiff, webp)")
		output      = flag.String("output", "output", "Output base path (without extension)")
		configPath  = flag.String("config", "", "Optional JSON settings file")
		exportPNG   = flag.Bool("png", false, "Also export a PNG raster")
		exportJPG   = flag.Bool("jpg", false, "Also export a JPEG raster")
		showVersion = flag.Bool("version", false, "Show version information")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("paintbynumbers version %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Usage: paintbynumbers -input image.png [-output base] [-config settings.json]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	settings := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
		settings = loaded
	}
	if *debugMode {
		settings.LogLevel = "debug"
	}

	logger := createLogger(settings.LogLevel)
	logger.Information("Starting paint-by-numbers generation for {Input}", *input)

	// Cancel the pipeline on Ctrl-C.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warning("Received signal {Signal}, cancelling", sig)
		cancel()
	}()

	lastStage := ""
	progress := func(stage string, p float64) {
		if stage != lastStage {
			logger.Information("Stage: {Stage}", stage)
			lastStage = stage
		}
		logger.Debug("{Stage}: {Progress}", stage, fmt.Sprintf("%.0f%%", p*100))
	}

	result, err := pipeline.Run(ctx, *input, settings, logger, progress)
	if err != nil {
		logger.Error("Pipeline failed: {Error}", err)
		os.Exit(1)
	}

	svgPath := *output + ".svg"
	if err := os.WriteFile(svgPath, []byte(result.SVG), 0644); err != nil {
		logger.Error("Failed to write {Path}: {Error}", svgPath, err)
		os.Exit(1)
	}
	logger.Information("Wrote {Path} ({Facets} facets, {Colors} colors)",
		svgPath, result.Facets.Count(), len(result.Palette))

	if *exportPNG {
		pngPath := *output + ".png"
		if err := svg.ExportPNG(result.Facets, result.Palette, settings.SVGSizeMultiplier, pngPath); err != nil {
			logger.Error("Failed to export PNG: {Error}", err)
			os.Exit(1)
		}
		logger.Information("Wrote {Path}", pngPath)
	}
	if *exportJPG {
		jpgPath := *output + ".jpg"
		if err := svg.ExportJPEG(result.Facets, result.Palette, settings.SVGSizeMultiplier, 92, jpgPath); err != nil {
			logger.Error("Failed to export JPEG: {Error}", err)
			os.Exit(1)
		}
		logger.Information("Wrote {Path}", jpgPath)
	}

	printPaletteSummary(result, logger)
}

// printPaletteSummary logs the palette in painting order: swatches sorted
// by hue with usage shares and tonal roles.
func printPaletteSummary(result *pipeline.Result, logger core.Logger) {
	counts := make([]int, len(result.Palette))
	for _, f := range result.Facets.Facets {
		if f != nil {
			counts[f.Color] += f.PointCount
		}
	}

	for _, e := range palette.Summarize(result.Palette, counts) {
		logger.Information("Color {Index}: {Hex} ({Role}, {Usage}% of pixels)",
			e.Index, e.Hex, e.Role, fmt.Sprintf("%.1f", e.UsagePercent))
	}
}

// createLogger creates a configured logger instance.
func createLogger(logLevel string) core.Logger {
	sink := sinks.NewConsoleSink()

	opts := []mtlog.Option{mtlog.WithSink(sink)}
	switch logLevel {
	case "debug":
		opts = append(opts, mtlog.WithMinimumLevel(core.DebugLevel))
	case "info":
		opts = append(opts, mtlog.WithMinimumLevel(core.InformationLevel))
	case "warn":
		opts = append(opts, mtlog.WithMinimumLevel(core.WarningLevel))
	case "error":
		opts = append(opts, mtlog.WithMinimumLevel(core.ErrorLevel))
	default:
		opts = append(opts, mtlog.WithMinimumLevel(core.InformationLevel))
	}

	return mtlog.New(opts...)
}
