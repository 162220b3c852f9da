// Package pipeline wires the processing stages together: quantization,
// strip cleanup, facet construction, reduction, border tracing, border
// segmentation and label placement, in that order. Each stage mutates
// state the next one reads, so stages run strictly sequentially; a failed
// stage aborts the run with no partial output.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/willibrandon/mtlog/core"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/colors"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/config"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/facets"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/imageio"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/quantize"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/svg"
)

// ProgressFunc receives the current stage name and its progress in [0, 1].
// It must return promptly and must not touch pipeline state.
type ProgressFunc func(stage string, progress float64)

// Result is the output of a completed run.
type Result struct {
	Facets  *facets.Result
	Palette []colors.RGB
	SVG     string
	Width   int
	Height  int
}

// Run loads the image at inputPath and processes it through the full
// pipeline, returning the facet partition, palette and rendered SVG. The
// context cancels the run between facets inside the long stages.
func Run(ctx context.Context, inputPath string, s *config.Settings, logger core.Logger, onProgress ProgressFunc) (*Result, error) {
	update := func(stage string, p float64) {
		if onProgress != nil {
			onProgress(stage, p)
		}
	}

	update("Loading image", 0)
	pixels, width, height, err := imageio.Load(inputPath, s.ResizeMaxW, s.ResizeMaxH)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded {Input} at {Width}x{Height}", inputPath, width, height)
	update("Loading image", 1)

	return RunPixels(ctx, pixels, width, height, s, logger, onProgress)
}

// RunPixels processes an already-decoded packed RGB buffer through the
// pipeline stages.
func RunPixels(ctx context.Context, pixels []byte, width, height int, s *config.Settings, logger core.Logger, onProgress ProgressFunc) (*Result, error) {
	update := func(stage string, p float64) {
		if onProgress != nil {
			onProgress(stage, p)
		}
	}

	runID := ""
	start := time.Now()
	if s.EnableTiming {
		runID = uuid.New().String()
		logger.Information("Pipeline run {RunId} started", runID)
	}
	stageStart := time.Now()
	stageDone := func(stage string) {
		if s.EnableTiming {
			logger.Information("Stage {Stage} finished in {Duration} (run {RunId})", stage, time.Since(stageStart), runID)
		}
		stageStart = time.Now()
	}

	// Quantize
	update("K-means clustering", 0)
	cm, err := quantize.Apply(pixels, width, height, quantize.Options{
		K:        s.KMeansClusters,
		MinDelta: s.KMeansMinDelta,
		Space:    quantize.ColorSpace(s.KMeansColorSpace),
		Seed:     s.RandomSeed,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: quantization: %w", err)
	}
	logger.Information("Quantized to {Clusters} colors in {Space} space", s.KMeansClusters, s.KMeansColorSpace)
	update("K-means clustering", 1)
	stageDone("quantize")

	// Strip cleanup
	if s.StripCleanupPasses > 0 {
		update("Cleaning narrow strips", 0)
		for run := 0; run < s.StripCleanupPasses; run++ {
			replaced := quantize.CleanNarrowStrips(cm)
			logger.Debug("Strip cleanup pass {Pass} replaced {Count} pixels", run+1, replaced)
			update("Cleaning narrow strips", float64(run+1)/float64(s.StripCleanupPasses))
		}
		stageDone("strip-cleanup")
	}

	// Build facets
	update("Building facets", 0)
	res := facets.BuildAll(cm.Indices, width, height)
	logger.Information("Built {Count} facets", len(res.Facets))
	update("Building facets", 1)
	stageDone("build-facets")

	// Reduce facets
	maxFacets := 0
	if s.MaxFacets != nil {
		maxFacets = *s.MaxFacets
	}
	if s.RemoveFacetsSmallerThan > 0 || (maxFacets > 0 && maxFacets < res.Count()) {
		update("Reducing facets", 0)
		err = facets.Reduce(ctx, res, cm.Indices, cm.Palette, facets.ReduceOptions{
			SmallerThan:  s.RemoveFacetsSmallerThan,
			MaxFacets:    maxFacets,
			LargeToSmall: s.RemoveFacetsLargeToSmall,
			OnProgress:   func(p float64) { update("Reducing facets", p) },
		})
		if err != nil {
			return nil, fmt.Errorf("pipeline: facet reduction: %w", err)
		}
		logger.Information("Reduced to {Count} facets", res.Count())
		stageDone("reduce-facets")
	}

	// Trace borders
	update("Tracing borders", 0)
	err = facets.TraceAll(ctx, res, func(p float64) { update("Tracing borders", p) })
	if err != nil {
		return nil, fmt.Errorf("pipeline: border tracing: %w", err)
	}
	update("Tracing borders", 1)
	stageDone("trace-borders")

	// Segment borders
	update("Segmenting borders", 0)
	stats, err := facets.SegmentAll(ctx, res, s.BorderSmoothingPasses, func(p float64) { update("Segmenting borders", p) })
	if err != nil {
		return nil, fmt.Errorf("pipeline: border segmentation: %w", err)
	}
	if stats.Unmatched > 0 {
		logger.Debug("{Unmatched} of {Total} border segments stayed unmatched",
			stats.Unmatched, stats.Unmatched+stats.Matched)
	}
	// Enclosed facets legitimately own unmatched segments, so this is a
	// warning, not an abort.
	if terr := stats.ExceedsTolerance(s.MaxUnmatchedFraction); terr != nil {
		logger.Warning("Border segment matching degraded: {Error}", terr)
	}
	update("Segmenting borders", 1)
	stageDone("segment-borders")

	// Place labels
	update("Placing labels", 0)
	if err := facets.PlaceLabels(ctx, res, func(p float64) { update("Placing labels", p) }); err != nil {
		return nil, fmt.Errorf("pipeline: label placement: %w", err)
	}
	update("Placing labels", 1)
	stageDone("place-labels")

	// Render SVG
	update("Generating SVG", 0)
	doc := svg.Build(res, cm.Palette, svg.Options{
		SizeMultiplier: s.SVGSizeMultiplier,
		Fill:           s.SVGFillFacets,
		Stroke:         s.SVGShowBorders,
		ShowLabels:     s.SVGShowLabels,
		FontSize:       s.SVGFontSize,
		FontColor:      s.SVGFontColor,
		Legend:         s.SVGLegend,
	})
	update("Generating SVG", 1)
	stageDone("render-svg")

	if s.EnableTiming {
		logger.Information("Pipeline run {RunId} finished in {Duration}", runID, time.Since(start))
	}

	return &Result{
		Facets:  res,
		Palette: cm.Palette,
		SVG:     doc,
		Width:   width,
		Height:  height,
	}, nil
}
