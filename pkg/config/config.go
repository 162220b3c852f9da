// Package config provides the settings file for the paint-by-numbers
// generator.
//
// Settings are loaded from a JSON file; every field has a sensible default
// so an empty file (or no file at all) produces a usable configuration.
//
// Example settings file:
//
//	{
//	  "k_means_clusters": 16,
//	  "k_means_color_space": "RGB",
//	  "random_seed": 42,
//	  "remove_facets_smaller_than": 20,
//	  "max_facets": 200,
//	  "strip_cleanup_passes": 3,
//	  "border_smoothing_passes": 2,
//	  "resize_max_w": 1024,
//	  "resize_max_h": 1024,
//	  "log_level": "info"
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Settings holds every configurable parameter of the processing pipeline.
type Settings struct {
	// KMeansClusters is the number of palette colors (K).
	KMeansClusters int `json:"k_means_clusters"`

	// KMeansMinDelta is the convergence threshold on the total centroid
	// movement per iteration.
	KMeansMinDelta float64 `json:"k_means_min_delta"`

	// KMeansColorSpace selects the clustering space: RGB, HSL or LAB.
	KMeansColorSpace string `json:"k_means_color_space"`

	// RandomSeed seeds centroid initialisation. Null means a fresh seed
	// per run, which gives non-reproducible palettes.
	RandomSeed *int64 `json:"random_seed"`

	// RemoveFacetsSmallerThan is the facet size threshold in pixels.
	RemoveFacetsSmallerThan int `json:"remove_facets_smaller_than"`

	// RemoveFacetsLargeToSmall picks the reduction batching order.
	RemoveFacetsLargeToSmall bool `json:"remove_facets_large_to_small"`

	// MaxFacets caps the surviving facet count. Null disables the cap.
	MaxFacets *int `json:"max_facets"`

	// StripCleanupPasses is how many narrow pixel strip cleanup passes run
	// after clustering.
	StripCleanupPasses int `json:"strip_cleanup_passes"`

	// BorderSmoothingPasses is how many times border segments are halved
	// by pairwise averaging.
	BorderSmoothingPasses int `json:"border_smoothing_passes"`

	// ResizeMaxW and ResizeMaxH bound the working image size. Zero
	// disables resizing.
	ResizeMaxW int `json:"resize_max_w"`
	ResizeMaxH int `json:"resize_max_h"`

	// MaxUnmatchedFraction is the tolerated share of non-edge border
	// segments that fail to match before the pipeline logs a warning.
	MaxUnmatchedFraction float64 `json:"max_unmatched_fraction"`

	// LogLevel is the logging verbosity: debug, info, warn or error.
	LogLevel string `json:"log_level"`

	// EnableTiming logs per-stage durations with a run id.
	EnableTiming bool `json:"enable_timing"`

	// SVG output profile.
	SVGSizeMultiplier float64 `json:"svg_size_multiplier"`
	SVGShowLabels     bool    `json:"svg_show_labels"`
	SVGShowBorders    bool    `json:"svg_show_borders"`
	SVGFillFacets     bool    `json:"svg_fill_facets"`
	SVGFontSize       int     `json:"svg_font_size"`
	SVGFontColor      string  `json:"svg_font_color"`
	SVGLegend         bool    `json:"svg_legend"`
}

// Default returns the settings used when no file overrides them.
func Default() *Settings {
	return &Settings{
		KMeansClusters:           16,
		KMeansMinDelta:           1.0,
		KMeansColorSpace:         "RGB",
		RemoveFacetsSmallerThan:  20,
		RemoveFacetsLargeToSmall: true,
		StripCleanupPasses:       3,
		BorderSmoothingPasses:    2,
		ResizeMaxW:               1024,
		ResizeMaxH:               1024,
		MaxUnmatchedFraction:     0.1,
		LogLevel:                 "info",
		SVGSizeMultiplier:        3.0,
		SVGShowLabels:            true,
		SVGShowBorders:           true,
		SVGFillFacets:            true,
		SVGFontSize:              20,
		SVGFontColor:             "#000000",
	}
}

// Load reads settings from the JSON file at path, filling in defaults for
// absent fields and validating the result.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	s := Default()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// Validate checks the settings for values the pipeline cannot run with.
func (s *Settings) Validate() error {
	if s.KMeansClusters < 1 || s.KMeansClusters > 256 {
		return fmt.Errorf("k_means_clusters must be between 1 and 256, got %d", s.KMeansClusters)
	}
	if s.KMeansMinDelta < 0 {
		return fmt.Errorf("k_means_min_delta must not be negative, got %g", s.KMeansMinDelta)
	}
	switch s.KMeansColorSpace {
	case "RGB", "HSL", "LAB":
	default:
		return fmt.Errorf("k_means_color_space must be RGB, HSL or LAB, got %q", s.KMeansColorSpace)
	}
	if s.RemoveFacetsSmallerThan < 0 {
		return fmt.Errorf("remove_facets_smaller_than must not be negative, got %d", s.RemoveFacetsSmallerThan)
	}
	if s.MaxFacets != nil && *s.MaxFacets < 1 {
		return fmt.Errorf("max_facets must be at least 1, got %d", *s.MaxFacets)
	}
	if s.StripCleanupPasses < 0 {
		return fmt.Errorf("strip_cleanup_passes must not be negative, got %d", s.StripCleanupPasses)
	}
	if s.BorderSmoothingPasses < 0 {
		return fmt.Errorf("border_smoothing_passes must not be negative, got %d", s.BorderSmoothingPasses)
	}
	if s.ResizeMaxW < 0 || s.ResizeMaxH < 0 {
		return fmt.Errorf("resize bounds must not be negative, got %dx%d", s.ResizeMaxW, s.ResizeMaxH)
	}
	if s.MaxUnmatchedFraction < 0 || s.MaxUnmatchedFraction > 1 {
		return fmt.Errorf("max_unmatched_fraction must be in [0, 1], got %g", s.MaxUnmatchedFraction)
	}
	switch s.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", s.LogLevel)
	}
	return nil
}
