package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	assert.Equal(t, 16, s.KMeansClusters)
	assert.Equal(t, 1.0, s.KMeansMinDelta)
	assert.Equal(t, "RGB", s.KMeansColorSpace)
	assert.Nil(t, s.RandomSeed)
	assert.Equal(t, 20, s.RemoveFacetsSmallerThan)
	assert.True(t, s.RemoveFacetsLargeToSmall)
	assert.Nil(t, s.MaxFacets)
	assert.Equal(t, 3, s.StripCleanupPasses)
	assert.Equal(t, 2, s.BorderSmoothingPasses)
	assert.Equal(t, 1024, s.ResizeMaxW)
	assert.Equal(t, "info", s.LogLevel)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	content := `{
		"k_means_clusters": 8,
		"k_means_color_space": "LAB",
		"random_seed": 42,
		"max_facets": 100,
		"border_smoothing_passes": 0,
		"log_level": "debug"
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, s.KMeansClusters)
	assert.Equal(t, "LAB", s.KMeansColorSpace)
	require.NotNil(t, s.RandomSeed)
	assert.Equal(t, int64(42), *s.RandomSeed)
	require.NotNil(t, s.MaxFacets)
	assert.Equal(t, 100, *s.MaxFacets)
	assert.Equal(t, 0, s.BorderSmoothingPasses)
	assert.Equal(t, "debug", s.LogLevel)

	// Untouched fields keep their defaults.
	assert.Equal(t, 20, s.RemoveFacetsSmallerThan)
	assert.Equal(t, 3, s.StripCleanupPasses)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"default", func(s *Settings) {}, false},
		{"zero clusters", func(s *Settings) { s.KMeansClusters = 0 }, true},
		{"too many clusters", func(s *Settings) { s.KMeansClusters = 257 }, true},
		{"negative delta", func(s *Settings) { s.KMeansMinDelta = -1 }, true},
		{"bad color space", func(s *Settings) { s.KMeansColorSpace = "XYZ" }, true},
		{"negative threshold", func(s *Settings) { s.RemoveFacetsSmallerThan = -1 }, true},
		{"zero max facets", func(s *Settings) { v := 0; s.MaxFacets = &v }, true},
		{"negative smoothing", func(s *Settings) { s.BorderSmoothingPasses = -1 }, true},
		{"negative resize", func(s *Settings) { s.ResizeMaxW = -5 }, true},
		{"fraction above one", func(s *Settings) { s.MaxUnmatchedFraction = 1.5 }, true},
		{"bad log level", func(s *Settings) { s.LogLevel = "verbose" }, true},
		{"zero resize disables", func(s *Settings) { s.ResizeMaxW = 0; s.ResizeMaxH = 0 }, false},
		{"HSL space", func(s *Settings) { s.KMeansColorSpace = "HSL" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
