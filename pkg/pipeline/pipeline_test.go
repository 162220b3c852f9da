package pipeline

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/willibrandon/mtlog"
	"github.com/willibrandon/mtlog/core"
	"github.com/willibrandon/mtlog/sinks"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/config"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/facets"
)

func testLogger() core.Logger {
	return mtlog.New(
		mtlog.WithSink(sinks.NewConsoleSink()),
		mtlog.WithMinimumLevel(core.ErrorLevel),
	)
}

func testSettings() *config.Settings {
	s := config.Default()
	seed := int64(42)
	s.RandomSeed = &seed
	s.KMeansClusters = 2
	s.RemoveFacetsSmallerThan = 0
	s.StripCleanupPasses = 0
	s.BorderSmoothingPasses = 0
	return s
}

// splitImage is the E2 input: 4x2, left red, right blue.
func splitImage() []byte {
	pixels := make([]byte, 4*2*3)
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			i := (y*4 + x) * 3
			if x < 2 {
				pixels[i] = 255
			} else {
				pixels[i+2] = 255
			}
		}
	}
	return pixels
}

func TestRunPixelsEndToEnd(t *testing.T) {
	result, err := RunPixels(context.Background(), splitImage(), 4, 2, testSettings(), testLogger(), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Width)
	assert.Equal(t, 2, result.Height)
	assert.Len(t, result.Palette, 2)
	assert.Equal(t, 2, result.Facets.Count())
	assert.Contains(t, result.SVG, "<svg ")

	// Both facets carry a closed loop and at least one shared segment.
	for _, f := range result.Facets.Facets {
		require.NotNil(t, f)
		assert.NotEmpty(t, f.BorderPath)
		assert.NotEmpty(t, f.BorderSegments)
	}
}

func TestRunPixelsReportsStages(t *testing.T) {
	var stages []string
	progress := func(stage string, p float64) {
		if len(stages) == 0 || stages[len(stages)-1] != stage {
			stages = append(stages, stage)
		}
	}

	_, err := RunPixels(context.Background(), splitImage(), 4, 2, testSettings(), testLogger(), progress)
	require.NoError(t, err)

	assert.Contains(t, stages, "K-means clustering")
	assert.Contains(t, stages, "Building facets")
	assert.Contains(t, stages, "Tracing borders")
	assert.Contains(t, stages, "Segmenting borders")
	assert.Contains(t, stages, "Placing labels")
	assert.Contains(t, stages, "Generating SVG")
}

// Two runs over the same input and seed must agree byte for byte (E6).
func TestRunPixelsDeterminism(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	w, h := 50, 50
	pixels := make([]byte, w*h*3)
	rng.Read(pixels)

	s := testSettings()
	s.KMeansClusters = 8

	a, err := RunPixels(context.Background(), pixels, w, h, s, testLogger(), nil)
	require.NoError(t, err)
	b, err := RunPixels(context.Background(), pixels, w, h, s, testLogger(), nil)
	require.NoError(t, err)

	require.Equal(t, a.Palette, b.Palette)
	assert.Equal(t, a.SVG, b.SVG)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if a.Facets.Map.Get(x, y) != b.Facets.Map.Get(x, y) {
				t.Fatalf("facet map mismatch at (%d,%d)", x, y)
			}
		}
	}
}

func TestRunPixelsPartitionInvariant(t *testing.T) {
	// Two large halves with a few small speckles that the reducer folds
	// away.
	w, h := 30, 30
	pixels := make([]byte, w*h*3)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := (y*w + x) * 3
			if x < 15 {
				pixels[i] = 255
			} else {
				pixels[i+2] = 255
			}
		}
	}
	for _, spot := range [][2]int{{4, 4}, {20, 10}, {8, 25}} {
		i := (spot[1]*w + spot[0]) * 3
		pixels[i], pixels[i+1], pixels[i+2] = 0, 255, 0
	}

	s := testSettings()
	s.KMeansClusters = 3
	s.RemoveFacetsSmallerThan = 6
	s.StripCleanupPasses = 0

	result, err := RunPixels(context.Background(), pixels, w, h, s, testLogger(), nil)
	require.NoError(t, err)

	res := result.Facets
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			f := res.Facets[res.Map.Get(x, y)]
			require.NotNil(t, f, "pixel (%d,%d) maps to a vacated facet", x, y)
			require.GreaterOrEqual(t, f.PointCount, s.RemoveFacetsSmallerThan)
		}
	}
}

func TestRunPixelsSingleColorImage(t *testing.T) {
	pixels := make([]byte, 3*3*3)
	for i := 0; i < 9; i++ {
		pixels[i*3] = 200
	}

	result, err := RunPixels(context.Background(), pixels, 3, 3, testSettings(), testLogger(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Facets.Count())
	f := result.Facets.Facets[0]
	require.NotNil(t, f)
	assert.Equal(t, 9, f.PointCount)
	assert.Len(t, f.BorderPath, 12)
	for _, seg := range f.BorderSegments {
		assert.Equal(t, facets.EdgeNeighbour, seg.Neighbour)
	}
}

func TestRunPixelsOnePixelImage(t *testing.T) {
	result, err := RunPixels(context.Background(), []byte{128, 128, 128}, 1, 1, testSettings(), testLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Facets.Count())
}

func TestRunPixelsEmptyInput(t *testing.T) {
	_, err := RunPixels(context.Background(), nil, 0, 0, testSettings(), testLogger(), nil)
	assert.Error(t, err)
}

func TestRunPixelsCancellation(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	w, h := 40, 40
	pixels := make([]byte, w*h*3)
	rng.Read(pixels)

	s := testSettings()
	s.KMeansClusters = 8

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunPixels(ctx, pixels, w, h, s, testLogger(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunLoadsImageFile(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			if x < 2 {
				img.Set(x, y, color.RGBA{R: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			}
		}
	}
	path := filepath.Join(t.TempDir(), "in.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(file, img))
	require.NoError(t, file.Close())

	result, err := Run(context.Background(), path, testSettings(), testLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Facets.Count())
}
