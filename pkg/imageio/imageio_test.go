package imageio

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "test.png")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	require.NoError(t, png.Encode(file, img))
	return path
}

func TestLoadReturnsPackedRGB(t *testing.T) {
	path := writeTestPNG(t, 4, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	pixels, w, h, err := Load(path, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
	require.Len(t, pixels, 4*3*3)
	for i := 0; i < len(pixels); i += 3 {
		assert.Equal(t, uint8(10), pixels[i])
		assert.Equal(t, uint8(20), pixels[i+1])
		assert.Equal(t, uint8(30), pixels[i+2])
	}
}

func TestLoadResizesToFitBox(t *testing.T) {
	path := writeTestPNG(t, 200, 100, color.RGBA{R: 50, G: 50, B: 50, A: 255})

	_, w, h, err := Load(path, 100, 100)
	require.NoError(t, err)

	// Aspect ratio preserved: 200x100 fits as 100x50.
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestLoadSmallImageNotUpscaled(t *testing.T) {
	path := writeTestPNG(t, 8, 8, color.RGBA{A: 255})

	_, w, h, err := Load(path, 1024, 1024)
	require.NoError(t, err)
	assert.Equal(t, 8, w)
	assert.Equal(t, 8, h)
}

func TestLoadMissingFile(t *testing.T) {
	_, _, _, err := Load(filepath.Join(t.TempDir(), "missing.png"), 0, 0)
	assert.Error(t, err)
}

func TestLoadNotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0644))

	_, _, _, err := Load(path, 0, 0)
	assert.Error(t, err)
}
