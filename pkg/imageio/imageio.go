// Package imageio loads input images as packed RGB buffers for the
// pipeline. PNG, JPEG and GIF decode via the standard library; BMP, TIFF
// and WebP are registered through golang.org/x/image. Images larger than
// the configured box are downscaled with Lanczos resampling, preserving
// aspect ratio.
package imageio

import (
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Load decodes the image at path and returns its pixels as a packed RGB
// byte buffer (3 bytes per pixel, row-major) along with the final width
// and height. When maxWidth and maxHeight are positive and the image
// exceeds the box, it is scaled down to fit while preserving aspect ratio.
func Load(path string, maxWidth, maxHeight int) ([]byte, int, int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("imageio: open %s: %w", path, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("imageio: decode %s: %w", path, err)
	}

	img = fitToBox(img, maxWidth, maxHeight)

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]byte, width*height*3)

	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			pixels[i] = uint8(r >> 8)
			pixels[i+1] = uint8(g >> 8)
			pixels[i+2] = uint8(b >> 8)
			i += 3
		}
	}

	return pixels, width, height, nil
}

// fitToBox scales img down to fit within maxWidth×maxHeight. Images already
// inside the box, or a non-positive box, pass through untouched.
func fitToBox(img image.Image, maxWidth, maxHeight int) image.Image {
	if maxWidth <= 0 || maxHeight <= 0 {
		return img
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth && h <= maxHeight {
		return img
	}
	return resize.Thumbnail(uint(maxWidth), uint(maxHeight), img, resize.Lanczos3)
}
