package svg

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"

	"github.com/nfnt/resize"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/colors"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/facets"
)

// Rasterize paints the facet partition directly into an RGBA image from
// the facet map, scaled by the given factor. Unlike rendering the SVG this
// needs no external rasteriser and reproduces the partition exactly.
func Rasterize(res *facets.Result, pal []colors.RGB, scale float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, res.Width, res.Height))

	for y := 0; y < res.Height; y++ {
		for x := 0; x < res.Width; x++ {
			f := res.Facets[res.Map.Get(x, y)]
			if f == nil {
				continue
			}
			rgb := pal[f.Color]
			img.Set(x, y, color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255})
		}
	}

	if scale > 0 && scale != 1 {
		scaled := resize.Resize(uint(float64(res.Width)*scale), 0, img, resize.NearestNeighbor)
		out := image.NewRGBA(scaled.Bounds())
		for y := scaled.Bounds().Min.Y; y < scaled.Bounds().Max.Y; y++ {
			for x := scaled.Bounds().Min.X; x < scaled.Bounds().Max.X; x++ {
				out.Set(x, y, scaled.At(x, y))
			}
		}
		return out
	}
	return img
}

// ExportPNG writes the rasterised partition as a PNG file.
func ExportPNG(res *facets.Result, pal []colors.RGB, scale float64, path string) error {
	img := Rasterize(res, pal, scale)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("svg: create %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("svg: encode png: %w", err)
	}
	return nil
}

// ExportJPEG writes the rasterised partition as a JPEG file.
func ExportJPEG(res *facets.Result, pal []colors.RGB, scale float64, quality int, path string) error {
	img := Rasterize(res, pal, scale)
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("svg: create %s: %w", path, err)
	}
	defer file.Close()

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("svg: encode jpeg: %w", err)
	}
	return nil
}
