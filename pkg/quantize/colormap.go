package quantize

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/colors"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

// Errors surfaced by Apply.
var (
	ErrEmptyInput = errors.New("quantize: empty input image")
	ErrInvalidK   = errors.New("quantize: cluster count must be at least 1")
)

// ColorSpace selects the space the clustering distance is measured in.
type ColorSpace string

const (
	SpaceRGB ColorSpace = "RGB"
	SpaceHSL ColorSpace = "HSL"
	SpaceLAB ColorSpace = "LAB"
)

// Options configures Apply.
type Options struct {
	// K is the number of clusters.
	K int
	// MinDelta is the convergence threshold on total centroid movement.
	MinDelta float64
	// Space is the clustering color space.
	Space ColorSpace
	// Seed seeds the centroid initialisation RNG. Nil picks an arbitrary
	// seed, which forfeits run-to-run determinism.
	Seed *int64
}

// ColorMap is the result of quantization: the palette and the per-pixel
// palette index grid that all later stages read and mutate.
type ColorMap struct {
	Indices *geom.Uint8Grid
	Palette []colors.RGB
	Width   int
	Height  int
}

// Colors within the same chopped bucket cluster identically, so the two
// low bits of each channel are dropped before grouping.
const bitsToChopOff = 2

// Apply quantizes a packed RGB pixel buffer (3 bytes per pixel, row-major)
// down to at most opts.K colors and returns the palette plus the per-pixel
// color index grid.
func Apply(pixels []byte, width, height int, opts Options) (*ColorMap, error) {
	if width <= 0 || height <= 0 || len(pixels) == 0 {
		return nil, ErrEmptyInput
	}
	if opts.K < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidK, opts.K)
	}

	// Group pixels by chopped RGB so k-means runs over weighted color
	// points instead of every pixel.
	type bucket struct {
		rgb    colors.RGB
		pixels []int
	}
	buckets := make(map[colors.RGB]*bucket)
	order := make([]colors.RGB, 0, 256)

	totalPixels := width * height
	for idx := 0; idx < totalPixels; idx++ {
		r := pixels[idx*3] >> bitsToChopOff << bitsToChopOff
		g := pixels[idx*3+1] >> bitsToChopOff << bitsToChopOff
		b := pixels[idx*3+2] >> bitsToChopOff << bitsToChopOff
		key := colors.RGB{R: r, G: g, B: b}
		bk, ok := buckets[key]
		if !ok {
			bk = &bucket{rgb: key}
			buckets[key] = bk
			order = append(order, key)
		}
		bk.pixels = append(bk.pixels, idx)
	}

	vectors := make([]*Vector, 0, len(order))
	for _, key := range order {
		bk := buckets[key]
		vec := &Vector{
			Values: toSpace(bk.rgb, opts.Space),
			Weight: float64(len(bk.pixels)) / float64(totalPixels),
			RGB:    bk.rgb,
		}
		vectors = append(vectors, vec)
	}

	var seed int64
	if opts.Seed != nil {
		seed = *opts.Seed
	} else {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	km := NewKMeans(vectors, opts.K, rng)
	km.Step()
	for !km.HasConverged(opts.MinDelta) {
		km.Step()
	}

	palette := make([]colors.RGB, opts.K)
	for c, centroid := range km.Centroids {
		palette[c] = fromSpace(centroid.Values, opts.Space)
	}

	grid := geom.NewUint8Grid(width, height)
	for i, vec := range vectors {
		cluster := uint8(km.Assignment(i))
		for _, idx := range buckets[vec.RGB].pixels {
			grid.Set(idx%width, idx/width, cluster)
		}
	}

	return &ColorMap{Indices: grid, Palette: palette, Width: width, Height: height}, nil
}

func toSpace(c colors.RGB, space ColorSpace) []float64 {
	switch space {
	case SpaceHSL:
		hsl := colors.RGBToHSL(c.R, c.G, c.B)
		return []float64{hsl.H, hsl.S, hsl.L}
	case SpaceLAB:
		lab := colors.RGBToLAB(c.R, c.G, c.B)
		return []float64{lab.L, lab.A, lab.B}
	default:
		return []float64{float64(c.R), float64(c.G), float64(c.B)}
	}
}

func fromSpace(values []float64, space ColorSpace) colors.RGB {
	switch space {
	case SpaceHSL:
		return colors.HSLToRGB(values[0], values[1], values[2])
	case SpaceLAB:
		return colors.LABToRGB(values[0], values[1], values[2])
	default:
		return colors.RGB{
			R: clampChannel(values[0]),
			G: clampChannel(values[1]),
			B: clampChannel(values[2]),
		}
	}
}

func clampChannel(v float64) uint8 {
	return uint8(math.Max(0, math.Min(255, math.Round(v))))
}

// CleanNarrowStrips runs one narrow pixel strip cleanup pass over the color
// index grid and returns how many pixels were replaced.
//
// A pixel differing from both its top and bottom neighbours is horizontally
// isolated and takes whichever of the two is closer in RGB; likewise for
// left/right. Pixels differing from all four neighbours are left alone:
// removing single specks is the facet reducer's job.
func CleanNarrowStrips(cm *ColorMap) int {
	distances := colors.DistanceMatrix(cm.Palette)
	count := 0

	for j := 1; j < cm.Height-1; j++ {
		for i := 1; i < cm.Width-1; i++ {
			top := cm.Indices.Get(i, j-1)
			bottom := cm.Indices.Get(i, j+1)
			left := cm.Indices.Get(i-1, j)
			right := cm.Indices.Get(i+1, j)
			cur := cm.Indices.Get(i, j)

			switch {
			case cur != top && cur != bottom && cur != left && cur != right:
				// Fully isolated single pixel, skip.
			case cur != top && cur != bottom:
				if distances[cur][top] < distances[cur][bottom] {
					cm.Indices.Set(i, j, top)
				} else {
					cm.Indices.Set(i, j, bottom)
				}
				count++
			case cur != left && cur != right:
				if distances[cur][left] < distances[cur][right] {
					cm.Indices.Set(i, j, left)
				} else {
					cm.Indices.Set(i, j, right)
				}
				count++
			}
		}
	}

	return count
}
