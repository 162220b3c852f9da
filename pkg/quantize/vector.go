// Package quantize reduces an RGB image to a small palette with weighted
// k-means clustering and produces the per-pixel color index grid the facet
// stages operate on. It also hosts the narrow pixel strip cleanup that runs
// between clustering and facet construction.
package quantize

import (
	"math"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/colors"
)

// Vector is a point in color space with a weight used for weighted
// averaging (the weight is the color's pixel frequency). The original
// chopped RGB is kept so cluster assignments can be mapped back to pixels.
type Vector struct {
	Values []float64
	Weight float64
	RGB    colors.RGB
}

// DistanceTo returns the Euclidean distance to another vector.
func (v *Vector) DistanceTo(other *Vector) float64 {
	var sum float64
	for i, val := range v.Values {
		d := other.Values[i] - val
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Average returns the weighted mean of the given vectors. The result's
// weight is the sum of the input weights.
func Average(vectors []*Vector) *Vector {
	dims := len(vectors[0].Values)
	values := make([]float64, dims)
	var weightSum float64

	for _, vec := range vectors {
		weightSum += vec.Weight
		for i, val := range vec.Values {
			values[i] += val * vec.Weight
		}
	}
	for i := range values {
		values[i] /= weightSum
	}

	return &Vector{Values: values, Weight: weightSum}
}
