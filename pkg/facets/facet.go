// Package facets turns a quantized color index grid into the vector data a
// paint-by-numbers renderer needs: connected same-color regions, traced wall
// boundaries, shared border segments between neighbours, and label anchor
// positions.
package facets

import (
	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

// EdgeNeighbour marks a wall that faces the image frame rather than
// another facet.
const EdgeNeighbour int32 = -1

// Facet is a maximal 4-connected region of pixels sharing a palette color.
type Facet struct {
	// ID is the facet's index in the Result.Facets slice. Slot indices are
	// stable for the lifetime of a Result; vacated slots are never reused.
	ID int32
	// Color is the palette index of every pixel in the facet.
	Color uint8
	// PointCount is the number of pixels in the facet.
	PointCount int
	// BorderPoints are the facet pixels with at least one 4-neighbour
	// outside the facet or outside the image.
	BorderPoints []geom.Point
	// Neighbours lists adjacent facet ids. Nil means the set is stale and
	// must be rebuilt before use.
	Neighbours []int32
	// BBox bounds all facet pixels, inclusive.
	BBox geom.BoundingBox
	// BorderPath is the closed wall-edge loop produced by the tracer.
	BorderPath []geom.PathPoint
	// BorderSegments is the facet's ordered view of its (possibly shared)
	// boundary segments, produced by the segmenter.
	BorderSegments []*BoundarySegment
	// LabelBounds is the label anchor rectangle produced by the label
	// placer.
	LabelBounds geom.BoundingBox
}

// Result holds the facet partition of an image, both as an array of facets
// and as a per-pixel facet id map.
//
// Facets[i] may be nil once facet i has been removed by the reducer; the id
// map never references a vacated slot after a reduction completes.
type Result struct {
	Map    *geom.Uint32Grid
	Facets []*Facet
	Width  int
	Height int
}

// Count returns the number of live (non-vacated) facets.
func (r *Result) Count() int {
	n := 0
	for _, f := range r.Facets {
		if f != nil {
			n++
		}
	}
	return n
}

// PathSegment is a run of consecutive wall-edges all facing the same
// neighbour facet. Segments are the canonical, shared representation of
// inter-facet boundaries.
type PathSegment struct {
	Points    []geom.PathPoint
	Neighbour int32
}

// BoundarySegment is one facet's view of a PathSegment. When two facets
// share a boundary they reference the same PathSegment, one of them with
// Reverse set, so the geometry is stored exactly once.
type BoundarySegment struct {
	Segment   *PathSegment
	Neighbour int32
	Reverse   bool
}

// FullPathPoint is a point of a reconstructed boundary path. Coordinates
// are float64 because wall positions sit on half-pixel offsets.
type FullPathPoint struct {
	X float64
	Y float64
}

// FullPath reconstructs the facet's complete boundary by concatenating its
// border segments, honouring each segment's traversal direction. The
// transition point between consecutive segments is repeated so renderers
// close the path without gaps. With useWalls set, points are emitted at
// wall coordinates (±0.5); otherwise at pixel centres.
func (f *Facet) FullPath(useWalls bool) []FullPathPoint {
	var path []FullPathPoint

	add := func(pt geom.PathPoint) {
		if useWalls {
			path = append(path, FullPathPoint{X: pt.WallX(), Y: pt.WallY()})
		} else {
			path = append(path, FullPathPoint{X: float64(pt.X), Y: float64(pt.Y)})
		}
	}

	var last *BoundarySegment
	for _, seg := range f.BorderSegments {
		if last != nil {
			pts := last.Segment.Points
			if last.Reverse {
				add(pts[0])
			} else {
				add(pts[len(pts)-1])
			}
		}

		pts := seg.Segment.Points
		for i := range pts {
			if seg.Reverse {
				add(pts[len(pts)-1-i])
			} else {
				add(pts[i])
			}
		}
		last = seg
	}

	return path
}

// NeighbourAt returns the facet id on the outside of a wall-edge, or
// EdgeNeighbour when the wall faces the image frame.
func NeighbourAt(pt geom.PathPoint, res *Result) int32 {
	x, y := pt.X, pt.Y
	switch pt.Orientation {
	case geom.Left:
		x--
	case geom.Right:
		x++
	case geom.Top:
		y--
	case geom.Bottom:
		y++
	}
	if !geom.InBounds(x, y, res.Width, res.Height) {
		return EdgeNeighbour
	}
	return int32(res.Map.Get(x, y))
}
