package facets

import (
	"context"
	"math"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

// Distance threshold below which polylabel stops refining. One pixel is
// plenty for label placement.
const labelPrecision = 1.0

// PlaceLabels finds a label anchor inside every facet: the pole of
// inaccessibility of the facet's outer boundary, with the boundaries of
// neighbour facets that fall entirely inside treated as holes so labels
// never land on an enclosed island.
func PlaceLabels(ctx context.Context, res *Result, onProgress func(float64)) error {
	count := 0

	for _, f := range res.Facets {
		if f == nil {
			count++
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		outer := f.FullPath(true)
		rings := [][]FullPathPoint{outer}
		outerOnly := rings[:1]

		if f.Neighbours == nil {
			BuildNeighbours(f, res)
		}
		for _, nid := range f.Neighbours {
			neighbour := res.Facets[nid]
			if neighbour == nil {
				continue
			}
			neighbourPath := neighbour.FullPath(true)
			if fallsInside(neighbourPath, f, outerOnly) {
				rings = append(rings, neighbourPath)
			}
		}

		result := polylabel(rings, labelPrecision)

		padding := 2 * math.Sqrt(2*result.Distance)
		f.LabelBounds = geom.BoundingBox{
			MinX: int(result.X - padding),
			MaxX: int(result.X + padding),
			MinY: int(result.Y - padding),
			MaxY: int(result.Y + padding),
		}

		count++
		if onProgress != nil && count%100 == 0 {
			onProgress(float64(count) / float64(len(res.Facets)))
		}
	}

	if onProgress != nil {
		onProgress(1.0)
	}
	return nil
}

// fallsInside reports whether every point of the neighbour's boundary lies
// within the facet: a cheap bbox rejection first, then the signed distance
// to the facet's outer ring.
func fallsInside(path []FullPathPoint, f *Facet, outerOnly [][]FullPathPoint) bool {
	for _, pt := range path {
		if pt.X < float64(f.BBox.MinX) || pt.X > float64(f.BBox.MaxX) ||
			pt.Y < float64(f.BBox.MinY) || pt.Y > float64(f.BBox.MaxY) {
			return false
		}
	}
	for _, pt := range path {
		if pointToPolygonDist(pt.X, pt.Y, outerOnly) < 0 {
			return false
		}
	}
	return true
}
