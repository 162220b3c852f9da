package facets

import (
	"sort"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

// BuildAll scans the color index grid row by row and flood fills a facet
// from every pixel not yet claimed by one. The returned Result owns the
// facet array and the filled facet id map.
func BuildAll(indices *geom.Uint8Grid, width, height int) *Result {
	res := &Result{
		Map:    geom.NewUint32Grid(width, height),
		Width:  width,
		Height: height,
	}
	visited := geom.NewBoolGrid(width, height)

	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			if visited.Get(i, j) {
				continue
			}
			id := int32(len(res.Facets))
			f := buildFacet(id, indices.Get(i, j), i, j, visited, indices, res)
			res.Facets = append(res.Facets, f)
		}
	}

	return res
}

// buildFacet flood fills the 4-connected same-color region containing
// (x, y), recording point count, bounding box and border points as it goes
// and writing the facet id into the result map. Facets touched by the
// reducer are rebuilt with the same routine over a shared visited grid.
func buildFacet(id int32, color uint8, x, y int, visited *geom.BoolGrid, indices *geom.Uint8Grid, res *Result) *Facet {
	f := &Facet{
		ID:    id,
		Color: color,
		BBox:  geom.NewBoundingBox(),
	}

	if visited.Get(x, y) || indices.Get(x, y) != color {
		return f
	}

	stack := []geom.Point{{X: x, Y: y}}
	visited.Set(x, y, true)

	for len(stack) > 0 {
		pt := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		res.Map.Set(pt.X, pt.Y, uint32(id))
		f.PointCount++
		f.BBox.Expand(pt.X, pt.Y)

		// A pixel whose 4-neighbourhood is not uniformly this color is a
		// border point; the image frame counts as a mismatch.
		if !indices.MatchAllAround(pt.X, pt.Y, color) {
			f.BorderPoints = append(f.BorderPoints, pt)
		}

		for _, n := range [4]geom.Point{
			{X: pt.X - 1, Y: pt.Y},
			{X: pt.X + 1, Y: pt.Y},
			{X: pt.X, Y: pt.Y - 1},
			{X: pt.X, Y: pt.Y + 1},
		} {
			if !geom.InBounds(n.X, n.Y, res.Width, res.Height) {
				continue
			}
			if visited.Get(n.X, n.Y) || indices.Get(n.X, n.Y) != color {
				continue
			}
			visited.Set(n.X, n.Y, true)
			stack = append(stack, n)
		}
	}

	return f
}

// BuildNeighbours refreshes the facet's neighbour set by inspecting the
// in-bounds 4-neighbours of every border point, and clears the dirty state.
func BuildNeighbours(f *Facet, res *Result) {
	seen := make(map[int32]struct{})
	for _, pt := range f.BorderPoints {
		for _, n := range [4]geom.Point{
			{X: pt.X - 1, Y: pt.Y},
			{X: pt.X + 1, Y: pt.Y},
			{X: pt.X, Y: pt.Y - 1},
			{X: pt.X, Y: pt.Y + 1},
		} {
			if !geom.InBounds(n.X, n.Y, res.Width, res.Height) {
				continue
			}
			id := int32(res.Map.Get(n.X, n.Y))
			if id != f.ID {
				seen[id] = struct{}{}
			}
		}
	}

	// Sorted so downstream tie-breaking is deterministic.
	f.Neighbours = make([]int32, 0, len(seen))
	for id := range seen {
		f.Neighbours = append(f.Neighbours, id)
	}
	sort.Slice(f.Neighbours, func(i, j int) bool { return f.Neighbours[i] < f.Neighbours[j] })
}
