package facets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

// ErrTraceDidNotClose is returned when a facet's wall-following trace
// terminates without coming back around to its starting wall.
var ErrTraceDidNotClose = errors.New("facets: border trace did not close")

// TraceAll builds the border path of every facet with a wall-following
// walk. The walk imagines an observer standing on one wall of a border
// pixel, keeping the facet interior on the inside, and repeatedly choosing
// the next wall by a strict priority: rotations at the same pixel first
// (tight convex corners), then straight moves, then diagonal turns (so a
// one-pixel chokepoint is walked around rather than across).
//
// Facets are processed largest first so the shared wall grids pay off on
// the big regions. The border mask and wall grids are reused across facets;
// each trace clears only the walls it set.
func TraceAll(ctx context.Context, res *Result, onProgress func(float64)) error {
	borderMask := geom.NewBoolGrid(res.Width, res.Height)
	// xWall(x, y) is the left wall of pixel (x, y); the right wall of
	// (x, y) lives at xWall(x+1, y). Same scheme for yWall horizontally.
	xWall := geom.NewBoolGrid(res.Width+1, res.Height+1)
	yWall := geom.NewBoolGrid(res.Width+1, res.Height+1)

	order := make([]int32, 0, len(res.Facets))
	for _, f := range res.Facets {
		if f != nil {
			order = append(order, f.ID)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return res.Facets[order[i]].PointCount > res.Facets[order[j]].PointCount
	})

	for n, id := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := res.Facets[id]

		if len(f.BorderPoints) == 0 {
			f.BorderPath = nil
			continue
		}

		for _, bp := range f.BorderPoints {
			borderMask.Set(bp.X, bp.Y, true)
		}

		start := findStartPoint(f, res)
		path := walkPath(start, res, f, borderMask, xWall, yWall)

		if !isClosedLoop(path) {
			return fmt.Errorf("%w: facet %d", ErrTraceDidNotClose, f.ID)
		}
		f.BorderPath = path

		if onProgress != nil && (n+1)%100 == 0 {
			onProgress(float64(n) / float64(len(order)))
		}
	}

	if onProgress != nil {
		onProgress(1.0)
	}
	return nil
}

// findStartPoint picks a border point touching the bounding box frame
// (guaranteed to expose an outward wall) and orients it toward the first
// outside direction in L, T, R, B order.
func findStartPoint(f *Facet, res *Result) geom.PathPoint {
	start := f.BorderPoints[0]
	for _, bp := range f.BorderPoints {
		if bp.X == f.BBox.MinX || bp.X == f.BBox.MaxX || bp.Y == f.BBox.MinY || bp.Y == f.BBox.MaxY {
			start = bp
			break
		}
	}

	pt := geom.NewPathPoint(start.X, start.Y, geom.Left)
	switch {
	case outsideFacet(pt.X-1, pt.Y, f, res):
		pt.Orientation = geom.Left
	case outsideFacet(pt.X, pt.Y-1, f, res):
		pt.Orientation = geom.Top
	case outsideFacet(pt.X+1, pt.Y, f, res):
		pt.Orientation = geom.Right
	case outsideFacet(pt.X, pt.Y+1, f, res):
		pt.Orientation = geom.Bottom
	}
	return pt
}

func outsideFacet(x, y int, f *Facet, res *Result) bool {
	return !geom.InBounds(x, y, res.Width, res.Height) || int32(res.Map.Get(x, y)) != f.ID
}

func insideFacet(x, y int, f *Facet, res *Result) bool {
	return geom.InBounds(x, y, res.Width, res.Height) && int32(res.Map.Get(x, y)) == f.ID
}

// walkPath follows walls from pt until no successor remains, then clears
// the walls it marked so the grids can be reused by the next facet.
func walkPath(pt geom.PathPoint, res *Result, f *Facet, borderMask, xWall, yWall *geom.BoolGrid) []geom.PathPoint {
	t := &tracer{res: res, f: f, mask: borderMask, xWall: xWall, yWall: yWall}

	path := []geom.PathPoint{}
	t.markWall(pt)
	path = append(path, pt)

	for {
		var next geom.PathPoint
		var ok bool
		switch pt.Orientation {
		case geom.Left:
			next, ok = t.nextFromLeft(pt)
		case geom.Top:
			next, ok = t.nextFromTop(pt)
		case geom.Right:
			next, ok = t.nextFromRight(pt)
		case geom.Bottom:
			next, ok = t.nextFromBottom(pt)
		}
		if !ok {
			break
		}
		pt = next
		t.markWall(pt)
		path = append(path, pt)
	}

	for _, p := range path {
		t.setWall(p, false)
	}

	return path
}

// isClosedLoop verifies the path forms a closed cycle: consecutive walls
// (including last back to first) always sit at wall-centre Manhattan
// distance exactly 1, for rotations, straight moves and diagonal turns
// alike.
func isClosedLoop(path []geom.PathPoint) bool {
	if len(path) < 4 {
		return false
	}
	for i := range path {
		a := path[i]
		b := path[(i+1)%len(path)]
		d := math.Abs(a.WallX()-b.WallX()) + math.Abs(a.WallY()-b.WallY())
		if d != 1 {
			return false
		}
	}
	return true
}

type tracer struct {
	res   *Result
	f     *Facet
	mask  *geom.BoolGrid
	xWall *geom.BoolGrid
	yWall *geom.BoolGrid
}

func (t *tracer) markWall(pt geom.PathPoint) { t.setWall(pt, true) }

func (t *tracer) setWall(pt geom.PathPoint, v bool) {
	switch pt.Orientation {
	case geom.Left:
		t.xWall.Set(pt.X, pt.Y, v)
	case geom.Top:
		t.yWall.Set(pt.X, pt.Y, v)
	case geom.Right:
		t.xWall.Set(pt.X+1, pt.Y, v)
	case geom.Bottom:
		t.yWall.Set(pt.X, pt.Y+1, v)
	}
}

// Candidate checks below mirror each other under the symmetry of the four
// orientations. Each successor must keep the facet on the inside, follow an
// outward unmarked wall, and for moves to another pixel, land on a border
// point of the same facet.

func (t *tracer) nextFromLeft(pt geom.PathPoint) (geom.PathPoint, bool) {
	// Rotate to top
	if outsideFacet(pt.X, pt.Y-1, t.f, t.res) && !t.yWall.Get(pt.X, pt.Y) {
		return geom.NewPathPoint(pt.X, pt.Y, geom.Top), true
	}
	// Rotate to bottom
	if outsideFacet(pt.X, pt.Y+1, t.f, t.res) && !t.yWall.Get(pt.X, pt.Y+1) {
		return geom.NewPathPoint(pt.X, pt.Y, geom.Bottom), true
	}
	// Straight up
	if insideFacet(pt.X, pt.Y-1, t.f, t.res) &&
		outsideFacet(pt.X-1, pt.Y-1, t.f, t.res) &&
		t.mask.Get(pt.X, pt.Y-1) &&
		!t.xWall.Get(pt.X, pt.Y-1) {
		return geom.NewPathPoint(pt.X, pt.Y-1, geom.Left), true
	}
	// Straight down
	if insideFacet(pt.X, pt.Y+1, t.f, t.res) &&
		outsideFacet(pt.X-1, pt.Y+1, t.f, t.res) &&
		t.mask.Get(pt.X, pt.Y+1) &&
		!t.xWall.Get(pt.X, pt.Y+1) {
		return geom.NewPathPoint(pt.X, pt.Y+1, geom.Left), true
	}
	// Diagonal up-left
	if insideFacet(pt.X-1, pt.Y-1, t.f, t.res) &&
		t.mask.Get(pt.X-1, pt.Y-1) &&
		!t.yWall.Get(pt.X-1, pt.Y) &&
		!t.yWall.Get(pt.X, pt.Y) {
		return geom.NewPathPoint(pt.X-1, pt.Y-1, geom.Bottom), true
	}
	// Diagonal down-left
	if insideFacet(pt.X-1, pt.Y+1, t.f, t.res) &&
		t.mask.Get(pt.X-1, pt.Y+1) &&
		!t.yWall.Get(pt.X-1, pt.Y+1) &&
		!t.yWall.Get(pt.X, pt.Y+1) {
		return geom.NewPathPoint(pt.X-1, pt.Y+1, geom.Top), true
	}
	return geom.PathPoint{}, false
}

func (t *tracer) nextFromTop(pt geom.PathPoint) (geom.PathPoint, bool) {
	// Rotate to left
	if outsideFacet(pt.X-1, pt.Y, t.f, t.res) && !t.xWall.Get(pt.X, pt.Y) {
		return geom.NewPathPoint(pt.X, pt.Y, geom.Left), true
	}
	// Rotate to right
	if outsideFacet(pt.X+1, pt.Y, t.f, t.res) && !t.xWall.Get(pt.X+1, pt.Y) {
		return geom.NewPathPoint(pt.X, pt.Y, geom.Right), true
	}
	// Straight left
	if insideFacet(pt.X-1, pt.Y, t.f, t.res) &&
		outsideFacet(pt.X-1, pt.Y-1, t.f, t.res) &&
		t.mask.Get(pt.X-1, pt.Y) &&
		!t.yWall.Get(pt.X-1, pt.Y) {
		return geom.NewPathPoint(pt.X-1, pt.Y, geom.Top), true
	}
	// Straight right
	if insideFacet(pt.X+1, pt.Y, t.f, t.res) &&
		outsideFacet(pt.X+1, pt.Y-1, t.f, t.res) &&
		t.mask.Get(pt.X+1, pt.Y) &&
		!t.yWall.Get(pt.X+1, pt.Y) {
		return geom.NewPathPoint(pt.X+1, pt.Y, geom.Top), true
	}
	// Diagonal up-left
	if insideFacet(pt.X-1, pt.Y-1, t.f, t.res) &&
		t.mask.Get(pt.X-1, pt.Y-1) &&
		!t.xWall.Get(pt.X, pt.Y-1) &&
		!t.xWall.Get(pt.X, pt.Y) {
		return geom.NewPathPoint(pt.X-1, pt.Y-1, geom.Right), true
	}
	// Diagonal up-right
	if insideFacet(pt.X+1, pt.Y-1, t.f, t.res) &&
		t.mask.Get(pt.X+1, pt.Y-1) &&
		!t.xWall.Get(pt.X+1, pt.Y-1) &&
		!t.xWall.Get(pt.X+1, pt.Y) {
		return geom.NewPathPoint(pt.X+1, pt.Y-1, geom.Left), true
	}
	return geom.PathPoint{}, false
}

func (t *tracer) nextFromRight(pt geom.PathPoint) (geom.PathPoint, bool) {
	// Rotate to top
	if outsideFacet(pt.X, pt.Y-1, t.f, t.res) && !t.yWall.Get(pt.X, pt.Y) {
		return geom.NewPathPoint(pt.X, pt.Y, geom.Top), true
	}
	// Rotate to bottom
	if outsideFacet(pt.X, pt.Y+1, t.f, t.res) && !t.yWall.Get(pt.X, pt.Y+1) {
		return geom.NewPathPoint(pt.X, pt.Y, geom.Bottom), true
	}
	// Straight up
	if insideFacet(pt.X, pt.Y-1, t.f, t.res) &&
		outsideFacet(pt.X+1, pt.Y-1, t.f, t.res) &&
		t.mask.Get(pt.X, pt.Y-1) &&
		!t.xWall.Get(pt.X+1, pt.Y-1) {
		return geom.NewPathPoint(pt.X, pt.Y-1, geom.Right), true
	}
	// Straight down
	if insideFacet(pt.X, pt.Y+1, t.f, t.res) &&
		outsideFacet(pt.X+1, pt.Y+1, t.f, t.res) &&
		t.mask.Get(pt.X, pt.Y+1) &&
		!t.xWall.Get(pt.X+1, pt.Y+1) {
		return geom.NewPathPoint(pt.X, pt.Y+1, geom.Right), true
	}
	// Diagonal up-right
	if insideFacet(pt.X+1, pt.Y-1, t.f, t.res) &&
		t.mask.Get(pt.X+1, pt.Y-1) &&
		!t.yWall.Get(pt.X+1, pt.Y) &&
		!t.yWall.Get(pt.X, pt.Y) {
		return geom.NewPathPoint(pt.X+1, pt.Y-1, geom.Bottom), true
	}
	// Diagonal down-right
	if insideFacet(pt.X+1, pt.Y+1, t.f, t.res) &&
		t.mask.Get(pt.X+1, pt.Y+1) &&
		!t.yWall.Get(pt.X+1, pt.Y+1) &&
		!t.yWall.Get(pt.X, pt.Y+1) {
		return geom.NewPathPoint(pt.X+1, pt.Y+1, geom.Top), true
	}
	return geom.PathPoint{}, false
}

func (t *tracer) nextFromBottom(pt geom.PathPoint) (geom.PathPoint, bool) {
	// Rotate to left
	if outsideFacet(pt.X-1, pt.Y, t.f, t.res) && !t.xWall.Get(pt.X, pt.Y) {
		return geom.NewPathPoint(pt.X, pt.Y, geom.Left), true
	}
	// Rotate to right
	if outsideFacet(pt.X+1, pt.Y, t.f, t.res) && !t.xWall.Get(pt.X+1, pt.Y) {
		return geom.NewPathPoint(pt.X, pt.Y, geom.Right), true
	}
	// Straight left
	if insideFacet(pt.X-1, pt.Y, t.f, t.res) &&
		outsideFacet(pt.X-1, pt.Y+1, t.f, t.res) &&
		t.mask.Get(pt.X-1, pt.Y) &&
		!t.yWall.Get(pt.X-1, pt.Y+1) {
		return geom.NewPathPoint(pt.X-1, pt.Y, geom.Bottom), true
	}
	// Straight right
	if insideFacet(pt.X+1, pt.Y, t.f, t.res) &&
		outsideFacet(pt.X+1, pt.Y+1, t.f, t.res) &&
		t.mask.Get(pt.X+1, pt.Y) &&
		!t.yWall.Get(pt.X+1, pt.Y+1) {
		return geom.NewPathPoint(pt.X+1, pt.Y, geom.Bottom), true
	}
	// Diagonal down-left
	if insideFacet(pt.X-1, pt.Y+1, t.f, t.res) &&
		t.mask.Get(pt.X-1, pt.Y+1) &&
		!t.xWall.Get(pt.X, pt.Y+1) &&
		!t.xWall.Get(pt.X, pt.Y) {
		return geom.NewPathPoint(pt.X-1, pt.Y+1, geom.Right), true
	}
	// Diagonal down-right
	if insideFacet(pt.X+1, pt.Y+1, t.f, t.res) &&
		t.mask.Get(pt.X+1, pt.Y+1) &&
		!t.xWall.Get(pt.X+1, pt.Y+1) &&
		!t.xWall.Get(pt.X+1, pt.Y) {
		return geom.NewPathPoint(pt.X+1, pt.Y+1, geom.Left), true
	}
	return geom.PathPoint{}, false
}
