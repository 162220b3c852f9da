package facets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

// checkLoop asserts the §8 loop closure invariant: consecutive walls
// (cyclically) are adjacent, and no wall repeats.
func checkLoop(t *testing.T, path []geom.PathPoint) {
	t.Helper()
	require.GreaterOrEqual(t, len(path), 4)

	seen := make(map[geom.PathPoint]bool, len(path))
	for _, pt := range path {
		require.False(t, seen[pt], "wall %+v repeated", pt)
		seen[pt] = true
	}

	for i := range path {
		a := path[i]
		b := path[(i+1)%len(path)]
		dx := a.WallX() - b.WallX()
		dy := a.WallY() - b.WallY()
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		require.Equal(t, 1.0, dx+dy, "walls %+v and %+v are not adjacent", a, b)
	}
}

func TestTraceSingleFacet(t *testing.T) {
	// E1: a 3x3 single-color image traces one loop of perimeter 12.
	indices := gridFromRows([][]uint8{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	})
	res := BuildAll(indices, 3, 3)

	require.NoError(t, TraceAll(context.Background(), res, nil))

	path := res.Facets[0].BorderPath
	assert.Len(t, path, 12)
	checkLoop(t, path)
}

func TestTraceOnePixelImage(t *testing.T) {
	indices := gridFromRows([][]uint8{{0}})
	res := BuildAll(indices, 1, 1)

	require.NoError(t, TraceAll(context.Background(), res, nil))

	path := res.Facets[0].BorderPath
	assert.Len(t, path, 4)
	checkLoop(t, path)
}

func TestTraceEnclosedPixel(t *testing.T) {
	// E3: the centre pixel's loop is its own four walls.
	indices := gridFromRows([][]uint8{
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	})
	res := BuildAll(indices, 3, 3)

	require.NoError(t, TraceAll(context.Background(), res, nil))

	centre := res.Facets[1]
	require.Len(t, centre.BorderPath, 4)
	checkLoop(t, centre.BorderPath)
	for _, pt := range centre.BorderPath {
		assert.Equal(t, geom.Point{X: 1, Y: 1}, pt.Point)
	}

	// The surround's outer loop is the image frame perimeter.
	surround := res.Facets[0]
	assert.Len(t, surround.BorderPath, 12)
	checkLoop(t, surround.BorderPath)
}

func TestTraceTwoRegions(t *testing.T) {
	// E2: both halves of a 4x2 split trace a perimeter-8 loop.
	indices := gridFromRows([][]uint8{
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	})
	res := BuildAll(indices, 4, 2)

	require.NoError(t, TraceAll(context.Background(), res, nil))

	for _, f := range res.Facets {
		assert.Len(t, f.BorderPath, 8, "facet %d", f.ID)
		checkLoop(t, f.BorderPath)
	}
}

func TestTraceChokepoint(t *testing.T) {
	// Two blobs joined by a single-pixel bridge: the diagonal rules keep
	// the trace walking around the waist instead of across it.
	indices := gridFromRows([][]uint8{
		{0, 0, 1, 1, 1},
		{0, 0, 0, 1, 1},
		{1, 1, 0, 0, 0},
		{1, 1, 0, 0, 0},
	})
	res := BuildAll(indices, 5, 4)

	require.NoError(t, TraceAll(context.Background(), res, nil))

	for _, f := range res.Facets {
		checkLoop(t, f.BorderPath)
	}
}

func TestTraceCheckerboardLoops(t *testing.T) {
	indices := gridFromRows([][]uint8{
		{0, 1, 0},
		{1, 0, 1},
		{0, 1, 0},
	})
	res := BuildAll(indices, 3, 3)

	require.NoError(t, TraceAll(context.Background(), res, nil))

	for _, f := range res.Facets {
		require.Len(t, f.BorderPath, 4, "facet %d", f.ID)
		checkLoop(t, f.BorderPath)
	}
}

func TestTraceCancellation(t *testing.T) {
	indices := gridFromRows([][]uint8{{0, 1}})
	res := BuildAll(indices, 2, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, TraceAll(ctx, res, nil), context.Canceled)
}
