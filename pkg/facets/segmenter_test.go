package facets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

func buildTraced(t *testing.T, rows [][]uint8) *Result {
	t.Helper()
	indices := gridFromRows(rows)
	res := BuildAll(indices, len(rows[0]), len(rows))
	require.NoError(t, TraceAll(context.Background(), res, nil))
	return res
}

func TestSegmentSingleFacetOwnsEdges(t *testing.T) {
	// A single-color image has only image-edge segments; nothing matches.
	res := buildTraced(t, [][]uint8{
		{0, 0, 0},
		{0, 0, 0},
		{0, 0, 0},
	})

	stats, err := SegmentAll(context.Background(), res, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Matched)
	assert.Equal(t, 0, stats.Unmatched)
	assert.Greater(t, stats.EdgeOwned, 0)

	for _, seg := range res.Facets[0].BorderSegments {
		require.NotNil(t, seg)
		assert.Equal(t, EdgeNeighbour, seg.Neighbour)
	}
}

func TestSegmentTwoRegionsShareOneSegment(t *testing.T) {
	// E2: the 4x2 split image yields exactly one shared segment, stored
	// once and traversed in opposite directions by the two facets.
	res := buildTraced(t, [][]uint8{
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	})

	stats, err := SegmentAll(context.Background(), res, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 0, stats.Unmatched)

	shared0 := sharedSegments(res.Facets[0])
	shared1 := sharedSegments(res.Facets[1])
	require.Len(t, shared0, 1)
	require.Len(t, shared1, 1)

	// Both sides reference the same PathSegment, one of them reversed.
	assert.Same(t, shared0[0].Segment, shared1[0].Segment)
	assert.NotEqual(t, shared0[0].Reverse, shared1[0].Reverse)
	assert.Equal(t, int32(1), shared0[0].Neighbour)
	assert.Equal(t, int32(0), shared1[0].Neighbour)
}

func TestSegmentConcatenationReconstructsLoop(t *testing.T) {
	res := buildTraced(t, [][]uint8{
		{0, 0, 1, 1},
		{0, 0, 1, 1},
	})

	_, err := SegmentAll(context.Background(), res, 0, nil)
	require.NoError(t, err)

	for _, f := range res.Facets {
		// Without smoothing, walking the facet's segments visits every
		// wall of its original border path. Shared segments store the
		// neighbour's path points, so coverage is checked by wall
		// coordinates (a right wall of one facet is the left wall of the
		// other).
		walls := make(map[[2]float64]bool)
		for _, pt := range f.BorderPath {
			walls[[2]float64{pt.WallX(), pt.WallY()}] = true
		}
		covered := make(map[[2]float64]bool)
		for _, seg := range f.BorderSegments {
			require.NotNil(t, seg)
			for _, pt := range seg.Segment.Points {
				key := [2]float64{pt.WallX(), pt.WallY()}
				if walls[key] {
					covered[key] = true
				}
			}
		}
		assert.Equal(t, len(walls), len(covered), "facet %d segments do not cover its loop", f.ID)
	}
}

func TestSegmentEnclosedFacetStaysUnmatched(t *testing.T) {
	// E3: the surround's outer loop never touches the centre pixel, so the
	// centre's segment has no partner and stays owned unmatched.
	res := buildTraced(t, [][]uint8{
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	})

	stats, err := SegmentAll(context.Background(), res, 0, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Matched)
	assert.Equal(t, 1, stats.Unmatched)

	centre := res.Facets[1]
	require.Len(t, centre.BorderSegments, 1)
	assert.Equal(t, int32(0), centre.BorderSegments[0].Neighbour)
	assert.Len(t, centre.BorderSegments[0].Segment.Points, 4)

	assert.Error(t, stats.ExceedsTolerance(0.5))
	assert.NoError(t, stats.ExceedsTolerance(1.0))
}

func TestSegmentSmoothingContraction(t *testing.T) {
	// §8.8: every halving pass shrinks a segment to at most
	// ceil((n-1)/2)+1 points and preserves the endpoints, once the path is
	// long enough to be reduced at all.
	path := make([]geom.PathPoint, 16)
	for i := range path {
		path[i] = geom.NewPathPoint(10+i, 5, geom.Top)
	}

	reduced := reduceHaarWavelet(path, 100, 100)
	n := len(path)
	maxLen := (n-1+1)/2 + 1
	assert.LessOrEqual(t, len(reduced), maxLen)
	assert.Equal(t, path[0], reduced[0])
	assert.Equal(t, path[n-1], reduced[len(reduced)-1])

	// Short paths are left alone.
	short := path[:5]
	assert.Equal(t, short, reduceHaarWavelet(short, 100, 100))
}

func TestSegmentSmoothingPreservesFramePoints(t *testing.T) {
	// Points on the image frame survive verbatim so the outer boundary
	// does not erode.
	path := make([]geom.PathPoint, 10)
	for i := range path {
		path[i] = geom.NewPathPoint(i, 0, geom.Top)
	}

	reduced := reduceHaarWavelet(path, 10, 10)
	assert.Equal(t, path, reduced)
}

func TestSegmentSmoothingKeepsEndpointsMatchable(t *testing.T) {
	// After smoothing, shared segments must still pair up across the two
	// facets of a vertical split.
	res := buildTraced(t, [][]uint8{
		{0, 0, 0, 1, 1, 1},
		{0, 0, 0, 1, 1, 1},
		{0, 0, 0, 1, 1, 1},
		{0, 0, 0, 1, 1, 1},
		{0, 0, 0, 1, 1, 1},
		{0, 0, 0, 1, 1, 1},
	})

	stats, err := SegmentAll(context.Background(), res, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Matched)
	assert.Equal(t, 0, stats.Unmatched)
}

func sharedSegments(f *Facet) []*BoundarySegment {
	var shared []*BoundarySegment
	for _, seg := range f.BorderSegments {
		if seg != nil && seg.Neighbour != EdgeNeighbour {
			shared = append(shared, seg)
		}
	}
	return shared
}
