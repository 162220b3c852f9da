package facets

import (
	"context"
	"errors"
	"fmt"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

// ErrUnmatchedSegments is returned by SegmentStats.ExceedsTolerance when too
// many non-edge segments failed to pair up with a neighbour segment.
var ErrUnmatchedSegments = errors.New("facets: too many unmatched border segments")

// Matching tolerance on segment endpoints, in Manhattan distance. The two
// facets trace a shared edge from pixels on opposite sides of it, so their
// endpoints differ by a couple of pixels; 4 leaves headroom without letting
// unrelated segments pair up.
const maxSegmentMatchDistance = 4

// Paths at or below this length are left alone by the Haar reduction.
const minPathLengthForReduction = 5

// SegmentStats reports the outcome of the matching pass.
type SegmentStats struct {
	// Matched counts canonical segments shared by two facets.
	Matched int
	// Unmatched counts non-edge segments that found no partner and stay
	// owned by a single facet.
	Unmatched int
	// EdgeOwned counts segments facing the image frame; these are never
	// matched.
	EdgeOwned int
}

// ExceedsTolerance returns a wrapped ErrUnmatchedSegments when the share
// of non-edge segments left unmatched is above fraction, nil otherwise.
// Unmatched segments are expected for fully enclosed facets (the enclosing
// facet's outer loop never touches them), so callers treat this as a
// warning rather than a failure.
func (s SegmentStats) ExceedsTolerance(fraction float64) error {
	total := s.Matched + s.Unmatched
	if total == 0 {
		return nil
	}
	if got := float64(s.Unmatched) / float64(total); got > fraction {
		return fmt.Errorf("%w: %d of %d (%.0f%%)", ErrUnmatchedSegments, s.Unmatched, total, got*100)
	}
	return nil
}

// SegmentAll chops every facet's border path into segments wherever the
// neighbour on the far side of the wall changes, halves each segment's
// point count with Haar-style pair averaging, and then matches segments
// pairwise between adjacent facets so shared geometry is stored once.
func SegmentAll(ctx context.Context, res *Result, smoothingPasses int, onProgress func(float64)) (SegmentStats, error) {
	perFacet := prepareSegments(res)
	reduceComplexity(res, perFacet, smoothingPasses)
	return matchSegments(ctx, res, perFacet, onProgress)
}

// prepareSegments walks each facet's cyclic border path and starts a new
// segment whenever the wall's outside neighbour changes. Two consecutive
// path points on the same pixel are a rotation folding around a diagonal;
// the diagonal pixel's facet is inspected too, because a different facet
// there also ends the shared run. The open tail wraps into the first
// segment when both face the same neighbour.
func prepareSegments(res *Result) [][]*PathSegment {
	perFacet := make([][]*PathSegment, len(res.Facets))

	for _, f := range res.Facets {
		if f == nil || len(f.BorderPath) <= 1 {
			continue
		}

		var segments []*PathSegment
		current := []geom.PathPoint{f.BorderPath[0]}

		for i := 1; i < len(f.BorderPath); i++ {
			prev := f.BorderPath[i-1]
			cur := f.BorderPath[i]

			oldNeighbour := NeighbourAt(prev, res)
			curNeighbour := NeighbourAt(cur, res)

			transition := false
			if oldNeighbour != curNeighbour {
				transition = true
			} else if oldNeighbour != EdgeNeighbour && prev.X == cur.X && prev.Y == cur.Y {
				if diagonalNeighbour(prev, cur, res) != oldNeighbour {
					transition = true
				}
			}

			current = append(current, cur)

			if transition && len(current) > 1 {
				segments = append(segments, &PathSegment{Points: current, Neighbour: oldNeighbour})
				current = []geom.PathPoint{cur}
			}
		}

		// Wrap-around: merge the tail into the first segment when they
		// face the same neighbour.
		if len(current) > 1 {
			tailNeighbour := NeighbourAt(f.BorderPath[len(f.BorderPath)-1], res)
			if len(segments) > 0 && segments[0].Neighbour == tailNeighbour {
				segments[0].Points = append(current, segments[0].Points...)
			} else {
				segments = append(segments, &PathSegment{Points: current, Neighbour: tailNeighbour})
			}
		}

		perFacet[f.ID] = segments
	}

	return perFacet
}

// diagonalNeighbour resolves the facet across the corner a rotation folds
// around, identified by the pair of orientations at the shared pixel.
func diagonalNeighbour(prev, cur geom.PathPoint, res *Result) int32 {
	o1, o2 := prev.Orientation, cur.Orientation
	var dx, dy int
	switch {
	case pairIs(o1, o2, geom.Top, geom.Left):
		dx, dy = -1, -1
	case pairIs(o1, o2, geom.Top, geom.Right):
		dx, dy = 1, -1
	case pairIs(o1, o2, geom.Bottom, geom.Left):
		dx, dy = -1, 1
	case pairIs(o1, o2, geom.Bottom, geom.Right):
		dx, dy = 1, 1
	default:
		return EdgeNeighbour
	}
	x, y := cur.X+dx, cur.Y+dy
	if !geom.InBounds(x, y, res.Width, res.Height) {
		return EdgeNeighbour
	}
	return int32(res.Map.Get(x, y))
}

func pairIs(o1, o2, a, b geom.Orientation) bool {
	return (o1 == a && o2 == b) || (o1 == b && o2 == a)
}

// reduceComplexity runs the Haar halving over every segment.
func reduceComplexity(res *Result, perFacet [][]*PathSegment, passes int) {
	for _, f := range res.Facets {
		if f == nil {
			continue
		}
		for _, seg := range perFacet[f.ID] {
			for n := 0; n < passes; n++ {
				seg.Points = reduceHaarWavelet(seg.Points, res.Width, res.Height)
			}
		}
	}
}

// reduceHaarWavelet halves a segment by replacing interior point pairs with
// their midpoint, keeping the first and last points so endpoints stay
// matchable. Points on the image frame are kept verbatim (both pair
// members) so the outer boundary never erodes. The midpoint's orientation
// collapses to Left; only its wall coordinates matter from here on.
func reduceHaarWavelet(path []geom.PathPoint, width, height int) []geom.PathPoint {
	if len(path) <= minPathLengthForReduction {
		return path
	}

	reduced := []geom.PathPoint{path[0]}
	for i := 1; i < len(path)-2; i += 2 {
		if onImageFrame(path[i], width, height) {
			reduced = append(reduced, path[i], path[i+1])
			continue
		}
		cx := (path[i].X + path[i+1].X) / 2
		cy := (path[i].Y + path[i+1].Y) / 2
		reduced = append(reduced, geom.NewPathPoint(cx, cy, geom.Left))
	}
	reduced = append(reduced, path[len(path)-1])

	return reduced
}

func onImageFrame(pt geom.PathPoint, width, height int) bool {
	return pt.X == 0 || pt.Y == 0 || pt.X == width-1 || pt.Y == height-1
}

// matchSegments pairs each facet segment with the corresponding segment of
// its neighbour. A pair matches when both endpoints coincide within the
// tolerance, either in the same order or reversed; when both orders match,
// the smaller total endpoint distance wins. The matched neighbour segment
// is replaced by a reference to the canonical one with the reverse flag
// set, and both working entries are cleared so nothing is matched twice.
func matchSegments(ctx context.Context, res *Result, perFacet [][]*PathSegment, onProgress func(float64)) (SegmentStats, error) {
	var stats SegmentStats

	for _, f := range res.Facets {
		if f != nil {
			f.BorderSegments = make([]*BoundarySegment, len(perFacet[f.ID]))
		}
	}

	count := 0
	for _, f := range res.Facets {
		if f == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		for s, segment := range perFacet[f.ID] {
			if segment == nil || f.BorderSegments[s] != nil {
				continue
			}

			f.BorderSegments[s] = &BoundarySegment{
				Segment:   segment,
				Neighbour: segment.Neighbour,
			}

			if segment.Neighbour == EdgeNeighbour {
				stats.EdgeOwned++
				perFacet[f.ID][s] = nil
				continue
			}

			neighbour := res.Facets[segment.Neighbour]
			matched := false
			if neighbour != nil {
				matched = matchWithNeighbour(f, segment, neighbour, perFacet)
			}
			if matched {
				stats.Matched++
			} else {
				stats.Unmatched++
			}

			perFacet[f.ID][s] = nil
		}

		count++
		if onProgress != nil && count%100 == 0 {
			onProgress(float64(f.ID) / float64(len(res.Facets)))
		}
	}

	if onProgress != nil {
		onProgress(1.0)
	}
	return stats, nil
}

func matchWithNeighbour(f *Facet, segment *PathSegment, neighbour *Facet, perFacet [][]*PathSegment) bool {
	segStart := segment.Points[0]
	segEnd := segment.Points[len(segment.Points)-1]

	for ns, candidate := range perFacet[neighbour.ID] {
		if candidate == nil || candidate.Neighbour != f.ID {
			continue
		}

		nStart := candidate.Points[0]
		nEnd := candidate.Points[len(candidate.Points)-1]

		straightDist := segStart.DistanceTo(nStart.Point) + segEnd.DistanceTo(nEnd.Point)
		reverseDist := segStart.DistanceTo(nEnd.Point) + segEnd.DistanceTo(nStart.Point)

		matchesStraight := segStart.DistanceTo(nStart.Point) <= maxSegmentMatchDistance &&
			segEnd.DistanceTo(nEnd.Point) <= maxSegmentMatchDistance
		matchesReverse := segStart.DistanceTo(nEnd.Point) <= maxSegmentMatchDistance &&
			segEnd.DistanceTo(nStart.Point) <= maxSegmentMatchDistance

		if matchesStraight && matchesReverse {
			if straightDist < reverseDist {
				matchesReverse = false
			} else {
				matchesStraight = false
			}
		}

		switch {
		case matchesStraight:
			neighbour.BorderSegments[ns] = &BoundarySegment{Segment: segment, Neighbour: f.ID}
			perFacet[neighbour.ID][ns] = nil
			return true
		case matchesReverse:
			neighbour.BorderSegments[ns] = &BoundarySegment{Segment: segment, Neighbour: f.ID, Reverse: true}
			perFacet[neighbour.ID][ns] = nil
			return true
		}
	}

	return false
}
