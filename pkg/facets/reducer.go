package facets

import (
	"context"
	"errors"
	"math"
	"sort"

	"github.com/Nuopel/paintbynumbersgenerator/pkg/colors"
	"github.com/Nuopel/paintbynumbersgenerator/pkg/geom"
)

// ErrAllFacetsEliminated is returned when the reduction thresholds would
// leave no facet standing.
var ErrAllFacetsEliminated = errors.New("facets: reduction eliminated every facet")

// ReduceOptions configures Reduce.
type ReduceOptions struct {
	// SmallerThan removes facets with fewer pixels than this. Zero disables
	// the size threshold.
	SmallerThan int
	// MaxFacets, when positive, caps the surviving facet count by removing
	// the smallest facets beyond the size threshold.
	MaxFacets int
	// LargeToSmall picks the batching order; the victim set is chosen up
	// front either way, so results only differ in progress pacing.
	LargeToSmall bool
	// OnProgress, when non-nil, receives values in [0, 1].
	OnProgress func(float64)
}

// Reduce removes all facets below the size threshold (and, if configured,
// the smallest facets beyond the max count) in a single batch: victims are
// chosen up front, their pixels reassigned to the nearest surviving
// neighbour, orphaned pixels filled by spiral search, and every touched
// facet rebuilt once. Choosing the whole victim set before any reassignment
// is what keeps simultaneously vanishing clusters of small facets from
// leaving holes.
func Reduce(ctx context.Context, res *Result, indices *geom.Uint8Grid, palette []colors.RGB, opts ReduceOptions) error {
	if opts.SmallerThan <= 0 && opts.MaxFacets <= 0 {
		reportProgress(opts.OnProgress, 1.0)
		return nil
	}

	victims := identifyVictims(res, opts)
	if len(victims) == 0 {
		reportProgress(opts.OnProgress, 1.0)
		return nil
	}
	if len(victims) == res.Count() {
		return ErrAllFacetsEliminated
	}
	reportProgress(opts.OnProgress, 0.2)

	distances := colors.DistanceMatrix(palette)

	affected, orphaned, err := reassignPixels(ctx, res, indices, victims, distances, opts)
	if err != nil {
		return err
	}
	reportProgress(opts.OnProgress, 0.7)

	for id := range fillOrphans(res, indices, victims, orphaned) {
		affected[id] = struct{}{}
	}
	reportProgress(opts.OnProgress, 0.8)

	if err := rebuildAffected(ctx, res, indices, victims, affected); err != nil {
		return err
	}
	reportProgress(opts.OnProgress, 0.95)

	for id := range victims {
		res.Facets[id] = nil
	}
	reportProgress(opts.OnProgress, 1.0)
	return nil
}

func reportProgress(onProgress func(float64), p float64) {
	if onProgress != nil {
		onProgress(p)
	}
}

// identifyVictims picks the whole removal set before any pixel moves:
// first everything under the size threshold, then, if a cap is set, the
// smallest remaining facets until the cap is met.
func identifyVictims(res *Result, opts ReduceOptions) map[int32]struct{} {
	victims := make(map[int32]struct{})

	type sized struct {
		id    int32
		count int
	}
	var valid []sized
	for _, f := range res.Facets {
		if f != nil {
			valid = append(valid, sized{id: f.ID, count: f.PointCount})
		}
	}

	if opts.SmallerThan > 0 {
		for _, s := range valid {
			if s.count < opts.SmallerThan {
				victims[s.id] = struct{}{}
			}
		}
	}

	if opts.MaxFacets > 0 {
		var remaining []sized
		for _, s := range valid {
			if _, doomed := victims[s.id]; !doomed {
				remaining = append(remaining, s)
			}
		}
		if len(remaining) > opts.MaxFacets {
			sort.Slice(remaining, func(i, j int) bool {
				if remaining[i].count != remaining[j].count {
					return remaining[i].count < remaining[j].count
				}
				return remaining[i].id < remaining[j].id
			})
			for _, s := range remaining[:len(remaining)-opts.MaxFacets] {
				victims[s.id] = struct{}{}
			}
		}
	}

	return victims
}

// sortedIDs returns the set's ids in ascending order so iteration is
// deterministic.
func sortedIDs(set map[int32]struct{}) []int32 {
	ids := make([]int32, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// reassignPixels rewrites every victim pixel to the color of its closest
// surviving neighbour. Pixels whose victim has no surviving neighbour at
// all are returned as orphans for the spiral fill.
func reassignPixels(ctx context.Context, res *Result, indices *geom.Uint8Grid, victims map[int32]struct{}, distances [][]float64, opts ReduceOptions) (map[int32]struct{}, []geom.Point, error) {
	affected := make(map[int32]struct{})
	var orphaned []geom.Point

	victimOrder := sortedIDs(victims)
	if opts.LargeToSmall {
		sort.SliceStable(victimOrder, func(i, j int) bool {
			return res.Facets[victimOrder[i]].PointCount > res.Facets[victimOrder[j]].PointCount
		})
	} else {
		sort.SliceStable(victimOrder, func(i, j int) bool {
			return res.Facets[victimOrder[i]].PointCount < res.Facets[victimOrder[j]].PointCount
		})
	}

	for _, id := range victimOrder {
		f := res.Facets[id]
		if f == nil {
			continue
		}
		if f.Neighbours == nil {
			BuildNeighbours(f, res)
		}
	}

	type assignment struct {
		pt    geom.Point
		color uint8
	}
	var assignments []assignment

	for n, id := range victimOrder {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		f := res.Facets[id]
		if f == nil {
			continue
		}

		for y := f.BBox.MinY; y <= f.BBox.MaxY; y++ {
			for x := f.BBox.MinX; x <= f.BBox.MaxX; x++ {
				if res.Map.Get(x, y) != uint32(id) {
					continue
				}
				closest := closestSurvivingNeighbour(f, victims, res, x, y, distances)
				if closest == -1 {
					orphaned = append(orphaned, geom.Point{X: x, Y: y})
					continue
				}
				assignments = append(assignments, assignment{
					pt:    geom.Point{X: x, Y: y},
					color: res.Facets[closest].Color,
				})
				affected[closest] = struct{}{}
			}
		}

		reportProgress(opts.OnProgress, 0.2+0.5*float64(n+1)/float64(len(victimOrder)))
	}

	for _, a := range assignments {
		indices.Set(a.pt.X, a.pt.Y, a.color)
	}

	return affected, orphaned, nil
}

// closestSurvivingNeighbour finds the neighbour of f (not itself a victim)
// whose border is nearest to (x, y) in Manhattan distance. Ties prefer the
// neighbour whose palette color is closest to the victim's. Returns -1 when
// every neighbour is also a victim.
func closestSurvivingNeighbour(f *Facet, victims map[int32]struct{}, res *Result, x, y int, distances [][]float64) int32 {
	closest := int32(-1)
	minDistance := math.MaxInt32
	minColorDistance := math.MaxFloat64
	colorRow := distances[f.Color]

	for _, nid := range f.Neighbours {
		if _, doomed := victims[nid]; doomed {
			continue
		}
		neigh := res.Facets[nid]
		if neigh == nil || len(neigh.BorderPoints) == 0 {
			continue
		}

		// Bbox lower bound prunes neighbours that cannot win.
		dx := max(0, max(neigh.BBox.MinX-x, x-neigh.BBox.MaxX))
		dy := max(0, max(neigh.BBox.MinY-y, y-neigh.BBox.MaxY))
		if dx+dy > minDistance {
			continue
		}

		minD := math.MaxInt32
		for _, bp := range neigh.BorderPoints {
			if d := bp.DistanceToCoord(x, y); d < minD {
				minD = d
			}
		}

		if minD < minDistance {
			minDistance = minD
			closest = nid
			minColorDistance = colorRow[neigh.Color]
		} else if minD == minDistance {
			if cd := colorRow[neigh.Color]; cd < minColorDistance {
				minColorDistance = cd
				closest = nid
			}
		}
	}

	return closest
}

// fillOrphans assigns each orphaned pixel the color of the nearest pixel
// belonging to a surviving facet, searching outward by increasing Chebyshev
// radius. This is what guarantees no voids remain when entire clusters of
// small facets vanish together.
func fillOrphans(res *Result, indices *geom.Uint8Grid, victims map[int32]struct{}, orphaned []geom.Point) map[int32]struct{} {
	affected := make(map[int32]struct{})
	maxRadius := max(res.Width, res.Height)

	for _, pt := range orphaned {
		found := false

		for radius := 1; radius < maxRadius && !found; radius++ {
			for dy := -radius; dy <= radius && !found; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					if abs(dx) != radius && abs(dy) != radius {
						continue
					}
					nx, ny := pt.X+dx, pt.Y+dy
					if !geom.InBounds(nx, ny, res.Width, res.Height) {
						continue
					}
					id := int32(res.Map.Get(nx, ny))
					if _, doomed := victims[id]; doomed {
						continue
					}
					if neigh := res.Facets[id]; neigh != nil {
						indices.Set(pt.X, pt.Y, neigh.Color)
						affected[id] = struct{}{}
						found = true
						break
					}
				}
			}
		}

		if !found {
			// Pathological fallback: copy any live 4-neighbour.
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
				if neigh := res.Facets[id]; neigh != nil {
					indices.Set(pt.X, pt.Y, neigh.Color)
					affected[id] = struct{}{}
					break
				}
			}
		}
	}

	return affected
}

// rebuildAffected re-runs the flood fill for every facet that gained pixels
// plus their neighbours, refreshing counts, bounding boxes and border
// points. Facets that come back empty were absorbed and are vacated. The
// visited grid is shared across rebuilds so same-color facets bridged by a
// removed victim merge into a single survivor.
func rebuildAffected(ctx context.Context, res *Result, indices *geom.Uint8Grid, victims, affected map[int32]struct{}) error {
	all := make(map[int32]struct{}, len(affected))
	for id := range affected {
		all[id] = struct{}{}
	}
	// Victims' surviving neighbours join the rebuild set as well: when a
	// removed facet bridged two same-color regions, the one rebuilt first
	// absorbs the other, and the absorbed one must be revisited to vacate
	// its slot.
	for id := range victims {
		f := res.Facets[id]
		if f == nil {
			continue
		}
		for _, nid := range f.Neighbours {
			if _, doomed := victims[nid]; !doomed {
				all[nid] = struct{}{}
			}
		}
	}
	for _, id := range sortedIDs(affected) {
		f := res.Facets[id]
		if f == nil {
			continue
		}
		if f.Neighbours == nil {
			BuildNeighbours(f, res)
		}
		for _, nid := range f.Neighbours {
			if _, doomed := victims[nid]; !doomed {
				all[nid] = struct{}{}
			}
		}
	}

	visited := geom.NewBoolGrid(res.Width, res.Height)

	for _, id := range sortedIDs(all) {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := res.Facets[id]
		if f == nil || len(f.BorderPoints) == 0 {
			continue
		}

		for y := f.BBox.MinY; y <= f.BBox.MaxY; y++ {
			for x := f.BBox.MinX; x <= f.BBox.MaxX; x++ {
				if res.Map.Get(x, y) == uint32(id) {
					visited.Set(x, y, false)
				}
			}
		}

		start := f.BorderPoints[0]
		rebuilt := buildFacet(id, f.Color, start.X, start.Y, visited, indices, res)
		if rebuilt.PointCount == 0 {
			res.Facets[id] = nil
			continue
		}
		res.Facets[id] = rebuilt
	}

	// Every rebuilt facet's neighbour set is stale now.
	for id := range all {
		if f := res.Facets[id]; f != nil {
			f.Neighbours = nil
		}
	}

	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
