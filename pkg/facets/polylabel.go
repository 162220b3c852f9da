package facets

import (
	"container/heap"
	"math"
)

// polylabelResult is the pole of inaccessibility of a polygon: the interior
// point maximising the distance to the boundary, plus that distance.
type polylabelResult struct {
	X        float64
	Y        float64
	Distance float64
}

// polylabel finds the pole of inaccessibility of a polygon given as rings
// of (x, y) points, the outer ring first and holes after. It subdivides the
// bounding box into cells ordered by their best-case distance and refines
// until no cell can beat the current best by more than precision.
func polylabel(rings [][]FullPathPoint, precision float64) polylabelResult {
	if len(rings) == 0 || len(rings[0]) == 0 {
		return polylabelResult{}
	}

	minX, minY := rings[0][0].X, rings[0][0].Y
	maxX, maxY := minX, minY
	for _, p := range rings[0] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	width := maxX - minX
	height := maxY - minY
	cellSize := math.Min(width, height)
	half := cellSize / 2

	if cellSize == 0 {
		return polylabelResult{X: minX, Y: minY}
	}

	cells := &cellQueue{}
	heap.Init(cells)

	for x := minX; x < maxX; x += cellSize {
		for y := minY; y < maxY; y += cellSize {
			heap.Push(cells, newCell(x+half, y+half, half, rings))
		}
	}

	best := newCell(minX+width/2, minY+height/2, 0, rings)

	// The centroid often beats the bbox centre for skinny polygons.
	if c := centroidCell(rings); c.d > best.d {
		best = c
	}

	for cells.Len() > 0 {
		c := heap.Pop(cells).(cell)

		if c.d > best.d {
			best = c
		}
		if c.max-best.d <= precision {
			continue
		}

		h := c.h / 2
		heap.Push(cells, newCell(c.x-h, c.y-h, h, rings))
		heap.Push(cells, newCell(c.x+h, c.y-h, h, rings))
		heap.Push(cells, newCell(c.x-h, c.y+h, h, rings))
		heap.Push(cells, newCell(c.x+h, c.y+h, h, rings))
	}

	return polylabelResult{X: best.x, Y: best.y, Distance: best.d}
}

type cell struct {
	x   float64
	y   float64
	h   float64
	d   float64 // signed distance from centre to polygon
	max float64 // best-case distance of any point in the cell
}

func newCell(x, y, h float64, rings [][]FullPathPoint) cell {
	d := pointToPolygonDist(x, y, rings)
	return cell{x: x, y: y, h: h, d: d, max: d + h*math.Sqrt2}
}

func centroidCell(rings [][]FullPathPoint) cell {
	var area, cx, cy float64
	ring := rings[0]
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		a := ring[i]
		b := ring[j]
		f := a.X*b.Y - b.X*a.Y
		cx += (a.X + b.X) * f
		cy += (a.Y + b.Y) * f
		area += f * 3
	}
	if area == 0 {
		return newCell(ring[0].X, ring[0].Y, 0, rings)
	}
	return newCell(cx/area, cy/area, 0, rings)
}

// pointToPolygonDist returns the signed distance from (x, y) to the polygon
// boundary: positive inside, negative outside.
func pointToPolygonDist(x, y float64, rings [][]FullPathPoint) float64 {
	inside := false
	minDistSq := math.MaxFloat64

	for _, ring := range rings {
		for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
			a := ring[i]
			b := ring[j]

			if (a.Y > y) != (b.Y > y) &&
				x < (b.X-a.X)*(y-a.Y)/(b.Y-a.Y)+a.X {
				inside = !inside
			}

			minDistSq = math.Min(minDistSq, segmentDistSq(x, y, a, b))
		}
	}

	d := math.Sqrt(minDistSq)
	if !inside {
		return -d
	}
	return d
}

func segmentDistSq(px, py float64, a, b FullPathPoint) float64 {
	x, y := a.X, a.Y
	dx := b.X - x
	dy := b.Y - y

	if dx != 0 || dy != 0 {
		t := ((px-x)*dx + (py-y)*dy) / (dx*dx + dy*dy)
		if t > 1 {
			x = b.X
			y = b.Y
		} else if t > 0 {
			x += dx * t
			y += dy * t
		}
	}

	dx = px - x
	dy = py - y
	return dx*dx + dy*dy
}

// cellQueue is a max-heap on the cells' best-case distance.
type cellQueue []cell

func (q cellQueue) Len() int            { return len(q) }
func (q cellQueue) Less(i, j int) bool  { return q[i].max > q[j].max }
func (q cellQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *cellQueue) Push(x any) { *q = append(*q, x.(cell)) }
func (q *cellQueue) Pop() any {
	old := *q
	n := len(old)
	c := old[n-1]
	*q = old[:n-1]
	return c
}
