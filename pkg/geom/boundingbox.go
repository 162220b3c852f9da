package geom

import "math"

// BoundingBox is an inclusive axis-aligned rectangle. The zero value from
// NewBoundingBox is empty: any Expand call snaps it to the first point.
type BoundingBox struct {
	MinX int
	MinY int
	MaxX int
	MaxY int
}

// NewBoundingBox returns an empty bounding box.
func NewBoundingBox() BoundingBox {
	return BoundingBox{
		MinX: math.MaxInt32,
		MinY: math.MaxInt32,
		MaxX: math.MinInt32,
		MaxY: math.MinInt32,
	}
}

// Expand grows the box to include (x, y).
func (b *BoundingBox) Expand(x, y int) {
	if x < b.MinX {
		b.MinX = x
	}
	if x > b.MaxX {
		b.MaxX = x
	}
	if y < b.MinY {
		b.MinY = y
	}
	if y > b.MaxY {
		b.MaxY = y
	}
}

// Contains reports whether (x, y) lies within the box, borders included.
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Width returns the inclusive width of the box.
func (b BoundingBox) Width() int {
	return b.MaxX - b.MinX + 1
}

// Height returns the inclusive height of the box.
func (b BoundingBox) Height() int {
	return b.MaxY - b.MinY + 1
}
