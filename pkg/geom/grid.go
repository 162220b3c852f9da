package geom

// BoolGrid is a row-major W×H boolean grid.
type BoolGrid struct {
	width  int
	height int
	cells  []bool
}

// NewBoolGrid returns a zeroed W×H boolean grid.
func NewBoolGrid(width, height int) *BoolGrid {
	return &BoolGrid{width: width, height: height, cells: make([]bool, width*height)}
}

func (g *BoolGrid) Get(x, y int) bool { return g.cells[y*g.width+x] }
func (g *BoolGrid) Set(x, y int, v bool) { g.cells[y*g.width+x] = v }
func (g *BoolGrid) Width() int { return g.width }
func (g *BoolGrid) Height() int { return g.height }

// Uint8Grid is a row-major W×H grid of palette indices.
type Uint8Grid struct {
	width  int
	height int
	cells  []uint8
}

// NewUint8Grid returns a zeroed W×H uint8 grid.
func NewUint8Grid(width, height int) *Uint8Grid {
	return &Uint8Grid{width: width, height: height, cells: make([]uint8, width*height)}
}

func (g *Uint8Grid) Get(x, y int) uint8 { return g.cells[y*g.width+x] }
func (g *Uint8Grid) Set(x, y int, v uint8) { g.cells[y*g.width+x] = v }
func (g *Uint8Grid) Width() int { return g.width }
func (g *Uint8Grid) Height() int { return g.height }

// MatchAllAround reports whether all four 4-neighbours of (x, y) hold v.
// Pixels on the image frame always return false: the frame counts as a
// non-matching neighbour.
func (g *Uint8Grid) MatchAllAround(x, y int, v uint8) bool {
	if x <= 0 || y <= 0 || x >= g.width-1 || y >= g.height-1 {
		return false
	}
	return g.Get(x-1, y) == v &&
		g.Get(x+1, y) == v &&
		g.Get(x, y-1) == v &&
		g.Get(x, y+1) == v
}

// Uint32Grid is a row-major W×H grid of facet ids.
type Uint32Grid struct {
	width  int
	height int
	cells  []uint32
}

// NewUint32Grid returns a zeroed W×H uint32 grid.
func NewUint32Grid(width, height int) *Uint32Grid {
	return &Uint32Grid{width: width, height: height, cells: make([]uint32, width*height)}
}

func (g *Uint32Grid) Get(x, y int) uint32 { return g.cells[y*g.width+x] }
func (g *Uint32Grid) Set(x, y int, v uint32) { g.cells[y*g.width+x] = v }
func (g *Uint32Grid) Width() int { return g.width }
func (g *Uint32Grid) Height() int { return g.height }

// InBounds reports whether (x, y) lies inside a width×height image.
func InBounds(x, y, width, height int) bool {
	return x >= 0 && y >= 0 && x < width && y < height
}
