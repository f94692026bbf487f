package tessellate

// cornerIndex returns the index of the pillar at offset (a,b) from a
// column's (i,j) pillar: 0 (i,j), 1 (i+1,j), 2 (i,j+1), 3 (i+1,j+1).
func cornerIndex(a, b int) int {
	return a + 2*b
}

// column is the scratch state of one cell column while it is live.
type column struct {
	exists bool
	i, j   int

	// active holds the k of each active cell, top to bottom.
	active []int32
	// cells holds the compacted slot of each active cell.
	cells []uint32
	// verts[corner][e] holds the vertex of the first and second depth of
	// active cell e at that corner. Filled in as the pillars are merged.
	verts [4][][2]int32
}

func (c *column) reset(i, j int, active []int32) {
	c.exists = true
	c.i, c.j = i, j
	c.active = active
	c.cells = resize(c.cells, len(active))
	for n := range c.verts {
		c.verts[n] = resize(c.verts[n], len(active))
	}
}

// collapsed reports whether the first and second depth surfaces of active
// cell e share all four corner vertices.
func (c *column) collapsed(e int) bool {
	for n := range c.verts {
		if c.verts[n][e][0] != c.verts[n][e][1] {
			return false
		}
	}
	return true
}

// surface returns the four corner vertices of depth surface d (0 first,
// 1 second) of active cell e.
func (c *column) surface(e, d int) [4]int32 {
	var s [4]int32
	for n := range c.verts {
		s[n] = c.verts[n][e][d]
	}
	return s
}

// pillarRange is the contiguous block of vertices merged on one pillar,
// ordered along the pillar's depth direction.
type pillarRange struct {
	first, count int32
	increasing   bool
}

// contains reports whether vertex v lies on this pillar.
func (p pillarRange) contains(v int32) bool {
	return v >= p.first && v < p.first+p.count
}

// rowGen is one generation of row state. Columns, pillars and walls of
// row j live in one generation while row j+1 is built in the other.
type rowGen struct {
	cols    []*column
	pillars []pillarRange
	// wallsJ[i] runs from pillar (i,j-1) to (i,j).
	wallsJ []*wall
	// wallsI[i] runs from pillar (i,j) to (i+1,j).
	wallsI []*wall
}

func newRowGen(nx int) *rowGen {
	g := &rowGen{
		cols:    make([]*column, nx),
		pillars: make([]pillarRange, nx+1),
		wallsJ:  make([]*wall, nx+1),
		wallsI:  make([]*wall, nx),
	}
	for i := range g.cols {
		g.cols[i] = &column{}
	}
	return g
}

// column returns column i of the row, or nil when i is outside the grid or
// the column was not scanned.
func (g *rowGen) column(i int) *column {
	if i < 0 || i >= len(g.cols) || !g.cols[i].exists {
		return nil
	}
	return g.cols[i]
}

func (g *rowGen) reset() {
	for _, c := range g.cols {
		c.exists = false
	}
	clear(g.pillars)
	clear(g.wallsJ)
	clear(g.wallsI)
}

// rows holds the two live row generations.
type rows struct {
	prev, cur *rowGen
}

func newRows(nx int) rows {
	return rows{prev: newRowGen(nx), cur: newRowGen(nx)}
}

// swap makes the current row the previous one and recycles the other.
func (r *rows) swap() {
	r.prev, r.cur = r.cur, r.prev
	r.cur.reset()
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	s = s[:n]
	clear(s)
	return s
}
