package tessellate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/chazu/cornerpoint/pkg/mesh"
)

// wallLine is a segment from a vertex on the wall's first pillar to a
// vertex on its second pillar, traced by the depth surfaces of the cells on
// either side of the wall.
type wallLine struct {
	p, q int32

	// after[s] is the cell on side s whose face starts at this line going
	// down the wall, before[s] the one whose face ends here.
	after, before [2]uint32

	// sides has bit s set when a cell on side s traces this line.
	sides uint8
}

func (l wallLine) on(s int) bool {
	return l.sides&(1<<s) != 0
}

func (l wallLine) twoSided() bool {
	return l.sides == 3
}

// wallSide is one column of a wall, with the corners of that column that
// lie on the wall's first and second pillar.
type wallSide struct {
	col    *column
	cp, cq int
}

// wall is the stitched state of one wall. Caps read it after both of its
// rows are done.
type wall struct {
	id    WallID
	lines []wallLine

	// lineOf[s][e] holds the lines traced by the first and second depth
	// surface of active cell e on side s. Nil when side s has no column.
	lineOf [2][][2]int32

	ix     []intersection
	chains chainTable

	// populated[s] is set when side s has a column with active cells.
	populated [2]bool
	skipped   bool
}

// internal reports whether cells exist on both sides of the wall.
func (w *wall) internal() bool {
	return w.populated[0] && w.populated[1]
}

// buildWallLines merges the lines of both sides of a wall and sorts them by
// their first and second pillar vertex.
func buildWallLines(id WallID, sides [2]wallSide) *wall {
	w := &wall{id: id}
	index := make(map[[2]int32]int32)
	register := func(s int, p, q int32) int32 {
		key := [2]int32{p, q}
		n, ok := index[key]
		if !ok {
			n = int32(len(w.lines))
			index[key] = n
			w.lines = append(w.lines, wallLine{
				p: p, q: q,
				after:  [2]uint32{mesh.NoCell, mesh.NoCell},
				before: [2]uint32{mesh.NoCell, mesh.NoCell},
			})
		}
		w.lines[n].sides |= 1 << s
		return n
	}

	for s, side := range sides {
		col := side.col
		if col == nil {
			continue
		}
		w.populated[s] = len(col.active) > 0
		w.lineOf[s] = make([][2]int32, len(col.active))
		for e := range col.active {
			top := register(s, col.verts[side.cp][e][0], col.verts[side.cq][e][0])
			bottom := register(s, col.verts[side.cp][e][1], col.verts[side.cq][e][1])
			w.lineOf[s][e] = [2]int32{top, bottom}
			if top != bottom {
				w.lines[top].after[s] = col.cells[e]
				w.lines[bottom].before[s] = col.cells[e]
			}
		}
	}

	// Sort and remap the per-cell references.
	perm := make([]int32, len(w.lines))
	for n := range perm {
		perm[n] = int32(n)
	}
	slices.SortFunc(perm, func(a, b int32) int {
		la, lb := w.lines[a], w.lines[b]
		return cmp.Or(cmp.Compare(la.p, lb.p), cmp.Compare(la.q, lb.q))
	})
	rank := make([]int32, len(perm))
	sorted := make([]wallLine, len(perm))
	for n, old := range perm {
		rank[old] = int32(n)
		sorted[n] = w.lines[old]
	}
	w.lines = sorted
	for s := range w.lineOf {
		for e := range w.lineOf[s] {
			w.lineOf[s][e][0] = rank[w.lineOf[s][e][0]]
			w.lineOf[s][e][1] = rank[w.lineOf[s][e][1]]
		}
	}
	return w
}

// checkLines verifies that the lines traced by each side never move up the
// wall at either pillar.
func (w *wall) checkLines() error {
	for s, refs := range w.lineOf {
		var p, q int32 = -1, -1
		for e, r := range refs {
			for _, n := range r {
				l := w.lines[n]
				if l.p < p || l.q < q {
					return fmt.Errorf("%s side %d cell %d: line (%d,%d) after (%d,%d): %w",
						w.id, s, e, l.p, l.q, p, q, ErrIndexRange)
				}
				p, q = l.p, l.q
			}
		}
	}
	return nil
}

// chain returns the intersection vertices on line n ordered from the
// first pillar to the second, with their wall parameter.
func (w *wall) chain(n int32) []chainVertex {
	if w.skipped || len(w.ix) == 0 {
		return nil
	}
	items := w.chains.chain(n)
	out := make([]chainVertex, len(items))
	for m, x := range items {
		out[m] = chainVertex{v: w.ix[x].vertex, t: w.ix[x].t}
	}
	return out
}

// capChain returns the chain on the line traced by depth surface d of
// active cell e on side s, or nil when the wall is missing.
func (w *wall) capChain(s, e, d int) []chainVertex {
	if w == nil || w.lineOf[s] == nil {
		return nil
	}
	return w.chain(w.lineOf[s][e][d])
}

// stitchWall builds, intersects and triangulates one wall. A wall that
// cannot be resolved is reported and left open.
func (s *sweep) stitchWall(id WallID, sides [2]wallSide, pp, pq pillarRange) (*wall, error) {
	w := buildWallLines(id, sides)
	if len(w.lines) == 0 {
		return w, nil
	}
	s.walls++
	if s.opts.Validate {
		if err := w.checkLines(); err != nil {
			return nil, err
		}
	}

	pi, pj, qi, qj := id.pillars()
	pa, _ := s.g.Pillar(pi, pj)
	qa, _ := s.g.Pillar(qi, qj)

	if p := s.intersectWallLines(w, pa); p != nil {
		w.skipped = true
		s.report(*p)
		s.wallEdges(w)
		return w, nil
	}
	faces, p := w.sweepFaces()
	if p != nil {
		w.skipped = true
		s.report(*p)
		s.wallEdges(w)
		return w, nil
	}

	dir := s.wallDirection(id.Dir, pa, qa)
	for _, f := range faces {
		s.emitWallFace(w, f, pp, pq, dir)
	}
	s.wallEdges(w)
	s.intersections += len(w.ix)
	return w, nil
}

// pillars returns the grid coordinates of the wall's first and second
// pillar.
func (id WallID) pillars() (pi, pj, qi, qj int) {
	if id.Dir == WallAlongI {
		return id.I, id.J, id.I + 1, id.J
	}
	return id.I, id.J, id.I, id.J + 1
}

// wallEdges emits every wall line, split at its intersections.
func (s *sweep) wallEdges(w *wall) {
	for n, l := range w.lines {
		class := s.lineClass(w, int32(n))
		prev := l.p
		for _, x := range w.chain(int32(n)) {
			s.out.addEdge(prev, x.v, class)
			prev = x.v
		}
		s.out.addEdge(prev, l.q, class)
	}
}

// lineClass classifies wall line n. A one-sided line is a fault edge when
// it is crossed or runs through the face of a cell on the other side.
func (s *sweep) lineClass(w *wall, n int32) mesh.EdgeClass {
	l := w.lines[n]
	switch {
	case l.twoSided():
		return mesh.EdgeWall
	case !w.internal():
		return mesh.EdgeBoundary
	case !w.skipped && w.chains.len(n) > 0:
		return mesh.EdgeFault
	}
	other := 1
	if l.on(1) {
		other = 0
	}
	for m := n - 1; m >= 0; m-- {
		if w.lines[m].on(other) {
			if w.lines[m].after[other] != mesh.NoCell {
				return mesh.EdgeFault
			}
			break
		}
	}
	return mesh.EdgeBoundary
}
