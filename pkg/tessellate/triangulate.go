package tessellate

import (
	"cmp"
	"fmt"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cornerpoint/pkg/mesh"
)

// chainVertex is a vertex on a face boundary chain with its parameter
// along the chain.
type chainVertex struct {
	v int32
	t float64
}

// face is a polygon between a lower and an upper chain that share their
// start and end sides.
type face struct {
	lower, upper []chainVertex
	cells        [2]uint32
	// fault is set when a bounding line is traced by one side only.
	fault bool
}

// sweepFaces splits the wall into the faces between adjacent lines. Without
// crossings these are the bands between consecutive sorted lines. With
// crossings the lines are swept along the wall; each crossing closes the
// face between its two lines and opens a new one.
func (w *wall) sweepFaces() ([]face, *Problem) {
	n := len(w.lines)
	if n < 2 {
		return nil, nil
	}
	if len(w.ix) == 0 {
		return w.bands(), nil
	}

	order := make([]int32, n)
	pos := make([]int, n)
	for m := range order {
		order[m] = int32(m)
		pos[m] = m
	}
	open := make([]face, n-1)
	for p := range open {
		lo, hi := w.lines[p], w.lines[p+1]
		open[p] = face{
			lower: []chainVertex{{v: lo.p, t: 0}},
			upper: []chainVertex{{v: hi.p, t: 0}},
			cells: w.coverAt(order, p),
			fault: !lo.twoSided() || !hi.twoSided(),
		}
	}

	pending := make([]int32, len(w.ix))
	for m := range pending {
		pending[m] = int32(m)
	}
	slices.SortFunc(pending, func(a, b int32) int {
		return cmp.Or(cmp.Compare(w.ix[a].t, w.ix[b].t), cmp.Compare(a, b))
	})

	closed := make([]face, 0, n-1+len(w.ix))
	for len(pending) > 0 {
		// Take the earliest crossing whose lines are neighbors now.
		pick := slices.IndexFunc(pending, func(e int32) bool {
			x := w.ix[e]
			return pos[x.lower]+1 == pos[x.upper]
		})
		if pick < 0 {
			return nil, &Problem{
				Kind:    ProblemUnresolvedCrossing,
				Wall:    w.id,
				Message: fmt.Sprintf("%d crossings left with no adjacent pair", len(pending)),
			}
		}
		x := w.ix[pending[pick]]
		pending = slices.Delete(pending, pick, pick+1)

		cv := chainVertex{v: x.vertex, t: x.t}
		p := pos[x.lower]
		f := &open[p]
		f.lower = append(f.lower, cv)
		f.upper = append(f.upper, cv)
		closed = append(closed, *f)

		if p > 0 {
			open[p-1].upper = append(open[p-1].upper, cv)
			open[p-1].fault = open[p-1].fault || !w.lines[x.upper].twoSided()
		}
		if p+1 < len(open) {
			open[p+1].lower = append(open[p+1].lower, cv)
			open[p+1].fault = open[p+1].fault || !w.lines[x.lower].twoSided()
		}
		order[p], order[p+1] = x.upper, x.lower
		pos[x.upper], pos[x.lower] = p, p+1

		open[p] = face{
			lower: []chainVertex{cv},
			upper: []chainVertex{cv},
			cells: w.coverAt(order, p),
			fault: true,
		}
	}

	for p := range open {
		f := &open[p]
		f.lower = append(f.lower, chainVertex{v: w.lines[order[p]].q, t: 1})
		f.upper = append(f.upper, chainVertex{v: w.lines[order[p+1]].q, t: 1})
		closed = append(closed, *f)
	}
	return closed, nil
}

// bands returns the faces of a wall without crossings.
func (w *wall) bands() []face {
	faces := make([]face, 0, len(w.lines)-1)
	cover := [2]uint32{mesh.NoCell, mesh.NoCell}
	for m := 0; m+1 < len(w.lines); m++ {
		lo, hi := w.lines[m], w.lines[m+1]
		for s := range cover {
			if lo.on(s) {
				cover[s] = lo.after[s]
			}
		}
		faces = append(faces, face{
			lower: []chainVertex{{v: lo.p, t: 0}, {v: lo.q, t: 1}},
			upper: []chainVertex{{v: hi.p, t: 0}, {v: hi.q, t: 1}},
			cells: cover,
			fault: !lo.twoSided() || !hi.twoSided(),
		})
	}
	return faces
}

// coverAt returns, for each side, the cell whose face lies just below the
// line at position p of order.
func (w *wall) coverAt(order []int32, p int) [2]uint32 {
	cells := [2]uint32{mesh.NoCell, mesh.NoCell}
	for s := range cells {
		for q := p; q >= 0; q-- {
			if l := w.lines[order[q]]; l.on(s) {
				cells[s] = l.after[s]
				break
			}
		}
	}
	return cells
}

// emitWallFace triangulates a wall face. Vertices merged on either pillar
// strictly between the face's lines are fanned in so the wall conforms to
// the other walls meeting at that pillar.
func (s *sweep) emitWallFace(w *wall, f face, pp, pq pillarRange, dir v3.Vec) {
	if f.cells[0] == mesh.NoCell && f.cells[1] == mesh.NoCell {
		return
	}
	tag := mesh.Tag{Cells: f.cells}
	if f.cells[0] == mesh.NoCell || f.cells[1] == mesh.NoCell {
		tag.Flags |= mesh.FlagBoundary
	}
	if f.fault && w.internal() {
		tag.Flags |= mesh.FlagFault
	}
	left := pillarBetween(pp, f.lower[0].v, f.upper[0].v)
	right := pillarBetween(pq, f.lower[len(f.lower)-1].v, f.upper[len(f.upper)-1].v)
	s.emitFace(triangulateStrip(f.lower, f.upper, left, right), dir, tag)
}

// pillarBetween returns the vertices of pillar p strictly between a and b,
// or nil when either is not on p.
func pillarBetween(p pillarRange, a, b int32) []int32 {
	if !p.contains(a) || !p.contains(b) || b-a < 2 {
		return nil
	}
	mids := make([]int32, 0, b-a-1)
	for v := a + 1; v < b; v++ {
		mids = append(mids, v)
	}
	return mids
}

// triangulateStrip zig-zags between two chains, always advancing the chain
// whose next vertex has the smaller parameter, ties to the lower chain.
// left holds extra vertices on the side from lower[0] to upper[0], right
// those from lower[last] to upper[last]; each side is fanned from the
// adjacent vertex of the opposite chain. The triangles follow the polygon
// lower forward, right, upper backward, left.
//
// Chains that start or end in a shared vertex (a crossing) are closed there
// with one triangle spanning both chains. A shared vertex lies on the lines
// of both chains, so zig-zagging from it would emit zero-area triangles.
func triangulateStrip(lower, upper []chainVertex, left, right []int32) [][3]int32 {
	var tris [][3]int32
	i, j := 0, 0
	iEnd, jEnd := len(lower)-1, len(upper)-1

	if len(left) > 0 && iEnd > 0 {
		apex := lower[1].v
		side := append(append([]int32{lower[0].v}, left...), upper[0].v)
		for n := 0; n+1 < len(side); n++ {
			tris = append(tris, [3]int32{side[n+1], side[n], apex})
		}
		i = 1
	}
	if len(right) > 0 && jEnd > 0 {
		apex := upper[jEnd-1].v
		side := append(append([]int32{lower[iEnd].v}, right...), upper[jEnd].v)
		for n := 0; n+1 < len(side); n++ {
			tris = append(tris, [3]int32{side[n], side[n+1], apex})
		}
		jEnd--
	}

	if i < iEnd && j < jEnd && lower[i].v == upper[j].v {
		tris = append(tris, [3]int32{lower[i].v, lower[i+1].v, upper[j+1].v})
		i++
		j++
	}
	var tail [][3]int32
	if i < iEnd && j < jEnd && lower[iEnd].v == upper[jEnd].v {
		tail = append(tail, [3]int32{lower[iEnd-1].v, lower[iEnd].v, upper[jEnd-1].v})
		iEnd--
		jEnd--
	}

	for i < iEnd || j < jEnd {
		advanceLower := j == jEnd || (i < iEnd && lower[i+1].t <= upper[j+1].t)
		if advanceLower {
			tris = append(tris, [3]int32{lower[i].v, lower[i+1].v, upper[j].v})
			i++
		} else {
			tris = append(tris, [3]int32{lower[i].v, upper[j+1].v, upper[j].v})
			j++
		}
	}
	return append(tris, tail...)
}

// emitFace orients the triangles of one face so that their summed normal
// points along ref and appends them with tag.
func (s *sweep) emitFace(tris [][3]int32, ref v3.Vec, tag mesh.Tag) {
	var normal v3.Vec
	for _, t := range tris {
		a, b, c := s.out.pos[t[0]], s.out.pos[t[1]], s.out.pos[t[2]]
		normal = normal.Add(b.Sub(a).Cross(c.Sub(a)))
	}
	flip := normal.Dot(ref) < 0
	for _, t := range tris {
		if flip {
			t[1], t[2] = t[2], t[1]
		}
		s.out.addTriangle(t, tag)
	}
	if s.opts.SyntheticEdges {
		s.syntheticEdges(tris)
	}
}

// syntheticEdges emits the edges shared by two triangles of a face. Edges
// used once lie on the face outline and are emitted elsewhere.
func (s *sweep) syntheticEdges(tris [][3]int32) {
	seen := make(map[[2]int32]int)
	var order [][2]int32
	for _, t := range tris {
		if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
			continue
		}
		for n := 0; n < 3; n++ {
			a, b := t[n], t[(n+1)%3]
			if a > b {
				a, b = b, a
			}
			key := [2]int32{a, b}
			if seen[key] == 0 {
				order = append(order, key)
			}
			seen[key]++
		}
	}
	for _, e := range order {
		if seen[e] > 1 {
			s.out.addEdge(e[0], e[1], mesh.EdgeSynthetic)
		}
	}
}
