package tessellate

import (
	"errors"
	"math"
	"slices"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/chazu/cornerpoint/pkg/grid"
	"github.com/chazu/cornerpoint/pkg/mesh"
)

func TestScanColumn(t *testing.T) {
	g := grid.NewBox(2, 1, 4, 1, 1, 1, 0)
	g.SetActive(1, 0, 1, false)
	g.SetActive(1, 0, 3, false)

	tests := []struct {
		name string
		i, j int
		want []int32
	}{
		{"all active", 0, 0, []int32{0, 1, 2, 3}},
		{"gaps", 1, 0, []int32{0, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanColumn(g.ActNum, g.ActiveColumn(tt.i, tt.j))
			if err != nil {
				t.Fatalf("scanColumn() error: %v", err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("scanColumn() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("view outside array", func(t *testing.T) {
		v := grid.ColumnView{Base: 1, Stride: 2, Len: 4}
		if _, err := scanColumn(make([]int32, 4), v); !errors.Is(err, ErrIndexRange) {
			t.Errorf("error = %v, want ErrIndexRange", err)
		}
	})
}

func TestPillarDirection(t *testing.T) {
	s := &sweep{opts: Options{Epsilon: 1e-3}}
	mk := func(corner int, depths ...float64) []sample {
		out := make([]sample, len(depths))
		for n, d := range depths {
			out[n] = sample{depth: d, corner: corner, entry: n / 2, c: n % 2}
		}
		return out
	}
	tests := []struct {
		name       string
		samples    []sample
		increasing bool
		wantErr    bool
	}{
		{"increasing", mk(0, 0, 1, 1, 2), true, false},
		{"decreasing", mk(0, 2, 1, 1, 0), false, false},
		{"flat", mk(0, 1, 1, 1, 1), true, false},
		{"noise only", mk(0, 1, 1.0001, 0.9999, 1), true, false},
		{"columns disagree", append(mk(0, 0, 1), mk(1, 1, 0)...), false, true},
		{"one column turns", mk(0, 0, 1, 1, 0.5), false, true},
		// A drop between columns is not evidence.
		{"column boundary", append(mk(0, 5, 6), mk(1, 0, 1)...), true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.pillarDirection(tt.samples)
			if tt.wantErr {
				if !errors.Is(err, ErrStructuralInconsistency) {
					t.Errorf("error = %v, want ErrStructuralInconsistency", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("pillarDirection() error: %v", err)
			}
			if got != tt.increasing {
				t.Errorf("pillarDirection() = %v, want %v", got, tt.increasing)
			}
		})
	}
}

func TestClampInversions(t *testing.T) {
	samples := []sample{
		{depth: 1, corner: 0},
		{depth: 0.9999, corner: 0},
		{depth: 2, corner: 0},
		{depth: 0.5, corner: 1},
	}
	clampInversions(samples, true)
	want := []float64{1, 1, 2, 0.5}
	for n, s := range samples {
		if s.depth != want[n] {
			t.Errorf("sample %d depth = %g, want %g", n, s.depth, want[n])
		}
	}
}

// wallColumn returns a column with one active cell per entry of lines,
// whose corner 0 and 1 vertices trace the given lines.
func wallColumn(cells []uint32, lines ...[2][2]int32) *column {
	c := &column{exists: true}
	active := make([]int32, len(lines))
	for n := range active {
		active[n] = int32(n)
	}
	c.reset(0, 0, active)
	copy(c.cells, cells)
	for e, l := range lines {
		c.verts[0][e] = [2]int32{l[0][0], l[1][0]}
		c.verts[1][e] = [2]int32{l[0][1], l[1][1]}
	}
	return c
}

func TestBuildWallLines(t *testing.T) {
	// Side 0 spans lines (0,10)-(2,12); side 1 has two cells
	// (0,10)-(1,11) and (1,11)-(2,12).
	left := wallColumn([]uint32{7}, [2][2]int32{{0, 10}, {2, 12}})
	right := wallColumn([]uint32{3, 4},
		[2][2]int32{{0, 10}, {1, 11}},
		[2][2]int32{{1, 11}, {2, 12}},
	)
	w := buildWallLines(WallID{}, [2]wallSide{
		{col: left, cp: 0, cq: 1},
		{col: right, cp: 0, cq: 1},
	})

	if len(w.lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(w.lines))
	}
	for n, want := range [][2]int32{{0, 10}, {1, 11}, {2, 12}} {
		if l := w.lines[n]; l.p != want[0] || l.q != want[1] {
			t.Errorf("line %d = (%d,%d), want %v", n, l.p, l.q, want)
		}
	}
	if !w.lines[0].twoSided() || w.lines[1].on(0) || !w.lines[1].on(1) {
		t.Errorf("sides = %b %b %b", w.lines[0].sides, w.lines[1].sides, w.lines[2].sides)
	}
	if w.lines[0].after != [2]uint32{7, 3} {
		t.Errorf("line 0 after = %v, want [7 3]", w.lines[0].after)
	}
	if w.lines[1].after[1] != 4 || w.lines[1].before[1] != 3 {
		t.Errorf("line 1 = %+v", w.lines[1])
	}
	if w.lines[2].before != [2]uint32{7, 4} || w.lines[2].after != [2]uint32{mesh.NoCell, mesh.NoCell} {
		t.Errorf("line 2 = %+v", w.lines[2])
	}
	if got := w.lineOf[1][1]; got != [2]int32{1, 2} {
		t.Errorf("lineOf[1][1] = %v, want [1 2]", got)
	}
	if err := w.checkLines(); err != nil {
		t.Errorf("checkLines() error: %v", err)
	}

	faces := w.bands()
	if len(faces) != 2 {
		t.Fatalf("bands = %d, want 2", len(faces))
	}
	if faces[0].cells != [2]uint32{7, 3} || faces[1].cells != [2]uint32{7, 4} {
		t.Errorf("band cells = %v %v", faces[0].cells, faces[1].cells)
	}
	if !faces[0].fault || !faces[1].fault {
		t.Error("bands bounded by a one-sided line not marked as fault")
	}
}

func TestBuildChains(t *testing.T) {
	ix := []intersection{
		{vertex: 20, lower: 0, upper: 2, t: 0.7},
		{vertex: 21, lower: 0, upper: 1, t: 0.2},
		{vertex: 22, lower: 1, upper: 2, t: 0.5},
	}
	ct := buildChains(4, ix)
	tests := []struct {
		line int32
		want []int32
	}{
		{0, []int32{1, 0}},
		{1, []int32{1, 2}},
		{2, []int32{2, 0}},
		{3, nil},
	}
	for _, tt := range tests {
		if got := ct.chain(tt.line); !slices.Equal(got, tt.want) {
			t.Errorf("chain(%d) = %v, want %v", tt.line, got, tt.want)
		}
	}
}

func TestTriangulateStrip(t *testing.T) {
	cv := func(v int32, t float64) chainVertex { return chainVertex{v: v, t: t} }
	tests := []struct {
		name        string
		lower       []chainVertex
		upper       []chainVertex
		left, right []int32
		want        int
	}{
		{"quad", []chainVertex{cv(0, 0), cv(1, 1)}, []chainVertex{cv(2, 0), cv(3, 1)}, nil, nil, 2},
		{"triangle", []chainVertex{cv(0, 0), cv(1, 1)}, []chainVertex{cv(0, 0), cv(3, 1)}, nil, nil, 1},
		{"split lower", []chainVertex{cv(0, 0), cv(4, 0.5), cv(1, 1)}, []chainVertex{cv(2, 0), cv(3, 1)}, nil, nil, 3},
		{"left fan", []chainVertex{cv(0, 0), cv(1, 1)}, []chainVertex{cv(2, 0), cv(3, 1)}, []int32{5, 6}, nil, 4},
		{"both fans", []chainVertex{cv(0, 0), cv(1, 1)}, []chainVertex{cv(2, 0), cv(3, 1)}, []int32{5}, []int32{6}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tris := triangulateStrip(tt.lower, tt.upper, tt.left, tt.right)
			n := 0
			for _, tri := range tris {
				if tri[0] != tri[1] && tri[1] != tri[2] && tri[0] != tri[2] {
					n++
				}
			}
			if n != tt.want {
				t.Errorf("triangles = %d (%v), want %d", n, tris, tt.want)
			}
		})
	}
}

func TestTriangulateStripSharedEnds(t *testing.T) {
	cv := func(v int32, t float64) chainVertex { return chainVertex{v: v, t: t} }
	tests := []struct {
		name         string
		lower, upper []chainVertex
		want         int
	}{
		{"opens at crossing",
			[]chainVertex{cv(9, 0), cv(5, 0.2), cv(6, 0.4), cv(1, 1)},
			[]chainVertex{cv(9, 0), cv(7, 0.7), cv(3, 1)}, 4},
		{"closes at crossing",
			[]chainVertex{cv(0, 0), cv(5, 0.6), cv(6, 0.8), cv(8, 1)},
			[]chainVertex{cv(2, 0), cv(8, 1)}, 3},
		{"between two crossings",
			[]chainVertex{cv(9, 0), cv(5, 0.2), cv(6, 0.4), cv(8, 1)},
			[]chainVertex{cv(9, 0), cv(7, 0.7), cv(8, 1)}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			onLower := make(map[int32]bool)
			for _, c := range tt.lower {
				onLower[c.v] = true
			}
			onUpper := make(map[int32]bool)
			for _, c := range tt.upper {
				onUpper[c.v] = true
			}
			tris := triangulateStrip(tt.lower, tt.upper, nil, nil)
			n := 0
			for _, tri := range tris {
				if tri[0] == tri[1] || tri[1] == tri[2] || tri[0] == tri[2] {
					continue
				}
				n++
				// Each chain is straight, so a triangle needs a vertex
				// off each of them.
				lowerOnly, upperOnly := true, true
				for _, v := range tri {
					lowerOnly = lowerOnly && onLower[v]
					upperOnly = upperOnly && onUpper[v]
				}
				if lowerOnly || upperOnly {
					t.Errorf("triangle %v lies on one chain", tri)
				}
			}
			if n != tt.want {
				t.Errorf("triangles = %d (%v), want %d", n, tris, tt.want)
			}
		})
	}
}

// crossingWall adds two lines from a pillar at x=0 to one at x=1 whose
// indices invert at the second pillar, with the given depths at each end.
func crossingWall(s *sweep, pa, pb, qa, qb float64) *wall {
	s.out.addVertex(v3.Vec{X: 0, Z: pa})
	s.out.addVertex(v3.Vec{X: 0, Z: pb})
	s.out.addVertex(v3.Vec{X: 1, Z: qb})
	s.out.addVertex(v3.Vec{X: 1, Z: qa})
	return &wall{lines: []wallLine{
		{p: 0, q: 3, sides: 1},
		{p: 1, q: 2, sides: 2},
	}}
}

func TestIntersectWallLines(t *testing.T) {
	tests := []struct {
		name           string
		pa, pb, qa, qb float64
		wantT          float64
		degenerate     bool
	}{
		{"crossing", 0, 1, 1, 0, 0.5, false},
		{"parallel", 0, 1, 0, 1, 0, true},
		{"beyond second pillar", 0, 1, 0.5, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &sweep{out: newBuilder(0)}
			w := crossingWall(s, tt.pa, tt.pb, tt.qa, tt.qb)
			p := s.intersectWallLines(w, v3.Vec{})
			if tt.degenerate {
				if p == nil || p.Kind != ProblemDegenerateIntersection {
					t.Fatalf("problem = %v, want a degenerate intersection", p)
				}
				if s.out.vertexCount() != 4 || len(w.ix) != 0 {
					t.Errorf("degenerate crossing added %d vertices, %d intersections",
						s.out.vertexCount()-4, len(w.ix))
				}
				return
			}
			if p != nil {
				t.Fatalf("unexpected problem: %v", p)
			}
			if len(w.ix) != 1 || math.Abs(w.ix[0].t-tt.wantT) > 1e-12 {
				t.Fatalf("intersections = %+v, want one at t=%g", w.ix, tt.wantT)
			}
			if got := s.out.pos[w.ix[0].vertex]; got.X != 0.5 || got.Z != 0.5 {
				t.Errorf("crossing vertex at %v, want (0.5, 0, 0.5)", got)
			}
			if w.chains.len(0) != 1 || w.chains.len(1) != 1 {
				t.Error("crossing missing from the line chains")
			}
		})
	}
}

func TestSweepFacesUnresolved(t *testing.T) {
	w := &wall{
		id: WallID{I: 2, J: 1, Dir: WallAlongI},
		lines: []wallLine{
			{p: 0, q: 5, sides: 3},
			{p: 1, q: 4, sides: 3},
			{p: 2, q: 3, sides: 3},
		},
		// Lines 0 and 2 never become neighbors without a crossing of line 1.
		ix: []intersection{{vertex: 6, lower: 0, upper: 2, t: 0.5}},
	}
	faces, p := w.sweepFaces()
	if p == nil || p.Kind != ProblemUnresolvedCrossing {
		t.Fatalf("problem = %v, want an unresolved crossing", p)
	}
	if p.Wall != w.id || faces != nil {
		t.Errorf("problem wall = %v, faces = %v", p.Wall, faces)
	}
}

func TestStitchWallSkipsDegenerate(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	s := newSweep(grid.NewBox(2, 1, 1, 1, 1, 1, 0), Options{Epsilon: DefaultEpsilon, Logger: log})

	// Vertices 0-3 on the first pillar at depths 0..3, 4-7 on the second
	// at depths 3..0. Both columns trace parallel lines that invert.
	for z := 0; z < 4; z++ {
		s.out.addVertex(v3.Vec{X: 1, Z: float64(z)})
	}
	for z := 3; z >= 0; z-- {
		s.out.addVertex(v3.Vec{X: 1, Y: 1, Z: float64(z)})
	}
	left := wallColumn([]uint32{0}, [2][2]int32{{0, 6}, {1, 7}})
	right := wallColumn([]uint32{1}, [2][2]int32{{2, 4}, {3, 5}})

	id := WallID{I: 1, J: 0, Dir: WallAlongJ}
	w, err := s.stitchWall(id, [2]wallSide{
		{col: left, cp: 0, cq: 1},
		{col: right, cp: 0, cq: 1},
	}, pillarRange{first: 0, count: 4, increasing: true}, pillarRange{first: 4, count: 4})
	if err != nil {
		t.Fatalf("stitchWall() error: %v", err)
	}
	if !w.skipped {
		t.Error("wall not skipped")
	}
	if len(s.problems) != 1 || s.problems[0].Kind != ProblemDegenerateIntersection || s.problems[0].Wall != id {
		t.Fatalf("problems = %v", s.problems)
	}
	if len(s.out.tris) != 0 {
		t.Errorf("skipped wall emitted %d triangles", len(s.out.tris)/3)
	}
	if got := len(s.out.edges) / 2; got != 4 {
		t.Errorf("edges = %d, want the 4 wall lines", got)
	}
	if s.intersections != 0 {
		t.Errorf("intersections = %d, want 0", s.intersections)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("last log entry = %v, want a warning", entry)
	}
	for k, want := range map[string]any{"i": 1, "j": 0, "wall": "j", "kind": "degenerate intersection"} {
		if entry.Data[k] != want {
			t.Errorf("field %s = %v, want %v", k, entry.Data[k], want)
		}
	}
}

func TestPillarBetween(t *testing.T) {
	p := pillarRange{first: 10, count: 5}
	tests := []struct {
		name string
		a, b int32
		want []int32
	}{
		{"adjacent", 10, 11, nil},
		{"two between", 10, 13, []int32{11, 12}},
		{"off pillar", 9, 13, nil},
		{"reversed", 13, 10, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pillarBetween(p, tt.a, tt.b); !slices.Equal(got, tt.want) {
				t.Errorf("pillarBetween(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
