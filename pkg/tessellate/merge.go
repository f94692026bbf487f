package tessellate

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/chazu/cornerpoint/pkg/grid"
	"github.com/chazu/cornerpoint/pkg/mesh"
)

// sample is one corner depth seen by a pillar.
type sample struct {
	depth  float64
	corner int // which incident column: the pillar is that column's corner
	entry  int // active cell within the column
	c      int // first (0) or second (1) depth of the cell
}

// mergePillar collects the corner depths of every active cell of the
// incident columns on pillar (i,j), orders them along the pillar and merges
// runs closer than epsilon into a single vertex. inc[n] is the column whose
// corner n is this pillar, or nil.
func (s *sweep) mergePillar(i, j int, inc [4]*column) (pillarRange, error) {
	var samples []sample
	for n, col := range inc {
		if col == nil {
			continue
		}
		a, b := n%2, n/2
		for e, k := range col.active {
			for c := 0; c < 2; c++ {
				samples = append(samples, sample{
					depth:  s.g.Depth(col.i, col.j, int(k), a, b, c),
					corner: n,
					entry:  e,
					c:      c,
				})
			}
		}
	}
	p := pillarRange{first: int32(s.out.vertexCount()), increasing: true}
	if len(samples) == 0 {
		return p, nil
	}

	increasing, err := s.pillarDirection(samples)
	if err != nil {
		return p, &PillarError{I: i, J: j, Detail: "ordering depths", Err: err}
	}
	p.increasing = increasing
	clampInversions(samples, increasing)

	slices.SortStableFunc(samples, func(x, y sample) int {
		if increasing {
			return cmp.Compare(x.depth, y.depth)
		}
		return cmp.Compare(y.depth, x.depth)
	})

	top, bottom := s.g.Pillar(i, j)
	runStart := samples[0].depth
	v := s.out.addVertex(grid.Interpolate(top, bottom, runStart))
	for n, sm := range samples {
		if n > 0 && distance(sm.depth, runStart) >= s.opts.Epsilon {
			runStart = sm.depth
			v = s.out.addVertex(grid.Interpolate(top, bottom, runStart))
		}
		inc[sm.corner].verts[sm.corner][sm.entry][sm.c] = v
	}
	p.count = int32(s.out.vertexCount()) - p.first

	if s.opts.Validate {
		if err := checkMonotonic(inc); err != nil {
			return p, &PillarError{I: i, J: j, Detail: "merged indices", Err: err}
		}
	}
	s.pillarEdges(p, inc)
	return p, nil
}

// pillarDirection decides whether depths grow or shrink along the pillar,
// from the consecutive differences within each column. Differences below
// epsilon carry no information. Evidence for both directions is fatal.
func (s *sweep) pillarDirection(samples []sample) (bool, error) {
	var deeper, shallower bool
	for n := 1; n < len(samples); n++ {
		prev, cur := samples[n-1], samples[n]
		if prev.corner != cur.corner {
			continue
		}
		d := cur.depth - prev.depth
		switch {
		case d >= s.opts.Epsilon:
			deeper = true
		case d <= -s.opts.Epsilon:
			shallower = true
		}
	}
	if deeper && shallower {
		return false, fmt.Errorf("depths both increase and decrease along the pillar: %w", ErrStructuralInconsistency)
	}
	return !shallower, nil
}

// clampInversions replaces every depth that steps against the direction by
// less than epsilon with the running extreme of its column, so each column
// stays monotonic after sorting.
func clampInversions(samples []sample, increasing bool) {
	for n := 1; n < len(samples); n++ {
		prev := &samples[n-1]
		cur := &samples[n]
		if prev.corner != cur.corner {
			continue
		}
		if increasing && cur.depth < prev.depth {
			cur.depth = prev.depth
		}
		if !increasing && cur.depth > prev.depth {
			cur.depth = prev.depth
		}
	}
}

// checkMonotonic verifies that within every column the merged vertex
// indices never decrease with (k, c).
func checkMonotonic(inc [4]*column) error {
	for n, col := range inc {
		if col == nil {
			continue
		}
		last := int32(-1)
		for e := range col.active {
			for c := 0; c < 2; c++ {
				v := col.verts[n][e][c]
				if v < last {
					return fmt.Errorf("column (%d,%d) cell k=%d: vertex %d after %d: %w",
						col.i, col.j, col.active[e], v, last, ErrIndexRange)
				}
				last = v
			}
		}
	}
	return nil
}

// pillarEdges emits the edges between consecutive vertices of the pillar
// that lie within the vertical span of some active cell.
func (s *sweep) pillarEdges(p pillarRange, inc [4]*column) {
	if p.count < 2 {
		return
	}
	covered := make([]bool, p.count-1)
	for n, col := range inc {
		if col == nil {
			continue
		}
		for e := range col.active {
			lo, hi := col.verts[n][e][0], col.verts[n][e][1]
			for v := lo; v < hi; v++ {
				covered[v-p.first] = true
			}
		}
	}
	for n, ok := range covered {
		if ok {
			v := p.first + int32(n)
			s.out.addEdge(v, v+1, mesh.EdgePillar)
		}
	}
}

func distance(a, b float64) float64 {
	if a > b {
		return a - b
	}
	return b - a
}
