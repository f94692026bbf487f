package tessellate

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// intersection is a crossing of two wall lines.
type intersection struct {
	vertex int32
	// lower and upper are the crossing lines; lower comes first at the
	// wall's first pillar.
	lower, upper int32
	// t is the parameter along the wall, 0 at the first pillar.
	t float64
	// dist2 is the squared horizontal distance from the first pillar.
	dist2 float64
}

// chainTable lists the intersections on every wall line in compressed
// form: the intersections on line n are items[offsets[n]:offsets[n+1]],
// ordered by parameter.
type chainTable struct {
	offsets []int32
	items   []int32
}

func (c chainTable) chain(n int32) []int32 {
	if int(n)+1 >= len(c.offsets) {
		return nil
	}
	return c.items[c.offsets[n]:c.offsets[n+1]]
}

func (c chainTable) len(n int32) int {
	return len(c.chain(n))
}

// degenerateDenominator bounds the depth difference sum below which two
// lines are treated as parallel.
const degenerateDenominator = 1e-12

// intersectWallLines finds every pair of crossing lines of w, adds one
// vertex per crossing and builds the per-line chains. anchor is the top
// anchor of the wall's first pillar. When a crossing is degenerate no
// vertex is added and the problem is returned.
func (s *sweep) intersectWallLines(w *wall, anchor v3.Vec) *Problem {
	pos := s.out.pos
	var ix []intersection
	var points []v3.Vec
	for a := range w.lines {
		la := w.lines[a]
		for b := a + 1; b < len(w.lines); b++ {
			lb := w.lines[b]
			// Sorted by first pillar vertex, so a crossing is an inversion
			// at the second pillar.
			if lb.q >= la.q {
				continue
			}
			pa, qa := pos[la.p], pos[la.q]
			pb, qb := pos[lb.p], pos[lb.q]
			num := pb.Z - pa.Z
			den := num + (qa.Z - qb.Z)
			if math.Abs(den) < degenerateDenominator {
				return &Problem{
					Kind:    ProblemDegenerateIntersection,
					Wall:    w.id,
					Message: fmt.Sprintf("lines %d and %d are parallel", a, b),
				}
			}
			t := num / den
			if !(t > 0 && t < 1) {
				return &Problem{
					Kind:    ProblemDegenerateIntersection,
					Wall:    w.id,
					Message: fmt.Sprintf("lines %d and %d cross at t=%g outside the wall", a, b, t),
				}
			}
			x := lerp(pa, qa, t).Add(lerp(pb, qb, t)).MulScalar(0.5)
			dx, dy := x.X-anchor.X, x.Y-anchor.Y
			ix = append(ix, intersection{
				lower: int32(a),
				upper: int32(b),
				t:     t,
				dist2: dx*dx + dy*dy,
			})
			points = append(points, x)
		}
	}
	for n := range ix {
		ix[n].vertex = s.out.addVertex(points[n])
	}
	w.ix = ix
	w.chains = buildChains(len(w.lines), ix)
	return nil
}

// buildChains orders the intersections of every line along the wall.
func buildChains(lines int, ix []intersection) chainTable {
	ct := chainTable{offsets: make([]int32, lines+1)}
	if len(ix) == 0 {
		return ct
	}
	for _, x := range ix {
		ct.offsets[x.lower+1]++
		ct.offsets[x.upper+1]++
	}
	for n := 1; n <= lines; n++ {
		ct.offsets[n] += ct.offsets[n-1]
	}
	ct.items = make([]int32, 2*len(ix))
	fill := slices.Clone(ct.offsets[:lines])
	for n, x := range ix {
		ct.items[fill[x.lower]] = int32(n)
		fill[x.lower]++
		ct.items[fill[x.upper]] = int32(n)
		fill[x.upper]++
	}
	for n := 0; n < lines; n++ {
		items := ct.items[ct.offsets[n]:ct.offsets[n+1]]
		slices.SortFunc(items, func(a, b int32) int {
			return cmp.Or(
				cmp.Compare(ix[a].t, ix[b].t),
				cmp.Compare(ix[a].dist2, ix[b].dist2),
				cmp.Compare(a, b),
			)
		})
	}
	return ct
}

func lerp(a, b v3.Vec, t float64) v3.Vec {
	return a.Add(b.Sub(a).MulScalar(t))
}
