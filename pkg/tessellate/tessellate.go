// Package tessellate turns a corner-point grid into a watertight triangle
// mesh. A single sweep walks the pillars row by row, merges the depths of
// the up to four columns meeting at each pillar into shared vertices,
// builds and intersects the wall lines between neighboring columns,
// triangulates every wall and finally caps each active cell once its four
// walls are known.
package tessellate

import (
	"errors"
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/sirupsen/logrus"

	"github.com/chazu/cornerpoint/pkg/grid"
	"github.com/chazu/cornerpoint/pkg/mesh"
)

// DefaultEpsilon is the depth tolerance under which samples on a pillar are
// merged into one vertex.
const DefaultEpsilon = 1e-6

var (
	// ErrStructuralInconsistency reports depth samples on a pillar that
	// cannot be ordered in a single direction. It aborts the sweep.
	ErrStructuralInconsistency = errors.New("structural inconsistency")

	// ErrIndexRange reports input arrays that do not match the grid
	// dimensions, or a broken internal invariant. It aborts the sweep.
	ErrIndexRange = errors.New("index range violation")
)

// PillarError locates a fatal error at a pillar.
type PillarError struct {
	I, J   int
	Detail string
	Err    error
}

func (e *PillarError) Error() string {
	return fmt.Sprintf("pillar (%d,%d): %s: %v", e.I, e.J, e.Detail, e.Err)
}

func (e *PillarError) Unwrap() error {
	return e.Err
}

// Options control a tessellation.
type Options struct {
	// Epsilon is the merge tolerance for depths on a pillar. Values <= 0
	// select DefaultEpsilon.
	Epsilon float64

	// SyntheticEdges also emits triangulation diagonals as EdgeSynthetic.
	SyntheticEdges bool

	// Validate checks internal invariants during the sweep and fails with
	// ErrIndexRange when one is broken.
	Validate bool

	// Logger receives wall-level warnings. Nil selects the logrus
	// standard logger.
	Logger logrus.FieldLogger
}

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Epsilon: DefaultEpsilon}
}

// Result is the output of a successful sweep.
type Result struct {
	Mesh *mesh.Mesh

	// Problems lists the walls that were skipped, leaving a hole.
	Problems []Problem

	// Intersections counts the wall-line crossings resolved.
	Intersections int

	// Walls counts the walls that carried at least one line.
	Walls int
}

// Tessellate runs the sweep over g. On error the partial output is
// discarded and nil is returned; recoverable wall problems are reported in
// Result.Problems instead.
func Tessellate(g *grid.Grid, opts Options) (*Result, error) {
	if g == nil {
		return nil, fmt.Errorf("tessellate: nil grid")
	}
	if errs := grid.Validate(g); len(errs) > 0 {
		return nil, fmt.Errorf("tessellate: %v: %w", errs[0], ErrIndexRange)
	}
	if opts.Epsilon <= 0 {
		opts.Epsilon = DefaultEpsilon
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	s := newSweep(g, opts)
	if err := s.run(); err != nil {
		return nil, fmt.Errorf("tessellate: %w", err)
	}

	m := s.out.mesh()
	opts.Logger.WithFields(logrus.Fields{
		"grid":          g.String(),
		"vertices":      m.VertexCount(),
		"triangles":     m.TriangleCount(),
		"edges":         m.EdgeCount(),
		"intersections": s.intersections,
		"walls":         s.walls,
		"problems":      len(s.problems),
	}).Debug("tessellation finished")

	return &Result{
		Mesh:          m,
		Problems:      s.problems,
		Intersections: s.intersections,
		Walls:         s.walls,
	}, nil
}

// sweep owns all state of one tessellation.
type sweep struct {
	g    *grid.Grid
	opts Options
	log  logrus.FieldLogger

	cellMap []int32
	out     *builder
	rows    rows

	// handedness is +1 when (i, j) map to a counter-clockwise xy frame.
	handedness float64

	problems      []Problem
	intersections int
	walls         int
}

func newSweep(g *grid.Grid, opts Options) *sweep {
	cellMap, slots := g.CompactMap()
	return &sweep{
		g:          g,
		opts:       opts,
		log:        opts.Logger,
		cellMap:    cellMap,
		out:        newBuilder(slots),
		rows:       newRows(g.NX),
		handedness: handedness(g),
	}
}

// run is the sweep driver. Pillar (i,j) is visited after every pillar of
// the previous row, so when it is reached the four columns around it have
// been scanned and the cell at (i-1,j-1) has all four walls.
func (s *sweep) run() error {
	nx, ny := s.g.NX, s.g.NY
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			if i < nx && j < ny {
				if err := s.scan(i, j); err != nil {
					return err
				}
			}
			if err := s.merge(i, j); err != nil {
				return err
			}
			if j > 0 {
				if err := s.stitchAlongJ(i, j); err != nil {
					return err
				}
			}
			if i > 0 {
				if err := s.stitchAlongI(i, j); err != nil {
					return err
				}
			}
			if i > 0 && j > 0 {
				s.capColumn(i-1, j-1)
			}
		}
		s.rows.swap()
	}
	return nil
}

// scan fills the current row's column (i,j).
func (s *sweep) scan(i, j int) error {
	active, err := scanColumn(s.g.ActNum, s.g.ActiveColumn(i, j))
	if err != nil {
		return &PillarError{I: i, J: j, Detail: "scanning column", Err: err}
	}
	col := s.rows.cur.cols[i]
	col.reset(i, j, active)
	for e, k := range active {
		slot := s.cellMap[s.g.CellIndex(i, j, int(k))]
		if slot < 0 {
			return &PillarError{I: i, J: j, Detail: fmt.Sprintf("active cell k=%d has no slot", k), Err: ErrIndexRange}
		}
		col.cells[e] = uint32(slot)
	}
	return nil
}

// merge merges the vertices of pillar (i,j) from its incident columns.
func (s *sweep) merge(i, j int) error {
	var inc [4]*column
	if j > 0 {
		inc[cornerIndex(1, 1)] = s.rows.prev.column(i - 1)
		inc[cornerIndex(0, 1)] = s.rows.prev.column(i)
	}
	if j < s.g.NY {
		inc[cornerIndex(1, 0)] = s.rows.cur.column(i - 1)
		inc[cornerIndex(0, 0)] = s.rows.cur.column(i)
	}
	p, err := s.mergePillar(i, j, inc)
	if err != nil {
		return err
	}
	s.rows.cur.pillars[i] = p
	return nil
}

// stitchAlongJ handles the wall from pillar (i,j-1) to pillar (i,j), between
// columns (i-1,j-1) and (i,j-1).
func (s *sweep) stitchAlongJ(i, j int) error {
	id := WallID{I: i, J: j - 1, Dir: WallAlongJ}
	sides := [2]wallSide{
		{col: s.rows.prev.column(i - 1), cp: cornerIndex(1, 0), cq: cornerIndex(1, 1)},
		{col: s.rows.prev.column(i), cp: cornerIndex(0, 0), cq: cornerIndex(0, 1)},
	}
	w, err := s.stitchWall(id, sides, s.rows.prev.pillars[i], s.rows.cur.pillars[i])
	if err != nil {
		return err
	}
	s.rows.cur.wallsJ[i] = w
	return nil
}

// stitchAlongI handles the wall from pillar (i-1,j) to pillar (i,j), between
// columns (i-1,j-1) and (i-1,j).
func (s *sweep) stitchAlongI(i, j int) error {
	id := WallID{I: i - 1, J: j, Dir: WallAlongI}
	var sides [2]wallSide
	if j > 0 {
		sides[0] = wallSide{col: s.rows.prev.column(i - 1), cp: cornerIndex(0, 1), cq: cornerIndex(1, 1)}
	}
	if j < s.g.NY {
		sides[1] = wallSide{col: s.rows.cur.column(i - 1), cp: cornerIndex(0, 0), cq: cornerIndex(1, 0)}
	}
	w, err := s.stitchWall(id, sides, s.rows.cur.pillars[i-1], s.rows.cur.pillars[i])
	if err != nil {
		return err
	}
	s.rows.cur.wallsI[i-1] = w
	return nil
}

// capColumn caps column (i,j) once its four walls are stitched.
func (s *sweep) capColumn(i, j int) {
	col := s.rows.prev.column(i)
	if col == nil || len(col.active) == 0 {
		return
	}
	walls := capWalls{
		south: s.rows.prev.wallsI[i],
		north: s.rows.cur.wallsI[i],
		west:  s.rows.cur.wallsJ[i],
		east:  s.rows.cur.wallsJ[i+1],
	}
	s.capCells(col, walls)
}

// wallDirection returns the horizontal direction from side 0 to side 1 of
// a wall running from p to q.
func (s *sweep) wallDirection(dir WallDir, p, q v3.Vec) v3.Vec {
	d := q.Sub(p)
	// Walls along j separate i-1 from i; walls along i separate j-1 from j.
	sign := s.handedness
	if dir == WallAlongI {
		sign = -sign
	}
	return v3.Vec{X: sign * d.Y, Y: -sign * d.X}
}

// handedness returns +1 when the i and j directions of g form a
// counter-clockwise frame seen from +z, -1 otherwise.
func handedness(g *grid.Grid) float64 {
	if g.NX == 0 || g.NY == 0 {
		return 1
	}
	o, _ := g.Pillar(0, 0)
	a, _ := g.Pillar(g.NX, 0)
	b, _ := g.Pillar(0, g.NY)
	u, v := a.Sub(o), b.Sub(o)
	if u.X*v.Y-u.Y*v.X < 0 {
		return -1
	}
	return 1
}
