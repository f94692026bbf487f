package tessellate

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cornerpoint/pkg/mesh"
)

// capWalls are the four walls around a column. The column is side 1 of
// the south and west walls and side 0 of the north and east walls.
type capWalls struct {
	south, north, west, east *wall
}

// capCells records the corner table of every active cell of col and
// emits the top and bottom faces. Cells whose surfaces coincide share one
// face; collapsed cells get no faces.
func (s *sweep) capCells(col *column, walls capWalls) {
	for e, k := range col.active {
		var corners [mesh.CornersPerCell]int32
		for n := range col.verts {
			corners[2*n] = col.verts[n][e][0]
			corners[2*n+1] = col.verts[n][e][1]
		}
		s.out.setCell(col.cells[e], s.g.CellIndex(col.i, col.j, int(k)), corners)
	}

	last := -1
	for e := range col.active {
		if col.collapsed(e) {
			continue
		}
		switch {
		case last < 0:
			s.capFace(col, walls, e, 0, [2]uint32{mesh.NoCell, col.cells[e]}, e)
		case col.surface(last, 1) == col.surface(e, 0):
			s.capFace(col, walls, last, 1, [2]uint32{col.cells[last], col.cells[e]}, last)
		default:
			s.capFace(col, walls, last, 1, [2]uint32{col.cells[last], mesh.NoCell}, last)
			s.capFace(col, walls, e, 0, [2]uint32{mesh.NoCell, col.cells[e]}, e)
		}
		last = e
	}
	if last >= 0 {
		s.capFace(col, walls, last, 1, [2]uint32{col.cells[last], mesh.NoCell}, last)
	}
}

// capFace triangulates depth surface d of active cell e as a strip from
// the south wall to the north wall, fanning the crossings on the west and
// east walls from the far corner so no triangle lies along a wall line. The
// normal points along increasing k of cell ref.
func (s *sweep) capFace(col *column, walls capWalls, e, d int, cells [2]uint32, ref int) {
	c := col.surface(e, d)

	lower := []chainVertex{{v: c[0], t: 0}}
	lower = append(lower, walls.south.capChain(1, e, d)...)
	lower = append(lower, chainVertex{v: c[1], t: 1})

	upper := []chainVertex{{v: c[2], t: 0}}
	upper = append(upper, walls.north.capChain(0, e, d)...)
	upper = append(upper, chainVertex{v: c[3], t: 1})

	tag := mesh.Tag{Cells: cells, Flags: mesh.FlagCap}
	if cells[0] == mesh.NoCell || cells[1] == mesh.NoCell {
		tag.Flags |= mesh.FlagBoundary
	}
	left := chainVertices(walls.west.capChain(1, e, d))
	right := chainVertices(walls.east.capChain(0, e, d))
	s.emitFace(triangulateStrip(lower, upper, left, right), s.cellAxis(col, ref), tag)
}

func chainVertices(chain []chainVertex) []int32 {
	if len(chain) == 0 {
		return nil
	}
	vs := make([]int32, len(chain))
	for n, cv := range chain {
		vs[n] = cv.v
	}
	return vs
}

// cellAxis returns the direction from the first depth surface of active
// cell e to its second.
func (s *sweep) cellAxis(col *column, e int) v3.Vec {
	centroid := func(d int) v3.Vec {
		var sum v3.Vec
		for _, v := range col.surface(e, d) {
			sum = sum.Add(s.out.pos[v])
		}
		return sum.MulScalar(0.25)
	}
	return centroid(1).Sub(centroid(0))
}
