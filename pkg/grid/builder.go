package grid

import (
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Builders for regular and synthetic grids
// ---------------------------------------------------------------------------

// NewBox creates a regular grid of vertical pillars spaced dx by dy with nz
// layers of thickness dz starting at depth top. Every cell is active and
// neighboring cells share their corner depths exactly.
func NewBox(nx, ny, nz int, dx, dy, dz, top float64) *Grid {
	thickness := make([]float64, nz)
	for k := range thickness {
		thickness[k] = dz
	}
	return NewLayered(nx, ny, dx, dy, top, thickness)
}

// NewLayered is NewBox with one thickness per layer. A zero thickness gives
// a layer of pinched cells.
func NewLayered(nx, ny int, dx, dy, top float64, thickness []float64) *Grid {
	nz := len(thickness)
	g := New(nx, ny, nz)
	bottom := top
	for _, t := range thickness {
		bottom += t
	}
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			x, y := float64(i)*dx, float64(j)*dy
			g.SetPillar(i, j, v3.Vec{X: x, Y: y, Z: top}, v3.Vec{X: x, Y: y, Z: bottom})
		}
	}
	z0 := top
	for k := 0; k < nz; k++ {
		z1 := z0 + thickness[k]
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				for b := 0; b < 2; b++ {
					for a := 0; a < 2; a++ {
						g.SetDepth(i, j, k, a, b, 0, z0)
						g.SetDepth(i, j, k, a, b, 1, z1)
					}
				}
			}
		}
		z0 = z1
	}
	return g
}

// ShiftColumns adds throw to every corner depth of the columns with i >= i0
// and j >= j0. Shifting part of a conforming grid produces a fault along
// the walls at x=i0 (when i0 > 0) and y=j0 (when j0 > 0).
func (g *Grid) ShiftColumns(i0, j0 int, throw float64) {
	for k := 0; k < g.NZ; k++ {
		for j := j0; j < g.NY; j++ {
			for i := i0; i < g.NX; i++ {
				g.forCorners(i, j, k, func(idx int) {
					g.ZCorn[idx] += throw
				})
			}
		}
	}
}

// Scissor rotates the columns with i >= i0 about the middle of their
// walls: corners on the j side of each column move down by throw and
// corners on the j+1 side move up by throw. The wall at x=i0 then becomes
// a scissor fault whose layers cross halfway along it.
func (g *Grid) Scissor(i0 int, throw float64) {
	for k := 0; k < g.NZ; k++ {
		for j := 0; j < g.NY; j++ {
			for i := i0; i < g.NX; i++ {
				for c := 0; c < 2; c++ {
					for a := 0; a < 2; a++ {
						g.ZCorn[g.ZCornIndex(i, j, k, a, 0, c)] += throw
						g.ZCorn[g.ZCornIndex(i, j, k, a, 1, c)] -= throw
					}
				}
			}
		}
	}
}

// SetActive sets the activity flag of cell (i,j,k).
func (g *Grid) SetActive(i, j, k int, active bool) {
	var v int32
	if active {
		v = 1
	}
	g.ActNum[g.CellIndex(i, j, k)] = v
}

// Pinch collapses cell (i,j,k) onto its first depth surface, producing a
// zero-thickness cell.
func (g *Grid) Pinch(i, j, k int) {
	for b := 0; b < 2; b++ {
		for a := 0; a < 2; a++ {
			g.SetDepth(i, j, k, a, b, 1, g.Depth(i, j, k, a, b, 0))
		}
	}
}

// Tilt adds slope*x to every corner depth, where x is the x coordinate of
// the top anchor of the pillar the corner lies on. Each pillar is moved
// down by the same amount.
func (g *Grid) Tilt(slope float64) {
	for j := 0; j <= g.NY; j++ {
		for i := 0; i <= g.NX; i++ {
			top, bottom := g.Pillar(i, j)
			dz := slope * top.X
			top.Z += dz
			bottom.Z += dz
			g.SetPillar(i, j, top, bottom)
		}
	}
	for k := 0; k < g.NZ; k++ {
		for j := 0; j < g.NY; j++ {
			for i := 0; i < g.NX; i++ {
				for b := 0; b < 2; b++ {
					for a := 0; a < 2; a++ {
						top, _ := g.Pillar(i+a, j+b)
						for c := 0; c < 2; c++ {
							g.ZCorn[g.ZCornIndex(i, j, k, a, b, c)] += slope * top.X
						}
					}
				}
			}
		}
	}
}

// forCorners calls fn with the zcorn index of each of the 8 corners of cell
// (i,j,k).
func (g *Grid) forCorners(i, j, k int, fn func(idx int)) {
	for c := 0; c < 2; c++ {
		for b := 0; b < 2; b++ {
			for a := 0; a < 2; a++ {
				fn(g.ZCornIndex(i, j, k, a, b, c))
			}
		}
	}
}
