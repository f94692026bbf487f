package grid

import (
	"fmt"
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Inactive is the cell_map value of a cell that has no output slot.
const Inactive int32 = -1

// Grid is a corner-point grid in the usual flat-array layout.
//
//	Coord:   6 values per pillar, (j*(NX+1)+i)*6: top x,y,z then bottom x,y,z
//	ZCorn:   8 depths per cell on a (2NX)x(2NY)x(2NZ) lattice
//	ActNum:  one flag per cell, non-zero = active
//	CellMap: optional, linear cell index -> compacted slot or Inactive
type Grid struct {
	NX, NY, NZ int

	Coord   []float64 `json:"coord"`
	ZCorn   []float64 `json:"zcorn"`
	ActNum  []int32   `json:"actnum"`
	CellMap []int32   `json:"cell_map,omitempty"`
}

// New allocates a grid of the given dimensions with every cell active and
// all coordinates zero.
func New(nx, ny, nz int) *Grid {
	g := &Grid{
		NX:     nx,
		NY:     ny,
		NZ:     nz,
		Coord:  make([]float64, 6*(nx+1)*(ny+1)),
		ZCorn:  make([]float64, 8*nx*ny*nz),
		ActNum: make([]int32, nx*ny*nz),
	}
	for i := range g.ActNum {
		g.ActNum[i] = 1
	}
	return g
}

// PillarCount returns (NX+1)*(NY+1).
func (g *Grid) PillarCount() int {
	return (g.NX + 1) * (g.NY + 1)
}

// CellCount returns NX*NY*NZ.
func (g *Grid) CellCount() int {
	return g.NX * g.NY * g.NZ
}

// PillarIndex returns the linear index of pillar (i,j).
func (g *Grid) PillarIndex(i, j int) int {
	return j*(g.NX+1) + i
}

// CellIndex returns the linear index of cell (i,j,k).
func (g *Grid) CellIndex(i, j, k int) int {
	return i + g.NX*(j+g.NY*k)
}

// CellIJK is the inverse of CellIndex.
func (g *Grid) CellIJK(idx int) (i, j, k int) {
	i = idx % g.NX
	j = (idx / g.NX) % g.NY
	k = idx / (g.NX * g.NY)
	return i, j, k
}

// ZCornIndex returns the zcorn index of corner (a,b,c) of cell (i,j,k).
// a and b select the pillar in x and y, c selects the first (0) or second
// (1) depth of the layer.
func (g *Grid) ZCornIndex(i, j, k, a, b, c int) int {
	return (2*k+c)*4*g.NX*g.NY + (2*j+b)*2*g.NX + (2*i + a)
}

// Depth returns the corner depth of corner (a,b,c) of cell (i,j,k).
func (g *Grid) Depth(i, j, k, a, b, c int) float64 {
	return g.ZCorn[g.ZCornIndex(i, j, k, a, b, c)]
}

// SetDepth sets the corner depth of corner (a,b,c) of cell (i,j,k).
func (g *Grid) SetDepth(i, j, k, a, b, c int, z float64) {
	g.ZCorn[g.ZCornIndex(i, j, k, a, b, c)] = z
}

// Active reports whether cell (i,j,k) is active.
func (g *Grid) Active(i, j, k int) bool {
	return g.ActNum[g.CellIndex(i, j, k)] != 0
}

// Pillar returns the two anchor points of pillar (i,j).
func (g *Grid) Pillar(i, j int) (top, bottom v3.Vec) {
	p := g.Coord[6*g.PillarIndex(i, j):]
	top = v3.Vec{X: p[0], Y: p[1], Z: p[2]}
	bottom = v3.Vec{X: p[3], Y: p[4], Z: p[5]}
	return top, bottom
}

// SetPillar sets the two anchor points of pillar (i,j).
func (g *Grid) SetPillar(i, j int, top, bottom v3.Vec) {
	p := g.Coord[6*g.PillarIndex(i, j):]
	p[0], p[1], p[2] = top.X, top.Y, top.Z
	p[3], p[4], p[5] = bottom.X, bottom.Y, bottom.Z
}

// PointAt returns the point at depth z on the line through the anchors of
// pillar (i,j). A pillar whose anchors share the same depth is treated as
// vertical through the top anchor.
func (g *Grid) PointAt(i, j int, z float64) v3.Vec {
	top, bottom := g.Pillar(i, j)
	return Interpolate(top, bottom, z)
}

// Interpolate returns the point at depth z on the line through a and b.
func Interpolate(a, b v3.Vec, z float64) v3.Vec {
	dz := b.Z - a.Z
	if math.Abs(dz) < 1e-12 {
		return v3.Vec{X: a.X, Y: a.Y, Z: z}
	}
	t := (z - a.Z) / dz
	p := a.Add(b.Sub(a).MulScalar(t))
	p.Z = z
	return p
}

// ActiveColumn returns a strided view over ActNum for column (i,j).
func (g *Grid) ActiveColumn(i, j int) ColumnView {
	return ColumnView{
		Base:   g.CellIndex(i, j, 0),
		Stride: g.NX * g.NY,
		Len:    g.NZ,
	}
}

// CompactMap returns the cell map and the number of compacted slots. When
// CellMap is nil one is derived from ActNum in linear order.
func (g *Grid) CompactMap() ([]int32, int) {
	if g.CellMap != nil {
		n := 0
		for _, s := range g.CellMap {
			if s != Inactive && int(s)+1 > n {
				n = int(s) + 1
			}
		}
		return g.CellMap, n
	}
	m := make([]int32, len(g.ActNum))
	n := 0
	for idx, a := range g.ActNum {
		if a == 0 {
			m[idx] = Inactive
			continue
		}
		m[idx] = int32(n)
		n++
	}
	return m, n
}

func (g *Grid) String() string {
	return fmt.Sprintf("grid %dx%dx%d", g.NX, g.NY, g.NZ)
}

// ColumnView is a strided window over a flat per-cell array: element k of
// the view is at Base + k*Stride.
type ColumnView struct {
	Base   int
	Stride int
	Len    int
}

// Index returns the flat index of element k.
func (v ColumnView) Index(k int) int {
	return v.Base + k*v.Stride
}

// Fits reports whether every element of the view lies in an array of
// length n.
func (v ColumnView) Fits(n int) bool {
	if v.Len == 0 {
		return v.Base >= 0
	}
	return v.Base >= 0 && v.Stride >= 0 && v.Index(v.Len-1) < n
}
