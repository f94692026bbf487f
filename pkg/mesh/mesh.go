// Package mesh holds the output of a corner-point tessellation: a single
// deduplicated vertex array plus edge and triangle index arrays tagged with
// the compacted cells they bound, and per-cell corner and index tables.
// All arrays are flat so they can be handed to a renderer unchanged.
package mesh

import "fmt"

// NoCell marks a missing neighbor in a tag: grid boundary, inactive
// neighbor or a void between layers.
const NoCell = ^uint32(0)

// CornersPerCell is the number of entries per cell in CellCorner.
const CornersPerCell = 8

// EdgeClass tells a renderer what an edge represents.
type EdgeClass uint8

const (
	EdgePillar    EdgeClass = iota // along a pillar between two cell corners
	EdgeWall                       // cell boundary shared by both columns of a wall
	EdgeBoundary                   // cell boundary with a cell on one side only
	EdgeFault                      // cell boundary across a fault
	EdgeSynthetic                  // triangulation diagonal, not a cell boundary
)

func (c EdgeClass) String() string {
	switch c {
	case EdgePillar:
		return "pillar"
	case EdgeWall:
		return "wall"
	case EdgeBoundary:
		return "boundary"
	case EdgeFault:
		return "fault"
	case EdgeSynthetic:
		return "synthetic"
	default:
		return fmt.Sprintf("EdgeClass(%d)", int(c))
	}
}

// Outline reports whether the edge belongs to the cell outline overlay.
func (c EdgeClass) Outline() bool {
	return c != EdgeSynthetic
}

// Flag carries per-triangle face properties.
type Flag uint8

const (
	FlagFault    Flag = 1 << iota // the two sides do not share the face exactly
	FlagBoundary                  // a cell on one side only
	FlagCap                       // top or bottom face of a cell
)

// Tag records the cells on both sides of a triangle. The triangle normal,
// by the right-hand rule on its vertex order, points from Cells[0] towards
// Cells[1]. On walls Cells[0] is the column with the lower i (or j); on
// caps Cells[0] is the cell with the lower k.
type Tag struct {
	Cells [2]uint32
	Flags Flag
}

// Has reports whether f is set.
func (t Tag) Has(f Flag) bool {
	return t.Flags&f != 0
}

// Pack encodes the tag into three words: both cell slots and the flags.
func (t Tag) Pack() [3]uint32 {
	return [3]uint32{t.Cells[0], t.Cells[1], uint32(t.Flags)}
}

// Mesh is the tessellation of a corner-point grid.
type Mesh struct {
	Vertices     []float32   `json:"vertices"`      // [x0,y0,z0,w0, x1,y1,z1,w1, ...], w = 1
	Edges        []uint32    `json:"edges"`         // [a0,b0, a1,b1, ...]
	EdgeInfo     []EdgeClass `json:"edge_info"`     // one per edge
	Triangles    []uint32    `json:"triangles"`     // [a0,b0,c0, ...]
	TriangleInfo []Tag       `json:"triangle_info"` // one per triangle
	CellIndex    []uint32    `json:"cell_index"`    // compacted slot -> linear (i,j,k) index
	CellCorner   []uint32    `json:"cell_corner"`   // 8 vertex indices per compacted slot
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 4
}

// EdgeCount returns the number of edges.
func (m *Mesh) EdgeCount() int {
	return len(m.Edges) / 2
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// CellCount returns the number of compacted cells.
func (m *Mesh) CellCount() int {
	return len(m.CellIndex)
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// Vertex returns the position of vertex v.
func (m *Mesh) Vertex(v uint32) [3]float32 {
	p := m.Vertices[4*v:]
	return [3]float32{p[0], p[1], p[2]}
}

// Triangle returns the vertex indices of triangle t.
func (m *Mesh) Triangle(t int) [3]uint32 {
	p := m.Triangles[3*t:]
	return [3]uint32{p[0], p[1], p[2]}
}

// Edge returns the vertex indices of edge e.
func (m *Mesh) Edge(e int) [2]uint32 {
	return [2]uint32{m.Edges[2*e], m.Edges[2*e+1]}
}

// Corners returns the 8 corner vertices of compacted cell c in the order
// pillar (i,j), (i+1,j), (i,j+1), (i+1,j+1), first then second depth.
func (m *Mesh) Corners(c int) []uint32 {
	return m.CellCorner[CornersPerCell*c : CornersPerCell*(c+1)]
}

// PackedTriangleInfo returns TriangleInfo as three words per triangle.
func (m *Mesh) PackedTriangleInfo() []uint32 {
	out := make([]uint32, 0, 3*len(m.TriangleInfo))
	for _, t := range m.TriangleInfo {
		p := t.Pack()
		out = append(out, p[:]...)
	}
	return out
}
