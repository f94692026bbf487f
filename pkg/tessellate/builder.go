package tessellate

import (
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cornerpoint/pkg/mesh"
)

// builder accumulates the output arrays. Vertices are append-only and are
// never moved, so indices handed out stay valid for the whole sweep.
type builder struct {
	pos []v3.Vec

	edges     []uint32
	edgeInfo  []mesh.EdgeClass
	tris      []uint32
	triInfo   []mesh.Tag
	cellIndex []uint32
	corners   []uint32
}

func newBuilder(cells int) *builder {
	b := &builder{
		cellIndex: make([]uint32, cells),
		corners:   make([]uint32, mesh.CornersPerCell*cells),
	}
	return b
}

func (b *builder) vertexCount() int {
	return len(b.pos)
}

func (b *builder) addVertex(p v3.Vec) int32 {
	b.pos = append(b.pos, p)
	return int32(len(b.pos) - 1)
}

func (b *builder) addEdge(v0, v1 int32, class mesh.EdgeClass) {
	if v0 == v1 {
		return
	}
	b.edges = append(b.edges, uint32(v0), uint32(v1))
	b.edgeInfo = append(b.edgeInfo, class)
}

// addTriangle appends a triangle unless two of its indices coincide.
func (b *builder) addTriangle(t [3]int32, tag mesh.Tag) {
	if t[0] == t[1] || t[1] == t[2] || t[0] == t[2] {
		return
	}
	b.tris = append(b.tris, uint32(t[0]), uint32(t[1]), uint32(t[2]))
	b.triInfo = append(b.triInfo, tag)
}

// setCell records the linear index and the corner vertices of a cell slot.
// corners is indexed by 2*corner + c.
func (b *builder) setCell(slot uint32, linear int, corners [mesh.CornersPerCell]int32) {
	b.cellIndex[slot] = uint32(linear)
	for n, v := range corners {
		b.corners[mesh.CornersPerCell*int(slot)+n] = uint32(v)
	}
}

func (b *builder) mesh() *mesh.Mesh {
	verts := make([]float32, 0, 4*len(b.pos))
	for _, p := range b.pos {
		verts = append(verts, float32(p.X), float32(p.Y), float32(p.Z), 1)
	}
	return &mesh.Mesh{
		Vertices:     verts,
		Edges:        b.edges,
		EdgeInfo:     b.edgeInfo,
		Triangles:    b.tris,
		TriangleInfo: b.triInfo,
		CellIndex:    b.cellIndex,
		CellCorner:   b.corners,
	}
}
