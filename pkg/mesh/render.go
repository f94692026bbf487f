package mesh

import v3 "github.com/deadsy/sdfx/vec/v3"

// Part is a flat-shaded triangle soup for a viewer. Vertices are not
// shared so every corner carries the normal of its own triangle.
type Part struct {
	Name     string    `json:"name"`
	Color    string    `json:"color"`
	Vertices []float32 `json:"vertices"` // [x0,y0,z0, x1,y1,z1, ...]
	Normals  []float32 `json:"normals"`  // [nx0,ny0,nz0, ...]
	Indices  []uint32  `json:"indices"`  // [i0,i1,i2, ...]
}

// VertexCount returns the number of vertices.
func (p *Part) VertexCount() int {
	return len(p.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (p *Part) TriangleCount() int {
	return len(p.Indices) / 3
}

// IsEmpty returns true if the part has no geometry.
func (p *Part) IsEmpty() bool {
	return len(p.Indices) == 0
}

// NewPart collects the triangles of m whose tag passes keep. A nil keep
// selects every triangle. Degenerate triangles get a zero normal.
func NewPart(m *Mesh, name string, keep func(Tag) bool) Part {
	p := Part{Name: name}
	for t := 0; t < m.TriangleCount(); t++ {
		if keep != nil && !keep(m.TriangleInfo[t]) {
			continue
		}
		tri := m.Triangle(t)
		a, b, c := m.point(tri[0]), m.point(tri[1]), m.point(tri[2])
		n := b.Sub(a).Cross(c.Sub(a))
		if l := n.Length(); l > 0 {
			n = n.DivScalar(l)
		} else {
			n = v3.Vec{}
		}
		base := uint32(p.VertexCount())
		for _, v := range []v3.Vec{a, b, c} {
			p.Vertices = append(p.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			p.Normals = append(p.Normals, float32(n.X), float32(n.Y), float32(n.Z))
		}
		p.Indices = append(p.Indices, base, base+1, base+2)
	}
	return p
}

// partPalette colors the parts returned by Parts.
var partPalette = []string{"#E74C3C", "#4A90D9", "#2ECC71"}

// Parts splits m into fault faces, outer boundary and the remaining
// interior faces. Empty groups are left out.
func Parts(m *Mesh) []Part {
	groups := []struct {
		name string
		keep func(Tag) bool
	}{
		{"fault", func(t Tag) bool { return t.Has(FlagFault) }},
		{"boundary", func(t Tag) bool { return !t.Has(FlagFault) && t.Has(FlagBoundary) }},
		{"interior", func(t Tag) bool { return !t.Has(FlagFault) && !t.Has(FlagBoundary) }},
	}
	var parts []Part
	for i, g := range groups {
		p := NewPart(m, g.name, g.keep)
		if p.IsEmpty() {
			continue
		}
		p.Color = partPalette[i%len(partPalette)]
		parts = append(parts, p)
	}
	return parts
}
