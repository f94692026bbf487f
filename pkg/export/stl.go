package export

import (
	"fmt"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/cornerpoint/pkg/mesh"
)

// STL writes the triangles as a binary STL file. Cell tags are dropped.
type STL struct {
	// Filter, when set, keeps only the triangles whose tag it accepts.
	Filter func(mesh.Tag) bool
}

func (STL) Name() string { return "stl" }

func (e STL) Export(m *mesh.Mesh, path string) error {
	tris := Triangles(m, e.Filter)
	if len(tris) == 0 {
		return fmt.Errorf("export: stl: no triangles to write")
	}
	if err := render.SaveSTL(path, tris); err != nil {
		return fmt.Errorf("export: stl: %w", err)
	}
	return nil
}

// Triangles converts the mesh triangles accepted by keep (all when keep is
// nil) to sdfx triangles.
func Triangles(m *mesh.Mesh, keep func(mesh.Tag) bool) []*sdf.Triangle3 {
	out := make([]*sdf.Triangle3, 0, m.TriangleCount())
	for t := 0; t < m.TriangleCount(); t++ {
		if keep != nil && !keep(m.TriangleInfo[t]) {
			continue
		}
		var tri sdf.Triangle3
		for n, v := range m.Triangle(t) {
			p := m.Vertex(v)
			tri[n] = v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
		}
		out = append(out, &tri)
	}
	return out
}

// FaultsOnly keeps the triangles on faults.
func FaultsOnly(t mesh.Tag) bool {
	return t.Has(mesh.FlagFault)
}

// OuterOnly keeps the triangles with a cell on one side only.
func OuterOnly(t mesh.Tag) bool {
	return t.Has(mesh.FlagBoundary)
}
