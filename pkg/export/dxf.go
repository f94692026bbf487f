package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"

	"github.com/chazu/cornerpoint/pkg/mesh"
)

// layerColors assigns one DXF layer per edge class.
var layerColors = map[mesh.EdgeClass]color.ColorNumber{
	mesh.EdgePillar:    color.Cyan,
	mesh.EdgeWall:      color.White,
	mesh.EdgeBoundary:  color.Green,
	mesh.EdgeFault:     color.Red,
	mesh.EdgeSynthetic: color.Blue,
}

// DXF writes the edges as 3D lines, one layer per edge class, and
// optionally the triangles as 3D faces.
type DXF struct {
	Faces bool
}

func (DXF) Name() string { return "dxf" }

func (e DXF) Export(m *mesh.Mesh, path string) error {
	d := dxf.NewDrawing()
	d.Header().LtScale = 1.0

	layers := make(map[mesh.EdgeClass]bool)
	for _, c := range m.EdgeInfo {
		layers[c] = true
	}
	for c := mesh.EdgePillar; c <= mesh.EdgeSynthetic; c++ {
		if !layers[c] {
			continue
		}
		if _, err := d.AddLayer(c.String(), layerColors[c], dxf.DefaultLineType, false); err != nil {
			return fmt.Errorf("export: dxf: layer %s: %w", c, err)
		}
	}

	for n := 0; n < m.EdgeCount(); n++ {
		class := m.EdgeInfo[n]
		if err := d.ChangeLayer(class.String()); err != nil {
			return fmt.Errorf("export: dxf: %w", err)
		}
		ed := m.Edge(n)
		a, b := m.Vertex(ed[0]), m.Vertex(ed[1])
		if _, err := d.Line(
			float64(a[0]), float64(a[1]), float64(a[2]),
			float64(b[0]), float64(b[1]), float64(b[2]),
		); err != nil {
			return fmt.Errorf("export: dxf: edge %d: %w", n, err)
		}
	}

	if e.Faces && m.TriangleCount() > 0 {
		if _, err := d.AddLayer("faces", color.Magenta, dxf.DefaultLineType, true); err != nil {
			return fmt.Errorf("export: dxf: layer faces: %w", err)
		}
		for t := 0; t < m.TriangleCount(); t++ {
			tri := m.Triangle(t)
			points := make([][]float64, 0, 4)
			for _, v := range tri {
				p := m.Vertex(v)
				points = append(points, []float64{float64(p[0]), float64(p[1]), float64(p[2])})
			}
			// A 3D face has four corners; triangles repeat the last one.
			points = append(points, points[2])
			if _, err := d.ThreeDFace(points); err != nil {
				return fmt.Errorf("export: dxf: triangle %d: %w", t, err)
			}
		}
	}

	if err := d.SaveAs(path); err != nil {
		return fmt.Errorf("export: dxf: %w", err)
	}
	return nil
}
