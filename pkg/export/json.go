package export

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/chazu/cornerpoint/pkg/mesh"
)

// Document is the JSON form of a mesh: the flat arrays with tags packed
// three words per triangle and edge classes by name.
type Document struct {
	Vertices     []float32  `json:"vertices"`
	Edges        []uint32   `json:"edges"`
	EdgeInfo     []string   `json:"edge_info"`
	Triangles    []uint32   `json:"triangles"`
	TriangleInfo []uint32   `json:"triangle_info"`
	CellIndex    []uint32   `json:"cell_index"`
	CellCorner   []uint32   `json:"cell_corner"`
	Stats        mesh.Stats `json:"stats"`
}

// NewDocument builds the JSON document for m.
func NewDocument(m *mesh.Mesh) Document {
	classes := make([]string, len(m.EdgeInfo))
	for n, c := range m.EdgeInfo {
		classes[n] = c.String()
	}
	return Document{
		Vertices:     m.Vertices,
		Edges:        m.Edges,
		EdgeInfo:     classes,
		Triangles:    m.Triangles,
		TriangleInfo: m.PackedTriangleInfo(),
		CellIndex:    m.CellIndex,
		CellCorner:   m.CellCorner,
		Stats:        mesh.ComputeStats(m),
	}
}

// JSON writes the mesh as a JSON document.
type JSON struct {
	Indent bool
}

func (JSON) Name() string { return "json" }

func (e JSON) Export(m *mesh.Mesh, path string) error {
	doc := NewDocument(m)
	var data []byte
	var err error
	if e.Indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: json: %w", err)
	}
	return nil
}
