package mesh

import (
	"math"

	v3 "github.com/deadsy/sdfx/vec/v3"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a mesh for reports.
type Stats struct {
	Vertices  int `json:"vertices"`
	Edges     int `json:"edges"`
	Triangles int `json:"triangles"`
	Cells     int `json:"cells"`

	FaultTriangles    int `json:"fault_triangles"`
	BoundaryTriangles int `json:"boundary_triangles"`
	CapTriangles      int `json:"cap_triangles"`
	FaultEdges        int `json:"fault_edges"`

	AreaMean   float64 `json:"area_mean"`
	AreaStdDev float64 `json:"area_stddev"`
	AreaMin    float64 `json:"area_min"`
	AreaMax    float64 `json:"area_max"`
}

// ComputeStats counts the mesh elements by kind and gathers triangle area
// statistics.
func ComputeStats(m *Mesh) Stats {
	s := Stats{
		Vertices:  m.VertexCount(),
		Edges:     m.EdgeCount(),
		Triangles: m.TriangleCount(),
		Cells:     m.CellCount(),
	}
	for _, tag := range m.TriangleInfo {
		if tag.Has(FlagFault) {
			s.FaultTriangles++
		}
		if tag.Has(FlagBoundary) {
			s.BoundaryTriangles++
		}
		if tag.Has(FlagCap) {
			s.CapTriangles++
		}
	}
	for _, c := range m.EdgeInfo {
		if c == EdgeFault {
			s.FaultEdges++
		}
	}
	if s.Triangles == 0 {
		return s
	}

	areas := make([]float64, s.Triangles)
	s.AreaMin = math.Inf(1)
	s.AreaMax = math.Inf(-1)
	for t := range areas {
		areas[t] = m.TriangleArea(t)
		s.AreaMin = math.Min(s.AreaMin, areas[t])
		s.AreaMax = math.Max(s.AreaMax, areas[t])
	}
	s.AreaMean, s.AreaStdDev = stat.MeanStdDev(areas, nil)
	if math.IsNaN(s.AreaStdDev) {
		// A single sample has no spread.
		s.AreaStdDev = 0
	}
	return s
}

// TriangleArea returns the area of triangle t.
func (m *Mesh) TriangleArea(t int) float64 {
	tri := m.Triangle(t)
	a, b, c := m.point(tri[0]), m.point(tri[1]), m.point(tri[2])
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Length()
}

func (m *Mesh) point(v uint32) v3.Vec {
	p := m.Vertex(v)
	return v3.Vec{X: float64(p[0]), Y: float64(p[1]), Z: float64(p[2])}
}
