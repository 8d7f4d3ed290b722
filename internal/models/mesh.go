package models

import "fmt"

// TriangleMesh is the domain representation of a triangulated surface:
// a point list plus a triangle list indexing into it.
type TriangleMesh struct {
	// Points holds vertex positions.
	Points [][3]float64

	// Triangles holds vertex index triplets. Indices refer to Points.
	Triangles [][3]int
}

// NumVertices returns the number of mesh vertices.
func (m *TriangleMesh) NumVertices() int { return len(m.Points) }

// NumTriangles returns the number of triangles.
func (m *TriangleMesh) NumTriangles() int { return len(m.Triangles) }

// Validate checks that every triangle references existing vertices.
func (m *TriangleMesh) Validate() error {
	n := len(m.Points)
	for i, t := range m.Triangles {
		for _, v := range t {
			if v < 0 || v >= n {
				return fmt.Errorf("triangle %d references vertex %d, mesh has %d vertices", i, v, n)
			}
		}
	}
	return nil
}
