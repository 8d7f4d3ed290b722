package meshio

import (
	"shapeio/internal/models"
	"shapeio/pkg/vtk"
)

// Decimate reduces a triangle mesh to approximately targetVertexCount
// vertices using the quadric decimation filter. The result approaches the
// target but is not guaranteed to hit it exactly.
//
// The reduction ratio is 1 - targetVertexCount / currentVertexCount. When
// targetVertexCount is at or above the current count the ratio is zero or
// negative and the filter performs no collapses, so the mesh comes back
// unchanged apart from the float32 round trip through the polydata
// representation.
//
// Decimate has no failure path: the filter output is asserted to convert
// back to a valid triangle mesh, and a malformed result aborts via panic
// rather than returning a degenerate mesh.
func Decimate(mesh *models.TriangleMesh, targetVertexCount int) *models.TriangleMesh {
	current := mesh.NumVertices()
	if current == 0 {
		return &models.TriangleMesh{}
	}

	pd := meshToPolyData(mesh)
	filter := vtk.NewQuadricDecimation()
	defer func() {
		filter.Delete()
		pd.Delete()
		vtk.GC()
	}()

	reduction := 1 - float64(targetVertexCount)/float64(current)
	filter.SetInput(pd)
	filter.SetTargetReduction(reduction)
	filter.Update()

	out, err := polyDataToMesh(filter.Output())
	if err != nil {
		panic("decimation produced a malformed mesh: " + err.Error())
	}
	return out
}
