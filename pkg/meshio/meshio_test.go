package meshio

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/stat"

	"shapeio/internal/models"
	"shapeio/pkg/vtk"
)

// gridMesh builds an nx by ny surface mesh with a gentle height field, two
// triangles per grid cell.
func gridMesh(nx, ny int) *models.TriangleMesh {
	mesh := &models.TriangleMesh{}
	for y := 0; y < ny; y++ {
		for x := 0; x < nx; x++ {
			h := math.Sin(float64(x)*0.4) * math.Cos(float64(y)*0.4)
			mesh.Points = append(mesh.Points, [3]float64{float64(x), float64(y), h})
		}
	}
	for y := 0; y < ny-1; y++ {
		for x := 0; x < nx-1; x++ {
			a := y*nx + x
			b := a + 1
			c := a + nx
			d := c + 1
			mesh.Triangles = append(mesh.Triangles, [3]int{a, b, d}, [3]int{a, d, c})
		}
	}
	return mesh
}

// meshesEqual compares meshes up to the float32 precision loss of the file
// and polydata representations.
func meshesEqual(a, b *models.TriangleMesh) bool {
	if len(a.Points) != len(b.Points) || len(a.Triangles) != len(b.Triangles) {
		return false
	}
	for i := range a.Points {
		for c := 0; c < 3; c++ {
			if math.Abs(a.Points[i][c]-b.Points[i][c]) > 1e-5 {
				return false
			}
		}
	}
	for i := range a.Triangles {
		if a.Triangles[i] != b.Triangles[i] {
			return false
		}
	}
	return true
}

func TestVTKMeshRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.vtk")
	mesh := gridMesh(5, 4)

	if err := WriteMesh(mesh, path); err != nil {
		t.Fatalf("WriteMesh failed: %v", err)
	}
	got, err := ReadMesh(path)
	if err != nil {
		t.Fatalf("ReadMesh failed: %v", err)
	}
	if !meshesEqual(mesh, got) {
		t.Error("mesh changed across the vtk round trip")
	}
}

func TestSTLMeshRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mesh.stl")
	mesh := gridMesh(5, 4)

	if err := WriteMesh(mesh, path); err != nil {
		t.Fatalf("WriteMesh failed: %v", err)
	}
	got, err := ReadMesh(path)
	if err != nil {
		t.Fatalf("ReadMesh failed: %v", err)
	}
	// STL stores triangle soup; the reader rebuilds shared vertices, so
	// counts must match even though vertex order may differ.
	if got.NumVertices() != mesh.NumVertices() {
		t.Errorf("got %d vertices, want %d", got.NumVertices(), mesh.NumVertices())
	}
	if got.NumTriangles() != mesh.NumTriangles() {
		t.Errorf("got %d triangles, want %d", got.NumTriangles(), mesh.NumTriangles())
	}
	if err := got.Validate(); err != nil {
		t.Errorf("round-tripped mesh invalid: %v", err)
	}
}

func TestUnknownMeshExtension(t *testing.T) {
	if _, err := ReadMesh("mesh.obj"); !errors.Is(err, ErrUnknownFileType) {
		t.Errorf("read gave %v, want ErrUnknownFileType", err)
	}
	if err := WriteMesh(gridMesh(2, 2), "mesh.obj"); !errors.Is(err, ErrUnknownFileType) {
		t.Errorf("write gave %v, want ErrUnknownFileType", err)
	}
}

func TestReadMissingMesh(t *testing.T) {
	if _, err := ReadMesh(filepath.Join(t.TempDir(), "absent.vtk")); err == nil {
		t.Error("expected an error for a missing mesh file")
	}
}

func TestDecimateApproachesTarget(t *testing.T) {
	mesh := gridMesh(12, 12)
	target := mesh.NumVertices() / 2

	out := Decimate(mesh, target)
	if err := out.Validate(); err != nil {
		t.Fatalf("decimated mesh invalid: %v", err)
	}
	if out.NumVertices() > target+5 {
		t.Errorf("decimated to %d vertices, target %d", out.NumVertices(), target)
	}
	if out.NumVertices() < 3 {
		t.Errorf("decimation collapsed the mesh to %d vertices", out.NumVertices())
	}

	// The simplified surface should keep roughly the same mean height.
	inMean := stat.Mean(heights(mesh), nil)
	outMean := stat.Mean(heights(out), nil)
	if math.Abs(inMean-outMean) > 0.5 {
		t.Errorf("mean height drifted from %.3f to %.3f", inMean, outMean)
	}
}

func heights(m *models.TriangleMesh) []float64 {
	zs := make([]float64, len(m.Points))
	for i, p := range m.Points {
		zs[i] = p[2]
	}
	return zs
}

func TestDecimateAtOrAboveCurrentIsIdentity(t *testing.T) {
	mesh := gridMesh(6, 6)
	for _, target := range []int{mesh.NumVertices(), mesh.NumVertices() * 2} {
		out := Decimate(mesh, target)
		if out.NumVertices() != mesh.NumVertices() {
			t.Errorf("target %d changed vertex count from %d to %d",
				target, mesh.NumVertices(), out.NumVertices())
		}
		if out.NumTriangles() != mesh.NumTriangles() {
			t.Errorf("target %d changed triangle count from %d to %d",
				target, mesh.NumTriangles(), out.NumTriangles())
		}
	}
}

func TestDecimateEmptyMesh(t *testing.T) {
	out := Decimate(&models.TriangleMesh{}, 10)
	if out.NumVertices() != 0 || out.NumTriangles() != 0 {
		t.Errorf("empty input produced %d vertices and %d triangles",
			out.NumVertices(), out.NumTriangles())
	}
}

// TestMeshAdaptersDrainObjectPool verifies the file and decimation adapters
// release every native object they create.
func TestMeshAdaptersDrainObjectPool(t *testing.T) {
	vtk.GC()
	path := filepath.Join(t.TempDir(), "mesh.vtk")
	mesh := gridMesh(8, 8)

	if err := WriteMesh(mesh, path); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadMesh(path); err != nil {
		t.Fatal(err)
	}
	Decimate(mesh, mesh.NumVertices()/2)
	if n := vtk.LiveObjects(); n != 0 {
		t.Errorf("%d native objects still live after the mesh adapters finished", n)
	}
}
