package models

import (
	"testing"

	"shapeio/pkg/scalars"
)

func TestNewImageValidation(t *testing.T) {
	buf, err := scalars.Alloc(scalars.Int16, 24)
	if err != nil {
		t.Fatal(err)
	}

	img, err := NewImage(3, [3]int{4, 3, 2}, [3]float64{}, [3]float64{1, 1, 1}, buf)
	if err != nil {
		t.Fatalf("NewImage failed: %v", err)
	}
	if img.NumVoxels() != 24 {
		t.Errorf("NumVoxels = %d, want 24", img.NumVoxels())
	}
	if img.ScalarType() != scalars.Int16 {
		t.Errorf("ScalarType = %v, want Int16", img.ScalarType())
	}
	if got := img.Index(1, 2, 1); got != 1*12+2*4+1 {
		t.Errorf("Index(1,2,1) = %d, want %d", got, 1*12+2*4+1)
	}

	if _, err := NewImage(4, [3]int{4, 3, 2}, [3]float64{}, [3]float64{1, 1, 1}, buf); err == nil {
		t.Error("expected an error for dimension 4")
	}
	if _, err := NewImage(3, [3]int{4, 3, 3}, [3]float64{}, [3]float64{1, 1, 1}, buf); err == nil {
		t.Error("expected an error for a buffer shorter than the extent")
	}

	small, err := scalars.Alloc(scalars.Int16, 12)
	if err != nil {
		t.Fatal(err)
	}
	img2d, err := NewImage(2, [3]int{4, 3, 7}, [3]float64{}, [3]float64{1, 1, 1}, small)
	if err != nil {
		t.Fatalf("NewImage 2D failed: %v", err)
	}
	if img2d.Size[2] != 1 {
		t.Errorf("2D image kept %d slices, want 1", img2d.Size[2])
	}
}

func TestTriangleMeshValidate(t *testing.T) {
	mesh := &TriangleMesh{
		Points:    [][3]float64{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Triangles: [][3]int{{0, 1, 2}},
	}
	if err := mesh.Validate(); err != nil {
		t.Errorf("valid mesh rejected: %v", err)
	}
	if mesh.NumVertices() != 3 || mesh.NumTriangles() != 1 {
		t.Errorf("counts (%d, %d), want (3, 1)", mesh.NumVertices(), mesh.NumTriangles())
	}

	mesh.Triangles = append(mesh.Triangles, [3]int{0, 1, 3})
	if err := mesh.Validate(); err == nil {
		t.Error("expected an error for an out-of-range vertex index")
	}
}
