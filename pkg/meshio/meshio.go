// Package meshio converts the domain triangle mesh to and from the legacy
// VTK polydata and binary STL file formats, and wraps the quadric decimation
// filter. Like the image adapters, every vtk object is released on all exit
// paths followed by a pool sweep.
package meshio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"shapeio/internal/models"
	"shapeio/pkg/vtk"
)

// ErrUnknownFileType reports a mesh file suffix with no reader or writer.
var ErrUnknownFileType = errors.New("unknown mesh file type")

// ReadMesh reads a triangle mesh, dispatching on the exact file suffix:
// .vtk legacy polydata or binary .stl.
func ReadMesh(path string) (*models.TriangleMesh, error) {
	switch filepath.Ext(path) {
	case ".vtk":
		return readVTKMesh(path)
	case ".stl":
		return readSTLMesh(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFileType, path)
	}
}

// WriteMesh writes a triangle mesh as binary legacy VTK polydata or binary
// STL, by file suffix.
func WriteMesh(mesh *models.TriangleMesh, path string) error {
	switch filepath.Ext(path) {
	case ".vtk":
		return writeVTKMesh(mesh, path)
	case ".stl":
		return writeSTLMesh(mesh, path)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFileType, path)
	}
}

func readVTKMesh(path string) (*models.TriangleMesh, error) {
	reader := vtk.NewPolyDataReader()
	defer func() {
		reader.Delete()
		vtk.GC()
	}()

	reader.SetFileName(path)
	reader.Update()
	if code := reader.ErrorCode(); code != vtk.NoError {
		return nil, fmt.Errorf("could not read mesh file %s (error code %d)", path, code)
	}
	mesh, err := polyDataToMesh(reader.Output())
	if err != nil {
		return nil, fmt.Errorf("mesh file %s: %w", path, err)
	}
	return mesh, nil
}

func writeVTKMesh(mesh *models.TriangleMesh, path string) error {
	pd := meshToPolyData(mesh)
	writer := vtk.NewPolyDataWriter()
	defer func() {
		writer.Delete()
		pd.Delete()
		vtk.GC()
	}()

	writer.SetInput(pd)
	writer.SetFileName(path)
	writer.SetFileTypeToBinary()
	writer.Write()
	if code := writer.ErrorCode(); code != vtk.NoError {
		return fmt.Errorf("could not write mesh file %s (error code %d)", path, code)
	}
	return nil
}

// meshToPolyData converts the domain mesh to a native polydata object owned
// by the caller.
func meshToPolyData(mesh *models.TriangleMesh) *vtk.PolyData {
	pd := vtk.NewPolyData()
	pd.Points = make([][3]float32, len(mesh.Points))
	for i, p := range mesh.Points {
		pd.Points[i] = [3]float32{float32(p[0]), float32(p[1]), float32(p[2])}
	}
	pd.Polys = make([][]int, len(mesh.Triangles))
	for i, t := range mesh.Triangles {
		pd.Polys[i] = []int{t[0], t[1], t[2]}
	}
	return pd
}

// polyDataToMesh converts a native polydata back to the domain mesh. The
// polydata must contain only triangle cells with valid indices.
func polyDataToMesh(pd *vtk.PolyData) (*models.TriangleMesh, error) {
	mesh := &models.TriangleMesh{
		Points:    make([][3]float64, len(pd.Points)),
		Triangles: make([][3]int, 0, len(pd.Polys)),
	}
	for i, p := range pd.Points {
		mesh.Points[i] = [3]float64{float64(p[0]), float64(p[1]), float64(p[2])}
	}
	for i, poly := range pd.Polys {
		if len(poly) != 3 {
			return nil, fmt.Errorf("cell %d has %d vertices, only triangles are supported", i, len(poly))
		}
		mesh.Triangles = append(mesh.Triangles, [3]int{poly[0], poly[1], poly[2]})
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return mesh, nil
}

// stlTriangleSize is the byte size of one binary STL triangle record:
// normal plus three vertices as float32 triplets and the attribute count.
const stlTriangleSize = 4*3*4 + 2

// readSTLMesh reads a binary STL file, deduplicating vertices so shared
// corners become shared mesh vertices.
func readSTLMesh(path string) (*models.TriangleMesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var header struct {
		H    [80]byte
		NTri uint32
	}
	if err := binary.Read(f, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read stl header from %s: %w", path, err)
	}

	mesh := &models.TriangleMesh{}
	vertIndex := make(map[[3]float32]int)
	buf := make([]byte, stlTriangleSize)
	for i := 0; i < int(header.NTri); i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("stl file %s truncated at triangle %d: %w", path, i, err)
		}
		var tri [3]int
		for v := 0; v < 3; v++ {
			var vert [3]float32
			for c := 0; c < 3; c++ {
				const skipNormal = 3 * 4
				bits := binary.LittleEndian.Uint32(buf[skipNormal+12*v+4*c:])
				vert[c] = math.Float32frombits(bits)
			}
			idx, ok := vertIndex[vert]
			if !ok {
				idx = len(mesh.Points)
				vertIndex[vert] = idx
				mesh.Points = append(mesh.Points, [3]float64{
					float64(vert[0]), float64(vert[1]), float64(vert[2]),
				})
			}
			tri[v] = idx
		}
		mesh.Triangles = append(mesh.Triangles, tri)
	}
	return mesh, nil
}

// writeSTLMesh writes a binary STL file with per-triangle normals computed
// from the vertex winding.
func writeSTLMesh(mesh *models.TriangleMesh, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var header [80]byte
	copy(header[:], "shapeio mesh")
	if err := binary.Write(f, binary.LittleEndian, header); err != nil {
		return err
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(mesh.Triangles))); err != nil {
		return err
	}

	buf := make([]byte, stlTriangleSize)
	for _, t := range mesh.Triangles {
		p0, p1, p2 := mesh.Points[t[0]], mesh.Points[t[1]], mesh.Points[t[2]]
		n := triangleNormal(p0, p1, p2)
		for c := 0; c < 3; c++ {
			binary.LittleEndian.PutUint32(buf[4*c:], math.Float32bits(float32(n[c])))
		}
		for v, p := range [3][3]float64{p0, p1, p2} {
			for c := 0; c < 3; c++ {
				binary.LittleEndian.PutUint32(buf[12+12*v+4*c:], math.Float32bits(float32(p[c])))
			}
		}
		buf[stlTriangleSize-2] = 0
		buf[stlTriangleSize-1] = 0
		if _, err := f.Write(buf); err != nil {
			return fmt.Errorf("failed to write stl triangle: %w", err)
		}
	}
	return nil
}

func triangleNormal(p0, p1, p2 [3]float64) [3]float64 {
	u := [3]float64{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
	v := [3]float64{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
	n := [3]float64{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	l := math.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
	if l > 0 {
		n[0] /= l
		n[1] /= l
		n[2] /= l
	}
	return n
}
