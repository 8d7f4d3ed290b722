package imageio

import (
	"fmt"
	"path/filepath"

	"shapeio/pkg/nifti"
	"shapeio/pkg/scalars"
	"shapeio/pkg/vtk"
)

// ScalarTypeOfFile reports the scalar type stored in an image file without
// the caller having to know it in advance. Dispatch is by exact,
// case-sensitive suffix: .nii and .nia go through the Nifti header reader,
// which decodes only the header fields needed; .vtk goes through the native
// read path, which performs a full read pass just to observe the reported
// type code, then releases the reader and sweeps the object pool. Any other
// suffix fails with ErrUnsupportedExtension.
func ScalarTypeOfFile(path string) (scalars.Type, error) {
	switch filepath.Ext(path) {
	case ".nii", ".nia":
		h, err := nifti.ReadHeader(path)
		if err != nil {
			return scalars.Unknown, err
		}
		return scalars.FromNiftiCode(h.Datatype)

	case ".vtk":
		reader := vtk.NewStructuredPointsReader()
		defer func() {
			reader.Delete()
			vtk.GC()
		}()
		reader.SetFileName(path)
		reader.Update()
		if code := reader.ErrorCode(); code != vtk.NoError {
			return scalars.Unknown, &CodeError{Path: path, Code: code}
		}
		return scalars.FromVTKCode(reader.Output().ScalarTypeCode)

	default:
		return scalars.Unknown, fmt.Errorf("%w: %s", ErrUnsupportedExtension, path)
	}
}
