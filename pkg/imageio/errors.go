// Package imageio is the image I/O adapter: it reads and writes 2D and 3D
// scalar images in the legacy VTK and Nifti formats, resolves the scalar type
// stored in a file, and coerces voxel buffers to a requested type.
//
// Every operation that touches a vtk object releases it on all exit paths and
// then triggers the process-wide GC sweep, mirroring the manual lifecycle of
// the wrapped native library.
package imageio

import (
	"errors"
	"fmt"
)

// ErrUnsupportedExtension reports a file suffix the scalar type resolver
// does not dispatch on.
var ErrUnsupportedExtension = errors.New("unsupported file extension")

// ErrUnknownFileType reports a file suffix the read and write operations do
// not dispatch on.
var ErrUnknownFileType = errors.New("unknown file type")

// CodeError carries a nonzero error code reported by a vtk reader or writer.
// Codes are opaque library numbers with no further structured detail.
type CodeError struct {
	Path string
	Code int
}

func (e *CodeError) Error() string {
	return fmt.Sprintf("vtk i/o on %s failed with error code %d", e.Path, e.Code)
}
