package models

import (
	"fmt"

	"shapeio/pkg/scalars"
)

// Image is the domain representation of a regular-grid scalar image in two or
// three spatial dimensions. Voxels are stored in a flat buffer in row-major
// order with the x index varying fastest, then y, then z.
//
// The adapters produce and consume Images at their boundary but never mutate
// one after handing it to the caller.
type Image struct {
	// Dim is the spatial dimension, 2 or 3.
	Dim int

	// Size holds the voxel extent per axis. For 2D images Size[2] is 1.
	Size [3]int

	// Origin is the world-space position of the first voxel, per axis.
	Origin [3]float64

	// Spacing is the world-space distance between voxel centers, per axis.
	// Always positive.
	Spacing [3]float64

	// Data holds the voxel payload tagged with its scalar type.
	Data *scalars.Buffer
}

// NewImage builds an image and checks that the buffer length matches the
// requested extents.
func NewImage(dim int, size [3]int, origin, spacing [3]float64, data *scalars.Buffer) (*Image, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("image dimension must be 2 or 3, got %d", dim)
	}
	if dim == 2 {
		size[2] = 1
	}
	n := size[0] * size[1] * size[2]
	if n <= 0 {
		return nil, fmt.Errorf("image extents must be positive, got %v", size)
	}
	if data.Len() != n {
		return nil, fmt.Errorf("voxel buffer has %d elements, extents %v need %d", data.Len(), size, n)
	}
	return &Image{Dim: dim, Size: size, Origin: origin, Spacing: spacing, Data: data}, nil
}

// NumVoxels returns the total voxel count.
func (img *Image) NumVoxels() int {
	return img.Size[0] * img.Size[1] * img.Size[2]
}

// ScalarType returns the voxel scalar type.
func (img *Image) ScalarType() scalars.Type {
	return img.Data.Type()
}

// Index returns the flat buffer index of voxel (x, y, z).
func (img *Image) Index(x, y, z int) int {
	return z*img.Size[0]*img.Size[1] + y*img.Size[0] + x
}
