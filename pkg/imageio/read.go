package imageio

import (
	"fmt"
	"path/filepath"

	"shapeio/internal/models"
	"shapeio/pkg/nifti"
	"shapeio/pkg/scalars"
	"shapeio/pkg/vtk"
)

// ReadOptions tunes how a read interprets file metadata.
type ReadOptions struct {
	// FavourQform prefers the Nifti qform transform over the sform when both
	// are present. The default preference is sform over qform.
	FavourQform bool
}

// ReadImage2D reads a 2D scalar image whose voxels are stored as want.
// A stored type different from want fails the read; use the coercion
// variants to convert instead.
func ReadImage2D(path string, want scalars.Type) (*models.Image, error) {
	return ReadImage(path, want, 2, ReadOptions{})
}

// ReadImage3D reads a 3D scalar image whose voxels are stored as want.
func ReadImage3D(path string, want scalars.Type) (*models.Image, error) {
	return ReadImage(path, want, 3, ReadOptions{})
}

// ReadImage reads a dim-dimensional image of the given voxel type. Dispatch
// is by exact, case-sensitive suffix: .vtk via the native structured points
// reader, .nii/.nia via the Nifti reader. Any other suffix fails with
// ErrUnknownFileType carrying the path.
func ReadImage(path string, want scalars.Type, dim int, opts ReadOptions) (*models.Image, error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("image dimension must be 2 or 3, got %d", dim)
	}
	switch filepath.Ext(path) {
	case ".vtk":
		return readVTKImage(path, want, dim)
	case ".nii", ".nia":
		return readNiftiImage(path, want, dim, opts)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFileType, path)
	}
}

// readVTKImage maps a structured points file onto the domain image field by
// field. The legacy VTK header convention already matches the domain's
// coordinate convention, so no transform is applied.
func readVTKImage(path string, want scalars.Type, dim int) (*models.Image, error) {
	reader := vtk.NewStructuredPointsReader()
	defer func() {
		reader.Delete()
		vtk.GC()
	}()

	reader.SetFileName(path)
	reader.Update()
	if code := reader.ErrorCode(); code != vtk.NoError {
		return nil, &CodeError{Path: path, Code: code}
	}

	sp := reader.Output()
	stored, err := scalars.FromVTKCode(sp.ScalarTypeCode)
	if err != nil {
		return nil, err
	}
	if stored != want {
		return nil, fmt.Errorf("file %s stores %s voxels, requested %s", path, stored, want)
	}
	if dim == 2 && sp.Dims[2] != 1 {
		return nil, fmt.Errorf("file %s holds a 3D image (%d slices), requested 2D", path, sp.Dims[2])
	}

	// Copy the payload out of the native object before it is released.
	return models.NewImage(dim, sp.Dims, sp.Origin, sp.Spacing, sp.Scalars.Clone())
}

func readNiftiImage(path string, want scalars.Type, dim int, opts ReadOptions) (*models.Image, error) {
	vol, err := nifti.ReadVolume(path, nifti.Options{FavourQform: opts.FavourQform})
	if err != nil {
		return nil, err
	}
	if vol.Data.Type() != want {
		return nil, fmt.Errorf("file %s stores %s voxels, requested %s", path, vol.Data.Type(), want)
	}
	if dim == 2 && vol.Size[2] != 1 {
		return nil, fmt.Errorf("file %s holds a 3D image (%d slices), requested 2D", path, vol.Size[2])
	}
	return models.NewImage(dim, vol.Size, vol.Origin, vol.Spacing, vol.Data)
}

// ReadImage2DWithCoercion reads a 2D image converting its voxels to want if
// the file stores a different supported type.
func ReadImage2DWithCoercion(path string, want scalars.Type) (*models.Image, error) {
	return ReadImageWithCoercion(path, want, 2, ReadOptions{})
}

// ReadImage3DWithCoercion reads a 3D image converting its voxels to want if
// the file stores a different supported type.
func ReadImage3DWithCoercion(path string, want scalars.Type) (*models.Image, error) {
	return ReadImageWithCoercion(path, want, 3, ReadOptions{})
}

// ReadImageWithCoercion resolves the file's stored scalar type first. When it
// matches want, this is exactly a plain typed read. Otherwise the file is
// read as its stored type and every voxel converted to want with the normal
// numeric conversion rules. A stored type outside the supported set fails
// with the resolver's unknown scalar type error.
func ReadImageWithCoercion(path string, want scalars.Type, dim int, opts ReadOptions) (*models.Image, error) {
	stored, err := ScalarTypeOfFile(path)
	if err != nil {
		return nil, err
	}
	if stored == want {
		return ReadImage(path, want, dim, opts)
	}

	img, err := ReadImage(path, stored, dim, opts)
	if err != nil {
		return nil, err
	}
	converted, err := img.Data.Convert(want)
	if err != nil {
		return nil, err
	}
	return models.NewImage(img.Dim, img.Size, img.Origin, img.Spacing, converted)
}
