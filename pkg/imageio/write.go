package imageio

import (
	"fmt"
	"math"
	"path/filepath"

	"shapeio/internal/models"
	"shapeio/pkg/scalars"
	"shapeio/pkg/vtk"
)

// InterpolationMode selects the resampling kernel used when converting a
// domain image to structured points at a different grid spacing.
type InterpolationMode int

const (
	// InterpolationAuto picks a kernel from the voxel type: nearest neighbor
	// for integer voxels, linear for floating point.
	InterpolationAuto InterpolationMode = iota
	InterpolationNearest
	InterpolationLinear
)

// ParseInterpolationMode maps a configuration string to a mode.
func ParseInterpolationMode(s string) (InterpolationMode, error) {
	switch s {
	case "", "auto":
		return InterpolationAuto, nil
	case "nearest":
		return InterpolationNearest, nil
	case "linear":
		return InterpolationLinear, nil
	default:
		return InterpolationAuto, fmt.Errorf("unknown interpolation mode %q", s)
	}
}

// WriteOptions configures a write.
type WriteOptions struct {
	// Interpolation selects the resampling kernel. Only consulted when
	// TargetSpacing requests a different grid.
	Interpolation InterpolationMode

	// TargetSpacing, when non-zero on any axis, resamples the image to that
	// spacing before writing. Zero axes keep the image's own spacing.
	TargetSpacing [3]float64
}

// WriteImage writes a domain image as a legacy VTK structured points file.
// The file is always written in binary mode. A nonzero writer error code
// fails with a CodeError carrying path and code; the native objects are
// released and the pool swept on every outcome.
func WriteImage(img *models.Image, path string, opts WriteOptions) error {
	if filepath.Ext(path) != ".vtk" {
		return fmt.Errorf("%w: %s", ErrUnknownFileType, path)
	}

	sp, err := imageToStructuredPoints(img, opts)
	if err != nil {
		return err
	}
	writer := vtk.NewStructuredPointsWriter()
	defer func() {
		writer.Delete()
		sp.Delete()
		vtk.GC()
	}()

	writer.SetInput(sp)
	writer.SetFileName(path)
	writer.SetFileTypeToBinary()
	writer.Write()
	if code := writer.ErrorCode(); code != vtk.NoError {
		return &CodeError{Path: path, Code: code}
	}
	return nil
}

// imageToStructuredPoints converts the domain image to a native structured
// points object, resampling per the write options when a different spacing
// is requested. The caller owns the returned object.
func imageToStructuredPoints(img *models.Image, opts WriteOptions) (*vtk.StructuredPoints, error) {
	spacing := img.Spacing
	resample := false
	for i := 0; i < 3; i++ {
		if opts.TargetSpacing[i] > 0 && opts.TargetSpacing[i] != img.Spacing[i] {
			spacing[i] = opts.TargetSpacing[i]
			resample = true
		}
	}

	sp := vtk.NewStructuredPoints()
	sp.Origin = img.Origin
	sp.ScalarTypeCode = img.ScalarType().VTKCode()

	if !resample {
		sp.Dims = img.Size
		sp.Spacing = img.Spacing
		sp.Scalars = img.Data.Clone()
		return sp, nil
	}

	mode := opts.Interpolation
	if mode == InterpolationAuto {
		if img.ScalarType().IsInteger() {
			mode = InterpolationNearest
		} else {
			mode = InterpolationLinear
		}
	}

	size, buf, err := resampleGrid(img, spacing, mode)
	if err != nil {
		sp.Delete()
		vtk.GC()
		return nil, err
	}
	sp.Dims = size
	sp.Spacing = spacing
	sp.Scalars = buf
	return sp, nil
}

// resampleGrid samples the image onto a new grid with the given spacing,
// covering the same physical extent. The voxel type is preserved; sampled
// values are converted back with the normal numeric conversion rules.
func resampleGrid(img *models.Image, spacing [3]float64, mode InterpolationMode) ([3]int, *scalars.Buffer, error) {
	var size [3]int
	for i := 0; i < 3; i++ {
		extent := float64(img.Size[i]-1) * img.Spacing[i]
		size[i] = int(math.Round(extent/spacing[i])) + 1
		if size[i] < 1 {
			size[i] = 1
		}
	}
	if img.Dim == 2 {
		size[2] = 1
	}

	buf, err := scalars.Alloc(img.ScalarType(), size[0]*size[1]*size[2])
	if err != nil {
		return size, nil, err
	}

	for z := 0; z < size[2]; z++ {
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				// Continuous voxel coordinates in the source grid.
				fx := float64(x) * spacing[0] / img.Spacing[0]
				fy := float64(y) * spacing[1] / img.Spacing[1]
				fz := float64(z) * spacing[2] / img.Spacing[2]

				var v float64
				switch mode {
				case InterpolationNearest:
					v = sampleNearest(img, fx, fy, fz)
				case InterpolationLinear:
					v = sampleLinear(img, fx, fy, fz)
				default:
					return size, nil, fmt.Errorf("unhandled interpolation mode %d", mode)
				}
				buf.SetFloat64(z*size[0]*size[1]+y*size[0]+x, v)
			}
		}
	}
	return size, buf, nil
}

func clampIndex(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v >= hi {
		return hi - 1
	}
	return v
}

func sampleNearest(img *models.Image, fx, fy, fz float64) float64 {
	x := clampIndex(int(math.Round(fx)), img.Size[0])
	y := clampIndex(int(math.Round(fy)), img.Size[1])
	z := clampIndex(int(math.Round(fz)), img.Size[2])
	return img.Data.Float64At(img.Index(x, y, z))
}

func sampleLinear(img *models.Image, fx, fy, fz float64) float64 {
	x0 := clampIndex(int(math.Floor(fx)), img.Size[0])
	y0 := clampIndex(int(math.Floor(fy)), img.Size[1])
	z0 := clampIndex(int(math.Floor(fz)), img.Size[2])
	x1 := clampIndex(x0+1, img.Size[0])
	y1 := clampIndex(y0+1, img.Size[1])
	z1 := clampIndex(z0+1, img.Size[2])
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	tz := fz - float64(z0)
	if tx < 0 {
		tx = 0
	} else if tx > 1 {
		tx = 1
	}
	if ty < 0 {
		ty = 0
	} else if ty > 1 {
		ty = 1
	}
	if tz < 0 {
		tz = 0
	} else if tz > 1 {
		tz = 1
	}

	at := func(x, y, z int) float64 { return img.Data.Float64At(img.Index(x, y, z)) }
	c00 := at(x0, y0, z0)*(1-tx) + at(x1, y0, z0)*tx
	c10 := at(x0, y1, z0)*(1-tx) + at(x1, y1, z0)*tx
	c01 := at(x0, y0, z1)*(1-tx) + at(x1, y0, z1)*tx
	c11 := at(x0, y1, z1)*(1-tx) + at(x1, y1, z1)*tx
	c0 := c00*(1-ty) + c10*ty
	c1 := c01*(1-ty) + c11*ty
	return c0*(1-tz) + c1*tz
}
