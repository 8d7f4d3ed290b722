package nifti

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"shapeio/pkg/scalars"
)

// Options controls how a volume read interprets the header transforms.
type Options struct {
	// FavourQform inverts the default sform-over-qform preference when both
	// transforms are present.
	FavourQform bool
}

// Volume is the result of a full Nifti read, expressed in the domain's LPS
// convention with positive spacings.
type Volume struct {
	// Dim is the spatial rank from the header, 2 or 3 for the images the
	// adapters handle.
	Dim int

	Size    [3]int
	Origin  [3]float64
	Spacing [3]float64

	// Data holds the voxel payload in x-fastest order.
	Data *scalars.Buffer
}

// ReadVolume reads a Nifti-1 file including its voxel payload and reconciles
// the header's RAS world coordinates with the domain's LPS convention by
// mirroring the first two axes of the voxel-to-world transform. Axes whose
// transform direction is negative after mirroring have their voxel data
// reversed so spacing stays positive.
//
// Oblique transforms (rotation mixing axes) are rejected: the domain image
// representation is a regular axis-aligned grid and cannot carry them.
func ReadVolume(path string, opts Options) (*Volume, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	h, err := decodeHeader(raw, path)
	if err != nil {
		return nil, err
	}

	st, err := scalars.FromNiftiCode(h.Datatype)
	if err != nil {
		return nil, err
	}

	ext := h.Extent()
	n := ext[0] * ext[1] * ext[2]
	if n <= 0 {
		return nil, fmt.Errorf("nifti file %s has empty extent %v", path, ext)
	}

	off := int(h.VoxOffset)
	if off < headerSize {
		off = headerSize
	}
	if off > len(raw) {
		return nil, fmt.Errorf("nifti file %s truncated before voxel payload", path)
	}
	buf, err := scalars.DecodeBinary(st, raw[off:], n, h.ByteOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode voxels of %s: %w", path, err)
	}

	m := voxelToWorld(h, opts)

	// RAS to LPS: mirror the first two world axes.
	for c := 0; c < 4; c++ {
		m.Set(0, c, -m.At(0, c))
		m.Set(1, c, -m.At(1, c))
	}

	vol := &Volume{Data: buf, Size: ext}
	vol.Dim = 3
	if h.Dim[0] == 2 {
		vol.Dim = 2
	}

	// The grid is axis aligned, so each spatial row must reduce to a single
	// signed scale on its own axis.
	for i := 0; i < 3; i++ {
		scale := m.At(i, i)
		limit := math.Abs(scale) * 1e-4
		for j := 0; j < 3; j++ {
			if i != j && math.Abs(m.At(i, j)) > limit {
				return nil, fmt.Errorf("nifti file %s has an oblique orientation, which is not supported", path)
			}
		}
		if scale == 0 {
			return nil, fmt.Errorf("nifti file %s has zero spacing on axis %d", path, i)
		}
		vol.Spacing[i] = math.Abs(scale)
		vol.Origin[i] = m.At(i, 3)
		if scale < 0 {
			// Walk the axis from the other end so spacing stays positive.
			vol.Origin[i] = m.At(i, 3) + scale*float64(ext[i]-1)
			reverseAxis(vol.Data, ext, i)
		}
	}

	return vol, nil
}

// voxelToWorld builds the header's voxel-to-world affine. The sform is
// preferred over the qform when both are present, unless opts says
// otherwise; with neither, pixdim scaling alone is used.
func voxelToWorld(h *Header, opts Options) *mat.Dense {
	useSform := h.SformCode > 0
	useQform := h.QformCode > 0
	if useSform && useQform && opts.FavourQform {
		useSform = false
	}

	m := mat.NewDense(4, 4, nil)
	m.Set(3, 3, 1)

	switch {
	case useSform:
		for r := 0; r < 3; r++ {
			for c := 0; c < 4; c++ {
				m.Set(r, c, float64(h.Srow[r][c]))
			}
		}
	case useQform:
		b := float64(h.QuaternB)
		c := float64(h.QuaternC)
		d := float64(h.QuaternD)
		aa := 1 - b*b - c*c - d*d
		a := 0.0
		if aa > 0 {
			a = math.Sqrt(aa)
		}
		r := [3][3]float64{
			{a*a + b*b - c*c - d*d, 2*b*c - 2*a*d, 2*b*d + 2*a*c},
			{2*b*c + 2*a*d, a*a + c*c - b*b - d*d, 2*c*d - 2*a*b},
			{2*b*d - 2*a*c, 2*c*d + 2*a*b, a*a + d*d - b*b - c*c},
		}
		qfac := 1.0
		if h.Pixdim[0] < 0 {
			qfac = -1
		}
		for i := 0; i < 3; i++ {
			m.Set(i, 0, r[i][0]*float64(h.Pixdim[1]))
			m.Set(i, 1, r[i][1]*float64(h.Pixdim[2]))
			m.Set(i, 2, r[i][2]*float64(h.Pixdim[3])*qfac)
		}
		m.Set(0, 3, float64(h.QoffsetX))
		m.Set(1, 3, float64(h.QoffsetY))
		m.Set(2, 3, float64(h.QoffsetZ))
	default:
		for i := 0; i < 3; i++ {
			s := float64(h.Pixdim[1+i])
			if s == 0 {
				s = 1
			}
			m.Set(i, i, s)
		}
	}
	return m
}

// reverseAxis reverses the voxel order along one spatial axis in place.
func reverseAxis(buf *scalars.Buffer, ext [3]int, axis int) {
	idx := func(x, y, z int) int { return z*ext[0]*ext[1] + y*ext[0] + x }
	mirror := func(p [3]int) [3]int {
		p[axis] = ext[axis] - 1 - p[axis]
		return p
	}
	for z := 0; z < ext[2]; z++ {
		for y := 0; y < ext[1]; y++ {
			for x := 0; x < ext[0]; x++ {
				p := [3]int{x, y, z}
				q := mirror(p)
				i, j := idx(p[0], p[1], p[2]), idx(q[0], q[1], q[2])
				if i < j {
					a, b := buf.Float64At(i), buf.Float64At(j)
					buf.SetFloat64(i, b)
					buf.SetFloat64(j, a)
				}
			}
		}
	}
}
