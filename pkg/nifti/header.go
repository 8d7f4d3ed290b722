// Package nifti reads Nifti-1 image files (.nii, .nia) for the image
// adapters. Reading is the only supported direction.
//
// The coordinate contract follows the shape-modeling domain's convention:
// Nifti headers encode voxel-to-world transforms in RAS while the domain
// works in LPS, so the reader mirrors the first two spatial axes after
// applying the header transform. When both the sform and the qform are
// present the sform wins, unless the caller asks for the opposite.
package nifti

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

const (
	headerSize = 348
	magicN1    = "n+1"
	magicNI1   = "ni1"
)

// Header holds the Nifti-1 header fields the adapters need. Reading a header
// decodes only these fields and never touches the voxel payload, which makes
// scalar type resolution cheap.
type Header struct {
	// Dim holds the raw dim array; Dim[0] is the spatial rank.
	Dim [8]int16

	// Datatype is the Nifti datatype code of the voxel payload.
	Datatype int16

	// Bitpix is the per-voxel bit width declared alongside the datatype.
	Bitpix int16

	// Pixdim holds grid spacings; Pixdim[0] carries the qform handedness.
	Pixdim [8]float32

	// VoxOffset is the byte offset of the voxel payload in the file.
	VoxOffset float32

	// QformCode and SformCode flag which transforms are usable.
	QformCode int16
	SformCode int16

	// Quaternion parameters and offsets of the qform transform.
	QuaternB, QuaternC, QuaternD float32
	QoffsetX, QoffsetY, QoffsetZ float32

	// Srow holds the three rows of the sform affine.
	Srow [3][4]float32

	// ByteOrder is the byte order the header (and payload) was written in.
	ByteOrder binary.ByteOrder
}

// ReadHeader reads and decodes the fixed 348-byte header of a Nifti-1 file.
// Both byte orders are accepted; the order is detected from sizeof_hdr.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, fmt.Errorf("failed to read nifti header from %s: %w", path, err)
	}
	return decodeHeader(raw, path)
}

func decodeHeader(raw []byte, path string) (*Header, error) {
	if len(raw) < headerSize {
		return nil, fmt.Errorf("nifti header in %s truncated: %d bytes", path, len(raw))
	}

	var order binary.ByteOrder = binary.LittleEndian
	if order.Uint32(raw[0:]) != headerSize {
		order = binary.BigEndian
		if order.Uint32(raw[0:]) != headerSize {
			return nil, fmt.Errorf("%s is not a nifti-1 file: bad sizeof_hdr", path)
		}
	}

	magic := string(raw[344:347])
	if magic != magicN1 && magic != magicNI1 {
		return nil, fmt.Errorf("%s is not a nifti-1 file: bad magic %q", path, magic)
	}

	h := &Header{ByteOrder: order}
	for i := range h.Dim {
		h.Dim[i] = int16(order.Uint16(raw[40+2*i:]))
	}
	h.Datatype = int16(order.Uint16(raw[70:]))
	h.Bitpix = int16(order.Uint16(raw[72:]))
	for i := range h.Pixdim {
		h.Pixdim[i] = f32(order, raw[76+4*i:])
	}
	h.VoxOffset = f32(order, raw[108:])
	h.QformCode = int16(order.Uint16(raw[252:]))
	h.SformCode = int16(order.Uint16(raw[254:]))
	h.QuaternB = f32(order, raw[256:])
	h.QuaternC = f32(order, raw[260:])
	h.QuaternD = f32(order, raw[264:])
	h.QoffsetX = f32(order, raw[268:])
	h.QoffsetY = f32(order, raw[272:])
	h.QoffsetZ = f32(order, raw[276:])
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			h.Srow[r][c] = f32(order, raw[280+16*r+4*c:])
		}
	}

	if h.Dim[0] < 1 || h.Dim[0] > 7 {
		return nil, fmt.Errorf("nifti header in %s has invalid rank %d", path, h.Dim[0])
	}
	return h, nil
}

// Extent returns the spatial voxel counts (nx, ny, nz), with trailing
// dimensions of 1 for 2D images.
func (h *Header) Extent() [3]int {
	ext := [3]int{1, 1, 1}
	for i := 0; i < 3 && i < int(h.Dim[0]); i++ {
		ext[i] = int(h.Dim[1+i])
	}
	return ext
}

func f32(order binary.ByteOrder, b []byte) float32 {
	return math.Float32frombits(order.Uint32(b))
}
