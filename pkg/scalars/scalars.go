// Package scalars defines the closed set of voxel scalar types supported by
// the image and mesh adapters, together with the bidirectional mappings to the
// type codes used by the VTK legacy and Nifti-1 file formats and the numeric
// conversions between every pair of supported types.
package scalars

import (
	"fmt"
)

// Type identifies one of the primitive scalar types a voxel buffer may hold.
// The set is closed: signed and unsigned 8/16/32-bit integers plus 32/64-bit
// floating point. Every value maps bidirectionally to a VTK type code, a VTK
// legacy ASCII type name, and a Nifti datatype code.
type Type int

const (
	// Unknown is the zero value and never a valid buffer type.
	Unknown Type = iota
	Int8
	UInt8
	Int16
	UInt16
	Int32
	UInt32
	Float32
	Float64
)

// Types lists every supported scalar type in a fixed order. Useful for
// exhaustive iteration in tests and dispatch tables.
var Types = []Type{Int8, UInt8, Int16, UInt16, Int32, UInt32, Float32, Float64}

// String returns a human-readable name for the type.
func (t Type) String() string {
	switch t {
	case Int8:
		return "int8"
	case UInt8:
		return "uint8"
	case Int16:
		return "int16"
	case UInt16:
		return "uint16"
	case Int32:
		return "int32"
	case UInt32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// Size returns the width of a single scalar of this type in bytes.
func (t Type) Size() int {
	switch t {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 0
	}
}

// VTK type codes as defined by the VTK library headers. These are the values
// a structured-points reader reports for its scalar array.
const (
	vtkChar          = 2
	vtkUnsignedChar  = 3
	vtkShort         = 4
	vtkUnsignedShort = 5
	vtkInt           = 6
	vtkUnsignedInt   = 7
	vtkFloat         = 10
	vtkDouble        = 11
)

// Nifti-1 datatype codes from the nifti1 header specification.
const (
	niftiUInt8   = 2
	niftiInt16   = 4
	niftiInt32   = 8
	niftiFloat32 = 16
	niftiFloat64 = 64
	niftiInt8    = 256
	niftiUInt16  = 512
	niftiUInt32  = 768
)

// VTKCode returns the VTK type-tag integer for the type.
func (t Type) VTKCode() int {
	switch t {
	case Int8:
		return vtkChar
	case UInt8:
		return vtkUnsignedChar
	case Int16:
		return vtkShort
	case UInt16:
		return vtkUnsignedShort
	case Int32:
		return vtkInt
	case UInt32:
		return vtkUnsignedInt
	case Float32:
		return vtkFloat
	case Float64:
		return vtkDouble
	default:
		return 0
	}
}

// FromVTKCode translates a VTK type-tag integer back to a Type. Codes outside
// the supported set fail with an unknown scalar type error.
func FromVTKCode(code int) (Type, error) {
	switch code {
	case vtkChar:
		return Int8, nil
	case vtkUnsignedChar:
		return UInt8, nil
	case vtkShort:
		return Int16, nil
	case vtkUnsignedShort:
		return UInt16, nil
	case vtkInt:
		return Int32, nil
	case vtkUnsignedInt:
		return UInt32, nil
	case vtkFloat:
		return Float32, nil
	case vtkDouble:
		return Float64, nil
	default:
		return Unknown, fmt.Errorf("%w: vtk type code %d", ErrUnknownType, code)
	}
}

// VTKName returns the scalar type name used by the legacy VTK ASCII header
// (the token following SCALARS in the file).
func (t Type) VTKName() string {
	switch t {
	case Int8:
		return "char"
	case UInt8:
		return "unsigned_char"
	case Int16:
		return "short"
	case UInt16:
		return "unsigned_short"
	case Int32:
		return "int"
	case UInt32:
		return "unsigned_int"
	case Float32:
		return "float"
	case Float64:
		return "double"
	default:
		return ""
	}
}

// FromVTKName translates a legacy VTK header type name to a Type.
func FromVTKName(name string) (Type, error) {
	switch name {
	case "char":
		return Int8, nil
	case "unsigned_char":
		return UInt8, nil
	case "short":
		return Int16, nil
	case "unsigned_short":
		return UInt16, nil
	case "int":
		return Int32, nil
	case "unsigned_int":
		return UInt32, nil
	case "float":
		return Float32, nil
	case "double":
		return Float64, nil
	default:
		return Unknown, fmt.Errorf("%w: vtk scalar name %q", ErrUnknownType, name)
	}
}

// NiftiCode returns the Nifti-1 datatype code for the type.
func (t Type) NiftiCode() int16 {
	switch t {
	case Int8:
		return niftiInt8
	case UInt8:
		return niftiUInt8
	case Int16:
		return niftiInt16
	case UInt16:
		return niftiUInt16
	case Int32:
		return niftiInt32
	case UInt32:
		return niftiUInt32
	case Float32:
		return niftiFloat32
	case Float64:
		return niftiFloat64
	default:
		return 0
	}
}

// FromNiftiCode translates a Nifti-1 datatype code to a Type.
func FromNiftiCode(code int16) (Type, error) {
	switch code {
	case niftiInt8:
		return Int8, nil
	case niftiUInt8:
		return UInt8, nil
	case niftiInt16:
		return Int16, nil
	case niftiUInt16:
		return UInt16, nil
	case niftiInt32:
		return Int32, nil
	case niftiUInt32:
		return UInt32, nil
	case niftiFloat32:
		return Float32, nil
	case niftiFloat64:
		return Float64, nil
	default:
		return Unknown, fmt.Errorf("%w: nifti datatype %d", ErrUnknownType, code)
	}
}

// IsInteger reports whether the type is one of the integer types.
func (t Type) IsInteger() bool {
	switch t {
	case Int8, UInt8, Int16, UInt16, Int32, UInt32:
		return true
	default:
		return false
	}
}
