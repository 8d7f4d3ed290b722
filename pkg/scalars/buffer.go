package scalars

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrUnknownType reports a scalar type code or descriptor outside the
// supported set.
var ErrUnknownType = errors.New("unknown scalar type")

// ErrNoConversion reports a coercion request with no defined conversion path.
var ErrNoConversion = errors.New("no conversion defined")

// Scalar constrains the primitive element types a Buffer may hold.
type Scalar interface {
	~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32 | ~float32 | ~float64
}

// Buffer is a flat scalar array tagged with its element type. It is a sealed
// tagged union over the eight supported types: the payload is always exactly
// one of []int8, []uint8, []int16, []uint16, []int32, []uint32, []float32 or
// []float64, matching the tag.
type Buffer struct {
	typ  Type
	data any
}

// NewBuffer wraps a typed slice in a Buffer. The tag is derived from the
// element type at compile time.
func NewBuffer[T Scalar](data []T) *Buffer {
	return &Buffer{typ: typeOf[T](), data: data}
}

// Alloc returns a zeroed buffer of n elements of type t.
func Alloc(t Type, n int) (*Buffer, error) {
	switch t {
	case Int8:
		return NewBuffer(make([]int8, n)), nil
	case UInt8:
		return NewBuffer(make([]uint8, n)), nil
	case Int16:
		return NewBuffer(make([]int16, n)), nil
	case UInt16:
		return NewBuffer(make([]uint16, n)), nil
	case Int32:
		return NewBuffer(make([]int32, n)), nil
	case UInt32:
		return NewBuffer(make([]uint32, n)), nil
	case Float32:
		return NewBuffer(make([]float32, n)), nil
	case Float64:
		return NewBuffer(make([]float64, n)), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

func typeOf[T Scalar]() Type {
	var z T
	switch any(z).(type) {
	case int8:
		return Int8
	case uint8:
		return UInt8
	case int16:
		return Int16
	case uint16:
		return UInt16
	case int32:
		return Int32
	case uint32:
		return UInt32
	case float32:
		return Float32
	case float64:
		return Float64
	}
	return Unknown
}

// Type returns the element type tag.
func (b *Buffer) Type() Type { return b.typ }

// Len returns the number of elements.
func (b *Buffer) Len() int {
	switch d := b.data.(type) {
	case []int8:
		return len(d)
	case []uint8:
		return len(d)
	case []int16:
		return len(d)
	case []uint16:
		return len(d)
	case []int32:
		return len(d)
	case []uint32:
		return len(d)
	case []float32:
		return len(d)
	case []float64:
		return len(d)
	}
	return 0
}

// Data returns the typed slice held by b when its element type is T. It fails
// if the buffer holds a different type; the caller is expected to have
// matched the tag first.
func Data[T Scalar](b *Buffer) ([]T, error) {
	d, ok := b.data.([]T)
	if !ok {
		return nil, fmt.Errorf("buffer holds %s, not %s", b.typ, typeOf[T]())
	}
	return d, nil
}

// Float64At returns element i widened to float64, for inspection and tests.
func (b *Buffer) Float64At(i int) float64 {
	switch d := b.data.(type) {
	case []int8:
		return float64(d[i])
	case []uint8:
		return float64(d[i])
	case []int16:
		return float64(d[i])
	case []uint16:
		return float64(d[i])
	case []int32:
		return float64(d[i])
	case []uint32:
		return float64(d[i])
	case []float32:
		return float64(d[i])
	case []float64:
		return d[i]
	}
	return 0
}

func convertSlice[S, D Scalar](src []S) []D {
	dst := make([]D, len(src))
	for i, v := range src {
		dst[i] = D(v)
	}
	return dst
}

func convertTo[D Scalar](b *Buffer) (*Buffer, error) {
	switch d := b.data.(type) {
	case []int8:
		return NewBuffer(convertSlice[int8, D](d)), nil
	case []uint8:
		return NewBuffer(convertSlice[uint8, D](d)), nil
	case []int16:
		return NewBuffer(convertSlice[int16, D](d)), nil
	case []uint16:
		return NewBuffer(convertSlice[uint16, D](d)), nil
	case []int32:
		return NewBuffer(convertSlice[int32, D](d)), nil
	case []uint32:
		return NewBuffer(convertSlice[uint32, D](d)), nil
	case []float32:
		return NewBuffer(convertSlice[float32, D](d)), nil
	case []float64:
		return NewBuffer(convertSlice[float64, D](d)), nil
	default:
		return nil, fmt.Errorf("%w: from %s", ErrNoConversion, b.typ)
	}
}

// Convert returns a buffer with every element converted to dst using the
// language's normal numeric conversion rules: widening is exact, narrowing
// truncates, no saturation or rounding is applied. Conversion is defined for
// every ordered pair of supported types. Converting a buffer to its own type
// returns the receiver unchanged, with no copy taken.
func (b *Buffer) Convert(dst Type) (*Buffer, error) {
	if dst == b.typ {
		return b, nil
	}
	switch dst {
	case Int8:
		return convertTo[int8](b)
	case UInt8:
		return convertTo[uint8](b)
	case Int16:
		return convertTo[int16](b)
	case UInt16:
		return convertTo[uint16](b)
	case Int32:
		return convertTo[int32](b)
	case UInt32:
		return convertTo[uint32](b)
	case Float32:
		return convertTo[float32](b)
	case Float64:
		return convertTo[float64](b)
	default:
		return nil, fmt.Errorf("%w: to %s", ErrNoConversion, dst)
	}
}

// EncodeBinary serializes the buffer's elements in the given byte order,
// element by element with no padding.
func (b *Buffer) EncodeBinary(order binary.ByteOrder) []byte {
	out := make([]byte, b.Len()*b.typ.Size())
	switch d := b.data.(type) {
	case []int8:
		for i, v := range d {
			out[i] = byte(v)
		}
	case []uint8:
		copy(out, d)
	case []int16:
		for i, v := range d {
			order.PutUint16(out[2*i:], uint16(v))
		}
	case []uint16:
		for i, v := range d {
			order.PutUint16(out[2*i:], v)
		}
	case []int32:
		for i, v := range d {
			order.PutUint32(out[4*i:], uint32(v))
		}
	case []uint32:
		for i, v := range d {
			order.PutUint32(out[4*i:], v)
		}
	case []float32:
		for i, v := range d {
			order.PutUint32(out[4*i:], math.Float32bits(v))
		}
	case []float64:
		for i, v := range d {
			order.PutUint64(out[8*i:], math.Float64bits(v))
		}
	}
	return out
}

// DecodeBinary deserializes n elements of type t from raw in the given byte
// order. It fails if raw is shorter than n elements.
func DecodeBinary(t Type, raw []byte, n int, order binary.ByteOrder) (*Buffer, error) {
	if len(raw) < n*t.Size() {
		return nil, fmt.Errorf("scalar payload truncated: need %d bytes for %d %s values, have %d",
			n*t.Size(), n, t, len(raw))
	}
	switch t {
	case Int8:
		d := make([]int8, n)
		for i := range d {
			d[i] = int8(raw[i])
		}
		return NewBuffer(d), nil
	case UInt8:
		d := make([]uint8, n)
		copy(d, raw[:n])
		return NewBuffer(d), nil
	case Int16:
		d := make([]int16, n)
		for i := range d {
			d[i] = int16(order.Uint16(raw[2*i:]))
		}
		return NewBuffer(d), nil
	case UInt16:
		d := make([]uint16, n)
		for i := range d {
			d[i] = order.Uint16(raw[2*i:])
		}
		return NewBuffer(d), nil
	case Int32:
		d := make([]int32, n)
		for i := range d {
			d[i] = int32(order.Uint32(raw[4*i:]))
		}
		return NewBuffer(d), nil
	case UInt32:
		d := make([]uint32, n)
		for i := range d {
			d[i] = order.Uint32(raw[4*i:])
		}
		return NewBuffer(d), nil
	case Float32:
		d := make([]float32, n)
		for i := range d {
			d[i] = math.Float32frombits(order.Uint32(raw[4*i:]))
		}
		return NewBuffer(d), nil
	case Float64:
		d := make([]float64, n)
		for i := range d {
			d[i] = math.Float64frombits(order.Uint64(raw[8*i:]))
		}
		return NewBuffer(d), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

// Equal reports whether two buffers hold the same type and identical elements.
func (b *Buffer) Equal(o *Buffer) bool {
	if b.typ != o.typ || b.Len() != o.Len() {
		return false
	}
	for i := 0; i < b.Len(); i++ {
		a, c := b.Float64At(i), o.Float64At(i)
		if a != c && !(math.IsNaN(a) && math.IsNaN(c)) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	switch d := b.data.(type) {
	case []int8:
		return NewBuffer(append([]int8(nil), d...))
	case []uint8:
		return NewBuffer(append([]uint8(nil), d...))
	case []int16:
		return NewBuffer(append([]int16(nil), d...))
	case []uint16:
		return NewBuffer(append([]uint16(nil), d...))
	case []int32:
		return NewBuffer(append([]int32(nil), d...))
	case []uint32:
		return NewBuffer(append([]uint32(nil), d...))
	case []float32:
		return NewBuffer(append([]float32(nil), d...))
	case []float64:
		return NewBuffer(append([]float64(nil), d...))
	}
	return &Buffer{typ: b.typ}
}

// SetFloat64 stores v into element i, converting to the buffer's element type
// with the normal numeric conversion rules.
func (b *Buffer) SetFloat64(i int, v float64) {
	switch d := b.data.(type) {
	case []int8:
		d[i] = int8(v)
	case []uint8:
		d[i] = uint8(v)
	case []int16:
		d[i] = int16(v)
	case []uint16:
		d[i] = uint16(v)
	case []int32:
		d[i] = int32(v)
	case []uint32:
		d[i] = uint32(v)
	case []float32:
		d[i] = float32(v)
	case []float64:
		d[i] = v
	}
}
