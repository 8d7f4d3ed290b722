package scalars

import (
	"encoding/binary"
	"errors"
	"testing"
)

// TestVTKCodeRoundTrip verifies that every supported type maps to a VTK code
// and back to itself.
func TestVTKCodeRoundTrip(t *testing.T) {
	for _, typ := range Types {
		code := typ.VTKCode()
		if code == 0 {
			t.Fatalf("%s has no VTK code", typ)
		}
		back, err := FromVTKCode(code)
		if err != nil {
			t.Fatalf("FromVTKCode(%d) failed: %v", code, err)
		}
		if back != typ {
			t.Errorf("VTK round trip for %s gave %s", typ, back)
		}
	}
}

// TestVTKNameRoundTrip verifies the legacy ASCII name mapping.
func TestVTKNameRoundTrip(t *testing.T) {
	for _, typ := range Types {
		name := typ.VTKName()
		if name == "" {
			t.Fatalf("%s has no VTK name", typ)
		}
		back, err := FromVTKName(name)
		if err != nil {
			t.Fatalf("FromVTKName(%q) failed: %v", name, err)
		}
		if back != typ {
			t.Errorf("VTK name round trip for %s gave %s", typ, back)
		}
	}
}

// TestNiftiCodeRoundTrip verifies the Nifti datatype mapping.
func TestNiftiCodeRoundTrip(t *testing.T) {
	for _, typ := range Types {
		code := typ.NiftiCode()
		if code == 0 {
			t.Fatalf("%s has no nifti code", typ)
		}
		back, err := FromNiftiCode(code)
		if err != nil {
			t.Fatalf("FromNiftiCode(%d) failed: %v", code, err)
		}
		if back != typ {
			t.Errorf("nifti round trip for %s gave %s", typ, back)
		}
	}
}

// TestUnknownCodes verifies that unmapped codes fail with ErrUnknownType.
func TestUnknownCodes(t *testing.T) {
	if _, err := FromVTKCode(99); !errors.Is(err, ErrUnknownType) {
		t.Errorf("FromVTKCode(99) = %v, want ErrUnknownType", err)
	}
	if _, err := FromVTKName("long_long"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("FromVTKName = %v, want ErrUnknownType", err)
	}
	if _, err := FromNiftiCode(1); !errors.Is(err, ErrUnknownType) {
		t.Errorf("FromNiftiCode(1) = %v, want ErrUnknownType", err)
	}
}

// TestConvertAllPairs verifies that a conversion is defined for every ordered
// pair of supported types and that the element count is preserved.
func TestConvertAllPairs(t *testing.T) {
	src := NewBuffer([]float64{0, 1, 2, 3, 100, 200})
	for _, from := range Types {
		intermediate, err := src.Convert(from)
		if err != nil {
			t.Fatalf("convert to %s failed: %v", from, err)
		}
		for _, to := range Types {
			out, err := intermediate.Convert(to)
			if err != nil {
				t.Errorf("conversion %s -> %s undefined: %v", from, to, err)
				continue
			}
			if out.Type() != to {
				t.Errorf("conversion %s -> %s produced %s", from, to, out.Type())
			}
			if out.Len() != src.Len() {
				t.Errorf("conversion %s -> %s changed length to %d", from, to, out.Len())
			}
		}
	}
}

// TestConvertTruncates verifies narrowing semantics: float to int truncates
// toward zero and integer narrowing wraps like the language conversion.
func TestConvertTruncates(t *testing.T) {
	f := NewBuffer([]float64{1.9, -1.9, 2.5})
	out, err := f.Convert(Int32)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	ints, err := Data[int32](out)
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	want := []int32{1, -1, 2}
	for i, w := range want {
		if ints[i] != w {
			t.Errorf("element %d: got %d, want %d", i, ints[i], w)
		}
	}

	src := []int32{300, -1}
	wide := NewBuffer(src)
	narrow, err := wide.Convert(UInt8)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	bytes8, err := Data[uint8](narrow)
	if err != nil {
		t.Fatalf("Data failed: %v", err)
	}
	for i, v := range src {
		if bytes8[i] != uint8(v) {
			t.Errorf("element %d: got %d, want %d", i, bytes8[i], uint8(v))
		}
	}
}

// TestConvertIdentity verifies that converting to the buffer's own type
// returns the same buffer with no copy.
func TestConvertIdentity(t *testing.T) {
	b := NewBuffer([]int16{1, 2, 3})
	same, err := b.Convert(Int16)
	if err != nil {
		t.Fatalf("identity conversion failed: %v", err)
	}
	if same != b {
		t.Error("identity conversion should return the receiver")
	}
}

// TestBinaryRoundTrip verifies the binary codec in both byte orders.
func TestBinaryRoundTrip(t *testing.T) {
	values := []float64{0, 1, -3, 250, 65000, -70000, 1e9, 0.5}
	for _, typ := range Types {
		src := NewBuffer(values)
		converted, err := src.Convert(typ)
		if err != nil {
			t.Fatalf("convert to %s failed: %v", typ, err)
		}
		for _, order := range []binary.ByteOrder{binary.BigEndian, binary.LittleEndian} {
			raw := converted.EncodeBinary(order)
			if len(raw) != converted.Len()*typ.Size() {
				t.Fatalf("%s payload has %d bytes, want %d", typ, len(raw), converted.Len()*typ.Size())
			}
			back, err := DecodeBinary(typ, raw, converted.Len(), order)
			if err != nil {
				t.Fatalf("decode %s failed: %v", typ, err)
			}
			if !back.Equal(converted) {
				t.Errorf("binary round trip changed %s values", typ)
			}
		}
	}
}

// TestDecodeBinaryTruncated verifies that a short payload fails rather than
// producing a partial buffer.
func TestDecodeBinaryTruncated(t *testing.T) {
	if _, err := DecodeBinary(Int32, make([]byte, 7), 2, binary.BigEndian); err == nil {
		t.Error("expected error decoding truncated payload")
	}
}
