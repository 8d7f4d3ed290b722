package vtk

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	"shapeio/pkg/scalars"
)

// Error codes reported by readers and writers. Zero means success; nonzero
// codes are forwarded to callers as opaque integers.
const (
	NoError                   = 0
	PrematureEndOfFileError   = 14
	UnrecognizedFileTypeError = 16
	FileFormatError           = 17
	FileNotFoundError         = 18
	WriteError                = 19
	UnknownScalarTypeError    = 20
)

// StructuredPoints is the legacy VTK regular-grid image representation:
// extents, spacing and origin plus a flat scalar payload in x-fastest order.
type StructuredPoints struct {
	object

	Dims    [3]int
	Spacing [3]float64
	Origin  [3]float64

	// ScalarTypeCode is the VTK type-tag integer of the payload.
	ScalarTypeCode int

	// Scalars holds the voxel payload. nil until populated.
	Scalars *scalars.Buffer
}

// NewStructuredPoints creates an empty, pool-tracked structured points object.
// The caller owns it and must call Delete when done.
func NewStructuredPoints() *StructuredPoints {
	sp := &StructuredPoints{}
	sp.id = register(0, func() { sp.Scalars = nil })
	return sp
}

func newStructuredPointsOutput(parent uint64) *StructuredPoints {
	sp := &StructuredPoints{}
	sp.id = register(parent, func() { sp.Scalars = nil })
	return sp
}

// NumPoints returns the grid's total point count.
func (sp *StructuredPoints) NumPoints() int {
	return sp.Dims[0] * sp.Dims[1] * sp.Dims[2]
}

// StructuredPointsReader reads legacy VTK structured-points files, binary or
// ASCII. Usage follows the native pipeline protocol: set the file name, call
// Update, then inspect ErrorCode before touching Output. The reader and its
// output are pool-tracked; callers release the reader with Delete and rely on
// the GC sweep to reclaim the output entry.
type StructuredPointsReader struct {
	object

	fileName  string
	errorCode int
	output    *StructuredPoints
}

// NewStructuredPointsReader creates a pool-tracked reader.
func NewStructuredPointsReader() *StructuredPointsReader {
	r := &StructuredPointsReader{}
	r.id = register(0, func() { r.output = nil })
	return r
}

// SetFileName sets the path the next Update will read.
func (r *StructuredPointsReader) SetFileName(name string) { r.fileName = name }

// ErrorCode returns the result of the last Update. Zero means success.
func (r *StructuredPointsReader) ErrorCode() int { return r.errorCode }

// Output returns the structured points produced by the last successful
// Update, or nil.
func (r *StructuredPointsReader) Output() *StructuredPoints { return r.output }

// Update executes the read pass. Failures are reported through ErrorCode,
// never panics: 18 file not found, 16 unrecognized header, 17 malformed
// geometry or payload declarations, 14 truncated payload, 20 scalar type
// outside the supported set.
func (r *StructuredPointsReader) Update() {
	r.errorCode = NoError
	r.output = nil

	raw, err := os.ReadFile(r.fileName)
	if err != nil {
		r.errorCode = FileNotFoundError
		return
	}

	hdr, body, code := parseLegacyHeader(raw, "STRUCTURED_POINTS")
	if code != NoError {
		r.errorCode = code
		return
	}

	out := newStructuredPointsOutput(r.id)
	out.Dims = hdr.dims
	out.Spacing = hdr.spacing
	out.Origin = hdr.origin
	out.ScalarTypeCode = hdr.scalarType.VTKCode()

	n := hdr.numPoints
	if n != out.NumPoints() {
		r.errorCode = FileFormatError
		return
	}

	var buf *scalars.Buffer
	if hdr.binary {
		// Legacy VTK binary payloads are big-endian.
		buf, err = scalars.DecodeBinary(hdr.scalarType, body, n, binary.BigEndian)
		if err != nil {
			r.errorCode = PrematureEndOfFileError
			return
		}
	} else {
		buf, err = parseASCIIScalars(hdr.scalarType, body, n)
		if err != nil {
			r.errorCode = PrematureEndOfFileError
			return
		}
	}
	out.Scalars = buf
	r.output = out
}

// legacyHeader holds the fields common to legacy VTK dataset files.
type legacyHeader struct {
	binary     bool
	dims       [3]int
	spacing    [3]float64
	origin     [3]float64
	numPoints  int
	scalarType scalars.Type
}

// parseLegacyHeader consumes the shared preamble of a legacy VTK file
// (version comment, title, encoding, DATASET) plus the keyword lines of a
// structured-points dataset, and returns the remaining bytes as the scalar
// payload. Spacing defaults to 1 and origin to 0 when absent.
func parseLegacyHeader(raw []byte, wantDataset string) (legacyHeader, []byte, int) {
	hdr := legacyHeader{spacing: [3]float64{1, 1, 1}, dims: [3]int{1, 1, 1}}

	rd := bufio.NewReader(bytes.NewReader(raw))
	consumed := 0
	readLine := func() (string, bool) {
		line, err := rd.ReadString('\n')
		consumed += len(line)
		if err != nil && line == "" {
			return "", false
		}
		return strings.TrimSpace(line), true
	}

	version, ok := readLine()
	if !ok || !strings.HasPrefix(version, "# vtk DataFile Version") {
		return hdr, nil, UnrecognizedFileTypeError
	}
	if _, ok = readLine(); !ok { // title, ignored
		return hdr, nil, PrematureEndOfFileError
	}
	encoding, ok := readLine()
	if !ok {
		return hdr, nil, PrematureEndOfFileError
	}
	switch encoding {
	case "BINARY":
		hdr.binary = true
	case "ASCII":
		hdr.binary = false
	default:
		return hdr, nil, UnrecognizedFileTypeError
	}

	dataset, ok := readLine()
	if !ok {
		return hdr, nil, PrematureEndOfFileError
	}
	fields := strings.Fields(dataset)
	if len(fields) != 2 || fields[0] != "DATASET" || fields[1] != wantDataset {
		return hdr, nil, UnrecognizedFileTypeError
	}

	// Keyword lines up to and including the scalar declaration.
	for {
		line, ok := readLine()
		if !ok {
			return hdr, nil, PrematureEndOfFileError
		}
		if line == "" {
			continue
		}
		f := strings.Fields(line)
		switch f[0] {
		case "DIMENSIONS":
			if parseInts(f[1:], hdr.dims[:]) != nil {
				return hdr, nil, FileFormatError
			}
			for _, d := range hdr.dims {
				if d <= 0 {
					return hdr, nil, FileFormatError
				}
			}
		case "SPACING", "ASPECT_RATIO":
			if parseFloats(f[1:], hdr.spacing[:]) != nil {
				return hdr, nil, FileFormatError
			}
		case "ORIGIN":
			if parseFloats(f[1:], hdr.origin[:]) != nil {
				return hdr, nil, FileFormatError
			}
		case "POINT_DATA":
			if len(f) != 2 {
				return hdr, nil, FileFormatError
			}
			n, err := strconv.Atoi(f[1])
			if err != nil || n < 0 {
				return hdr, nil, FileFormatError
			}
			hdr.numPoints = n
		case "SCALARS":
			// SCALARS name type [numComponents]
			if len(f) < 3 {
				return hdr, nil, FileFormatError
			}
			t, err := scalars.FromVTKName(f[2])
			if err != nil {
				return hdr, nil, UnknownScalarTypeError
			}
			hdr.scalarType = t
			// An optional LOOKUP_TABLE line precedes the payload.
			peek, err := rd.Peek(len("LOOKUP_TABLE"))
			if err == nil && string(peek) == "LOOKUP_TABLE" {
				if _, ok := readLine(); !ok {
					return hdr, nil, PrematureEndOfFileError
				}
			}
			return hdr, raw[consumed:], NoError
		default:
			return hdr, nil, FileFormatError
		}
	}
}

func parseInts(fields []string, dst []int) error {
	if len(fields) != len(dst) {
		return fmt.Errorf("expected %d fields, got %d", len(dst), len(fields))
	}
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

func parseFloats(fields []string, dst []float64) error {
	if len(fields) != len(dst) {
		return fmt.Errorf("expected %d fields, got %d", len(dst), len(fields))
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// parseASCIIScalars decodes n whitespace-separated numeric tokens into a
// buffer of type t. Tokens are parsed as floats and converted with the normal
// numeric conversion rules, which covers both integer and float payloads.
func parseASCIIScalars(t scalars.Type, body []byte, n int) (*scalars.Buffer, error) {
	buf, err := scalars.Alloc(t, n)
	if err != nil {
		return nil, err
	}
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 1<<24)
	sc.Split(bufio.ScanWords)
	for i := 0; i < n; i++ {
		if !sc.Scan() {
			return nil, fmt.Errorf("ascii payload ended after %d of %d values", i, n)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("bad ascii value %q at index %d: %v", sc.Text(), i, err)
		}
		buf.SetFloat64(i, v)
	}
	return buf, nil
}
