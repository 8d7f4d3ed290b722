package vtk

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"shapeio/pkg/scalars"
)

// StructuredPointsWriter writes legacy VTK structured-points files. The
// protocol mirrors the reader: configure, call Write, then inspect ErrorCode.
type StructuredPointsWriter struct {
	object

	fileName  string
	input     *StructuredPoints
	binary    bool
	errorCode int
}

// NewStructuredPointsWriter creates a pool-tracked writer. The file type
// defaults to ASCII, matching the native writer's default; image adapters
// switch it to binary explicitly.
func NewStructuredPointsWriter() *StructuredPointsWriter {
	w := &StructuredPointsWriter{}
	w.id = register(0, func() { w.input = nil })
	return w
}

// SetFileName sets the target path.
func (w *StructuredPointsWriter) SetFileName(name string) { w.fileName = name }

// SetInput sets the structured points to serialize.
func (w *StructuredPointsWriter) SetInput(sp *StructuredPoints) { w.input = sp }

// SetFileTypeToBinary selects the binary payload encoding.
func (w *StructuredPointsWriter) SetFileTypeToBinary() { w.binary = true }

// SetFileTypeToASCII selects the ASCII payload encoding.
func (w *StructuredPointsWriter) SetFileTypeToASCII() { w.binary = false }

// ErrorCode returns the result of the last Write. Zero means success.
func (w *StructuredPointsWriter) ErrorCode() int { return w.errorCode }

// Write serializes the input to the configured path. Binary payloads are
// big-endian per the legacy format.
func (w *StructuredPointsWriter) Write() {
	w.errorCode = NoError
	sp := w.input
	if sp == nil || sp.Scalars == nil {
		w.errorCode = WriteError
		return
	}
	st, err := scalars.FromVTKCode(sp.ScalarTypeCode)
	if err != nil {
		w.errorCode = UnknownScalarTypeError
		return
	}
	if sp.Scalars.Type() != st || sp.Scalars.Len() != sp.NumPoints() {
		w.errorCode = WriteError
		return
	}

	f, err := os.Create(w.fileName)
	if err != nil {
		w.errorCode = FileNotFoundError
		return
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	encoding := "ASCII"
	if w.binary {
		encoding = "BINARY"
	}
	fmt.Fprintf(bw, "# vtk DataFile Version 3.0\n")
	fmt.Fprintf(bw, "shapeio output\n")
	fmt.Fprintf(bw, "%s\n", encoding)
	fmt.Fprintf(bw, "DATASET STRUCTURED_POINTS\n")
	fmt.Fprintf(bw, "DIMENSIONS %d %d %d\n", sp.Dims[0], sp.Dims[1], sp.Dims[2])
	fmt.Fprintf(bw, "SPACING %g %g %g\n", sp.Spacing[0], sp.Spacing[1], sp.Spacing[2])
	fmt.Fprintf(bw, "ORIGIN %g %g %g\n", sp.Origin[0], sp.Origin[1], sp.Origin[2])
	fmt.Fprintf(bw, "POINT_DATA %d\n", sp.NumPoints())
	fmt.Fprintf(bw, "SCALARS scalars %s 1\n", st.VTKName())
	fmt.Fprintf(bw, "LOOKUP_TABLE default\n")

	if w.binary {
		if _, err := bw.Write(sp.Scalars.EncodeBinary(binary.BigEndian)); err != nil {
			w.errorCode = WriteError
			return
		}
		fmt.Fprintf(bw, "\n")
	} else {
		for i := 0; i < sp.Scalars.Len(); i++ {
			if st.IsInteger() {
				fmt.Fprintf(bw, "%d\n", int64(sp.Scalars.Float64At(i)))
			} else {
				fmt.Fprintf(bw, "%g\n", sp.Scalars.Float64At(i))
			}
		}
	}
	if err := bw.Flush(); err != nil {
		w.errorCode = WriteError
	}
}
