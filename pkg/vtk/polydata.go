package vtk

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// PolyData is the legacy VTK polygonal mesh representation: a point list plus
// polygon connectivity. The adapters only ever populate it with triangles,
// but the reader accepts arbitrary polygon sizes, so connectivity is kept in
// the legacy cell-list form.
type PolyData struct {
	object

	// Points holds vertex positions. Stored as float32 like the on-disk
	// POINTS section the writer emits.
	Points [][3]float32

	// Polys holds one index list per polygon.
	Polys [][]int
}

// NewPolyData creates an empty, pool-tracked polydata object. The caller owns
// it and must call Delete when done.
func NewPolyData() *PolyData {
	pd := &PolyData{}
	pd.id = register(0, func() { pd.Points, pd.Polys = nil, nil })
	return pd
}

func newPolyDataOutput(parent uint64) *PolyData {
	pd := &PolyData{}
	pd.id = register(parent, func() { pd.Points, pd.Polys = nil, nil })
	return pd
}

// NumPoints returns the vertex count.
func (pd *PolyData) NumPoints() int { return len(pd.Points) }

// PolyDataReader reads legacy VTK polydata files, binary or ASCII, with the
// same execute-then-query protocol as the structured points reader.
type PolyDataReader struct {
	object

	fileName  string
	errorCode int
	output    *PolyData
}

// NewPolyDataReader creates a pool-tracked reader.
func NewPolyDataReader() *PolyDataReader {
	r := &PolyDataReader{}
	r.id = register(0, func() { r.output = nil })
	return r
}

// SetFileName sets the path the next Update will read.
func (r *PolyDataReader) SetFileName(name string) { r.fileName = name }

// ErrorCode returns the result of the last Update. Zero means success.
func (r *PolyDataReader) ErrorCode() int { return r.errorCode }

// Output returns the polydata produced by the last successful Update, or nil.
func (r *PolyDataReader) Output() *PolyData { return r.output }

// Update executes the read pass, reporting failures through ErrorCode.
func (r *PolyDataReader) Update() {
	r.errorCode = NoError
	r.output = nil

	raw, err := os.ReadFile(r.fileName)
	if err != nil {
		r.errorCode = FileNotFoundError
		return
	}

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
		r.errorCode = UnrecognizedFileTypeError
		return
	}
	if _, ok = readLine(); !ok { // title
		r.errorCode = PrematureEndOfFileError
		return
	}
	encoding, ok := readLine()
	if !ok {
		r.errorCode = PrematureEndOfFileError
		return
	}
	isBinary := encoding == "BINARY"
	if !isBinary && encoding != "ASCII" {
		r.errorCode = UnrecognizedFileTypeError
		return
	}
	dataset, ok := readLine()
	if !ok {
		r.errorCode = PrematureEndOfFileError
		return
	}
	f := strings.Fields(dataset)
	if len(f) != 2 || f[0] != "DATASET" || f[1] != "POLYDATA" {
		r.errorCode = UnrecognizedFileTypeError
		return
	}

	out := newPolyDataOutput(r.id)

	if !isBinary {
		r.errorCode = r.parseASCIIBody(out, raw[consumed:])
		if r.errorCode == NoError {
			r.output = out
		}
		return
	}

	for {
		line, ok := readLine()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		f := strings.Fields(line)
		switch f[0] {
		case "POINTS":
			if len(f) != 3 {
				r.errorCode = FileFormatError
				return
			}
			n, err := strconv.Atoi(f[1])
			if err != nil || n < 0 {
				r.errorCode = FileFormatError
				return
			}
			need := n * 3 * 4
			if len(raw)-consumed < need {
				r.errorCode = PrematureEndOfFileError
				return
			}
			body := raw[consumed:]
			out.Points = make([][3]float32, n)
			for i := 0; i < n; i++ {
				for c := 0; c < 3; c++ {
					bits := binary.BigEndian.Uint32(body[(i*3+c)*4:])
					out.Points[i][c] = math.Float32frombits(bits)
				}
			}
			consumed += need
			rd.Reset(bytes.NewReader(raw[consumed:]))
		case "POLYGONS":
			if len(f) != 3 {
				r.errorCode = FileFormatError
				return
			}
			numPolys, err1 := strconv.Atoi(f[1])
			listSize, err2 := strconv.Atoi(f[2])
			if err1 != nil || err2 != nil || numPolys < 0 || listSize < 0 {
				r.errorCode = FileFormatError
				return
			}
			need := listSize * 4
			if len(raw)-consumed < need {
				r.errorCode = PrematureEndOfFileError
				return
			}
			body := raw[consumed:]
			out.Polys = make([][]int, 0, numPolys)
			off := 0
			for p := 0; p < numPolys; p++ {
				if off >= listSize {
					r.errorCode = FileFormatError
					return
				}
				cnt := int(int32(binary.BigEndian.Uint32(body[off*4:])))
				off++
				if cnt < 0 || off+cnt > listSize {
					r.errorCode = FileFormatError
					return
				}
				poly := make([]int, cnt)
				for i := 0; i < cnt; i++ {
					poly[i] = int(int32(binary.BigEndian.Uint32(body[(off+i)*4:])))
				}
				off += cnt
				out.Polys = append(out.Polys, poly)
			}
			consumed += need
			rd.Reset(bytes.NewReader(raw[consumed:]))
		default:
			// Sections the mesh path does not use (normals, cell data)
			// terminate the parse; everything needed precedes them.
			r.output = out
			return
		}
	}
	r.output = out
}

// parseASCIIBody parses the POINTS and POLYGONS sections of an ASCII polydata
// file from a single token stream.
func (r *PolyDataReader) parseASCIIBody(out *PolyData, body []byte) int {
	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 64*1024), 1<<24)
	sc.Split(bufio.ScanWords)
	next := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		return sc.Text(), true
	}

	for {
		keyword, ok := next()
		if !ok {
			return NoError
		}
		switch keyword {
		case "POINTS":
			nTok, ok1 := next()
			_, ok2 := next() // scalar type token, always read as float
			if !ok1 || !ok2 {
				return PrematureEndOfFileError
			}
			n, err := strconv.Atoi(nTok)
			if err != nil || n < 0 {
				return FileFormatError
			}
			out.Points = make([][3]float32, n)
			for i := 0; i < n; i++ {
				for c := 0; c < 3; c++ {
					tok, ok := next()
					if !ok {
						return PrematureEndOfFileError
					}
					v, err := strconv.ParseFloat(tok, 32)
					if err != nil {
						return FileFormatError
					}
					out.Points[i][c] = float32(v)
				}
			}
		case "POLYGONS":
			npTok, ok1 := next()
			_, ok2 := next() // list size, redundant in ASCII form
			if !ok1 || !ok2 {
				return PrematureEndOfFileError
			}
			numPolys, err := strconv.Atoi(npTok)
			if err != nil || numPolys < 0 {
				return FileFormatError
			}
			out.Polys = make([][]int, 0, numPolys)
			for p := 0; p < numPolys; p++ {
				cntTok, ok := next()
				if !ok {
					return PrematureEndOfFileError
				}
				cnt, err := strconv.Atoi(cntTok)
				if err != nil || cnt < 0 {
					return FileFormatError
				}
				poly := make([]int, cnt)
				for i := 0; i < cnt; i++ {
					tok, ok := next()
					if !ok {
						return PrematureEndOfFileError
					}
					poly[i], err = strconv.Atoi(tok)
					if err != nil {
						return FileFormatError
					}
				}
				out.Polys = append(out.Polys, poly)
			}
		default:
			// Later sections are not needed by the mesh path.
			return NoError
		}
	}
}

// PolyDataWriter writes legacy VTK polydata files.
type PolyDataWriter struct {
	object

	fileName  string
	input     *PolyData
	binary    bool
	errorCode int
}

// NewPolyDataWriter creates a pool-tracked writer. File type defaults to
// ASCII; the mesh adapter switches it to binary.
func NewPolyDataWriter() *PolyDataWriter {
	w := &PolyDataWriter{}
	w.id = register(0, func() { w.input = nil })
	return w
}

// SetFileName sets the target path.
func (w *PolyDataWriter) SetFileName(name string) { w.fileName = name }

// SetInput sets the polydata to serialize.
func (w *PolyDataWriter) SetInput(pd *PolyData) { w.input = pd }

// SetFileTypeToBinary selects the binary encoding.
func (w *PolyDataWriter) SetFileTypeToBinary() { w.binary = true }

// ErrorCode returns the result of the last Write. Zero means success.
func (w *PolyDataWriter) ErrorCode() int { return w.errorCode }

// Write serializes the input to the configured path.
func (w *PolyDataWriter) Write() {
	w.errorCode = NoError
	pd := w.input
	if pd == nil {
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
	fmt.Fprintf(bw, "DATASET POLYDATA\n")
	fmt.Fprintf(bw, "POINTS %d float\n", len(pd.Points))

	if w.binary {
		for _, p := range pd.Points {
			for c := 0; c < 3; c++ {
				var b [4]byte
				binary.BigEndian.PutUint32(b[:], math.Float32bits(p[c]))
				bw.Write(b[:])
			}
		}
		fmt.Fprintf(bw, "\n")
	} else {
		for _, p := range pd.Points {
			fmt.Fprintf(bw, "%g %g %g\n", p[0], p[1], p[2])
		}
	}

	listSize := 0
	for _, poly := range pd.Polys {
		listSize += 1 + len(poly)
	}
	fmt.Fprintf(bw, "POLYGONS %d %d\n", len(pd.Polys), listSize)
	if w.binary {
		for _, poly := range pd.Polys {
			var b [4]byte
			binary.BigEndian.PutUint32(b[:], uint32(len(poly)))
			bw.Write(b[:])
			for _, v := range poly {
				binary.BigEndian.PutUint32(b[:], uint32(int32(v)))
				bw.Write(b[:])
			}
		}
		fmt.Fprintf(bw, "\n")
	} else {
		for _, poly := range pd.Polys {
			fmt.Fprintf(bw, "%d", len(poly))
			for _, v := range poly {
				fmt.Fprintf(bw, " %d", v)
			}
			fmt.Fprintf(bw, "\n")
		}
	}
	if err := bw.Flush(); err != nil {
		w.errorCode = WriteError
	}
}
