package vtk

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/mesh2vtk/pkg/geometry"
)

const legacyVersion = "# vtk DataFile Version 3.0"

// legacyWriter accumulates the first write error so the encoder reads as a
// straight sequence of sections.
type legacyWriter struct {
	w      *bufio.Writer
	binary bool
	err    error
}

func writeLegacy(w io.Writer, f Frame, enc Encoding) error {
	lw := &legacyWriter{w: bufio.NewWriter(w), binary: enc.Payload == Binary}

	lw.line(legacyVersion)
	lw.line(legacyTitle(f.Title))
	if lw.binary {
		lw.line("BINARY")
	} else {
		lw.line("ASCII")
	}

	g := f.Geometry
	switch g.Kind {
	case geometry.Rectilinear:
		lw.line("DATASET RECTILINEAR_GRID")
		lw.fieldData(f.FieldData)
		lw.linef("DIMENSIONS %d %d %d", len(g.X), len(g.Y), len(g.Z))
		for _, c := range []struct {
			name   string
			values []float64
		}{{"X", g.X}, {"Y", g.Y}, {"Z", g.Z}} {
			lw.linef("%s_COORDINATES %d double", c.name, len(c.values))
			lw.floats(c.values, 1)
		}
	case geometry.Unstructured:
		lw.line("DATASET UNSTRUCTURED_GRID")
		lw.fieldData(f.FieldData)
		lw.points(g)
		lw.cells(g)
	default:
		return fmt.Errorf("unknown geometry kind %d", g.Kind)
	}

	if len(f.CellData) > 0 {
		lw.linef("CELL_DATA %d", g.NumCells())
		for _, a := range f.CellData {
			lw.linef("SCALARS %s %s 1", legacyName(a.Name), legacyType(a))
			lw.line("LOOKUP_TABLE default")
			lw.array(a)
		}
	}

	if lw.err != nil {
		return lw.err
	}
	return lw.w.Flush()
}

func (lw *legacyWriter) line(s string) {
	if lw.err != nil {
		return
	}
	_, lw.err = lw.w.WriteString(s + "\n")
}

func (lw *legacyWriter) linef(format string, args ...any) {
	lw.line(fmt.Sprintf(format, args...))
}

func (lw *legacyWriter) fieldData(arrays []Array) {
	if len(arrays) == 0 {
		return
	}
	lw.linef("FIELD FieldData %d", len(arrays))
	for _, a := range arrays {
		lw.linef("%s 1 %d %s", legacyName(a.Name), a.Len(), legacyType(a))
		lw.array(a)
	}
}

func (lw *legacyWriter) points(g *geometry.Mesh) {
	lw.linef("POINTS %d double", len(g.Points))
	coords := make([]float64, 0, 3*len(g.Points))
	for _, p := range g.Points {
		coords = append(coords, p.X, p.Y, p.Z)
	}
	lw.floats(coords, 3)
}

func (lw *legacyWriter) cells(g *geometry.Mesh) {
	n := len(g.Cells)
	lw.linef("CELLS %d %d", n, 9*n)
	conn := make([]int64, 0, 9*n)
	for _, c := range g.Cells {
		conn = append(conn, 8)
		for _, id := range c {
			conn = append(conn, int64(id))
		}
	}
	lw.ints(conn, 9)

	lw.linef("CELL_TYPES %d", n)
	types := make([]int64, n)
	for i := range types {
		types[i] = hexahedron
	}
	lw.ints(types, 1)
}

func (lw *legacyWriter) array(a Array) {
	if a.IsInt() {
		lw.ints(a.Int64, 9)
		return
	}
	lw.floats(a.Float64, 9)
}

// floats writes values as big-endian doubles, or as ASCII with perLine values
// per line.
func (lw *legacyWriter) floats(values []float64, perLine int) {
	if lw.err != nil {
		return
	}
	if lw.binary {
		buf := make([]byte, 8*len(values))
		for i, v := range values {
			binary.BigEndian.PutUint64(buf[8*i:], math.Float64bits(v))
		}
		lw.raw(buf)
		return
	}
	lw.ascii(len(values), perLine, func(i int) string {
		return strconv.FormatFloat(values[i], 'g', -1, 64)
	})
}

// ints writes values as big-endian 32-bit ints, or as ASCII.
func (lw *legacyWriter) ints(values []int64, perLine int) {
	if lw.err != nil {
		return
	}
	if lw.binary {
		buf := make([]byte, 4*len(values))
		for i, v := range values {
			binary.BigEndian.PutUint32(buf[4*i:], uint32(int32(v)))
		}
		lw.raw(buf)
		return
	}
	lw.ascii(len(values), perLine, func(i int) string {
		return strconv.FormatInt(values[i], 10)
	})
}

func (lw *legacyWriter) raw(buf []byte) {
	if _, err := lw.w.Write(buf); err != nil {
		lw.err = err
		return
	}
	_, lw.err = lw.w.WriteString("\n")
}

func (lw *legacyWriter) ascii(n, perLine int, format func(int) string) {
	for i := 0; i < n && lw.err == nil; i++ {
		sep := " "
		if (i+1)%perLine == 0 || i == n-1 {
			sep = "\n"
		}
		_, lw.err = lw.w.WriteString(format(i) + sep)
	}
}

// legacyTitle keeps the title on one line within the 256 character limit.
func legacyTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		title = "mesh2vtk"
	}
	if len(title) > 255 {
		title = title[:255]
	}
	return title
}

// legacyName replaces whitespace, which legacy readers treat as a separator.
func legacyName(name string) string {
	return strings.Join(strings.Fields(name), "_")
}

func legacyType(a Array) string {
	if a.IsInt() {
		return "int"
	}
	return "double"
}
