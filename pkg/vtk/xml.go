package vtk

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/mesh2vtk/pkg/geometry"
)

// xmlWriter mirrors legacyWriter: the first error sticks and later writes are
// skipped.
type xmlWriter struct {
	w   *bufio.Writer
	enc Encoding
	err error
}

func writeXML(w io.Writer, f Frame, enc Encoding) error {
	xw := &xmlWriter{w: bufio.NewWriter(w), enc: enc}
	g := f.Geometry

	var fileType string
	switch g.Kind {
	case geometry.Rectilinear:
		fileType = "RectilinearGrid"
	case geometry.Unstructured:
		fileType = "UnstructuredGrid"
	default:
		return fmt.Errorf("unknown geometry kind %d", g.Kind)
	}

	xw.printf("<?xml version=\"1.0\"?>\n")
	xw.printf("<VTKFile type=%q version=\"1.0\" byte_order=%q header_type=\"UInt64\"", fileType, enc.ByteOrder.xmlName())
	if enc.Compressed() {
		xw.printf(" compressor=%q", enc.Compressor.vtkName())
	}
	xw.printf(">\n")

	switch g.Kind {
	case geometry.Rectilinear:
		extent := fmt.Sprintf("0 %d 0 %d 0 %d", len(g.X)-1, len(g.Y)-1, len(g.Z)-1)
		xw.printf("  <RectilinearGrid WholeExtent=%q>\n", extent)
		xw.fieldData(f.FieldData)
		xw.printf("    <Piece Extent=%q>\n", extent)
		xw.cellData(f.CellData)
		xw.printf("      <Coordinates>\n")
		xw.dataArray(Float64Array("x", g.X), 1, "        ")
		xw.dataArray(Float64Array("y", g.Y), 1, "        ")
		xw.dataArray(Float64Array("z", g.Z), 1, "        ")
		xw.printf("      </Coordinates>\n")
		xw.printf("    </Piece>\n")
		xw.printf("  </RectilinearGrid>\n")

	case geometry.Unstructured:
		xw.printf("  <UnstructuredGrid>\n")
		xw.fieldData(f.FieldData)
		xw.printf("    <Piece NumberOfPoints=\"%d\" NumberOfCells=\"%d\">\n", len(g.Points), len(g.Cells))
		xw.cellData(f.CellData)

		coords := make([]float64, 0, 3*len(g.Points))
		for _, p := range g.Points {
			coords = append(coords, p.X, p.Y, p.Z)
		}
		xw.printf("      <Points>\n")
		xw.dataArray(Float64Array("Points", coords), 3, "        ")
		xw.printf("      </Points>\n")

		conn := make([]int64, 0, 8*len(g.Cells))
		offsets := make([]int64, len(g.Cells))
		for i, c := range g.Cells {
			for _, id := range c {
				conn = append(conn, int64(id))
			}
			offsets[i] = int64(len(conn))
		}
		xw.printf("      <Cells>\n")
		xw.dataArray(Array{Name: "connectivity", Int64: conn}, 1, "        ")
		xw.dataArray(Array{Name: "offsets", Int64: offsets}, 1, "        ")
		xw.typesArray(len(g.Cells), "        ")
		xw.printf("      </Cells>\n")
		xw.printf("    </Piece>\n")
		xw.printf("  </UnstructuredGrid>\n")
	}
	xw.printf("</VTKFile>\n")

	if xw.err != nil {
		return xw.err
	}
	return xw.w.Flush()
}

func (xw *xmlWriter) printf(format string, args ...any) {
	if xw.err != nil {
		return
	}
	_, xw.err = fmt.Fprintf(xw.w, format, args...)
}

func (xw *xmlWriter) fieldData(arrays []Array) {
	if len(arrays) == 0 {
		return
	}
	xw.printf("    <FieldData>\n")
	for _, a := range arrays {
		xw.dataArray(a, 1, "      ")
	}
	xw.printf("    </FieldData>\n")
}

func (xw *xmlWriter) cellData(arrays []Array) {
	if len(arrays) == 0 {
		xw.printf("      <CellData>\n      </CellData>\n")
		return
	}
	xw.printf("      <CellData Scalars=%s>\n", attr(arrays[0].Name))
	for _, a := range arrays {
		xw.dataArray(a, 1, "        ")
	}
	xw.printf("      </CellData>\n")
}

func (xw *xmlWriter) dataArray(a Array, components int, indent string) {
	typ := "Float64"
	if a.IsInt() {
		typ = "Int64"
	}
	xw.printf("%s<DataArray type=%q Name=%s", indent, typ, attr(a.Name))
	if components > 1 {
		xw.printf(" NumberOfComponents=\"%d\"", components)
	}
	xw.printf(" NumberOfTuples=\"%d\"", a.Len()/components)

	if xw.enc.Payload == ASCII {
		xw.printf(" format=\"ascii\">\n%s  ", indent)
		xw.asciiValues(a)
		xw.printf("\n%s</DataArray>\n", indent)
		return
	}

	text, err := encodeBinary(rawBytes(a, xw.enc.ByteOrder), xw.enc)
	if err != nil && xw.err == nil {
		xw.err = fmt.Errorf("array %q: %w", a.Name, err)
	}
	xw.printf(" format=\"binary\">\n%s  %s\n%s</DataArray>\n", indent, text, indent)
}

// typesArray writes the UInt8 cell type array; every cell is a hexahedron.
func (xw *xmlWriter) typesArray(n int, indent string) {
	xw.printf("%s<DataArray type=\"UInt8\" Name=\"types\" NumberOfTuples=\"%d\"", indent, n)
	if xw.enc.Payload == ASCII {
		xw.printf(" format=\"ascii\">\n%s  ", indent)
		if n > 0 {
			xw.printf("%s", strings.TrimSuffix(strings.Repeat("12 ", n), " "))
		}
		xw.printf("\n%s</DataArray>\n", indent)
		return
	}

	data := make([]byte, n)
	for i := range data {
		data[i] = hexahedron
	}
	text, err := encodeBinary(data, xw.enc)
	if err != nil && xw.err == nil {
		xw.err = fmt.Errorf("array \"types\": %w", err)
	}
	xw.printf(" format=\"binary\">\n%s  %s\n%s</DataArray>\n", indent, text, indent)
}

func (xw *xmlWriter) asciiValues(a Array) {
	for i := 0; i < a.Len() && xw.err == nil; i++ {
		if i > 0 {
			_, xw.err = xw.w.WriteString(" ")
		}
		if a.IsInt() {
			_, xw.err = xw.w.WriteString(strconv.FormatInt(a.Int64[i], 10))
		} else {
			_, xw.err = xw.w.WriteString(strconv.FormatFloat(a.Float64[i], 'g', -1, 64))
		}
	}
}

// attr returns s quoted and escaped for use as an XML attribute value.
func attr(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	_ = xml.EscapeText(&b, []byte(s))
	b.WriteByte('"')
	return b.String()
}
