package vtk

import (
	"fmt"

	"github.com/matzehuels/mesh2vtk/pkg/geometry"
)

// hexahedron is the VTK cell type of every unstructured cell.
const hexahedron = 12

// Array is a named data array holding either float64 or int64 values.
type Array struct {
	Name    string
	Float64 []float64
	Int64   []int64
}

// Float64Array returns a float array.
func Float64Array(name string, values []float64) Array {
	return Array{Name: name, Float64: values}
}

// Int64Array returns an integer array from ints.
func Int64Array(name string, values []int) Array {
	out := make([]int64, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return Array{Name: name, Int64: out}
}

// Len returns the number of values.
func (a Array) Len() int {
	if a.Int64 != nil {
		return len(a.Int64)
	}
	return len(a.Float64)
}

// IsInt reports whether the array holds integers.
func (a Array) IsInt() bool {
	return a.Int64 != nil
}

// Frame is everything written to one file: a geometry, per-cell arrays and
// dataset-level field arrays of arbitrary length.
type Frame struct {
	Title     string
	Geometry  *geometry.Mesh
	CellData  []Array
	FieldData []Array
}

// Validate checks that every cell array has one value per cell.
func (f Frame) Validate() error {
	if f.Geometry == nil {
		return fmt.Errorf("frame has no geometry")
	}
	n := f.Geometry.NumCells()
	for _, a := range f.CellData {
		if a.Len() != n {
			return fmt.Errorf("cell array %q has %d values, geometry has %d cells", a.Name, a.Len(), n)
		}
	}
	return nil
}
