package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
)

// Kind is the representation of a built geometry.
type Kind int

const (
	// Rectilinear geometries carry axis coordinates only.
	Rectilinear Kind = iota
	// Unstructured geometries carry explicit vertices and hexahedra.
	Unstructured
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if k == Rectilinear {
		return "rectilinear"
	}
	return "unstructured"
}

// DefaultResolution performs no angular subdivision.
const DefaultResolution = 1

// Options controls geometry construction.
type Options struct {
	// Resolution is the number of angular sub-bins per theta bin. It must be
	// at least 1 and only affects cylindrical meshes.
	Resolution int
	// Unstructured forces hexahedral output for rectangular meshes.
	Unstructured bool
}

// Mesh is the built geometry. It is immutable after Build and may be shared
// between goroutines.
type Mesh struct {
	Kind Kind

	// X, Y and Z are the grid coordinates of a rectilinear geometry.
	X, Y, Z []float64

	// Points and Cells describe an unstructured geometry.
	Points []r3.Vec
	Cells  [][8]int

	// CellsPerVoxel is the number of consecutive cells generated for each
	// voxel.
	CellsPerVoxel int
	// Voxels is the number of source voxels.
	Voxels int
}

// NumPoints returns the vertex count.
func (g *Mesh) NumPoints() int {
	if g.Kind == Rectilinear {
		return len(g.X) * len(g.Y) * len(g.Z)
	}
	return len(g.Points)
}

// NumCells returns the cell count.
func (g *Mesh) NumCells() int {
	if g.Kind == Rectilinear {
		return (len(g.X) - 1) * (len(g.Y) - 1) * (len(g.Z) - 1)
	}
	return len(g.Cells)
}

// VoxelCells returns the half-open cell range generated for voxel v.
func (g *Mesh) VoxelCells(v int) (lo, hi int) {
	return v * g.CellsPerVoxel, (v + 1) * g.CellsPerVoxel
}

// Replicate expands a per-voxel array into a per-cell array by repeating each
// entry CellsPerVoxel times. A new slice is always returned.
func (g *Mesh) Replicate(perVoxel []float64) []float64 {
	n := g.CellsPerVoxel
	if n <= 1 {
		out := make([]float64, len(perVoxel))
		copy(out, perVoxel)
		return out
	}
	out := make([]float64, 0, len(perVoxel)*n)
	for _, v := range perVoxel {
		for range n {
			out = append(out, v)
		}
	}
	return out
}

// Build constructs the geometry of m.
func Build(m *mesh.Mesh, opts Options) (*Mesh, error) {
	if opts.Resolution < 1 {
		return nil, errors.New(errors.ErrCodeConfiguration, "resolution must be at least 1, got %d", opts.Resolution)
	}
	for _, b := range [][]float64{m.I, m.J, m.K} {
		if len(b) < 2 {
			return nil, errors.New(errors.ErrCodeGeometry, "mesh %d: every axis needs at least two boundaries", m.ID)
		}
	}

	var g *Mesh
	switch m.Geometry {
	case mesh.Rectangular:
		if opts.Unstructured {
			g = buildHexGrid(m)
		} else {
			g = buildRectilinear(m)
		}
	case mesh.Cylindrical:
		g = buildCylinder(m, opts.Resolution)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "mesh %d: unsupported geometry %s", m.ID, m.Geometry)
	}

	if want := g.Voxels * g.CellsPerVoxel; g.NumCells() != want {
		return nil, errors.New(errors.ErrCodeGeometry,
			"mesh %d: generated %d cells for %d voxels at %d cells per voxel",
			m.ID, g.NumCells(), g.Voxels, g.CellsPerVoxel)
	}
	return g, nil
}

func buildRectilinear(m *mesh.Mesh) *Mesh {
	return &Mesh{
		Kind:          Rectilinear,
		X:             clone(m.I),
		Y:             clone(m.J),
		Z:             clone(m.K),
		CellsPerVoxel: 1,
		Voxels:        m.VoxelCount(),
	}
}

// buildHexGrid tessellates a rectangular mesh into one hexahedron per voxel.
// Boundaries are strictly increasing, so the Cartesian product has no
// duplicate vertices and no lookup is needed.
func buildHexGrid(m *mesh.Mesh) *Mesh {
	nx, ny, nz := len(m.I), len(m.J), len(m.K)
	points := make([]r3.Vec, 0, nx*ny*nz)
	for _, z := range m.K {
		for _, y := range m.J {
			for _, x := range m.I {
				points = append(points, r3.Vec{X: x, Y: y, Z: z})
			}
		}
	}

	pid := func(i, j, k int) int { return (k*ny+j)*nx + i }
	cells := make([][8]int, 0, (nx-1)*(ny-1)*(nz-1))
	for k := 0; k < nz-1; k++ {
		for j := 0; j < ny-1; j++ {
			for i := 0; i < nx-1; i++ {
				cells = append(cells, [8]int{
					pid(i, j, k), pid(i+1, j, k), pid(i+1, j+1, k), pid(i, j+1, k),
					pid(i, j, k+1), pid(i+1, j, k+1), pid(i+1, j+1, k+1), pid(i, j+1, k+1),
				})
			}
		}
	}

	return &Mesh{
		Kind:          Unstructured,
		Points:        points,
		Cells:         cells,
		CellsPerVoxel: 1,
		Voxels:        m.VoxelCount(),
	}
}

// buildCylinder tessellates a cylindrical mesh. Axis I is the radius, J the
// height and K the angle in revolutions.
func buildCylinder(m *mesh.Mesh, res int) *Mesh {
	ni, nj, nk := m.Shape()
	cos, sin := angularTable(m.K, res, m.FullRevolution())

	vi := newVertexIndex((ni + 1) * (nj + 1) * len(cos))
	at := func(r, z, a int) int {
		radius := m.I[r]
		return vi.id(r3.Vec{
			X: m.Origin.X + radius*cos[a],
			Y: m.Origin.Y + radius*sin[a],
			Z: m.Origin.Z + m.J[z],
		})
	}

	cells := make([][8]int, 0, ni*nj*nk*res)
	for k := 0; k < nk; k++ {
		for j := 0; j < nj; j++ {
			for i := 0; i < ni; i++ {
				for s := 0; s < res; s++ {
					a0 := k*res + s
					a1 := a0 + 1
					cells = append(cells, [8]int{
						at(i, j, a0), at(i+1, j, a0), at(i+1, j, a1), at(i, j, a1),
						at(i, j+1, a0), at(i+1, j+1, a0), at(i+1, j+1, a1), at(i, j+1, a1),
					})
				}
			}
		}
	}

	return &Mesh{
		Kind:          Unstructured,
		Points:        vi.points,
		Cells:         cells,
		CellsPerVoxel: res,
		Voxels:        ni * nj * nk,
	}
}

// angularTable returns cos and sin of every angular sub-boundary. There are
// len(theta)-1 bins of res sub-bins each, so (len(theta)-1)*res+1 entries. The
// first sub-boundary of each bin is the bin boundary itself.
func angularTable(theta []float64, res int, closed bool) (cos, sin []float64) {
	nk := len(theta) - 1
	n := nk*res + 1
	cos = make([]float64, n)
	sin = make([]float64, n)

	for k := 0; k < nk; k++ {
		lo, width := theta[k], theta[k+1]-theta[k]
		for s := 0; s < res; s++ {
			t := lo
			if s > 0 {
				t = lo + width*float64(s)/float64(res)
			}
			a := k*res + s
			sin[a], cos[a] = math.Sincos(2 * math.Pi * t)
		}
	}

	if closed {
		cos[n-1], sin[n-1] = cos[0], sin[0]
	} else {
		sin[n-1], cos[n-1] = math.Sincos(2 * math.Pi * theta[nk])
	}
	return cos, sin
}

// vertexIndex deduplicates vertices by exact coordinate. Go map keys compare
// floats with ==, so +0 and -0 share an entry.
type vertexIndex struct {
	ids    map[r3.Vec]int
	points []r3.Vec
}

func newVertexIndex(capacity int) *vertexIndex {
	return &vertexIndex{
		ids:    make(map[r3.Vec]int, capacity),
		points: make([]r3.Vec, 0, capacity),
	}
}

func (v *vertexIndex) id(p r3.Vec) int {
	if id, ok := v.ids[p]; ok {
		return id
	}
	id := len(v.points)
	v.ids[p] = id
	v.points = append(v.points, p)
	return id
}

func clone(s []float64) []float64 {
	out := make([]float64, len(s))
	copy(out, s)
	return out
}
