package mesh

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
)

// Geometry is the closed set of supported mesh geometries.
type Geometry int

const (
	Rectangular Geometry = iota
	Cylindrical
)

// String returns the lowercase name of the geometry.
func (g Geometry) String() string {
	switch g {
	case Rectangular:
		return "rectangular"
	case Cylindrical:
		return "cylindrical"
	default:
		return fmt.Sprintf("Geometry(%d)", int(g))
	}
}

// ParseGeometry converts a name such as "rec", "xyz", "cyl" or "rzt" into a
// Geometry.
func ParseGeometry(s string) (Geometry, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rectangular", "rec", "xyz", "":
		return Rectangular, nil
	case "cylindrical", "cyl", "rzt":
		return Cylindrical, nil
	default:
		return 0, errors.New(errors.ErrCodeUnsupported, "unsupported geometry %q (must be rectangular or cylindrical)", s)
	}
}

// Format is the closed set of tally output modes a mesh may originate from.
type Format int

const (
	COL Format = iota
	CF
	IJ
	IK
	JK
	CUV
)

var formatNames = [...]string{"COL", "CF", "IJ", "IK", "JK", "CUV"}

// String returns the upper-case MCNP name of the format.
func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat converts a case-insensitive format name into a Format.
// An empty string selects COL.
func ParseFormat(s string) (Format, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return COL, nil
	}
	for i, n := range formatNames {
		if n == name {
			return Format(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeUnsupported, "unsupported format %q (must be one of %s)", s, strings.Join(formatNames[:], ", "))
}

// Mesh is a parsed mesh tally. It is read-only once validated; nothing in the
// conversion pipeline mutates it.
type Mesh struct {
	ID       uint32
	Geometry Geometry
	Format   Format

	// Origin translates cylindrical coordinates into Cartesian space.
	// Rectangular boundaries are absolute and ignore it.
	Origin r3.Vec

	// I, J and K are the bin boundaries of the three axes: x, y, z for
	// rectangular meshes and radius, height, angle (revolutions) for
	// cylindrical ones.
	I, J, K []float64

	Energy GroupAxis
	Time   GroupAxis

	Groups []Group

	// CUV holds cell-under-voxel records for CUV-format tallies.
	CUV *CellUnderVoxel
}

// Group holds the results of one (energy, time) bin.
type Group struct {
	Energy int
	Time   int

	Values []float64
	// Errors are relative (fractional) uncertainties; nil when the source
	// carried none.
	Errors []float64
}

// CellUnderVoxel records how geometry cells contribute to each voxel. The
// records are passed through to the output untouched.
type CellUnderVoxel struct {
	Voxel    []int
	Cell     []int
	Fraction []float64
}

// Len returns the number of cell-under-voxel records.
func (c *CellUnderVoxel) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Voxel)
}

// Shape returns the number of voxels along each axis.
func (m *Mesh) Shape() (ni, nj, nk int) {
	return bins(m.I), bins(m.J), bins(m.K)
}

// VoxelCount returns the total number of voxels in the grid.
func (m *Mesh) VoxelCount() int {
	ni, nj, nk := m.Shape()
	return ni * nj * nk
}

// VoxelIndex returns the flat index of voxel (i, j, k).
func (m *Mesh) VoxelIndex(i, j, k int) int {
	ni, nj, _ := m.Shape()
	return (k*nj+j)*ni + i
}

// Group returns the group for the given energy and time indices.
func (m *Mesh) Group(energy, time int) (*Group, bool) {
	for i := range m.Groups {
		if m.Groups[i].Energy == energy && m.Groups[i].Time == time {
			return &m.Groups[i], true
		}
	}
	return nil, false
}

// HasErrors reports whether any group carries an error array.
func (m *Mesh) HasErrors() bool {
	for _, g := range m.Groups {
		if g.Errors != nil {
			return true
		}
	}
	return false
}

// FullRevolution reports whether the angular boundaries of a cylindrical mesh
// span exactly one turn.
func (m *Mesh) FullRevolution() bool {
	if m.Geometry != Cylindrical || len(m.K) < 2 {
		return false
	}
	span := m.K[len(m.K)-1] - m.K[0]
	return math.Abs(span-1) <= 1e-9
}

// Validate checks the structural invariants of the mesh: strictly increasing
// boundaries, valid group axes, in-range group indices, no duplicate groups
// and array lengths that match the voxel order.
func (m *Mesh) Validate() error {
	for _, ax := range []struct {
		name   string
		bounds []float64
	}{{"i", m.I}, {"j", m.J}, {"k", m.K}} {
		if err := checkBoundaries(ax.name, ax.bounds); err != nil {
			return err
		}
	}

	if m.Geometry == Cylindrical {
		if m.K[0] < 0 || m.K[len(m.K)-1]-m.K[0] > 1+1e-9 {
			return errors.New(errors.ErrCodeInvalidInput,
				"mesh %d: theta boundaries must lie within one revolution, got [%g, %g]",
				m.ID, m.K[0], m.K[len(m.K)-1])
		}
	}

	if err := m.Energy.validate("energy"); err != nil {
		return err
	}
	if err := m.Time.validate("time"); err != nil {
		return err
	}

	if m.Format == CUV && m.CUV.Len() == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "mesh %d: CUV format requires cell-under-voxel records", m.ID)
	}
	if c := m.CUV; c != nil && (len(c.Cell) != len(c.Voxel) || len(c.Fraction) != len(c.Voxel)) {
		return errors.New(errors.ErrCodeInvalidInput, "mesh %d: cell-under-voxel arrays differ in length", m.ID)
	}

	n := m.VoxelCount()
	seen := make(map[[2]int]bool, len(m.Groups))
	for _, g := range m.Groups {
		key := [2]int{g.Energy, g.Time}
		if seen[key] {
			return errors.New(errors.ErrCodeInvalidInput, "mesh %d: duplicate group (energy %d, time %d)", m.ID, g.Energy, g.Time)
		}
		seen[key] = true

		if g.Energy < 0 || g.Energy >= m.Energy.Len() {
			return errors.New(errors.ErrCodeInvalidInput, "mesh %d: group energy index %d outside [0, %d]", m.ID, g.Energy, m.Energy.Len()-1)
		}
		if g.Time < 0 || g.Time >= m.Time.Len() {
			return errors.New(errors.ErrCodeInvalidInput, "mesh %d: group time index %d outside [0, %d]", m.ID, g.Time, m.Time.Len()-1)
		}
		if len(g.Values) != n {
			return errors.New(errors.ErrCodeInvalidInput,
				"mesh %d: group (energy %d, time %d) has %d values, grid has %d voxels",
				m.ID, g.Energy, g.Time, len(g.Values), n)
		}
		if g.Errors != nil && len(g.Errors) != n {
			return errors.New(errors.ErrCodeInvalidInput,
				"mesh %d: group (energy %d, time %d) has %d errors, grid has %d voxels",
				m.ID, g.Energy, g.Time, len(g.Errors), n)
		}
	}
	return nil
}

// String returns a short multi-line summary of the mesh.
func (m *Mesh) String() string {
	ni, nj, nk := m.Shape()
	var b strings.Builder
	fmt.Fprintf(&b, "mesh %d (%s, %s)\n", m.ID, m.Geometry, m.Format)
	fmt.Fprintf(&b, "  voxels: %d x %d x %d = %d\n", ni, nj, nk, m.VoxelCount())
	fmt.Fprintf(&b, "  energy groups: %s\n", m.Energy)
	fmt.Fprintf(&b, "  time groups: %s\n", m.Time)
	fmt.Fprintf(&b, "  results: %d groups", len(m.Groups))
	return b.String()
}

func bins(bounds []float64) int {
	if len(bounds) < 2 {
		return 0
	}
	return len(bounds) - 1
}

func checkBoundaries(axis string, bounds []float64) error {
	if len(bounds) < 2 {
		return errors.New(errors.ErrCodeInvalidInput, "axis %s needs at least two boundaries, got %d", axis, len(bounds))
	}
	for i, b := range bounds {
		if math.IsNaN(b) || math.IsInf(b, 0) {
			return errors.New(errors.ErrCodeInvalidInput, "axis %s boundary %d is not finite", axis, i)
		}
		if i > 0 && b <= bounds[i-1] {
			return errors.New(errors.ErrCodeInvalidInput,
				"axis %s boundaries must be strictly increasing (%g follows %g)", axis, b, bounds[i-1])
		}
	}
	return nil
}
