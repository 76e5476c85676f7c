package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
)

func rectMesh() *mesh.Mesh {
	return &mesh.Mesh{
		Geometry: mesh.Rectangular,
		I:        []float64{-1, 0, 1, 2},
		J:        []float64{0, 5},
		K:        []float64{0, 1, 3},
	}
}

func cylMesh(r, z, theta []float64) *mesh.Mesh {
	return &mesh.Mesh{
		Geometry: mesh.Cylindrical,
		I:        r,
		J:        z,
		K:        theta,
	}
}

func TestRectilinearCounts(t *testing.T) {
	m := rectMesh()
	for _, res := range []int{1, 2, 7} {
		g, err := Build(m, Options{Resolution: res})
		require.NoError(t, err)
		assert.Equal(t, Rectilinear, g.Kind)
		assert.Equal(t, 4*2*3, g.NumPoints(), "resolution %d", res)
		assert.Equal(t, 3*1*2, g.NumCells(), "resolution %d", res)
		assert.Equal(t, 1, g.CellsPerVoxel)
		assert.Equal(t, m.I, g.X)
	}
}

func TestRectangularUnstructured(t *testing.T) {
	m := rectMesh()
	g, err := Build(m, Options{Resolution: 3, Unstructured: true})
	require.NoError(t, err)

	assert.Equal(t, Unstructured, g.Kind)
	assert.Equal(t, 4*2*3, g.NumPoints())
	assert.Equal(t, 3*1*2, g.NumCells())
	assertValidCells(t, g)
	assertUniquePoints(t, g)

	// Cell order follows voxel order: the last voxel is (i=2, j=0, k=1).
	last := g.Cells[m.VoxelIndex(2, 0, 1)]
	assert.Equal(t, r3.Vec{X: 1, Y: 0, Z: 1}, g.Points[last[0]])
	assert.Equal(t, r3.Vec{X: 2, Y: 5, Z: 3}, g.Points[last[6]])
}

func TestCylinderScenario(t *testing.T) {
	// Four theta bins at resolution 3 give 12 angular cells per (r, z) ring.
	m := cylMesh([]float64{1, 2}, []float64{0, 1}, []float64{0, 0.25, 0.5, 0.75, 1})
	g, err := Build(m, Options{Resolution: 3})
	require.NoError(t, err)

	assert.Equal(t, 4, g.Voxels)
	assert.Equal(t, 12, g.NumCells())
	assert.Equal(t, 3, g.CellsPerVoxel)
	assert.Less(t, g.NumPoints(), 8*g.NumCells())
	// Closed ring: 2 radii x 2 heights x 12 angles.
	assert.Equal(t, 2*2*12, g.NumPoints())

	assertValidCells(t, g)
	assertUniquePoints(t, g)
}

func TestCylinderCellCountScalesWithResolution(t *testing.T) {
	m := cylMesh([]float64{0.5, 1, 2, 4}, []float64{-1, 0, 1}, []float64{0, 0.1, 0.6, 1})
	voxels := m.VoxelCount()
	for _, res := range []int{1, 2, 4, 9} {
		g, err := Build(m, Options{Resolution: res})
		require.NoError(t, err)
		assert.Equal(t, res*voxels, g.NumCells(), "resolution %d", res)
		assert.Equal(t, 4*3*3*res, g.NumPoints(), "resolution %d", res)
		assertValidCells(t, g)
		assertUniquePoints(t, g)
	}
}

func TestCylinderOpenWedge(t *testing.T) {
	m := cylMesh([]float64{1, 2}, []float64{0, 1}, []float64{0, 0.25, 0.5})
	g, err := Build(m, Options{Resolution: 2})
	require.NoError(t, err)

	// No closing edge: 2 bins x 2 sub-bins + 1 angles.
	assert.Equal(t, 2*2*5, g.NumPoints())
	assertUniquePoints(t, g)
}

func TestCylinderAxisDegenerate(t *testing.T) {
	m := cylMesh([]float64{0, 1, 2}, []float64{0, 1}, []float64{0, 0.5, 1})
	g, err := Build(m, Options{Resolution: 4})
	require.NoError(t, err)

	// The r = 0 ring collapses to one vertex per height.
	assert.Equal(t, 2*2*8+2, g.NumPoints())
	assertValidCells(t, g)
	assertUniquePoints(t, g)

	inner := g.Cells[0]
	assert.Equal(t, inner[0], inner[3], "inner face must be degenerate at the axis")
	assert.Equal(t, inner[4], inner[7])
}

func TestCylinderNegativeInnerRadius(t *testing.T) {
	m := cylMesh([]float64{-1, 1}, []float64{0, 1}, []float64{0, 0.5})
	g, err := Build(m, Options{Resolution: 2})
	require.NoError(t, err)
	assertValidCells(t, g)
	assertUniquePoints(t, g)
}

func TestCylinderResolutionOneMatchesDirectTessellation(t *testing.T) {
	m := cylMesh([]float64{0.5, 1, 3}, []float64{0, 2, 3}, []float64{0, 0.2, 0.45, 0.8, 1})
	m.Origin = r3.Vec{X: 10, Y: -4, Z: 1}
	g, err := Build(m, Options{Resolution: 1})
	require.NoError(t, err)

	ni, nj, nk := m.Shape()
	point := func(r, z, theta float64) r3.Vec {
		return r3.Vec{
			X: m.Origin.X + r*math.Cos(2*math.Pi*theta),
			Y: m.Origin.Y + r*math.Sin(2*math.Pi*theta),
			Z: m.Origin.Z + z,
		}
	}

	for k := 0; k < nk; k++ {
		for j := 0; j < nj; j++ {
			for i := 0; i < ni; i++ {
				want := [8]r3.Vec{
					point(m.I[i], m.J[j], m.K[k]), point(m.I[i+1], m.J[j], m.K[k]),
					point(m.I[i+1], m.J[j], m.K[k+1]), point(m.I[i], m.J[j], m.K[k+1]),
					point(m.I[i], m.J[j+1], m.K[k]), point(m.I[i+1], m.J[j+1], m.K[k]),
					point(m.I[i+1], m.J[j+1], m.K[k+1]), point(m.I[i], m.J[j+1], m.K[k+1]),
				}
				cell := g.Cells[m.VoxelIndex(i, j, k)]
				for c := range want {
					got := g.Points[cell[c]]
					assert.InDelta(t, want[c].X, got.X, 1e-12)
					assert.InDelta(t, want[c].Y, got.Y, 1e-12)
					assert.InDelta(t, want[c].Z, got.Z, 1e-12)
				}
			}
		}
	}
}

func TestCylinderWinding(t *testing.T) {
	m := cylMesh([]float64{0, 1, 2}, []float64{0, 1}, []float64{0, 0.25, 0.5, 0.75, 1})
	g, err := Build(m, Options{Resolution: 2})
	require.NoError(t, err)

	for c, cell := range g.Cells {
		bottom := quadArea(g.Points[cell[0]], g.Points[cell[1]], g.Points[cell[2]], g.Points[cell[3]])
		top := quadArea(g.Points[cell[4]], g.Points[cell[5]], g.Points[cell[6]], g.Points[cell[7]])
		assert.Greater(t, bottom, 0.0, "cell %d bottom face must be counter-clockwise", c)
		assert.Greater(t, top, 0.0, "cell %d top face must be counter-clockwise", c)
		assert.Greater(t, g.Points[cell[4]].Z, g.Points[cell[0]].Z)
	}
}

func TestReplicate(t *testing.T) {
	g := &Mesh{CellsPerVoxel: 3}
	assert.Equal(t, []float64{1, 1, 1, 2, 2, 2}, g.Replicate([]float64{1, 2}))

	lo, hi := g.VoxelCells(1)
	assert.Equal(t, 3, lo)
	assert.Equal(t, 6, hi)

	in := []float64{4, 5}
	one := &Mesh{CellsPerVoxel: 1}
	out := one.Replicate(in)
	out[0] = 0
	assert.Equal(t, 4.0, in[0], "Replicate must copy")
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(rectMesh(), Options{Resolution: 0})
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration), "got %v", err)

	m := rectMesh()
	m.K = []float64{0}
	_, err = Build(m, Options{Resolution: 1})
	assert.True(t, errors.Is(err, errors.ErrCodeGeometry), "got %v", err)

	m = rectMesh()
	m.Geometry = mesh.Geometry(7)
	_, err = Build(m, Options{Resolution: 1})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)
}

func assertValidCells(t *testing.T, g *Mesh) {
	t.Helper()
	n := len(g.Points)
	for c, cell := range g.Cells {
		for _, id := range cell {
			if id < 0 || id >= n {
				t.Fatalf("cell %d references vertex %d outside [0, %d)", c, id, n)
			}
		}
	}
}

func assertUniquePoints(t *testing.T, g *Mesh) {
	t.Helper()
	seen := make(map[r3.Vec]int, len(g.Points))
	for i, p := range g.Points {
		if j, ok := seen[p]; ok {
			t.Fatalf("vertices %d and %d share coordinates %v", j, i, p)
		}
		seen[p] = i
	}
}

// quadArea returns the signed shoelace area of a quad projected onto xy.
func quadArea(ps ...r3.Vec) float64 {
	var a float64
	for i := range ps {
		p, q := ps[i], ps[(i+1)%len(ps)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}
