package dispatch

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/mesh2vtk/pkg/dataset"
	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/geometry"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
	"github.com/matzehuels/mesh2vtk/pkg/selector"
	"github.com/matzehuels/mesh2vtk/pkg/vtk"
)

type recorded struct {
	path  string
	frame vtk.Frame
	enc   vtk.Encoding
}

// memWriter records frames instead of writing files.
type memWriter struct {
	frames []recorded
	err    error
}

func (w *memWriter) Write(path string, frame vtk.Frame, enc vtk.Encoding) error {
	if w.err != nil {
		return w.err
	}
	w.frames = append(w.frames, recorded{path, frame, enc})
	return nil
}

func testMesh() *mesh.Mesh {
	return &mesh.Mesh{
		ID:       104,
		Geometry: mesh.Rectangular,
		I:        []float64{0, 1, 2},
		J:        []float64{0, 1},
		K:        []float64{0, 1},
		Energy:   mesh.GroupAxis{Bounds: []float64{1, 20}, Total: true},
		Time:     mesh.GroupAxis{Bounds: []float64{1e10}, Total: true},
	}
}

func testSets(m *mesh.Mesh, pairs ...selector.Pair) []*dataset.Dataset {
	g, err := geometry.Build(m, geometry.Options{Resolution: 1})
	if err != nil {
		panic(err)
	}
	out := make([]*dataset.Dataset, len(pairs))
	for i, p := range pairs {
		out[i] = &dataset.Dataset{
			Geometry:    g,
			Pair:        p,
			EnergyLabel: m.Energy.Label(p.Energy),
			TimeLabel:   m.Time.Label(p.Time),
			Values:      []float64{float64(i), float64(i) + 0.5},
			Errors:      []float64{0.1, 0.2},
			CUV:         m.CUV,
		}
	}
	return out
}

func TestOptionsEncoding(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		want    vtk.Encoding
		wantErr bool
	}{
		{
			name: "defaults",
			opts: Options{},
			want: vtk.DefaultEncoding(),
		},
		{
			name: "xml ascii",
			opts: Options{Format: "xml", ASCII: true},
			want: vtk.Encoding{Container: vtk.XML, Payload: vtk.ASCII, ByteOrder: vtk.BigEndian, Compressor: vtk.LZMA},
		},
		{
			name: "xml little-endian lz4",
			opts: Options{ByteOrder: "little-endian", Compressor: "lz4"},
			want: vtk.Encoding{Container: vtk.XML, Payload: vtk.Binary, ByteOrder: vtk.LittleEndian, Compressor: vtk.LZ4},
		},
		{
			name: "legacy binary",
			opts: Options{Format: "legacy-binary"},
			want: vtk.Encoding{Container: vtk.Legacy, Payload: vtk.Binary, ByteOrder: vtk.BigEndian, Compressor: vtk.LZMA},
		},
		{
			name:    "legacy binary little-endian",
			opts:    Options{Format: "legacy-binary", ByteOrder: "little-endian"},
			wantErr: true,
		},
		{
			name:    "ascii with legacy",
			opts:    Options{Format: "legacy-binary", ASCII: true},
			wantErr: true,
		},
		{
			name:    "unknown compressor",
			opts:    Options{Compressor: "snappy"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.Encoding()
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeConfiguration, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitOutput(t *testing.T) {
	tests := []struct {
		output   string
		wantDir  string
		wantBase string
	}{
		{"", ".", "fmesh"},
		{"fmesh", ".", "fmesh"},
		{"results/run.vtk", "results", "run"},
		{"/tmp/out/my.mesh.vtr", "/tmp/out", "my.mesh"},
	}
	for _, tt := range tests {
		dir, base, err := splitOutput(tt.output)
		require.NoError(t, err, tt.output)
		assert.Equal(t, tt.wantDir, dir, tt.output)
		assert.Equal(t, tt.wantBase, base, tt.output)
	}

	_, _, err := splitOutput("out/")
	assert.Equal(t, errors.ErrCodeConfiguration, errors.GetCode(err))
}

func TestNaming(t *testing.T) {
	m := testMesh()
	tests := []struct {
		name  string
		pairs []selector.Pair
		want  []string
	}{
		{
			name:  "single pair",
			pairs: []selector.Pair{{Energy: 2, Time: 1}},
			want:  []string{"fmesh_104.vtr"},
		},
		{
			name:  "energy varies",
			pairs: []selector.Pair{{Energy: 0, Time: 1}, {Energy: 2, Time: 1}},
			want:  []string{"fmesh_104_e0.vtr", "fmesh_104_etotal.vtr"},
		},
		{
			name:  "time varies",
			pairs: []selector.Pair{{Energy: 1, Time: 0}, {Energy: 1, Time: 1}},
			want:  []string{"fmesh_104_t0.vtr", "fmesh_104_ttotal.vtr"},
		},
		{
			name:  "both vary",
			pairs: []selector.Pair{{Energy: 0, Time: 0}, {Energy: 0, Time: 1}, {Energy: 1, Time: 0}, {Energy: 1, Time: 1}},
			want:  []string{"fmesh_104_e0_t0.vtr", "fmesh_104_e0_ttotal.vtr", "fmesh_104_e1_t0.vtr", "fmesh_104_e1_ttotal.vtr"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &memWriter{}
			d, err := New(w, Options{}, nil)
			require.NoError(t, err)

			paths, err := d.Dispatch(context.Background(), m, testSets(m, tt.pairs...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, paths)
			require.Len(t, w.frames, len(tt.want))
			for i, f := range w.frames {
				assert.Equal(t, tt.want[i], f.path)
			}
		})
	}
}

func TestExtensionFollowsEncoding(t *testing.T) {
	m := testMesh()
	sets := testSets(m, selector.Pair{Energy: 0, Time: 0})

	for format, want := range map[string]string{
		"xml":           "out/run_104.vtr",
		"legacy-ascii":  "out/run_104.vtk",
		"legacy-binary": "out/run_104.vtk",
	} {
		d, err := New(&memWriter{}, Options{Output: "out/run.vtk", Format: format}, nil)
		require.NoError(t, err)
		paths, err := d.Dispatch(context.Background(), m, sets)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.FromSlash(want)}, paths, format)
	}

	cyl := &mesh.Mesh{
		ID: 7, Geometry: mesh.Cylindrical,
		I: []float64{0, 1}, J: []float64{0, 1}, K: []float64{0, 1},
		Energy: mesh.GroupAxis{Total: true}, Time: mesh.GroupAxis{Total: true},
	}
	d, err := New(&memWriter{}, Options{}, nil)
	require.NoError(t, err)
	paths, err := d.Dispatch(context.Background(), cyl, testSets(cyl, selector.Pair{}))
	require.NoError(t, err)
	assert.Equal(t, []string{"fmesh_7.vtu"}, paths)
}

func TestFrameContents(t *testing.T) {
	m := testMesh()
	w := &memWriter{}
	d, err := New(w, Options{Format: "legacy-ascii"}, nil)
	require.NoError(t, err)

	sets := testSets(m, selector.Pair{Energy: 2, Time: 1})
	sets[0].Errors = nil
	_, err = d.Dispatch(context.Background(), m, sets)
	require.NoError(t, err)

	require.Len(t, w.frames, 1)
	f := w.frames[0].frame
	assert.Equal(t, "mesh 104 energy total time total", f.Title)
	require.Len(t, f.CellData, 1)
	assert.Equal(t, "value", f.CellData[0].Name)
	assert.Empty(t, f.FieldData)
	assert.Equal(t, vtk.Legacy, w.frames[0].enc.Container)
}

func TestCombine(t *testing.T) {
	m := testMesh()
	w := &memWriter{}
	d, err := New(w, Options{Combine: true}, nil)
	require.NoError(t, err)

	sets := testSets(m, selector.Pair{Energy: 0, Time: 1}, selector.Pair{Energy: 1, Time: 1})
	paths, err := d.Dispatch(context.Background(), m, sets)
	require.NoError(t, err)
	assert.Equal(t, []string{"fmesh_104.vtr"}, paths)

	require.Len(t, w.frames, 1)
	var names []string
	for _, a := range w.frames[0].frame.CellData {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"value_e0", "error_e0", "value_e1", "error_e1"}, names)
}

func TestCUVPassthrough(t *testing.T) {
	m := testMesh()
	m.Format = mesh.CUV
	m.CUV = &mesh.CellUnderVoxel{
		Voxel:    []int{0, 0, 1},
		Cell:     []int{10, 11, 10},
		Fraction: []float64{0.5, 0.5, 1},
	}

	w := &memWriter{}
	d, err := New(w, Options{}, nil)
	require.NoError(t, err)
	_, err = d.Dispatch(context.Background(), m, testSets(m, selector.Pair{}))
	require.NoError(t, err)

	fd := w.frames[0].frame.FieldData
	require.Len(t, fd, 3)
	assert.Equal(t, "cuv_voxel", fd[0].Name)
	assert.Equal(t, []int64{10, 11, 10}, fd[1].Int64)
	assert.Equal(t, []float64{0.5, 0.5, 1}, fd[2].Float64)

	m.CUV = nil
	_, err = d.Dispatch(context.Background(), m, testSets(m, selector.Pair{}))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnsupported, errors.GetCode(err))
}

func TestWriterErrorCarriesPath(t *testing.T) {
	m := testMesh()
	w := &memWriter{err: fmt.Errorf("disk full")}
	d, err := New(w, Options{Output: "out/x"}, nil)
	require.NoError(t, err)

	_, err = d.Dispatch(context.Background(), m, testSets(m, selector.Pair{}))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeWriter, errors.GetCode(err))
	assert.Contains(t, err.Error(), filepath.FromSlash("out/x_104.vtr"))
	assert.Contains(t, err.Error(), "disk full")
}

func TestDispatchCancelled(t *testing.T) {
	m := testMesh()
	w := &memWriter{}
	d, err := New(w, Options{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Dispatch(ctx, m, testSets(m, selector.Pair{}, selector.Pair{Energy: 1}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, w.frames)
}

func TestDispatchToFiles(t *testing.T) {
	m := testMesh()
	dir := t.TempDir()
	d, err := New(nil, Options{Output: filepath.Join(dir, "fmesh"), Compressor: "zlib"}, nil)
	require.NoError(t, err)

	paths, err := d.Dispatch(context.Background(), m, testSets(m, selector.Pair{Energy: 0}, selector.Pair{Energy: 1}))
	require.NoError(t, err)
	for _, p := range paths {
		assert.FileExists(t, p)
	}
}
