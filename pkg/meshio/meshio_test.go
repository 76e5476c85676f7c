package meshio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
)

const jsonDoc = `{
  "meshes": [
    {
      "id": 104,
      "geometry": "rec",
      "format": "COL",
      "i": [0, 1, 2],
      "j": [0, 1],
      "k": [0, 1],
      "energy": {"bounds": [1, 20], "total": true},
      "time": {"total": true},
      "groups": [
        {"energy": 0, "time": 0, "values": [1, 2], "errors": [0.1, 0.2]},
        {"energy": 1, "time": 0, "values": [3, 4], "errors": [0.1, 0.2]},
        {"energy": 2, "time": 0, "values": [4, 6], "errors": [0.1, 0.2]}
      ]
    },
    {
      "id": 14,
      "geometry": "cyl",
      "format": "CUV",
      "origin": [1, 2, 3],
      "i": [0, 1],
      "j": [0, 5],
      "k": [0, 1],
      "energy": {"total": true},
      "time": {"total": true},
      "groups": [{"energy": 0, "time": 0, "values": [7]}],
      "cuv": {"voxel": [0, 0], "cell": [5, 6], "fraction": [0.25, 0.75]}
    }
  ]
}`

const yamlDoc = `
meshes:
  - id: 104
    geometry: xyz
    format: col
    i: [0, 1, 2]
    j: [0, 1]
    k: [0, 1]
    energy: {bounds: [1, 20], total: true}
    time: {total: true}
    groups:
      - {energy: 0, time: 0, values: [1, 2], errors: [0.1, 0.2]}
      - {energy: 1, time: 0, values: [3, 4], errors: [0.1, 0.2]}
      - {energy: 2, time: 0, values: [4, 6], errors: [0.1, 0.2]}
`

const tomlDoc = `
[[meshes]]
id = 104
geometry = "rec"
format = "COL"
i = [0.0, 1.0, 2.0]
j = [0.0, 1.0]
k = [0.0, 1.0]
energy = { bounds = [1.0, 20.0], total = true }
time = { total = true }

[[meshes.groups]]
energy = 0
time = 0
values = [1.0, 2.0]
errors = [0.1, 0.2]

[[meshes.groups]]
energy = 1
time = 0
values = [3.0, 4.0]
errors = [0.1, 0.2]

[[meshes.groups]]
energy = 2
time = 0
values = [4.0, 6.0]
errors = [0.1, 0.2]
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func assertMesh104(t *testing.T, m *mesh.Mesh) {
	t.Helper()
	assert.Equal(t, uint32(104), m.ID)
	assert.Equal(t, mesh.Rectangular, m.Geometry)
	assert.Equal(t, mesh.COL, m.Format)
	assert.Equal(t, []float64{0, 1, 2}, m.I)
	assert.Equal(t, 2, m.VoxelCount())
	assert.Equal(t, mesh.GroupAxis{Bounds: []float64{1, 20}, Total: true}, m.Energy)
	assert.Equal(t, 1, m.Time.Len())
	require.Len(t, m.Groups, 3)
	g, ok := m.Group(2, 0)
	require.True(t, ok)
	assert.Equal(t, []float64{4, 6}, g.Values)
	assert.Equal(t, []float64{0.1, 0.2}, g.Errors)
}

func TestReadTargetCodecs(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"run.json", jsonDoc},
		{"run.yaml", yamlDoc},
		{"run.yml", yamlDoc},
		{"run.toml", tomlDoc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ReadTarget(writeFile(t, tt.name, tt.content), 104)
			require.NoError(t, err)
			assertMesh104(t, m)
		})
	}
}

func TestReadCylindricalCUV(t *testing.T) {
	meshes, err := Read(strings.NewReader(jsonDoc), JSON)
	require.NoError(t, err)
	require.Len(t, meshes, 2)

	m := meshes[1]
	assert.Equal(t, mesh.Cylindrical, m.Geometry)
	assert.Equal(t, mesh.CUV, m.Format)
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: 3}, m.Origin)
	require.NotNil(t, m.CUV)
	assert.Equal(t, 2, m.CUV.Len())
	assert.Equal(t, []float64{0.25, 0.75}, m.CUV.Fraction)

	g, ok := m.Group(0, 0)
	require.True(t, ok)
	assert.Nil(t, g.Errors)
}

func TestReadTargetNotFound(t *testing.T) {
	_, err := ReadTarget(writeFile(t, "run.json", jsonDoc), 5)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeNotFound, errors.GetCode(err))
	assert.Contains(t, err.Error(), "[14 104]")
}

func TestCompressedDocuments(t *testing.T) {
	dir := t.TempDir()

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(yamlDoc))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	gzPath := filepath.Join(dir, "run.yaml.gz")
	require.NoError(t, os.WriteFile(gzPath, gz.Bytes(), 0o644))

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write([]byte(jsonDoc))
	require.NoError(t, err)
	require.NoError(t, xw.Close())
	xzPath := filepath.Join(dir, "run.json.xz")
	require.NoError(t, os.WriteFile(xzPath, xzBuf.Bytes(), 0o644))

	for _, path := range []string{gzPath, xzPath} {
		m, err := ReadTarget(path, 104)
		require.NoError(t, err, path)
		assertMesh104(t, m)
	}
}

func TestDecompressClose(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, err := gw.Write([]byte(yamlDoc))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	var xzBuf bytes.Buffer
	xw, err := xz.NewWriter(&xzBuf)
	require.NoError(t, err)
	_, err = xw.Write([]byte(yamlDoc))
	require.NoError(t, err)
	require.NoError(t, xw.Close())

	tests := []struct {
		path string
		data []byte
	}{
		{"run.yaml.gz", gz.Bytes()},
		{"run.yaml.xz", xzBuf.Bytes()},
		{"run.yaml", []byte(yamlDoc)},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rc, err := decompress(tt.path, bytes.NewReader(tt.data))
			require.NoError(t, err)
			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, yamlDoc, string(got))
			assert.NoError(t, rc.Close())
		})
	}

	_, err = decompress("run.yaml.gz", strings.NewReader("not gzip"))
	assert.Error(t, err)
}

func TestCodecFor(t *testing.T) {
	tests := []struct {
		path    string
		want    Codec
		wantErr bool
	}{
		{"a.json", JSON, false},
		{"dir/a.JSON", JSON, false},
		{"a.yml", YAML, false},
		{"a.yaml.gz", YAML, false},
		{"a.toml.xz", TOML, false},
		{"a.msht", 0, true},
		{"a.gz", 0, true},
	}
	for _, tt := range tests {
		got, err := CodecFor(tt.path)
		if tt.wantErr {
			assert.Equal(t, errors.ErrCodeUnsupported, errors.GetCode(err), tt.path)
			continue
		}
		require.NoError(t, err, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name    string
		codec   Codec
		content string
		want    errors.Code
	}{
		{
			name:    "malformed json",
			codec:   JSON,
			content: `{"meshes": [`,
			want:    errors.ErrCodeInvalidInput,
		},
		{
			name:    "unknown json field",
			codec:   JSON,
			content: `{"meshes": [{"id": 1, "colour": "red"}]}`,
			want:    errors.ErrCodeInvalidInput,
		},
		{
			name:    "unknown toml key",
			codec:   TOML,
			content: "[[meshes]]\nid = 1\nshape = 3\n",
			want:    errors.ErrCodeInvalidInput,
		},
		{
			name:    "empty document",
			codec:   YAML,
			content: "meshes: []\n",
			want:    errors.ErrCodeInvalidInput,
		},
		{
			name:    "duplicate id",
			codec:   YAML,
			content: yamlDoc + strings.TrimPrefix(yamlDoc, "\nmeshes:\n"),
			want:    errors.ErrCodeInvalidInput,
		},
		{
			name:    "bad geometry",
			codec:   YAML,
			content: strings.Replace(yamlDoc, "geometry: xyz", "geometry: sphere", 1),
			want:    errors.ErrCodeUnsupported,
		},
		{
			name:    "bad origin",
			codec:   YAML,
			content: strings.Replace(yamlDoc, "format: col", "format: col\n    origin: [1, 2]", 1),
			want:    errors.ErrCodeInvalidInput,
		},
		{
			name:    "value count mismatch",
			codec:   YAML,
			content: strings.Replace(yamlDoc, "values: [4, 6]", "values: [4]", 1),
			want:    errors.ErrCodeInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.content), tt.codec)
			require.Error(t, err)
			assert.Equal(t, tt.want, errors.GetCode(err))
		})
	}
}
