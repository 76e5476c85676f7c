package meshio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/klauspost/compress/gzip"
	"github.com/ulikunitz/xz"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
)

// Codec is a document encoding.
type Codec int

const (
	JSON Codec = iota
	YAML
	TOML
)

// String returns the lowercase codec name.
func (c Codec) String() string {
	switch c {
	case JSON:
		return "json"
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	default:
		return fmt.Sprintf("Codec(%d)", int(c))
	}
}

// CodecFor picks the codec from the file extension, ignoring a trailing
// compression extension.
func CodecFor(path string) (Codec, error) {
	name := strings.ToLower(filepath.Base(path))
	name = strings.TrimSuffix(strings.TrimSuffix(name, ".gz"), ".xz")
	switch filepath.Ext(name) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return 0, errors.New(errors.ErrCodeUnsupported,
			"cannot infer document format of %s (use .json, .yaml, .yml or .toml)", path)
	}
}

type document struct {
	Meshes []meshDoc `json:"meshes" yaml:"meshes" toml:"meshes"`
}

type meshDoc struct {
	ID       uint32     `json:"id" yaml:"id" toml:"id"`
	Geometry string     `json:"geometry" yaml:"geometry" toml:"geometry"`
	Format   string     `json:"format" yaml:"format" toml:"format"`
	Origin   []float64  `json:"origin" yaml:"origin" toml:"origin"`
	I        []float64  `json:"i" yaml:"i" toml:"i"`
	J        []float64  `json:"j" yaml:"j" toml:"j"`
	K        []float64  `json:"k" yaml:"k" toml:"k"`
	Energy   axisDoc    `json:"energy" yaml:"energy" toml:"energy"`
	Time     axisDoc    `json:"time" yaml:"time" toml:"time"`
	Groups   []groupDoc `json:"groups" yaml:"groups" toml:"groups"`
	CUV      *cuvDoc    `json:"cuv" yaml:"cuv" toml:"cuv"`
}

type axisDoc struct {
	Bounds []float64 `json:"bounds" yaml:"bounds" toml:"bounds"`
	Total  bool      `json:"total" yaml:"total" toml:"total"`
}

type groupDoc struct {
	Energy int       `json:"energy" yaml:"energy" toml:"energy"`
	Time   int       `json:"time" yaml:"time" toml:"time"`
	Values []float64 `json:"values" yaml:"values" toml:"values"`
	Errors []float64 `json:"errors" yaml:"errors" toml:"errors"`
}

type cuvDoc struct {
	Voxel    []int     `json:"voxel" yaml:"voxel" toml:"voxel"`
	Cell     []int     `json:"cell" yaml:"cell" toml:"cell"`
	Fraction []float64 `json:"fraction" yaml:"fraction" toml:"fraction"`
}

// Read decodes every mesh in the document read from r. Each mesh is
// validated. Read does not close r.
func Read(r io.Reader, codec Codec) ([]*mesh.Mesh, error) {
	var doc document
	if err := decode(r, codec, &doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", codec)
	}
	if len(doc.Meshes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document contains no meshes")
	}

	out := make([]*mesh.Mesh, 0, len(doc.Meshes))
	seen := make(map[uint32]bool, len(doc.Meshes))
	for _, md := range doc.Meshes {
		if seen[md.ID] {
			return nil, errors.New(errors.ErrCodeInvalidInput, "duplicate mesh id %d", md.ID)
		}
		seen[md.ID] = true

		m, err := md.toMesh()
		if err != nil {
			return nil, err
		}
		if err := m.Validate(); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// List reads every mesh in the file at path.
func List(path string) ([]*mesh.Mesh, error) {
	codec, err := CodecFor(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	rc, err := decompress(path, f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer rc.Close()

	meshes, err := Read(rc, codec)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return meshes, nil
}

// ReadTarget returns the mesh with the given tally id from the file at path.
func ReadTarget(path string, id uint32) (*mesh.Mesh, error) {
	meshes, err := List(path)
	if err != nil {
		return nil, err
	}
	ids := make([]uint32, len(meshes))
	for i, m := range meshes {
		if m.ID == id {
			return m, nil
		}
		ids[i] = m.ID
	}
	slices.Sort(ids)
	return nil, errors.New(errors.ErrCodeNotFound, "mesh %d not found in %s (available: %v)", id, path, ids)
}

func decode(r io.Reader, codec Codec, doc *document) error {
	switch codec {
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		return dec.Decode(doc)
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		return dec.Decode(doc)
	case TOML:
		md, err := toml.NewDecoder(r).Decode(doc)
		if err != nil {
			return err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("unknown key %q", undecoded[0].String())
		}
		return nil
	default:
		return fmt.Errorf("unknown codec %d", codec)
	}
}

// decompress wraps r in the decompressor chosen by the suffix of path.
// Closing the result does not close r.
func decompress(path string, r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".gz"):
		return gzip.NewReader(br)
	case strings.HasSuffix(strings.ToLower(path), ".xz"):
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(xr), nil
	default:
		return io.NopCloser(br), nil
	}
}

func (md meshDoc) toMesh() (*mesh.Mesh, error) {
	geom, err := mesh.ParseGeometry(md.Geometry)
	if err != nil {
		return nil, fmt.Errorf("mesh %d: %w", md.ID, err)
	}
	format, err := mesh.ParseFormat(md.Format)
	if err != nil {
		return nil, fmt.Errorf("mesh %d: %w", md.ID, err)
	}

	var origin r3.Vec
	switch len(md.Origin) {
	case 0:
	case 3:
		origin = r3.Vec{X: md.Origin[0], Y: md.Origin[1], Z: md.Origin[2]}
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "mesh %d: origin needs 3 coordinates, got %d", md.ID, len(md.Origin))
	}

	m := &mesh.Mesh{
		ID:       md.ID,
		Geometry: geom,
		Format:   format,
		Origin:   origin,
		I:        md.I,
		J:        md.J,
		K:        md.K,
		Energy:   mesh.GroupAxis{Bounds: md.Energy.Bounds, Total: md.Energy.Total},
		Time:     mesh.GroupAxis{Bounds: md.Time.Bounds, Total: md.Time.Total},
		Groups:   make([]mesh.Group, len(md.Groups)),
	}
	for i, g := range md.Groups {
		m.Groups[i] = mesh.Group{Energy: g.Energy, Time: g.Time, Values: g.Values, Errors: g.Errors}
	}
	if md.CUV != nil {
		m.CUV = &mesh.CellUnderVoxel{Voxel: md.CUV.Voxel, Cell: md.CUV.Cell, Fraction: md.CUV.Fraction}
	}
	return m, nil
}
