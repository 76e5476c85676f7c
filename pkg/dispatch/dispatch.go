// Package dispatch turns assembled datasets into files.
//
// The dispatcher owns three decisions: which [vtk.Encoding] the requested
// format maps to, what each file is called, and which arrays go into each
// frame. Writing itself is delegated to a [Writer] so callers can capture
// frames in memory or send them somewhere other than the local filesystem.
//
// # Naming
//
// Files are named <dir>/<base>_<id><suffix>.<ext>, where base is the stem of
// the requested output name and id is the tally number. The suffix depends
// on which group axes vary across the selection:
//
//	single pair          fmesh_104.vtr
//	energy varies        fmesh_104_e0.vtr, fmesh_104_e1.vtr
//	time varies          fmesh_104_t0.vtr, fmesh_104_ttotal.vtr
//	both vary            fmesh_104_e0_t0.vtr, ...
//
// In combine mode all pairs share one file and the suffix moves into the
// array names instead ("value_e0", "error_e0", ...).
package dispatch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mesh2vtk/pkg/dataset"
	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
	"github.com/matzehuels/mesh2vtk/pkg/selector"
	"github.com/matzehuels/mesh2vtk/pkg/vtk"
)

// DefaultOutput is the output name used when none is given.
const DefaultOutput = "fmesh"

// Writer persists one frame.
type Writer interface {
	Write(path string, frame vtk.Frame, enc vtk.Encoding) error
}

// Options describes the requested output.
type Options struct {
	// Output is the requested output name. Only its directory and stem are
	// used; any extension is replaced.
	Output string

	// Format is one of "xml", "legacy-ascii" or "legacy-binary".
	Format string
	// ASCII selects inline ASCII arrays for XML output.
	ASCII bool
	// ByteOrder is "big-endian" or "little-endian".
	ByteOrder string
	// Compressor is "lzma", "lz4", "zlib" or "none". Only XML binary output
	// is compressed.
	Compressor string

	// Combine writes all selected pairs into a single file.
	Combine bool
}

// Encoding maps the requested format onto a validated [vtk.Encoding].
func (o Options) Encoding() (vtk.Encoding, error) {
	container, payload, err := vtk.ParseFormat(o.Format)
	if err != nil {
		return vtk.Encoding{}, err
	}
	if o.ASCII {
		if container == vtk.Legacy {
			return vtk.Encoding{}, errors.New(errors.ErrCodeConfiguration,
				"--ascii applies to xml output; use the legacy-ascii format instead")
		}
		payload = vtk.ASCII
	}
	order, err := vtk.ParseByteOrder(o.ByteOrder)
	if err != nil {
		return vtk.Encoding{}, err
	}
	comp, err := vtk.ParseCompressor(o.Compressor)
	if err != nil {
		return vtk.Encoding{}, err
	}

	enc := vtk.Encoding{Container: container, Payload: payload, ByteOrder: order, Compressor: comp}
	if err := enc.Validate(); err != nil {
		return vtk.Encoding{}, err
	}
	return enc, nil
}

// Dispatcher names frames and hands them to a Writer.
type Dispatcher struct {
	writer  Writer
	enc     vtk.Encoding
	dir     string
	base    string
	combine bool
	logger  *log.Logger
}

// New validates opts and returns a dispatcher writing through w. A nil
// logger discards log output.
func New(w Writer, opts Options, logger *log.Logger) (*Dispatcher, error) {
	if w == nil {
		w = vtk.FileWriter{}
	}
	enc, err := opts.Encoding()
	if err != nil {
		return nil, err
	}
	dir, base, err := splitOutput(opts.Output)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Dispatcher{
		writer:  w,
		enc:     enc,
		dir:     dir,
		base:    base,
		combine: opts.Combine,
		logger:  logger,
	}, nil
}

// Encoding returns the resolved output encoding.
func (d *Dispatcher) Encoding() vtk.Encoding {
	return d.enc
}

// Dispatch writes the datasets of m and returns the written paths in order.
// The context is checked before each write; a cancelled batch stops without
// starting further files.
func (d *Dispatcher) Dispatch(ctx context.Context, m *mesh.Mesh, sets []*dataset.Dataset) ([]string, error) {
	if len(sets) == 0 {
		return nil, errors.New(errors.ErrCodeConsistency, "mesh %d: nothing to write", m.ID)
	}
	if err := CheckFormat(m); err != nil {
		return nil, err
	}

	ext := d.enc.Extension(sets[0].Geometry.Kind)
	pairs := make([]selector.Pair, len(sets))
	for i, s := range sets {
		pairs[i] = s.Pair
	}
	varyE, varyT := varies(pairs)

	if d.combine {
		path := FileName(d.dir, d.base, m.ID, "", ext)
		frame := d.combinedFrame(m, sets, varyE, varyT)
		if err := d.write(ctx, path, frame); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	paths := make([]string, 0, len(sets))
	for _, s := range sets {
		tag := Tag(m, s.Pair, varyE, varyT)
		suffix := ""
		if tag != "" {
			suffix = "_" + tag
		}
		path := FileName(d.dir, d.base, m.ID, suffix, ext)
		if err := d.write(ctx, path, d.frame(m, s)); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (d *Dispatcher) write(ctx context.Context, path string, frame vtk.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Debug("Writing dataset", "path", path, "cells", frame.Geometry.NumCells(), "encoding", d.enc)
	if err := d.writer.Write(path, frame, d.enc); err != nil {
		return errors.Wrap(errors.ErrCodeWriter, err, "write %s", path)
	}
	return nil
}

func (d *Dispatcher) frame(m *mesh.Mesh, s *dataset.Dataset) vtk.Frame {
	cell := []vtk.Array{vtk.Float64Array("value", s.Values)}
	if s.Errors != nil {
		cell = append(cell, vtk.Float64Array("error", s.Errors))
	}
	return vtk.Frame{
		Title:     fmt.Sprintf("mesh %d energy %s time %s", m.ID, s.EnergyLabel, s.TimeLabel),
		Geometry:  s.Geometry,
		CellData:  cell,
		FieldData: cuvArrays(s.CUV),
	}
}

func (d *Dispatcher) combinedFrame(m *mesh.Mesh, sets []*dataset.Dataset, varyE, varyT bool) vtk.Frame {
	var cell []vtk.Array
	for _, s := range sets {
		tag := Tag(m, s.Pair, varyE, varyT)
		cell = append(cell, vtk.Float64Array(arrayName("value", tag), s.Values))
		if s.Errors != nil {
			cell = append(cell, vtk.Float64Array(arrayName("error", tag), s.Errors))
		}
	}
	return vtk.Frame{
		Title:     fmt.Sprintf("mesh %d", m.ID),
		Geometry:  sets[0].Geometry,
		CellData:  cell,
		FieldData: cuvArrays(sets[0].CUV),
	}
}

// CheckFormat rejects meshes whose format family cannot be represented.
func CheckFormat(m *mesh.Mesh) error {
	switch m.Format {
	case mesh.COL, mesh.CF, mesh.IJ, mesh.IK, mesh.JK:
		return nil
	case mesh.CUV:
		if m.CUV.Len() == 0 {
			return errors.New(errors.ErrCodeUnsupported,
				"mesh %d: CUV output needs cell-under-voxel records", m.ID)
		}
		return nil
	default:
		return errors.New(errors.ErrCodeUnsupported, "mesh %d: unsupported format %s", m.ID, m.Format)
	}
}

// FileName builds <dir>/<base>_<id><suffix>.<ext>.
func FileName(dir, base string, id uint32, suffix, ext string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s.%s", base, id, suffix, ext))
}

// Tag returns the part of a name that distinguishes p within a selection, or
// "" when neither axis varies.
func Tag(m *mesh.Mesh, p selector.Pair, varyEnergy, varyTime bool) string {
	var parts []string
	if varyEnergy {
		parts = append(parts, "e"+groupIndex(m.Energy, p.Energy))
	}
	if varyTime {
		parts = append(parts, "t"+groupIndex(m.Time, p.Time))
	}
	return strings.Join(parts, "_")
}

func groupIndex(axis mesh.GroupAxis, idx int) string {
	if axis.IsTotal(idx) {
		return "total"
	}
	return strconv.Itoa(idx)
}

// varies reports whether more than one energy or time index is selected.
func varies(pairs []selector.Pair) (energy, time bool) {
	for _, p := range pairs[1:] {
		if p.Energy != pairs[0].Energy {
			energy = true
		}
		if p.Time != pairs[0].Time {
			time = true
		}
	}
	return energy, time
}

func arrayName(kind, tag string) string {
	if tag == "" {
		return kind
	}
	return kind + "_" + tag
}

func cuvArrays(c *mesh.CellUnderVoxel) []vtk.Array {
	if c.Len() == 0 {
		return nil
	}
	return []vtk.Array{
		vtk.Int64Array("cuv_voxel", c.Voxel),
		vtk.Int64Array("cuv_cell", c.Cell),
		vtk.Float64Array("cuv_fraction", c.Fraction),
	}
}

// splitOutput returns the directory and stem of an output name.
func splitOutput(output string) (dir, base string, err error) {
	if output == "" {
		output = DefaultOutput
	}
	if err := errors.ValidateOutputName(output); err != nil {
		return "", "", err
	}
	dir = filepath.Dir(output)
	base = filepath.Base(output)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = DefaultOutput
	}
	return dir, base, nil
}
