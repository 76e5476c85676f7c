package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mesh2vtk/pkg/dataset"
	"github.com/matzehuels/mesh2vtk/pkg/dispatch"
	"github.com/matzehuels/mesh2vtk/pkg/geometry"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
	"github.com/matzehuels/mesh2vtk/pkg/observability"
	"github.com/matzehuels/mesh2vtk/pkg/selector"
)

// minClosedBins is the fewest angular sub-bins around a full revolution whose
// hexahedra have non-zero volume. One bin collapses onto a line and two bins
// collapse onto a plane.
const minClosedBins = 3

// Runner encapsulates pipeline execution.
//
// The Runner is stateless except for the writer and logger; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different meshes and options as long as the writer is safe for concurrent
// use.
type Runner struct {
	Writer dispatch.Writer
	Logger *log.Logger
}

// NewRunner creates a runner writing through w.
// If w is nil, frames are written to the local filesystem.
func NewRunner(w dispatch.Writer, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Writer: w,
		Logger: logger,
	}
}

// Execute runs the complete select → geometry → assemble → write pipeline.
func (r *Runner) Execute(ctx context.Context, m *mesh.Mesh, opts Options) (*Result, error) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	hooks := observability.Pipeline()

	// Output configuration is checked before any work so a bad format family
	// fails fast.
	d, err := dispatch.New(r.Writer, opts.DispatchOptions(), logger)
	if err != nil {
		return nil, err
	}
	if err := dispatch.CheckFormat(m); err != nil {
		return nil, err
	}

	result := &Result{Encoding: d.Encoding()}
	result.Stats.Voxels = m.VoxelCount()

	// Stage 1: Select
	start := time.Now()
	pairs, err := r.Select(m, opts)
	result.Stats.SelectTime = time.Since(start)
	hooks.OnSelectComplete(ctx, m.ID, len(pairs), result.Stats.SelectTime, err)
	if err != nil {
		return nil, err
	}
	result.Pairs = pairs
	logger.Info("Resolved groups",
		"mesh", m.ID,
		"pairs", len(pairs),
		"energy", m.Energy.String(),
		"time", m.Time.String())

	// Stage 2: Geometry
	start = time.Now()
	hooks.OnGeometryStart(ctx, m.ID, opts.Resolution)
	geom, err := r.BuildGeometry(m, opts)
	result.Stats.GeometryTime = time.Since(start)
	if err != nil {
		hooks.OnGeometryComplete(ctx, m.ID, 0, 0, result.Stats.GeometryTime, err)
		return nil, err
	}
	hooks.OnGeometryComplete(ctx, m.ID, geom.NumCells(), geom.NumPoints(), result.Stats.GeometryTime, nil)
	result.Stats.Cells = geom.NumCells()
	result.Stats.Points = geom.NumPoints()
	logger.Info("Built geometry",
		"kind", geom.Kind,
		"cells", geom.NumCells(),
		"points", geom.NumPoints(),
		"duration", result.Stats.GeometryTime)

	// Stage 3: Assemble
	start = time.Now()
	hooks.OnAssembleStart(ctx, m.ID, len(pairs))
	sets, err := r.Assemble(ctx, m, geom, pairs, opts)
	result.Stats.AssembleTime = time.Since(start)
	hooks.OnAssembleComplete(ctx, m.ID, result.Stats.AssembleTime, err)
	if err != nil {
		return nil, err
	}
	result.Stats.Datasets = len(sets)
	logger.Debug("Assembled datasets", "count", len(sets), "duration", result.Stats.AssembleTime)

	// Stage 4: Write
	start = time.Now()
	hooks.OnWriteStart(ctx, m.ID, d.Encoding().String())
	files, err := d.Dispatch(ctx, m, sets)
	result.Stats.WriteTime = time.Since(start)
	hooks.OnWriteComplete(ctx, m.ID, files, result.Stats.WriteTime, err)
	result.Files = files
	if err != nil {
		return result, err
	}
	logger.Info("Wrote datasets",
		"files", len(files),
		"encoding", d.Encoding(),
		"duration", result.Stats.WriteTime)

	return result, nil
}

// Select resolves the option filters against the group axes of m.
func (r *Runner) Select(m *mesh.Mesh, opts Options) ([]selector.Pair, error) {
	ef, tf := opts.Filters()
	pairs, err := selector.Resolve(m.Energy, m.Time, ef, tf)
	if err != nil {
		return nil, fmt.Errorf("mesh %d: %w", m.ID, err)
	}
	return pairs, nil
}

// BuildGeometry builds the output geometry of m.
func (r *Runner) BuildGeometry(m *mesh.Mesh, opts Options) (*geometry.Mesh, error) {
	if m.Geometry == mesh.Cylindrical && len(m.K) >= 2 {
		if !m.FullRevolution() {
			r.logger(opts).Warn("Theta boundaries do not span a full revolution; the wedge is left open",
				"mesh", m.ID, "from", m.K[0], "to", m.K[len(m.K)-1])
		} else if bins := (len(m.K) - 1) * opts.Resolution; bins < minClosedBins {
			r.logger(opts).Warn("Too few angular sub-bins to enclose any volume; raise the resolution",
				"mesh", m.ID, "bins", bins, "min_resolution", (minClosedBins+len(m.K)-2)/(len(m.K)-1))
		}
	}
	if m.Geometry == mesh.Rectangular && opts.Resolution > 1 {
		r.logger(opts).Debug("Resolution has no effect on rectangular meshes", "resolution", opts.Resolution)
	}
	return geometry.Build(m, opts.GeometryOptions())
}

// Assemble builds one dataset per pair on the shared geometry.
func (r *Runner) Assemble(ctx context.Context, m *mesh.Mesh, geom *geometry.Mesh, pairs []selector.Pair, opts Options) ([]*dataset.Dataset, error) {
	return dataset.Assemble(ctx, m, geom, pairs, dataset.Options{
		Scaler:        opts.Scaler(),
		ExcludeErrors: opts.ExcludeErrors,
		Workers:       opts.Workers,
	})
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
