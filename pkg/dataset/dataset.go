// Package dataset combines built geometry with selected group results.
//
// One [Dataset] is assembled per selected (energy, time) pair. Every dataset
// references the same [geometry.Mesh]; only the per-cell attribute arrays
// differ. Values are scaled and then replicated per cell; relative errors are
// replicated unscaled.
package dataset

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/geometry"
	"github.com/matzehuels/mesh2vtk/pkg/mesh"
	"github.com/matzehuels/mesh2vtk/pkg/scaler"
	"github.com/matzehuels/mesh2vtk/pkg/selector"
)

// Dataset is one visualization dataset. It is immutable once assembled.
type Dataset struct {
	Geometry *geometry.Mesh
	Pair     selector.Pair

	// EnergyLabel and TimeLabel are the group bounds, or "total".
	EnergyLabel string
	TimeLabel   string

	// Values and Errors hold one entry per cell. Errors is nil when excluded
	// or absent from the source.
	Values []float64
	Errors []float64

	// CUV is the source cell-under-voxel metadata, passed through unchanged.
	CUV *mesh.CellUnderVoxel
}

// Options controls assembly.
type Options struct {
	Scaler        scaler.Scaler
	ExcludeErrors bool
	// Workers bounds the number of datasets assembled concurrently. Values
	// below 2 assemble sequentially.
	Workers int
}

// Assemble builds one dataset per pair, in pair order.
func Assemble(ctx context.Context, m *mesh.Mesh, geom *geometry.Mesh, pairs []selector.Pair, opts Options) ([]*Dataset, error) {
	if geom.Voxels != m.VoxelCount() {
		return nil, errors.New(errors.ErrCodeGeometry,
			"mesh %d: geometry covers %d voxels, mesh has %d", m.ID, geom.Voxels, m.VoxelCount())
	}

	out := make([]*Dataset, len(pairs))
	if opts.Workers < 2 {
		for i, p := range pairs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ds, err := assembleOne(m, geom, p, opts)
			if err != nil {
				return nil, err
			}
			out[i] = ds
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := assembleOne(m, geom, p, opts)
			if err != nil {
				return err
			}
			out[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func assembleOne(m *mesh.Mesh, geom *geometry.Mesh, p selector.Pair, opts Options) (*Dataset, error) {
	grp, ok := m.Group(p.Energy, p.Time)
	if !ok {
		return nil, errors.New(errors.ErrCodeConsistency,
			"mesh %d: no results for energy group %d, time group %d", m.ID, p.Energy, p.Time)
	}
	if len(grp.Values) != geom.Voxels {
		return nil, errors.New(errors.ErrCodeConsistency,
			"mesh %d: group (energy %d, time %d) has %d values for %d voxels",
			m.ID, p.Energy, p.Time, len(grp.Values), geom.Voxels)
	}

	ds := &Dataset{
		Geometry:    geom,
		Pair:        p,
		EnergyLabel: m.Energy.Label(p.Energy),
		TimeLabel:   m.Time.Label(p.Time),
		CUV:         m.CUV,
	}

	if opts.Scaler.IsIdentity() {
		ds.Values = geom.Replicate(grp.Values)
	} else {
		ds.Values = geom.Replicate(opts.Scaler.Apply(grp.Values))
	}

	if !opts.ExcludeErrors && grp.Errors != nil {
		if len(grp.Errors) != geom.Voxels {
			return nil, errors.New(errors.ErrCodeConsistency,
				"mesh %d: group (energy %d, time %d) has %d errors for %d voxels",
				m.ID, p.Energy, p.Time, len(grp.Errors), geom.Voxels)
		}
		ds.Errors = geom.Replicate(grp.Errors)
	}
	return ds, nil
}
