// Package pkg provides the core libraries for mesh2vtk.
//
// # Overview
//
// mesh2vtk turns mesh tally results (a 3-D grid of voxels with one value and
// one relative error per voxel, per energy and time group) into VTK datasets.
// The pkg directory is organized into three areas:
//
//  1. Domain model: [mesh] and the [meshio] document reader
//  2. Conversion stages: [selector], [scaler], [geometry], [dataset], [dispatch]
//  3. Output and orchestration: [vtk] encoders and the [pipeline] runner
//
// # Architecture
//
// The data flow of one conversion:
//
//	meshio document
//	         ↓
//	    [selector] (energy/time filters → group pairs)
//	         ↓
//	    [geometry] (rectilinear grid or hexahedral tessellation)
//	         ↓
//	    [dataset] (scaled values replicated onto cells)
//	         ↓
//	    [dispatch] → [vtk] (.vtr, .vtu or .vtk files)
//
// # Quick Start
//
//	m, err := meshio.ReadTarget("meshtal.json", 104)
//	if err != nil {
//	    return err
//	}
//	opts := pipeline.DefaultOptions()
//	opts.Energy = []string{"0", "total"}
//	result, err := pipeline.NewRunner(nil, logger).Execute(ctx, m, opts)
//
// Supporting packages: [errors] for coded errors, [observability] for
// pipeline hooks and [buildinfo] for version metadata.
package pkg
