// Package mesh defines the in-memory model of a parsed mesh tally.
//
// # Overview
//
// A [Mesh] is a voxel grid with three ordered bin-boundary sequences and a set
// of [Group] results. Rectangular meshes use x, y and z boundaries.
// Cylindrical meshes use radius, height and angle, where the angle is measured
// in revolutions (0.25 is a quarter turn).
//
// # Groups
//
// Energy and time bins are described by a [GroupAxis]: the upper bound of
// every bounded group plus an optional trailing Total group. Index
// len(Bounds) addresses Total. A tally with a single EMESH or TMESH bin is an
// axis with no bounds and Total set, so its only index (0) is Total.
//
// # Voxel Order
//
// Every value and error array in a [Group] is flat, one entry per voxel, with
// the first axis varying fastest:
//
//	v = (k*nJ + j)*nI + i
//
// This matches the cell order of a VTK rectilinear grid. The geometry builder
// emits cells in the same order and [Mesh.Validate] rejects any group whose
// array lengths disagree with the grid.
package mesh
