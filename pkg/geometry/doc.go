// Package geometry builds the spatial representation of a mesh tally.
//
// # Rectangular Meshes
//
// A rectangular mesh maps directly onto a rectilinear grid: the three
// boundary sequences become the grid coordinates and every voxel is one cell.
// When an unstructured representation is required, [Build] emits one
// hexahedron per voxel over the Cartesian product of the boundaries instead.
//
// # Cylindrical Meshes
//
// VTK has no cylindrical cell, so each voxel (r, z, theta) becomes one or more
// hexahedra in Cartesian space:
//
//	x = r*cos(2*pi*theta)
//	y = r*sin(2*pi*theta)
//
// Each theta bin is split into Resolution equal angular sub-bins to reduce the
// faceting of coarse angular meshes. The sub-bins of a voxel are consecutive
// cells, so voxel v owns cells [v*R, v*R+R) and its value is replicated R
// times rather than interpolated.
//
// Cosines and sines are computed once per angular sub-boundary, and vertices
// are deduplicated by exact coordinate, so neighbouring cells reference the
// same vertex indices. A theta span of one full revolution closes the loop by
// reusing the first angular boundary; an open wedge does not.
//
// # Winding
//
// Cells follow the VTK_HEXAHEDRON convention: the four vertices of the lower
// face counter-clockwise when viewed from above, followed by the upper face
// in the same order.
package geometry
