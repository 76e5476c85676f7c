// Package meshio reads mesh tallies from structured documents.
//
// # Document Format
//
// A document holds a list of meshes under the "meshes" key. The same schema
// is accepted as JSON, YAML or TOML:
//
//	meshes:
//	  - id: 104
//	    geometry: rec          # rec|xyz or cyl|rzt
//	    format: COL            # COL, CF, IJ, IK, JK or CUV
//	    origin: [0, 0, 0]      # cylindrical meshes only
//	    i: [0, 1, 2]           # x or radius boundaries
//	    j: [0, 1]              # y or height boundaries
//	    k: [0, 1]              # z or angle boundaries (revolutions)
//	    energy: {bounds: [1, 20], total: true}
//	    time: {total: true}
//	    groups:
//	      - energy: 0
//	        time: 0
//	        values: [1.0, 2.0]
//	        errors: [0.1, 0.2]
//	    cuv:                   # CUV format only
//	      voxel: [0, 1]
//	      cell: [10, 11]
//	      fraction: [1, 1]
//
// Group values are listed in voxel order with the i index varying fastest.
// A mesh with a single energy or time bin declares an axis with no bounds and
// total set. The errors list may be omitted.
//
// # Reading
//
// [ReadTarget] opens a file, picks the codec from its extension and returns
// one validated mesh:
//
//	m, err := meshio.ReadTarget("run.yaml", 104)
//
// Files ending in .gz or .xz are decompressed first, so "run.json.gz" is a
// gzip-compressed JSON document. [List] returns every mesh of a file and
// [Read] decodes from any io.Reader.
package meshio
