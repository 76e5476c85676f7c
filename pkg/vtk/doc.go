// Package vtk encodes mesh datasets as VTK files.
//
// # Containers
//
// Two containers are supported:
//
//   - Legacy (.vtk): RECTILINEAR_GRID or UNSTRUCTURED_GRID with CELL_DATA
//     scalars, written as ASCII or big-endian binary.
//   - XML (.vtr / .vtu): RectilinearGrid or UnstructuredGrid with inline
//     DataArrays, written as ASCII or base64 binary.
//
// # Binary XML Payloads
//
// Binary arrays carry a UInt64 header in the file's byte order. Without
// compression the header is the byte count and header plus data are base64
// encoded together. With compression the data is split into blocks of
// [BlockSize] bytes, each compressed independently, and the header
//
//	[nblocks, blocksize, lastblocksize, csize_1 ... csize_n]
//
// is base64 encoded separately from the concatenated compressed blocks.
// lastblocksize is zero when the last block is full.
//
// # Compressors
//
//   - zlib: vtkZLibDataCompressor
//   - lz4: vtkLZ4DataCompressor (raw LZ4 blocks)
//   - lzma: vtkLZMADataCompressor (xz streams)
//
// # Usage
//
//	enc := vtk.DefaultEncoding()
//	frame := vtk.Frame{
//	    Title:    "fmesh 104",
//	    Geometry: geom,
//	    CellData: []vtk.Array{vtk.Float64Array("value", values)},
//	}
//	if err := vtk.WriteFile("fmesh_104.vtu", frame, enc); err != nil {
//	    return err
//	}
package vtk
