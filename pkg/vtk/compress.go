package vtk

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"

	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz"
)

// vtkName returns the compressor attribute value of the VTKFile element.
func (c Compressor) vtkName() string {
	switch c {
	case LZMA:
		return "vtkLZMADataCompressor"
	case LZ4:
		return "vtkLZ4DataCompressor"
	case ZLib:
		return "vtkZLibDataCompressor"
	default:
		return ""
	}
}

// compress compresses one block.
func (c Compressor) compress(src []byte) ([]byte, error) {
	switch c {
	case ZLib:
		var buf bytes.Buffer
		w, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case LZ4:
		// With a destination of CompressBlockBound bytes every block is
		// stored compressed, even incompressible ones.
		dst := make([]byte, lz4.CompressBlockBound(len(src)))
		var lc lz4.Compressor
		n, err := lc.CompressBlock(src, dst)
		if err != nil {
			return nil, err
		}
		return dst[:n], nil

	case LZMA:
		var buf bytes.Buffer
		w, err := xz.NewWriter(&buf)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(src); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case NoCompression:
		return src, nil
	default:
		return nil, fmt.Errorf("unknown compressor %d", c)
	}
}

// rawBytes serializes an array in the given byte order: float64 as IEEE 754
// doubles, int64 as two's complement.
func rawBytes(a Array, order ByteOrder) []byte {
	bo := order.binary()
	if a.IsInt() {
		out := make([]byte, 8*len(a.Int64))
		for i, v := range a.Int64 {
			bo.PutUint64(out[8*i:], uint64(v))
		}
		return out
	}
	out := make([]byte, 8*len(a.Float64))
	for i, v := range a.Float64 {
		bo.PutUint64(out[8*i:], math.Float64bits(v))
	}
	return out
}

// encodeBinary returns the base64 text of a binary XML DataArray.
func encodeBinary(data []byte, enc Encoding) (string, error) {
	bo := enc.ByteOrder.binary()

	if !enc.Compressed() {
		buf := make([]byte, 8+len(data))
		bo.PutUint64(buf, uint64(len(data)))
		copy(buf[8:], data)
		return base64.StdEncoding.EncodeToString(buf), nil
	}

	nfull := len(data) / BlockSize
	last := len(data) % BlockSize
	nblocks := nfull
	if last > 0 {
		nblocks++
	}

	header := make([]byte, 8*(3+nblocks))
	bo.PutUint64(header[0:], uint64(nblocks))
	bo.PutUint64(header[8:], uint64(BlockSize))
	bo.PutUint64(header[16:], uint64(last))

	var body bytes.Buffer
	for b := 0; b < nblocks; b++ {
		lo := b * BlockSize
		hi := min(lo+BlockSize, len(data))
		block, err := enc.Compressor.compress(data[lo:hi])
		if err != nil {
			return "", fmt.Errorf("%s block %d: %w", enc.Compressor, b, err)
		}
		bo.PutUint64(header[8*(3+b):], uint64(len(block)))
		body.Write(block)
	}

	return base64.StdEncoding.EncodeToString(header) + base64.StdEncoding.EncodeToString(body.Bytes()), nil
}
