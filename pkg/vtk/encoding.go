package vtk

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/matzehuels/mesh2vtk/pkg/errors"
	"github.com/matzehuels/mesh2vtk/pkg/geometry"
)

// Container is the file container.
type Container int

const (
	XML Container = iota
	Legacy
)

// Payload is the encoding of array data inside the container.
type Payload int

const (
	Binary Payload = iota
	ASCII
)

// ByteOrder is the byte order of binary payloads.
type ByteOrder int

const (
	BigEndian ByteOrder = iota
	LittleEndian
)

// Compressor is the block compressor for binary XML payloads.
type Compressor int

const (
	LZMA Compressor = iota
	LZ4
	ZLib
	NoCompression
)

// BlockSize is the uncompressed size of a compressed block.
const BlockSize = 1 << 15

// Output format names accepted by ParseFormat.
const (
	FormatXML          = "xml"
	FormatLegacyASCII  = "legacy-ascii"
	FormatLegacyBinary = "legacy-binary"
)

// Encoding fully describes how a frame is written.
type Encoding struct {
	Container  Container
	Payload    Payload
	ByteOrder  ByteOrder
	Compressor Compressor
}

// DefaultEncoding returns binary XML, big-endian, LZMA compressed. Big-endian
// is the default because some readers (VisIt) only accept it.
func DefaultEncoding() Encoding {
	return Encoding{Container: XML, Payload: Binary, ByteOrder: BigEndian, Compressor: LZMA}
}

// ParseFormat maps an output format name onto container and payload.
func ParseFormat(s string) (Container, Payload, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case FormatXML, "":
		return XML, Binary, nil
	case FormatLegacyASCII:
		return Legacy, ASCII, nil
	case FormatLegacyBinary:
		return Legacy, Binary, nil
	default:
		return 0, 0, errors.New(errors.ErrCodeConfiguration,
			"invalid format: %q (must be one of: %s, %s, %s)", s, FormatXML, FormatLegacyASCII, FormatLegacyBinary)
	}
}

// ParseByteOrder maps a byte order name onto a ByteOrder.
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "big-endian", "big", "be", "":
		return BigEndian, nil
	case "little-endian", "little", "le":
		return LittleEndian, nil
	default:
		return 0, errors.New(errors.ErrCodeConfiguration,
			"invalid byte order: %q (must be big-endian or little-endian)", s)
	}
}

// ParseCompressor maps a compressor name onto a Compressor.
func ParseCompressor(s string) (Compressor, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "lzma", "":
		return LZMA, nil
	case "lz4":
		return LZ4, nil
	case "zlib":
		return ZLib, nil
	case "none":
		return NoCompression, nil
	default:
		return 0, errors.New(errors.ErrCodeConfiguration,
			"invalid compressor: %q (must be one of: lzma, lz4, zlib, none)", s)
	}
}

// String returns the CLI name of the byte order.
func (b ByteOrder) String() string {
	if b == LittleEndian {
		return "little-endian"
	}
	return "big-endian"
}

// String returns the CLI name of the compressor.
func (c Compressor) String() string {
	switch c {
	case LZMA:
		return "lzma"
	case LZ4:
		return "lz4"
	case ZLib:
		return "zlib"
	case NoCompression:
		return "none"
	default:
		return fmt.Sprintf("Compressor(%d)", int(c))
	}
}

// String returns the CLI format name of the encoding.
func (e Encoding) String() string {
	switch {
	case e.Container == XML && e.Payload == ASCII:
		return "xml (ascii)"
	case e.Container == XML:
		return FormatXML
	case e.Payload == ASCII:
		return FormatLegacyASCII
	default:
		return FormatLegacyBinary
	}
}

// Validate rejects encodings that cannot be written. Legacy binary files are
// big-endian by definition.
func (e Encoding) Validate() error {
	if e.Container != XML && e.Container != Legacy {
		return errors.New(errors.ErrCodeConfiguration, "unknown container %d", e.Container)
	}
	if e.Payload != Binary && e.Payload != ASCII {
		return errors.New(errors.ErrCodeConfiguration, "unknown payload %d", e.Payload)
	}
	if e.ByteOrder != BigEndian && e.ByteOrder != LittleEndian {
		return errors.New(errors.ErrCodeConfiguration, "unknown byte order %d", e.ByteOrder)
	}
	if e.Compressor < LZMA || e.Compressor > NoCompression {
		return errors.New(errors.ErrCodeConfiguration, "unknown compressor %d", e.Compressor)
	}
	if e.Container == Legacy && e.Payload == Binary && e.ByteOrder == LittleEndian {
		return errors.New(errors.ErrCodeConfiguration, "legacy binary files are always big-endian")
	}
	return nil
}

// Compressed reports whether binary arrays are block compressed.
func (e Encoding) Compressed() bool {
	return e.Container == XML && e.Payload == Binary && e.Compressor != NoCompression
}

// Extension returns the file extension for a geometry of the given kind.
func (e Encoding) Extension(kind geometry.Kind) string {
	if e.Container == Legacy {
		return "vtk"
	}
	if kind == geometry.Rectilinear {
		return "vtr"
	}
	return "vtu"
}

func (b ByteOrder) binary() binary.ByteOrder {
	if b == LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (b ByteOrder) xmlName() string {
	if b == LittleEndian {
		return "LittleEndian"
	}
	return "BigEndian"
}
