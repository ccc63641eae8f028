package pack

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// File format constants
const (
	// Magic identifies packed container files ("BPAK").
	Magic uint32 = 0x4B415042

	// Version is the current format version.
	Version uint16 = 1

	// DefaultChunkSize balances random-access granularity against
	// per-chunk compression overhead.
	DefaultChunkSize int64 = 4 * 1024 * 1024

	// chunkHeaderSize frames every chunk record: compression byte,
	// raw length, encoded length.
	chunkHeaderSize = 9

	footerSize = 20

	headerFixedSize = 22
)

var (
	// ErrBadMagic means the file is not a packed container.
	ErrBadMagic = errors.New("pack: invalid magic number")
	// ErrBadVersion means the container was written by an unsupported
	// format version.
	ErrBadVersion = errors.New("pack: unsupported version")
	// ErrCorrupt means framing or checksums do not add up.
	ErrCorrupt = errors.New("pack: corrupt container")
	// ErrNoMeta is returned by Meta when the container carries none.
	ErrNoMeta = errors.New("pack: no metadata")
)

type header struct {
	version     uint16
	compression Compression
	chunkSize   int64
	origSize    int64
	codecName   string
	meta        []byte
}

func (h *header) encode() ([]byte, error) {
	if len(h.codecName) > 0xFFFF {
		return nil, fmt.Errorf("pack: codec name too long: %d", len(h.codecName))
	}

	buf := make([]byte, headerFixedSize+len(h.codecName)+4+len(h.meta))
	offset := 0

	binary.LittleEndian.PutUint32(buf[offset:], Magic)
	offset += 4
	binary.LittleEndian.PutUint16(buf[offset:], h.version)
	offset += 2
	buf[offset] = byte(h.compression)
	offset += 2 // 1 compression byte + 1 reserved
	binary.LittleEndian.PutUint32(buf[offset:], uint32(h.chunkSize))
	offset += 4
	binary.LittleEndian.PutUint64(buf[offset:], uint64(h.origSize))
	offset += 8
	binary.LittleEndian.PutUint16(buf[offset:], uint16(len(h.codecName)))
	offset += 2
	offset += copy(buf[offset:], h.codecName)
	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(h.meta)))
	offset += 4
	copy(buf[offset:], h.meta)

	return buf, nil
}

func parseHeader(buf []byte) (header, error) {
	var h header

	if len(buf) < headerFixedSize {
		return h, fmt.Errorf("%w: header too small: %d bytes", ErrCorrupt, len(buf))
	}

	offset := 0

	magic := binary.LittleEndian.Uint32(buf[offset:])
	if magic != Magic {
		return h, fmt.Errorf("%w: 0x%08X (expected 0x%08X)", ErrBadMagic, magic, Magic)
	}
	offset += 4

	h.version = binary.LittleEndian.Uint16(buf[offset:])
	if h.version != Version {
		return h, fmt.Errorf("%w: %d (expected %d)", ErrBadVersion, h.version, Version)
	}
	offset += 2

	h.compression = Compression(buf[offset])
	offset += 2

	h.chunkSize = int64(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4

	h.origSize = int64(binary.LittleEndian.Uint64(buf[offset:]))
	offset += 8

	nameLen := int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2

	if offset+nameLen+4 > len(buf) {
		return h, fmt.Errorf("%w: codec name extends beyond header", ErrCorrupt)
	}

	h.codecName = string(buf[offset : offset+nameLen])
	offset += nameLen

	metaLen := int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4

	if offset+metaLen > len(buf) {
		return h, fmt.Errorf("%w: metadata extends beyond header", ErrCorrupt)
	}

	h.meta = buf[offset : offset+metaLen]

	if h.chunkSize <= 0 {
		return h, fmt.Errorf("%w: chunk size %d", ErrCorrupt, h.chunkSize)
	}

	if h.origSize < 0 {
		return h, fmt.Errorf("%w: payload size %d", ErrCorrupt, h.origSize)
	}

	return h, nil
}

type footer struct {
	tableOff int64
	nChunks  uint32
	tableCRC uint32
}

func (f *footer) encode() []byte {
	buf := make([]byte, footerSize)

	binary.LittleEndian.PutUint64(buf[0:], uint64(f.tableOff))
	binary.LittleEndian.PutUint32(buf[8:], f.nChunks)
	binary.LittleEndian.PutUint32(buf[12:], f.tableCRC)
	binary.LittleEndian.PutUint32(buf[16:], Magic)

	return buf
}

func parseFooter(buf []byte) (footer, error) {
	var f footer

	if len(buf) != footerSize {
		return f, fmt.Errorf("%w: footer too small", ErrCorrupt)
	}

	magic := binary.LittleEndian.Uint32(buf[16:])
	if magic != Magic {
		return f, fmt.Errorf("%w: 0x%08X (expected 0x%08X)", ErrBadMagic, magic, Magic)
	}

	f.tableOff = int64(binary.LittleEndian.Uint64(buf[0:]))
	f.nChunks = binary.LittleEndian.Uint32(buf[8:])
	f.tableCRC = binary.LittleEndian.Uint32(buf[12:])

	if f.tableOff < 0 {
		return f, fmt.Errorf("%w: table offset %d", ErrCorrupt, f.tableOff)
	}

	return f, nil
}

func encodeChunkHeader(buf []byte, c Compression, rawLen, encLen int) {
	buf[0] = byte(c)
	binary.LittleEndian.PutUint32(buf[1:], uint32(rawLen))
	binary.LittleEndian.PutUint32(buf[5:], uint32(encLen))
}

func parseChunkHeader(buf []byte) (c Compression, rawLen, encLen int, err error) {
	if len(buf) < chunkHeaderSize {
		return 0, 0, 0, fmt.Errorf("%w: chunk record too small", ErrCorrupt)
	}

	c = Compression(buf[0])
	rawLen = int(binary.LittleEndian.Uint32(buf[1:]))
	encLen = int(binary.LittleEndian.Uint32(buf[5:]))

	return c, rawLen, encLen, nil
}
