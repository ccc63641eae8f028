package pack

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"sync"

	"github.com/hupe1980/bigio/codec"
	"github.com/hupe1980/bigio/internal/mmap"
)

// File provides random access to the payload of a packed container.
// Reads address the uncompressed byte space; chunks are located
// through the offset table and decoded on demand. Safe for concurrent
// use.
type File struct {
	ra    io.ReaderAt
	hdr   header
	table []int64

	// Single-slot decode cache. It keeps sequential partial reads from
	// decoding the same chunk over and over; full-chunk readers replace
	// it without contending on the decode itself.
	mu       sync.Mutex
	cacheIdx int
	cache    []byte

	closer io.Closer
}

// Open validates the container framing on ra and returns a File. The
// size argument is the container size in bytes. Open reads the footer,
// table, and header; chunk data stays untouched until read.
func Open(ra io.ReaderAt, size int64) (*File, error) {
	if size < int64(headerFixedSize+8+footerSize) {
		return nil, fmt.Errorf("%w: file too small: %d bytes", ErrCorrupt, size)
	}

	ftrBuf := make([]byte, footerSize)
	if _, err := ra.ReadAt(ftrBuf, size-footerSize); err != nil {
		return nil, fmt.Errorf("pack: read footer: %w", err)
	}

	ftr, err := parseFooter(ftrBuf)
	if err != nil {
		return nil, err
	}

	tableLen := int64(ftr.nChunks+1) * 8
	if ftr.tableOff+tableLen+footerSize != size {
		return nil, fmt.Errorf("%w: table does not line up with footer", ErrCorrupt)
	}

	tableBuf := make([]byte, tableLen)
	if _, err := ra.ReadAt(tableBuf, ftr.tableOff); err != nil {
		return nil, fmt.Errorf("pack: read table: %w", err)
	}

	if crc := crc32.ChecksumIEEE(tableBuf); crc != ftr.tableCRC {
		return nil, fmt.Errorf("%w: table checksum mismatch: 0x%08X (expected 0x%08X)", ErrCorrupt, crc, ftr.tableCRC)
	}

	table := make([]int64, ftr.nChunks+1)
	for i := range table {
		table[i] = int64(binary.LittleEndian.Uint64(tableBuf[i*8:]))
	}

	if table[len(table)-1] != ftr.tableOff {
		return nil, fmt.Errorf("%w: table end does not match footer", ErrCorrupt)
	}

	hdrLen := table[0]
	if hdrLen < headerFixedSize || hdrLen > ftr.tableOff {
		return nil, fmt.Errorf("%w: header length %d", ErrCorrupt, hdrLen)
	}

	hdrBuf := make([]byte, hdrLen)
	if _, err := ra.ReadAt(hdrBuf, 0); err != nil {
		return nil, fmt.Errorf("pack: read header: %w", err)
	}

	hdr, err := parseHeader(hdrBuf)
	if err != nil {
		return nil, err
	}

	var wantChunks int64
	if hdr.origSize > 0 {
		wantChunks = (hdr.origSize + hdr.chunkSize - 1) / hdr.chunkSize
	}

	if wantChunks != int64(ftr.nChunks) {
		return nil, fmt.Errorf("%w: %d chunks for %d payload bytes", ErrCorrupt, ftr.nChunks, hdr.origSize)
	}

	return &File{
		ra:       ra,
		hdr:      hdr,
		table:    table,
		cacheIdx: -1,
	}, nil
}

// OpenFile maps the container at path and opens it. The mapping gets
// random-access advice since chunk reads jump around the file.
func OpenFile(path string) (*File, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}

	_ = m.Advise(mmap.AccessRandom)

	f, err := Open(m, int64(m.Size()))
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	f.closer = m

	return f, nil
}

// Size returns the uncompressed payload size.
func (f *File) Size() int64 {
	return f.hdr.origSize
}

// ChunkSize returns the uncompressed chunk size.
func (f *File) ChunkSize() int64 {
	return f.hdr.chunkSize
}

// Chunks returns the number of chunks in the container.
func (f *File) Chunks() int {
	return len(f.table) - 1
}

// Compression returns the compression requested at pack time.
// Individual chunks may be stored raw when they did not shrink.
func (f *File) Compression() Compression {
	return f.hdr.compression
}

// Meta decodes the metadata blob into v using the codec named in the
// header. Returns ErrNoMeta when the container carries none.
func (f *File) Meta(v any) error {
	if len(f.hdr.meta) == 0 {
		return ErrNoMeta
	}

	c, ok := codec.ByName(f.hdr.codecName)
	if !ok {
		return fmt.Errorf("pack: unknown codec: %q", f.hdr.codecName)
	}

	return c.Unmarshal(f.hdr.meta, v)
}

// ReadAt reads uncompressed payload bytes starting at off.
func (f *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("pack: negative offset: %d", off)
	}

	if off >= f.hdr.origSize {
		return 0, io.EOF
	}

	total := 0

	for total < len(p) && off < f.hdr.origSize {
		idx := int(off / f.hdr.chunkSize)

		chunk, err := f.chunk(idx)
		if err != nil {
			return total, err
		}

		n := copy(p[total:], chunk[off-int64(idx)*f.hdr.chunkSize:])
		total += n
		off += int64(n)
	}

	if total < len(p) {
		return total, io.EOF
	}

	return total, nil
}

// Close releases the underlying mapping if the File owns one.
func (f *File) Close() error {
	f.mu.Lock()
	f.cache = nil
	f.cacheIdx = -1
	f.mu.Unlock()

	if f.closer != nil {
		return f.closer.Close()
	}

	return nil
}

func (f *File) chunk(idx int) ([]byte, error) {
	f.mu.Lock()
	if idx == f.cacheIdx && f.cache != nil {
		chunk := f.cache
		f.mu.Unlock()

		return chunk, nil
	}
	f.mu.Unlock()

	chunk, err := f.loadChunk(idx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.cacheIdx = idx
	f.cache = chunk
	f.mu.Unlock()

	return chunk, nil
}

func (f *File) loadChunk(idx int) ([]byte, error) {
	if idx < 0 || idx >= len(f.table)-1 {
		return nil, fmt.Errorf("%w: chunk %d of %d", ErrCorrupt, idx, len(f.table)-1)
	}

	start, end := f.table[idx], f.table[idx+1]
	if end-start < chunkHeaderSize || start < 0 {
		return nil, fmt.Errorf("%w: chunk %d record extent [%d, %d)", ErrCorrupt, idx, start, end)
	}

	record := make([]byte, end-start)
	if _, err := f.ra.ReadAt(record, start); err != nil {
		return nil, fmt.Errorf("pack: read chunk %d: %w", idx, err)
	}

	c, rawLen, encLen, err := parseChunkHeader(record)
	if err != nil {
		return nil, err
	}

	if int64(chunkHeaderSize+encLen) != end-start {
		return nil, fmt.Errorf("%w: chunk %d encoded length %d does not match record", ErrCorrupt, idx, encLen)
	}

	// Chunks tile the payload exactly: chunkSize bytes each, the last
	// one holding the remainder. ReadAt's offset arithmetic depends on
	// that, so any other length is a framing error.
	want := f.hdr.origSize - int64(idx)*f.hdr.chunkSize
	if want > f.hdr.chunkSize {
		want = f.hdr.chunkSize
	}

	if int64(rawLen) != want {
		return nil, fmt.Errorf("%w: chunk %d raw length %d (expected %d)", ErrCorrupt, idx, rawLen, want)
	}

	return decodeChunk(record[chunkHeaderSize:], rawLen, c)
}
