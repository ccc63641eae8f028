package pack

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/hupe1980/bigio/resource"
)

// Stats summarizes one packing run.
type Stats struct {
	// Chunks is the number of chunk records written.
	Chunks int
	// RawBytes is the uncompressed payload size.
	RawBytes int64
	// PackedBytes is the total container size including framing.
	PackedBytes int64
}

// Ratio returns the container size relative to the raw payload.
func (s Stats) Ratio() float64 {
	if s.RawBytes == 0 {
		return 1
	}

	return float64(s.PackedBytes) / float64(s.RawBytes)
}

// Pack reads exactly size bytes from r and writes a packed container
// to w. The write is sequential, so w can be a plain file or an upload
// pipe.
func Pack(ctx context.Context, w io.Writer, r io.Reader, size int64, opts ...Option) (Stats, error) {
	o := applyOptions(opts)

	if size < 0 {
		return Stats{}, fmt.Errorf("pack: negative payload size: %d", size)
	}

	var meta []byte

	if o.meta != nil {
		var err error

		meta, err = o.codec.Marshal(o.meta)
		if err != nil {
			return Stats{}, fmt.Errorf("pack: encode metadata: %w", err)
		}
	}

	hdr := header{
		version:     Version,
		compression: o.compression,
		chunkSize:   o.chunkSize,
		origSize:    size,
		codecName:   o.codec.Name(),
		meta:        meta,
	}

	hdrBytes, err := hdr.encode()
	if err != nil {
		return Stats{}, err
	}

	if o.rateLimit > 0 {
		gov := resource.NewGovernor(resource.Config{BandwidthBytesPerSec: o.rateLimit})
		r = resource.NewMeteredReader(ctx, gov, r)
	}

	if _, err := w.Write(hdrBytes); err != nil {
		return Stats{}, fmt.Errorf("pack: write header: %w", err)
	}

	off := int64(len(hdrBytes))
	nChunks := int((size + o.chunkSize - 1) / o.chunkSize)
	offsets := make([]int64, 0, nChunks+1)

	raw := make([]byte, o.chunkSize)
	frame := make([]byte, chunkHeaderSize)

	for remaining := size; remaining > 0; {
		if err := ctx.Err(); err != nil {
			return Stats{}, err
		}

		n := o.chunkSize
		if remaining < n {
			n = remaining
		}

		if _, err := io.ReadFull(r, raw[:n]); err != nil {
			return Stats{}, fmt.Errorf("pack: read payload: %w", err)
		}

		enc, actual, err := encodeChunk(raw[:n], o.compression)
		if err != nil {
			return Stats{}, err
		}

		encodeChunkHeader(frame, actual, int(n), len(enc))

		if _, err := w.Write(frame); err != nil {
			return Stats{}, fmt.Errorf("pack: write chunk: %w", err)
		}

		if _, err := w.Write(enc); err != nil {
			return Stats{}, fmt.Errorf("pack: write chunk: %w", err)
		}

		offsets = append(offsets, off)
		off += int64(chunkHeaderSize + len(enc))
		remaining -= n
	}

	// The terminal entry points at the table itself, closing the last
	// chunk record extent.
	offsets = append(offsets, off)

	table := make([]byte, len(offsets)*8)
	for i, entry := range offsets {
		binary.LittleEndian.PutUint64(table[i*8:], uint64(entry))
	}

	if _, err := w.Write(table); err != nil {
		return Stats{}, fmt.Errorf("pack: write table: %w", err)
	}

	ftr := footer{
		tableOff: off,
		nChunks:  uint32(len(offsets) - 1),
		tableCRC: crc32.ChecksumIEEE(table),
	}

	if _, err := w.Write(ftr.encode()); err != nil {
		return Stats{}, fmt.Errorf("pack: write footer: %w", err)
	}

	return Stats{
		Chunks:      len(offsets) - 1,
		RawBytes:    size,
		PackedBytes: off + int64(len(table)) + footerSize,
	}, nil
}

// PackFile packs the file at src into a new container at dst.
func PackFile(ctx context.Context, dst, src string, opts ...Option) (Stats, error) {
	in, err := os.Open(src)
	if err != nil {
		return Stats{}, err
	}

	defer in.Close()

	fi, err := in.Stat()
	if err != nil {
		return Stats{}, err
	}

	out, err := os.Create(dst)
	if err != nil {
		return Stats{}, err
	}

	stats, err := Pack(ctx, out, in, fi.Size(), opts...)
	if err != nil {
		_ = out.Close()
		return Stats{}, err
	}

	if err := out.Close(); err != nil {
		return Stats{}, err
	}

	return stats, nil
}
