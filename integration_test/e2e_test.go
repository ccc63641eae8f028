package integration_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/hupe1980/bigio"
	"github.com/hupe1980/bigio/engine"
	"github.com/hupe1980/bigio/pack"
	"github.com/hupe1980/bigio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestE2E_MappedWriteChunkedRead writes a file through a growable
// mapping, patches an earlier region, and reads the result back through
// the chunked transfer path.
func TestE2E_MappedWriteChunkedRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "payload.bin")

	data := testutil.Pattern(300_000)

	// 1. Write through a mapping that has to grow twice
	w, err := bigio.CreateMapped(path, bigio.WithReserveSize(64*1024))
	require.NoError(t, err)

	_, err = w.Write(data)
	require.NoError(t, err)

	// Patch an early window, then close; the high water mark keeps
	// the full length.
	_, err = w.Seek(1000, io.SeekStart)
	require.NoError(t, err)

	patch := bytes.Repeat([]byte{0xEE}, 100)
	_, err = w.Write(patch)
	require.NoError(t, err)

	require.NoError(t, w.Close())

	want := testutil.Pattern(300_000)
	copy(want[1000:1100], patch)

	// 2. Read it back chunked
	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(64*1024),
	)
	require.NoError(t, err)
	defer s.Close()

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// TestE2E_PackAndStream packs a compressible payload, then streams the
// original bytes back out through an engine running on the pack opener.
func TestE2E_PackAndStream(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "dataset.bin")
	dst := filepath.Join(dir, "dataset.bpak")

	payload := testutil.Compressible(500_000)
	require.NoError(t, os.WriteFile(src, payload, 0o600))

	type meta struct {
		Name string `json:"name"`
		Rows int    `json:"rows"`
	}

	stats, err := pack.PackFile(context.Background(), dst, src,
		pack.WithChunkSize(64*1024),
		pack.WithCompression(pack.CompressionZSTD),
		pack.WithMeta(meta{Name: "dataset", Rows: 42}),
	)
	require.NoError(t, err)
	assert.Less(t, stats.PackedBytes, stats.RawBytes)

	// Metadata survives the container roundtrip.
	f, err := pack.OpenFile(dst)
	require.NoError(t, err)

	var m meta
	require.NoError(t, f.Meta(&m))
	assert.Equal(t, meta{Name: "dataset", Rows: 42}, m)
	require.NoError(t, f.Close())

	// Stream the original bytes through the engine. The pack opener
	// reports the original size and its chunk grid.
	eng := engine.New(engine.WithOpener(pack.NewOpener(engine.NewLocalOpener())))
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), dst, bigio.WithEngine(eng))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, int64(len(payload)), s.Size())

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

// TestE2E_SharedEngine fans many streams out over one engine with tight
// resource limits and verifies every stream independently.
func TestE2E_SharedEngine(t *testing.T) {
	dir := t.TempDir()

	const (
		files     = 8
		fileSize  = 100_000
		chunkSize = 16 * 1024
	)

	for i := 0; i < files; i++ {
		path := filepath.Join(dir, fmt.Sprintf("file-%d.bin", i))
		require.NoError(t, os.WriteFile(path, testutil.PatternAt(int64(i), fileSize), 0o600))
	}

	eng := engine.New(
		engine.WithOpener(&engine.LocalOpener{Root: dir}),
		engine.WithWorkers(2),
		engine.WithMaxSessions(3),
		engine.WithInflightLimit(256*1024),
	)
	defer eng.Close()

	var wg sync.WaitGroup
	errs := make([]error, files)

	for i := 0; i < files; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			s, err := bigio.OpenChunked(context.Background(), fmt.Sprintf("file-%d.bin", i),
				bigio.WithEngine(eng),
				bigio.WithChunkSize(chunkSize),
			)
			if err != nil {
				errs[i] = err
				return
			}
			defer s.Close()

			got, err := io.ReadAll(s)
			if err != nil {
				errs[i] = err
				return
			}

			if !bytes.Equal(got, testutil.PatternAt(int64(i), fileSize)) {
				errs[i] = fmt.Errorf("file-%d: payload mismatch", i)
			}
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "stream %d", i)
	}
}

// TestE2E_ExtractIntoPack reads a file chunked, extracts the buffer,
// and packs straight from the extracted memory without another copy.
func TestE2E_ExtractIntoPack(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.bin")
	dst := filepath.Join(dir, "packed.bpak")

	payload := testutil.Compressible(200_000)
	require.NoError(t, os.WriteFile(src, payload, 0o600))

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), src,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(32*1024),
	)
	require.NoError(t, err)

	buf, err := s.Extract()
	require.NoError(t, err)
	defer buf.Release()

	out, err := os.Create(dst)
	require.NoError(t, err)

	_, err = pack.Pack(context.Background(), out, bytes.NewReader(buf.Bytes()), int64(buf.Len()),
		pack.WithChunkSize(32*1024),
		pack.WithCompression(pack.CompressionLZ4),
	)
	require.NoError(t, err)
	require.NoError(t, out.Close())

	f, err := pack.OpenFile(dst)
	require.NoError(t, err)
	defer f.Close()

	got := make([]byte, f.Size())
	_, err = f.ReadAt(got, 0)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}
