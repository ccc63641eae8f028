package bigio_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/hupe1980/bigio"
	"github.com/hupe1980/bigio/engine"
	"github.com/hupe1980/bigio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testChunkSize int64 = 64 * 1024

// writeFixture writes a deterministic pattern file and returns its path.
func writeFixture(t *testing.T, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fixture.bin")
	require.NoError(t, os.WriteFile(path, testutil.Pattern(size), 0o600))

	return path
}

// gate hands out read permits one at a time so tests control exactly
// when chunk bytes arrive. openAll releases everything still waiting.
type gate struct {
	ch   chan struct{}
	once sync.Once
}

func newGate() *gate {
	return &gate{ch: make(chan struct{})}
}

func (g *gate) permit() {
	g.ch <- struct{}{}
}

func (g *gate) openAll() {
	g.once.Do(func() { close(g.ch) })
}

// gatedOpener wraps another opener and blocks every chunk read on a
// permit from the gate.
type gatedOpener struct {
	inner engine.Opener
	gate  *gate
}

func (o *gatedOpener) Stat(ctx context.Context, name string) (engine.Info, error) {
	return o.inner.Stat(ctx, name)
}

func (o *gatedOpener) Open(ctx context.Context, name string) (engine.Source, error) {
	src, err := o.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	return &gatedSource{Source: src, gate: o.gate}, nil
}

type gatedSource struct {
	engine.Source
	gate *gate
}

func (s *gatedSource) ReadAt(p []byte, off int64) (int, error) {
	<-s.gate.ch

	return s.Source.ReadAt(p, off)
}

// failingOpener wraps another opener and fails every read at or past
// failAt, leaving earlier offsets readable.
type failingOpener struct {
	inner  engine.Opener
	failAt int64
}

func (o *failingOpener) Stat(ctx context.Context, name string) (engine.Info, error) {
	return o.inner.Stat(ctx, name)
}

func (o *failingOpener) Open(ctx context.Context, name string) (engine.Source, error) {
	src, err := o.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	return &failingSource{Source: src, failAt: o.failAt}, nil
}

type failingSource struct {
	engine.Source
	failAt int64
}

func (s *failingSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= s.failAt {
		return 0, errors.New("injected read failure")
	}

	return s.Source.ReadAt(p, off)
}

// hintOpener overrides the chunk size hint reported by Stat.
type hintOpener struct {
	inner engine.Opener
	hint  int64
}

func (o *hintOpener) Stat(ctx context.Context, name string) (engine.Info, error) {
	info, err := o.inner.Stat(ctx, name)
	info.ChunkSize = o.hint

	return info, err
}

func (o *hintOpener) Open(ctx context.Context, name string) (engine.Source, error) {
	return o.inner.Open(ctx, name)
}

func TestOpenChunked_ReadAll(t *testing.T) {
	size := int(4*testChunkSize + 1000)
	path := writeFixture(t, size)

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, int64(size), s.Size())
	assert.True(t, s.IsOpen())

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, testutil.Pattern(size), got)

	assert.True(t, s.IsComplete())
	assert.Equal(t, bigio.StateCompleted, s.State())
	assert.NoError(t, s.Err())
}

// TestChunkedStream_WaitNextBlock verifies that the readable prefix
// grows one chunk boundary per call no matter how far the transfer has
// run ahead. A 2.5 chunk file publishes C, 2C, 2.5C and then reports
// no further growth.
func TestChunkedStream_WaitNextBlock(t *testing.T) {
	size := int(2*testChunkSize + testChunkSize/2)
	path := writeFixture(t, size)

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	var steps []int64
	for s.WaitNextBlock() {
		steps = append(steps, s.ReadSize())
	}

	assert.Equal(t, []int64{testChunkSize, 2 * testChunkSize, int64(size)}, steps)
	assert.False(t, s.WaitNextBlock(), "prefix cannot grow past end of file")
	assert.True(t, s.IsComplete())
	assert.Equal(t, bigio.StateCompleted, s.State())
}

func TestOpenChunked_Empty(t *testing.T) {
	path := writeFixture(t, 0)

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path, bigio.WithEngine(eng))
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, bigio.StateCompleted, s.State())
	assert.True(t, s.IsComplete())
	assert.Equal(t, int64(0), s.Size())
	assert.Equal(t, int64(0), s.ReadSize())
	assert.False(t, s.WaitNextBlock())
	assert.NoError(t, s.Wait())
	assert.Empty(t, s.Bytes())

	_, err = s.Read(make([]byte, 16))
	assert.ErrorIs(t, err, io.EOF)
}

func TestOpenChunked_Missing(t *testing.T) {
	eng := engine.New()
	defer eng.Close()

	metrics := &bigio.BasicMetricsCollector{}

	_, err := bigio.OpenChunked(context.Background(), filepath.Join(t.TempDir(), "nope.bin"),
		bigio.WithEngine(eng),
		bigio.WithMetricsCollector(metrics),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, bigio.ErrOpenFailure)
	assert.ErrorIs(t, err, engine.ErrNotFound)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.OpenCount)
	assert.Equal(t, int64(1), stats.OpenErrors)
}

func TestOpenChunked_ChunkSizePrecedence(t *testing.T) {
	size := int(4 * testChunkSize)
	path := writeFixture(t, size)

	t.Run("SourceHint", func(t *testing.T) {
		eng := engine.New(engine.WithOpener(&hintOpener{inner: engine.NewLocalOpener(), hint: testChunkSize / 2}))
		defer eng.Close()

		s, err := bigio.OpenChunked(context.Background(), path, bigio.WithEngine(eng))
		require.NoError(t, err)
		defer s.Close()

		require.True(t, s.WaitNextBlock())
		assert.Equal(t, testChunkSize/2, s.ReadSize())
	})

	t.Run("OptionBeatsHint", func(t *testing.T) {
		eng := engine.New(engine.WithOpener(&hintOpener{inner: engine.NewLocalOpener(), hint: testChunkSize / 2}))
		defer eng.Close()

		s, err := bigio.OpenChunked(context.Background(), path,
			bigio.WithEngine(eng),
			bigio.WithChunkSize(testChunkSize),
		)
		require.NoError(t, err)
		defer s.Close()

		require.True(t, s.WaitNextBlock())
		assert.Equal(t, testChunkSize, s.ReadSize())
	})
}

// TestChunkedStream_StateTransitions walks the lifecycle with a gated
// source: launched before any chunk lands, reading once the first chunk
// arrives, completed after the last.
func TestChunkedStream_StateTransitions(t *testing.T) {
	size := int(4 * testChunkSize)
	path := writeFixture(t, size)

	g := newGate()
	defer g.openAll()

	eng := engine.New(
		engine.WithOpener(&gatedOpener{inner: engine.NewLocalOpener(), gate: g}),
		engine.WithWorkers(1),
	)
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, bigio.StateLaunched, s.State())
	assert.False(t, s.State().Terminal())

	// One permit lets exactly the first chunk through.
	g.permit()

	assert.Eventually(t, func() bool {
		return s.State() == bigio.StateReading
	}, 5*time.Second, time.Millisecond)

	g.openAll()
	require.NoError(t, s.Wait())

	assert.Equal(t, bigio.StateCompleted, s.State())
	assert.True(t, s.State().Terminal())
	assert.Equal(t, int64(size), s.ReadSize())
}

// TestChunkedStream_ReadBlocks drips permits from a second goroutine
// while a single Read spans the whole file. The read must stall on each
// missing chunk and still return the complete payload.
func TestChunkedStream_ReadBlocks(t *testing.T) {
	size := int(4 * testChunkSize)
	path := writeFixture(t, size)

	g := newGate()
	defer g.openAll()

	eng := engine.New(
		engine.WithOpener(&gatedOpener{inner: engine.NewLocalOpener(), gate: g}),
		engine.WithWorkers(1),
	)
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	go func() {
		for i := 0; i < 4; i++ {
			time.Sleep(2 * time.Millisecond)
			g.permit()
		}
	}()

	got := make([]byte, size)
	n, err := io.ReadFull(s, got)
	require.NoError(t, err)
	assert.Equal(t, size, n)
	assert.Equal(t, testutil.Pattern(size), got)

	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}

func TestChunkedStream_SeekStalls(t *testing.T) {
	size := int(4 * testChunkSize)
	path := writeFixture(t, size)

	g := newGate()
	defer g.openAll()

	eng := engine.New(
		engine.WithOpener(&gatedOpener{inner: engine.NewLocalOpener(), gate: g}),
		engine.WithWorkers(1),
	)
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	go func() {
		time.Sleep(5 * time.Millisecond)
		g.openAll()
	}()

	// The seek target is three chunks in; nothing has arrived yet, so
	// this must stall until the prefix covers it.
	pos, err := s.Seek(3*testChunkSize, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, 3*testChunkSize, pos)
	assert.GreaterOrEqual(t, s.ReadSize(), 3*testChunkSize)

	got := make([]byte, testChunkSize)
	_, err = io.ReadFull(s, got)
	require.NoError(t, err)
	assert.Equal(t, testutil.PatternAt(3*testChunkSize, int(testChunkSize)), got)
}

func TestChunkedStream_Seek(t *testing.T) {
	size := int(4 * testChunkSize)
	path := writeFixture(t, size)

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Wait())

	pos, err := s.Seek(1000, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), pos)
	assert.Equal(t, int64(1000), s.Tell())

	buf := make([]byte, 10)
	_, err = io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.Equal(t, testutil.PatternAt(1000, 10), buf)

	pos, err = s.Seek(100, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(1110), pos)

	pos, err = s.Seek(-10, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(size)-10, pos)

	// Past end of file clamps to the file length.
	pos, err = s.Seek(int64(size)+4096, io.SeekStart)
	require.NoError(t, err)
	assert.Equal(t, int64(size), pos)

	_, err = s.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, bigio.ErrInvalidOffset)

	_, err = s.Seek(0, 99)
	assert.ErrorIs(t, err, bigio.ErrInvalidWhence)
}

// TestChunkedStream_Failure injects a read failure at the third chunk.
// The first two chunks stay readable, everything past them returns the
// transfer error, and seeks clamp to the readable prefix.
func TestChunkedStream_Failure(t *testing.T) {
	size := int(4 * testChunkSize)
	path := writeFixture(t, size)

	eng := engine.New(
		engine.WithOpener(&failingOpener{inner: engine.NewLocalOpener(), failAt: 2 * testChunkSize}),
		engine.WithWorkers(1),
	)
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	err = s.Wait()
	require.Error(t, err)

	var terr *bigio.TransferError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, path, terr.Path)

	assert.Equal(t, bigio.StateFailed, s.State())
	assert.Equal(t, 2*testChunkSize, s.ReadSize())
	assert.False(t, s.IsComplete())

	// The prefix reads back fine.
	got := make([]byte, 2*testChunkSize)
	_, err = io.ReadFull(s, got)
	require.NoError(t, err)
	assert.Equal(t, testutil.Pattern(int(2*testChunkSize)), got)

	// Past the prefix reads report end-of-data, not the fault; the
	// error stays queryable through State and Err.
	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
	assert.Error(t, s.Err())

	// Seeks clamp to the prefix instead of stalling forever.
	pos, err := s.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, 2*testChunkSize, pos)
}

func TestChunkedStream_Bytes(t *testing.T) {
	size := int(2 * testChunkSize)
	path := writeFixture(t, size)

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	// One boundary step publishes exactly one chunk, even when the
	// transfer has already finished underneath.
	require.True(t, s.WaitNextBlock())
	assert.Equal(t, testutil.Pattern(int(testChunkSize)), s.Bytes())

	require.NoError(t, s.Wait())
	assert.Equal(t, testutil.Pattern(size), s.Bytes())
}

func TestChunkedStream_Extract(t *testing.T) {
	size := int(2*testChunkSize + 100)
	path := writeFixture(t, size)

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)

	buf, err := s.Extract()
	require.NoError(t, err)
	defer buf.Release()

	assert.Equal(t, size, buf.Len())
	assert.Equal(t, testutil.Pattern(size), buf.Bytes())

	// The stream is closed; the buffer lives on.
	assert.False(t, s.IsOpen())
	assert.Nil(t, s.Bytes())

	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, bigio.ErrClosed)

	_, err = s.Extract()
	assert.ErrorIs(t, err, bigio.ErrClosed)

	assert.NoError(t, s.Close())
}

func TestChunkedStream_ExtractFailed(t *testing.T) {
	size := int(4 * testChunkSize)
	path := writeFixture(t, size)

	eng := engine.New(
		engine.WithOpener(&failingOpener{inner: engine.NewLocalOpener(), failAt: 2 * testChunkSize}),
		engine.WithWorkers(1),
	)
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
	)
	require.NoError(t, err)
	defer s.Close()

	// A buffer with holes must never leave the stream.
	_, err = s.Extract()
	require.Error(t, err)

	var terr *bigio.TransferError
	assert.ErrorAs(t, err, &terr)

	// The stream stays open and the prefix remains readable.
	assert.True(t, s.IsOpen())

	got := make([]byte, 2*testChunkSize)
	_, err = io.ReadFull(s, got)
	require.NoError(t, err)
	assert.Equal(t, testutil.Pattern(int(2*testChunkSize)), got)
}

func TestChunkedStream_CloseIdempotent(t *testing.T) {
	path := writeFixture(t, int(testChunkSize))

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path, bigio.WithEngine(eng))
	require.NoError(t, err)

	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())

	assert.False(t, s.IsOpen())
	assert.Nil(t, s.Bytes())

	_, err = s.Read(make([]byte, 1))
	assert.ErrorIs(t, err, bigio.ErrClosed)

	_, err = s.Seek(0, io.SeekStart)
	assert.ErrorIs(t, err, bigio.ErrClosed)
}

func TestChunkedStream_SpinWait(t *testing.T) {
	size := int(3 * testChunkSize)
	path := writeFixture(t, size)

	eng := engine.New()
	defer eng.Close()

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
		bigio.WithSpinWait(),
	)
	require.NoError(t, err)
	defer s.Close()

	var steps []int64
	for s.WaitNextBlock() {
		steps = append(steps, s.ReadSize())
	}

	assert.Equal(t, []int64{testChunkSize, 2 * testChunkSize, 3 * testChunkSize}, steps)

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, testutil.Pattern(size), got)
}

func TestChunkedStream_Metrics(t *testing.T) {
	size := int(2 * testChunkSize)
	path := writeFixture(t, size)

	eng := engine.New()
	defer eng.Close()

	metrics := &bigio.BasicMetricsCollector{}

	s, err := bigio.OpenChunked(context.Background(), path,
		bigio.WithEngine(eng),
		bigio.WithChunkSize(testChunkSize),
		bigio.WithMetricsCollector(metrics),
		bigio.WithSyncRelease(),
	)
	require.NoError(t, err)

	require.NoError(t, s.Wait())
	require.NoError(t, s.Close())

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.OpenCount)
	assert.Equal(t, int64(0), stats.OpenErrors)
	assert.Equal(t, int64(1), stats.TransferCount)
	assert.Equal(t, int64(0), stats.TransferErrors)
	assert.Equal(t, int64(size), stats.TransferBytes)
	assert.Equal(t, int64(1), stats.ReleaseCount)
	assert.Equal(t, int64(size), stats.ReleaseBytes)
}

func TestOpenChunked_DefaultEngine(t *testing.T) {
	size := 4096
	path := writeFixture(t, size)

	s, err := bigio.OpenChunked(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()

	got, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, testutil.Pattern(size), got)
}

func TestChunkedStream_ZeroValueIdle(t *testing.T) {
	var s bigio.ChunkedStream

	assert.Equal(t, bigio.StateIdle, s.State())
	assert.False(t, s.IsOpen())
}
