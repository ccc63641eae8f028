package bigio

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/hupe1980/bigio/buffer"
	"github.com/hupe1980/bigio/engine"
)

// ChunkedStream reads one file through an asynchronous chunked
// transfer. The whole file gets a single exact-size buffer; the
// transfer engine fills it chunk by chunk, possibly out of order,
// while the stream exposes only the contiguous prefix. Reads and
// seeks past the prefix stall until the bytes arrive, so consumers
// always observe the file in order.
//
// The stream itself is not safe for concurrent use; the transfer
// filling it runs concurrently underneath.
type ChunkedStream struct {
	path      string
	size      int64
	chunkSize int64

	buf  *buffer.Buffer
	data []byte

	ticket *engine.Ticket

	pos      int64
	readSize int64

	spin   bool
	opened bool
	closed bool

	started time.Time

	logger  *Logger
	metrics MetricsCollector
}

// OpenChunked opens the file at path for chunked asynchronous reading.
// It stats the source, allocates one buffer of exactly the file
// length, splits it into chunk-sized transfer requests, and submits
// them as a single ordered batch before returning.
//
// The chunk size is taken from WithChunkSize when given, then from the
// source's hint, then DefaultChunkSize. An empty file opens already
// completed with no transfer at all.
func OpenChunked(ctx context.Context, path string, opts ...Option) (*ChunkedStream, error) {
	o := applyOptions(opts)

	eng := o.engine
	if eng == nil {
		eng = engine.Default()
	}

	start := time.Now()

	info, err := eng.Stat(ctx, path)
	if err != nil {
		err = translateOpenError(err, path)
		o.logger.LogOpen(ctx, path, 0, err)
		o.metricsCollector.RecordOpen(time.Since(start), err)

		return nil, err
	}

	chunkSize := o.chunkSize
	if chunkSize <= 0 {
		chunkSize = info.ChunkSize
	}

	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	var bufOpts []buffer.Option
	if o.syncRelease {
		bufOpts = append(bufOpts, buffer.WithSyncRelease())
	}

	buf, err := buffer.Alloc(info.Size, bufOpts...)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrOpenFailure, path, err)
		o.logger.LogOpen(ctx, path, info.Size, err)
		o.metricsCollector.RecordOpen(time.Since(start), err)

		return nil, err
	}

	s := &ChunkedStream{
		path:      path,
		size:      info.Size,
		chunkSize: chunkSize,
		buf:       buf,
		data:      buf.Bytes(),
		spin:      o.spinWait,
		opened:    true,
		started:   start,
		logger:    o.logger,
		metrics:   o.metricsCollector,
	}

	if info.Size > 0 {
		reqs := make([]engine.Request, 0, (info.Size+chunkSize-1)/chunkSize)
		for off := int64(0); off < info.Size; off += chunkSize {
			end := off + chunkSize
			if end > info.Size {
				end = info.Size
			}

			reqs = append(reqs, engine.Request{Offset: off, Dst: s.data[off:end]})
		}

		s.ticket = eng.Submit(ctx, path, reqs)
	}

	o.logger.LogOpen(ctx, path, info.Size, nil)
	o.metricsCollector.RecordOpen(time.Since(start), nil)

	return s, nil
}

// State derives the transfer state. A stream over an empty file is
// born completed.
func (s *ChunkedStream) State() State {
	if !s.opened {
		return StateIdle
	}

	if s.ticket == nil {
		return StateCompleted
	}

	if s.ticket.Done() {
		if s.ticket.Err() != nil {
			return StateFailed
		}

		return StateCompleted
	}

	// All bytes arrived; the batch goroutine just has not finished
	// bookkeeping yet.
	if s.ticket.Progress() >= s.ticket.Total() {
		return StateCompleted
	}

	if s.ticket.Progress() > 0 {
		return StateReading
	}

	return StateLaunched
}

// Err returns the terminal transfer error, nil while in flight or on
// success.
func (s *ChunkedStream) Err() error {
	if s.ticket == nil {
		return nil
	}

	if err := s.ticket.Err(); err != nil {
		return &TransferError{Path: s.path, cause: err}
	}

	return nil
}

// WaitNextBlock blocks until the readable prefix has grown by one
// chunk (or to end of file) and publishes the growth. It returns false
// when the prefix cannot grow further: the whole file is readable, the
// transfer failed, or the stream is closed.
//
// Growth is published one chunk boundary per call even when the
// transfer has run far ahead, so callers see a deterministic sequence
// of prefix lengths.
func (s *ChunkedStream) WaitNextBlock() bool {
	if s.closed || s.ticket == nil || s.readSize >= s.size {
		return false
	}

	target := s.readSize + s.chunkSize
	if target > s.size {
		target = s.size
	}

	if s.spin {
		for s.ticket.Progress() < target && !s.ticket.Done() {
			runtime.Gosched()
		}
	} else {
		s.ticket.WaitFor(target)
	}

	frontier := s.ticket.Progress()
	if frontier > target {
		frontier = target
	}

	if frontier > s.readSize {
		s.readSize = frontier
		return true
	}

	return false
}

// Wait blocks until the transfer reaches a terminal state, publishes
// everything that arrived, and returns the terminal error, if any.
func (s *ChunkedStream) Wait() error {
	if s.ticket == nil {
		return nil
	}

	_ = s.ticket.Wait()

	if !s.closed {
		if frontier := s.ticket.Progress(); frontier > s.readSize {
			s.readSize = frontier
		}
	}

	return s.Err()
}

// Read implements io.Reader over the readable prefix. It blocks while
// bytes in the requested range are still in flight and fills p as far
// as the transfer allows. At the end of available data it returns
// io.EOF, even when the transfer failed short of the file length;
// callers tell the two apart through State and Err.
func (s *ChunkedStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	if len(p) == 0 {
		return 0, nil
	}

	total := 0

	for total < len(p) {
		if s.pos < s.readSize {
			n := copy(p[total:], s.data[s.pos:s.readSize])
			total += n
			s.pos += int64(n)

			continue
		}

		if !s.WaitNextBlock() {
			break
		}
	}

	if total > 0 {
		return total, nil
	}

	return 0, io.EOF
}

// Seek implements io.Seeker. Seeking past the readable prefix stalls
// until the prefix covers the target, so a seek-then-read never
// observes bytes out of order. Targets beyond end of file clamp to the
// file length; on a failed transfer the position clamps to the
// readable prefix.
func (s *ChunkedStream) Seek(offset int64, whence int) (int64, error) {
	if s.closed {
		return 0, ErrClosed
	}

	var target int64

	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = s.pos + offset
	case io.SeekEnd:
		target = s.size + offset
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidWhence, whence)
	}

	if target < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOffset, target)
	}

	if target > s.size {
		target = s.size
	}

	for target > s.readSize {
		if !s.WaitNextBlock() {
			break
		}
	}

	if target > s.readSize {
		target = s.readSize
	}

	s.pos = target

	return s.pos, nil
}

// Tell returns the current cursor position.
func (s *ChunkedStream) Tell() int64 {
	return s.pos
}

// Size returns the file length.
func (s *ChunkedStream) Size() int64 {
	return s.size
}

// ReadSize returns the length of the contiguous readable prefix.
func (s *ChunkedStream) ReadSize() int64 {
	return s.readSize
}

// IsComplete reports whether the whole file is readable.
func (s *ChunkedStream) IsComplete() bool {
	return s.readSize >= s.size
}

// IsOpen reports whether the stream is usable.
func (s *ChunkedStream) IsOpen() bool {
	return s.opened && !s.closed
}

// Bytes returns the readable prefix without copying. The slice is
// owned by the stream and only valid until Close. It returns nil on a
// closed stream.
func (s *ChunkedStream) Bytes() []byte {
	if s.closed {
		return nil
	}

	return s.data[:s.readSize]
}

// Extract waits for the transfer to complete and hands the backing
// buffer to the caller, closing the stream without releasing the
// memory. The caller owns the buffer and must Release it. Extract
// fails if the transfer did, so a buffer never leaves with holes; a
// failed Extract leaves the stream open, the transferred prefix still
// readable, and the buffer owned by the stream until Close.
func (s *ChunkedStream) Extract() (*buffer.Buffer, error) {
	if s.closed {
		return nil, ErrClosed
	}

	if s.ticket != nil {
		_ = s.ticket.Wait()

		if err := s.Err(); err != nil {
			return nil, err
		}

		s.readSize = s.ticket.Progress()
	}

	buf := s.buf
	s.buf = nil
	s.data = nil
	s.closed = true

	elapsed := time.Since(s.started)
	s.logger.LogTransfer(context.Background(), s.path, s.size, elapsed, nil)
	s.metrics.RecordTransfer(s.size, elapsed, nil)
	s.logger.LogClose(s.path, nil)

	return buf, nil
}

// Close waits for the transfer to reach a terminal state and releases
// the buffer, on a background goroutine unless WithSyncRelease was
// given. Idempotent.
func (s *ChunkedStream) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	if s.ticket != nil {
		_ = s.ticket.Wait()

		elapsed := time.Since(s.started)
		s.logger.LogTransfer(context.Background(), s.path, s.ticket.Progress(), elapsed, s.ticket.Err())
		s.metrics.RecordTransfer(s.ticket.Progress(), elapsed, s.ticket.Err())
	}

	s.data = nil

	if s.buf != nil {
		released := int64(s.buf.Len())
		start := time.Now()

		err := s.buf.Release()
		s.buf = nil

		s.metrics.RecordRelease(released, time.Since(start))

		if err != nil {
			s.logger.LogClose(s.path, err)
			return err
		}
	}

	s.logger.LogClose(s.path, nil)

	return nil
}
