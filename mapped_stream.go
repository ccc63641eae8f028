package bigio

import (
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/bigio/internal/mmap"
)

type mapMode int

const (
	modeRead mapMode = iota
	modeWrite
)

// AccessPattern hints to the kernel how a read mapping will be
// consumed. Hints are best-effort and never affect correctness.
type AccessPattern int

const (
	// AccessDefault clears any previous advice.
	AccessDefault AccessPattern = iota
	// AccessSequential expects a front-to-back scan.
	AccessSequential
	// AccessRandom expects scattered ReadAt access.
	AccessRandom
	// AccessWillNeed asks for readahead of the whole mapping.
	AccessWillNeed
	// AccessDontNeed marks the mapping as cold after a pass.
	AccessDontNeed
)

// growStep is the linear growth increment once a write mapping crosses
// doubleLimit. Doubling huge mappings wastes address space and, on
// some platforms, disk.
const (
	doubleLimit int64 = 1 << 30
	growStep    int64 = 1 << 30
)

// MappedStream is a memory-mapped file stream.
//
// Read mode maps an existing file read-only; Bytes exposes the whole
// file zero-copy. Write mode appends through a growable mapping:
// capacity is reserved up front, grown as the cursor moves, and the
// file is truncated to exactly the bytes written on close.
//
// A high water mark remembers the furthest cursor left behind by a
// seek, so writing, seeking backwards, and overwriting never loses
// track of the true data size.
//
// Not safe for concurrent use.
type MappedStream struct {
	path string
	mode mapMode

	m *mmap.Mapping  // read mode
	w *mmap.Writable // write mode

	pos  int64
	hwm  int64
	size int64 // read mode file size

	closed bool

	logger  *Logger
	metrics MetricsCollector
}

// OpenMapped maps the file at path for reading.
func OpenMapped(path string, opts ...Option) (*MappedStream, error) {
	o := applyOptions(opts)

	start := time.Now()

	m, err := mmap.Open(path)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrOpenFailure, path, err)
		o.metricsCollector.RecordOpen(time.Since(start), err)

		return nil, err
	}

	s := &MappedStream{
		path:    path,
		mode:    modeRead,
		m:       m,
		size:    int64(m.Size()),
		logger:  o.logger,
		metrics: o.metricsCollector,
	}

	s.logger.Debug("stream mapped", "path", path, "size", s.size)
	s.metrics.RecordOpen(time.Since(start), nil)

	return s, nil
}

// CreateMapped creates (or truncates) the file at path and maps it for
// writing with the configured reserve capacity.
func CreateMapped(path string, opts ...Option) (*MappedStream, error) {
	o := applyOptions(opts)

	start := time.Now()

	w, err := mmap.Create(path, o.reserveSize)
	if err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrOpenFailure, path, err)
		o.metricsCollector.RecordOpen(time.Since(start), err)

		return nil, err
	}

	s := &MappedStream{
		path:    path,
		mode:    modeWrite,
		w:       w,
		logger:  o.logger,
		metrics: o.metricsCollector,
	}

	s.logger.Debug("stream created", "path", path, "capacity", o.reserveSize)
	s.metrics.RecordOpen(time.Since(start), nil)

	return s, nil
}

// Read reads from the mapping at the cursor.
func (s *MappedStream) Read(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	if s.mode != modeRead {
		return 0, ErrWriteOnly
	}

	if s.pos >= s.size {
		return 0, io.EOF
	}

	n := copy(p, s.m.Bytes()[s.pos:])
	s.pos += int64(n)

	return n, nil
}

// ReadAt reads len(p) bytes at offset off without moving the cursor.
func (s *MappedStream) ReadAt(p []byte, off int64) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	if s.mode != modeRead {
		return 0, ErrWriteOnly
	}

	return s.m.ReadAt(p, off)
}

// Advise hints the kernel how the mapping will be accessed. Read mode
// only.
func (s *MappedStream) Advise(pattern AccessPattern) error {
	if s.closed {
		return ErrClosed
	}

	if s.mode != modeRead {
		return ErrWriteOnly
	}

	var p mmap.AccessPattern

	switch pattern {
	case AccessSequential:
		p = mmap.AccessSequential
	case AccessRandom:
		p = mmap.AccessRandom
	case AccessWillNeed:
		p = mmap.AccessWillNeed
	case AccessDontNeed:
		p = mmap.AccessDontNeed
	default:
		p = mmap.AccessDefault
	}

	return s.m.Advise(p)
}

// Write copies p into the mapping at the cursor, growing the mapping
// when p reaches past the current capacity.
func (s *MappedStream) Write(p []byte) (int, error) {
	if s.closed {
		return 0, ErrClosed
	}

	if s.mode != modeWrite {
		return 0, ErrReadOnly
	}

	if len(p) == 0 {
		return 0, nil
	}

	if need := s.pos + int64(len(p)); need > s.w.Cap() {
		if err := s.grow(need); err != nil {
			return 0, err
		}
	}

	n := copy(s.w.Bytes()[s.pos:], p)
	s.pos += int64(n)

	return n, nil
}

// Seek moves the cursor. In write mode the mapping grows to cover the
// target and the high water mark absorbs the abandoned cursor first,
// so data written before the seek still counts toward the final size.
// In read mode targets clamp to the file extent.
func (s *MappedStream) Seek(offset int64, whence int) (int64, error) {
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
		target = s.Size() + offset
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidWhence, whence)
	}

	if target < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidOffset, target)
	}

	if s.mode == modeRead {
		if target > s.size {
			target = s.size
		}

		s.pos = target

		return s.pos, nil
	}

	if target > s.w.Cap() {
		if err := s.grow(target); err != nil {
			return 0, err
		}
	}

	if s.pos > s.hwm {
		s.hwm = s.pos
	}

	s.pos = target

	return s.pos, nil
}

// Reserve ensures the mapping can hold at least n bytes without
// another remap. Growth follows the usual policy, so the resulting
// capacity may exceed n.
func (s *MappedStream) Reserve(n int64) error {
	if s.closed {
		return ErrClosed
	}

	if s.mode != modeWrite {
		return ErrReadOnly
	}

	if n <= s.w.Cap() {
		return nil
	}

	return s.grow(n)
}

func (s *MappedStream) grow(need int64) error {
	from := s.w.Cap()

	newCap := from
	for newCap < need {
		if newCap < doubleLimit {
			newCap *= 2
		} else {
			newCap += growStep
		}
	}

	if err := s.w.Grow(newCap); err != nil {
		return fmt.Errorf("bigio: grow %s to %d bytes: %w", s.path, newCap, err)
	}

	s.logger.LogGrow(s.path, from, newCap)
	s.metrics.RecordGrow(from, newCap)

	return nil
}

// Tell returns the current cursor position.
func (s *MappedStream) Tell() int64 {
	return s.pos
}

// Size returns the file length in read mode and the logical data size,
// the furthest byte ever written or seeked away from, in write mode.
func (s *MappedStream) Size() int64 {
	if s.mode == modeRead {
		return s.size
	}

	if s.pos > s.hwm {
		return s.pos
	}

	return s.hwm
}

// Capacity returns the mapped capacity.
func (s *MappedStream) Capacity() int64 {
	if s.mode == modeRead {
		return s.size
	}

	return s.w.Cap()
}

// Bytes returns the mapped data without copying: the whole file in
// read mode, the logical data in write mode. The slice is owned by the
// stream and invalid after Close.
func (s *MappedStream) Bytes() []byte {
	if s.closed {
		return nil
	}

	if s.mode == modeRead {
		return s.m.Bytes()
	}

	return s.w.Bytes()[:s.Size()]
}

// IsOpen reports whether the stream is usable.
func (s *MappedStream) IsOpen() bool {
	return !s.closed
}

// Close unmaps the stream. In write mode the file is first truncated
// to the logical data size, so the bytes on disk match exactly what
// was written. Idempotent.
func (s *MappedStream) Close() error {
	if s.closed {
		return nil
	}

	s.closed = true

	start := time.Now()

	var (
		err  error
		size int64
	)

	switch s.mode {
	case modeRead:
		size = s.size
		err = s.m.Close()
	case modeWrite:
		size = s.Size()
		err = s.w.CloseTruncate(size)
	}

	s.metrics.RecordRelease(size, time.Since(start))
	s.logger.LogClose(s.path, err)

	return err
}
