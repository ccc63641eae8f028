package buffer

import (
	"errors"
	"os"
	"sync/atomic"

	"github.com/hupe1980/bigio/internal/mmap"
)

// ErrInvalidLen is returned when the requested buffer length is invalid.
var ErrInvalidLen = errors.New("buffer: invalid length")

type options struct {
	syncRelease bool
}

// Option configures Alloc.
type Option func(*options)

// WithSyncRelease makes Release unmap inline instead of on a background
// goroutine. ReleaseSync is unaffected by this option.
func WithSyncRelease() Option {
	return func(o *options) {
		o.syncRelease = true
	}
}

// Buffer is a page-aligned, exact-size flat byte buffer.
type Buffer struct {
	raw      []byte // full page-rounded mapping, nil once released
	n        int    // exact requested length
	unmap    func([]byte) error
	deferred bool
	released atomic.Bool
}

// Alloc allocates a buffer of exactly n bytes, rounded up internally to a
// page boundary. n == 0 yields a valid empty buffer.
func Alloc(n int64, opts ...Option) (*Buffer, error) {
	o := options{}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}

	if n < 0 || int64(int(n)) != n {
		return nil, ErrInvalidLen
	}

	b := &Buffer{
		n:        int(n),
		deferred: !o.syncRelease,
	}
	if n == 0 {
		return b, nil
	}

	pageSize := int64(os.Getpagesize())
	mapped := (n + pageSize - 1) / pageSize * pageSize
	if int64(int(mapped)) != mapped {
		return nil, ErrInvalidLen
	}

	raw, unmap, err := mmap.MapAnon(int(mapped))
	if err != nil {
		return nil, err
	}

	b.raw = raw
	b.unmap = unmap
	return b, nil
}

// Bytes returns the buffer contents, exactly the length passed to Alloc.
// It returns nil once the buffer has been released.
func (b *Buffer) Bytes() []byte {
	if b.released.Load() || b.raw == nil {
		if b.n == 0 && !b.released.Load() {
			return []byte{}
		}
		return nil
	}
	return b.raw[:b.n:b.n]
}

// Len returns the buffer length, 0 once released.
func (b *Buffer) Len() int {
	if b.released.Load() {
		return 0
	}
	return b.n
}

// Release invalidates the buffer immediately and releases the backing
// memory, on a background goroutine by default (see WithSyncRelease).
// Errors from a deferred unmap are unreported. Idempotent.
func (b *Buffer) Release() error {
	if b.released.Swap(true) {
		return nil
	}
	raw, unmap := b.raw, b.unmap
	b.raw = nil
	if raw == nil || unmap == nil {
		return nil
	}
	if b.deferred {
		go func() {
			_ = unmap(raw)
		}()
		return nil
	}
	return unmap(raw)
}

// ReleaseSync invalidates the buffer and unmaps before returning,
// regardless of the configured release mode. Idempotent.
func (b *Buffer) ReleaseSync() error {
	if b.released.Swap(true) {
		return nil
	}
	raw, unmap := b.raw, b.unmap
	b.raw = nil
	if raw == nil || unmap == nil {
		return nil
	}
	return unmap(raw)
}
