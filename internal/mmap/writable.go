package mmap

import (
	"os"
	"sync/atomic"
)

// Writable is a read-write memory-mapped view over a file whose capacity
// can be grown in place. The backing file is kept open for the lifetime of
// the mapping so it can be extended and finally truncated.
type Writable struct {
	f      *os.File
	data   []byte
	cap    int64
	closed atomic.Bool
	unmap  func([]byte) error
}

// Create creates (truncating if it exists) the file at path and maps it
// read-write with the given initial capacity in bytes.
func Create(path string, capacity int64) (*Writable, error) {
	if capacity <= 0 || int64(int(capacity)) != capacity {
		return nil, ErrInvalidSize
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, err
	}

	if err := f.Truncate(capacity); err != nil {
		f.Close()
		return nil, err
	}

	data, unmap, err := osMapRW(f, int(capacity))
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Writable{
		f:     f,
		data:  data,
		cap:   capacity,
		unmap: unmap,
	}, nil
}

// Grow extends the backing file to newCap bytes and remaps the view.
// Previously written bytes are preserved; the data slice may relocate.
// On failure the existing mapping remains installed and usable.
func (w *Writable) Grow(newCap int64) error {
	if w.closed.Load() {
		return ErrClosed
	}
	if newCap <= w.cap {
		return nil
	}
	if int64(int(newCap)) != newCap {
		return ErrInvalidSize
	}

	// Extend the file first: mapping past EOF faults on access.
	if err := w.f.Truncate(newCap); err != nil {
		return err
	}

	data, unmap, err := osMapRW(w.f, int(newCap))
	if err != nil {
		// The file is now longer than the view; harmless, the final
		// truncate on close restores the logical length.
		return err
	}

	old, oldUnmap := w.data, w.unmap
	w.data, w.unmap, w.cap = data, unmap, newCap

	if oldUnmap != nil && old != nil {
		return oldUnmap(old)
	}
	return nil
}

// Bytes returns the mapped view, nil after Close.
func (w *Writable) Bytes() []byte {
	if w.closed.Load() {
		return nil
	}
	return w.data
}

// Cap returns the current mapped capacity in bytes.
func (w *Writable) Cap() int64 {
	return w.cap
}

// Close unmaps the view and closes the backing file, leaving the file at
// its current capacity length. It is idempotent.
func (w *Writable) Close() error {
	if w.closed.Swap(true) {
		return nil
	}
	var err error
	if w.unmap != nil && w.data != nil {
		err = w.unmap(w.data)
	}
	if cerr := w.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// CloseTruncate unmaps the view, truncates the backing file to size bytes
// and closes it. The unmap happens before the truncate: Windows cannot
// shrink a file below an active view. It is idempotent.
func (w *Writable) CloseTruncate(size int64) error {
	if w.closed.Swap(true) {
		return nil
	}
	var err error
	if w.unmap != nil && w.data != nil {
		err = w.unmap(w.data)
	}
	if terr := w.f.Truncate(size); terr != nil && err == nil {
		err = terr
	}
	if cerr := w.f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
