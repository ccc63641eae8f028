package mmap

// MapAnon allocates an anonymous read-write mapping of size bytes.
// The memory is page-aligned and zero-filled on demand by the OS, outside
// the Go heap. The returned release function unmaps it and must be called
// exactly once, with the returned slice.
func MapAnon(size int) ([]byte, func([]byte) error, error) {
	if size <= 0 {
		return nil, nil, ErrInvalidSize
	}
	return osMapAnon(size)
}
