// Package buffer allocates flat, page-aligned byte buffers of an exact
// requested size, backed by anonymous memory mappings outside the Go heap.
//
// Buffers are zero-filled on demand by the OS, so allocating tens of
// gigabytes is cheap until the pages are actually touched. Release is
// deferred to a background goroutine by default, because unmapping
// multi-gigabyte regions has visible latency on the releasing goroutine;
// either way the buffer is invalidated immediately:
//
//	b, err := buffer.Alloc(fileSize)
//	if err != nil { ... }
//	defer b.Release()
//
//	dst := b.Bytes() // len(dst) == fileSize, page-aligned base
//
// A Buffer is not safe for concurrent use with its own Release.
package buffer
