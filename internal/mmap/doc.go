// Package mmap provides the memory-mapping primitives behind bigio's
// stream types.
//
// # Overview
//
// Three kinds of mappings are exposed:
//
//   - Mapping: a read-only view of a whole file, used for zero-copy reads.
//   - Writable: a read-write view over a file whose capacity can be grown
//     in place. Growing extends the backing file and remaps; previously
//     written bytes are preserved, but the data slice may relocate, so
//     callers must hold offsets, never sub-slices, across a Grow.
//   - MapAnon: an anonymous read-write mapping for page-aligned,
//     zero-fill-on-demand allocations outside the Go heap.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2), with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile, VirtualAlloc for anonymous
//     memory (access hints are a no-op)
//
// # Thread Safety
//
// Mapping is safe for concurrent reads. Writable is not synchronized; the
// caller owns write ordering. Close is idempotent on both types, but the
// caller must ensure no goroutine touches Bytes() after Close returns.
package mmap
