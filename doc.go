// Package bigio provides byte-stream abstractions for working with very
// large files: chunked asynchronous reads that overlap I/O with
// consumption, and memory-mapped streams for zero-copy reads and
// append-style writes.
//
// # Quick Start
//
// Chunked asynchronous reading:
//
//	ctx := context.Background()
//	s, _ := bigio.OpenChunked(ctx, "dataset.bin")
//	defer s.Close()
//
//	buf := make([]byte, 1<<20)
//	for {
//	    n, err := s.Read(buf)   // blocks only until the bytes arrive
//	    if err == io.EOF {
//	        break
//	    }
//	    process(buf[:n])
//	}
//
// Memory-mapped access:
//
//	r, _ := bigio.OpenMapped("dataset.bin")   // read-only, zero-copy
//	data := r.Bytes()
//
//	w, _ := bigio.CreateMapped("out.bin")     // growable write mapping
//	w.Write(payload)
//	w.Close()                                 // truncates to bytes written
//
// # Chunked Reads
//
// OpenChunked allocates one exact-size buffer for the whole file and
// splits it into chunk-sized transfer requests, submitted as a single
// ordered batch to a transfer engine. Workers fill chunks in parallel
// and possibly out of order; the stream exposes only the contiguous
// prefix, so consumers always see bytes in file order. Read blocks
// until the prefix covers the requested position, Seek past the prefix
// stalls the same way.
//
// The engine is pluggable. By default streams share a process-wide
// engine over local files; engine/s3 and engine/minio read objects with
// ranged GETs, and pack adapts compressed chunked containers.
//
// # Mapped Streams
//
// CreateMapped reserves capacity up front and grows the mapping as the
// cursor moves, doubling below 1 GiB and in 1 GiB steps above. A high
// water mark tracks the furthest byte ever written so closing truncates
// the file to exactly the data written, even after seeking backwards.
//
// # Buffer Ownership
//
// Bytes returned by Bytes are owned by the stream and valid until Close.
// Extract transfers ownership of the backing buffer to the caller
// instead; the stream is closed and the caller releases the buffer.
package bigio
