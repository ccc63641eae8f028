package engine

import (
	"context"
	"io"
)

// Info describes a source, as reported by Opener.Stat.
type Info struct {
	// Size is the source length in bytes.
	Size int64

	// ChunkSize, when non-zero, is the source's preferred chunk grid.
	// Packed sources report their compressed chunk size here so transfer
	// requests align with chunk boundaries; 0 leaves the choice to the
	// caller.
	ChunkSize int64
}

// Source is an open handle to a named source. ReadAt must be safe for
// concurrent calls; the engine fans chunk reads out to multiple workers.
type Source interface {
	io.ReaderAt
	io.Closer

	// Size returns the source length in bytes.
	Size() int64
}

// Opener resolves names to sources.
//
// Stat is the fast metadata query and runs on the caller's path; it must
// not pay the cost of a full open. Open may be slow and is invoked on the
// background transfer path only.
type Opener interface {
	Stat(ctx context.Context, name string) (Info, error)
	Open(ctx context.Context, name string) (Source, error)
}

// Request describes one chunk of a submission: read len(Dst) bytes at
// Offset in the source into Dst. Destination ranges of a batch must be
// disjoint; the Ticket's frontier assumes they are contiguous and in
// submission order.
type Request struct {
	Offset int64
	Dst    []byte
}
