package pack

import (
	"context"
	"sync"

	"github.com/hupe1980/bigio/engine"
)

// Opener adapts packed containers to engine.Opener. It reports the
// uncompressed payload size and surfaces the container chunk size as
// the transfer hint, so engine requests line up with chunk boundaries
// and each worker decodes disjoint chunks.
//
// Containers are treated as immutable once packed: framing metadata is
// cached per name after the first Stat.
type Opener struct {
	inner engine.Opener

	mu    sync.Mutex
	infos map[string]engine.Info
}

// NewOpener wraps an inner opener whose sources hold packed containers.
func NewOpener(inner engine.Opener) *Opener {
	return &Opener{
		inner: inner,
		infos: make(map[string]engine.Info),
	}
}

// Stat returns payload metadata. The first call per name opens the
// container framing through the inner opener; later calls serve the
// cached result.
func (o *Opener) Stat(ctx context.Context, name string) (engine.Info, error) {
	o.mu.Lock()
	info, ok := o.infos[name]
	o.mu.Unlock()

	if ok {
		return info, nil
	}

	src, err := o.inner.Open(ctx, name)
	if err != nil {
		return engine.Info{}, err
	}

	defer src.Close()

	f, err := Open(src, src.Size())
	if err != nil {
		return engine.Info{}, err
	}

	info = engine.Info{Size: f.Size(), ChunkSize: f.ChunkSize()}

	o.mu.Lock()
	o.infos[name] = info
	o.mu.Unlock()

	return info, nil
}

// Open returns a source that reads uncompressed payload bytes.
func (o *Opener) Open(ctx context.Context, name string) (engine.Source, error) {
	src, err := o.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}

	f, err := Open(src, src.Size())
	if err != nil {
		_ = src.Close()
		return nil, err
	}

	return &packedSource{f: f, inner: src}, nil
}

type packedSource struct {
	f     *File
	inner engine.Source
}

func (s *packedSource) ReadAt(p []byte, off int64) (int, error) {
	return s.f.ReadAt(p, off)
}

func (s *packedSource) Size() int64 {
	return s.f.Size()
}

func (s *packedSource) Close() error {
	if err := s.f.Close(); err != nil {
		_ = s.inner.Close()
		return err
	}

	return s.inner.Close()
}
