package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/bigio/resource"
)

// Engine executes ordered batches of chunk transfers on background
// goroutines. Safe for concurrent use.
type Engine struct {
	opener  Opener
	workers int
	gov     *resource.Governor
	logger  *slog.Logger

	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// New creates an Engine. Without options it reads local files with
// moderate parallelism and no throughput limits.
func New(opts ...Option) *Engine {
	o := applyOptions(opts)

	return &Engine{
		opener:  o.opener,
		workers: o.workers,
		gov: resource.NewGovernor(resource.Config{
			InflightLimitBytes:   o.inflightLimit,
			MaxTransferSlots:     o.maxSessions,
			BandwidthBytesPerSec: o.bandwidthLimit,
		}),
		logger: o.logger,
	}
}

var (
	defaultOnce   sync.Once
	defaultEngine *Engine
)

// Default returns the lazily created process-wide engine over local files.
// Streams fall back to it when no engine is injected explicitly.
func Default() *Engine {
	defaultOnce.Do(func() {
		defaultEngine = New()
	})
	return defaultEngine
}

// Stat queries source metadata on the caller's path.
func (e *Engine) Stat(ctx context.Context, name string) (Info, error) {
	e.mu.RLock()
	closed := e.closed
	e.mu.RUnlock()

	if closed {
		return Info{}, ErrClosed
	}
	return e.opener.Stat(ctx, name)
}

// Submit launches the transfer of one ordered batch and returns its Ticket
// immediately. The transfer runs on a background goroutine; canceling ctx
// aborts it, failing the ticket. An empty batch completes trivially.
func (e *Engine) Submit(ctx context.Context, name string, reqs []Request) *Ticket {
	t := newTicket(reqs)

	// The read lock spans the closed check and wg.Add so no session is
	// admitted once Close holds the write lock.
	e.mu.RLock()
	if e.closed {
		e.mu.RUnlock()
		t.finish(ErrClosed)
		return t
	}
	if len(reqs) == 0 {
		e.mu.RUnlock()
		t.finish(nil)
		return t
	}
	e.wg.Add(1)
	e.mu.RUnlock()

	go e.run(ctx, name, reqs, t)
	return t
}

// Close marks the engine closed and drains in-flight sessions. Subsequent
// Stat and Submit calls fail with ErrClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

func (e *Engine) run(ctx context.Context, name string, reqs []Request, t *Ticket) {
	defer e.wg.Done()

	start := time.Now()

	if err := e.gov.AcquireSlot(ctx); err != nil {
		t.finish(err)
		return
	}
	defer e.gov.ReleaseSlot()

	src, err := e.opener.Open(ctx, name)
	if err != nil {
		e.logger.ErrorContext(ctx, "source open failed",
			"name", name,
			"error", err,
		)
		t.finish(fmt.Errorf("open %s: %w", name, err))
		return
	}
	defer src.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			size := int64(len(req.Dst))
			if err := e.gov.AcquireInflight(gctx, size); err != nil {
				return err
			}
			defer e.gov.ReleaseInflight(size)

			if err := e.gov.AcquireBandwidth(gctx, len(req.Dst)); err != nil {
				return err
			}

			n, err := src.ReadAt(req.Dst, req.Offset)
			if n == len(req.Dst) {
				// A full read is success even when it coincides with EOF.
				t.complete(i)
				return nil
			}
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return fmt.Errorf("chunk %d at offset %d: %w", i, req.Offset, err)
		})
	}

	err = g.Wait()
	t.finish(err)

	e.logger.DebugContext(ctx, "transfer finished",
		"name", name,
		"chunks", len(reqs),
		"bytes", t.Progress(),
		"duration", time.Since(start),
		"error", err,
	)
}
