package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds transfer resource limits.
type Config struct {
	// InflightLimitBytes is the hard cap on transfer bytes staged in
	// flight at once. If 0, no cap is enforced (usage is still tracked).
	InflightLimitBytes int64

	// MaxTransferSlots is the maximum number of concurrent transfer
	// sessions. If 0, defaults to 1.
	MaxTransferSlots int64

	// BandwidthBytesPerSec is the maximum transfer throughput.
	// If 0, unlimited.
	BandwidthBytesPerSec int64
}

// Governor enforces the limits in Config. A nil *Governor is valid and
// imposes no limits.
type Governor struct {
	cfg Config

	inflightSem *semaphore.Weighted // nil if uncapped
	inflight    atomic.Int64

	slotSem *semaphore.Weighted

	bw *rate.Limiter
}

// NewGovernor creates a Governor for the given limits.
func NewGovernor(cfg Config) *Governor {
	if cfg.MaxTransferSlots <= 0 {
		cfg.MaxTransferSlots = 1
	}

	g := &Governor{
		cfg:     cfg,
		slotSem: semaphore.NewWeighted(cfg.MaxTransferSlots),
	}

	if cfg.InflightLimitBytes > 0 {
		g.inflightSem = semaphore.NewWeighted(cfg.InflightLimitBytes)
	}

	if cfg.BandwidthBytesPerSec > 0 {
		g.bw = rate.NewLimiter(rate.Limit(cfg.BandwidthBytesPerSec), int(cfg.BandwidthBytesPerSec))
	}

	return g
}

// AcquireInflight reserves staging bytes, blocking while the in-flight cap
// is exhausted or until ctx is canceled.
func (g *Governor) AcquireInflight(ctx context.Context, bytes int64) error {
	if g == nil || bytes <= 0 {
		return nil
	}

	if g.inflightSem != nil {
		if err := g.inflightSem.Acquire(ctx, bytes); err != nil {
			return err
		}
	}

	g.inflight.Add(bytes)
	return nil
}

// TryAcquireInflight reserves staging bytes without blocking.
// It reports whether the reservation succeeded.
func (g *Governor) TryAcquireInflight(bytes int64) bool {
	if g == nil || bytes <= 0 {
		return true
	}

	if g.inflightSem != nil {
		if !g.inflightSem.TryAcquire(bytes) {
			return false
		}
	}

	g.inflight.Add(bytes)
	return true
}

// ReleaseInflight returns staging bytes to the budget.
func (g *Governor) ReleaseInflight(bytes int64) {
	if g == nil || bytes <= 0 {
		return
	}

	if g.inflightSem != nil {
		g.inflightSem.Release(bytes)
	}
	g.inflight.Add(-bytes)
}

// InflightBytes returns the bytes currently staged in flight.
func (g *Governor) InflightBytes() int64 {
	if g == nil {
		return 0
	}
	return g.inflight.Load()
}

// AcquireSlot reserves a transfer session slot, blocking while all slots
// are busy.
func (g *Governor) AcquireSlot(ctx context.Context) error {
	if g == nil {
		return nil
	}
	return g.slotSem.Acquire(ctx, 1)
}

// TryAcquireSlot reserves a transfer session slot without blocking.
func (g *Governor) TryAcquireSlot() bool {
	if g == nil {
		return true
	}
	return g.slotSem.TryAcquire(1)
}

// ReleaseSlot returns a transfer session slot.
func (g *Governor) ReleaseSlot() {
	if g == nil {
		return
	}
	g.slotSem.Release(1)
}

// AcquireBandwidth waits until the throughput limit allows n more bytes.
// Requests larger than the limiter burst are drained in burst-sized steps.
func (g *Governor) AcquireBandwidth(ctx context.Context, n int) error {
	if g == nil || g.bw == nil || n <= 0 {
		return nil
	}

	burst := g.bw.Burst()
	for n > 0 {
		take := n
		if take > burst {
			take = burst
		}
		if err := g.bw.WaitN(ctx, take); err != nil {
			return err
		}
		n -= take
	}
	return nil
}
