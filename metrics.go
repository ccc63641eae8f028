package bigio

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    openCounter       prometheus.Counter
//	    transferHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordOpen(duration time.Duration, err error) {
//	    p.openCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordOpen is called after each stream open.
	// duration is the time until the transfer was launched, err is nil
	// if successful.
	RecordOpen(duration time.Duration, err error)

	// RecordTransfer is called when a transfer batch reaches a terminal
	// state. bytes is the contiguous prefix delivered.
	RecordTransfer(bytes int64, duration time.Duration, err error)

	// RecordGrow is called when a write mapping grows.
	RecordGrow(from, to int64)

	// RecordRelease is called when a stream's buffer is handed back.
	RecordRelease(bytes int64, duration time.Duration)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordOpen(time.Duration, error)            {}
func (NoopMetricsCollector) RecordTransfer(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordGrow(int64, int64)                    {}
func (NoopMetricsCollector) RecordRelease(int64, time.Duration)         {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	OpenCount          atomic.Int64
	OpenErrors         atomic.Int64
	TransferCount      atomic.Int64
	TransferErrors     atomic.Int64
	TransferBytes      atomic.Int64
	TransferTotalNanos atomic.Int64
	GrowCount          atomic.Int64
	ReleaseCount       atomic.Int64
	ReleaseBytes       atomic.Int64
}

// RecordOpen implements MetricsCollector.
func (b *BasicMetricsCollector) RecordOpen(duration time.Duration, err error) {
	b.OpenCount.Add(1)
	if err != nil {
		b.OpenErrors.Add(1)
	}
}

// RecordTransfer implements MetricsCollector.
func (b *BasicMetricsCollector) RecordTransfer(bytes int64, duration time.Duration, err error) {
	b.TransferCount.Add(1)
	b.TransferBytes.Add(bytes)
	b.TransferTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TransferErrors.Add(1)
	}
}

// RecordGrow implements MetricsCollector.
func (b *BasicMetricsCollector) RecordGrow(from, to int64) {
	b.GrowCount.Add(1)
}

// RecordRelease implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRelease(bytes int64, duration time.Duration) {
	b.ReleaseCount.Add(1)
	b.ReleaseBytes.Add(bytes)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		OpenCount:        b.OpenCount.Load(),
		OpenErrors:       b.OpenErrors.Load(),
		TransferCount:    b.TransferCount.Load(),
		TransferErrors:   b.TransferErrors.Load(),
		TransferBytes:    b.TransferBytes.Load(),
		TransferAvgNanos: b.getAvgTransferNanos(),
		GrowCount:        b.GrowCount.Load(),
		ReleaseCount:     b.ReleaseCount.Load(),
		ReleaseBytes:     b.ReleaseBytes.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgTransferNanos() int64 {
	count := b.TransferCount.Load()
	if count == 0 {
		return 0
	}
	return b.TransferTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	OpenCount        int64
	OpenErrors       int64
	TransferCount    int64
	TransferErrors   int64
	TransferBytes    int64
	TransferAvgNanos int64
	GrowCount        int64
	ReleaseCount     int64
	ReleaseBytes     int64
}
