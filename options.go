package bigio

import (
	"log/slog"

	"github.com/hupe1980/bigio/engine"
)

const (
	// DefaultChunkSize is the transfer request size for chunked streams
	// when neither the caller nor the source supplies one.
	DefaultChunkSize int64 = 64 * 1024 * 1024

	// DefaultReserveSize is the initial capacity of a write mapping.
	DefaultReserveSize int64 = 16 * 1024 * 1024
)

type options struct {
	engine           *engine.Engine
	chunkSize        int64
	reserveSize      int64
	metricsCollector MetricsCollector
	logger           *Logger
	syncRelease      bool
	spinWait         bool
}

// Option configures stream open/create behavior.
type Option func(*options)

// WithEngine selects the transfer engine for chunked streams. Without
// it, streams share the lazily created process-wide engine over local
// files.
func WithEngine(e *engine.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithChunkSize sets the transfer request size for chunked streams.
// It takes precedence over the chunk size hint of the source. Values
// below one are ignored.
func WithChunkSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithReserveSize sets the initial capacity of a write mapping. The
// mapping still grows on demand; a good reserve just avoids early
// remaps. Values below one are ignored.
func WithReserveSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.reserveSize = n
		}
	}
}

// WithSyncRelease makes Close unmap the stream's buffer before
// returning instead of deferring the release to a background
// goroutine. Deferred release keeps Close latency flat for
// multi-gigabyte buffers; synchronous release gives deterministic
// memory accounting.
func WithSyncRelease() Option {
	return func(o *options) {
		o.syncRelease = true
	}
}

// WithSpinWait makes blocking waits spin with yields instead of
// sleeping on a condition variable. Spinning trades CPU for latency
// and only pays off when chunks arrive at microsecond cadence.
func WithSpinWait() Option {
	return func(o *options) {
		o.spinWait = true
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// stream operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &bigio.BasicMetricsCollector{}
//	s, _ := bigio.OpenChunked(ctx, path, bigio.WithMetricsCollector(metrics))
//	// ... use s ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for stream operations.
//
// Example with JSON logging:
//
//	logger := bigio.NewJSONLogger(slog.LevelInfo)
//	s, _ := bigio.OpenChunked(ctx, path, bigio.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		reserveSize:      DefaultReserveSize,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
