package engine

import (
	"io"
	"log/slog"
)

const (
	defaultWorkers     = 8
	defaultMaxSessions = 4
)

type options struct {
	opener         Opener
	workers        int
	maxSessions    int64
	inflightLimit  int64
	bandwidthLimit int64
	logger         *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithOpener sets the source resolver. Defaults to a LocalOpener over
// plain paths.
func WithOpener(o Opener) Option {
	return func(op *options) {
		if o != nil {
			op.opener = o
		}
	}
}

// WithWorkers sets the per-session chunk fan-out. Defaults to 8.
func WithWorkers(n int) Option {
	return func(op *options) {
		if n > 0 {
			op.workers = n
		}
	}
}

// WithMaxSessions caps concurrent transfer sessions. Defaults to 4.
func WithMaxSessions(n int) Option {
	return func(op *options) {
		if n > 0 {
			op.maxSessions = int64(n)
		}
	}
}

// WithInflightLimit caps the chunk bytes staged in flight at once across
// all sessions. 0 (the default) means uncapped.
func WithInflightLimit(bytes int64) Option {
	return func(op *options) {
		if bytes > 0 {
			op.inflightLimit = bytes
		}
	}
}

// WithBandwidthLimit throttles transfer throughput in bytes per second.
// 0 (the default) means unlimited.
func WithBandwidthLimit(bytesPerSec int64) Option {
	return func(op *options) {
		if bytesPerSec > 0 {
			op.bandwidthLimit = bytesPerSec
		}
	}
}

// WithLogger sets the structured logger. Defaults to a discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(op *options) {
		if l != nil {
			op.logger = l
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		opener:      NewLocalOpener(),
		workers:     defaultWorkers,
		maxSessions: defaultMaxSessions,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
