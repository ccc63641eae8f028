package bigio

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with bigio-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithPath adds a path field to the logger.
func (l *Logger) WithPath(path string) *Logger {
	return &Logger{
		Logger: l.Logger.With("path", path),
	}
}

// WithChunks adds a chunk count field to the logger.
func (l *Logger) WithChunks(chunks int) *Logger {
	return &Logger{
		Logger: l.Logger.With("chunks", chunks),
	}
}

// WithBytes adds a byte count field to the logger.
func (l *Logger) WithBytes(bytes int64) *Logger {
	return &Logger{
		Logger: l.Logger.With("bytes", bytes),
	}
}

// LogOpen logs a stream open.
func (l *Logger) LogOpen(ctx context.Context, path string, size int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "open failed",
			"path", path,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "stream opened",
			"path", path,
			"size", size,
		)
	}
}

// LogTransfer logs the completion of a transfer batch.
func (l *Logger) LogTransfer(ctx context.Context, path string, bytes int64, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "transfer failed",
			"path", path,
			"bytes", bytes,
			"duration", duration,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "transfer completed",
			"path", path,
			"bytes", bytes,
			"duration", duration,
		)
	}
}

// LogGrow logs a mapping growth.
func (l *Logger) LogGrow(path string, from, to int64) {
	l.Debug("mapping grown",
		"path", path,
		"from", from,
		"to", to,
	)
}

// LogClose logs a stream close.
func (l *Logger) LogClose(path string, err error) {
	if err != nil {
		l.Error("close failed",
			"path", path,
			"error", err,
		)
	} else {
		l.Debug("stream closed",
			"path", path,
		)
	}
}
