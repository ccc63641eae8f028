package engine

import "errors"

var (
	// ErrClosed is returned when submitting to or querying a closed engine.
	ErrClosed = errors.New("engine: closed")

	// ErrNotFound is returned by Openers when the named source does not exist.
	ErrNotFound = errors.New("engine: source not found")
)
