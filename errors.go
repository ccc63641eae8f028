package bigio

import (
	"errors"
	"fmt"

	"github.com/hupe1980/bigio/engine"
)

var (
	// ErrClosed is returned by operations on a closed stream.
	ErrClosed = errors.New("bigio: stream is closed")
	// ErrInvalidOffset is returned when a seek resolves to a negative
	// offset or an offset outside the addressable range.
	ErrInvalidOffset = errors.New("bigio: invalid offset")
	// ErrInvalidWhence is returned for an unknown seek whence.
	ErrInvalidWhence = errors.New("bigio: invalid whence")
	// ErrReadOnly is returned when writing to a read-mode stream.
	ErrReadOnly = errors.New("bigio: stream is read-only")
	// ErrWriteOnly is returned when reading from a write-mode stream.
	ErrWriteOnly = errors.New("bigio: stream is write-only")
	// ErrOpenFailure is returned when the source cannot be opened or
	// statted.
	ErrOpenFailure = errors.New("bigio: open failure")
	// ErrEngineUnavailable is returned when the transfer engine has
	// been shut down.
	ErrEngineUnavailable = errors.New("bigio: engine unavailable")
)

// TransferError reports a failed chunk transfer.
//
// The original underlying error can be accessed via errors.Unwrap.
type TransferError struct {
	Path  string
	cause error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("bigio: transfer of %s failed: %v", e.Path, e.cause)
}

func (e *TransferError) Unwrap() error { return e.cause }

func translateOpenError(err error, path string) error {
	if errors.Is(err, engine.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrEngineUnavailable, err)
	}

	return fmt.Errorf("%w: %s: %w", ErrOpenFailure, path, err)
}
