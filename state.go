package bigio

import "fmt"

// State describes the lifecycle of a chunked stream's transfer batch.
type State int

const (
	// StateIdle means no transfer has been launched.
	StateIdle State = iota
	// StateLaunched means the batch is submitted but no chunk has
	// completed yet.
	StateLaunched
	// StateReading means at least one chunk has arrived and more are
	// outstanding.
	StateReading
	// StateCompleted means every byte of the file is readable.
	StateCompleted
	// StateFailed means the transfer stopped on an error. Bytes ahead
	// of the contiguous prefix are gone; bytes behind it stay readable.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLaunched:
		return "launched"
	case StateReading:
		return "reading"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}
