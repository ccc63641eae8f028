package engine

import (
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
)

// Ticket tracks completion of one submitted batch.
//
// Workers complete chunks in any order; the Ticket records them in a
// bitmap and advances a single monotonic frontier only across contiguous
// completed prefixes. The frontier for chunk i therefore becomes
// observable only once every prior chunk is complete.
//
// Blocking waiters park on a condition variable; Progress and Done are
// additionally mirrored in atomics for non-blocking and spin readers.
type Ticket struct {
	mu   sync.Mutex
	cond *sync.Cond

	ends      []int64         // cumulative destination end offset per chunk
	completed *roaring.Bitmap // chunk indexes finished out of order
	next      uint32          // first chunk index the frontier still waits for
	frontier  int64
	done      bool
	err       error

	progress atomic.Int64
	finished atomic.Bool
}

func newTicket(reqs []Request) *Ticket {
	t := &Ticket{
		ends:      make([]int64, len(reqs)),
		completed: roaring.New(),
	}
	var total int64
	for i, r := range reqs {
		total += int64(len(r.Dst))
		t.ends[i] = total
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// complete marks chunk i transferred and advances the frontier across any
// contiguous run it unlocks.
func (t *Ticket) complete(i int) {
	t.mu.Lock()
	t.completed.Add(uint32(i))

	advanced := false
	for int(t.next) < len(t.ends) && t.completed.Contains(t.next) {
		t.frontier = t.ends[t.next]
		t.next++
		advanced = true
	}
	if advanced {
		t.progress.Store(t.frontier)
		t.cond.Broadcast()
	}
	t.mu.Unlock()
}

// finish marks the ticket terminal. err is nil on full completion.
func (t *Ticket) finish(err error) {
	t.mu.Lock()
	if !t.done {
		t.done = true
		t.err = err
		t.finished.Store(true)
		t.cond.Broadcast()
	}
	t.mu.Unlock()
}

// Progress returns the contiguous completion frontier in bytes.
// Non-blocking.
func (t *Ticket) Progress() int64 {
	return t.progress.Load()
}

// Total returns the byte count of the whole submission.
func (t *Ticket) Total() int64 {
	if len(t.ends) == 0 {
		return 0
	}
	return t.ends[len(t.ends)-1]
}

// Chunks returns the number of requests in the submission.
func (t *Ticket) Chunks() int {
	return len(t.ends)
}

// Done reports whether the ticket is terminal. Non-blocking.
func (t *Ticket) Done() bool {
	return t.finished.Load()
}

// Err returns the terminal error, nil while in flight or on success.
func (t *Ticket) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// WaitFor blocks until the frontier reaches at least target bytes or the
// ticket is terminal, and returns the frontier. A terminal ticket may
// leave the frontier short of target.
func (t *Ticket) WaitFor(target int64) int64 {
	t.mu.Lock()
	for t.frontier < target && !t.done {
		t.cond.Wait()
	}
	f := t.frontier
	t.mu.Unlock()
	return f
}

// Wait blocks until the ticket is terminal and returns its error.
func (t *Ticket) Wait() error {
	t.mu.Lock()
	for !t.done {
		t.cond.Wait()
	}
	err := t.err
	t.mu.Unlock()
	return err
}
