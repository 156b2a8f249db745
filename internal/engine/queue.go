package engine

import (
	"sync"

	"github.com/roach88/animeval/internal/anim"
)

// Update asks for the world to be evaluated at Time.
type Update struct {
	Time float64
	// Mask selects the stages to run. Zero means anim.RecalcAll.
	Mask anim.RecalcFlags
}

// updateQueue is an unbounded FIFO of scene updates. Enqueue is safe from
// any goroutine; a single Player goroutine dequeues.
//
// The signal channel has a buffer of one so repeated enqueues coalesce into
// one wake-up, and it is closed on Close to wake the waiter.
type updateQueue struct {
	mu      sync.Mutex
	updates []Update
	closed  bool
	signal  chan struct{}
}

func newUpdateQueue() *updateQueue {
	return &updateQueue{
		updates: make([]Update, 0, 64),
		signal:  make(chan struct{}, 1),
	}
}

// Enqueue appends u. It returns false once the queue is closed.
func (q *updateQueue) Enqueue(u Update) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.updates = append(q.updates, u)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes the front update without blocking.
func (q *updateQueue) TryDequeue() (Update, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.updates) == 0 {
		return Update{}, false
	}
	u := q.updates[0]
	if len(q.updates) == 1 {
		q.updates = q.updates[:0]
	} else {
		q.updates = q.updates[1:]
	}
	return u, true
}

// Wait returns a channel that fires when updates may be available.
func (q *updateQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the number of queued updates.
func (q *updateQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.updates)
}

// Close stops further enqueues. Queued updates can still be dequeued.
func (q *updateQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
