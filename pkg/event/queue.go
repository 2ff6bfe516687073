package event

import "sync"

// Queue is an unbounded multi-producer, single-consumer queue. Producers never
// block and nothing is dropped; the consumer waits on Ready and takes
// everything buffered with Drain.
type Queue[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	closed bool
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{ready: make(chan struct{}, 1)}
}

// Send appends v. It returns false once the queue is closed.
func (q *Queue[T]) Send(v T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.items = append(q.items, v)
	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready fires when items may be available. After Close it stays ready forever.
func (q *Queue[T]) Ready() <-chan struct{} {
	return q.ready
}

// Drain returns all buffered items in send order and whether the queue has
// been closed.
func (q *Queue[T]) Drain() ([]T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items, q.closed
}

// Len reports how many items are buffered.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ready)
}
