// Package queue holds the FIFO that carries host input from reader goroutines
// to the frame loop.
package queue

import "sync"

// Queue is a mutex-guarded FIFO. When limit is positive, TryPush refuses
// items once that many are waiting.
type Queue[T any] struct {
	mu      sync.Mutex
	pending []T
	limit   int
}

// NewBounded returns a queue holding at most limit items. A limit of zero or
// less leaves it unbounded.
func NewBounded[T any](limit int) *Queue[T] {
	return &Queue[T]{limit: limit}
}

// TryPush appends item, or reports false when the queue is full.
func (q *Queue[T]) TryPush(item T) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.limit > 0 && len(q.pending) >= q.limit {
		return false
	}
	q.pending = append(q.pending, item)
	return true
}

func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// take swaps out the pending slice.
func (q *Queue[T]) take() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.pending
	q.pending = nil
	return out
}

// Drain hands every waiting item to fn in arrival order and returns how many
// it handled. fn runs without the lock, so it may push; those items wait for
// the next Drain.
func (q *Queue[T]) Drain(fn func(T)) int {
	items := q.take()
	for _, it := range items {
		fn(it)
	}
	return len(items)
}
