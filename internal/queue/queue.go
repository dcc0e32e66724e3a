package queue

import (
	"errors"
	"sync"
)

// ErrClosed is returned by [Queue.Put] after [Queue.Close] has been called.
var ErrClosed = errors.New("queue: put on closed queue")

// Queue is an unbounded FIFO queue safe for concurrent use.
//
// Every item handed out by [Queue.Take] must be acknowledged with exactly one
// call to [Queue.Done]. [Queue.Join] blocks until every item ever put has been
// acknowledged. Re-queueing an item is a fresh Put and must happen before the
// current take is acknowledged, otherwise Join may resolve early.
type Queue[T any] struct {
	mu         sync.Mutex
	notEmpty   *sync.Cond
	drained    *sync.Cond
	items      []T
	unfinished int
	closed     bool
}

// New creates an empty [Queue].
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.notEmpty = sync.NewCond(&q.mu)
	q.drained = sync.NewCond(&q.mu)
	return q
}

// Put appends an item without blocking.
func (q *Queue[T]) Put(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.items = append(q.items, item)
	q.unfinished++
	q.notEmpty.Signal()
	return nil
}

// Take removes and returns the oldest item, blocking while the queue is empty.
//
// ok is false once the queue is closed and has no items left; the caller
// must not call Done in that case.
func (q *Queue[T]) Take() (item T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return item, false
	}

	item = q.items[0]
	var zero T
	q.items[0] = zero // release reference for GC
	q.items = q.items[1:]
	return item, true
}

// Done marks one previously taken item as processed.
//
// Panics if called more times than items were put, which indicates a worker
// acknowledging the same take twice.
func (q *Queue[T]) Done() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.unfinished <= 0 {
		panic("queue: Done called too many times")
	}
	q.unfinished--
	if q.unfinished == 0 {
		q.drained.Broadcast()
	}
}

// Join blocks until every item put on the queue has been marked done.
// Returns immediately if nothing is outstanding.
func (q *Queue[T]) Join() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.unfinished > 0 {
		q.drained.Wait()
	}
}

// Close stops the queue from accepting new items and wakes every blocked
// [Queue.Take]. Items already queued are still handed out. Safe to call
// multiple times.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
}

// Len returns the number of items waiting to be taken.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns the number of items put but not yet marked done.
func (q *Queue[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.unfinished
}
