// Package queue provides the unbounded FIFO work queue that connects the
// StatusTally pipeline stages.
//
// A [Queue] supports non-blocking puts, blocking takes, per-item completion
// via [Queue.Done], and a drain barrier via [Queue.Join]. Workers stop when
// the queue is closed and empty, so no sentinel values travel through it.
package queue
