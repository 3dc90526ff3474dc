// Package queue implements an unbounded lock-free concurrent FIFO queue for
// multi-producer, multi-consumer use.
//
// The queue is a Michael-Scott linked queue built on atomic.Pointer: producers
// CAS new nodes onto the tail, consumers CAS the head forward, and both sides
// help a lagging tail along. There is no blocking anywhere; a failed CAS is
// retried against the fresh state.
//
// The reclamation engine uses one queue per size class as the global overflow
// pool. Consumers there must not remove an item whose epoch tag is still too
// young, so in addition to Dequeue the queue offers DequeueIf, which removes
// the head element only when a predicate approves it.
package queue

import "sync/atomic"

// node is a single queue link. The first node is always a dummy; its value is
// meaningless until the node is dequeued past.
type node[T any] struct {
	value T
	next  atomic.Pointer[node[T]]
}

// Queue is an unbounded MPMC FIFO queue.
//
// The zero value is not usable; construct with New.
type Queue[T any] struct {
	head atomic.Pointer[node[T]]
	tail atomic.Pointer[node[T]]
	size atomic.Int64
}

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	dummy := &node[T]{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Enqueue appends value at the tail of the queue.
//
// Safe for concurrent use by any number of producers.
func (q *Queue[T]) Enqueue(value T) {
	n := &node[T]{value: value}

	for {
		tail := q.tail.Load()
		next := tail.next.Load()

		// Re-check tail is still the tail before acting on it.
		if tail != q.tail.Load() {
			continue
		}

		if next != nil {
			// Tail is lagging - help advance it and retry.
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		if tail.next.CompareAndSwap(nil, n) {
			// Linked. Swing the tail; losing this CAS is fine, someone helped.
			q.tail.CompareAndSwap(tail, n)
			q.size.Add(1)
			return
		}
	}
}

// Dequeue removes and returns the oldest value in the queue.
// The second result is false when the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	return q.DequeueIf(nil)
}

// DequeueIf removes the oldest value only if pred approves it. A nil pred
// approves everything.
//
// When the head value fails the predicate, nothing is removed and false is
// returned. Since the engine's pool sequences carry monotonically tagged
// items, a rejected head means no deeper item would pass either, so callers
// stop instead of scanning.
func (q *Queue[T]) DequeueIf(pred func(T) bool) (T, bool) {
	var zero T
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()

		if head != q.head.Load() {
			continue
		}

		if head == tail {
			if next == nil {
				return zero, false // empty
			}
			// Tail is falling behind - help advance it.
			q.tail.CompareAndSwap(tail, next)
			continue
		}

		if pred != nil && !pred(next.value) {
			return zero, false
		}

		if q.head.CompareAndSwap(head, next) {
			q.size.Add(-1)
			// next is the new dummy; its value stays referenced until the
			// following dequeue, which is harmless for GC-managed payloads.
			return next.value, true
		}
	}
}

// Len returns the number of values currently queued.
//
// The count is maintained with a separate atomic counter, so under concurrent
// mutation it is a point-in-time approximation.
func (q *Queue[T]) Len() int {
	n := q.size.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Empty reports whether the queue has no values.
func (q *Queue[T]) Empty() bool {
	return q.head.Load().next.Load() == nil
}
