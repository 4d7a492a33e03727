// Package api
// Author: momentics@gmail.com
//
// Lock-free ring buffer contract for cross-goroutine producer/consumer lanes.

package api

import "iter"

// Ring is a lock-free ring buffer contract.
type Ring[T any] interface {
	// Enqueue adds an item, returns false if full.
	Enqueue(item T) bool
	// Dequeue removes oldest item, returns false if empty.
	Dequeue() (T, bool)
	// Len returns current number of items.
	Len() int
	// Cap returns buffer capacity.
	Cap() int
}

// BulkRing extends Ring with batch transfer used by descriptor lanes.
// Both methods are non-blocking.
type BulkRing[T any] interface {
	Ring[T]
	// EnqueueMany inserts as many items as fit and returns how many were accepted.
	EnqueueMany(items []T) int
	// PopIter yields the items available at call time, oldest first.
	// Breaking out of the loop leaves the remaining items queued.
	PopIter() iter.Seq[T]
}
