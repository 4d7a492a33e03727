// File: internal/concurrency/ring.go
// Package concurrency implements lock-free ring buffers.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// RingBuffer is a bounded circular buffer with atomic head/tail,
// padded to prevent false sharing. One goroutine enqueues, one dequeues.
// Implements api.BulkRing for descriptor lanes.

package concurrency

import (
	"iter"
	"sync/atomic"

	"github.com/momentics/hioload-pktio/api"
)

// Ensure compile-time interface compliance.
var _ api.BulkRing[any] = (*RingBuffer[any])(nil)

// RingBuffer is a lock-free ring buffer (single-producer, single-consumer safe).
//
// Storage is rounded up to a power of two for masking, but fullness is
// checked against the requested capacity, so Cap reports exactly what the
// caller asked for.
type RingBuffer[T any] struct {
	data     []T
	mask     uint64
	capacity uint64
	head     atomic.Uint64
	_        [64]byte // Padding for hot/cold separation
	tail     atomic.Uint64
	_        [64]byte // Padding to separate tail from other data
}

// NewRingBuffer allocates a ring buffer holding at most size items.
func NewRingBuffer[T any](size uint64) *RingBuffer[T] {
	if size == 0 {
		panic("ring buffer size must be positive")
	}
	storage := uint64(1)
	for storage < size {
		storage <<= 1
	}
	return &RingBuffer[T]{
		data:     make([]T, storage),
		mask:     storage - 1,
		capacity: size,
	}
}

// Enqueue adds item; returns false if full.
func (r *RingBuffer[T]) Enqueue(item T) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if tail-head >= r.capacity {
		return false
	}
	r.data[tail&r.mask] = item
	r.tail.Store(tail + 1)
	return true
}

// EnqueueMany copies as many items as fit and publishes them with a single
// tail store. It returns the number accepted; the rest are left to the caller.
func (r *RingBuffer[T]) EnqueueMany(items []T) int {
	head := r.head.Load()
	tail := r.tail.Load()
	free := r.capacity - (tail - head)
	n := uint64(len(items))
	if n > free {
		n = free
	}
	for i := uint64(0); i < n; i++ {
		r.data[(tail+i)&r.mask] = items[i]
	}
	if n > 0 {
		r.tail.Store(tail + n)
	}
	return int(n)
}

// Dequeue removes and returns item; ok false if empty.
func (r *RingBuffer[T]) Dequeue() (T, bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head >= tail {
		var zero T
		return zero, false
	}
	item := r.data[head&r.mask]
	r.head.Store(head + 1)
	return item, true
}

// PopIter yields the items present when iteration starts. Slots are handed
// back to the producer once the loop ends, early break included.
func (r *RingBuffer[T]) PopIter() iter.Seq[T] {
	return func(yield func(T) bool) {
		head := r.head.Load()
		tail := r.tail.Load()
		start := head
		defer func() {
			if head != start {
				r.head.Store(head)
			}
		}()
		for head < tail {
			item := r.data[head&r.mask]
			head++
			if !yield(item) {
				return
			}
		}
	}
}

// Len returns number of items currently in buffer.
func (r *RingBuffer[T]) Len() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int(tail - head)
}

// Cap returns fixed buffer capacity.
func (r *RingBuffer[T]) Cap() int {
	return int(r.capacity)
}
