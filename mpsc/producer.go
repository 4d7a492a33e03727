// File: mpsc/producer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mpsc

import "github.com/momentics/hioload-pktio/api"

// Producer is the send side of one lane plus a local batch.
// A Producer belongs to one goroutine at a time; use Clone to get another.
type Producer[T api.Index] struct {
	lane    *lane
	reg     *registry
	buf     []api.Descriptor
	dropped uint64
	closed  bool
}

func newProducer[T api.Index](l *lane, reg *registry, batch int) *Producer[T] {
	return &Producer[T]{
		lane: l,
		reg:  reg,
		buf:  make([]api.Descriptor, 0, batch),
	}
}

// Push converts elem into a descriptor and buffers it, flushing once the
// batch is full.
func (p *Producer[T]) Push(elem T) {
	if p.closed {
		panic("mpsc: push on closed producer")
	}
	p.buf = append(p.buf, api.Descriptor(elem))
	if len(p.buf) == cap(p.buf) {
		p.Flush()
	}
}

// Flush moves the local batch into the lane and returns how many
// descriptors were dropped because the lane was full.
func (p *Producer[T]) Flush() int {
	if len(p.buf) == 0 {
		return 0
	}
	accepted := p.lane.ring.EnqueueMany(p.buf)
	dropped := len(p.buf) - accepted
	p.buf = p.buf[:0]
	p.dropped += uint64(dropped)
	p.reg.obs.Flushed(accepted, dropped)
	return dropped
}

// Clone registers a new lane with the channel's lane capacity and returns a
// Producer owning it. It fails with api.ErrRegistryFull once MaxLanes lanes
// are held.
func (p *Producer[T]) Clone() (*Producer[T], error) {
	l, err := p.reg.register()
	if err != nil {
		return nil, err
	}
	return newProducer[T](l, p.reg, cap(p.buf)), nil
}

// MustClone is like Clone but panics when the registry is full.
func (p *Producer[T]) MustClone() *Producer[T] {
	c, err := p.Clone()
	if err != nil {
		panic(err)
	}
	return c
}

// Close flushes the batch and deregisters the lane. Descriptors already in
// the lane stay visible to the Consumer until drained.
func (p *Producer[T]) Close() error {
	if p.closed {
		return nil
	}
	p.Flush()
	p.reg.remove(p.lane.id)
	p.closed = true
	return nil
}

// ID returns the lane identity.
func (p *Producer[T]) ID() uint64 { return p.lane.id }

// Buffered returns descriptors waiting in the local batch.
func (p *Producer[T]) Buffered() int { return len(p.buf) }

// Dropped returns descriptors lost to full-lane flushes so far.
func (p *Producer[T]) Dropped() uint64 { return p.dropped }
