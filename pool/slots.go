// File: pool/slots.go
// Package pool implements fixed-size frame slots indexed by descriptor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// A SlotPool carves one slab into FrameCount frames of FrameSize bytes.
// Free slots travel as descriptors through an mpsc channel: the owning
// goroutine allocates from the consumer side, while releases arrive through
// the local producer or through per-goroutine clones handed out by Releaser.
// Every lane is sized to FrameCount, so no release can overflow a lane.

package pool

import (
	"sync/atomic"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/mpsc"
)

// SlotPool owns the frames of one socket.
type SlotPool struct {
	slab      []byte
	frameSize int
	count     int

	free  *mpsc.Consumer[api.Descriptor]
	local *mpsc.Producer[api.Descriptor]

	totalAlloc atomic.Uint64
	exhausted  atomic.Uint64
}

// NewSlotPool allocates the slab and marks every slot free.
// cfg supplies logger and observer; its limits are derived from flags.
func NewSlotPool(flags api.BufferFlags, cfg mpsc.Config) (*SlotPool, error) {
	if flags.FrameSize <= 0 || flags.FrameCount <= 0 {
		return nil, api.NewError(api.ErrCodeInvalidArgument, "pool: frame size and count must be positive").
			WithContext("frame_size", flags.FrameSize).
			WithContext("frame_count", flags.FrameCount).
			WithCause(api.ErrInvalidArgument)
	}
	cfg.LaneCapacity = flags.FrameCount
	if cfg.MaxLanes <= 0 {
		cfg.MaxLanes = mpsc.DefaultMaxLanes
	}
	if cfg.ProducerBatch <= 0 {
		cfg.ProducerBatch = mpsc.DefaultProducerBatch
	}
	if cfg.ConsumerCache <= 0 {
		cfg.ConsumerCache = mpsc.DefaultConsumerCache
	}
	local, free, err := mpsc.NewWithConfig[api.Descriptor](cfg)
	if err != nil {
		return nil, err
	}
	p := &SlotPool{
		slab:      newSlab(flags.FrameSize * flags.FrameCount),
		frameSize: flags.FrameSize,
		count:     flags.FrameCount,
		free:      free,
		local:     local,
	}
	for i := 0; i < flags.FrameCount; i++ {
		local.Push(api.Descriptor(i))
	}
	local.Flush()
	return p, nil
}

// Alloc takes a free slot. ok is false when every slot is in use.
func (p *SlotPool) Alloc() (d api.Descriptor, frame []byte, ok bool) {
	d, ok = p.free.Pop()
	if !ok {
		// Releases batched on this goroutine are not visible until flushed.
		if p.local.Buffered() == 0 {
			p.exhausted.Add(1)
			return 0, nil, false
		}
		p.local.Flush()
		if d, ok = p.free.Pop(); !ok {
			p.exhausted.Add(1)
			return 0, nil, false
		}
	}
	p.totalAlloc.Add(1)
	return d, p.Frame(d), true
}

// Frame returns the full-size frame of slot d.
func (p *SlotPool) Frame(d api.Descriptor) []byte {
	off := int(d) * p.frameSize
	return p.slab[off : off+p.frameSize : off+p.frameSize]
}

// Release returns slot d from the owning goroutine.
func (p *SlotPool) Release(d api.Descriptor) {
	p.local.Push(d)
}

// Releaser hands out a producer for releasing slots from another goroutine.
// The caller owns it and must Close it when done.
func (p *SlotPool) Releaser() (api.ReleaseHandle, error) {
	r, err := p.local.Clone()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Recycle makes locally released slots allocatable again.
func (p *SlotPool) Recycle() {
	p.local.Flush()
}

// FrameSize returns the byte size of each slot.
func (p *SlotPool) FrameSize() int { return p.frameSize }

// Count returns the number of slots.
func (p *SlotPool) Count() int { return p.count }

// Allocated returns slots handed out over the pool lifetime.
func (p *SlotPool) Allocated() uint64 { return p.totalAlloc.Load() }

// Exhausted returns Alloc calls that found no free slot.
func (p *SlotPool) Exhausted() uint64 { return p.exhausted.Load() }

// Close deregisters the local release lane.
func (p *SlotPool) Close() error {
	return p.local.Close()
}

var _ api.SlotReleaser = (*SlotPool)(nil)
