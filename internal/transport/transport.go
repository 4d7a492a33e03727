// Package transport
// Author: momentics <momentics@gmail.com>
//
// Core is the state every socket engine carries: a slot pool for received
// frames, the received length of each slot and the socket counters.
// Everything except Stats and Payload runs on the socket goroutine.

package transport

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/mpsc"
	"github.com/momentics/hioload-pktio/pool"
)

// Options carries ambient collaborators shared by all engines.
type Options struct {
	Logger   *zap.Logger
	Observer mpsc.Observer
}

// Core implements the slot bookkeeping of api.Socket.
type Core struct {
	Name  string
	Queue int
	Log   *zap.Logger

	pool *pool.SlotPool
	lens []int

	received atomic.Uint64
	sent     atomic.Uint64
	dropped  atomic.Uint64
	closed   atomic.Bool
}

// NewCore allocates the receive slots described by flags.
func NewCore(name string, queue int, flags api.BufferFlags, opts Options) (*Core, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	p, err := pool.NewSlotPool(flags, mpsc.Config{Logger: log, Observer: opts.Observer})
	if err != nil {
		return nil, err
	}
	return &Core{
		Name:  name,
		Queue: queue,
		Log:   log.With(zap.String("socket", name), zap.Int("queue", queue)),
		pool:  p,
		lens:  make([]int, flags.FrameCount),
	}, nil
}

// Claim takes a free receive slot and returns its full frame.
// It fails with api.ErrNoMemory when the caller still holds every slot.
func (c *Core) Claim() (api.Descriptor, []byte, error) {
	d, frame, ok := c.pool.Alloc()
	if !ok {
		return 0, nil, api.ErrNoMemory
	}
	return d, frame, nil
}

// Unclaim gives back a slot that was claimed but not filled.
func (c *Core) Unclaim(d api.Descriptor) {
	c.pool.Release(d)
}

// Deliver records n received bytes in slot d and wraps it as a packet.
// wireLen is the original frame length and may exceed n.
func (c *Core) Deliver(d api.Descriptor, n, wireLen int, ts time.Time) api.Packet {
	c.lens[d] = n
	c.received.Add(1)
	if ts.IsZero() {
		ts = time.Now()
	}
	meta := api.Meta{Timestamp: ts, Length: wireLen, Queue: c.Queue}
	return api.NewPacket(d, c.pool.Frame(d)[:n], meta, c.pool)
}

// Payload returns the received bytes of slot d.
func (c *Core) Payload(d api.Descriptor) []byte {
	return c.pool.Frame(d)[:c.lens[d]]
}

// FrameSize returns the slot size.
func (c *Core) FrameSize() int { return c.pool.FrameSize() }

// Releaser returns a cross-goroutine release handle.
func (c *Core) Releaser() (api.ReleaseHandle, error) {
	return c.pool.Releaser()
}

// Recycle makes locally released slots allocatable again.
func (c *Core) Recycle() { c.pool.Recycle() }

// CountSent adds n transmitted frames.
func (c *Core) CountSent(n int) { c.sent.Add(uint64(n)) }

// CountDropped adds n frames lost by the engine.
func (c *Core) CountDropped(n int) { c.dropped.Add(uint64(n)) }

// Stats returns a snapshot of the counters; safe from any goroutine.
func (c *Core) Stats() api.SocketStats {
	return api.SocketStats{
		Received: c.received.Load(),
		Sent:     c.sent.Load(),
		Dropped:  c.dropped.Load(),
		NoMemory: c.pool.Exhausted(),
	}
}

// Closed reports whether Shutdown already ran.
func (c *Core) Closed() bool { return c.closed.Load() }

// Shutdown marks the core closed and deregisters its release lane.
// It returns false when the core was already closed.
func (c *Core) Shutdown() (bool, error) {
	if !c.closed.CompareAndSwap(false, true) {
		return false, nil
	}
	c.Log.Info("socket closed",
		zap.Uint64("received", c.received.Load()),
		zap.Uint64("sent", c.sent.Load()),
		zap.Uint64("dropped", c.dropped.Load()))
	return true, c.pool.Close()
}
