// File: socket/pipe/pipe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package pipe is a software packet engine: sockets exchange frames over
// named in-process wires. It needs no privileges and serves tests, demos
// and loopback pipelines.

package pipe

import (
	"time"

	"go.uber.org/zap"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/internal/transport"
)

// Flags configures a pipe socket.
type Flags struct {
	api.BufferFlags `yaml:",inline"`
	TxBatch         int `yaml:"tx_batch"` // Frames staged before Send reports ErrNoMemory
	RxBurst         int `yaml:"rx_burst"` // Frames pulled from the wire per lock
	Depth           int `yaml:"depth"`    // Frames a wire holds; set by the first socket
}

// DefaultFlags returns sane defaults for loopback use.
func DefaultFlags() Flags {
	return Flags{
		BufferFlags: api.DefaultBufferFlags(),
		TxBatch:     32,
		RxBurst:     32,
		Depth:       4096,
	}
}

// Sock is a socket attached to a named wire.
type Sock struct {
	core  *transport.Core
	wire  *wire
	tx    *transport.TxBatch
	burst int
	rx    []*[]byte
	rxPos int
}

var _ api.Socket = (*Sock)(nil)

// Open attaches a socket to the wire called name.
func Open(name string, queue int, flags Flags, opts transport.Options) (*Sock, error) {
	def := DefaultFlags()
	if flags.TxBatch <= 0 {
		flags.TxBatch = def.TxBatch
	}
	if flags.RxBurst <= 0 {
		flags.RxBurst = def.RxBurst
	}
	if flags.Depth <= 0 {
		flags.Depth = def.Depth
	}
	core, err := transport.NewCore(name, queue, flags.BufferFlags, opts)
	if err != nil {
		return nil, err
	}
	s := &Sock{
		core:  core,
		wire:  attach(name, flags.Depth),
		tx:    transport.NewTxBatch(flags.TxBatch, flags.FrameSize),
		burst: flags.RxBurst,
		rx:    make([]*[]byte, 0, flags.RxBurst),
	}
	core.Log.Info("pipe socket opened", zap.Int("depth", s.wire.depth), zap.Int("frames", flags.FrameCount))
	return s, nil
}

// Recv copies the next wire frame into a receive slot.
func (s *Sock) Recv() (api.Packet, error) {
	if s.core.Closed() {
		return api.Packet{}, api.ErrSocketClosed
	}
	if s.rxPos == len(s.rx) {
		clear(s.rx)
		s.rx = s.wire.pull(s.rx[:0], s.burst)
		s.rxPos = 0
		if len(s.rx) == 0 {
			return api.Packet{}, api.ErrNoPacket
		}
	}
	d, buf, err := s.core.Claim()
	if err != nil {
		return api.Packet{}, err
	}
	frame := s.rx[s.rxPos]
	s.rx[s.rxPos] = nil
	s.rxPos++
	defer releaseFrame(frame)
	if len(*frame) > len(buf) {
		s.core.Unclaim(d)
		s.core.CountDropped(1)
		return api.Packet{}, api.TooBigPacket(len(*frame), len(buf))
	}
	n := copy(buf, *frame)
	return s.core.Deliver(d, n, n, time.Time{}), nil
}

// Send stages a copy of data for the next Flush.
func (s *Sock) Send(data []byte) error {
	if s.core.Closed() {
		return api.ErrSocketClosed
	}
	return s.tx.Append(data)
}

// Flush moves staged frames onto the wire and recycles released slots.
// Frames that do not fit a full wire stay staged.
func (s *Sock) Flush() {
	s.core.Recycle()
	if s.tx.Len() == 0 {
		return
	}
	n := s.wire.push(s.tx.Underlying())
	s.tx.Consume(n)
	s.core.CountSent(n)
}

// Payload returns the received bytes of slot d.
func (s *Sock) Payload(d api.Descriptor) []byte { return s.core.Payload(d) }

// Releaser returns a handle releasing slots from another goroutine.
func (s *Sock) Releaser() (api.ReleaseHandle, error) { return s.core.Releaser() }

// Stats returns socket counters.
func (s *Sock) Stats() api.SocketStats { return s.core.Stats() }

// Pending returns frames queued on the wire.
func (s *Sock) Pending() int { return s.wire.length() }

// Close flushes staged frames and detaches from the wire.
func (s *Sock) Close() error {
	if s.core.Closed() {
		return nil
	}
	s.Flush()
	if left := s.tx.Len(); left > 0 {
		s.core.CountDropped(left)
		s.tx.Reset()
	}
	for i := s.rxPos; i < len(s.rx); i++ {
		releaseFrame(s.rx[i])
		s.core.CountDropped(1)
	}
	s.rx = s.rx[:0]
	s.rxPos = 0
	detach(s.wire)
	_, err := s.core.Shutdown()
	return err
}
