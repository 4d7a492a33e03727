// File: api/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Socket is the engine-neutral packet I/O contract. Every backend (pipe,
// pcap file, AF_PACKET) implements it so applications only choose an engine
// at open time.

package api

import "time"

// Socket moves raw frames through one network engine.
// A Socket is owned by a single goroutine; cross-goroutine slot release goes
// through a ReleaseHandle obtained from Releaser.
type Socket interface {
	// Recv returns the next received frame, ErrNoPacket when idle or
	// ErrNoMemory when every receive slot is still held by the caller.
	Recv() (Packet, error)

	// Send queues data for transmission. ErrNoMemory means the transmit
	// batch is full and Flush must run before retrying.
	Send(data []byte) error

	// Flush hands queued frames to the engine and recycles released slots.
	Flush()

	// Payload returns the received bytes held by slot d.
	Payload(d Descriptor) []byte

	// Releaser returns a new handle for releasing slots from another goroutine.
	Releaser() (ReleaseHandle, error)

	// Stats returns engine-neutral counters.
	Stats() SocketStats

	// Close releases engine resources. Calling Close twice is a no-op.
	Close() error
}

// SlotReleaser gives a slot back to the socket that filled it.
type SlotReleaser interface {
	Release(d Descriptor)
}

// Meta carries per-packet receive metadata.
type Meta struct {
	Timestamp time.Time
	// Length is the original wire length; it may exceed len(Packet.Data)
	// when the engine truncated the frame.
	Length int
	Queue  int
}

// Packet is a received frame living in a socket-owned slot.
type Packet struct {
	Slot  Descriptor
	Data  []byte
	Meta  Meta
	owner SlotReleaser
}

// NewPacket binds a filled slot to its owner.
func NewPacket(slot Descriptor, data []byte, meta Meta, owner SlotReleaser) Packet {
	return Packet{Slot: slot, Data: data, Meta: meta, owner: owner}
}

// Release returns the slot to its socket. It must run on the socket's
// goroutine; other goroutines push p.Slot into a ReleaseHandle instead.
func (p *Packet) Release() {
	if p.owner == nil {
		return
	}
	p.owner.Release(p.Slot)
	p.owner = nil
	p.Data = nil
}

// SocketStats aggregates per-socket counters.
type SocketStats struct {
	Received uint64
	Sent     uint64
	Dropped  uint64
	// NoMemory counts receive attempts that found no free slot.
	NoMemory uint64
}

// BufferFlags sizes the slot table of a socket.
type BufferFlags struct {
	FrameSize  int `yaml:"frame_size"`
	FrameCount int `yaml:"frame_count"`
}

// DefaultBufferFlags matches a standard Ethernet MTU with headroom.
func DefaultBufferFlags() BufferFlags {
	return BufferFlags{FrameSize: 2048, FrameCount: 1024}
}
