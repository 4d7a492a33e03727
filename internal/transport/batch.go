// File: internal/transport/batch.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// TxBatch copies outgoing frames into a private slab so callers may reuse
// their buffers as soon as Send returns. Not thread-safe.

package transport

import "github.com/momentics/hioload-pktio/api"

// TxBatch is a bounded batch of staged frames.
type TxBatch struct {
	slab      []byte
	frameSize int
	frames    [][]byte
}

// NewTxBatch creates a batch holding up to capacity frames of frameSize bytes.
func NewTxBatch(capacity, frameSize int) *TxBatch {
	return &TxBatch{
		slab:      make([]byte, capacity*frameSize),
		frameSize: frameSize,
		frames:    make([][]byte, 0, capacity),
	}
}

// Append stages a copy of data. It returns api.ErrNoMemory when the batch is
// full and a too-big-packet error when data exceeds the frame size.
func (b *TxBatch) Append(data []byte) error {
	if len(data) > b.frameSize {
		return api.TooBigPacket(len(data), b.frameSize)
	}
	n := len(b.frames)
	if n == cap(b.frames) {
		return api.ErrNoMemory
	}
	off := n * b.frameSize
	frame := b.slab[off : off+len(data) : off+b.frameSize]
	copy(frame, data)
	b.frames = append(b.frames, frame)
	return nil
}

// Len returns number of staged frames.
func (b *TxBatch) Len() int {
	return len(b.frames)
}

// Get retrieves frame at index.
func (b *TxBatch) Get(idx int) []byte {
	return b.frames[idx]
}

// Underlying returns the staged frames; valid until Reset.
func (b *TxBatch) Underlying() [][]byte {
	return b.frames
}

// Consume drops the first n frames, keeping the rest staged in order.
func (b *TxBatch) Consume(n int) {
	if n >= len(b.frames) {
		b.Reset()
		return
	}
	rest := len(b.frames) - n
	for i := 0; i < rest; i++ {
		src := b.frames[n+i]
		off := i * b.frameSize
		dst := b.slab[off : off+len(src) : off+b.frameSize]
		copy(dst, src)
		b.frames[i] = dst
	}
	clear(b.frames[rest:])
	b.frames = b.frames[:rest]
}

// Reset clears the batch retaining the slab.
func (b *TxBatch) Reset() {
	clear(b.frames)
	b.frames = b.frames[:0]
}
