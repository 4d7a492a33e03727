// File: api/descriptor.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Descriptor is the only value carried by descriptor channels. It names an
// external payload (usually a buffer slot) and is never converted back by the
// channel itself: callers keep their own index-to-payload tables.

package api

// Descriptor is a canonical unsigned index identifying an opaque payload.
type Descriptor uint64

// Index lists the element kinds a descriptor channel accepts on its
// producer side. Every kind converts losslessly into Descriptor.
type Index interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// ReleaseHandle returns descriptors to their owner from one goroutine.
// mpsc.Producer[Descriptor] satisfies it.
type ReleaseHandle interface {
	Push(d Descriptor)
	Flush() int
	Close() error
}
