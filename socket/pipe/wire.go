// File: socket/pipe/wire.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Named in-process wires. Every socket opened with the same name attaches
// to the same wire, which behaves like a hub with a bounded frame queue.

package pipe

import (
	"sync"

	"github.com/eapache/queue"
)

// framePool recycles wire frame copies between senders and receivers.
var framePool = sync.Pool{
	New: func() any {
		b := make([]byte, 0, 2048)
		return &b
	},
}

func acquireFrame(data []byte) *[]byte {
	p := framePool.Get().(*[]byte)
	*p = append((*p)[:0], data...)
	return p
}

func releaseFrame(p *[]byte) {
	if cap(*p) > maxPooledFrame {
		return
	}
	*p = (*p)[:0]
	framePool.Put(p)
}

const maxPooledFrame = 1 << 16

type wire struct {
	name  string
	mu    sync.Mutex
	q     *queue.Queue
	depth int
	refs  int
}

// push enqueues frames until the wire is full and returns how many fit.
func (w *wire) push(frames [][]byte) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, f := range frames {
		if w.q.Length() >= w.depth {
			break
		}
		w.q.Add(acquireFrame(f))
		n++
	}
	return n
}

// pull appends up to max frames to dst.
func (w *wire) pull(dst []*[]byte, max int) []*[]byte {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := 0; i < max && w.q.Length() > 0; i++ {
		dst = append(dst, w.q.Remove().(*[]byte))
	}
	return dst
}

func (w *wire) length() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.q.Length()
}

var hub = struct {
	sync.Mutex
	wires map[string]*wire
}{wires: make(map[string]*wire)}

// attach returns the wire called name, creating it with depth on first use.
func attach(name string, depth int) *wire {
	hub.Lock()
	defer hub.Unlock()
	w, ok := hub.wires[name]
	if !ok {
		w = &wire{name: name, q: queue.New(), depth: depth}
		hub.wires[name] = w
	}
	w.refs++
	return w
}

// detach drops a reference; the last one discards queued frames.
func detach(w *wire) {
	hub.Lock()
	defer hub.Unlock()
	w.refs--
	if w.refs > 0 {
		return
	}
	delete(hub.wires, w.name)
}
