// File: mpsc/consumer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mpsc

import "github.com/momentics/hioload-pktio/api"

// noCopy makes go vet's copylocks check flag copies of a Consumer.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Consumer is the single drain side of a channel.
// It is only created by New or NewWithConfig and must stay on one goroutine.
type Consumer[T api.Index] struct {
	_     noCopy
	reg   *registry
	cache []api.Descriptor
}

// Pop returns one descriptor, syncing first when the cache is empty.
// ok is false when no descriptor is available; Pop never blocks.
func (c *Consumer[T]) Pop() (d api.Descriptor, ok bool) {
	if len(c.cache) == 0 {
		c.Sync()
	}
	n := len(c.cache)
	if n == 0 {
		return 0, false
	}
	d = c.cache[n-1]
	c.cache = c.cache[:n-1]
	return d, true
}

// Sync drains every lane into the cache in registration order and returns
// the number of descriptors moved. A lane is only drained while the cache
// has room, so later lanes wait for the next Sync under heavy load.
func (c *Consumer[T]) Sync() int {
	before := len(c.cache)
	c.reg.forEach(func(l *lane) {
		room := cap(c.cache) - len(c.cache)
		if room == 0 {
			return
		}
		for d := range l.ring.PopIter() {
			c.cache = append(c.cache, d)
			room--
			if room == 0 {
				break
			}
		}
	})
	moved := len(c.cache) - before
	if moved > 0 {
		c.reg.obs.Synced(moved)
	}
	return moved
}

// AvailableLen returns the cached descriptor count without draining lanes.
func (c *Consumer[T]) AvailableLen() int { return len(c.cache) }

// Lanes returns the number of registered lanes.
func (c *Consumer[T]) Lanes() int { return c.reg.len() }
