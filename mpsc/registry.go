// File: mpsc/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Lock-protected list of lane receive sides shared by every producer and
// the consumer.

package mpsc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/internal/concurrency"
)

// lane is one SPSC ring tagged with a registry-unique id.
type lane struct {
	id   uint64
	ring *concurrency.RingBuffer[api.Descriptor]
	// retired is set under the registry lock once the producer closed while
	// the ring still held descriptors.
	retired bool
}

// CorruptionError reports a removal that did not match exactly one lane.
// It is raised with panic: the registry can not be trusted afterwards.
type CorruptionError struct {
	LaneID  uint64
	Matches int
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("mpsc: registry corruption: lane %d matched %d entries", e.LaneID, e.Matches)
}

type registry struct {
	mu sync.Mutex
	// lanes in registration order. Retired lanes keep their position until
	// the consumer drains them, then they are dropped.
	lanes []*lane
	live  int

	maxLanes int
	laneCap  int
	nextID   atomic.Uint64

	log *zap.Logger
	obs Observer
}

func newRegistry(cfg *Config) *registry {
	return &registry{
		lanes:    make([]*lane, 0, min(cfg.MaxLanes, 64)),
		maxLanes: cfg.MaxLanes,
		laneCap:  cfg.LaneCapacity,
		log:      cfg.logger(),
		obs:      cfg.observer(),
	}
}

// register allocates a lane sized to the channel capacity and pushes it.
func (r *registry) register() (*lane, error) {
	l := &lane{
		id:   r.nextID.Add(1),
		ring: concurrency.NewRingBuffer[api.Descriptor](uint64(r.laneCap)),
	}
	if err := r.push(l); err != nil {
		return nil, err
	}
	return l, nil
}

// push appends l. Running out of lanes is unsupported and reported as an
// error instead of silently losing the lane.
func (r *registry) push(l *lane) error {
	r.mu.Lock()
	if r.live >= r.maxLanes {
		live := r.live
		r.mu.Unlock()
		r.log.Error("lane registry full", zap.Int("max_lanes", r.maxLanes), zap.Int("live", live))
		return api.NewError(api.ErrCodeResourceExhausted, "mpsc: lane registry full").
			WithContext("max_lanes", r.maxLanes).
			WithCause(api.ErrRegistryFull)
	}
	r.lanes = append(r.lanes, l)
	r.live++
	n := r.live
	r.mu.Unlock()

	r.log.Debug("lane registered", zap.Uint64("lane", l.id), zap.Int("lanes", n))
	r.obs.LaneRegistered(n)
	return nil
}

// remove deregisters the live lane with id. A lane still holding
// descriptors is retired in place and stays visible to forEach until
// drained. Anything other than exactly one match panics with
// *CorruptionError.
func (r *registry) remove(id uint64) {
	r.mu.Lock()
	matches := 0
	kept := r.lanes[:0]
	for _, l := range r.lanes {
		if l.retired || l.id != id {
			kept = append(kept, l)
			continue
		}
		matches++
		r.live--
		if l.ring.Len() > 0 {
			l.retired = true
			kept = append(kept, l)
		}
	}
	clear(r.lanes[len(kept):])
	r.lanes = kept
	n := r.live
	r.mu.Unlock()

	if matches != 1 {
		err := &CorruptionError{LaneID: id, Matches: matches}
		r.log.Error("lane registry corrupted", zap.Uint64("lane", id), zap.Int("matches", matches))
		panic(err)
	}
	r.log.Debug("lane removed", zap.Uint64("lane", id), zap.Int("lanes", n))
	r.obs.LaneRemoved(n)
}

// forEach visits lanes in registration order, retired ones included,
// holding the lock for the whole scan. Retired lanes left empty are dropped.
func (r *registry) forEach(visit func(l *lane)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	drained := false
	for _, l := range r.lanes {
		visit(l)
		if l.retired && l.ring.Len() == 0 {
			drained = true
		}
	}
	if !drained {
		return
	}
	kept := r.lanes[:0]
	for _, l := range r.lanes {
		if l.retired && l.ring.Len() == 0 {
			continue
		}
		kept = append(kept, l)
	}
	clear(r.lanes[len(kept):])
	r.lanes = kept
}

// len returns the number of live lanes.
func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}
