// Package mpsc
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Batched multi-producer/single-consumer descriptor channel.
//
// The channel is a registry of independent single-producer/single-consumer
// lanes. Every Producer owns one lane and a small local batch; Clone fans
// out a fresh lane instead of sharing one. The single Consumer scans the
// registry, drains every lane into a local cache and serves Pop from it.
//
// Guarantees:
//   - No operation blocks. Callers wanting blocking semantics busy-poll.
//   - Within one Sync lanes are visited in registration order; earlier lanes
//     are favoured when the cache fills up.
//   - There is no end-to-end FIFO order; Pop serves the cache as a stack.
//   - A closed Producer whose lane still holds descriptors keeps the lane's
//     position in the scan until it is drained. Such lanes do not count
//     toward MaxLanes.
//   - Flush is best effort: descriptors that do not fit a full lane are
//     dropped and counted.
//   - The Consumer only ever yields api.Descriptor. Mapping a descriptor back
//     to a payload is the caller's job.
//
// The registry mutex is held for the whole drain scan so a lane can not be
// retired in the middle of it. Element transfers inside a lane are lock-free
// and rely on there being exactly one Consumer, which only New and
// NewWithConfig can create.
package mpsc
