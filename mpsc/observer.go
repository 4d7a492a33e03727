// File: mpsc/observer.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package mpsc

// Observer receives channel accounting events. Implementations must be safe
// for concurrent use: Flushed runs on producer goroutines, Synced on the
// consumer goroutine.
type Observer interface {
	LaneRegistered(lanes int)
	LaneRemoved(lanes int)
	Flushed(accepted, dropped int)
	Synced(moved int)
}

type nopObserver struct{}

func (nopObserver) LaneRegistered(int) {}
func (nopObserver) LaneRemoved(int)    {}
func (nopObserver) Flushed(int, int)   {}
func (nopObserver) Synced(int)         {}
