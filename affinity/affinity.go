// File: affinity/affinity.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// CPU pinning for packet loops. Platform implementations live in
// affinity_linux.go, affinity_windows.go and affinity_stub.go.

package affinity

import (
	"runtime"

	"github.com/momentics/hioload-pktio/api"
)

// SetAffinity pins the calling OS thread to logical CPU cpuID.
// Callers normally hold runtime.LockOSThread; see Pin.
func SetAffinity(cpuID int) error {
	if cpuID < 0 || cpuID >= runtime.NumCPU() {
		return api.NewError(api.ErrCodeInvalidArgument, "affinity: cpu out of range").
			WithContext("cpu", cpuID).
			WithContext("num_cpu", runtime.NumCPU()).
			WithCause(api.ErrInvalidArgument)
	}
	return setAffinityPlatform(cpuID)
}

// Pin locks the calling goroutine to its OS thread and pins that thread to
// cpuID. The returned function undoes the thread lock.
func Pin(cpuID int) (func(), error) {
	runtime.LockOSThread()
	if err := SetAffinity(cpuID); err != nil {
		runtime.UnlockOSThread()
		return func() {}, err
	}
	return runtime.UnlockOSThread, nil
}
