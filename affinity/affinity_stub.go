//go:build !linux && !windows
// +build !linux,!windows

// File: affinity/affinity_stub.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package affinity

import "github.com/momentics/hioload-pktio/api"

func setAffinityPlatform(cpuID int) error {
	return api.NewError(api.ErrCodeNotSupported, "affinity: not supported on this platform").
		WithContext("cpu", cpuID).
		WithCause(api.ErrNotSupported)
}
