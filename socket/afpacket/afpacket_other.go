//go:build !linux
// +build !linux

// File: socket/afpacket/afpacket_other.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Stub for platforms without AF_PACKET.

package afpacket

import (
	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/internal/transport"
)

// Open reports api.ErrNotSupported outside Linux.
func Open(ifname string, queue int, flags Flags, opts transport.Options) (api.Socket, error) {
	return nil, api.NewError(api.ErrCodeNotSupported, "afpacket: AF_PACKET requires linux").
		WithContext("interface", ifname).
		WithCause(api.ErrNotSupported)
}
