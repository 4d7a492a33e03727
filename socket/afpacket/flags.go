// File: socket/afpacket/flags.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package afpacket

import "github.com/momentics/hioload-pktio/api"

// Flags configures an AF_PACKET socket.
type Flags struct {
	api.BufferFlags `yaml:",inline"`
	Promiscuous     bool   `yaml:"promiscuous"`
	FanoutMode      string `yaml:"fanout_mode"` // "hash", "lb" or "cpu"; used when a queue is given
	IgnoreOutgoing  bool   `yaml:"ignore_outgoing"`
	TxBatch         int    `yaml:"tx_batch"`
}

// DefaultFlags returns defaults suitable for forwarding.
func DefaultFlags() Flags {
	return Flags{
		BufferFlags:    api.DefaultBufferFlags(),
		Promiscuous:    true,
		FanoutMode:     "hash",
		IgnoreOutgoing: true,
		TxBatch:        32,
	}
}
