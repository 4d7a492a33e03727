// File: socket/socket.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package socket opens packet sockets by engine name. Applications pick an
// engine at run time and then work only with api.Socket.

package socket

import (
	"slices"
	"strings"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/internal/transport"
	"github.com/momentics/hioload-pktio/socket/afpacket"
	"github.com/momentics/hioload-pktio/socket/pcapfile"
	"github.com/momentics/hioload-pktio/socket/pipe"
)

// Kind names a packet engine.
type Kind string

const (
	KindPipe     Kind = "pipe"
	KindPcapFile Kind = "pcapfile"
	KindAFPacket Kind = "afpacket"
)

// Options carries the logger and observer handed to every engine.
type Options = transport.Options

// Config holds per-engine flags; only the section of the opened kind is used.
type Config struct {
	Pipe     pipe.Flags     `yaml:"pipe"`
	PcapFile pcapfile.Flags `yaml:"pcapfile"`
	AFPacket afpacket.Flags `yaml:"afpacket"`
}

// DefaultConfig returns default flags for every engine.
func DefaultConfig() Config {
	return Config{
		Pipe:     pipe.DefaultFlags(),
		PcapFile: pcapfile.DefaultFlags(),
		AFPacket: afpacket.DefaultFlags(),
	}
}

type opener func(name string, queue int, cfg Config, opts Options) (api.Socket, error)

var engines = map[Kind]opener{
	KindPipe: func(name string, queue int, cfg Config, opts Options) (api.Socket, error) {
		return pipe.Open(name, queue, cfg.Pipe, opts)
	},
	KindPcapFile: func(name string, queue int, cfg Config, opts Options) (api.Socket, error) {
		return pcapfile.Open(name, queue, cfg.PcapFile, opts)
	},
	KindAFPacket: func(name string, queue int, cfg Config, opts Options) (api.Socket, error) {
		return afpacket.Open(name, queue, cfg.AFPacket, opts)
	},
}

// Kinds lists the engine names accepted by Open, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(engines))
	for k := range engines {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// ParseKind resolves an engine name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := engines[k]; !ok {
		return "", api.NewError(api.ErrCodeNotFound, "socket: unknown engine "+s).
			WithCause(api.ErrNotFound)
	}
	return k, nil
}

// Open opens name (a wire, file or interface, depending on kind) on queue.
func Open(kind Kind, name string, queue int, cfg Config, opts Options) (api.Socket, error) {
	open, ok := engines[kind]
	if !ok {
		return nil, api.NewError(api.ErrCodeNotFound, "socket: unknown engine "+string(kind)).
			WithCause(api.ErrNotFound)
	}
	s, err := open(name, queue, cfg, opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}
