// File: socket/pcapfile/pcapfile.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package pcapfile is a capture-file packet engine. A read-mode socket
// replays frames from a pcap file; a write-mode socket records every frame
// sent through it. Both work on any platform without privileges.

package pcapfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/internal/transport"
)

// Mode selects the direction of a capture-file socket.
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// Flags configures a capture-file socket.
type Flags struct {
	api.BufferFlags `yaml:",inline"`
	Mode            Mode   `yaml:"mode"`
	Snaplen         uint32 `yaml:"snaplen"`
	LinkType        string `yaml:"link_type"` // "ethernet" or "raw", write mode only
	Loop            bool   `yaml:"loop"`      // Rewind at end of file instead of reporting io.EOF
	TxBatch         int    `yaml:"tx_batch"`
}

// DefaultFlags returns read-mode defaults.
func DefaultFlags() Flags {
	return Flags{
		BufferFlags: api.DefaultBufferFlags(),
		Mode:        ModeRead,
		Snaplen:     65535,
		LinkType:    "ethernet",
		TxBatch:     32,
	}
}

func linkType(name string) (layers.LinkType, error) {
	switch name {
	case "", "ethernet":
		return layers.LinkTypeEthernet, nil
	case "raw":
		return layers.LinkTypeRaw, nil
	default:
		return 0, api.NewError(api.ErrCodeInvalidArgument, "pcapfile: unknown link type "+name).
			WithCause(api.ErrInvalidArgument)
	}
}

// Sock is a socket backed by a pcap file.
type Sock struct {
	core  *transport.Core
	flags Flags
	file  *os.File

	r *pcapgo.Reader

	bw *bufio.Writer
	w  *pcapgo.Writer
	tx *transport.TxBatch
}

var _ api.Socket = (*Sock)(nil)

// Open opens path in the mode selected by flags.
func Open(path string, queue int, flags Flags, opts transport.Options) (*Sock, error) {
	def := DefaultFlags()
	if flags.Mode == "" {
		flags.Mode = def.Mode
	}
	if flags.Snaplen == 0 {
		flags.Snaplen = def.Snaplen
	}
	if flags.TxBatch <= 0 {
		flags.TxBatch = def.TxBatch
	}
	core, err := transport.NewCore(path, queue, flags.BufferFlags, opts)
	if err != nil {
		return nil, err
	}
	s := &Sock{core: core, flags: flags}

	switch flags.Mode {
	case ModeRead:
		err = s.openReader(path)
	case ModeWrite:
		err = s.openWriter(path)
	default:
		err = api.NewError(api.ErrCodeInvalidArgument, "pcapfile: unknown mode "+string(flags.Mode)).
			WithCause(api.ErrInvalidArgument)
	}
	if err != nil {
		_, cerr := core.Shutdown()
		return nil, multierr.Append(err, cerr)
	}
	core.Log.Info("pcap file socket opened", zap.String("mode", string(flags.Mode)))
	return s, nil
}

func (s *Sock) openReader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("pcapfile: open %s: %w", path, err)
	}
	r, err := pcapgo.NewReader(f)
	if err != nil {
		return multierr.Append(fmt.Errorf("pcapfile: read header: %w", err), f.Close())
	}
	s.file, s.r = f, r
	return nil
}

func (s *Sock) openWriter(path string) error {
	lt, err := linkType(s.flags.LinkType)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("pcapfile: create %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	w := pcapgo.NewWriter(bw)
	if err := w.WriteFileHeader(s.flags.Snaplen, lt); err != nil {
		return multierr.Append(fmt.Errorf("pcapfile: write header: %w", err), f.Close())
	}
	s.file, s.bw, s.w = f, bw, w
	s.tx = transport.NewTxBatch(s.flags.TxBatch, s.core.FrameSize())
	return nil
}

// rewind restarts replay from the first record.
func (s *Sock) rewind() error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	r, err := pcapgo.NewReader(s.file)
	if err != nil {
		return err
	}
	s.r = r
	return nil
}

// Recv returns the next recorded frame, truncated to the slot size.
// At end of file it returns io.EOF unless Loop is set.
func (s *Sock) Recv() (api.Packet, error) {
	if s.core.Closed() {
		return api.Packet{}, api.ErrSocketClosed
	}
	if s.r == nil {
		return api.Packet{}, api.ErrNotSupported
	}
	d, buf, err := s.core.Claim()
	if err != nil {
		return api.Packet{}, err
	}
	data, ci, err := s.r.ReadPacketData()
	if errors.Is(err, io.EOF) && s.flags.Loop {
		if err = s.rewind(); err == nil {
			data, ci, err = s.r.ReadPacketData()
		}
	}
	if err != nil {
		s.core.Unclaim(d)
		if errors.Is(err, io.EOF) {
			return api.Packet{}, io.EOF
		}
		return api.Packet{}, fmt.Errorf("pcapfile: read: %w", err)
	}
	n := copy(buf, data)
	wireLen := ci.Length
	if wireLen < len(data) {
		wireLen = len(data)
	}
	return s.core.Deliver(d, n, wireLen, ci.Timestamp), nil
}

// Send stages data for the next Flush.
func (s *Sock) Send(data []byte) error {
	if s.core.Closed() {
		return api.ErrSocketClosed
	}
	if s.w == nil {
		return api.ErrNotSupported
	}
	return s.tx.Append(data)
}

// Flush writes staged frames to the file.
func (s *Sock) Flush() {
	s.core.Recycle()
	if s.w == nil || s.tx.Len() == 0 {
		return
	}
	now := time.Now()
	written := 0
	for _, frame := range s.tx.Underlying() {
		ci := gopacket.CaptureInfo{Timestamp: now, CaptureLength: len(frame), Length: len(frame)}
		if err := s.w.WritePacket(ci, frame); err != nil {
			s.core.Log.Warn("pcap write failed", zap.Error(err))
			s.core.CountDropped(1)
			continue
		}
		written++
	}
	s.tx.Reset()
	s.core.CountSent(written)
	if err := s.bw.Flush(); err != nil {
		s.core.Log.Warn("pcap flush failed", zap.Error(err))
	}
}

// Payload returns the received bytes of slot d.
func (s *Sock) Payload(d api.Descriptor) []byte { return s.core.Payload(d) }

// Releaser returns a handle releasing slots from another goroutine.
func (s *Sock) Releaser() (api.ReleaseHandle, error) { return s.core.Releaser() }

// Stats returns socket counters.
func (s *Sock) Stats() api.SocketStats { return s.core.Stats() }

// Close flushes pending writes and closes the file.
func (s *Sock) Close() error {
	if s.core.Closed() {
		return nil
	}
	s.Flush()
	_, err := s.core.Shutdown()
	return multierr.Append(err, s.file.Close())
}
