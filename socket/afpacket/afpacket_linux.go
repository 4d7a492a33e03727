//go:build linux
// +build linux

// File: socket/afpacket/afpacket_linux.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Package afpacket is a Linux raw-socket packet engine built on
// AF_PACKET/SOCK_RAW. Frames are received straight into slot memory; a
// queue number joins a PACKET_FANOUT group so several sockets can split
// the traffic of one interface.

package afpacket

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/internal/transport"
)

// Sock is a non-blocking AF_PACKET socket bound to one interface.
type Sock struct {
	core *transport.Core
	fd   int
	addr unix.SockaddrLinklayer
	tx   *transport.TxBatch
}

var _ api.Socket = (*Sock)(nil)

func htons(v uint16) uint16 {
	var b [2]byte
	binary.NativeEndian.PutUint16(b[:], v)
	return binary.BigEndian.Uint16(b[:])
}

func fanoutType(mode string) (int, error) {
	switch mode {
	case "", "hash":
		return unix.PACKET_FANOUT_HASH, nil
	case "lb":
		return unix.PACKET_FANOUT_LB, nil
	case "cpu":
		return unix.PACKET_FANOUT_CPU, nil
	default:
		return 0, api.NewError(api.ErrCodeInvalidArgument, "afpacket: unknown fanout mode "+mode).
			WithCause(api.ErrInvalidArgument)
	}
}

// Open binds a raw socket to ifname. A non-negative queue joins the fanout
// group with that id.
func Open(ifname string, queue int, flags Flags, opts transport.Options) (api.Socket, error) {
	if flags.TxBatch <= 0 {
		flags.TxBatch = DefaultFlags().TxBatch
	}
	iface, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("afpacket: interface %s: %w", ifname, err)
	}
	core, err := transport.NewCore(ifname, queue, flags.BufferFlags, opts)
	if err != nil {
		return nil, err
	}
	proto := htons(unix.ETH_P_ALL)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, int(proto))
	if err != nil {
		_, cerr := core.Shutdown()
		return nil, multierr.Append(fmt.Errorf("afpacket: socket: %w", err), cerr)
	}
	s := &Sock{
		core: core,
		fd:   fd,
		addr: unix.SockaddrLinklayer{Protocol: proto, Ifindex: iface.Index},
		tx:   transport.NewTxBatch(flags.TxBatch, flags.FrameSize),
	}
	if err := s.setup(iface, queue, flags); err != nil {
		return nil, multierr.Append(err, s.Close())
	}
	core.Log.Info("af_packet socket opened",
		zap.Int("ifindex", iface.Index),
		zap.Bool("promiscuous", flags.Promiscuous))
	return s, nil
}

func (s *Sock) setup(iface *net.Interface, queue int, flags Flags) error {
	if err := unix.Bind(s.fd, &s.addr); err != nil {
		return fmt.Errorf("afpacket: bind: %w", err)
	}
	if flags.Promiscuous {
		mreq := unix.PacketMreq{Ifindex: int32(iface.Index), Type: unix.PACKET_MR_PROMISC}
		if err := unix.SetsockoptPacketMreq(s.fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &mreq); err != nil {
			return fmt.Errorf("afpacket: promiscuous: %w", err)
		}
	}
	if flags.IgnoreOutgoing {
		// Needs Linux 4.20; older kernels just see their own transmissions.
		if err := unix.SetsockoptInt(s.fd, unix.SOL_PACKET, unix.PACKET_IGNORE_OUTGOING, 1); err != nil {
			s.core.Log.Debug("PACKET_IGNORE_OUTGOING unavailable", zap.Error(err))
		}
	}
	if queue >= 0 {
		kind, err := fanoutType(flags.FanoutMode)
		if err != nil {
			return err
		}
		arg := (queue & 0xffff) | kind<<16
		if err := unix.SetsockoptInt(s.fd, unix.SOL_PACKET, unix.PACKET_FANOUT, arg); err != nil {
			return fmt.Errorf("afpacket: fanout group %d: %w", queue, err)
		}
	}
	return nil
}

func wouldBlock(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) || errors.Is(err, unix.EINTR)
}

// Recv reads one frame directly into a free slot.
func (s *Sock) Recv() (api.Packet, error) {
	if s.core.Closed() {
		return api.Packet{}, api.ErrSocketClosed
	}
	d, buf, err := s.core.Claim()
	if err != nil {
		return api.Packet{}, err
	}
	n, _, err := unix.Recvfrom(s.fd, buf, unix.MSG_TRUNC)
	if err != nil {
		s.core.Unclaim(d)
		if wouldBlock(err) {
			return api.Packet{}, api.ErrNoPacket
		}
		return api.Packet{}, fmt.Errorf("afpacket: recv: %w", err)
	}
	captured := min(n, len(buf))
	return s.core.Deliver(d, captured, n, time.Now()), nil
}

// Send stages a copy of data for the next Flush.
func (s *Sock) Send(data []byte) error {
	if s.core.Closed() {
		return api.ErrSocketClosed
	}
	return s.tx.Append(data)
}

// Flush transmits staged frames until the kernel pushes back.
func (s *Sock) Flush() {
	s.core.Recycle()
	if s.tx.Len() == 0 {
		return
	}
	done, sent := 0, 0
	for _, frame := range s.tx.Underlying() {
		err := unix.Sendto(s.fd, frame, 0, &s.addr)
		if err != nil && (wouldBlock(err) || errors.Is(err, unix.ENOBUFS)) {
			break
		}
		done++
		if err != nil {
			s.core.Log.Debug("af_packet send failed", zap.Error(err))
			s.core.CountDropped(1)
			continue
		}
		sent++
	}
	s.tx.Consume(done)
	s.core.CountSent(sent)
}

// Payload returns the received bytes of slot d.
func (s *Sock) Payload(d api.Descriptor) []byte { return s.core.Payload(d) }

// Releaser returns a handle releasing slots from another goroutine.
func (s *Sock) Releaser() (api.ReleaseHandle, error) { return s.core.Releaser() }

// Stats returns socket counters.
func (s *Sock) Stats() api.SocketStats { return s.core.Stats() }

// Close flushes staged frames and closes the descriptor.
func (s *Sock) Close() error {
	if s.core.Closed() {
		return nil
	}
	s.Flush()
	if left := s.tx.Len(); left > 0 {
		s.core.CountDropped(left)
		s.tx.Reset()
	}
	_, err := s.core.Shutdown()
	return multierr.Append(err, unix.Close(s.fd))
}
