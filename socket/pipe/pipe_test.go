package pipe_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/internal/transport"
	"github.com/momentics/hioload-pktio/socket/pipe"
)

func open(t *testing.T, name string, mutate func(*pipe.Flags)) *pipe.Sock {
	t.Helper()
	flags := pipe.DefaultFlags()
	flags.FrameCount = 8
	flags.FrameSize = 64
	if mutate != nil {
		mutate(&flags)
	}
	s, err := pipe.Open(name, 0, flags, transport.Options{Logger: zaptest.NewLogger(t)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPipe_SendFlushRecv(t *testing.T) {
	a := open(t, t.Name(), nil)
	b := open(t, t.Name(), nil)

	_, err := b.Recv()
	assert.ErrorIs(t, err, api.ErrNoPacket)

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, a.Send([]byte(msg)))
	}
	_, err = b.Recv()
	assert.ErrorIs(t, err, api.ErrNoPacket, "frames are not visible before Flush")
	a.Flush()

	var got []string
	for i := 0; i < 3; i++ {
		pkt, err := b.Recv()
		require.NoError(t, err)
		got = append(got, string(pkt.Data))
		assert.Equal(t, pkt.Data, b.Payload(pkt.Slot))
		pkt.Release()
	}
	assert.Equal(t, []string{"one", "two", "three"}, got)
	assert.Equal(t, uint64(3), a.Stats().Sent)
	assert.Equal(t, uint64(3), b.Stats().Received)
}

func TestPipe_TxBatchFullNeedsFlush(t *testing.T) {
	a := open(t, t.Name(), func(f *pipe.Flags) { f.TxBatch = 2 })
	require.NoError(t, a.Send([]byte{1}))
	require.NoError(t, a.Send([]byte{2}))
	assert.ErrorIs(t, a.Send([]byte{3}), api.ErrNoMemory)
	a.Flush()
	assert.NoError(t, a.Send([]byte{3}))
}

func TestPipe_FullWireKeepsFramesStaged(t *testing.T) {
	a := open(t, t.Name(), func(f *pipe.Flags) { f.Depth = 2 })
	for i := byte(0); i < 3; i++ {
		require.NoError(t, a.Send([]byte{i}))
	}
	a.Flush()
	assert.Equal(t, 2, a.Pending())
	assert.Equal(t, uint64(2), a.Stats().Sent)

	b := open(t, t.Name(), nil)
	for i := 0; i < 2; i++ {
		pkt, err := b.Recv()
		require.NoError(t, err)
		pkt.Release()
	}
	a.Flush()
	pkt, err := b.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, pkt.Data)
}

func TestPipe_TooBigFrameDropped(t *testing.T) {
	a := open(t, t.Name(), nil)
	b := open(t, t.Name(), func(f *pipe.Flags) { f.FrameSize = 4 })
	require.NoError(t, a.Send([]byte("too long")))
	a.Flush()

	_, err := b.Recv()
	assert.ErrorIs(t, err, api.ErrTooBigPacket)
	assert.Equal(t, uint64(1), b.Stats().Dropped)
}

func TestPipe_SlotsExhaustedUntilReleased(t *testing.T) {
	a := open(t, t.Name(), nil)
	b := open(t, t.Name(), func(f *pipe.Flags) { f.FrameCount = 1 })
	require.NoError(t, a.Send([]byte("x")))
	require.NoError(t, a.Send([]byte("y")))
	a.Flush()

	first, err := b.Recv()
	require.NoError(t, err)
	_, err = b.Recv()
	assert.ErrorIs(t, err, api.ErrNoMemory)

	rel, err := b.Releaser()
	require.NoError(t, err)
	rel.Push(first.Slot)
	rel.Flush()
	second, err := b.Recv()
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), second.Data)
	require.NoError(t, rel.Close())
}

func TestPipe_ClosedSocket(t *testing.T) {
	a := open(t, t.Name(), nil)
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
	_, err := a.Recv()
	assert.ErrorIs(t, err, api.ErrSocketClosed)
	assert.ErrorIs(t, a.Send([]byte{1}), api.ErrSocketClosed)
}
