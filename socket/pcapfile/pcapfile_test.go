package pcapfile_test

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/internal/transport"
	"github.com/momentics/hioload-pktio/socket/pcapfile"
)

var frames = [][]byte{
	[]byte("first frame"),
	[]byte("second"),
	[]byte("third and last frame"),
}

func record(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.pcap")
	flags := pcapfile.DefaultFlags()
	flags.Mode = pcapfile.ModeWrite
	w, err := pcapfile.Open(path, 0, flags, transport.Options{})
	require.NoError(t, err)
	for _, f := range frames {
		require.NoError(t, w.Send(f))
	}
	_, err = w.Recv()
	assert.ErrorIs(t, err, api.ErrNotSupported)
	require.NoError(t, w.Close())
	assert.Equal(t, uint64(len(frames)), w.Stats().Sent)
	return path
}

func TestPcapFile_WriteThenReplay(t *testing.T) {
	path := record(t)
	r, err := pcapfile.Open(path, 1, pcapfile.DefaultFlags(), transport.Options{})
	require.NoError(t, err)
	defer r.Close()

	for _, want := range frames {
		pkt, err := r.Recv()
		require.NoError(t, err)
		assert.Equal(t, want, pkt.Data)
		assert.Equal(t, len(want), pkt.Meta.Length)
		assert.Equal(t, 1, pkt.Meta.Queue)
		assert.False(t, pkt.Meta.Timestamp.IsZero())
		pkt.Release()
	}
	_, err = r.Recv()
	assert.ErrorIs(t, err, io.EOF)
	assert.ErrorIs(t, r.Send([]byte{1}), api.ErrNotSupported)
}

func TestPcapFile_LoopRewinds(t *testing.T) {
	path := record(t)
	flags := pcapfile.DefaultFlags()
	flags.Loop = true
	r, err := pcapfile.Open(path, 0, flags, transport.Options{})
	require.NoError(t, err)
	defer r.Close()

	for i := 0; i < 2*len(frames); i++ {
		pkt, err := r.Recv()
		require.NoError(t, err)
		assert.Equal(t, frames[i%len(frames)], pkt.Data)
		pkt.Release()
	}
}

func TestPcapFile_TruncatesToSlot(t *testing.T) {
	path := record(t)
	flags := pcapfile.DefaultFlags()
	flags.FrameSize = 4
	r, err := pcapfile.Open(path, 0, flags, transport.Options{})
	require.NoError(t, err)
	defer r.Close()

	pkt, err := r.Recv()
	require.NoError(t, err)
	assert.Equal(t, frames[0][:4], pkt.Data)
	assert.Equal(t, len(frames[0]), pkt.Meta.Length)
}

func TestPcapFile_OpenErrors(t *testing.T) {
	_, err := pcapfile.Open(filepath.Join(t.TempDir(), "missing.pcap"), 0, pcapfile.DefaultFlags(), transport.Options{})
	assert.Error(t, err)

	flags := pcapfile.DefaultFlags()
	flags.Mode = "sideways"
	_, err = pcapfile.Open(filepath.Join(t.TempDir(), "x.pcap"), 0, flags, transport.Options{})
	assert.ErrorIs(t, err, api.ErrInvalidArgument)

	flags = pcapfile.DefaultFlags()
	flags.Mode = pcapfile.ModeWrite
	flags.LinkType = "token-ring"
	_, err = pcapfile.Open(filepath.Join(t.TempDir(), "y.pcap"), 0, flags, transport.Options{})
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}
