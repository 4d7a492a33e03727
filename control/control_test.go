// control/control_test.go
// Author: momentics <momentics@gmail.com>

package control_test

import (
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/control"
	"github.com/momentics/hioload-pktio/mpsc"
	"github.com/momentics/hioload-pktio/socket"
)

func TestNewLogger(t *testing.T) {
	log, err := control.NewLogger("debug")
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))

	_, err = control.NewLogger("loud")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fwd.yaml")
	body := `
engine: pcapfile
in: in.pcap
out: out.pcap
pipeline: true
channel_capacity: 256
sockets:
  pcapfile:
    frame_size: 512
    loop: true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := control.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "pcapfile", cfg.Engine)
	assert.True(t, cfg.Pipeline)
	assert.Equal(t, 256, cfg.ChannelCapacity)
	assert.Equal(t, 512, cfg.Sockets.PcapFile.FrameSize)
	assert.True(t, cfg.Sockets.PcapFile.Loop)
	// untouched keys keep their defaults
	assert.Equal(t, api.DefaultBufferFlags().FrameCount, cfg.Sockets.PcapFile.FrameCount)
	assert.Equal(t, -1, cfg.CPU)
	assert.NoError(t, cfg.Validate())
}

func TestDecodeConfig_RejectsUnknownKeys(t *testing.T) {
	_, err := control.DecodeConfig(strings.NewReader("engnie: pipe\n"))
	assert.Error(t, err)
}

func TestDecodeConfig_EmptyIsDefault(t *testing.T) {
	cfg, err := control.DecodeConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, control.DefaultConfig(), cfg)
}

func TestConfig_EncodeRoundTrip(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.In, cfg.Out = "a", "b"
	raw, err := cfg.Encode()
	require.NoError(t, err)
	back, err := control.DecodeConfig(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestConfig_ValidateCollectsAll(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Engine = "netmap"
	cfg.Pipeline = true
	cfg.ChannelCapacity = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrNotFound)
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "in is required")
	assert.Contains(t, err.Error(), "channel_capacity")
}

func TestMetrics_ChannelObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := control.NewMetrics(reg)
	require.NoError(t, err)

	cfg := mpsc.DefaultConfig(4)
	cfg.ProducerBatch = 2
	cfg.Observer = m.Channel("rx")
	p, c, err := mpsc.NewWithConfig[api.Descriptor](cfg)
	require.NoError(t, err)

	for i := range 6 {
		p.Push(api.Descriptor(i))
	}
	assert.Equal(t, uint64(2), p.Dropped())
	assert.Equal(t, 4, c.Sync())
	require.NoError(t, p.Close())

	want := `
# HELP pktio_mpsc_dropped_total Descriptors dropped because a lane was full.
# TYPE pktio_mpsc_dropped_total counter
pktio_mpsc_dropped_total{channel="default"} 0
pktio_mpsc_dropped_total{channel="rx"} 2
# HELP pktio_mpsc_flushed_total Descriptors moved from producer buffers into lanes.
# TYPE pktio_mpsc_flushed_total counter
pktio_mpsc_flushed_total{channel="default"} 0
pktio_mpsc_flushed_total{channel="rx"} 4
# HELP pktio_mpsc_lanes Registered producer lanes.
# TYPE pktio_mpsc_lanes gauge
pktio_mpsc_lanes{channel="default"} 0
pktio_mpsc_lanes{channel="rx"} 0
# HELP pktio_mpsc_synced_total Descriptors moved from lanes into the consumer cache.
# TYPE pktio_mpsc_synced_total counter
pktio_mpsc_synced_total{channel="default"} 0
pktio_mpsc_synced_total{channel="rx"} 4
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want),
		"pktio_mpsc_dropped_total", "pktio_mpsc_flushed_total", "pktio_mpsc_lanes", "pktio_mpsc_synced_total"))
}

func TestMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := control.NewMetrics(reg)
	require.NoError(t, err)
	_, err = control.NewMetrics(reg)
	assert.Error(t, err)
}

func TestMetrics_WatchSocket(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := control.NewMetrics(reg)
	require.NoError(t, err)

	s, err := socket.Open(socket.KindPipe, t.Name(), 0, socket.DefaultConfig(), socket.Options{})
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, m.WatchSocket("in", s))

	require.NoError(t, s.Send([]byte{1, 2, 3}))
	s.Flush()

	n, err := testutil.GatherAndCount(reg, "pktio_socket_sent_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Error(t, m.WatchSocket("in", s), "duplicate socket name")
}

func TestDebugProbes(t *testing.T) {
	dp := control.NewDebugProbes()
	s, err := socket.Open(socket.KindPipe, t.Name(), 0, socket.DefaultConfig(), socket.Options{})
	require.NoError(t, err)
	defer s.Close()
	dp.RegisterSocket("in", s)

	state := dp.DumpState()
	assert.Contains(t, state, "runtime.cpus")
	assert.Equal(t, api.SocketStats{}, state["socket.in"])

	rec := httptest.NewRecorder()
	dp.ServeHTTP(rec, httptest.NewRequest("GET", "/debug/probes", nil))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Contains(t, out, "socket.in")
}
