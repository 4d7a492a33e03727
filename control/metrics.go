// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus metrics for mpsc channels and packet sockets.

package control

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/mpsc"
)

const namespace = "pktio"

// Metrics holds channel and socket collectors registered on one registry.
// Metrics itself observes the channel labelled "default".
type Metrics struct {
	reg prometheus.Registerer

	lanes   *prometheus.GaugeVec
	flushed *prometheus.CounterVec
	dropped *prometheus.CounterVec
	synced  *prometheus.CounterVec

	def mpsc.Observer
}

var _ mpsc.Observer = (*Metrics)(nil)

// NewMetrics registers channel collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		reg: reg,
		lanes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "mpsc", Name: "lanes",
			Help: "Registered producer lanes.",
		}, []string{"channel"}),
		flushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mpsc", Name: "flushed_total",
			Help: "Descriptors moved from producer buffers into lanes.",
		}, []string{"channel"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mpsc", Name: "dropped_total",
			Help: "Descriptors dropped because a lane was full.",
		}, []string{"channel"}),
		synced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mpsc", Name: "synced_total",
			Help: "Descriptors moved from lanes into the consumer cache.",
		}, []string{"channel"}),
	}
	var err error
	for _, c := range []prometheus.Collector{m.lanes, m.flushed, m.dropped, m.synced} {
		err = multierr.Append(err, reg.Register(c))
	}
	if err != nil {
		return nil, err
	}
	m.def = m.Channel("default")
	return m, nil
}

// Channel returns an observer whose series carry channel=name.
func (m *Metrics) Channel(name string) mpsc.Observer {
	return &channelObserver{
		lanes:   m.lanes.WithLabelValues(name),
		flushed: m.flushed.WithLabelValues(name),
		dropped: m.dropped.WithLabelValues(name),
		synced:  m.synced.WithLabelValues(name),
	}
}

func (m *Metrics) LaneRegistered(lanes int)      { m.def.LaneRegistered(lanes) }
func (m *Metrics) LaneRemoved(lanes int)         { m.def.LaneRemoved(lanes) }
func (m *Metrics) Flushed(accepted, dropped int) { m.def.Flushed(accepted, dropped) }
func (m *Metrics) Synced(n int)                  { m.def.Synced(n) }

// WatchSocket exports the counters of s under socket=name.
// Stats is read at scrape time.
func (m *Metrics) WatchSocket(name string, s api.Socket) error {
	labels := prometheus.Labels{"socket": name}
	counter := func(metric, help string, read func(api.SocketStats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "socket", Name: metric,
			Help: help, ConstLabels: labels,
		}, func() float64 { return float64(read(s.Stats())) })
	}
	var err error
	for _, c := range []prometheus.Collector{
		counter("received_total", "Frames received.", func(st api.SocketStats) uint64 { return st.Received }),
		counter("sent_total", "Frames handed to the engine.", func(st api.SocketStats) uint64 { return st.Sent }),
		counter("dropped_total", "Frames lost by the socket.", func(st api.SocketStats) uint64 { return st.Dropped }),
		counter("no_memory_total", "Receive attempts without a free slot.", func(st api.SocketStats) uint64 { return st.NoMemory }),
	} {
		err = multierr.Append(err, m.reg.Register(c))
	}
	return err
}

type channelObserver struct {
	lanes   prometheus.Gauge
	flushed prometheus.Counter
	dropped prometheus.Counter
	synced  prometheus.Counter
}

func (o *channelObserver) LaneRegistered(lanes int) { o.lanes.Set(float64(lanes)) }
func (o *channelObserver) LaneRemoved(lanes int)    { o.lanes.Set(float64(lanes)) }

func (o *channelObserver) Flushed(accepted, dropped int) {
	o.flushed.Add(float64(accepted))
	o.dropped.Add(float64(dropped))
}

func (o *channelObserver) Synced(n int) { o.synced.Add(float64(n)) }
