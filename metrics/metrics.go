// Package metrics defines the Prometheus collectors exported by the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "netpong"

// Fault label values, one per relay fault kind.
const (
	FaultDisconnect = "disconnect"
	FaultTimeout    = "timeout"
	FaultDecode     = "decode"
	FaultProtocol   = "protocol"
)

// Metrics holds every collector the relay updates.
type Metrics struct {
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	SessionsActive  prometheus.Gauge
	SessionsStarted prometheus.Counter

	FramesRelayed prometheus.Counter
	FramesDropped prometheus.Counter
	FramesEchoed  prometheus.Counter
	BytesRelayed  prometheus.Counter

	Faults         *prometheus.CounterVec
	RegistryResets prometheus.Counter

	HubEventDuration *prometheus.HistogramVec
	SessionDuration  prometheus.Histogram
}

// New creates the relay collectors and registers them with reg. A nil reg
// leaves them unregistered, which is what tests that build several relays
// in one process want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of live client connections",
		}),

		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of accepted client connections",
		}),

		SessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently relaying snapshots",
		}),

		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of sessions that reached the active state",
		}),

		FramesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_relayed_total",
			Help:      "Total number of snapshot frames forwarded to a peer",
		}),

		FramesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Total number of valid snapshot frames that could not be forwarded",
		}),

		FramesEchoed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_echoed_total",
			Help:      "Total number of malformed frames echoed back to their sender",
		}),

		BytesRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_relayed_total",
			Help:      "Total payload bytes forwarded to peers",
		}),

		Faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "faults_total",
			Help:      "Total number of connection faults by kind",
		}, []string{"kind"}),

		RegistryResets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registry_resets_total",
			Help:      "Total number of full pairing resets after the registry drained",
		}),

		HubEventDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "hub_event_duration_seconds",
			Help:      "Time from enqueueing a hub event until it finished running",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, []string{"event"}),

		SessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_duration_seconds",
			Help:      "Duration of sessions from start until termination",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
	}

	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}

	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ConnectionsActive,
		m.ConnectionsTotal,
		m.SessionsActive,
		m.SessionsStarted,
		m.FramesRelayed,
		m.FramesDropped,
		m.FramesEchoed,
		m.BytesRelayed,
		m.Faults,
		m.RegistryResets,
		m.HubEventDuration,
		m.SessionDuration,
	}
}
