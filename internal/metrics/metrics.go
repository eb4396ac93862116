// Package metrics exposes the server's Prometheus instruments. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tune"

// Drop reasons.
const (
	ReasonMalformed   = "malformed"
	ReasonNotInRoom   = "not_in_room"
	ReasonRateLimited = "rate_limited"
	ReasonUnknown     = "unknown_type"
)

type Metrics struct {
	rooms            prometheus.Gauge
	connections      prometheus.Gauge
	intents          *prometheus.CounterVec
	droppedIntents   *prometheus.CounterVec
	droppedBroadcast prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		rooms: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms with at least one participant.",
		}),
		connections: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Open signal connections.",
		}),
		intents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_total",
			Help:      "Client intents received, by type.",
		}, []string{"type"}),
		droppedIntents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intents_dropped_total",
			Help:      "Client intents dropped without effect, by reason.",
		}, []string{"reason"}),
		droppedBroadcast: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_frames_dropped_total",
			Help:      "Outbound frames not queued because a member's buffer was full.",
		}),
	}
}

func (m *Metrics) SetRooms(n int) {
	if m == nil {
		return
	}
	m.rooms.Set(float64(n))
}

func (m *Metrics) ConnectionOpened() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) ConnectionClosed() {
	if m == nil {
		return
	}
	m.connections.Dec()
}

func (m *Metrics) Intent(typ string) {
	if m == nil {
		return
	}
	m.intents.WithLabelValues(typ).Inc()
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.droppedIntents.WithLabelValues(reason).Inc()
}

func (m *Metrics) BroadcastDropped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.droppedBroadcast.Add(float64(n))
}
