package session

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics tracks session lifecycles and per-event handling. A nil *Metrics is a no-op.
type Metrics struct {
	active       prometheus.Gauge
	closes       *prometheus.CounterVec
	events       *prometheus.CounterVec
	eventLatency *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_sessions_active",
			Help: "Sessions that joined a room and have not closed yet.",
		}),
		closes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_session_closes_total",
			Help: "Sessions ended, by close reason.",
		}, []string{"reason"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_session_events_total",
			Help: "Inbound events handled, by kind and result.",
		}, []string{"kind", "result"}),
		eventLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roomchat_session_event_duration_seconds",
			Help:    "Time spent handling one inbound event.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	reg.MustRegister(m.active, m.closes, m.events, m.eventLatency)
	return m
}

func (m *Metrics) opened() {
	if m == nil {
		return
	}
	m.active.Inc()
}

func (m *Metrics) closed(joined bool, reason string) {
	if m == nil {
		return
	}
	if joined {
		m.active.Dec()
	}
	if reason == "" {
		reason = "normal"
	}
	m.closes.WithLabelValues(reason).Inc()
}

func (m *Metrics) event(kind, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind, result).Inc()
	m.eventLatency.WithLabelValues(kind).Observe(elapsed.Seconds())
}
