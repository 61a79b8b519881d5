package realtime

import "github.com/prometheus/client_golang/prometheus"

// Metrics tracks live presence and fan-out health. A nil *Metrics is a no-op.
type Metrics struct {
	connections      prometheus.Gauge
	rooms            prometheus.Gauge
	deliveries       prometheus.Counter
	deliveryFailures *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_connections_active",
			Help: "Live connections currently registered in a room.",
		}),
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roomchat_rooms_active",
			Help: "Rooms with at least one live connection.",
		}),
		deliveries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "roomchat_broadcast_deliveries_total",
			Help: "Payloads handed to a connection's send queue.",
		}),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_broadcast_failures_total",
			Help: "Broadcast deliveries that failed and evicted the connection.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.connections, m.rooms, m.deliveries, m.deliveryFailures)
	return m
}

func (m *Metrics) connectionAdded() {
	if m == nil {
		return
	}
	m.connections.Inc()
}

func (m *Metrics) connectionRemoved(n int) {
	if m == nil || n == 0 {
		return
	}
	m.connections.Sub(float64(n))
}

func (m *Metrics) roomOpened() {
	if m == nil {
		return
	}
	m.rooms.Inc()
}

func (m *Metrics) roomClosed(n int) {
	if m == nil || n == 0 {
		return
	}
	m.rooms.Sub(float64(n))
}

func (m *Metrics) delivered() {
	if m == nil {
		return
	}
	m.deliveries.Inc()
}

func (m *Metrics) deliveryFailed(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.deliveryFailures.WithLabelValues(reason).Inc()
}
