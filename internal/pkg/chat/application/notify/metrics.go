package notify

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts offline notification outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	jobs   *prometheus.CounterVec
	pushes *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_notify_jobs_total",
			Help: "Offline notification jobs by admission result.",
		}, []string{"result"}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roomchat_notify_pushes_total",
			Help: "Push notifications handed to the notifier by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.jobs, m.pushes)
	return m
}

func (m *Metrics) enqueued() {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues("enqueued").Inc()
}

func (m *Metrics) dropped() {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues("dropped").Inc()
}

func (m *Metrics) sent() {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues("sent").Inc()
}

func (m *Metrics) failed() {
	if m == nil {
		return
	}
	m.pushes.WithLabelValues("failed").Inc()
}
