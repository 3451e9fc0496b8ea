// Package metric exposes Prometheus instrumentation for the plugin
// controller. A nil *Metrics disables all recording, so call sites never
// branch on whether metrics are configured.
package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the controller's Prometheus collectors.
type Metrics struct {
	messagesIn  *prometheus.CounterVec // by kind
	messagesOut *prometheus.CounterVec // by kind
	correlation *prometheus.CounterVec // by outcome: resolved, rejected, timeout, stale
	pending     prometheus.Gauge
	generations *prometheus.CounterVec // by final status
}

// New creates and registers the controller metrics with the given registerer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		messagesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugin",
			Subsystem: "channel",
			Name:      "messages_in_total",
			Help:      "Inbound messages by kind",
		}, []string{"kind"}),
		messagesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugin",
			Subsystem: "channel",
			Name:      "messages_out_total",
			Help:      "Outbound messages by kind",
		}, []string{"kind"}),
		correlation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugin",
			Subsystem: "correlate",
			Name:      "outcomes_total",
			Help:      "Correlated request outcomes",
		}, []string{"outcome"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "plugin",
			Subsystem: "correlate",
			Name:      "pending_requests",
			Help:      "Requests awaiting a correlated response",
		}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plugin",
			Subsystem: "generation",
			Name:      "sessions_total",
			Help:      "Generation sessions by final status",
		}, []string{"status"}),
	}
	for _, c := range []prometheus.Collector{
		m.messagesIn, m.messagesOut, m.correlation, m.pending, m.generations,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MessageIn records one inbound message.
func (m *Metrics) MessageIn(kind string) {
	if m == nil {
		return
	}
	m.messagesIn.WithLabelValues(kind).Inc()
}

// MessageOut records one outbound message.
func (m *Metrics) MessageOut(kind string) {
	if m == nil {
		return
	}
	m.messagesOut.WithLabelValues(kind).Inc()
}

// CorrelationOutcome records how a correlated request ended.
func (m *Metrics) CorrelationOutcome(outcome string) {
	if m == nil {
		return
	}
	m.correlation.WithLabelValues(outcome).Inc()
}

// PendingDelta adjusts the in-flight request gauge.
func (m *Metrics) PendingDelta(d float64) {
	if m == nil {
		return
	}
	m.pending.Add(d)
}

// GenerationFinished records a generation session's final status.
func (m *Metrics) GenerationFinished(status string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(status).Inc()
}
