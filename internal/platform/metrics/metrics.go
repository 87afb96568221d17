package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Permission transitions by action ("granted"/"revoked").
	Transitions *prometheus.CounterVec

	// Chain verification runs by outcome ("valid"/"invalid").
	ChainVerifications *prometheus.CounterVec

	// Anonymized labels assigned by entity kind ("User"/"Org").
	LabelsAssigned *prometheus.CounterVec

	// Appends retried after losing the chain-tail race.
	AppendConflicts prometheus.Counter

	// Outbox rows published to Kafka.
	OutboxPublished prometheus.Counter

	// HTTP request latency by route.
	RequestLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustbase_transitions_total",
			Help: "Total permission transitions recorded, by action",
		}, []string{"action"}),

		ChainVerifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustbase_chain_verifications_total",
			Help: "Total ledger chain verification runs, by outcome",
		}, []string{"outcome"}),

		LabelsAssigned: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "trustbase_anonymized_labels_assigned_total",
			Help: "Total anonymized labels assigned, by entity kind",
		}, []string{"kind"}),

		AppendConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbase_ledger_append_conflicts_total",
			Help: "Total ledger appends retried after a chain-tail conflict",
		}),

		OutboxPublished: promauto.NewCounter(prometheus.CounterOpts{
			Name: "trustbase_outbox_published_total",
			Help: "Total ledger outbox rows published to Kafka",
		}),

		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustbase_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
	}
}

// IncrementTransition records a successful permission transition.
func (m *Metrics) IncrementTransition(action string) {
	if m != nil {
		m.Transitions.WithLabelValues(action).Inc()
	}
}

// IncrementVerification records a chain verification outcome.
func (m *Metrics) IncrementVerification(outcome string) {
	if m != nil {
		m.ChainVerifications.WithLabelValues(outcome).Inc()
	}
}

// IncrementLabelAssigned records a newly assigned anonymized label.
func (m *Metrics) IncrementLabelAssigned(kind string) {
	if m != nil {
		m.LabelsAssigned.WithLabelValues(kind).Inc()
	}
}

// IncrementAppendConflict records a lost chain-tail race.
func (m *Metrics) IncrementAppendConflict() {
	if m != nil {
		m.AppendConflicts.Inc()
	}
}

// IncrementOutboxPublished records a published outbox row.
func (m *Metrics) IncrementOutboxPublished() {
	if m != nil {
		m.OutboxPublished.Inc()
	}
}

// ObserveRequestLatency records the duration of an HTTP request.
func (m *Metrics) ObserveRequestLatency(route string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route).Observe(d.Seconds())
	}
}
