package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestMetrics holds Prometheus metrics for external transcript sources.
type IngestMetrics struct {
	MessagesReceived *prometheus.CounterVec
	MessagesFailed   *prometheus.CounterVec
}

// NewIngestMetrics creates and registers ingest source metrics on the given registry.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	m := &IngestMetrics{
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "messages_received_total",
			Help:      "Total number of transcript messages received, by source.",
		}, []string{"source"}),
		MessagesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "messages_failed_total",
			Help:      "Total number of transcript messages that could not be ingested, by source and reason.",
		}, []string{"source", "reason"}),
	}

	reg.MustRegister(m.MessagesReceived, m.MessagesFailed)
	return m
}
