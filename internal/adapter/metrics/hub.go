package metrics

import "github.com/prometheus/client_golang/prometheus"

// HubMetrics holds Prometheus metrics for the transcript broadcast hub.
type HubMetrics struct {
	ActiveSessions      prometheus.Gauge
	ActiveConnections   prometheus.Gauge
	SegmentsIngested    prometheus.Counter
	IngestRejected      *prometheus.CounterVec
	SegmentsEvicted     prometheus.Counter
	SegmentsReplayed    prometheus.Counter
	GapNotices          prometheus.Counter
	SlowConsumerEvicted prometheus.Counter
	SessionsReaped      prometheus.Counter
	FanOutDuration      prometheus.Histogram
}

// NewHubMetrics creates and registers hub metrics on the given registry.
func NewHubMetrics(reg prometheus.Registerer) *HubMetrics {
	m := &HubMetrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "active_sessions",
			Help:      "Number of live transcript sessions.",
		}),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "active_connections",
			Help:      "Number of subscriber connections across all sessions.",
		}),
		SegmentsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "segments_ingested_total",
			Help:      "Total number of transcript segments accepted.",
		}),
		IngestRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "ingest_rejected_total",
			Help:      "Total number of rejected ingest calls, by reason.",
		}, []string{"reason"}),
		SegmentsEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "segments_evicted_total",
			Help:      "Total number of segments evicted from replay buffers.",
		}),
		SegmentsReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "segments_replayed_total",
			Help:      "Total number of segments replayed to reconnecting subscribers.",
		}),
		GapNotices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "gap_notices_total",
			Help:      "Total number of gap notices delivered to subscribers.",
		}),
		SlowConsumerEvicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "slow_consumers_evicted_total",
			Help:      "Total number of connections dropped for falling too far behind.",
		}),
		SessionsReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "sessions_reaped_total",
			Help:      "Total number of idle sessions closed by the reaper.",
		}),
		FanOutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "ingest_duration_seconds",
			Help:      "Time spent appending a segment and waking its subscribers.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}),
	}

	reg.MustRegister(
		m.ActiveSessions, m.ActiveConnections, m.SegmentsIngested, m.IngestRejected,
		m.SegmentsEvicted, m.SegmentsReplayed, m.GapNotices, m.SlowConsumerEvicted,
		m.SessionsReaped, m.FanOutDuration,
	)
	return m
}
