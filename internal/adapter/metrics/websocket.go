package metrics

import "github.com/prometheus/client_golang/prometheus"

// WebSocketMetrics holds Prometheus metrics for WebSocket subscribers.
type WebSocketMetrics struct {
	ActiveConnections prometheus.Gauge
	FramesWritten     *prometheus.CounterVec
	WriteFailures     prometheus.Counter
	PingFailures      prometheus.Counter
	WriteDuration     prometheus.Histogram
	Rejected          *prometheus.CounterVec
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_connections",
			Help:      "Number of active WebSocket connections.",
		}),
		FramesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "frames_written_total",
			Help:      "Total number of WebSocket frames written, by frame type.",
		}, []string{"type"}),
		WriteFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "write_failures_total",
			Help:      "Total number of failed WebSocket writes.",
		}),
		PingFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "ping_failures_total",
			Help:      "Total number of failed WebSocket pings.",
		}),
		WriteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "write_duration_seconds",
			Help:      "Duration of WebSocket frame writes in seconds.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "rejected_total",
			Help:      "Total number of refused WebSocket upgrades, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.ActiveConnections, m.FramesWritten, m.WriteFailures, m.PingFailures, m.WriteDuration, m.Rejected)
	return m
}
