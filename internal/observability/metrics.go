package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	frames = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcpwire",
			Subsystem: "transport",
			Name:      "frames_total",
			Help:      "Frames moved through a transport.",
		},
		[]string{"node", "direction"},
	)
	payloadBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tcpwire",
			Subsystem: "transport",
			Name:      "payload_bytes_total",
			Help:      "Payload bytes moved through a transport, before framing.",
		},
		[]string{"node", "direction"},
	)
	payloadSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tcpwire",
			Subsystem: "transport",
			Name:      "payload_size_bytes",
			Help:      "Payload size per frame.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		},
		[]string{"node", "direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(frames, payloadBytes, payloadSize)
	})
}

// RecordFrame counts one frame of n payload bytes.
func RecordFrame(node, direction string, n int) {
	RegisterMetrics()
	frames.WithLabelValues(node, direction).Inc()
	payloadBytes.WithLabelValues(node, direction).Add(float64(n))
	payloadSize.WithLabelValues(node, direction).Observe(float64(n))
}
