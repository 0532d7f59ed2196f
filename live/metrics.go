package live

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "live"

var (
	// connectsTotal counts connect attempts by outcome.
	connectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "connects_total",
			Help:      "Total number of connect attempts",
		},
		[]string{"status"}, // status: success, error
	)

	// connectDuration is a histogram of dial-to-ready duration in seconds.
	connectDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "connect_duration_seconds",
			Help:      "Duration from dial to setup acknowledgment in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// inboundFramesTotal counts decoded inbound frames by variant.
	inboundFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "inbound_frames_total",
			Help:      "Total number of inbound frames by variant",
		},
		[]string{"type"},
	)

	// outboundFramesTotal counts transmitted frames by variant.
	outboundFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outbound_frames_total",
			Help:      "Total number of outbound frames by variant",
		},
		[]string{"type"},
	)

	// droppedFramesTotal counts inbound frames discarded before dispatch.
	droppedFramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "dropped_frames_total",
			Help:      "Total number of inbound frames dropped before dispatch",
		},
		[]string{"reason"}, // reason: non_binary, malformed, duplicate_setup
	)

	// audioBytesTotal counts decoded inbound audio bytes.
	audioBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "audio_bytes_total",
			Help:      "Total decoded inbound audio bytes",
		},
	)

	// sessionsActive is a gauge of sessions currently in the ready phase.
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_active",
			Help:      "Number of sessions currently ready",
		},
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		connectsTotal,
		connectDuration,
		inboundFramesTotal,
		outboundFramesTotal,
		droppedFramesTotal,
		audioBytesTotal,
		sessionsActive,
	}
)

// RegisterMetrics registers the package metrics with the given registry.
// Already-registered collectors are tolerated so multiple sessions can share
// a registry.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range allMetrics {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
