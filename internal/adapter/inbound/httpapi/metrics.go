// Package httpapi provides the HTTP transport adapter for the gateway.
package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for ChainGate.
// Pass to components that need to record metrics.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	AskOutcomes     *prometheus.CounterVec
	ViolationsTotal *prometheus.CounterVec
	Confidence      prometheus.Histogram
	FallbacksTotal  prometheus.Counter
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chaingate",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"path", "status"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "chaingate",
				Name:      "request_duration_seconds",
				Help:      "Request duration in seconds",
				Buckets:   prometheus.DefBuckets, // 5ms to 10s
			},
			[]string{"path"},
		),
		AskOutcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chaingate",
				Name:      "ask_outcomes_total",
				Help:      "Pipeline outcomes by classification",
			},
			[]string{"outcome", "classification"},
		),
		ViolationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "chaingate",
				Name:      "violations_total",
				Help:      "Security violations detected on generated queries",
			},
			[]string{"kind", "severity"},
		),
		Confidence: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "chaingate",
				Name:      "query_confidence",
				Help:      "Confidence scores of generated queries",
				Buckets:   prometheus.LinearBuckets(0, 0.1, 11), // 0.0 to 1.0
			},
		),
		FallbacksTotal: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Namespace: "chaingate",
				Name:      "fallbacks_total",
				Help:      "Requests answered with a pre-approved fallback query",
			},
		),
	}
}

// RegisterSessionGauge exposes the active session count.
func RegisterSessionGauge(reg prometheus.Registerer, count func() int) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "chaingate",
			Name:      "active_sessions",
			Help:      "Number of active sessions",
		},
		func() float64 { return float64(count()) },
	))
}

// RegisterAuditDropGauge exposes the async audit drop counter.
func RegisterAuditDropGauge(reg prometheus.Registerer, drops func() int64) {
	reg.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "chaingate",
			Name:      "audit_drops_total",
			Help:      "Total audit records dropped due to backpressure",
		},
		func() float64 { return float64(drops()) },
	))
}
