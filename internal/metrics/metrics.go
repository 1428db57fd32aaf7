// Package metrics exposes extraction counters and latency histograms.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the collectors the orchestrator records into. Construct
// one per registry; tests pass a fresh registry to avoid duplicate
// registration.
type Metrics struct {
	Requests  *prometheus.CounterVec
	Fallbacks prometheus.Counter
	Duration  prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "extraction_requests_total",
			Help: "Extraction requests by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		Fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "extraction_fallbacks_total",
			Help: "Cloud extractions that fell back to local OCR.",
		}),
		Duration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "extraction_duration_seconds",
			Help:    "End-to-end extraction latency.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
}
