/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package convert

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultDurationBuckets is default buckets for the conversion duration histogram.
var DefaultDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}

// MetricsCollector represents a collector of conversion metrics.
type MetricsCollector interface {
	// ObserveConversion records the duration of a conversion into the format with the status ("ok" or "error").
	ObserveConversion(format Format, status string, d time.Duration)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace       string
	DurationBuckets []float64
	ConstLabels     prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for conversions.
type PrometheusMetrics struct {
	Durations *prometheus.HistogramVec
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	buckets := opts.DurationBuckets
	if buckets == nil {
		buckets = DefaultDurationBuckets
	}
	return &PrometheusMetrics{
		Durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   opts.Namespace,
				Name:        "conversion_duration_seconds",
				Help:        "Duration of PDF conversions.",
				Buckets:     buckets,
				ConstLabels: opts.ConstLabels,
			},
			[]string{"format", "status"},
		),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.Durations)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.Durations)
}

// ObserveConversion records the duration of a conversion.
func (pm *PrometheusMetrics) ObserveConversion(format Format, status string, d time.Duration) {
	pm.Durations.WithLabelValues(format.String(), status).Observe(d.Seconds())
}

type disabledMetrics struct{}

func (disabledMetrics) ObserveConversion(Format, string, time.Duration) {}
