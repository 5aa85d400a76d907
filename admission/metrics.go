/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import "github.com/prometheus/client_golang/prometheus"

// MetricsCollector represents a collector of admission metrics.
type MetricsCollector interface {
	// IncDecisions increments the number of decisions made for the operation with the reason.
	// RejectReasonNone is passed for admitted requests.
	IncDecisions(op Operation, reason RejectReason)

	// SetTrackedClients sets the number of clients that have at least one request inside the window.
	SetTrackedClients(n int)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels
}

// PrometheusMetrics represents Prometheus metrics for the admission controller.
type PrometheusMetrics struct {
	DecisionsTotal *prometheus.CounterVec
	TrackedClients prometheus.Gauge
}

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	return &PrometheusMetrics{
		DecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   opts.Namespace,
				Name:        "admission_decisions_total",
				Help:        "Number of admission decisions.",
				ConstLabels: opts.ConstLabels,
			},
			[]string{"operation", "result"},
		),
		TrackedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "admission_tracked_clients",
			Help:        "Number of clients with requests inside the quota window.",
			ConstLabels: opts.ConstLabels,
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(pm.DecisionsTotal, pm.TrackedClients)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.DecisionsTotal)
	prometheus.Unregister(pm.TrackedClients)
}

// IncDecisions increments the number of decisions.
func (pm *PrometheusMetrics) IncDecisions(op Operation, reason RejectReason) {
	result := "admitted"
	if reason != RejectReasonNone {
		result = reason.String()
	}
	pm.DecisionsTotal.WithLabelValues(string(op), result).Inc()
}

// SetTrackedClients sets the number of tracked clients.
func (pm *PrometheusMetrics) SetTrackedClients(n int) {
	pm.TrackedClients.Set(float64(n))
}

type disabledMetrics struct{}

func (disabledMetrics) IncDecisions(Operation, RejectReason) {}
func (disabledMetrics) SetTrackedClients(int)                {}
