/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricsLabelMethod     = "method"
	metricsLabelRoute      = "route_pattern"
	metricsLabelClientKind = "user_agent_type"
	metricsLabelStatus     = "status_code"
)

const (
	userAgentTypeBrowser    = "browser"
	userAgentTypeHTTPClient = "http-client"
)

// DefaultHTTPRequestDurationBuckets covers quick status calls as well as slow conversions of large documents.
var DefaultHTTPRequestDurationBuckets = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// HTTPRequestMetricsCollectorOpts configures HTTPRequestMetricsCollector.
type HTTPRequestMetricsCollectorOpts struct {
	Namespace       string
	DurationBuckets []float64
	ConstLabels     prometheus.Labels
}

// HTTPRequestMetricsCollector holds Prometheus metrics for served HTTP requests.
type HTTPRequestMetricsCollector struct {
	Durations *prometheus.HistogramVec
	InFlight  *prometheus.GaugeVec
}

// NewHTTPRequestMetricsCollector creates a collector without namespace and with default buckets.
func NewHTTPRequestMetricsCollector() *HTTPRequestMetricsCollector {
	return NewHTTPRequestMetricsCollectorWithOpts(HTTPRequestMetricsCollectorOpts{})
}

// NewHTTPRequestMetricsCollectorWithOpts creates a collector with the given options.
func NewHTTPRequestMetricsCollectorWithOpts(opts HTTPRequestMetricsCollectorOpts) *HTTPRequestMetricsCollector {
	buckets := opts.DurationBuckets
	if buckets == nil {
		buckets = DefaultHTTPRequestDurationBuckets
	}
	reqLabels := []string{metricsLabelMethod, metricsLabelRoute, metricsLabelClientKind}
	return &HTTPRequestMetricsCollector{
		Durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "http_request_duration_seconds",
			Help:        "Duration of served HTTP requests.",
			Buckets:     buckets,
			ConstLabels: opts.ConstLabels,
		}, append(reqLabels, metricsLabelStatus)),
		InFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests being served right now.",
			ConstLabels: opts.ConstLabels,
		}, reqLabels),
	}
}

// MustRegister registers the collector in the default Prometheus registry.
func (c *HTTPRequestMetricsCollector) MustRegister() {
	prometheus.MustRegister(c.Durations, c.InFlight)
}

// Unregister removes the collector from the default Prometheus registry.
func (c *HTTPRequestMetricsCollector) Unregister() {
	prometheus.Unregister(c.InFlight)
	prometheus.Unregister(c.Durations)
}

// UserAgentTypeGetterFunc classifies the caller of a request.
// It must return a value from a small fixed set since it becomes a label value.
type UserAgentTypeGetterFunc func(r *http.Request) string

// HTTPRequestMetricsOpts configures HTTPRequestMetricsWithOpts.
type HTTPRequestMetricsOpts struct {
	GetUserAgentType  UserAgentTypeGetterFunc
	ExcludedEndpoints []string
}

// HTTPRequestMetrics observes duration and in-flight number of HTTP requests.
func HTTPRequestMetrics(
	collector *HTTPRequestMetricsCollector, getRoutePattern RoutePatternGetterFunc,
) func(next http.Handler) http.Handler {
	return HTTPRequestMetricsWithOpts(collector, getRoutePattern, HTTPRequestMetricsOpts{})
}

// HTTPRequestMetricsWithOpts is HTTPRequestMetrics with options.
func HTTPRequestMetricsWithOpts(
	collector *HTTPRequestMetricsCollector, getRoutePattern RoutePatternGetterFunc, opts HTTPRequestMetricsOpts,
) func(next http.Handler) http.Handler {
	if getRoutePattern == nil {
		panic("route pattern getter is required")
	}
	getUserAgentType := opts.GetUserAgentType
	if getUserAgentType == nil {
		getUserAgentType = userAgentType
	}
	excluded := make(map[string]struct{}, len(opts.ExcludedEndpoints))
	for _, endpoint := range opts.ExcludedEndpoints {
		excluded[endpoint] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if _, skip := excluded[r.URL.Path]; skip {
				next.ServeHTTP(rw, r)
				return
			}

			startTime := GetRequestStartTimeFromContext(r.Context())
			if startTime.IsZero() {
				startTime = time.Now()
				r = r.WithContext(NewContextWithRequestStartTime(r.Context(), startTime))
			}

			labels := prometheus.Labels{
				metricsLabelMethod:     r.Method,
				metricsLabelRoute:      getRoutePattern(r),
				metricsLabelClientKind: getUserAgentType(r),
			}
			inFlight := collector.InFlight.With(labels)
			inFlight.Inc()
			defer inFlight.Dec()

			observe := func(status int) {
				// Route is unknown before routing if the middleware is mounted on the root router.
				if labels[metricsLabelRoute] == "" {
					labels[metricsLabelRoute] = getRoutePattern(r)
				}
				durLabels := prometheus.Labels{metricsLabelStatus: strconv.Itoa(status)}
				for k, v := range labels {
					durLabels[k] = v
				}
				collector.Durations.With(durLabels).Observe(time.Since(startTime).Seconds())
			}

			wrw := WrapResponseWriterIfNeeded(rw, r.ProtoMajor)
			defer func() {
				if p := recover(); p != nil {
					if p != http.ErrAbortHandler {
						observe(http.StatusInternalServerError)
					}
					panic(p)
				}
				observe(statusOrOK(wrw))
			}()
			next.ServeHTTP(wrw, r)
		})
	}
}

func userAgentType(r *http.Request) string {
	if strings.Contains(strings.ToLower(r.UserAgent()), "mozilla") {
		return userAgentTypeBrowser
	}
	return userAgentTypeHTTPClient
}
