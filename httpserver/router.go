/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pdffacil/pdfgate/httpserver/middleware"
	"github.com/pdffacil/pdfgate/internal/ratelimit"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/restapi"
)

// RouterOpts describes the routes served by the server.
type RouterOpts struct {
	RootRoutes      APIRoute
	APIRoutes       map[APIVersion]APIRoute
	RootMiddlewares []func(http.Handler) http.Handler
	ErrorDomain     string
	HealthCheck     HealthCheck
	MetricsHandler  http.Handler
}

func configureRouter(router chi.Router, logger log.FieldLogger, opts RouterOpts) { //nolint // hugeParam
	router.Use(opts.RootMiddlewares...)

	metricsHandler := opts.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	router.Method(http.MethodGet, "/metrics", metricsHandler)
	router.Method(http.MethodGet, "/healthz", NewHealthCheckHandler(opts.HealthCheck))

	if opts.RootRoutes != nil {
		router.Group(opts.RootRoutes)
	}
	for ver, routes := range opts.APIRoutes {
		router.Route(fmt.Sprintf("/api/v%d", ver), routes)
	}

	respondRoutingError := func(status int, code, message string) http.HandlerFunc {
		return func(rw http.ResponseWriter, r *http.Request) {
			restapi.RespondError(rw, status, restapi.NewError(opts.ErrorDomain, code, message), loggerFromRequest(r, logger))
		}
	}
	router.NotFound(respondRoutingError(
		http.StatusNotFound, restapi.ErrCodeNotFound, restapi.ErrMessageNotFound))
	router.MethodNotAllowed(respondRoutingError(
		http.StatusMethodNotAllowed, restapi.ErrCodeMethodNotAllowed, restapi.ErrMessageMethodNotAllowed))
}

func loggerFromRequest(r *http.Request, fallback log.FieldLogger) log.FieldLogger {
	if logger := middleware.GetLoggerFromContext(r.Context()); logger != nil {
		return logger
	}
	return fallback
}

// applyDefaultMiddlewaresToRouter installs the chain every request goes through:
// start time, request id, logging, client id, recovery, metrics, CORS, burst rate limit and body limit.
func applyDefaultMiddlewaresToRouter( //nolint // hugeParam
	router chi.Router, cfg *Config, logger log.FieldLogger, opts Opts, metricsCollector *middleware.HTTPRequestMetricsCollector,
) error {
	router.Use(requestStartTime)
	router.Use(middleware.RequestID())
	router.Use(middleware.LoggingWithOpts(logger, loggingOpts(&cfg.Log)))
	router.Use(middleware.ClientID())
	router.Use(middleware.Recovery(opts.ErrorDomain))

	getRoutePattern := opts.HTTPRequestMetrics.GetRoutePattern
	if getRoutePattern == nil {
		getRoutePattern = GetChiRoutePattern
	}
	router.Use(middleware.HTTPRequestMetricsWithOpts(metricsCollector, getRoutePattern, middleware.HTTPRequestMetricsOpts{
		GetUserAgentType:  opts.HTTPRequestMetrics.GetUserAgentType,
		ExcludedEndpoints: systemEndpoints,
	}))

	if len(cfg.CORS.AllowedOrigins) != 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"*"},
			ExposedHeaders:   []string{"Content-Disposition", "Retry-After", "X-Quota-Limit", "X-Quota-Remaining"},
			AllowCredentials: cfg.CORS.AllowCredentials,
		}))
	}

	if cfg.RateLimit.Enabled {
		rateLimitMw, err := burstRateLimit(&cfg.RateLimit, opts.ErrorDomain)
		if err != nil {
			return err
		}
		router.Use(rateLimitMw)
	}

	if cfg.Limits.MaxBodySize > 0 {
		router.Use(middleware.RequestBodyLimit(uint64(cfg.Limits.MaxBodySize), opts.ErrorDomain))
	}
	return nil
}

func requestStartTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(rw, r.WithContext(middleware.NewContextWithRequestStartTime(r.Context(), time.Now())))
	})
}

func loggingOpts(cfg *LogConfig) middleware.LoggingOpts {
	headers := make(map[string]string, len(cfg.RequestHeaders))
	for _, name := range cfg.RequestHeaders {
		headers[name] = "req_header_" + strings.ToLower(strings.ReplaceAll(name, "-", "_"))
	}
	return middleware.LoggingOpts{
		RequestStart:           cfg.RequestStart,
		RequestHeaders:         headers,
		ExcludedEndpoints:      cfg.ExcludedEndpoints,
		AddRequestInfoToLogger: cfg.AddRequestInfoToLogger,
		SlowRequestThreshold:   time.Duration(cfg.SlowRequestThreshold),
	}
}

// burstRateLimit limits requests of every client per second. System endpoints are never limited.
func burstRateLimit(cfg *RateLimitConfig, errDomain string) (func(http.Handler) http.Handler, error) {
	alg, err := ratelimit.ParseAlg(cfg.Alg)
	if err != nil {
		return nil, err
	}
	mw, err := middleware.RateLimitWithOpts(middleware.Rate{Count: cfg.Rate, Duration: time.Second}, errDomain,
		middleware.RateLimitOpts{
			Alg:      alg,
			MaxBurst: cfg.Burst,
			MaxKeys:  cfg.MaxKeys,
			DryRun:   cfg.DryRun,
			GetKey: func(r *http.Request) (string, bool, error) {
				return middleware.GetClientID(r), isSystemEndpoint(r.URL.Path), nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("create rate limit middleware: %w", err)
	}
	return mw, nil
}

func isSystemEndpoint(path string) bool {
	for _, endpoint := range systemEndpoints {
		if path == endpoint {
			return true
		}
	}
	return false
}

// GetChiRoutePattern returns the chi route pattern matched by the request.
// Before routing is done, the pattern is resolved by matching the request against the router.
func GetChiRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}

	routePath := r.URL.RawPath
	if routePath == "" {
		routePath = r.URL.Path
	}
	tctx := chi.NewRouteContext()
	if !rctx.Routes.Match(tctx, r.Method, routePath) {
		return ""
	}
	return tctx.RoutePattern()
}
