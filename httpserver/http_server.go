/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpserver provides the HTTP server of pdfgate with the default middleware chain
// (request id, logging, recovery, metrics, CORS, rate and body limits) and the system endpoints.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"

	"github.com/pdffacil/pdfgate/httpserver/middleware"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/service"
)

// systemEndpoints are not involved in metrics collecting and rate limiting.
var systemEndpoints = []string{"/metrics", "/healthz"}

// APIVersion is the version number in the "/api/v{version}" prefix.
type APIVersion = int

// APIRoute registers routes of one API version.
type APIRoute = func(router chi.Router)

// HTTPRequestMetricsOpts configures the request metrics of the server.
type HTTPRequestMetricsOpts struct {
	Namespace       string
	DurationBuckets []float64
	ConstLabels     prometheus.Labels

	GetUserAgentType middleware.UserAgentTypeGetterFunc
	GetRoutePattern  middleware.RoutePatternGetterFunc
}

// Opts represents options for New.
type Opts struct {
	// RootRoutes are mounted directly at "/".
	RootRoutes APIRoute
	// APIRoutes are mounted under "/api/v{version}".
	APIRoutes map[APIVersion]APIRoute
	// RootMiddlewares are applied after the default ones.
	RootMiddlewares []func(http.Handler) http.Handler

	ErrorDomain string
	HealthCheck HealthCheck
	// MetricsHandler serves /metrics. promhttp.Handler() is used if nil.
	MetricsHandler     http.Handler
	HTTPRequestMetrics HTTPRequestMetricsOpts
}

// HTTPServer serves the pdfgate API. It implements service.Unit and service.MetricsRegisterer.
type HTTPServer struct {
	URL             string
	HTTPServer      *http.Server
	Logger          log.FieldLogger
	ShutdownTimeout time.Duration

	metricsCollector *middleware.HTTPRequestMetricsCollector
	port             atomic.Int32
	serving          atomic.Bool
	done             chan struct{}
}

var _ service.Unit = (*HTTPServer)(nil)
var _ service.MetricsRegisterer = (*HTTPServer)(nil)

// New creates a new HTTPServer. All routes are served through the default middleware chain.
func New(cfg *Config, logger log.FieldLogger, opts Opts) (*HTTPServer, error) { //nolint // hugeParam
	metricsCollector := middleware.NewHTTPRequestMetricsCollectorWithOpts(middleware.HTTPRequestMetricsCollectorOpts{
		Namespace:       opts.HTTPRequestMetrics.Namespace,
		DurationBuckets: opts.HTTPRequestMetrics.DurationBuckets,
		ConstLabels:     opts.HTTPRequestMetrics.ConstLabels,
	})

	router := chi.NewRouter()
	if err := applyDefaultMiddlewaresToRouter(router, cfg, logger, opts, metricsCollector); err != nil {
		return nil, err
	}
	configureRouter(router, logger, RouterOpts{
		RootRoutes:      opts.RootRoutes,
		APIRoutes:       opts.APIRoutes,
		RootMiddlewares: opts.RootMiddlewares,
		ErrorDomain:     opts.ErrorDomain,
		HealthCheck:     opts.HealthCheck,
		MetricsHandler:  opts.MetricsHandler,
	})

	return &HTTPServer{
		URL: "http://" + cfg.Address,
		HTTPServer: &http.Server{
			Addr:              cfg.Address,
			Handler:           router,
			ReadTimeout:       time.Duration(cfg.Timeouts.Read),
			ReadHeaderTimeout: time.Duration(cfg.Timeouts.ReadHeader),
			WriteTimeout:      time.Duration(cfg.Timeouts.Write),
			IdleTimeout:       time.Duration(cfg.Timeouts.Idle),
		},
		Logger:           logger,
		ShutdownTimeout:  time.Duration(cfg.Timeouts.Shutdown),
		metricsCollector: metricsCollector,
		done:             make(chan struct{}),
	}, nil
}

// Start listens on the configured address and serves requests until Stop is called.
// It blocks, so it's supposed to be run in a separate goroutine. Errors are sent to fatalError.
func (s *HTTPServer) Start(fatalError chan<- error) {
	if !s.serving.CompareAndSwap(false, true) {
		fatalError <- errors.New("HTTP server is already started")
		return
	}
	defer close(s.done)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))
	logger.Info("starting HTTP server",
		log.Duration("read_timeout", s.HTTPServer.ReadTimeout),
		log.Duration("write_timeout", s.HTTPServer.WriteTimeout),
		log.Duration("shutdown_timeout", s.ShutdownTimeout),
	)

	listener, err := s.listen()
	if err != nil {
		logger.Error("HTTP server failed to listen", log.Error(err))
		fatalError <- err
		return
	}

	if err = s.HTTPServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed", log.Error(err))
		fatalError <- err
		return
	}
	logger.Info("HTTP server stopped")
}

func (s *HTTPServer) listen() (net.Listener, error) {
	listener, err := net.Listen("tcp", s.HTTPServer.Addr)
	if err != nil {
		return nil, err
	}
	_, portStr, err := net.SplitHostPort(listener.Addr().String())
	if err == nil {
		var port int64
		if port, err = strconv.ParseInt(portStr, 10, 32); err == nil {
			s.port.Store(int32(port))
			return listener, nil
		}
	}
	_ = listener.Close()
	return nil, fmt.Errorf("parse listener address %q: %w", listener.Addr(), err)
}

// Stop stops the server. In-flight requests are given ShutdownTimeout to finish if gracefully is true,
// otherwise all connections are closed immediately.
func (s *HTTPServer) Stop(gracefully bool) error {
	var err error
	if gracefully {
		s.Logger.Info("shutting down HTTP server", log.Duration("timeout", s.ShutdownTimeout))
		ctx, cancel := context.WithTimeout(context.Background(), s.ShutdownTimeout)
		err = s.HTTPServer.Shutdown(ctx)
		cancel()
	} else {
		s.Logger.Info("closing HTTP server")
		err = s.HTTPServer.Close()
	}
	if err != nil {
		s.Logger.Error("HTTP server stopping failed", log.Error(err), log.Bool("graceful", gracefully))
		return err
	}
	if s.serving.Load() {
		<-s.done
	}
	return nil
}

// MustRegisterMetrics registers the request metrics in the default Prometheus registry.
func (s *HTTPServer) MustRegisterMetrics() {
	s.metricsCollector.MustRegister()
}

// UnregisterMetrics removes the request metrics from the default Prometheus registry.
func (s *HTTPServer) UnregisterMetrics() {
	s.metricsCollector.Unregister()
}

// GetPort returns the port the server listens on. It's useful when the address has port 0.
func (s *HTTPServer) GetPort() int {
	return int(s.port.Load())
}
