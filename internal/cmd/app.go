/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdffacil/pdfgate/admission"
	"github.com/pdffacil/pdfgate/config"
	"github.com/pdffacil/pdfgate/convert"
	"github.com/pdffacil/pdfgate/httpserver"
	"github.com/pdffacil/pdfgate/internal/libinfo"
	"github.com/pdffacil/pdfgate/internal/pdfapi"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/lrucache"
	"github.com/pdffacil/pdfgate/profserver"
	"github.com/pdffacil/pdfgate/restapi"
	"github.com/pdffacil/pdfgate/service"
)

const (
	errorDomain      = "PDFGate"
	metricsNamespace = "pdfgate"

	sweepWorkerStopTimeout = 5 * time.Second

	// multipartOverhead is the room left in the request body for the multipart boundaries and part headers.
	multipartOverhead = 64 * 1024
)

// AppConfig is the configuration of the pdfgate server.
type AppConfig struct {
	Server      *httpserver.Config
	Admission   *admission.Config
	API         *pdfapi.Config
	DebugServer *profserver.Config
	Log         *log.Config
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := &AppConfig{
		Server:      httpserver.NewConfig(),
		Admission:   admission.NewConfig(),
		API:         pdfapi.NewConfig(),
		DebugServer: profserver.NewConfig(),
		Log:         log.NewConfig(),
	}
	err := config.NewDefaultLoader(EnvVarsPrefix).LoadFromFile(
		path, cfg.Server, cfg.Admission, cfg.API, cfg.DebugServer, cfg.Log)
	if err != nil {
		return nil, err
	}
	if err = cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks the settings that depend on each other across sections.
// An upload of the maximum admitted size must fit into the request body limit,
// otherwise it's rejected by the transport before the admission controller reports payloadTooLarge.
func (c *AppConfig) validate() error {
	maxBodySize := c.Server.Limits.MaxBodySize
	if maxBodySize == 0 {
		return nil
	}
	if minBodySize := c.Admission.MaxPayloadSize + multipartOverhead; maxBodySize < minBodySize {
		return fmt.Errorf("server.limits.maxBodySize (%s) should be at least admission.maxPayloadSize plus %s, i.e. >= %s",
			maxBodySize, config.ByteSize(multipartOverhead), minBodySize)
	}
	return nil
}

type metricsCollector interface {
	MustRegister()
	Unregister()
}

// appUnit runs all units of the server and registers metrics of the components that are not units themselves.
type appUnit struct {
	*service.CompositeUnit
	collectors []metricsCollector
}

var _ service.MetricsRegisterer = (*appUnit)(nil)

func (u *appUnit) MustRegisterMetrics() {
	restapi.MustInitAndRegisterMetrics(metricsNamespace)
	for _, c := range u.collectors {
		c.MustRegister()
	}
	u.CompositeUnit.MustRegisterMetrics()
}

func (u *appUnit) UnregisterMetrics() {
	u.CompositeUnit.UnregisterMetrics()
	for _, c := range u.collectors {
		c.Unregister()
	}
	restapi.UnregisterMetrics()
}

type app struct {
	unit       *appUnit
	httpServer *httpserver.HTTPServer
	controller *admission.Controller
	handler    *pdfapi.Handler
}

func newApp(cfg *AppConfig, logger log.FieldLogger) (*app, error) {
	admissionMetrics := admission.NewPrometheusMetricsWithOpts(admission.PrometheusMetricsOpts{Namespace: metricsNamespace})
	controller, err := admission.NewWithConfig(cfg.Admission, admission.Opts{
		Logger:           logger,
		MetricsCollector: admissionMetrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create admission controller: %w", err)
	}

	conversionMetrics := convert.NewPrometheusMetricsWithOpts(convert.PrometheusMetricsOpts{Namespace: metricsNamespace})
	cacheMetrics := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{Namespace: metricsNamespace + "_conversion"})
	handler, err := pdfapi.NewHandler(cfg.API, controller, convert.NewConverter(conversionMetrics), pdfapi.Opts{
		ErrorDomain:  errorDomain,
		CacheMetrics: cacheMetrics,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create API handler: %w", err)
	}

	httpServer, err := httpserver.New(cfg.Server, logger, httpserver.Opts{
		RootRoutes:  handler.RootRoutes,
		APIRoutes:   map[httpserver.APIVersion]httpserver.APIRoute{1: handler.Routes},
		ErrorDomain: errorDomain,
		HTTPRequestMetrics: httpserver.HTTPRequestMetricsOpts{
			Namespace:   metricsNamespace,
			ConstLabels: libinfo.AddPrometheusVersionLabel(prometheus.Labels{}),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create HTTP server: %w", err)
	}

	units := []service.Unit{httpServer}
	if interval := time.Duration(cfg.Admission.SweepInterval); interval > 0 {
		sweeper := service.NewPeriodicWorkerWithOpts(admission.NewSweepWorker(controller, logger), interval, logger,
			service.PeriodicWorkerOpts{Name: "quota-sweeper", InitialDelay: interval})
		units = append(units, service.NewWorkerUnitWithOpts(sweeper, service.WorkerUnitOpts{
			GracefulStopTimeout: sweepWorkerStopTimeout,
		}))
	}
	if cfg.DebugServer.Enabled {
		units = append(units, profserver.New(cfg.DebugServer, logger, profserver.Opts{
			Routes: map[string]http.Handler{"/debug/admission": handler.AdmissionStatsHandler()},
		}))
	}

	return &app{
		unit: &appUnit{
			CompositeUnit: service.NewCompositeUnit(units...),
			collectors:    []metricsCollector{admissionMetrics, conversionMetrics, cacheMetrics},
		},
		httpServer: httpServer,
		controller: controller,
		handler:    handler,
	}, nil
}
