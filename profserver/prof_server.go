/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package profserver provides the debug HTTP server of pdfgate.
// It serves pprof profiles under /debug/pprof/ and the additional debug routes passed in Opts.
package profserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pdffacil/pdfgate/httpserver/middleware"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/service"
)

// Opts represents options for the debug server.
type Opts struct {
	// Routes maps a path (e.g. "/debug/admission") to the handler serving GET requests.
	Routes map[string]http.Handler
}

// ProfServer represents the debug HTTP server. It implements service.Unit interface.
type ProfServer struct {
	URL            string
	HTTPServer     *http.Server
	httpServerDone chan struct{}
	Logger         log.FieldLogger
}

var _ service.Unit = (*ProfServer)(nil)

// New creates a new debug HTTP server.
func New(cfg *Config, logger log.FieldLogger, opts Opts) *ProfServer {
	router := chi.NewRouter()
	router.Use(
		middleware.RequestID(),
		middleware.LoggingWithOpts(logger, middleware.LoggingOpts{RequestStart: true}),
	)
	router.Mount("/debug", chimiddleware.Profiler())
	for path, handler := range opts.Routes {
		router.Method(http.MethodGet, path, handler)
	}

	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: time.Second * 5,
	}

	return &ProfServer{
		URL:            "http://" + httpServer.Addr,
		HTTPServer:     httpServer,
		httpServerDone: make(chan struct{}),
		Logger:         logger,
	}
}

// Start starts the debug HTTP server in a blocking way.
// If a fatal error occurs, it's sent into passed fatalError channel.
func (s *ProfServer) Start(fatalError chan<- error) {
	defer close(s.httpServerDone)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))
	logger.Info("starting debug HTTP server...")
	if err := s.HTTPServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("debug HTTP server closed")
			return
		}
		logger.Error("debug HTTP server error", log.Error(err))
		fatalError <- err
	}
}

// Stop stops the debug HTTP server. Profiles may take long to be collected,
// so the server is always closed immediately regardless of gracefully.
func (s *ProfServer) Stop(gracefully bool) error {
	s.Logger.Info("closing debug HTTP server...")
	if err := s.HTTPServer.Close(); err != nil {
		s.Logger.Error("debug HTTP server closing error", log.Error(err))
		return err
	}
	<-s.httpServerDone
	return nil
}
