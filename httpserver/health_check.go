/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/pdffacil/pdfgate/httpserver/middleware"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/restapi"
)

// StatusClientClosedRequest is the non-standard status (used by Nginx) for requests closed by the client.
const StatusClientClosedRequest = 499

// HealthCheckResult maps a component name to its health.
type HealthCheckResult = map[string]bool

// HealthCheck reports the health of the service components.
type HealthCheck = func(ctx context.Context) (HealthCheckResult, error)

type healthCheckResponseData struct {
	Components HealthCheckResult `json:"components"`
}

// HealthCheckHandler serves GET /healthz.
// It responds 200 if all components are healthy and 503 otherwise.
type HealthCheckHandler struct {
	check HealthCheck
}

// NewHealthCheckHandler creates a new HealthCheckHandler. A nil check reports no components.
func NewHealthCheckHandler(check HealthCheck) *HealthCheckHandler {
	if check == nil {
		check = func(ctx context.Context) (HealthCheckResult, error) {
			return HealthCheckResult{}, ctx.Err()
		}
	}
	return &HealthCheckHandler{check}
}

func (h *HealthCheckHandler) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLoggerFromContext(r.Context())
	result, err := h.check(r.Context())
	if err == nil {
		err = r.Context().Err()
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			rw.WriteHeader(StatusClientClosedRequest)
			return
		}
		if logger != nil {
			logger.Error("health check failed", log.Error(err))
		}
		rw.WriteHeader(http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	for _, healthy := range result {
		if !healthy {
			status = http.StatusServiceUnavailable
			break
		}
	}
	if result == nil {
		result = HealthCheckResult{}
	}
	restapi.RespondCodeAndJSON(rw, status, healthCheckResponseData{result}, logger)
}
