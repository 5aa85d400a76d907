/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package pdfapi

import (
	"net/http"

	"github.com/pdffacil/pdfgate/admission"
	"github.com/pdffacil/pdfgate/restapi"
)

// AdmissionStats is the response body of the admission debug route.
type AdmissionStats struct {
	TrackedClients int              `json:"tracked_clients"`
	Window         string           `json:"window"`
	MaxPayloadSize int64            `json:"max_payload_size"`
	Limits         admission.Limits `json:"limits"`
}

// AdmissionStatsHandler returns a handler that reports the state of the admission controller.
// It's served by the debug server and must not be exposed publicly.
func (h *Handler) AdmissionStatsHandler() http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		restapi.RespondJSON(rw, AdmissionStats{
			TrackedClients: h.controller.Len(),
			Window:         h.controller.Window().String(),
			MaxPayloadSize: h.controller.MaxPayloadSize(),
			Limits:         h.controller.Limits(),
		}, h.loggerFromRequest(r))
	})
}
