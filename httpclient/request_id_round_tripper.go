/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"net/http"

	"github.com/rs/xid"

	"github.com/pdffacil/pdfgate/httpserver/middleware"
)

// RequestIDRoundTripper sets X-Request-ID header in outgoing requests.
// The ID is taken from the request context (see middleware.GetRequestIDFromContext) or generated.
type RequestIDRoundTripper struct {
	Delegate http.RoundTripper
}

// NewRequestIDRoundTripper creates an HTTP transport with X-Request-ID header support.
func NewRequestIDRoundTripper(delegate http.RoundTripper) http.RoundTripper {
	return &RequestIDRoundTripper{Delegate: delegate}
}

// RoundTrip adds X-Request-ID header to the request.
func (rt *RequestIDRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(middleware.HeaderRequestID) != "" {
		return rt.Delegate.RoundTrip(r)
	}
	requestID := middleware.GetRequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = xid.New().String()
	}
	r = r.Clone(r.Context())
	r.Header.Set(middleware.HeaderRequestID, requestID)
	return rt.Delegate.RoundTrip(r)
}
