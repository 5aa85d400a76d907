/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/pdffacil/pdfgate/admission"
)

// ClientID is a middleware that identifies the calling client and puts its identifier into request's context.
// Identification follows admission.IdentifyClient (X-Forwarded-For, X-Real-IP, peer address).
// If the logger is already in the context, it's extended with the client_id field.
func ClientID() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			clientID := admission.IdentifyClient(r)
			ctx := NewContextWithClientID(r.Context(), clientID)
			if lp := GetLoggingParamsFromContext(ctx); lp != nil {
				lp.ExtendFields(logClientID(clientID))
			}
			if logger := GetLoggerFromContext(ctx); logger != nil {
				ctx = NewContextWithLogger(ctx, logger.With(logClientID(clientID)))
			}
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}

// GetClientID returns the client identifier from the context or identifies the client if the ClientID middleware is not used.
func GetClientID(r *http.Request) string {
	if clientID := GetClientIDFromContext(r.Context()); clientID != "" {
		return clientID
	}
	return admission.IdentifyClient(r)
}
