/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/rs/xid"
)

// Request id headers.
const (
	HeaderRequestID         = "X-Request-ID"
	HeaderInternalRequestID = "X-Int-Request-ID"
)

// RequestID is a middleware that puts two ids into the request context and the response headers:
// the external one is taken from the X-Request-ID request header (or generated if it's empty),
// the internal one (X-Int-Request-ID) is always generated. Ids are generated with xid.
func RequestID() func(next http.Handler) http.Handler {
	return RequestIDWithGenerator(func() string { return xid.New().String() })
}

// RequestIDWithGenerator is RequestID with a custom id generator.
func RequestIDWithGenerator(newID func() string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(HeaderRequestID)
			if requestID == "" {
				requestID = newID()
			}
			internalRequestID := newID()

			rw.Header().Set(HeaderRequestID, requestID)
			rw.Header().Set(HeaderInternalRequestID, internalRequestID)
			ctx := NewContextWithInternalRequestID(NewContextWithRequestID(r.Context(), requestID), internalRequestID)
			next.ServeHTTP(rw, r.WithContext(ctx))
		})
	}
}
