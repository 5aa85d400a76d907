/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"

	"github.com/pdffacil/pdfgate/restapi"
)

// RequestBodyLimit is a middleware that rejects requests with a body larger than maxSizeBytes.
// A declared Content-Length is checked upfront, the actual body is cut while it's read.
func RequestBodyLimit(maxSizeBytes uint64, errDomain string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			if r.ContentLength > 0 && uint64(r.ContentLength) > maxSizeBytes {
				restapi.RespondMalformedRequestError(rw, errDomain,
					restapi.NewTooLargeMalformedRequestError(maxSizeBytes), GetLoggerFromContext(r.Context()))
				return
			}
			restapi.SetRequestMaxBodySize(rw, r, maxSizeBytes)
			next.ServeHTTP(rw, r)
		})
	}
}
