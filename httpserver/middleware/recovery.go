/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/restapi"
)

// RecoveryStackSize is the maximum size of the logged stack trace.
const RecoveryStackSize = 8192

// Recovery is a middleware that recovers from panics in handlers (a broken PDF may crash the parser deep inside),
// logs the panic with a stack trace and responds 500 with an internal error.
// http.ErrAbortHandler is re-panicked so that http.Server aborts the response.
func Recovery(errDomain string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				logger := GetLoggerFromContext(r.Context())
				if p == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
					if logger != nil {
						logger.Warn("request has been aborted", log.Error(http.ErrAbortHandler))
					}
					panic(p)
				}
				if logger != nil {
					stack := make([]byte, RecoveryStackSize)
					stack = stack[:runtime.Stack(stack, false)]
					logger.Error(fmt.Sprintf("Panic: %+v", p), log.Bytes("stack", stack))
				}
				restapi.RespondError(rw, http.StatusInternalServerError, restapi.NewInternalError(errDomain), logger)
			}()
			next.ServeHTTP(rw, r)
		})
	}
}
