/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/log/logtest"
	"github.com/pdffacil/pdfgate/restapi"
	"github.com/pdffacil/pdfgate/testutil"
)

func TestRecovery(t *testing.T) {
	const errDomain = "PDFGate"

	panicking := func(v interface{}) http.Handler {
		return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) { panic(v) })
	}
	newRequest := func(logger log.FieldLogger) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/pdf-to-excel/", nil)
		if logger != nil {
			req = req.WithContext(NewContextWithLogger(req.Context(), logger))
		}
		return req
	}

	t.Run("without logger", func(t *testing.T) {
		resp := httptest.NewRecorder()
		require.NotPanics(t, func() { Recovery(errDomain)(panicking("malformed xref")).ServeHTTP(resp, newRequest(nil)) })
		testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, errDomain, restapi.ErrCodeInternal)
	})

	t.Run("with logger", func(t *testing.T) {
		logger := logtest.NewRecorder()
		resp := httptest.NewRecorder()
		require.NotPanics(t, func() { Recovery(errDomain)(panicking("malformed xref")).ServeHTTP(resp, newRequest(logger)) })
		testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, errDomain, restapi.ErrCodeInternal)

		entry, found := logger.FindEntry("Panic: malformed xref")
		require.True(t, found)
		require.Equal(t, log.LevelError, entry.Level)
		stack, found := entry.FindField("stack")
		require.True(t, found)
		require.NotEmpty(t, stack.Bytes)
		require.LessOrEqual(t, len(stack.Bytes), RecoveryStackSize)
	})

	t.Run("abort handler", func(t *testing.T) {
		logger := logtest.NewRecorder()
		require.Panics(t, func() {
			Recovery(errDomain)(panicking(http.ErrAbortHandler)).ServeHTTP(httptest.NewRecorder(), newRequest(logger))
		})
		entry, found := logger.FindEntry("request has been aborted")
		require.True(t, found)
		require.Equal(t, log.LevelWarn, entry.Level)
		require.Len(t, logger.Entries(), 1)
	})
}
