/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/log/logtest"
	"github.com/pdffacil/pdfgate/testutil"
)

const testDomain = "PDFGate"

// brokenConnRecorder fails every body write like a connection closed by the client.
type brokenConnRecorder struct {
	*httptest.ResponseRecorder
}

func (rw *brokenConnRecorder) Write(_ []byte) (int, error) {
	return 0, errors.New("write: broken pipe")
}

func TestRespondJSON(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		type page struct {
			Page    int    `json:"page"`
			Content string `json:"content"`
		}
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		p := &page{Page: 1, Content: "Invoice #42"}
		RespondJSON(resp, p, logger)
		testutil.RequireJSONInRecorder(t, resp, p, &page{})
		require.Empty(t, logger.Entries())
	})

	t.Run("html is not escaped", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondJSON(resp, map[string]string{"message": "<b>&</b>"}, nil)
		testutil.RequireStringJSONInRecorder(t, resp, `{"message":"<b>&</b>"}`)
	})

	t.Run("marshaling error", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		RespondJSON(resp, make(chan bool), logger)
		require.Equal(t, http.StatusInternalServerError, resp.Code)
		testutil.RequireEmptyBodyInRecorder(t, resp)
		require.Len(t, logger.Entries(), 1)
		require.Equal(t, log.LevelError, logger.Entries()[0].Level)
	})

	t.Run("writing error", func(t *testing.T) {
		resp := &brokenConnRecorder{httptest.NewRecorder()}
		logger := logtest.NewRecorder()
		RespondJSON(resp, "converted", logger)
		require.Len(t, logger.Entries(), 1)
		require.Equal(t, log.LevelError, logger.Entries()[0].Level)
	})

	t.Run("Content-Type is kept", func(t *testing.T) {
		resp := httptest.NewRecorder()
		resp.Header().Set("Content-Type", "application/problem+json")
		RespondJSON(resp, "nothing", nil)
		require.Equal(t, "application/problem+json", resp.Header().Get("Content-Type"))
	})
}

func TestRespondCodeAndJSON(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondCodeAndJSON(resp, http.StatusAccepted, map[string]int{"used": 1}, nil)
	require.Equal(t, http.StatusAccepted, resp.Code)
	testutil.RequireStringJSONInRecorder(t, resp, `{"used":1}`)

	resp = httptest.NewRecorder()
	RespondCodeAndJSON(resp, http.StatusNoContent, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.Empty(t, resp.Header().Get("Content-Type"))
	require.Empty(t, resp.Body.String())
}

func TestRespondAttachment(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondAttachment(resp, "отчёт 1.txt", "text/plain; charset=utf-8", []byte("page one"), nil)

	got := testutil.RequireAttachmentInRecorder(t, resp, "отчёт 1.txt", "text/plain; charset=utf-8")
	require.Equal(t, "page one", string(got))
	require.Equal(t, "8", resp.Header().Get("Content-Length"))
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name           string
		httpStatusCode int
		apiErr         *Error
		wantLogLevel   log.Level
	}{
		{
			name:           "server error",
			httpStatusCode: http.StatusInternalServerError,
			apiErr:         NewInternalError(testDomain),
			wantLogLevel:   log.LevelError,
		},
		{
			name:           "client error",
			httpStatusCode: http.StatusBadRequest,
			apiErr:         NewError(testDomain, "notPDF", "Only PDF files are accepted."),
			wantLogLevel:   log.LevelWarn,
		},
		{
			name:           "client error with context",
			httpStatusCode: http.StatusTooManyRequests,
			apiErr:         NewError("PDFGateAPI", "quotaExceeded", "Daily limit.").AddContext("limit", 12),
			wantLogLevel:   log.LevelWarn,
		},
	}
	for i := range tests {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			MustInitAndRegisterMetrics("")
			defer UnregisterMetrics()

			logger := logtest.NewRecorder()
			resp := httptest.NewRecorder()
			RespondError(resp, tt.httpStatusCode, tt.apiErr, logger)

			testutil.RequireErrorInRecorder(t, resp, tt.httpStatusCode, tt.apiErr.Domain, tt.apiErr.Code)

			require.Len(t, logger.Entries(), 1)
			logEntry := logger.Entries()[0]
			require.Equal(t, tt.wantLogLevel, logEntry.Level)
			logField, found := logEntry.FindField("error_code")
			require.True(t, found)
			require.Equal(t, tt.apiErr.Code, string(logField.Bytes))
			_, found = logEntry.FindField("error_context")
			require.Equal(t, tt.apiErr.Context != nil, found)

			labels := prometheus.Labels{
				metricsLabelResponseErrorDomain: tt.apiErr.Domain,
				metricsLabelResponseErrorCode:   tt.apiErr.Code,
			}
			testutil.RequireSamplesCountInCounter(t, metricsResponseErrors.With(labels), 1)
		})
	}
}

func TestRespondInternalError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondInternalError(resp, testDomain, nil)
	testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, testDomain, ErrCodeInternal)
}

func TestRespondMalformedRequestError(t *testing.T) {
	t.Run("code from status", func(t *testing.T) {
		resp := httptest.NewRecorder()
		RespondMalformedRequestError(resp, testDomain, NewTooLargeMalformedRequestError(1024*1024), nil)
		testutil.RequireErrorInRecorder(t, resp, http.StatusRequestEntityTooLarge, testDomain, "requestEntityTooLarge")
	})

	t.Run("explicit code", func(t *testing.T) {
		resp := httptest.NewRecorder()
		reqErr := &MalformedRequestError{HTTPStatusCode: http.StatusBadRequest, Code: ErrCodeMissingFile, Message: "No file."}
		RespondMalformedRequestError(resp, testDomain, reqErr, nil)
		testutil.RequireErrorInRecorder(t, resp, http.StatusBadRequest, testDomain, ErrCodeMissingFile)
	})
}

func TestRespondMalformedRequestOrInternalError(t *testing.T) {
	t.Run("internal error", func(t *testing.T) {
		resp := httptest.NewRecorder()
		logger := logtest.NewRecorder()
		RespondMalformedRequestOrInternalError(resp, testDomain, errors.New("unexpected error"), logger)
		testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, testDomain, ErrCodeInternal)
		_, found := logger.FindEntry("unexpected error while handling request")
		require.True(t, found)
	})

	t.Run("wrapped malformed error", func(t *testing.T) {
		resp := httptest.NewRecorder()
		err := fmt.Errorf("read upload: %w", NewTooLargeMalformedRequestError(1024*1024))
		RespondMalformedRequestOrInternalError(resp, testDomain, err, nil)
		testutil.RequireErrorInRecorder(t, resp, http.StatusRequestEntityTooLarge, testDomain, "requestEntityTooLarge")
	})
}
