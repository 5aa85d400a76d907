/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"

	"github.com/pdffacil/pdfgate/admission"
	"github.com/pdffacil/pdfgate/config"
	"github.com/pdffacil/pdfgate/httpserver/middleware"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/log/logtest"
	"github.com/pdffacil/pdfgate/restapi"
	"github.com/pdffacil/pdfgate/testutil"
)

const testErrDomain = "PDFProcessor"

func testRoutes(router chi.Router) {
	router.Get("/", func(rw http.ResponseWriter, r *http.Request) {
		restapi.RespondJSON(rw, map[string]string{"message": "PDF Processor API is running"},
			middleware.GetLoggerFromContext(r.Context()))
	})
	router.Get("/whoami", func(rw http.ResponseWriter, r *http.Request) {
		restapi.RespondJSON(rw, map[string]string{"client_id": middleware.GetClientID(r)},
			middleware.GetLoggerFromContext(r.Context()))
	})
	router.Post("/upload", func(rw http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			restapi.RespondMalformedRequestOrInternalError(rw, testErrDomain, err, middleware.GetLoggerFromContext(r.Context()))
			return
		}
		rw.WriteHeader(http.StatusNoContent)
	})
	router.Post("/panic", func(rw http.ResponseWriter, r *http.Request) {
		panic("PANIC!!!")
	})
}

func newTestServer(t *testing.T, cfg *Config, logger log.FieldLogger) *HTTPServer {
	t.Helper()
	if cfg.Address == "" {
		cfg.Address = testutil.GetLocalAddrWithFreeTCPPort()
	}
	httpServer, err := New(cfg, logger, Opts{
		ErrorDomain: testErrDomain,
		RootRoutes:  testRoutes,
		APIRoutes:   map[APIVersion]APIRoute{1: testRoutes},
	})
	require.NoError(t, err)
	return httpServer
}

func TestHTTPServer_Start(t *testing.T) {
	addr := testutil.GetLocalAddrWithFreeTCPPort()
	httpServer := newTestServer(t, &Config{Address: addr}, log.NewDisabledLogger())
	fatalErr := make(chan error, 1)
	go httpServer.Start(fatalErr)
	require.NoError(t, testutil.WaitListeningServer(addr, time.Second*3))
	defer func() {
		require.NoError(t, httpServer.Stop(false))
		testutil.RequireNoErrorInChannel(t, fatalErr)
	}()
	require.Greater(t, httpServer.GetPort(), 0)

	resp, err := http.Get(httpServer.URL + "/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NotEmpty(t, respBody)

	resp, err = http.Get(httpServer.URL + "/healthz")
	require.NoError(t, err)
	testutil.RequireStringJSONInResponse(t, resp, `{"components":{}}`)
	require.NoError(t, resp.Body.Close())

	for _, prefix := range []string{"", "/api/v1"} {
		resp, err = http.Get(httpServer.URL + prefix + "/")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		testutil.RequireStringJSONInResponse(t, resp, `{"message":"PDF Processor API is running"}`)
		require.NoError(t, resp.Body.Close())
	}
}

func TestHTTPServer_Routing(t *testing.T) {
	httpServer := newTestServer(t, &Config{}, log.NewDisabledLogger())
	handler := httpServer.HTTPServer.Handler

	t.Run("client identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
		req.Header.Set(admission.HeaderForwardedFor, "203.0.113.7, 10.0.0.1")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code)
		testutil.RequireStringJSONInRecorder(t, resp, `{"client_id":"203.0.113.7"}`)
	})

	t.Run("panic", func(t *testing.T) {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/panic", nil))
		testutil.RequireErrorInRecorder(t, resp, http.StatusInternalServerError, testErrDomain, restapi.ErrCodeInternal)
	})

	t.Run("not found", func(t *testing.T) {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/pdf-to-pptx/", nil))
		testutil.RequireErrorInRecorder(t, resp, http.StatusNotFound, testErrDomain, restapi.ErrCodeNotFound)
	})

	t.Run("method not allowed", func(t *testing.T) {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil))
		testutil.RequireErrorInRecorder(t, resp, http.StatusMethodNotAllowed, testErrDomain, restapi.ErrCodeMethodNotAllowed)
	})
}

func TestHTTPServer_CORS(t *testing.T) {
	cfg := &Config{CORS: CORSConfig{AllowedOrigins: DefaultCORSAllowedOrigins, AllowCredentials: true}}
	handler := newTestServer(t, cfg, log.NewDisabledLogger()).HTTPServer.Handler

	t.Run("preflight from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/upload", nil)
		req.Header.Set("Origin", "https://pdffacil.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		require.Equal(t, "https://pdffacil.com", resp.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "true", resp.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("request from unknown origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestHTTPServer_RateLimit(t *testing.T) {
	cfg := &Config{RateLimit: RateLimitConfig{Enabled: true, Alg: "leaky_bucket", Rate: 1, Burst: 1, MaxKeys: 10}}
	handler := newTestServer(t, cfg, log.NewDisabledLogger()).HTTPServer.Handler

	sendFrom := func(clientIP, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set(admission.HeaderRealIP, clientIP)
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		return resp
	}

	require.Equal(t, http.StatusOK, sendFrom("203.0.113.1", "/").Code)
	require.Equal(t, http.StatusOK, sendFrom("203.0.113.1", "/").Code)
	resp := sendFrom("203.0.113.1", "/")
	testutil.RequireErrorInRecorder(t, resp, http.StatusTooManyRequests, testErrDomain, middleware.RateLimitErrCode)
	require.NotEmpty(t, resp.Header().Get("Retry-After"))

	require.Equal(t, http.StatusOK, sendFrom("203.0.113.2", "/").Code)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, sendFrom("203.0.113.1", "/healthz").Code)
	}
}

func TestHTTPServer_RequestBodyLimit(t *testing.T) {
	handler := newTestServer(t, &Config{Limits: LimitsConfig{MaxBodySize: 16}}, log.NewDisabledLogger()).HTTPServer.Handler

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("small")))
	require.Equal(t, http.StatusNoContent, resp.Code)

	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(strings.Repeat("a", 17))))
	testutil.RequireErrorInRecorder(t, resp, http.StatusRequestEntityTooLarge, testErrDomain, "requestEntityTooLarge")
}

func TestHTTPServer_Stop(t *testing.T) {
	apiRoutes := map[APIVersion]APIRoute{
		1: func(router chi.Router) {
			router.Get("/sleep", func(rw http.ResponseWriter, r *http.Request) {
				time.Sleep(time.Second)
				restapi.RespondJSON(rw, map[string]string{"message": "conversion is finished"},
					middleware.GetLoggerFromContext(r.Context()))
			})
		},
	}

	t.Run("with gracefully shutdown", func(t *testing.T) {
		addr := testutil.GetLocalAddrWithFreeTCPPort()
		cfg := &Config{Address: addr, Timeouts: TimeoutsConfig{Shutdown: config.TimeDuration(3 * time.Second)}}
		httpServer, err := New(cfg, log.NewDisabledLogger(), Opts{APIRoutes: apiRoutes})
		require.NoError(t, err)
		fatalErr := make(chan error, 1)
		go httpServer.Start(fatalErr)
		require.NoError(t, testutil.WaitListeningServer(addr, time.Second*3))

		type result struct {
			resp *http.Response
			err  error
		}
		results := make(chan result, 1)
		go func() {
			c := http.Client{Timeout: time.Second * 5}
			resp, reqErr := c.Get(httpServer.URL + "/api/v1/sleep")
			results <- result{resp, reqErr}
		}()

		time.Sleep(time.Millisecond * 500)

		require.NoError(t, httpServer.Stop(true))
		testutil.RequireNoErrorInChannel(t, fatalErr)

		res := <-results
		require.NoError(t, res.err, "server should wait until all HTTP requests are served")
		require.Equal(t, http.StatusOK, res.resp.StatusCode)
		testutil.RequireStringJSONInResponse(t, res.resp, `{"message":"conversion is finished"}`)
		require.NoError(t, res.resp.Body.Close())
	})

	t.Run("w/o gracefully shutdown", func(t *testing.T) {
		addr := testutil.GetLocalAddrWithFreeTCPPort()
		cfg := &Config{Address: addr, Timeouts: TimeoutsConfig{Shutdown: config.TimeDuration(3 * time.Second)}}
		httpServer, err := New(cfg, log.NewDisabledLogger(), Opts{APIRoutes: apiRoutes})
		require.NoError(t, err)
		fatalErr := make(chan error, 1)
		go httpServer.Start(fatalErr)
		require.NoError(t, testutil.WaitListeningServer(addr, time.Second*3))

		errs := make(chan error, 1)
		go func() {
			c := http.Client{Timeout: time.Second * 5}
			resp, reqErr := c.Get(httpServer.URL + "/api/v1/sleep")
			if reqErr == nil {
				_ = resp.Body.Close()
			}
			errs <- reqErr
		}()

		time.Sleep(time.Millisecond * 500)

		require.NoError(t, httpServer.Stop(false))
		testutil.RequireNoErrorInChannel(t, fatalErr)
		require.Error(t, <-errs, "server should close TCP connection immediately")
	})

	t.Run("without start", func(t *testing.T) {
		httpServer, err := New(&Config{Address: testutil.GetLocalAddrWithFreeTCPPort()}, log.NewDisabledLogger(), Opts{})
		require.NoError(t, err)
		require.NoError(t, httpServer.Stop(true))
		require.NoError(t, httpServer.Stop(false))
	})
}

func TestHTTPServer_MetricsHandler(t *testing.T) {
	wrapperNewValues := []byte("pdfgate_custom_metric 1")
	metricsHandler := http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		_, _ = rw.Write(wrapperNewValues)
		promhttp.Handler().ServeHTTP(rw, r)
	})

	httpServer, err := New(&Config{Address: ":0"}, log.NewDisabledLogger(), Opts{MetricsHandler: metricsHandler})
	require.NoError(t, err)

	resp := httptest.NewRecorder()
	httpServer.HTTPServer.Handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.True(t, bytes.Contains(resp.Body.Bytes(), wrapperNewValues))
}

func TestHTTPServer_Logging(t *testing.T) {
	logger := logtest.NewRecorder()
	cfg := &Config{Log: LogConfig{
		RequestStart:      true,
		RequestHeaders:    []string{"X-Custom-Header1", "X-Custom-Header2"},
		ExcludedEndpoints: []string{"/metrics", "/healthz"},
	}}
	handler := newTestServer(t, cfg, logger).HTTPServer.Handler

	req := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	req.Header.Set("X-Custom-Header1", "value1")
	req.Header.Set("X-Custom-Header2", "value2")
	req.Header.Set("X-Custom-Header3", "value3")
	req.Header.Set(admission.HeaderRealIP, "198.51.100.4")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	for _, logMsg := range []string{"request started", "response completed"} {
		logEntry, found := logger.FindEntryByFilter(func(entry logtest.RecordedEntry) bool {
			return strings.Contains(entry.Text, logMsg)
		})
		require.True(t, found, "%q should be logged", logMsg)

		logField, found := logEntry.FindField("req_header_x_custom_header1")
		require.True(t, found)
		require.Equal(t, "value1", string(logField.Bytes))
		logField, found = logEntry.FindField("req_header_x_custom_header2")
		require.True(t, found)
		require.Equal(t, "value2", string(logField.Bytes))
		_, found = logEntry.FindField("req_header_x_custom_header3")
		require.False(t, found)
	}

	respEntry, found := logger.FindEntryByFilter(func(entry logtest.RecordedEntry) bool {
		return strings.HasPrefix(entry.Text, "response completed")
	})
	require.True(t, found)
	logField, found := respEntry.FindField(admission.LogFieldKeyClientID)
	require.True(t, found)
	require.Equal(t, "198.51.100.4", string(logField.Bytes))

	logger.Reset()

	for _, endpoint := range []string{"/metrics", "/healthz"} {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, endpoint, nil))
		require.Equal(t, http.StatusOK, resp.Code)
	}
	require.Empty(t, logger.Entries())
}
