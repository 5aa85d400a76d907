/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cmd

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdffacil/pdfgate/admission"
	"github.com/pdffacil/pdfgate/config"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/testutil"
)

func TestLoadAppConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadAppConfig("")
		require.NoError(t, err)
		require.Equal(t, ":8000", cfg.Server.Address)
		require.Equal(t, admission.DefaultLimits(), cfg.Admission.Limits)
		require.Equal(t, admission.DefaultWindow, time.Duration(cfg.Admission.Window))
		require.False(t, cfg.DebugServer.Enabled)
		require.Equal(t, log.LevelInfo, cfg.Log.Level)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pdfgate.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  address: "127.0.0.1:9000"
admission:
  limits:
    pdf_to_excel: 3
  sweepInterval: 10m
api:
  cache:
    maxEntries: 0
debugServer:
  enabled: true
log:
  level: debug
`), 0o600))
		cfg, err := loadAppConfig(path)
		require.NoError(t, err)
		require.Equal(t, "127.0.0.1:9000", cfg.Server.Address)
		require.Equal(t, 3, cfg.Admission.Limits[admission.OperationPDFToExcel])
		require.Equal(t, 40, cfg.Admission.Limits[admission.OperationPDFToText])
		require.Equal(t, 10*time.Minute, time.Duration(cfg.Admission.SweepInterval))
		require.Zero(t, cfg.API.Cache.MaxEntries)
		require.True(t, cfg.DebugServer.Enabled)
		require.Equal(t, log.LevelDebug, cfg.Log.Level)
	})

	t.Run("body limit follows payload ceiling", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pdfgate.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
server:
  limits:
    maxBodySize: 16M
admission:
  maxPayloadSize: 32M
`), 0o600))
		_, err := loadAppConfig(path)
		require.ErrorContains(t, err, "server.limits.maxBodySize")

		require.NoError(t, os.WriteFile(path, []byte(`
server:
  limits:
    maxBodySize: 33M
admission:
  maxPayloadSize: 32M
`), 0o600))
		cfg, err := loadAppConfig(path)
		require.NoError(t, err)
		require.Equal(t, config.ByteSize(32*1024*1024), cfg.Admission.MaxPayloadSize)

		require.NoError(t, os.WriteFile(path, []byte(`
server:
  limits:
    maxBodySize: 0
admission:
  maxPayloadSize: 32M
`), 0o600))
		_, err = loadAppConfig(path)
		require.NoError(t, err)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := loadAppConfig("pdfgate.toml")
		require.Error(t, err)
	})
}

func TestNewApp(t *testing.T) {
	cfg, err := loadAppConfig("")
	require.NoError(t, err)

	t.Run("default units", func(t *testing.T) {
		a, err := newApp(cfg, log.NewDisabledLogger())
		require.NoError(t, err)
		require.Len(t, a.unit.Units, 1)
		require.Len(t, a.unit.collectors, 3)
	})

	t.Run("sweeper and debug server", func(t *testing.T) {
		cfg.Admission.SweepInterval = cfg.Admission.Window
		cfg.DebugServer.Enabled = true
		defer func() {
			cfg.Admission.SweepInterval = 0
			cfg.DebugServer.Enabled = false
		}()
		a, err := newApp(cfg, log.NewDisabledLogger())
		require.NoError(t, err)
		require.Len(t, a.unit.Units, 3)
	})

	t.Run("routes", func(t *testing.T) {
		a, err := newApp(cfg, log.NewDisabledLogger())
		require.NoError(t, err)
		server := httptest.NewServer(a.httpServer.HTTPServer.Handler)
		defer server.Close()

		for _, path := range []string{"/", "/healthz", "/quota/status/", "/api/v1/quota/status/", "/pdf-to-docx/status/"} {
			resp, err := http.Get(server.URL + path)
			require.NoError(t, err)
			require.NoError(t, resp.Body.Close())
			require.Equal(t, http.StatusOK, resp.StatusCode, path)
		}

		resp, err := http.Get(server.URL + "/pdf-to-pdf/")
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("metrics registration", func(t *testing.T) {
		a, err := newApp(cfg, log.NewDisabledLogger())
		require.NoError(t, err)
		a.unit.MustRegisterMetrics()
		a.unit.UnregisterMetrics()
		a.unit.MustRegisterMetrics()
		a.unit.UnregisterMetrics()
	})
}

func TestAppUnit_StartStop(t *testing.T) {
	cfg, err := loadAppConfig("")
	require.NoError(t, err)
	cfg.Server.Address = testutil.GetLocalAddrWithFreeTCPPort()

	a, err := newApp(cfg, log.NewDisabledLogger())
	require.NoError(t, err)

	fatalErr := make(chan error, 1)
	go a.unit.Start(fatalErr)
	require.NoError(t, testutil.WaitListeningServer(cfg.Server.Address, 3*time.Second))

	resp, err := http.Get("http://" + cfg.Server.Address + "/")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, a.unit.Stop(true))
	testutil.RequireNoErrorInChannel(t, fatalErr)
}
