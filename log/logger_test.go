/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFunc := NewLoggerWithWriter(&Config{Level: LevelInfo, Format: FormatJSON}, &buf)
	logger.With(String("client_id", "1.2.3.4")).Info("request admitted", Int("used", 3), Int("limit", 40))
	logger.Debug("must be skipped")
	logger.Error("conversion failed", Error(errors.New("broken xref table")))
	closeFunc()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "info", entry["level"])
	require.Equal(t, "request admitted", entry["msg"])
	require.Equal(t, "1.2.3.4", entry["client_id"])
	require.Equal(t, float64(3), entry["used"])
	require.Equal(t, float64(40), entry["limit"])
	require.Equal(t, float64(os.Getpid()), entry["pid"])
	require.NotEmpty(t, entry["time"])

	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	require.Equal(t, "error", entry["level"])
	require.Equal(t, "conversion failed", entry["msg"])
	require.Equal(t, "broken xref table", entry["error"])
}

func TestLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFunc := NewLoggerWithWriter(&Config{Level: LevelDebug, Format: FormatText, NoColor: true}, &buf)
	logger.AtLevel(LevelWarn, func(logFunc LogFunc) {
		logFunc("request rejected", String("reason", "quota_exceeded"))
	})
	closeFunc()

	out := buf.String()
	require.Contains(t, out, "request rejected")
	require.Contains(t, out, "quota_exceeded")
}

func TestLoggerWithLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFunc := NewLoggerWithWriter(&Config{Level: LevelDebug, Format: FormatJSON}, &buf)
	warnLogger := logger.WithLevel(LevelWarn)
	warnLogger.Info("skipped")
	warnLogger.Warn("kept", Int("n", 1))
	closeFunc()

	require.NotContains(t, buf.String(), "skipped")
	require.Contains(t, buf.String(), "kept")
}

func TestLoggerFileOutput(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "pdfgate-{{pid}}.log")
	cfg := NewDefaultConfig()
	cfg.Output = OutputFile
	cfg.File.Path = logPath

	logger, closeFunc := NewLogger(cfg)
	logger.Info("written to file")
	closeFunc()

	data, err := os.ReadFile(resolvePlaceholders(logPath))
	require.NoError(t, err)
	require.Contains(t, string(data), "written to file")
}

func TestDisabledLogger(t *testing.T) {
	logger := NewDisabledLogger()
	require.NotPanics(t, func() {
		logger.With(Bool("k", true)).Error("nothing", Duration("conversion", 0))
		logger.AtLevel(LevelInfo, func(logFunc LogFunc) { logFunc("nothing at all") })
	})
}
