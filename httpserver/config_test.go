/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpserver

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pdffacil/pdfgate/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgDataType config.DataType
		cfgData     string
		expectedCfg func() *Config
		wantErr     string
	}{
		{
			name:        "defaults",
			cfgDataType: config.DataTypeYAML,
			expectedCfg: func() *Config { return NewDefaultConfig() },
		},
		{
			name:        "yaml config",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
server:
  address: "127.0.0.1:8080"
  timeouts:
    write: 1h
    read: 7m
    readHeader: 1m
    idle: 20m
    shutdown: 30s
  limits:
    maxBodySize: 1M
  log:
    requestStart: true
    requestHeaders: [X-Forwarded-For]
    slowRequestThreshold: 2s
  cors:
    allowedOrigins: [https://app.pdffacil.com]
    allowCredentials: false
  rateLimit:
    enabled: true
    alg: sliding_window
    rate: 5
    burst: 0
    maxKeys: 100
    dryRun: true
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Address = "127.0.0.1:8080"
				cfg.Timeouts.Write = config.TimeDuration(time.Hour)
				cfg.Timeouts.Read = config.TimeDuration(time.Minute * 7)
				cfg.Timeouts.ReadHeader = config.TimeDuration(time.Minute)
				cfg.Timeouts.Idle = config.TimeDuration(time.Minute * 20)
				cfg.Timeouts.Shutdown = config.TimeDuration(time.Second * 30)
				cfg.Limits.MaxBodySize = 1024 * 1024
				cfg.Log.RequestStart = true
				cfg.Log.RequestHeaders = []string{"X-Forwarded-For"}
				cfg.Log.SlowRequestThreshold = config.TimeDuration(2 * time.Second)
				cfg.CORS.AllowedOrigins = []string{"https://app.pdffacil.com"}
				cfg.CORS.AllowCredentials = false
				cfg.RateLimit = RateLimitConfig{
					Enabled: true, Alg: "sliding_window", Rate: 5, Burst: 0, MaxKeys: 100, DryRun: true,
				}
				return cfg
			},
		},
		{
			name:        "json config",
			cfgDataType: config.DataTypeJSON,
			cfgData: `
{
	"server": {
		"address": ":9000",
		"limits": {"maxBodySize": "32M"},
		"rateLimit": {"enabled": true, "rate": 1}
	}
}`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Address = ":9000"
				cfg.Limits.MaxBodySize = 32 * 1024 * 1024
				cfg.RateLimit.Enabled = true
				cfg.RateLimit.Rate = 1
				return cfg
			},
		},
		{
			name:        "empty address",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
server:
  address: ""
`,
			wantErr: "server.address: cannot be empty",
		},
		{
			name:        "negative timeout",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
server:
  timeouts:
    shutdown: -1s
`,
			wantErr: "server.timeouts.shutdown: should be >= 0",
		},
		{
			name:        "wildcard origin with credentials",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
server:
  cors:
    allowedOrigins: ["*"]
`,
			wantErr: "server.cors.allowedOrigins",
		},
		{
			name:        "unknown rate limit algorithm",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
server:
  rateLimit:
    alg: token_bucket
`,
			wantErr: "server.rateLimit.alg",
		},
		{
			name:        "zero rate",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
server:
  rateLimit:
    rate: 0
`,
			wantErr: "server.rateLimit.rate: should be >= 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), tt.cfgDataType, cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}

func TestConfigWithKeyPrefix(t *testing.T) {
	cfgData := `
public:
  address: ":7070"
`
	cfg := NewConfig(WithKeyPrefix("public"))
	err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(cfgData), config.DataTypeYAML, cfg)
	require.NoError(t, err)
	require.Equal(t, "public", cfg.KeyPrefix())
	require.Equal(t, ":7070", cfg.Address)
	require.Equal(t, DefaultCORSAllowedOrigins, cfg.CORS.AllowedOrigins)
}
