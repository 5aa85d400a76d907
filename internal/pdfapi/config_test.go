/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package pdfapi

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
		cfgData     string
		expectedCfg func() *Config
		wantErr     string
	}{
		{
			name:        "defaults",
			expectedCfg: NewDefaultConfig,
		},
		{
			name: "custom values",
			cfgData: `
api:
  conversionTimeout: 2m
  cache:
    maxEntries: 0
    ttl: 30s
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.ConversionTimeout = config.TimeDuration(2 * time.Minute)
				cfg.Cache = CacheConfig{MaxEntries: 0, TTL: config.TimeDuration(30 * time.Second)}
				return cfg
			},
		},
		{
			name: "only cache ttl",
			cfgData: `
api:
  cache:
    ttl: 1h
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Cache.TTL = config.TimeDuration(time.Hour)
				return cfg
			},
		},
		{
			name: "zero conversion timeout",
			cfgData: `
api:
  conversionTimeout: 0s
`,
			wantErr: "api.conversionTimeout: should be > 0",
		},
		{
			name: "negative cache size",
			cfgData: `
api:
  cache:
    maxEntries: -1
`,
			wantErr: "api.cache.maxEntries: should be >= 0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}
