/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package libinfo

import (
	"debug/buildinfo"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestExtractMainVersion(t *testing.T) {
	tests := []struct {
		name        string
		buildInfo   *buildinfo.BuildInfo
		expectedVer string
	}{
		{
			name:        "main module",
			buildInfo:   &buildinfo.BuildInfo{Main: debug.Module{Path: moduleName, Version: "v1.2.3"}},
			expectedVer: "v1.2.3",
		},
		{
			name:        "local build",
			buildInfo:   &buildinfo.BuildInfo{Main: debug.Module{Path: moduleName, Version: "(devel)"}},
			expectedVer: "",
		},
		{
			name:        "other main module",
			buildInfo:   &buildinfo.BuildInfo{Main: debug.Module{Path: "github.com/other/module", Version: "v1.0.0"}},
			expectedVer: "",
		},
		{
			name:        "nil build info",
			buildInfo:   nil,
			expectedVer: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expectedVer, extractMainVersion(tt.buildInfo, moduleName))
		})
	}
}

func TestAddPrometheusVersionLabel(t *testing.T) {
	labels := prometheus.Labels{"env": "test"}
	got := AddPrometheusVersionLabel(labels)
	require.Equal(t, prometheus.Labels{"env": "test", PrometheusVersionLabel: GetVersion()}, got)
	require.Len(t, labels, 1)
}

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	require.NotEmpty(t, info.Version)
	require.Equal(t, runtime.Version(), info.GoVersion)
	require.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
	if Commit == "" {
		require.Equal(t, "unknown", info.Commit)
	}
}
