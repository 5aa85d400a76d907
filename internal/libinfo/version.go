/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo holds build information of the pdfgate binary.
package libinfo

import (
	"debug/buildinfo"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const moduleName = "github.com/pdffacil/pdfgate"

// PrometheusVersionLabel is the name of the constant label with the pdfgate version attached to the HTTP metrics.
const PrometheusVersionLabel = "pdfgate_version"

const unknownVersion = "v0.0.0"

// Set at build time via -ldflags "-X github.com/pdffacil/pdfgate/internal/libinfo.Version=...".
var (
	Version   string
	Commit    string
	BuildDate string
)

// Info describes the running binary.
type Info struct {
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	Platform  string
}

// AddPrometheusVersionLabel returns a copy of labels extended with the version label.
func AddPrometheusVersionLabel(labels prometheus.Labels) prometheus.Labels {
	labelsCopy := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		labelsCopy[k] = v
	}
	labelsCopy[PrometheusVersionLabel] = GetVersion()
	return labelsCopy
}

var (
	version     string
	versionOnce sync.Once
)

// GetVersion returns the version set at build time, or the main module version from the build info.
func GetVersion() string {
	versionOnce.Do(initVersion)
	return version
}

func initVersion() {
	version = Version
	if version == "" {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			version = extractMainVersion(buildInfo, moduleName)
		}
	}
	if version == "" {
		version = unknownVersion
	}
}

// GetInfo returns the full build information.
func GetInfo() Info {
	return Info{
		Version:   GetVersion(),
		Commit:    valueOr(Commit, "unknown"),
		BuildDate: valueOr(BuildDate, "unknown"),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// extractMainVersion returns the version of the main module if it is modName.
// "(devel)" is reported by go build for a local checkout and is not a version.
func extractMainVersion(buildInfo *buildinfo.BuildInfo, modName string) string {
	if buildInfo == nil || buildInfo.Main.Path != modName {
		return ""
	}
	if buildInfo.Main.Version == "(devel)" {
		return ""
	}
	return buildInfo.Main.Version
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
