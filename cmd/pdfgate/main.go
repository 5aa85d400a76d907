/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"os"

	"github.com/pdffacil/pdfgate/internal/cmd"
)

// Set via ldflags: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2025-10-28".
var (
	version   string
	commit    string
	buildDate string
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
