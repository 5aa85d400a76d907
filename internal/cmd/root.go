/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package cmd implements the pdfgate command-line interface.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pdffacil/pdfgate/internal/libinfo"
)

// EnvVarsPrefix is the prefix of environment variables overriding configuration values (PDFGATE_SERVER_ADDRESS, ...).
const EnvVarsPrefix = "pdfgate"

var cfgFile string

// SetVersionInfo is called by the main package to set the build information.
func SetVersionInfo(version, commit, buildDate string) {
	libinfo.Version = version
	libinfo.Commit = commit
	libinfo.BuildDate = buildDate
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pdfgate",
		Short: "PDF conversion service with per-client daily quotas",
		Long: `pdfgate converts uploaded PDF documents to JSON, plain text, DOCX and XLSX.
Every conversion is admitted against a rolling 24h quota of the calling client.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML or JSON); defaults and PDFGATE_* environment variables are used if empty")
	root.AddCommand(newServeCmd(), newQuotaCmd(), newVersionCmd())
	return root
}

// Execute runs the root command. It's called by main.main().
func Execute() error {
	return rootCmd.Execute()
}
