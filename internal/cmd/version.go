/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdffacil/pdfgate/internal/libinfo"
)

func newVersionCmd() *cobra.Command {
	var extended bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			printVersion(cmd.OutOrStdout(), libinfo.GetInfo(), extended)
		},
	}
	cmd.Flags().BoolVar(&extended, "extended", false, "show build details")
	return cmd
}

func printVersion(w io.Writer, info libinfo.Info, extended bool) {
	if !extended {
		_, _ = fmt.Fprintf(w, "pdfgate %s\n", info.Version)
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"Build date", info.BuildDate},
		{"Go version", info.GoVersion},
		{"Platform", info.Platform},
	})
	t.Render()
}
