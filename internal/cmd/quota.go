/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdffacil/pdfgate/admission"
	"github.com/pdffacil/pdfgate/httpclient"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/restapi"
	"github.com/pdffacil/pdfgate/retry"
)

const quotaStatusPath = "/quota/status/"

type quotaOpts struct {
	serverURL string
	client    string
	output    string
	timeout   time.Duration
	policy    retry.Policy
}

func newQuotaCmd() *cobra.Command {
	opts := quotaOpts{policy: retry.NewDefaultPolicy()}
	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show the quota usage of a client on a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, loggerClose := log.NewLogger(&log.Config{Level: log.LevelWarn, Format: log.FormatText, Output: log.OutputStderr})
			defer loggerClose()
			return runQuota(cmd.Context(), cmd.OutOrStdout(), opts, logger)
		},
	}
	cmd.Flags().StringVar(&opts.serverURL, "url", "http://127.0.0.1:8000", "base URL of the pdfgate server")
	cmd.Flags().StringVar(&opts.client, "client", "",
		"client address to query (sent as X-Forwarded-For); the caller's own address is used if empty")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "table", "output format: table or json")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", httpclient.DefaultTimeout, "timeout of the whole command")
	return cmd
}

func runQuota(ctx context.Context, w io.Writer, opts quotaOpts, logger log.FieldLogger) error {
	if opts.output != "table" && opts.output != "json" {
		return fmt.Errorf("unknown output format %q", opts.output)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	client := httpclient.New(httpclient.Opts{})
	statusURL := strings.TrimRight(opts.serverURL, "/") + quotaStatusPath

	var snapshot admission.Snapshot
	err := retry.DoWithRetry(ctx, opts.policy, retry.IsTemporaryClientError,
		func(err error, d time.Duration) {
			logger.Warn("quota status request failed, retrying", log.Error(err), log.Duration("delay", d))
		},
		func(ctx context.Context) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, http.NoBody)
			if err != nil {
				return err
			}
			if opts.client != "" {
				req.Header.Set(admission.HeaderForwardedFor, opts.client)
			}
			return restapi.DoRequestAndUnmarshalJSON(client, req, &snapshot, logger)
		})
	if err != nil {
		return fmt.Errorf("get quota status: %w", err)
	}

	if opts.output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot)
	}
	renderSnapshot(w, snapshot)
	return nil
}

func renderSnapshot(w io.Writer, snapshot admission.Snapshot) {
	ops := make([]string, 0, len(snapshot.Operations))
	for op := range snapshot.Operations {
		ops = append(ops, string(op))
	}
	sort.Strings(ops)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Client: " + snapshot.ClientID)
	t.AppendHeader(table.Row{"Operation", "Used", "Limit", "Remaining"})
	for _, op := range ops {
		usage := snapshot.Operations[admission.Operation(op)]
		t.AppendRow(table.Row{op, usage.Used, usage.Limit, usage.Remaining})
	}
	t.Render()
}
