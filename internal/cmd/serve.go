/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdffacil/pdfgate/internal/libinfo"
	"github.com/pdffacil/pdfgate/log"
	"github.com/pdffacil/pdfgate/service"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the conversion HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cfgFile)
		},
	}
}

func runServer(cfgPath string) error {
	cfg, err := loadAppConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting pdfgate",
		log.String("version", libinfo.GetVersion()),
		log.String("address", cfg.Server.Address),
		log.String("max_payload_size", cfg.Admission.MaxPayloadSize.String()),
	)
	return service.New(logger, a.unit).Start()
}
