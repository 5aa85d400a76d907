/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"context"

	"github.com/pdffacil/pdfgate/log"
)

// SweepWorker purges expired usage of all clients on every run.
// It's intended to be wrapped into service.PeriodicWorker.
type SweepWorker struct {
	controller *Controller
	logger     log.FieldLogger
}

// NewSweepWorker creates a new SweepWorker.
func NewSweepWorker(controller *Controller, logger log.FieldLogger) *SweepWorker {
	if logger == nil {
		logger = log.NewDisabledLogger()
	}
	return &SweepWorker{controller: controller, logger: logger}
}

// Run performs a single full sweep.
func (w *SweepWorker) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	removed := w.controller.SweepAll()
	if removed > 0 {
		w.logger.Info("expired quota usage swept",
			log.Int("removed_clients", removed), log.Int("tracked_clients", w.controller.Len()))
	}
	return nil
}
