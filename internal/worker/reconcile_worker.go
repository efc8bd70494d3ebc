package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/service"
)

// ReconcileWorker periodically runs a full reconciliation pass over the
// source partitions.
type ReconcileWorker struct {
	reconcileService *service.ReconcileService
	opts             service.RunOptions
	interval         time.Duration
}

// NewReconcileWorker constructs a ReconcileWorker. opts are applied to every
// scheduled run.
func NewReconcileWorker(reconcileService *service.ReconcileService, opts service.RunOptions, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		reconcileService: reconcileService,
		opts:             opts,
		interval:         interval,
	}
}

// Start begins the periodic reconciliation loop and listens for context
// cancellation. An interval of zero disables the worker.
func (w *ReconcileWorker) Start(ctx context.Context) {
	if w.interval <= 0 {
		log.Info().Msg("Reconcile worker disabled")
		return
	}

	log.Info().Dur("interval", w.interval).Msg("Starting reconcile worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Reconcile worker stopped")
			return
		}
	}
}

func (w *ReconcileWorker) run(ctx context.Context) {
	log.Info().Msg("Running scheduled reconciliation...")

	start := time.Now()
	report, err := w.reconcileService.Run(ctx, w.opts)
	if err != nil {
		log.Error().Err(err).Msg("Scheduled reconciliation failed")
		return
	}

	log.Info().
		Str("run_id", report.RunID).
		Int("gtins", report.DistinctGTINs).
		Int("writes", report.WritesCommitted).
		Dur("duration", time.Since(start)).
		Msg("Scheduled reconciliation completed")
}
