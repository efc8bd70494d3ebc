package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/locations"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/matrix"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/repository"
)

// errStopRun signals the merchant loop to halt early (identifier cap hit).
var errStopRun = errors.New("stop run")

// RunOptions are the per-run knobs of a reconciliation pass.
type RunOptions struct {
	// DryRun executes every computation but commits nothing.
	DryRun bool
	// MerchantScope restricts the run to one merchant id when non-empty.
	MerchantScope string
	// MaxGTINs caps distinct canonical identifiers processed; 0 = unlimited.
	MaxGTINs int
	// PageSize overrides the configured scanner page size when > 0.
	PageSize int
}

// RunReport summarizes a reconciliation pass. Partial success is a valid
// outcome and is reported, never hidden.
type RunReport struct {
	RunID            string        `json:"runId"`
	DryRun           bool          `json:"dryRun"`
	Merchants        int           `json:"merchants"`
	FailedMerchants  []string      `json:"failedMerchants,omitempty"`
	DistinctGTINs    int           `json:"distinctGtins"`
	WritesEnqueued   int           `json:"writesEnqueued"`
	WritesCommitted  int           `json:"writesCommitted"`
	Batches          int           `json:"batches"`
	LocationKeys     int           `json:"locationKeys"`
	CapReached       bool          `json:"capReached"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
}

// MerchantIterator walks the merchant list, invoking fn per merchant. The
// default is strictly sequential; the indirection exists so a parallel
// strategy could be substituted without touching the aggregate or writer
// contracts. fn returning an error stops the iteration.
type MerchantIterator func(ctx context.Context, merchants []string, fn func(merchantID string) error) error

// SequentialMerchants is the reference iteration strategy: one merchant at a
// time, in order. Ordering matters for log interpretation and for the
// skip-failed-merchant policy.
func SequentialMerchants(ctx context.Context, merchants []string, fn func(merchantID string) error) error {
	for _, m := range merchants {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(m); err != nil {
			return err
		}
	}
	return nil
}

// ReconcileService drives the full pipeline: scan each merchant partition,
// aggregate per canonical GTIN, enrich with mismatch metrics and search
// tokens, and persist via bounded merge-write batches.
type ReconcileService struct {
	source       repository.SourceStore
	writer       repository.MatrixWriter
	locationRepo repository.LocationStore
	labels       map[string]string
	pageSize     int
	batchLimit   int
	iterate      MerchantIterator
}

// NewReconcileService constructs a ReconcileService with the sequential
// iteration strategy.
func NewReconcileService(
	source repository.SourceStore,
	writer repository.MatrixWriter,
	locationRepo repository.LocationStore,
	labels map[string]string,
	pageSize, batchLimit int,
) *ReconcileService {
	return &ReconcileService{
		source:       source,
		writer:       writer,
		locationRepo: locationRepo,
		labels:       labels,
		pageSize:     pageSize,
		batchLimit:   batchLimit,
		iterate:      SequentialMerchants,
	}
}

// SetIterator swaps the merchant iteration strategy.
func (s *ReconcileService) SetIterator(it MerchantIterator) { s.iterate = it }

// Run executes one reconciliation pass. A failing merchant is logged and
// skipped; a failing batch commit aborts the run. At the end of a run the
// observed location keys are flushed to the registry.
func (s *ReconcileService) Run(ctx context.Context, opts RunOptions) (*RunReport, error) {
	report := &RunReport{
		RunID:     uuid.New().String(),
		DryRun:    opts.DryRun,
		StartedAt: time.Now().UTC(),
	}

	merchants, err := s.merchantsInScope(ctx, opts)
	if err != nil {
		return nil, err
	}

	registry := locations.NewRegistry(s.labels)
	aggregator := matrix.NewAggregator(registry.KeyFor)
	writer := NewBatchWriter(s.writer, s.batchLimit, opts.DryRun)

	pageSize := s.pageSize
	if opts.PageSize > 0 {
		pageSize = opts.PageSize
	}
	scanner := NewSourceScanner(s.source, pageSize)

	seen := make(map[string]struct{})

	log.Info().
		Str("run_id", report.RunID).
		Int("merchants", len(merchants)).
		Bool("dry_run", opts.DryRun).
		Msg("reconciliation run started")

	err = s.iterate(ctx, merchants, func(merchantID string) error {
		merchantErr := s.processMerchant(ctx, merchantID, scanner, aggregator, writer, seen, opts.MaxGTINs)
		switch {
		case merchantErr == nil:
			report.Merchants++
			return nil
		case errors.Is(merchantErr, errStopRun):
			report.Merchants++
			report.CapReached = true
			return errStopRun
		default:
			var commitErr *CommitError
			if errors.As(merchantErr, &commitErr) {
				// Fail fast: enqueued writes must never be dropped silently.
				return merchantErr
			}
			log.Error().Err(merchantErr).Str("merchant_id", merchantID).Msg("merchant failed, skipping")
			report.FailedMerchants = append(report.FailedMerchants, merchantID)
			return nil
		}
	})
	if err != nil && !errors.Is(err, errStopRun) {
		return nil, err
	}

	// Final flush of anything still pending.
	if err := writer.Commit(ctx, true); err != nil {
		return nil, err
	}

	// Persist the location keys observed this run.
	if !opts.DryRun {
		if err := s.locationRepo.MergeKeys(ctx, registry.Entries(time.Now().UTC())); err != nil {
			return nil, err
		}
	}

	report.DistinctGTINs = len(seen)
	report.WritesEnqueued = writer.Enqueued()
	report.WritesCommitted = writer.Committed()
	report.Batches = writer.Batches()
	report.LocationKeys = registry.Len()
	report.Duration = time.Since(report.StartedAt)

	log.Info().
		Str("run_id", report.RunID).
		Int("merchants", report.Merchants).
		Int("failed", len(report.FailedMerchants)).
		Int("gtins", report.DistinctGTINs).
		Int("writes", report.WritesCommitted).
		Dur("duration", report.Duration).
		Msg("reconciliation run finished")

	return report, nil
}

func (s *ReconcileService) merchantsInScope(ctx context.Context, opts RunOptions) ([]string, error) {
	if opts.MerchantScope != "" {
		return []string{opts.MerchantScope}, nil
	}
	return s.source.ListMerchants(ctx)
}

// processMerchant scans one partition page by page, aggregates each page,
// and enqueues the enriched aggregates. Returns errStopRun when the global
// identifier cap is hit; the current batch is still flushed by the caller.
func (s *ReconcileService) processMerchant(
	ctx context.Context,
	merchantID string,
	scanner *SourceScanner,
	aggregator *matrix.Aggregator,
	writer *BatchWriter,
	seen map[string]struct{},
	maxGTINs int,
) error {
	log.Debug().Str("merchant_id", merchantID).Msg("scanning merchant")

	err := scanner.Scan(ctx, merchantID, func(page []models.InventoryRecord) (bool, error) {
		entries := aggregator.AggregatePage(page)

		for _, entry := range entries {
			if _, known := seen[entry.GTIN]; !known {
				if maxGTINs > 0 && len(seen) >= maxGTINs {
					// Cap hit mid-page: stop without consuming the rest.
					return false, errStopRun
				}
				seen[entry.GTIN] = struct{}{}
			}

			matrix.Enrich(entry)
			if err := writer.Enqueue(ctx, repository.MergeWrite{GTIN: entry.GTIN, Entry: entry}); err != nil {
				return false, err
			}
		}
		return true, nil
	})
	if err != nil && !errors.Is(err, errStopRun) {
		return err
	}

	// End of this merchant's pages: force out the partial batch so a later
	// merchant failure cannot take this merchant's writes down with it.
	if commitErr := writer.Commit(ctx, true); commitErr != nil {
		return commitErr
	}
	return err
}
