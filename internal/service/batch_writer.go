package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/repository"
)

// CommitError marks a failed batch commit. Commit failures are never retried
// here: dropping enqueued writes would corrupt the derived view, so the run
// fails fast and the caller decides whether to re-run.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string { return fmt.Sprintf("batch commit failed: %v", e.Err) }
func (e *CommitError) Unwrap() error { return e.Err }

// BatchWriter accumulates merge-writes and commits them in batches bounded
// by the configured ceiling, which sits below the store's hard
// per-transaction limit to leave headroom for concurrent writers.
// Every enqueued write lands in exactly one committed batch, or the run
// errors. Not safe for concurrent use.
type BatchWriter struct {
	writer repository.MatrixWriter
	limit  int
	dryRun bool

	pending   []repository.MergeWrite
	enqueued  int
	committed int
	batches   int
}

// NewBatchWriter constructs a BatchWriter. In dry-run mode writes are
// counted and discarded at commit time; nothing reaches the store.
func NewBatchWriter(writer repository.MatrixWriter, limit int, dryRun bool) *BatchWriter {
	return &BatchWriter{writer: writer, limit: limit, dryRun: dryRun}
}

// Enqueue adds a write and flushes if the pending batch has reached the
// ceiling.
func (b *BatchWriter) Enqueue(ctx context.Context, w repository.MergeWrite) error {
	b.pending = append(b.pending, w)
	b.enqueued++
	return b.Commit(ctx, false)
}

// Commit flushes the pending batch. Without force it is a no-op until the
// pending count reaches the ceiling; with force it flushes whatever is
// pending (end of a page or end of a run). Zero pending writes is always a
// no-op.
func (b *BatchWriter) Commit(ctx context.Context, force bool) error {
	if len(b.pending) == 0 {
		return nil
	}
	if !force && len(b.pending) < b.limit {
		return nil
	}

	batch := b.pending
	b.pending = nil

	if b.dryRun {
		b.committed += len(batch)
		b.batches++
		log.Debug().Int("writes", len(batch)).Msg("dry-run: batch discarded")
		return nil
	}

	if err := b.writer.CommitMerges(ctx, batch); err != nil {
		return &CommitError{Err: err}
	}
	b.committed += len(batch)
	b.batches++
	log.Debug().Int("writes", len(batch)).Msg("batch committed")
	return nil
}

// Enqueued returns how many writes have been enqueued in total.
func (b *BatchWriter) Enqueued() int { return b.enqueued }

// Committed returns how many writes have been committed (or, in dry-run,
// would have been).
func (b *BatchWriter) Committed() int { return b.committed }

// Batches returns how many commits have executed.
func (b *BatchWriter) Batches() int { return b.batches }

// PendingCount returns the writes awaiting commit.
func (b *BatchWriter) PendingCount() int { return len(b.pending) }
