package service

import (
	"context"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/repository"
)

// PageFunc consumes one page of source records. Returning false stops the
// scan early (e.g. a global identifier cap was reached mid-run).
type PageFunc func(page []models.InventoryRecord) (bool, error)

// SourceScanner drives keyset paging across one merchant partition. Pages
// are strictly sequential: each page's position depends on the last document
// of the previous page.
type SourceScanner struct {
	source   repository.SourceStore
	pageSize int
}

// NewSourceScanner constructs a SourceScanner.
func NewSourceScanner(source repository.SourceStore, pageSize int) *SourceScanner {
	return &SourceScanner{source: source, pageSize: pageSize}
}

// Scan pulls pages for one merchant until the partition is exhausted, fn
// stops the scan, or the context is done. A page with zero usable records is
// not an error; only an empty page terminates.
func (s *SourceScanner) Scan(ctx context.Context, merchantID string, fn PageFunc) error {
	afterDocID := ""
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := s.source.PageRecords(ctx, merchantID, afterDocID, s.pageSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}

		keepGoing, err := fn(page)
		if err != nil {
			return err
		}
		if !keepGoing {
			return nil
		}

		afterDocID = page[len(page)-1].DocID
	}
}
