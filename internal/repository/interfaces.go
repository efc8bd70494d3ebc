package repository

import (
	"context"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
)

// MergeWrite is one pending merge into the matrix view, keyed by canonical
// GTIN. The entry must already be enriched (metrics, search fields).
type MergeWrite struct {
	GTIN  string
	Entry *models.MatrixEntry
}

// SourceStore reads the per-merchant source partitions. The partitions are
// written by the external catalog sync and are read-only here.
type SourceStore interface {
	// ListMerchants returns all merchant ids with at least one record, in a
	// stable order.
	ListMerchants(ctx context.Context) ([]string, error)
	// PageRecords returns up to limit records of one merchant partition
	// ordered by document id, strictly after afterDocID ("" starts from the
	// beginning).
	PageRecords(ctx context.Context, merchantID, afterDocID string, limit int) ([]models.InventoryRecord, error)
}

// MatrixWriter commits merge-writes into the matrix view. A commit is one
// atomic unit: either every write in the batch lands or none do.
type MatrixWriter interface {
	CommitMerges(ctx context.Context, writes []MergeWrite) error
}

// MatrixReader serves the query planner's four modes against the matrix view.
type MatrixReader interface {
	GetByGTIN(ctx context.Context, gtin string) (*models.MatrixEntry, error)
	Exists(ctx context.Context, gtin string) (bool, error)
	// SearchToken pages entries whose token set contains token, ordered by
	// GTIN, strictly after afterGTIN when non-empty.
	SearchToken(ctx context.Context, token, afterGTIN string, limit int) ([]models.MatrixEntry, error)
	// SearchPrefix pages entries whose search key falls in [lower, upper),
	// ordered by (search key, GTIN), strictly after (afterKey, afterGTIN)
	// when afterGTIN is non-empty.
	SearchPrefix(ctx context.Context, lower, upper, afterKey, afterGTIN string, limit int) ([]models.MatrixEntry, error)
	// Browse pages the whole view ordered by GTIN.
	Browse(ctx context.Context, afterGTIN string, limit int) ([]models.MatrixEntry, error)
}

// LocationStore persists the location registry view.
type LocationStore interface {
	// MergeKeys upserts registry rows, filling only fields that are still
	// empty on the stored row.
	MergeKeys(ctx context.Context, entries []models.LocationKeyEntry) error
	ListKeys(ctx context.Context) ([]models.LocationKeyEntry, error)
}
