package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
)

// SourceRepository reads the merchant_inventory partitions.
type SourceRepository struct {
	db *sqlx.DB
}

// NewSourceRepository creates a new SourceRepository.
func NewSourceRepository(db *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// ListMerchants returns every merchant id present in the source, ordered so
// reconciliation runs visit merchants in the same sequence each time.
func (r *SourceRepository) ListMerchants(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT merchant_id FROM merchant_inventory ORDER BY merchant_id`

	var merchants []string
	if err := r.db.SelectContext(ctx, &merchants, q); err != nil {
		return nil, err
	}
	return merchants, nil
}

// PageRecords returns one keyset page of a merchant partition. doc_id is the
// total-order paging key; afterDocID "" starts at the beginning.
func (r *SourceRepository) PageRecords(ctx context.Context, merchantID, afterDocID string, limit int) ([]models.InventoryRecord, error) {
	const q = `
        SELECT * FROM merchant_inventory
        WHERE merchant_id = $1 AND doc_id > $2
        ORDER BY doc_id
        LIMIT $3`

	var records []models.InventoryRecord
	if err := r.db.SelectContext(ctx, &records, q, merchantID, afterDocID, limit); err != nil {
		return nil, err
	}
	return records, nil
}
