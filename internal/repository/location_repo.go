package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
)

// LocationRepository handles data access for the location_registry view.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository creates a new LocationRepository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// MergeKeys upserts registry rows. Display fields only fill where the stored
// row is still empty, so re-runs backfill without clobbering.
func (r *LocationRepository) MergeKeys(ctx context.Context, entries []models.LocationKeyEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registry merge: %w", err)
	}
	defer tx.Rollback()

	const q = `
        INSERT INTO location_registry (
            id, location_key, merchant_id, merchant_name, location_id,
            location_name, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            merchant_name = COALESCE(NULLIF(location_registry.merchant_name, ''), EXCLUDED.merchant_name),
            location_id   = COALESCE(NULLIF(location_registry.location_id, ''), EXCLUDED.location_id),
            location_name = COALESCE(NULLIF(location_registry.location_name, ''), EXCLUDED.location_name),
            updated_at    = EXCLUDED.updated_at`

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, q,
			e.ID, e.Key, e.MerchantID, e.MerchantName, e.LocationID, e.LocationName, e.UpdatedAt,
		); err != nil {
			return fmt.Errorf("merge location key %s: %w", e.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registry merge: %w", err)
	}
	return nil
}

// ListKeys returns all registered location keys ordered by key.
func (r *LocationRepository) ListKeys(ctx context.Context) ([]models.LocationKeyEntry, error) {
	const q = `SELECT * FROM location_registry ORDER BY location_key`

	var entries []models.LocationKeyEntry
	if err := r.db.SelectContext(ctx, &entries, q); err != nil {
		return nil, err
	}
	return entries, nil
}
