package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/matrix"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/utils"
)

// MatrixRepository handles data access for the derived gtin_matrix view.
type MatrixRepository struct {
	db *sqlx.DB
}

// NewMatrixRepository creates a new MatrixRepository.
func NewMatrixRepository(db *sqlx.DB) *MatrixRepository {
	return &MatrixRepository{db: db}
}

// matrixRow is the flat table shape of a MatrixEntry. The location map
// travels as JSONB; tokens and raw variants as text arrays.
type matrixRow struct {
	GTIN        string          `db:"gtin"`
	RawVariants pq.StringArray  `db:"raw_variants"`
	Name        string          `db:"name"`
	Category    string          `db:"category"`
	SKU         string          `db:"sku"`
	SearchKey   string          `db:"search_key"`
	Tokens      pq.StringArray  `db:"tokens"`
	Locations   json.RawMessage `db:"locations"`
	PricedCount int             `db:"priced_count"`
	MinPrice    *float64        `db:"min_price"`
	MaxPrice    *float64        `db:"max_price"`
	Spread      float64         `db:"spread"`
	Mismatch    bool            `db:"mismatch"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (row *matrixRow) toEntry() (*models.MatrixEntry, error) {
	locations := make(map[string]models.LocationSnapshot)
	if len(row.Locations) > 0 {
		if err := json.Unmarshal(row.Locations, &locations); err != nil {
			return nil, fmt.Errorf("corrupt location map for gtin %s: %w", row.GTIN, err)
		}
	}
	return &models.MatrixEntry{
		GTIN:        row.GTIN,
		RawVariants: row.RawVariants,
		Name:        row.Name,
		Category:    row.Category,
		SKU:         row.SKU,
		SearchKey:   row.SearchKey,
		Tokens:      row.Tokens,
		Locations:   locations,
		Metrics: models.MismatchMetrics{
			PricedLocations: row.PricedCount,
			MinPrice:        row.MinPrice,
			MaxPrice:        row.MaxPrice,
			Spread:          row.Spread,
			Mismatch:        row.Mismatch,
		},
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// CommitMerges applies one batch of merge-writes in a single transaction.
// Each write reads the current document under lock, folds the incoming
// aggregate into it with the matrix merge rules, and upserts the result.
// The matrix document is never overwritten destructively.
func (r *MatrixRepository) CommitMerges(ctx context.Context, writes []MergeWrite) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin matrix commit: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, w := range writes {
		merged := w.Entry

		var row matrixRow
		err := tx.GetContext(ctx, &row,
			`SELECT * FROM gtin_matrix WHERE gtin = $1 FOR UPDATE`, w.GTIN)
		switch {
		case err == sql.ErrNoRows:
			// First sighting of this identifier.
		case err != nil:
			return fmt.Errorf("read matrix entry %s: %w", w.GTIN, err)
		default:
			existing, convErr := row.toEntry()
			if convErr != nil {
				return convErr
			}
			merged = matrix.Merge(existing, w.Entry)
		}

		if err := upsertEntry(ctx, tx, merged, now); err != nil {
			return fmt.Errorf("write matrix entry %s: %w", w.GTIN, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit matrix batch: %w", err)
	}
	return nil
}

func upsertEntry(ctx context.Context, tx *sqlx.Tx, e *models.MatrixEntry, now time.Time) error {
	locJSON, err := json.Marshal(e.Locations)
	if err != nil {
		return err
	}

	const q = `
        INSERT INTO gtin_matrix (
            gtin, raw_variants, name, category, sku, search_key, tokens,
            locations, priced_count, min_price, max_price, spread, mismatch,
            updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
        ON CONFLICT (gtin) DO UPDATE SET
            raw_variants = EXCLUDED.raw_variants,
            name = EXCLUDED.name,
            category = EXCLUDED.category,
            sku = EXCLUDED.sku,
            search_key = EXCLUDED.search_key,
            tokens = EXCLUDED.tokens,
            locations = EXCLUDED.locations,
            priced_count = EXCLUDED.priced_count,
            min_price = EXCLUDED.min_price,
            max_price = EXCLUDED.max_price,
            spread = EXCLUDED.spread,
            mismatch = EXCLUDED.mismatch,
            updated_at = EXCLUDED.updated_at`

	_, err = tx.ExecContext(ctx, q,
		e.GTIN,
		pq.Array(e.RawVariants),
		e.Name,
		e.Category,
		e.SKU,
		e.SearchKey,
		pq.Array(e.Tokens),
		locJSON,
		e.Metrics.PricedLocations,
		e.Metrics.MinPrice,
		e.Metrics.MaxPrice,
		e.Metrics.Spread,
		e.Metrics.Mismatch,
		now,
	)
	return err
}

// GetByGTIN returns a single matrix entry.
func (r *MatrixRepository) GetByGTIN(ctx context.Context, gtin string) (*models.MatrixEntry, error) {
	var row matrixRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM gtin_matrix WHERE gtin = $1 LIMIT 1`, gtin)
	if err == sql.ErrNoRows {
		return nil, utils.ErrEntryNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toEntry()
}

// Exists reports whether a matrix document is present. Used to validate
// cursor references.
func (r *MatrixRepository) Exists(ctx context.Context, gtin string) (bool, error) {
	var one int
	err := r.db.GetContext(ctx, &one, `SELECT 1 FROM gtin_matrix WHERE gtin = $1`, gtin)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// SearchToken pages entries containing token, ordered by gtin.
func (r *MatrixRepository) SearchToken(ctx context.Context, token, afterGTIN string, limit int) ([]models.MatrixEntry, error) {
	const q = `
        SELECT * FROM gtin_matrix
        WHERE $1 = ANY(tokens) AND gtin > $2
        ORDER BY gtin
        LIMIT $3`
	return r.selectEntries(ctx, q, token, afterGTIN, limit)
}

// SearchPrefix pages entries whose search key lies in [lower, upper),
// ordered by (search_key, gtin) so the cursor can resume mid-key.
func (r *MatrixRepository) SearchPrefix(ctx context.Context, lower, upper, afterKey, afterGTIN string, limit int) ([]models.MatrixEntry, error) {
	if afterGTIN == "" {
		const q = `
            SELECT * FROM gtin_matrix
            WHERE search_key >= $1 AND search_key < $2
            ORDER BY search_key, gtin
            LIMIT $3`
		return r.selectEntries(ctx, q, lower, upper, limit)
	}

	const q = `
        SELECT * FROM gtin_matrix
        WHERE search_key >= $1 AND search_key < $2
          AND (search_key, gtin) > ($3, $4)
        ORDER BY search_key, gtin
        LIMIT $5`
	return r.selectEntries(ctx, q, lower, upper, afterKey, afterGTIN, limit)
}

// Browse pages the whole view ordered by gtin.
func (r *MatrixRepository) Browse(ctx context.Context, afterGTIN string, limit int) ([]models.MatrixEntry, error) {
	const q = `
        SELECT * FROM gtin_matrix
        WHERE gtin > $1
        ORDER BY gtin
        LIMIT $2`
	return r.selectEntries(ctx, q, afterGTIN, limit)
}

func (r *MatrixRepository) selectEntries(ctx context.Context, q string, args ...interface{}) ([]models.MatrixEntry, error) {
	var rows []matrixRow
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}

	entries := make([]models.MatrixEntry, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}
