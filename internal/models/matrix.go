package models

import "time"

// MaxRawVariants caps how many raw identifier spellings are kept per matrix
// entry as a debugging aid.
const MaxRawVariants = 5

// LocationSnapshot is the per-location slice of a matrix entry: the price and
// stock picture of one GTIN at one (merchant, location) pair.
type LocationSnapshot struct {
	MerchantID   string     `json:"merchantId"`
	MerchantName string     `json:"merchantName"`
	LocationID   string     `json:"locationId"`
	LocationName string     `json:"locationName"`
	ItemID       string     `json:"itemId"`
	VariationID  string     `json:"variationId"`
	Price        *float64   `json:"price,omitempty"`
	Currency     string     `json:"currency"`
	Quantity     *int64     `json:"quantity,omitempty"`
	State        ItemState  `json:"state"`
	CalculatedAt *time.Time `json:"calculatedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// FreshnessTime mirrors InventoryRecord.FreshnessTime for snapshots already
// stored in the matrix.
func (s *LocationSnapshot) FreshnessTime() time.Time {
	if s.CalculatedAt != nil {
		return *s.CalculatedAt
	}
	return s.UpdatedAt
}

// MismatchMetrics summarizes price agreement across the locations of one
// matrix entry. Recomputed in full on every write; never patched.
type MismatchMetrics struct {
	PricedLocations int      `json:"pricedLocations"`
	MinPrice        *float64 `json:"minPrice,omitempty"`
	MaxPrice        *float64 `json:"maxPrice,omitempty"`
	Spread          float64  `json:"spread"`
	Mismatch        bool     `json:"mismatch"`
}

// MatrixEntry is the derived per-GTIN aggregate: one document in the matrix
// view, keyed by canonical GTIN and holding one snapshot per LocationKey.
// It is a cross-merchant projection, owned by no single merchant.
type MatrixEntry struct {
	GTIN        string                      `json:"gtin"`
	RawVariants []string                    `json:"rawVariants,omitempty"`
	Name        string                      `json:"name"`
	Category    string                      `json:"category"`
	SKU         string                      `json:"sku"`
	SearchKey   string                      `json:"searchKey"`
	Tokens      []string                    `json:"tokens"`
	Locations   map[string]LocationSnapshot `json:"locations"`
	Metrics     MismatchMetrics             `json:"metrics"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}
