package models

import "time"

// ItemState enumerates the lifecycle states a synced catalog line can be in.
type ItemState string

const (
	ItemStateActive   ItemState = "active"
	ItemStateInactive ItemState = "inactive"
	ItemStateDeleted  ItemState = "deleted"
)

// InventoryRecord is one synced catalog line for a (merchant, location) pair.
// Rows are written by the external catalog sync and are read-only to this
// service. Unknown or absent source fields are explicit nullable fields, not
// optimistic lookups.
type InventoryRecord struct {
	DocID        string     `db:"doc_id" json:"docId"`
	MerchantID   string     `db:"merchant_id" json:"merchantId"`
	MerchantName string     `db:"merchant_name" json:"merchantName"`
	LocationID   string     `db:"location_id" json:"locationId"`
	LocationName string     `db:"location_name" json:"locationName"`
	RawGTIN      string     `db:"raw_gtin" json:"rawGtin"`
	Name         string     `db:"name" json:"name"`
	SKU          string     `db:"sku" json:"sku"`
	Category     string     `db:"category" json:"category"`
	Price        *float64   `db:"price" json:"price,omitempty"`
	Currency     string     `db:"currency" json:"currency"`
	Quantity     *int64     `db:"quantity" json:"quantity,omitempty"`
	State        ItemState  `db:"state" json:"state"`
	ItemID       string     `db:"item_id" json:"itemId"`
	VariationID  string     `db:"variation_id" json:"variationId"`
	CalculatedAt *time.Time `db:"calculated_at" json:"calculatedAt,omitempty"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// FreshnessTime returns the timestamp used for conflict resolution: the
// freshness timestamp when present, otherwise the write timestamp.
func (r *InventoryRecord) FreshnessTime() time.Time {
	if r.CalculatedAt != nil {
		return *r.CalculatedAt
	}
	return r.UpdatedAt
}
