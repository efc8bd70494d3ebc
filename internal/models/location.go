package models

import "time"

// LocationKeyEntry is one row of the location registry view: the stable
// display key for a (merchant, location) pair plus the identifiers observed
// for it. The row id is a deterministic hash of Key so repeated runs merge
// into the same document instead of duplicating it.
type LocationKeyEntry struct {
	ID           string    `db:"id" json:"id"`
	Key          string    `db:"location_key" json:"key"`
	MerchantID   string    `db:"merchant_id" json:"merchantId"`
	MerchantName string    `db:"merchant_name" json:"merchantName"`
	LocationID   string    `db:"location_id" json:"locationId"`
	LocationName string    `db:"location_name" json:"locationName"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}
