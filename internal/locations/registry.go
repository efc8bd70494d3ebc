// Package locations assigns each (merchant, location) pair its stable,
// human-readable LocationKey and remembers every pair a run observes so the
// registry view can be persisted at the end.
//
// Key policy: one key per physical location, "<merchant label> / <location
// name>", falling back to the merchant label alone when the location has no
// name. The merchant label prefers an externally supplied override, then the
// record's merchant display name, then the raw merchant id.
package locations

import (
	"fmt"
	"time"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/utils"
)

// Registry accumulates LocationKeys for one reconciliation run. Not safe for
// concurrent use; the pipeline is sequential by design.
type Registry struct {
	labels map[string]string // merchant id -> display label override
	byKey  map[string]*models.LocationKeyEntry
	order  []string // insertion order, for a deterministic flush
}

// NewRegistry constructs a Registry. labels may be nil.
func NewRegistry(labels map[string]string) *Registry {
	return &Registry{
		labels: labels,
		byKey:  make(map[string]*models.LocationKeyEntry),
	}
}

// KeyFor returns the LocationKey for a record, registering the pair on first
// sight and backfilling missing display fields on later sightings. An empty
// return means the record carries no usable merchant identity and must be
// skipped.
func (r *Registry) KeyFor(rec *models.InventoryRecord) string {
	label := r.merchantLabel(rec)
	if label == "" {
		return ""
	}

	key := label
	if rec.LocationName != "" {
		key = fmt.Sprintf("%s / %s", label, rec.LocationName)
	}

	entry, ok := r.byKey[key]
	if !ok {
		entry = &models.LocationKeyEntry{
			ID:           utils.LocationID(key),
			Key:          key,
			MerchantID:   rec.MerchantID,
			MerchantName: rec.MerchantName,
			LocationID:   rec.LocationID,
			LocationName: rec.LocationName,
		}
		r.byKey[key] = entry
		r.order = append(r.order, key)
		return key
	}

	// Backfill fields an earlier record left empty; never overwrite.
	if entry.MerchantName == "" {
		entry.MerchantName = rec.MerchantName
	}
	if entry.LocationID == "" {
		entry.LocationID = rec.LocationID
	}
	if entry.LocationName == "" {
		entry.LocationName = rec.LocationName
	}
	return key
}

// Entries returns all observed registry rows in first-seen order, stamped
// with now as the backfill time.
func (r *Registry) Entries(now time.Time) []models.LocationKeyEntry {
	out := make([]models.LocationKeyEntry, 0, len(r.order))
	for _, key := range r.order {
		e := *r.byKey[key]
		e.UpdatedAt = now
		out = append(out, e)
	}
	return out
}

// Len reports how many distinct LocationKeys the run has observed.
func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) merchantLabel(rec *models.InventoryRecord) string {
	if label, ok := r.labels[rec.MerchantID]; ok && label != "" {
		return label
	}
	if rec.MerchantName != "" {
		return rec.MerchantName
	}
	return rec.MerchantID
}
