// Package matrix builds and merges the derived per-GTIN aggregates. The
// same conflict rules drive both page-level grouping during a reconcile run
// and the merge-on-write the store applies when an aggregate already exists.
package matrix

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/gtin"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/search"
)

// KeyFunc resolves the LocationKey slot for a record. An empty key marks the
// record as unplaceable and it is skipped.
type KeyFunc func(*models.InventoryRecord) string

// Aggregator groups raw inventory records by canonical GTIN.
type Aggregator struct {
	keyFor KeyFunc
}

// NewAggregator constructs an Aggregator.
func NewAggregator(keyFor KeyFunc) *Aggregator {
	return &Aggregator{keyFor: keyFor}
}

// AggregatePage merges one page of records into per-GTIN entries. Records
// with no canonical identifier or no LocationKey are skipped, never fatal.
// Entries come back sorted by GTIN so a page aggregates identically across
// runs.
func (a *Aggregator) AggregatePage(records []models.InventoryRecord) []*models.MatrixEntry {
	byGTIN := make(map[string]*models.MatrixEntry)

	for i := range records {
		rec := &records[i]
		id := gtin.Canonicalize(rec.RawGTIN)
		if id == "" {
			log.Debug().Str("doc_id", rec.DocID).Msg("record has no identifier, skipping")
			continue
		}
		key := a.keyFor(rec)
		if key == "" {
			log.Debug().Str("doc_id", rec.DocID).Msg("record has no location key, skipping")
			continue
		}

		entry, ok := byGTIN[id]
		if !ok {
			entry = &models.MatrixEntry{
				GTIN:      id,
				Locations: make(map[string]models.LocationSnapshot),
			}
			byGTIN[id] = entry
		}

		applyHeader(entry, rec.Name, rec.Category, rec.SKU)
		addVariant(entry, rec.RawGTIN)

		candidate := snapshotOf(rec)
		existing, taken := entry.Locations[key]
		if !taken || ShouldReplace(&existing, &candidate) {
			entry.Locations[key] = candidate
		}
	}

	entries := make([]*models.MatrixEntry, 0, len(byGTIN))
	for _, e := range byGTIN {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].GTIN < entries[j].GTIN })
	return entries
}

// ShouldReplace decides whether candidate evicts existing from a location
// slot. A priced snapshot always beats an unpriced one; between two priced
// (or two unpriced) snapshots the fresher wins, with ties going to the
// candidate so scan order breaks them consistently.
func ShouldReplace(existing, candidate *models.LocationSnapshot) bool {
	if existing.Price == nil && candidate.Price != nil {
		return true
	}
	if existing.Price != nil && candidate.Price == nil {
		return false
	}
	return !candidate.FreshnessTime().Before(existing.FreshnessTime())
}

// Enrich recomputes the derived fields of an entry: mismatch metrics from
// the location map, and the search key and token set from the header.
func Enrich(e *models.MatrixEntry) {
	e.Metrics = ComputeMetrics(e.Locations)
	e.SearchKey = search.Normalize(e.Name)
	e.Tokens = search.Tokens(e.Name, e.SKU)
}

// Merge folds incoming into existing, slot by slot, and re-derives the
// metrics and search fields from the merged state. This is the
// merge-on-write the matrix view applies; it never drops a location that
// only the existing side knows about.
func Merge(existing, incoming *models.MatrixEntry) *models.MatrixEntry {
	merged := &models.MatrixEntry{
		GTIN:      existing.GTIN,
		Locations: make(map[string]models.LocationSnapshot, len(existing.Locations)+len(incoming.Locations)),
	}
	for k, v := range existing.Locations {
		merged.Locations[k] = v
	}
	for k, cand := range incoming.Locations {
		prior, taken := merged.Locations[k]
		if !taken || ShouldReplace(&prior, &cand) {
			merged.Locations[k] = cand
		}
	}

	applyHeader(merged, existing.Name, existing.Category, existing.SKU)
	applyHeader(merged, incoming.Name, incoming.Category, incoming.SKU)
	for _, v := range existing.RawVariants {
		addVariant(merged, v)
	}
	for _, v := range incoming.RawVariants {
		addVariant(merged, v)
	}

	Enrich(merged)
	return merged
}

// applyHeader fills still-empty header fields; populated ones are kept.
func applyHeader(e *models.MatrixEntry, name, category, sku string) {
	if e.Name == "" {
		e.Name = name
	}
	if e.Category == "" {
		e.Category = category
	}
	if e.SKU == "" {
		e.SKU = sku
	}
}

// addVariant records a raw identifier spelling, up to models.MaxRawVariants
// distinct values. Purely a debugging aid for chasing canonicalization
// surprises.
func addVariant(e *models.MatrixEntry, raw string) {
	if raw == "" || len(e.RawVariants) >= models.MaxRawVariants {
		return
	}
	for _, v := range e.RawVariants {
		if v == raw {
			return
		}
	}
	e.RawVariants = append(e.RawVariants, raw)
}

func snapshotOf(rec *models.InventoryRecord) models.LocationSnapshot {
	return models.LocationSnapshot{
		MerchantID:   rec.MerchantID,
		MerchantName: rec.MerchantName,
		LocationID:   rec.LocationID,
		LocationName: rec.LocationName,
		ItemID:       rec.ItemID,
		VariationID:  rec.VariationID,
		Price:        rec.Price,
		Currency:     rec.Currency,
		Quantity:     rec.Quantity,
		State:        rec.State,
		CalculatedAt: rec.CalculatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}
