package matrix_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/matrix"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
)

var (
	t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func keyByLocation(r *models.InventoryRecord) string {
	if r.MerchantName == "" {
		return r.MerchantID
	}
	return r.MerchantName + " / " + r.LocationName
}

func rec(m, l, raw string, price *float64, fresh time.Time) models.InventoryRecord {
	return models.InventoryRecord{
		DocID:        fmt.Sprintf("%s-%s-%s", m, l, raw),
		MerchantID:   m,
		MerchantName: m,
		LocationID:   l,
		LocationName: l,
		RawGTIN:      raw,
		Name:         "Test Item",
		Currency:     "USD",
		State:        models.ItemStateActive,
		CalculatedAt: &fresh,
		UpdatedAt:    fresh,
		Price:        price,
	}
}

func TestShouldReplacePriceBeatsNoPrice(t *testing.T) {
	priced := models.LocationSnapshot{Price: fptr(5), UpdatedAt: t0}
	unpriced := models.LocationSnapshot{UpdatedAt: t1}

	assert.True(t, matrix.ShouldReplace(&unpriced, &priced))
	assert.False(t, matrix.ShouldReplace(&priced, &unpriced))
}

func TestShouldReplaceFreshnessAndTies(t *testing.T) {
	older := models.LocationSnapshot{Price: fptr(5), UpdatedAt: t0}
	newer := models.LocationSnapshot{Price: fptr(6), UpdatedAt: t1}
	sameAge := models.LocationSnapshot{Price: fptr(7), UpdatedAt: t0}

	assert.True(t, matrix.ShouldReplace(&older, &newer))
	assert.False(t, matrix.ShouldReplace(&newer, &older))
	// Equal timestamps favor the candidate (scan order wins).
	assert.True(t, matrix.ShouldReplace(&older, &sameAge))
}

func TestShouldReplaceFallsBackToUpdatedAt(t *testing.T) {
	// No CalculatedAt on either side: UpdatedAt decides.
	older := models.LocationSnapshot{Price: fptr(5), UpdatedAt: t0}
	newer := models.LocationSnapshot{Price: fptr(5), UpdatedAt: t1}
	assert.True(t, matrix.ShouldReplace(&older, &newer))
}

func TestAggregatePageGroupsByCanonicalGTIN(t *testing.T) {
	agg := matrix.NewAggregator(keyByLocation)

	records := []models.InventoryRecord{
		rec("acme", "downtown", "000002785123", fptr(10.00), t0),
		rec("acme", "uptown", "0-2785123", fptr(12.50), t0),
		rec("zenith", "main", "02785123", nil, t0),
		rec("zenith", "main", "", fptr(1.00), t0), // no identifier: skipped
	}

	entries := agg.AggregatePage(records)
	require.Len(t, entries, 1)

	e := entries[0]
	assert.Equal(t, "02785123", e.GTIN)
	assert.Len(t, e.Locations, 3)
	assert.ElementsMatch(t, []string{"000002785123", "0-2785123", "02785123"}, e.RawVariants)
}

func TestAggregatePageSkipsEmptyLocationKey(t *testing.T) {
	agg := matrix.NewAggregator(func(*models.InventoryRecord) string { return "" })
	entries := agg.AggregatePage([]models.InventoryRecord{
		rec("acme", "downtown", "12345678", fptr(1), t0),
	})
	assert.Empty(t, entries)
}

func TestAggregatePageHeaderFirstNonEmptyWins(t *testing.T) {
	agg := matrix.NewAggregator(keyByLocation)

	a := rec("acme", "downtown", "12345678", fptr(1), t0)
	a.Name = ""
	a.SKU = ""
	a.Category = "Drinks"
	b := rec("acme", "uptown", "12345678", fptr(1), t1)
	b.Name = "Cola"
	b.SKU = "COLA-1"
	b.Category = "Beverages"

	entries := agg.AggregatePage([]models.InventoryRecord{a, b})
	require.Len(t, entries, 1)
	assert.Equal(t, "Cola", entries[0].Name)
	assert.Equal(t, "COLA-1", entries[0].SKU)
	// First non-empty category came from the first record.
	assert.Equal(t, "Drinks", entries[0].Category)
}

func TestAggregatePageVariantCap(t *testing.T) {
	agg := matrix.NewAggregator(keyByLocation)

	// Ten raw spellings that all canonicalize to the same GTIN.
	var records []models.InventoryRecord
	for i := 0; i < 10; i++ {
		raw := "1234-5678" + string(rune('a'+i))
		records = append(records, rec("acme", fmt.Sprintf("loc%d", i), raw, fptr(1), t0))
	}

	entries := agg.AggregatePage(records)
	require.Len(t, entries, 1)
	assert.LessOrEqual(t, len(entries[0].RawVariants), models.MaxRawVariants)
}

func TestMergePreservesExistingLocations(t *testing.T) {
	agg := matrix.NewAggregator(keyByLocation)

	first := agg.AggregatePage([]models.InventoryRecord{
		rec("acme", "downtown", "12345678", fptr(10.00), t0),
	})
	second := agg.AggregatePage([]models.InventoryRecord{
		rec("zenith", "main", "12345678", fptr(12.50), t0),
	})
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	merged := matrix.Merge(first[0], second[0])
	assert.Len(t, merged.Locations, 2)
	assert.True(t, merged.Metrics.Mismatch)
	assert.Equal(t, 2.50, merged.Metrics.Spread)
}

func TestMergeReplacesStaleSlot(t *testing.T) {
	agg := matrix.NewAggregator(keyByLocation)

	old := agg.AggregatePage([]models.InventoryRecord{
		rec("acme", "downtown", "12345678", fptr(10.00), t0),
	})[0]
	fresh := agg.AggregatePage([]models.InventoryRecord{
		rec("acme", "downtown", "12345678", fptr(11.00), t1),
	})[0]

	merged := matrix.Merge(old, fresh)
	require.Len(t, merged.Locations, 1)
	for _, snap := range merged.Locations {
		assert.Equal(t, 11.00, *snap.Price)
	}
	assert.False(t, merged.Metrics.Mismatch)
}

func TestEnrichDerivesSearchFields(t *testing.T) {
	e := &models.MatrixEntry{
		GTIN:      "12345678",
		Name:      "Cola 12 oz",
		SKU:       "COLA-12",
		Locations: map[string]models.LocationSnapshot{"a": {Price: fptr(2)}},
	}
	matrix.Enrich(e)
	assert.Equal(t, "cola12oz", e.SearchKey)
	assert.Contains(t, e.Tokens, "cola")
	assert.Contains(t, e.Tokens, "12oz")
	assert.Equal(t, 1, e.Metrics.PricedLocations)
}
