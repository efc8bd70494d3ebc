package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/search"
)

func seedEntry(store *memStore, gtinID, name string) {
	store.entries[gtinID] = &models.MatrixEntry{
		GTIN:      gtinID,
		Name:      name,
		SearchKey: search.Normalize(name),
		Tokens:    search.Tokens(name, ""),
		Locations: map[string]models.LocationSnapshot{},
		UpdatedAt: testBase,
	}
}

func TestSearchExactModeCanonicalizesQuery(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "12345678", "Cola Classic")

	svc := NewQueryService(store, nil)
	// A zero-padded spelling of a stored short identifier.
	res, err := svc.Search(context.Background(), "0000-1234-5678", "", 20)
	require.NoError(t, err)

	assert.Equal(t, ModeExact, res.Mode)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "12345678", res.Rows[0].GTIN)
	assert.Nil(t, res.NextCursor, "identifier lookups are single-shot")
}

func TestSearchTokenModePaginates(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "1111111111111", "Cola Classic")
	seedEntry(store, "2222222222222", "Cola Cherry")
	seedEntry(store, "3333333333333", "Cola Zero")
	seedEntry(store, "4444444444444", "Root Beer")

	svc := NewQueryService(store, nil)
	first, err := svc.Search(context.Background(), "cola", "", 2)
	require.NoError(t, err)

	assert.Equal(t, ModeToken, first.Mode)
	require.Len(t, first.Rows, 2)
	assert.Equal(t, "1111111111111", first.Rows[0].GTIN)
	assert.Equal(t, "2222222222222", first.Rows[1].GTIN)
	require.NotNil(t, first.NextCursor)

	second, err := svc.Search(context.Background(), "cola", *first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Rows, 1)
	assert.Equal(t, "3333333333333", second.Rows[0].GTIN)
	assert.Nil(t, second.NextCursor, "short page ends pagination")
}

func TestSearchPrefixModePaginates(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "1111111111111", "Organic Apple Juice 1L")
	seedEntry(store, "2222222222222", "Organic Apple Juice 2L")
	seedEntry(store, "3333333333333", "Organic Apple Juice Box")
	seedEntry(store, "4444444444444", "Pear Nectar")

	svc := NewQueryService(store, nil)
	query := "Organic Apple Juice"
	first, err := svc.Search(context.Background(), query, "", 2)
	require.NoError(t, err)

	assert.Equal(t, ModePrefix, first.Mode)
	require.Len(t, first.Rows, 2)
	require.NotNil(t, first.NextCursor)

	second, err := svc.Search(context.Background(), query, *first.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, second.Rows, 1)
	assert.Nil(t, second.NextCursor)

	seen := map[string]bool{}
	for _, row := range append(first.Rows, second.Rows...) {
		assert.False(t, seen[row.GTIN], "row %s served twice", row.GTIN)
		seen[row.GTIN] = true
	}
	assert.False(t, seen["4444444444444"], "non-matching entry leaked into the range")
}

func TestSearchBrowseMode(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "1111111111111", "Cola")
	seedEntry(store, "2222222222222", "Root Beer")

	svc := NewQueryService(store, nil)
	res, err := svc.Search(context.Background(), "", "", 20)
	require.NoError(t, err)

	assert.Equal(t, ModeBrowse, res.Mode)
	assert.Len(t, res.Rows, 2)
}

func TestSearchFallsBackOneStep(t *testing.T) {
	store := newMemStore()
	// No token matches "zzcolazz", but a search key starts with it.
	seedEntry(store, "1111111111111", "ZZCola ZZ Special Edition")

	svc := NewQueryService(store, nil)
	res, err := svc.Search(context.Background(), "zzcolazz", "", 20)
	require.NoError(t, err)

	assert.Equal(t, ModePrefix, res.Mode)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "1111111111111", res.Rows[0].GTIN)
}

func TestSearchFallbackIsSingleStep(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "1111111111111", "Root Beer")

	svc := NewQueryService(store, nil)
	// Token misses, prefix misses too. Browse would match, but fallback
	// only moves one mode per request.
	res, err := svc.Search(context.Background(), "cola", "", 20)
	require.NoError(t, err)

	assert.Equal(t, ModePrefix, res.Mode)
	assert.Empty(t, res.Rows)
}

func TestSearchIgnoresCorruptCursor(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "1111111111111", "Cola Classic")

	svc := NewQueryService(store, nil)
	res, err := svc.Search(context.Background(), "cola", "!!!not-a-cursor!!!", 20)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestSearchResumesInCursorMode(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "1111111111111", "Cola Classic")
	seedEntry(store, "2222222222222", "Cola Cherry")

	// The cursor, not the query shape, decides the mode of a resumed page.
	token := EncodeCursor(&Cursor{Mode: ModeBrowse, LastID: "1111111111111"})

	svc := NewQueryService(store, nil)
	res, err := svc.Search(context.Background(), "cola", token, 20)
	require.NoError(t, err)

	assert.Equal(t, ModeBrowse, res.Mode)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "2222222222222", res.Rows[0].GTIN)
}

func TestSearchPaginatesAcrossFallback(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "1111111111111", "Abcdef One")
	seedEntry(store, "2222222222222", "Abcdef Two")
	seedEntry(store, "3333333333333", "Abcdef Three")

	svc := NewQueryService(store, nil)
	// Token mode matches nothing; page one comes from the prefix fallback.
	first, err := svc.Search(context.Background(), "abc", "", 2)
	require.NoError(t, err)
	assert.Equal(t, ModePrefix, first.Mode)
	require.Len(t, first.Rows, 2)
	require.NotNil(t, first.NextCursor)

	// The resumed page must continue the fallback mode, not re-run the
	// empty token search and serve page one again.
	second, err := svc.Search(context.Background(), "abc", *first.NextCursor, 2)
	require.NoError(t, err)
	assert.Equal(t, ModePrefix, second.Mode)
	require.Len(t, second.Rows, 1)
	assert.Nil(t, second.NextCursor)

	seen := map[string]bool{}
	for _, row := range append(first.Rows, second.Rows...) {
		assert.False(t, seen[row.GTIN], "row %s served twice", row.GTIN)
		seen[row.GTIN] = true
	}
	assert.Len(t, seen, 3)
}

func TestSearchPrefixIncludesHighCodepointKeys(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "1111111111111", "Organic Apple Juice 1L")
	// Fullwidth letter: normalizes to a rune above the Private Use Area.
	seedEntry(store, "2222222222222", "Organic Apple Juice Ｎeo")

	svc := NewQueryService(store, nil)
	res, err := svc.Search(context.Background(), "Organic Apple Juice", "", 20)
	require.NoError(t, err)

	assert.Equal(t, ModePrefix, res.Mode)
	require.Len(t, res.Rows, 2)
}

func TestSearchIgnoresCursorForVanishedEntry(t *testing.T) {
	store := newMemStore()
	seedEntry(store, "2222222222222", "Cola Cherry")

	token := EncodeCursor(&Cursor{Mode: ModeToken, LastID: "9999999999999"})

	svc := NewQueryService(store, nil)
	res, err := svc.Search(context.Background(), "cola", token, 20)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 1)
}

func TestSearchClampsLimit(t *testing.T) {
	store := newMemStore()
	for i := 0; i < 3; i++ {
		id := string(rune('1'+i)) + "000000000000"
		seedEntry(store, id, "Cola")
	}

	svc := NewQueryService(store, nil)
	res, err := svc.Search(context.Background(), "", "", -5)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3, "non-positive limit falls back to the default")

	res, err = svc.Search(context.Background(), "", "", 100000)
	require.NoError(t, err)
	assert.Len(t, res.Rows, 3)
}
