package service

import (
	"context"
	"errors"
	"sort"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/matrix"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/repository"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/utils"
)

// memStore is an in-memory stand-in for all three store contracts, applying
// the same merge-on-write semantics as the real repositories.
type memStore struct {
	source  map[string][]models.InventoryRecord
	entries map[string]*models.MatrixEntry
	locs    map[string]models.LocationKeyEntry

	failScan   map[string]bool
	failCommit bool
	commits    [][]repository.MergeWrite
}

func newMemStore() *memStore {
	return &memStore{
		source:   make(map[string][]models.InventoryRecord),
		entries:  make(map[string]*models.MatrixEntry),
		locs:     make(map[string]models.LocationKeyEntry),
		failScan: make(map[string]bool),
	}
}

func (m *memStore) addRecords(merchantID string, recs ...models.InventoryRecord) {
	m.source[merchantID] = append(m.source[merchantID], recs...)
	sort.Slice(m.source[merchantID], func(i, j int) bool {
		return m.source[merchantID][i].DocID < m.source[merchantID][j].DocID
	})
}

// --- SourceStore ---

func (m *memStore) ListMerchants(context.Context) ([]string, error) {
	merchants := make([]string, 0, len(m.source))
	for id := range m.source {
		merchants = append(merchants, id)
	}
	sort.Strings(merchants)
	return merchants, nil
}

func (m *memStore) PageRecords(_ context.Context, merchantID, afterDocID string, limit int) ([]models.InventoryRecord, error) {
	if m.failScan[merchantID] {
		return nil, errors.New("partition unavailable")
	}
	var page []models.InventoryRecord
	for _, rec := range m.source[merchantID] {
		if rec.DocID > afterDocID {
			page = append(page, rec)
			if len(page) == limit {
				break
			}
		}
	}
	return page, nil
}

// --- MatrixWriter ---

func (m *memStore) CommitMerges(_ context.Context, writes []repository.MergeWrite) error {
	if m.failCommit {
		return errors.New("store unavailable")
	}
	cp := make([]repository.MergeWrite, len(writes))
	copy(cp, writes)
	m.commits = append(m.commits, cp)

	for _, w := range writes {
		if existing, ok := m.entries[w.GTIN]; ok {
			m.entries[w.GTIN] = matrix.Merge(existing, w.Entry)
		} else {
			// Merge against an empty entry to store an independent copy.
			m.entries[w.GTIN] = matrix.Merge(&models.MatrixEntry{
				GTIN:      w.GTIN,
				Locations: map[string]models.LocationSnapshot{},
			}, w.Entry)
		}
	}
	return nil
}

// --- LocationStore ---

func (m *memStore) MergeKeys(_ context.Context, entries []models.LocationKeyEntry) error {
	for _, e := range entries {
		stored, ok := m.locs[e.ID]
		if !ok {
			m.locs[e.ID] = e
			continue
		}
		if stored.MerchantName == "" {
			stored.MerchantName = e.MerchantName
		}
		if stored.LocationID == "" {
			stored.LocationID = e.LocationID
		}
		if stored.LocationName == "" {
			stored.LocationName = e.LocationName
		}
		stored.UpdatedAt = e.UpdatedAt
		m.locs[e.ID] = stored
	}
	return nil
}

func (m *memStore) ListKeys(context.Context) ([]models.LocationKeyEntry, error) {
	out := make([]models.LocationKeyEntry, 0, len(m.locs))
	for _, e := range m.locs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// --- MatrixReader ---

func (m *memStore) GetByGTIN(_ context.Context, gtin string) (*models.MatrixEntry, error) {
	e, ok := m.entries[gtin]
	if !ok {
		return nil, utils.ErrEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) Exists(_ context.Context, gtin string) (bool, error) {
	_, ok := m.entries[gtin]
	return ok, nil
}

func (m *memStore) sortedGTINs() []string {
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (m *memStore) SearchToken(_ context.Context, token, afterGTIN string, limit int) ([]models.MatrixEntry, error) {
	var out []models.MatrixEntry
	for _, id := range m.sortedGTINs() {
		if id <= afterGTIN {
			continue
		}
		e := m.entries[id]
		for _, tok := range e.Tokens {
			if tok == token {
				out = append(out, *e)
				break
			}
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) SearchPrefix(_ context.Context, lower, upper, afterKey, afterGTIN string, limit int) ([]models.MatrixEntry, error) {
	var matched []models.MatrixEntry
	for _, id := range m.sortedGTINs() {
		e := m.entries[id]
		if e.SearchKey < lower || e.SearchKey >= upper {
			continue
		}
		matched = append(matched, *e)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].SearchKey != matched[j].SearchKey {
			return matched[i].SearchKey < matched[j].SearchKey
		}
		return matched[i].GTIN < matched[j].GTIN
	})

	var out []models.MatrixEntry
	for _, e := range matched {
		if afterGTIN != "" {
			if e.SearchKey < afterKey || (e.SearchKey == afterKey && e.GTIN <= afterGTIN) {
				continue
			}
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memStore) Browse(_ context.Context, afterGTIN string, limit int) ([]models.MatrixEntry, error) {
	var out []models.MatrixEntry
	for _, id := range m.sortedGTINs() {
		if id <= afterGTIN {
			continue
		}
		out = append(out, *m.entries[id])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
