package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/cache"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/gtin"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/models"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/repository"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/search"
	"github.com/shrestarohan/square-inventory-manager-sub000/internal/utils"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100

	// exactModeMinDigits is the minimum normalized length for an all-digit
	// query to be treated as an identifier lookup.
	exactModeMinDigits = 8
	// tokenModeMaxLen splits non-numeric queries: shorter ones are matched
	// as a token, longer ones read like a name fragment and go to the
	// prefix range.
	tokenModeMaxLen = 12

	// prefixUpperSentinel closes the prefix range: every search key starting
	// with the query sorts below query+sentinel. Must be the maximum rune,
	// search keys keep any Unicode letter verbatim.
	prefixUpperSentinel = "\U0010FFFF"
)

// QueryResult is one page of matrix entries plus the opaque token to resume
// with. NextCursor is nil when there are no more pages.
type QueryResult struct {
	Rows       []models.MatrixEntry `json:"rows"`
	NextCursor *string              `json:"nextCursor"`
	Mode       QueryMode            `json:"mode"`
}

// QueryService plans and executes paginated searches over the matrix view.
// Each request is independent; the only state shared across requests is
// whatever the cursor encodes.
type QueryService struct {
	reader repository.MatrixReader
	cache  *cache.SearchCache // optional; nil disables caching
}

// NewQueryService constructs a QueryService. searchCache may be nil.
func NewQueryService(reader repository.MatrixReader, searchCache *cache.SearchCache) *QueryService {
	return &QueryService{reader: reader, cache: searchCache}
}

// Search resolves one query: select a mode from the query shape, apply the
// cursor if it is usable, execute, fall back one mode on an empty first
// page, and encode the cursor for the next page.
func (s *QueryService) Search(ctx context.Context, rawQuery, cursorToken string, limit int) (*QueryResult, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	normalized := search.Normalize(rawQuery)
	mode := selectMode(normalized)
	cur := s.usableCursor(ctx, cursorToken)
	if cur != nil {
		// The cursor is self-describing: a resumed page continues in the
		// mode that produced page one, even when the query shape would
		// select a different mode (it did, if page one was a fallback).
		mode = cur.Mode
	}

	// First pages of a query are cache-friendly; resumed pages are not.
	if cur == nil && s.cache != nil {
		if page, err := s.cache.Get(ctx, normalized, limit); err == nil && page != nil {
			return &QueryResult{Rows: page.Rows, NextCursor: page.NextCursor, Mode: mode}, nil
		}
	}

	rows, err := s.execute(ctx, mode, normalized, cur, limit)
	if err != nil {
		return nil, err
	}

	// Empty first page: fall back exactly once to the next mode in priority
	// order. Resumed pages never fall back; an empty page there just means
	// the result set is exhausted.
	if len(rows) == 0 && cur == nil {
		if next, ok := fallbackMode(mode); ok {
			log.Debug().Str("from", string(mode)).Str("to", string(next)).Str("query", normalized).Msg("query mode fallback")
			mode = next
			rows, err = s.execute(ctx, mode, normalized, nil, limit)
			if err != nil {
				return nil, err
			}
		}
	}

	result := &QueryResult{Rows: rows, NextCursor: s.nextCursor(mode, rows, limit), Mode: mode}

	if cur == nil && s.cache != nil {
		page := &cache.SearchPage{Rows: result.Rows, NextCursor: result.NextCursor}
		if err := s.cache.Set(ctx, normalized, limit, page); err != nil {
			log.Debug().Err(err).Msg("search cache set failed")
		}
	}
	return result, nil
}

// Lookup fetches one matrix entry by identifier, accepting any raw spelling
// of it. Returns utils.ErrEntryNotFound when no entry exists.
func (s *QueryService) Lookup(ctx context.Context, rawGTIN string) (*models.MatrixEntry, error) {
	canonical := gtin.Canonicalize(rawGTIN)
	if canonical == "" {
		return nil, utils.ErrEntryNotFound
	}
	return s.reader.GetByGTIN(ctx, canonical)
}

// selectMode picks the query strategy from the normalized query shape.
func selectMode(normalized string) QueryMode {
	if normalized == "" {
		return ModeBrowse
	}
	if isAllDigits(normalized) && len(normalized) >= exactModeMinDigits {
		return ModeExact
	}
	if len(normalized) < tokenModeMaxLen {
		return ModeToken
	}
	return ModePrefix
}

// fallbackMode returns the next mode in the fixed priority order
// exact -> token -> prefix -> browse. Browse has nothing to fall back to.
func fallbackMode(m QueryMode) (QueryMode, bool) {
	switch m {
	case ModeExact:
		return ModeToken, true
	case ModeToken:
		return ModePrefix, true
	case ModePrefix:
		return ModeBrowse, true
	}
	return "", false
}

// usableCursor decodes the token and discards it when it cannot be applied:
// undecodable, or referencing a document that no longer exists. A discarded
// cursor means "start from the beginning", never an error.
func (s *QueryService) usableCursor(ctx context.Context, token string) *Cursor {
	cur := DecodeCursor(token)
	if cur == nil {
		return nil
	}
	exists, err := s.reader.Exists(ctx, cur.LastID)
	if err != nil || !exists {
		return nil
	}
	return cur
}

func (s *QueryService) execute(ctx context.Context, mode QueryMode, normalized string, cur *Cursor, limit int) ([]models.MatrixEntry, error) {
	afterID := ""
	afterValue := ""
	if cur != nil {
		afterID = cur.LastID
		afterValue = cur.LastValue
	}

	switch mode {
	case ModeExact:
		// The matrix is keyed by canonical identifiers; the pasted query may
		// be a padded or formatted variant.
		entry, err := s.reader.GetByGTIN(ctx, gtin.Canonicalize(normalized))
		if errors.Is(err, utils.ErrEntryNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.MatrixEntry{*entry}, nil

	case ModeToken:
		return s.reader.SearchToken(ctx, normalized, afterID, limit)

	case ModePrefix:
		upper := normalized + prefixUpperSentinel
		return s.reader.SearchPrefix(ctx, normalized, upper, afterValue, afterID, limit)

	default:
		return s.reader.Browse(ctx, afterID, limit)
	}
}

// nextCursor encodes the resume token. A short page means the result set is
// exhausted; exact lookups are single-shot and never paginate.
func (s *QueryService) nextCursor(mode QueryMode, rows []models.MatrixEntry, limit int) *string {
	if mode == ModeExact || len(rows) < limit || len(rows) == 0 {
		return nil
	}
	last := rows[len(rows)-1]
	c := Cursor{Mode: mode, LastID: last.GTIN}
	if mode == ModePrefix {
		c.LastValue = last.SearchKey
	}
	token := EncodeCursor(&c)
	return &token
}

func isAllDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}
