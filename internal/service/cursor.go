package service

import (
	"encoding/base64"
	"encoding/json"
)

// QueryMode identifies which query strategy produced a page of results.
type QueryMode string

const (
	// ModeExact looks up a single canonical identifier.
	ModeExact QueryMode = "exact"
	// ModeToken matches entries whose token set contains the query.
	ModeToken QueryMode = "token"
	// ModePrefix range-scans search keys starting with the query.
	ModePrefix QueryMode = "prefix"
	// ModeBrowse pages the whole view without a filter.
	ModeBrowse QueryMode = "browse"
)

func validMode(m QueryMode) bool {
	switch m {
	case ModeExact, ModeToken, ModePrefix, ModeBrowse:
		return true
	}
	return false
}

// Cursor is the decoded form of the opaque pagination token: the mode that
// produced the previous page plus enough state to resume it. LastValue is
// only set for modes sorted by a secondary value (prefix: the search key).
type Cursor struct {
	Mode      QueryMode `json:"m"`
	LastID    string    `json:"id"`
	LastValue string    `json:"v,omitempty"`
}

// EncodeCursor serializes a cursor into its opaque wire token.
func EncodeCursor(c *Cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		// Cursor is three strings; marshalling cannot fail in practice.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses an opaque token. Any defect (bad base64, bad JSON, an
// unknown mode, a missing document id) yields nil, meaning "no cursor".
// Stale or corrupted cursors degrade to a fresh first page, never an error.
func DecodeCursor(token string) *Cursor {
	if token == "" {
		return nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil
	}
	if !validMode(c.Mode) || c.LastID == "" {
		return nil
	}
	return &c
}
