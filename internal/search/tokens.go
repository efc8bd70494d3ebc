// Package search derives the normalized search key and token set stored on
// each matrix entry. The matching these feed is intentionally coarse: token
// membership and key-prefix ranges, not relevance ranking.
package search

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// MaxTokens bounds the token set stored per entry.
	MaxTokens = 40
	// MinTokenLen and MaxTokenLen bound individual token lengths; anything
	// outside the range is discarded.
	MinTokenLen = 3
	MaxTokenLen = 24

	// maxUnitLen is the longest letter run that is still fused onto a
	// preceding number ("12 oz" -> "12oz", "6 pack" -> "6pack").
	maxUnitLen = 4
)

var fusedPattern = regexp.MustCompile(`[0-9]+[a-z]+`)

// Normalize lowercases s and strips everything that is not a letter or
// digit. The result is the entry's search key and the form queries are
// normalized into before mode selection.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tokens derives the bounded token set for a display name and SKU.
// Pure and deterministic: same inputs, same tokens in the same order.
func Tokens(name, sku string) []string {
	var out []string
	seen := make(map[string]bool)

	add := func(tok string) {
		if len(out) >= MaxTokens {
			return
		}
		if len(tok) < MinTokenLen || len(tok) > MaxTokenLen {
			return
		}
		if seen[tok] {
			return
		}
		seen[tok] = true
		out = append(out, tok)
	}

	collect := func(text string) {
		words := splitWords(text)
		for _, w := range words {
			add(w)
		}
		// Fuse a number followed by a unit-like abbreviation into one token
		// so "Cola 12 oz" matches a "12oz" query.
		for i := 0; i+1 < len(words); i++ {
			if isNumber(words[i]) && isUnitWord(words[i+1]) {
				add(words[i] + words[i+1])
			}
		}
		// Keep already-fused number+letters runs verbatim ("330ml", "6pk").
		for _, m := range fusedPattern.FindAllString(strings.ToLower(text), -1) {
			add(m)
		}
	}

	collect(name)
	if sku != "" {
		collect(sku)
		add(Normalize(sku))
	}
	return out
}

// splitWords breaks text into lowercase alphanumeric words.
func splitWords(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isNumber(w string) bool {
	for i := 0; i < len(w); i++ {
		if w[i] < '0' || w[i] > '9' {
			return false
		}
	}
	return len(w) > 0
}

func isUnitWord(w string) bool {
	if len(w) == 0 || len(w) > maxUnitLen {
		return false
	}
	for _, r := range w {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
