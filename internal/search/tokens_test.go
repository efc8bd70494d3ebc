package search_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shrestarohan/square-inventory-manager-sub000/internal/search"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "cocacola12oz", search.Normalize("Coca-Cola 12 oz"))
	assert.Equal(t, "", search.Normalize(" --- "))
	assert.Equal(t, "abc123", search.Normalize("ABC 123"))
}

func TestTokensWordsAndFusions(t *testing.T) {
	toks := search.Tokens("Coca-Cola Classic 12 oz Can", "CC-12OZ-CAN")

	assert.Contains(t, toks, "coca")
	assert.Contains(t, toks, "cola")
	assert.Contains(t, toks, "classic")
	assert.Contains(t, toks, "can")
	// number + unit fusion
	assert.Contains(t, toks, "12oz")
	// whole normalized SKU
	assert.Contains(t, toks, "cc12ozcan")
	// bare "12" and "oz" are below the minimum length
	assert.NotContains(t, toks, "12")
	assert.NotContains(t, toks, "oz")
}

func TestTokensVerbatimFusedRun(t *testing.T) {
	toks := search.Tokens("Sparkling Water 330ml Bottle", "")
	assert.Contains(t, toks, "330ml")
	assert.Contains(t, toks, "sparkling")
	assert.Contains(t, toks, "bottle")
}

func TestTokensBounds(t *testing.T) {
	// A pathological name with far more than MaxTokens distinct words.
	var parts []string
	for i := 0; i < 100; i++ {
		parts = append(parts, fmt.Sprintf("word%03d", i))
	}
	toks := search.Tokens(strings.Join(parts, " "), "SKU-WITH-A-VERY-LONG-TAIL-1234567890")

	assert.LessOrEqual(t, len(toks), search.MaxTokens)
	for _, tok := range toks {
		assert.GreaterOrEqual(t, len(tok), search.MinTokenLen, "token %q", tok)
		assert.LessOrEqual(t, len(tok), search.MaxTokenLen, "token %q", tok)
	}
}

func TestTokensDeterministic(t *testing.T) {
	a := search.Tokens("Organic Honey 16 oz Jar", "HNY-16")
	b := search.Tokens("Organic Honey 16 oz Jar", "HNY-16")
	assert.Equal(t, a, b)
}

func TestTokensNoDuplicates(t *testing.T) {
	toks := search.Tokens("Cola Cola Cola 12 oz 12 oz", "COLA")
	seen := make(map[string]bool)
	for _, tok := range toks {
		assert.False(t, seen[tok], "duplicate token %q", tok)
		seen[tok] = true
	}
}
