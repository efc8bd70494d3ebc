// Package gtin normalizes raw product identifiers into canonical GTINs.
//
// Merchant catalogs carry identifiers in wildly inconsistent shapes: UPC-A
// with dashes, EAN-13 with spaces, GTIN-8 zero-padded out to 12 or 13
// digits. Canonicalize collapses those spellings so the same physical
// product lands on the same matrix document.
package gtin

import "strings"

// shortLength is the GTIN-8 length. Digit strings of length 8, 12 (UPC-A),
// 13 (EAN-13) and 14 (GTIN-14) pass through unchanged; anything longer than 8
// whose leading digits are all zeros is treated as a padded GTIN-8.
const shortLength = 8

// Canonicalize returns the canonical form of a raw identifier.
// It is pure, deterministic and idempotent: applying it twice yields the
// same result as once. An empty result means "no identifier" and must be
// skipped by the caller.
func Canonicalize(raw string) string {
	digits := stripNonDigits(raw)
	if digits == "" {
		return ""
	}
	// Zero-padded GTIN-8: everything before the trailing 8 digits is zeros.
	// Checked before the standard-length pass-through because a padded GTIN-8
	// often pads out to exactly 12 or 13 digits.
	if len(digits) > shortLength && allZeros(digits[:len(digits)-shortLength]) {
		return digits[len(digits)-shortLength:]
	}

	return digits
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allZeros(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' {
			return false
		}
	}
	return true
}
