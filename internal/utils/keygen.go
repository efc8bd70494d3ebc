package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DeterministicID derives a stable document id from a natural key.
// Format: prefix_hex16. The same key always yields the same id, so
// re-running the pipeline merges into the existing document instead of
// creating a duplicate.
func DeterministicID(prefix, key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%s_%s", prefix, hex.EncodeToString(sum[:8]))
}

// LocationID derives the registry document id for a LocationKey.
func LocationID(locationKey string) string {
	return DeterministicID("loc", locationKey)
}
