package translate

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Hash computes the content digest used as a cache key. The input is
// whitespace-normalized first so the same paragraph hashes identically
// across re-renders; any edit to the visible text produces a different key.
func Hash(text string) uint64 {
	return xxhash.Sum64String(normalize(text))
}

// HashKey is the string form used in the persisted blob.
func HashKey(h uint64) string {
	return fmt.Sprintf("%016x", h)
}

func normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
