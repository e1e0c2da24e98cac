// Package pool partitions a flat credential list into fixed-size rotation units.
//
// Pools are derived on demand from the credential list by integer division of
// the credential index by Size; only the index of the pool that most recently
// succeeded is kept anywhere (see domain.Settings).
package pool

import (
	"crypto/sha256"
	"encoding/hex"
)

// Size is the number of credentials in one pool.
const Size = 10

// Keys returns the credentials of pool index, clipped to the list length.
// An index past the end yields an empty slice.
func Keys(index int, all []string) []string {
	if index < 0 {
		return nil
	}
	start := index * Size
	if start >= len(all) {
		return nil
	}
	end := min(start+Size, len(all))
	return all[start:end]
}

// Count returns ceil(len(all) / Size).
func Count(all []string) int {
	return (len(all) + Size - 1) / Size
}

// Normalize maps a stored pool index into [0, total). Stale indexes (the
// credential list shrank) wrap instead of failing.
func Normalize(index, total int) int {
	if total <= 0 || index < 0 {
		return 0
	}
	return index % total
}

// Info describes one pool without exposing raw credentials.
type Info struct {
	Index int      `json:"index"`
	Size  int      `json:"size"`
	Keys  []string `json:"keys"`
}

// Describe lists every pool with masked credentials.
func Describe(all []string) []Info {
	total := Count(all)
	out := make([]Info, 0, total)
	for i := 0; i < total; i++ {
		keys := Keys(i, all)
		masked := make([]string, len(keys))
		for j, k := range keys {
			masked[j] = Mask(k)
		}
		out = append(out, Info{Index: i, Size: len(keys), Keys: masked})
	}
	return out
}

// Mask renders a credential for logs: a short prefix and suffix, or a hash
// fingerprint for keys too short to show safely.
func Mask(key string) string {
	r := []rune(key)
	if len(r) >= 12 {
		return string(r[:4]) + "…" + string(r[len(r)-4:])
	}
	sum := sha256.Sum256([]byte(key))
	return "key#" + hex.EncodeToString(sum[:4])
}
