package pak

import (
	"strings"
	"unicode/utf16"
)

const fnv64OffsetBasis = 14695981039346656037
const fnv64Prime = 1099511628211

// PathHash computes the seeded hash the path-hash index is keyed by:
// FNV-1a over the UTF-16LE encoding of the lowercased slash path,
// with the container's 64-bit seed folded into the initial state.
func PathHash(path string, seed uint64) uint64 {
	lower := strings.ToLower(path)
	h := uint64(fnv64OffsetBasis) ^ seed
	for _, u := range utf16.Encode([]rune(lower)) {
		h ^= uint64(u & 0xFF)
		h *= fnv64Prime
		h ^= uint64(u >> 8)
		h *= fnv64Prime
	}
	return h
}
