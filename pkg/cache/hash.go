package cache

import (
	"encoding/hex"
	"strings"

	"lukechampine.com/blake3"
)

// keyVersion changes whenever parser output for unchanged input may differ,
// invalidating every cached graph.
const keyVersion = "v1"

// Hash returns the hex BLAKE3-256 digest of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// GraphKey returns the cache key for the graph that format produces from a
// file whose text hashes to contentHash.
func GraphKey(format, contentHash string) string {
	return strings.Join([]string{"graph", keyVersion, format, contentHash}, ":")
}
