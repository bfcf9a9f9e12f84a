// Package cache implements a three-tier inference result cache: exact keys,
// semantic nearest-neighbor matches, and key-prefix summary matches, probed in
// that order.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// DeriveKey returns the cache key for a content/query pair: the hex SHA-256 of
// the content joined to the query with a colon. An absent query hashes as the
// empty string, so ("c", "") and ("c",) collide by design.
func DeriveKey(content, query string) string {
	sum := sha256.Sum256([]byte(content + ":" + query))
	return hex.EncodeToString(sum[:])
}
