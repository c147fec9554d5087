package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// GenerateCacheKey joins key components with ":".
func GenerateCacheKey(components ...string) string {
	return strings.Join(components, ":")
}

// QueryKey serialises request parameters into a stable cache key.
// url.Values.Encode sorts by name, so equal parameter sets give equal keys
// regardless of insertion order. Multi-valued parameters keep their order.
func QueryKey(params url.Values) string {
	return params.Encode()
}

// KeyHash generates a short SHA256 hash of the key, for keys that would
// otherwise be long or carry user input into storage key names.
func KeyHash(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])[:16]
}
