// Package cache provides the TTL cache consulted before every
// breaker-guarded provider call. Lookups happen before the network;
// only successful responses are ever stored.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage contract shared by the memory, disk, and layered
// implementations.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key fingerprints a (provider, query) pair into a stable cache key.
func Key(provider, query string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(query))
	return "veracity:v1:" + hex.EncodeToString(h.Sum(nil))
}
