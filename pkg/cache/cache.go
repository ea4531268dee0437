// Package cache provides pluggable backends for HTTP response caching.
//
// Registry and GitHub API responses change slowly relative to how often a
// fetch run asks for them, so every outbound client in this project caches
// responses through the [Cache] interface. Three backends are provided:
//
//   - [FileCache]: entries as files under a directory (default for CLI use)
//   - [RedisCache]: shared cache for repeated runs across machines
//   - [NullCache]: no-op, for tests or --refresh style usage
//
// Backends store opaque bytes; callers handle JSON marshaling. Keys should
// be namespaced by source (e.g., "npm:", "pypi:") to avoid collisions.
package cache

import (
	"context"
	"time"
)

// Cache is the backend interface for response caching.
// Implementations must treat a missing key as (nil, false, nil), not an error.
type Cache interface {
	// Get retrieves a value. The second return value reports whether the
	// key was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value with the given TTL. A TTL of 0 means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}
