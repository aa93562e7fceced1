// Package cache stores rendered mind map artifacts keyed by content hash.
//
// A rendered SVG or PNG only depends on the map's nodes, edges and title
// plus the render options, so the key is a hash of exactly those inputs.
// Editing a map changes its hash and the stale artifact is never looked up
// again; entries expire on their own through their TTL.
//
// # Backends
//
//   - [FileCache]: one file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for servers running the redis store
//   - [NullCache]: caching disabled
//
// Wrap any backend with [NewInstrumented] to report hits and misses through
// the observability hooks.
package cache

import (
	"context"
	"time"
)

// TTLArtifact is how long rendered artifacts are kept.
const TTLArtifact = 7 * 24 * time.Hour

// Cache is a byte-oriented key/value cache.
type Cache interface {
	// Get returns the cached value and whether it was found.
	// A missing or expired entry is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// ArtifactKeyOpts are the render options that affect an artifact's bytes.
type ArtifactKeyOpts struct {
	Format   string `json:"format"`
	Detailed bool   `json:"detailed,omitempty"`
	Free     bool   `json:"free,omitempty"`
}

// Keyer generates cache keys.
type Keyer interface {
	// ArtifactKey keys a rendered artifact of the map with content hash mapHash.
	ArtifactKey(mapHash string, opts ArtifactKeyOpts) string
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(mapHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", mapHash, opts)
}
