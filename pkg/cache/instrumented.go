package cache

import (
	"context"
	"time"

	"github.com/matzehuels/mindmap/pkg/observability"
)

// Instrumented reports hits, misses and writes of the wrapped cache through
// observability.Cache(). The key type label is the key's prefix.
type Instrumented struct {
	Cache
}

// NewInstrumented wraps c.
func NewInstrumented(c Cache) *Instrumented {
	return &Instrumented{Cache: c}
}

// Get implements Cache.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

// Set implements Cache.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.Cache.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	}
	return err
}
