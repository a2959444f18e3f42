// Package cache stores rendered map artifacts keyed by topology content.
//
// Static exports are deterministic for a given topology, simulation seed and
// render options, so the exporter caches their bytes. Backends:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one JSON file per entry under a directory (CLI default)
//   - [RedisCache]: shared cache for the live server
//
// Keys come from a [Keyer]; wrap any backend with [WithHooks] to report
// hits and misses to pkg/observability.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/matzehuels/meshmap/pkg/observability"
)

// Cache is a byte store with per-entry expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}

// Clearer is implemented by backends that can drop every entry.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Clear removes all entries from c if the backend supports it.
func Clear(ctx context.Context, c Cache) error {
	if cl, ok := c.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return nil
}

// =============================================================================
// Instrumentation
// =============================================================================

type hooked struct {
	Cache
}

// WithHooks reports hits, misses and writes of c to the registered
// observability cache hooks. The key type is the key's first segment.
func WithHooks(c Cache) Cache {
	if _, ok := c.(*hooked); ok {
		return c
	}
	return &hooked{Cache: c}
}

func (h *hooked) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := h.Cache.Get(ctx, key)
	if err == nil {
		if ok {
			observability.Cache().OnCacheHit(ctx, keyType(key))
		} else {
			observability.Cache().OnCacheMiss(ctx, keyType(key))
		}
	}
	return data, ok, err
}

func (h *hooked) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := h.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

func (h *hooked) Clear(ctx context.Context) error {
	return Clear(ctx, h.Cache)
}

func keyType(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}
