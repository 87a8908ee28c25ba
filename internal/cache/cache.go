// Package cache provides the per-process result cache shared by every
// pipeline stage: a capacity-bounded LRU keyed by content/parameter
// fingerprints, with singleflight deduplication so two concurrent
// requests for the same fingerprint trigger at most one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

type entry struct {
	value     any
	createdAt time.Time
}

// Cache is safe for concurrent use. Lookup failures are always treated
// as misses; the cache never propagates an error of its own.
type Cache struct {
	lru   *lru.Cache[string, entry]
	group singleflight.Group
	log   zerolog.Logger
}

func New(capacity int, log zerolog.Logger) (*Cache, error) {
	l, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	return &Cache{lru: l, log: log.With().Str("component", "cache").Logger()}, nil
}

// Fingerprint produces a stable hex key from an operation name and its
// parameters. Parameters are serialized with encoding/json, so anything
// with deterministic JSON encoding (structs, strings, numbers) is a
// valid part.
func Fingerprint(op string, parts ...any) string {
	h := sha256.New()
	h.Write([]byte(op))
	for _, p := range parts {
		h.Write([]byte{0})
		b, err := json.Marshal(p)
		if err != nil {
			// Fall back to the fmt representation; still deterministic
			// for the types used as cache parts.
			b = []byte(fmt.Sprintf("%v", p))
		}
		h.Write(b)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(key string) (any, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Put stores value under key, evicting least-recently-used entries
// beyond capacity.
func (c *Cache) Put(key string, value any) {
	c.lru.Add(key, entry{value: value, createdAt: time.Now()})
}

// Remove drops key from the cache.
func (c *Cache) Remove(key string) {
	c.lru.Remove(key)
}

// Len reports the number of live entries.
func (c *Cache) Len() int { return c.lru.Len() }

// GetOrCompute returns the cached value for key or runs compute exactly
// once across concurrent callers with the same key, caching the result.
// The boolean reports whether the value came from the cache.
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) (any, bool, error) {
	if v, ok := c.Get(key); ok {
		c.log.Debug().Str("key", shortKey(key)).Msg("cache hit")
		return v, true, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// Re-check: another caller may have filled the entry between
		// the miss and acquiring the flight.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})
	if err != nil {
		return nil, false, err
	}
	if shared {
		c.log.Debug().Str("key", shortKey(key)).Msg("joined in-flight computation")
	}
	return v, false, nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
