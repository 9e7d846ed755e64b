package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
)

// Cache stores embeddings by key. store.EmbeddingCache and MemoryCache
// satisfy it.
type Cache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Put(ctx context.Context, key, model string, vec []float32) error
}

// MemoryCache is an unbounded in-process Cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]float32
}

// NewMemoryCache creates an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]float32)}
}

// Get implements Cache.
func (m *MemoryCache) Get(_ context.Context, key string) ([]float32, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.entries[key]
	return v, ok, nil
}

// Put implements Cache.
func (m *MemoryCache) Put(_ context.Context, key, _ string, vec []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = vec
	return nil
}

// Len returns the number of cached entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Cached wraps an Embedder so that texts already seen by the same model are
// served from a Cache. Only the misses of a batch reach the inner embedder.
type Cached struct {
	inner Embedder
	cache Cache
}

// NewCached wraps inner with cache.
func NewCached(inner Embedder, cache Cache) *Cached {
	return &Cached{inner: inner, cache: cache}
}

// Name implements Embedder.
func (c *Cached) Name() string { return c.inner.Name() }

// Dimension implements Embedder.
func (c *Cached) Dimension() int { return c.inner.Dimension() }

// Embed implements Embedder.
func (c *Cached) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var missTexts []string
	var missIdx []int
	for i, t := range texts {
		keys[i] = CacheKey(c.inner.Name(), t)
		v, ok, err := c.cache.Get(ctx, keys[i])
		if err != nil {
			return nil, fmt.Errorf("embed cache: %w", err)
		}
		if ok {
			out[i] = v
			continue
		}
		missTexts = append(missTexts, t)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(missTexts) {
		return nil, fmt.Errorf("embed cache: %s returned %d vectors for %d texts", c.inner.Name(), len(vecs), len(missTexts))
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		if err := c.cache.Put(ctx, keys[i], c.inner.Name(), vecs[j]); err != nil {
			return nil, fmt.Errorf("embed cache: %w", err)
		}
	}
	return out, nil
}

// CacheKey derives the cache key for text embedded by model.
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(sum[:])
}
