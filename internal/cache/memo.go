package cache

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadFunc fetches the value for a key.
type LoadFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Memoizer caches successful loads per key and collapses concurrent loads of
// the same key into one call. Failed loads are not cached.
type Memoizer[K comparable, V any] struct {
	cache *Cache[K, V]
	group singleflight.Group
	load  LoadFunc[K, V]
	ttl   time.Duration
}

// NewMemoizer wraps load. A ttl <= 0 keeps results until Forget or Close.
func NewMemoizer[K comparable, V any](load LoadFunc[K, V], ttl time.Duration) *Memoizer[K, V] {
	return &Memoizer[K, V]{
		cache: New[K, V](ttl),
		load:  load,
		ttl:   ttl,
	}
}

// Get returns the cached value for key or loads it.
func (m *Memoizer[K, V]) Get(ctx context.Context, key K) (V, error) {
	if v, ok := m.cache.Get(ctx, key); ok {
		return v, nil
	}

	res, err, _ := m.group.Do(fmt.Sprint(key), func() (any, error) {
		if v, ok := m.cache.Get(ctx, key); ok {
			return v, nil
		}
		v, err := m.load(ctx, key)
		if err != nil {
			return v, err
		}
		m.cache.Set(ctx, key, v, m.ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Forget drops a cached key so the next Get reloads it.
func (m *Memoizer[K, V]) Forget(ctx context.Context, key K) {
	m.cache.Delete(ctx, key)
	m.group.Forget(fmt.Sprint(key))
}

// Close releases the underlying cache.
func (m *Memoizer[K, V]) Close() {
	m.cache.Close()
}
