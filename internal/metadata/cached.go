package metadata

import "context"

// CachedResolver memoizes descriptors per logical name for the session.
// The TUI event loop is the only caller, so no locking is needed; the map
// is never written from another goroutine.
type CachedResolver struct {
	inner Resolver
	cache map[string]*Descriptor
	store *Store // optional persistent cache; nil when disabled
}

// NewCachedResolver wraps inner with in-memory memoization. store may be
// nil; when present it is consulted before inner and updated best-effort
// after a successful resolve.
func NewCachedResolver(inner Resolver, store *Store) *CachedResolver {
	return &CachedResolver{
		inner: inner,
		cache: make(map[string]*Descriptor),
		store: store,
	}
}

// Resolve returns the memoized descriptor or delegates to the wrapped
// resolver. Failures are not cached: the next call retries.
func (c *CachedResolver) Resolve(ctx context.Context, logicalName string) (*Descriptor, error) {
	if d, ok := c.cache[logicalName]; ok {
		return d, nil
	}

	if c.store != nil {
		if d, err := c.store.Get(ctx, logicalName); err == nil && d != nil {
			c.cache[logicalName] = d
			return d, nil
		}
	}

	d, err := c.inner.Resolve(ctx, logicalName)
	if err != nil {
		return nil, err
	}
	c.cache[logicalName] = d

	if c.store != nil {
		// Persist best-effort; a cache write failure never fails a resolve.
		_ = c.store.Put(ctx, d)
	}
	return d, nil
}
