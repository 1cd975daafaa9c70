package internal

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/cachebox/pkg/cache"
)

// Cache is a named cache instance bound to one backend. Values are
// marshaled on the way in and out, so callers work with their own types
// while the backend only ever sees bytes.
//
// Instances are obtained from a Registry and are safe for concurrent use.
// Two instances never observe each other's keys, even when they share a
// physical store.
type Cache struct {
	name       string
	backend    cache.Backend
	marshaler  cache.Marshaler
	defaultTTL time.Duration
	flight     *singleflight.Group
}

// storeOptions collects per-call Store settings.
type storeOptions struct {
	ttl      time.Duration
	explicit bool
	pinned   bool
}

// StoreOption configures a single Store call.
type StoreOption func(*storeOptions)

// WithTTL sets an explicit lifetime for the stored entry, overriding the
// cache's default TTL. Zero or negative means the entry never expires.
func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
		o.explicit = true
	}
}

// WithNoExpiry stores the entry without a lifetime, overriding the cache's
// default TTL.
func WithNoExpiry() StoreOption {
	return func(o *storeOptions) {
		o.ttl = 0
		o.explicit = true
	}
}

// Pinned exempts the entry from capacity eviction on the lru backend.
// The entry still honors its TTL. Other backends ignore the flag.
func Pinned() StoreOption {
	return func(o *storeOptions) {
		o.pinned = true
	}
}

// Name returns the cache's configured name.
func (c *Cache) Name() string {
	return c.name
}

// Backend exposes the underlying backend, for callers that need raw byte
// access or backend-specific features like eviction callbacks.
func (c *Cache) Backend() cache.Backend {
	return c.backend
}

// Store marshals value and writes it under key, returning the value that
// was stored. Without an explicit TTL option, the cache's default TTL
// applies; a zero default means the entry never expires.
func (c *Cache) Store(ctx context.Context, key string, value any, opts ...StoreOption) (any, error) {
	var o storeOptions
	for _, opt := range opts {
		opt(&o)
	}

	ttl := c.defaultTTL
	if o.explicit {
		ttl = max(o.ttl, 0)
	}

	data, err := c.marshaler.Marshal(value)
	if err != nil {
		return nil, err
	}

	if err := c.backend.Store(ctx, key, cache.NewEntry(data, ttl, o.pinned)); err != nil {
		return nil, err
	}

	return value, nil
}

// Fetch reads the value under key into dest, which must be a non-nil
// pointer. A missing or expired key returns cache.ErrNotFound; backend
// failures surface as cache.ErrUnavailable or cache.ErrTimeout, never as a
// miss.
func (c *Cache) Fetch(ctx context.Context, key string, dest any) error {
	data, err := c.backend.Fetch(ctx, key)
	if err != nil {
		return err
	}
	return c.marshaler.Unmarshal(data, dest)
}

// Has reports whether key holds a live entry.
func (c *Cache) Has(ctx context.Context, key string) (bool, error) {
	return c.backend.Has(ctx, key)
}

// Delete removes the given keys as one atomic operation: concurrent
// readers see either all of them present or none.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.backend.Delete(ctx, keys...)
}

// Clear removes every entry in this cache, leaving other caches on the
// same physical store untouched.
func (c *Cache) Clear(ctx context.Context) error {
	return c.backend.Clear(ctx)
}

// Keys returns a snapshot of this cache's live keys. Expired entries are
// omitted even when they still occupy storage.
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	return c.backend.Keys(ctx)
}

// flightKey namespaces singleflight keys per instance. The separator is a
// byte that cannot appear in a cache name, so two caches never share a
// flight even when their names and keys concatenate identically.
func (c *Cache) flightKey(key string) string {
	return c.name + "\x00" + key
}

// Fetch reads the value under key as a T.
//
// Example:
//
//	user, err := cachebox.Fetch[User](ctx, c, "user:42")
func Fetch[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var v T
	if err := c.Fetch(ctx, key, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// GetOrStore returns the cached value under key, computing and storing it
// on a miss. Concurrent callers for the same key share one computation via
// singleflight, so an expensive fn runs once per flight, not once per
// caller.
//
// The TTL returned by fn follows Store semantics: positive sets an exact
// lifetime, zero uses the cache's default TTL, negative means no expiry.
//
// Example:
//
//	user, err := cachebox.GetOrStore(ctx, c, "user:42",
//	    func(ctx context.Context) (User, time.Duration, error) {
//	        u, err := repo.FindUser(ctx, 42)
//	        return u, 5 * time.Minute, err
//	    })
func GetOrStore[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, time.Duration, error)) (T, error) {
	var zero T

	v, err := Fetch[T](ctx, c, key)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		return zero, err
	}

	res, err, _ := c.flight.Do(c.flightKey(key), func() (any, error) {
		// Re-check: another flight may have populated the key while this
		// caller was queueing.
		if v, err := Fetch[T](ctx, c, key); err == nil {
			return v, nil
		} else if !errors.Is(err, cache.ErrNotFound) {
			return nil, err
		}

		value, ttl, err := fn(ctx)
		if err != nil {
			return nil, err
		}

		var opts []StoreOption
		switch {
		case ttl > 0:
			opts = append(opts, WithTTL(ttl))
		case ttl < 0:
			opts = append(opts, WithNoExpiry())
		}

		if _, err := c.Store(ctx, key, value, opts...); err != nil {
			return nil, err
		}

		return value, nil
	})
	if err != nil {
		return zero, err
	}

	return res.(T), nil
}
