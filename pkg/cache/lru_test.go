package cache_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachebox/pkg/cache"
)

// --- LRU: Fetch ---

func TestLRU_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrNotFound for missing key", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		_, err := b.Fetch(context.Background(), "missing")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("returns stored value", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("value"), time.Minute, false)))

		val, err := b.Fetch(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, []byte("value"), val)
	})

	t.Run("returns ErrNotFound for expired key", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCleanupInterval(0))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("value"), time.Millisecond, false)))

		time.Sleep(5 * time.Millisecond)

		_, err := b.Fetch(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("marks entry as recently used", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(2))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))

		// Access "a" to make it recently used.
		_, err := b.Fetch(ctx, "a")
		require.NoError(t, err)

		// Add "c": should evict "b" (LRU), not "a".
		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		has, err := b.Has(ctx, "a")
		require.NoError(t, err)
		require.True(t, has, "a should still exist (recently used)")

		has, err = b.Has(ctx, "b")
		require.NoError(t, err)
		require.False(t, has, "b should have been evicted")
	})

	t.Run("returned slice is a copy", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("abc"), time.Minute, false)))

		val, err := b.Fetch(ctx, "key")
		require.NoError(t, err)
		val[0] = 'X'

		again, err := b.Fetch(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, []byte("abc"), again, "mutating a fetched value must not corrupt the cache")
	})
}

// --- LRU: Store ---

func TestLRU_Store(t *testing.T) {
	t.Parallel()

	t.Run("stores and retrieves value", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("value"), time.Minute, false)))

		val, err := b.Fetch(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, []byte("value"), val)
	})

	t.Run("zero TTL never expires", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCleanupInterval(0))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("forever"), 0, false)))

		time.Sleep(20 * time.Millisecond)

		val, err := b.Fetch(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, []byte("forever"), val)
	})

	t.Run("overwrites existing key", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("2"), time.Minute, false)))

		val, err := b.Fetch(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, []byte("2"), val)
	})

	t.Run("stored value is copied", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		buf := []byte("abc")
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry(buf, time.Minute, false)))

		buf[0] = 'X'

		val, err := b.Fetch(ctx, "key")
		require.NoError(t, err)
		require.Equal(t, []byte("abc"), val, "mutating the input slice must not corrupt the cache")
	})

	t.Run("returns ErrClosed after Close", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		require.NoError(t, b.Close())

		err := b.Store(context.Background(), "key", cache.NewEntry([]byte("value"), time.Minute, false))
		require.ErrorIs(t, err, cache.ErrClosed)
	})
}

// --- LRU: Has ---

func TestLRU_Has(t *testing.T) {
	t.Parallel()

	t.Run("returns true for existing key", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("value"), time.Minute, false)))

		has, err := b.Has(ctx, "key")
		require.NoError(t, err)
		require.True(t, has)
	})

	t.Run("returns false for missing key", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		has, err := b.Has(context.Background(), "missing")
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("returns false for expired key", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCleanupInterval(0))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("value"), time.Millisecond, false)))

		time.Sleep(5 * time.Millisecond)

		has, err := b.Has(ctx, "key")
		require.NoError(t, err)
		require.False(t, has)
	})

	t.Run("does not promote the entry", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(2))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))

		// Has must not count as use: "a" stays least recently used.
		has, err := b.Has(ctx, "a")
		require.NoError(t, err)
		require.True(t, has)

		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		has, err = b.Has(ctx, "a")
		require.NoError(t, err)
		require.False(t, has, "a should have been evicted despite the Has call")
	})
}

// --- LRU: Delete ---

func TestLRU_Delete(t *testing.T) {
	t.Parallel()

	t.Run("removes existing key", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("value"), time.Minute, false)))
		require.NoError(t, b.Delete(ctx, "key"))

		_, err := b.Fetch(ctx, "key")
		require.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("removes multiple keys at once", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		require.NoError(t, b.Delete(ctx, "a", "c"))

		has, _ := b.Has(ctx, "a")
		require.False(t, has)
		has, _ = b.Has(ctx, "b")
		require.True(t, has)
		has, _ = b.Has(ctx, "c")
		require.False(t, has)
	})

	t.Run("no error for missing key", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		err := b.Delete(context.Background(), "missing")
		require.NoError(t, err)
	})

	t.Run("missing keys in a batch do not abort the rest", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))

		require.NoError(t, b.Delete(ctx, "missing", "a", "also-missing"))

		has, _ := b.Has(ctx, "a")
		require.False(t, has)
	})

	t.Run("returns ErrClosed after Close", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		require.NoError(t, b.Close())

		err := b.Delete(context.Background(), "key")
		require.ErrorIs(t, err, cache.ErrClosed)
	})
}

// --- LRU: Clear ---

func TestLRU_Clear(t *testing.T) {
	t.Parallel()

	t.Run("removes all entries", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		require.NoError(t, b.Clear(ctx))

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		require.Empty(t, keys)
	})

	t.Run("cache is usable after Clear", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(2))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Clear(ctx))

		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))

		val, err := b.Fetch(ctx, "b")
		require.NoError(t, err)
		require.Equal(t, []byte("2"), val)
	})

	t.Run("returns ErrClosed after Close", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		require.NoError(t, b.Close())

		err := b.Clear(context.Background())
		require.ErrorIs(t, err, cache.ErrClosed)
	})
}

// --- LRU: Keys ---

func TestLRU_Keys(t *testing.T) {
	t.Parallel()

	t.Run("lists keys most recently used first", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"c", "b", "a"}, keys)
	})

	t.Run("omits expired keys", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCleanupInterval(0))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "short", cache.NewEntry([]byte("1"), time.Millisecond, false)))
		require.NoError(t, b.Store(ctx, "long", cache.NewEntry([]byte("2"), time.Minute, false)))

		time.Sleep(5 * time.Millisecond)

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		require.Equal(t, []string{"long"}, keys)
	})

	t.Run("empty cache returns no keys", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		keys, err := b.Keys(context.Background())
		require.NoError(t, err)
		require.Empty(t, keys)
	})
}

// --- LRU: Close ---

func TestLRU_Close(t *testing.T) {
	t.Parallel()

	t.Run("idempotent close", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		require.NoError(t, b.Close())
		require.NoError(t, b.Close())
	})

	t.Run("rejects operations after close", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Close())

		_, err := b.Fetch(ctx, "a")
		require.ErrorIs(t, err, cache.ErrClosed)
		_, err = b.Has(ctx, "a")
		require.ErrorIs(t, err, cache.ErrClosed)
		_, err = b.Keys(ctx)
		require.ErrorIs(t, err, cache.ErrClosed)
		require.ErrorIs(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)), cache.ErrClosed)
		require.ErrorIs(t, b.Delete(ctx, "a"), cache.ErrClosed)
		require.ErrorIs(t, b.Clear(ctx), cache.ErrClosed)
	})
}

// --- LRU: Capacity ---

func TestLRU_Capacity(t *testing.T) {
	t.Parallel()

	t.Run("evicts LRU when at capacity", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(3))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		// Add one more: should evict "a" (least recently used).
		require.NoError(t, b.Store(ctx, "d", cache.NewEntry([]byte("4"), time.Minute, false)))

		_, err := b.Fetch(ctx, "a")
		require.ErrorIs(t, err, cache.ErrNotFound, "a should have been evicted")

		val, err := b.Fetch(ctx, "d")
		require.NoError(t, err)
		require.Equal(t, []byte("4"), val)
	})

	t.Run("no eviction when under capacity", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(5))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 2)
	})

	t.Run("overwrite does not count as new entry", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(2))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))

		// Overwrite "a": should NOT evict "b".
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("10"), time.Minute, false)))

		val, err := b.Fetch(ctx, "a")
		require.NoError(t, err)
		require.Equal(t, []byte("10"), val)

		val, err = b.Fetch(ctx, "b")
		require.NoError(t, err)
		require.Equal(t, []byte("2"), val)
	})

	t.Run("capacity of 1", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(1))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))

		_, err := b.Fetch(ctx, "a")
		require.ErrorIs(t, err, cache.ErrNotFound)

		val, err := b.Fetch(ctx, "b")
		require.NoError(t, err)
		require.Equal(t, []byte("2"), val)
	})

	t.Run("zero capacity disables the bound", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(0))
		defer b.Close()

		ctx := context.Background()
		for _, key := range []string{"a", "b", "c", "d", "e"} {
			require.NoError(t, b.Store(ctx, key, cache.NewEntry([]byte("v"), time.Minute, false)))
		}

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 5)
	})
}

// --- LRU: Pinning ---

func TestLRU_Pinning(t *testing.T) {
	t.Parallel()

	t.Run("pinned entries are skipped during eviction", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(2))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "pinned", cache.NewEntry([]byte("keep"), time.Minute, true)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))

		// "pinned" is LRU but exempt; "b" goes instead.
		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		has, err := b.Has(ctx, "pinned")
		require.NoError(t, err)
		require.True(t, has, "pinned entry must survive eviction")

		has, err = b.Has(ctx, "b")
		require.NoError(t, err)
		require.False(t, has, "b should have been evicted in place of the pinned entry")
	})

	t.Run("insert proceeds when everything is pinned", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(2))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "p1", cache.NewEntry([]byte("1"), time.Minute, true)))
		require.NoError(t, b.Store(ctx, "p2", cache.NewEntry([]byte("2"), time.Minute, true)))

		// Nothing evictable: the cache temporarily exceeds capacity.
		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		keys, err := b.Keys(ctx)
		require.NoError(t, err)
		require.Len(t, keys, 3)
	})

	t.Run("pinned entries still expire", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCleanupInterval(0))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "pinned", cache.NewEntry([]byte("v"), time.Millisecond, true)))

		time.Sleep(5 * time.Millisecond)

		_, err := b.Fetch(ctx, "pinned")
		require.ErrorIs(t, err, cache.ErrNotFound, "pinning exempts from eviction, not expiry")
	})

	t.Run("delete removes pinned entries", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "pinned", cache.NewEntry([]byte("v"), time.Minute, true)))
		require.NoError(t, b.Delete(ctx, "pinned"))

		has, _ := b.Has(ctx, "pinned")
		require.False(t, has, "explicit delete overrides pinning")
	})
}

// --- LRU: Eviction Callback ---

func TestLRU_EvictCallback(t *testing.T) {
	t.Parallel()

	t.Run("called on LRU eviction", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(2))
		defer b.Close()

		var mu sync.Mutex
		evicted := make(map[string]string)
		b.SetEvictCallback(func(key string, e cache.Entry) {
			mu.Lock()
			evicted[key] = string(e.Value)
			mu.Unlock()
		})

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "c", cache.NewEntry([]byte("3"), time.Minute, false)))

		mu.Lock()
		require.Equal(t, "1", evicted["a"], "a should have been evicted with value 1")
		mu.Unlock()
	})

	t.Run("called on Delete", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		var evictedKey string
		b.SetEvictCallback(func(key string, _ cache.Entry) {
			evictedKey = key
		})

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "key", cache.NewEntry([]byte("value"), time.Minute, false)))
		require.NoError(t, b.Delete(ctx, "key"))

		require.Equal(t, "key", evictedKey)
	})

	t.Run("called on Clear", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU()
		defer b.Close()

		var mu sync.Mutex
		evicted := make(map[string]string)
		b.SetEvictCallback(func(key string, e cache.Entry) {
			mu.Lock()
			evicted[key] = string(e.Value)
			mu.Unlock()
		})

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "a", cache.NewEntry([]byte("1"), time.Minute, false)))
		require.NoError(t, b.Store(ctx, "b", cache.NewEntry([]byte("2"), time.Minute, false)))
		require.NoError(t, b.Clear(ctx))

		mu.Lock()
		require.Equal(t, "1", evicted["a"])
		require.Equal(t, "2", evicted["b"])
		mu.Unlock()
	})
}

// --- LRU: Janitor ---

func TestLRU_Janitor(t *testing.T) {
	t.Parallel()

	t.Run("removes expired entries periodically", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCleanupInterval(10 * time.Millisecond))
		defer b.Close()

		ctx := context.Background()
		require.NoError(t, b.Store(ctx, "short", cache.NewEntry([]byte("v"), 20*time.Millisecond, false)))
		require.NoError(t, b.Store(ctx, "long", cache.NewEntry([]byte("v"), time.Minute, false)))

		// Wait for TTL + cleanup cycle.
		time.Sleep(50 * time.Millisecond)

		has, _ := b.Has(ctx, "short")
		require.False(t, has, "short should have been cleaned up by janitor")

		has, _ = b.Has(ctx, "long")
		require.True(t, has, "long should still exist")
	})
}

// --- LRU: Concurrent Access ---

func TestLRU_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	t.Run("concurrent reads and writes", func(t *testing.T) {
		t.Parallel()

		b := cache.NewLRU(cache.WithCapacity(100))
		defer b.Close()

		ctx := context.Background()
		var wg sync.WaitGroup

		// Concurrent writers.
		for range 50 {
			wg.Go(func() {
				_ = b.Store(ctx, "key", cache.NewEntry([]byte("v"), time.Minute, false))
			})
		}

		// Concurrent readers.
		for range 50 {
			wg.Go(func() {
				_, _ = b.Fetch(ctx, "key")
			})
		}

		// Concurrent deleters.
		for range 10 {
			wg.Go(func() {
				_ = b.Delete(ctx, "key")
			})
		}

		wg.Wait()
	})
}
