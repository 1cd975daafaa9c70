package cache

import "time"

const (
	defaultCapacity        = 10000
	defaultCleanupInterval = time.Minute
)

type lruOptions struct {
	capacity        int
	cleanupInterval time.Duration
}

// LRUOption configures the in-memory LRU backend.
type LRUOption func(*lruOptions)

func defaultLRUOptions() *lruOptions {
	return &lruOptions{
		capacity:        defaultCapacity,
		cleanupInterval: defaultCleanupInterval,
	}
}

// WithCapacity bounds the cache to n entries. Zero or negative disables the
// bound entirely, leaving expiry as the only way entries leave the cache.
func WithCapacity(n int) LRUOption {
	return func(o *lruOptions) {
		o.capacity = n
	}
}

// WithCleanupInterval sets how often the background janitor sweeps expired
// entries. Zero or negative disables the janitor; expired entries are then
// removed lazily on access.
func WithCleanupInterval(interval time.Duration) LRUOption {
	return func(o *lruOptions) {
		o.cleanupInterval = interval
	}
}
