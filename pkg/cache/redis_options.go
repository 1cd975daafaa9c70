package cache

import "time"

type redisOptions struct {
	prefix    string
	opTimeout time.Duration
}

// RedisOption configures the Redis backend.
type RedisOption func(*redisOptions)

func defaultRedisOptions() *redisOptions {
	return &redisOptions{}
}

// WithRedisPrefix namespaces all keys as "prefix:key". Clear and Keys then
// only see keys under the prefix, so multiple caches can share one Redis
// database without trampling each other.
func WithRedisPrefix(prefix string) RedisOption {
	return func(o *redisOptions) {
		o.prefix = prefix
	}
}

// WithRedisOperationTimeout bounds each Redis command with its own
// deadline, layered on top of whatever deadline the caller's context
// carries. Zero (the default) leaves timing entirely to the caller.
func WithRedisOperationTimeout(timeout time.Duration) RedisOption {
	return func(o *redisOptions) {
		o.opTimeout = timeout
	}
}
