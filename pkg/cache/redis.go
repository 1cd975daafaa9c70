package cache

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis is a backend on a Redis server or cluster. Expiry is delegated to
// Redis natively via SET with an expiration, so entries vanish server-side
// without any sweeping on our end.
//
// The Pinned flag has no effect here: Redis applies its own eviction policy
// and this backend does not fight it.
type Redis struct {
	client redis.UniversalClient
	opts   *redisOptions
}

// NewRedis creates a Redis-backed cache around an existing client.
// The client should be obtained from pkg/redis.Open or pkg/redis.MustOpen;
// its lifecycle stays with the caller.
//
// Example:
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	b := cache.NewRedis(client,
//	    cache.WithRedisPrefix("sessions"),
//	    cache.WithRedisOperationTimeout(2 * time.Second),
//	)
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	o := defaultRedisOptions()
	for _, opt := range opts {
		opt(o)
	}

	return &Redis{
		client: client,
		opts:   o,
	}
}

// Store writes the entry's value bytes under key. A positive TTL becomes a
// native Redis expiration; zero stores without one.
func (r *Redis) Store(ctx context.Context, key string, e Entry) error {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	// Redis interprets 0 as no expiration, matching our "zero means never".
	ttl := max(e.TTL, 0)

	return mapRedisErr(r.client.Set(ctx, r.prefixedKey(key), e.Value, ttl).Err())
}

// Fetch returns the value bytes for key. Returns ErrNotFound when the key
// does not exist or Redis has already expired it.
func (r *Redis) Fetch(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	data, err := r.client.Get(ctx, r.prefixedKey(key)).Bytes()
	if err != nil {
		return nil, mapRedisErr(err)
	}

	return data, nil
}

// Has checks whether a key exists without fetching its value.
func (r *Redis) Has(ctx context.Context, key string) (bool, error) {
	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	n, err := r.client.Exists(ctx, r.prefixedKey(key)).Result()
	if err != nil {
		return false, mapRedisErr(err)
	}

	return n > 0, nil
}

// Delete removes the given keys with a single DEL, which Redis executes
// atomically across all of them.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ctx, cancel := r.opCtx(ctx)
	defer cancel()

	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = r.prefixedKey(key)
	}

	return mapRedisErr(r.client.Del(ctx, prefixed...).Err())
}

// Clear removes all entries under the configured prefix using SCAN, which
// does not block the server. Without a prefix it falls back to FLUSHDB and
// wipes the whole logical database.
func (r *Redis) Clear(ctx context.Context) error {
	if r.opts.prefix == "" {
		ctx, cancel := r.opCtx(ctx)
		defer cancel()
		return mapRedisErr(r.client.FlushDB(ctx).Err())
	}
	return r.clearByPrefix(ctx)
}

// Keys returns the logical keys under the configured prefix, collected via
// SCAN and stripped of the prefix.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	pattern := "*"
	strip := ""
	if r.opts.prefix != "" {
		pattern = r.opts.prefix + ":*"
		strip = r.opts.prefix + ":"
	}

	var (
		out    []string
		cursor uint64
	)
	for {
		scanCtx, cancel := r.opCtx(ctx)
		keys, nextCursor, err := r.client.Scan(scanCtx, cursor, pattern, scanBatchSize).Result()
		cancel()
		if err != nil {
			return nil, mapRedisErr(err)
		}

		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, strip))
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return out, nil
}

// Close is a no-op. The Redis client lifecycle is managed separately by the
// caller (via pkg/redis.Shutdown).
func (r *Redis) Close() error {
	return nil
}

// prefixedKey returns the full Redis key with prefix.
func (r *Redis) prefixedKey(key string) string {
	if r.opts.prefix == "" {
		return key
	}
	return r.opts.prefix + ":" + key
}

const scanBatchSize = 100

// clearByPrefix removes all keys matching the configured prefix using SCAN.
func (r *Redis) clearByPrefix(ctx context.Context) error {
	pattern := r.opts.prefix + ":*"
	var cursor uint64

	for {
		// One timeout per round trip: a large keyspace takes many trips and
		// must not be bounded by a single operation budget.
		batchCtx, cancel := r.opCtx(ctx)
		keys, nextCursor, err := r.client.Scan(batchCtx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			cancel()
			return mapRedisErr(err)
		}

		if len(keys) > 0 {
			if err := r.client.Del(batchCtx, keys...).Err(); err != nil {
				cancel()
				return mapRedisErr(err)
			}
		}
		cancel()

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// opCtx applies the configured per-operation timeout, if any.
func (r *Redis) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.opts.opTimeout)
}

// mapRedisErr translates transport errors into the package sentinels: a
// missing key is ErrNotFound, deadline and network timeouts are ErrTimeout,
// anything else from the server or socket is ErrUnavailable. A miss is
// never reported as a backend failure, and vice versa.
func mapRedisErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, redis.Nil):
		return ErrNotFound
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrTimeout, err)
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return errors.Join(ErrTimeout, err)
	}

	return errors.Join(ErrUnavailable, err)
}

var _ Backend = (*Redis)(nil)
