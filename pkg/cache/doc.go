// Package cache provides the storage backends behind cachebox: in-memory
// LRU, a persistent local file, Redis, and PostgreSQL.
//
// Every backend implements the same [Backend] interface and stores opaque
// [Entry] records, so the higher-level cache instances can swap storage
// per configuration without changing call sites. Most applications should
// use the root cachebox package instead of this one; reach for pkg/cache
// directly when embedding a single backend without the registry.
//
// # Interface
//
// [Backend] works on raw bytes:
//
//   - Store(ctx, key, entry) error: write an entry
//   - Fetch(ctx, key) ([]byte, error): read value bytes
//   - Has(ctx, key) (bool, error): check existence
//   - Delete(ctx, keys...) error: remove keys atomically
//   - Clear(ctx) error: remove all entries in this backend's namespace
//   - Keys(ctx) ([]string, error): snapshot of live keys
//   - Close() error: release resources
//
// An [Entry] carries its creation time and TTL. A zero TTL means the entry
// never expires; a positive TTL expires the entry once its age reaches the
// TTL. An expired entry behaves exactly like an absent one: Fetch returns
// [ErrNotFound], Has returns false, Keys omits it.
//
// # In-Memory LRU
//
// Use [NewLRU] for single-process caching bounded by entry count:
//
//	b := cache.NewLRU(
//	    cache.WithCapacity(10000),
//	    cache.WithCleanupInterval(30 * time.Second),
//	)
//	defer b.Close()
//
// Inserting beyond capacity evicts the least recently used entry; Fetch
// promotes the entry it returns. Entries stored with Pinned set are exempt
// from capacity eviction (but still honor their TTL), which suits small
// always-hot values like feature flags.
//
// # Persistent Local File
//
// Use [NewLocal] for a cache that survives restarts without any external
// service. Entries live in a single memory-mapped B+tree file
// ([go.etcd.io/bbolt]), locked for exclusive use by one process:
//
//	b, err := cache.NewLocal("/var/lib/app/cache.db")
//
// The file carries a format version tag; opening a file written by an
// incompatible version fails with [ErrRegionVersion] rather than
// misreading it.
//
// # Redis
//
// Use [NewRedis] for shared caching across processes. Expiry is delegated
// to Redis natively, and keys are namespaced with a prefix so several
// caches can share one database:
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	b := cache.NewRedis(client, cache.WithRedisPrefix("sessions"))
//
// # PostgreSQL
//
// Use [NewPostgres] when the deployment already runs Postgres and a cache
// table beats operating another service. Rows are scoped by a namespace
// column:
//
//	b, err := cache.NewPostgres(ctx, pool, cache.WithPostgresNamespace("objects"))
//
// # Concurrency
//
// All backends are safe for concurrent use by multiple goroutines. Each
// backend serializes structural mutations internally, so a reader never
// observes a half-applied mutation such as a partially completed multi-key
// Delete. When several goroutines store to the same key, the last store
// wins; the order of concurrent stores is unspecified.
//
// # Error Handling
//
// The package defines sentinel errors:
//
//   - [ErrNotFound]: key absent or expired; a miss, not a failure
//   - [ErrClosed]: operation on a closed backend
//   - [ErrUnavailable]: backing store unreachable or failing
//   - [ErrTimeout]: operation deadline exceeded
//   - [ErrRegionVersion]: persistent file has an incompatible format
//   - [ErrMarshal], [ErrUnmarshal]: value codec failures
//
// Use [errors.Is] to check:
//
//	data, err := b.Fetch(ctx, "key")
//	if errors.Is(err, cache.ErrNotFound) {
//	    // handle miss
//	}
//
// Backends never report a miss as a failure or a failure as a miss: a
// Redis connection error surfaces as [ErrUnavailable] or [ErrTimeout], so
// callers can distinguish "not cached" from "cache is down".
package cache
