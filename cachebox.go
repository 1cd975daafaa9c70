package cachebox

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/cachebox/internal"
	"github.com/dmitrymomot/cachebox/pkg/cache"
	"github.com/dmitrymomot/cachebox/pkg/logger"
)

// Type aliases - public API
type (
	// Registry owns a set of named cache instances built from configuration.
	Registry = internal.Registry

	// Cache is a named cache instance bound to one backend.
	Cache = internal.Cache

	// Config is the declarative registry configuration, typically loaded
	// from a YAML file.
	Config = internal.Config

	// CacheConfig declares a single cache instance.
	CacheConfig = internal.CacheConfig

	// Duration unmarshals YAML values like "90s" or "5m" into a duration.
	Duration = internal.Duration

	// Option configures the registry.
	Option = internal.Option

	// StoreOption configures a single Store call.
	StoreOption = internal.StoreOption

	// Backend is the byte-level storage contract cache instances sit on.
	// Use it to plug a custom store into a registry-free setup.
	Backend = cache.Backend

	// Entry is the stored unit a Backend deals in: payload bytes plus
	// lifetime metadata.
	Entry = cache.Entry

	// Marshaler converts values to and from the bytes a backend stores.
	Marshaler = cache.Marshaler

	// ContextExtractor extracts a slog attribute from context.
	// Used with logger.New to add request-scoped values to logs.
	ContextExtractor = logger.ContextExtractor
)

// Backend identifiers for [CacheConfig].
const (
	BackendLRU      = internal.BackendLRU
	BackendLocal    = internal.BackendLocal
	BackendRedis    = internal.BackendRedis
	BackendPostgres = internal.BackendPostgres
)

// DefaultCacheName is the instance name resolved when callers ask for a
// cache without naming one.
const DefaultCacheName = internal.DefaultCacheName

// JSONMarshaler is the default value codec, encoding with encoding/json.
var JSONMarshaler = cache.JSON

// Constructors

// New builds a registry and every cache instance it declares.
// Configuration errors and unreachable backends fail here, before the
// registry is ever used.
//
// Example:
//
//	reg, err := cachebox.New(ctx,
//	    cachebox.WithCaches(
//	        cachebox.CacheConfig{Name: "sessions", Backend: "redis"},
//	        cachebox.CacheConfig{Name: "objects", Capacity: 50000},
//	    ),
//	    cachebox.WithRedisClient(client),
//	)
//	defer reg.Close()
func New(ctx context.Context, opts ...Option) (*Registry, error) {
	return internal.New(ctx, opts...)
}

// LoadConfig reads and parses a YAML configuration file.
//
// Example:
//
//	cfg, err := cachebox.LoadConfig("cachebox.yaml")
//	reg, err := cachebox.New(ctx, cachebox.WithConfig(cfg))
func LoadConfig(path string) (Config, error) {
	return internal.LoadConfig(path)
}

// ParseConfig parses YAML configuration bytes. Unknown keys are rejected
// so typos fail at startup instead of silently falling back to defaults.
func ParseConfig(data []byte) (Config, error) {
	return internal.ParseConfig(data)
}

// Registry options

// WithConfig supplies the full declarative configuration.
func WithConfig(cfg Config) Option {
	return internal.WithConfig(cfg)
}

// WithCaches declares cache instances in code, appending to whatever
// WithConfig brought in.
func WithCaches(caches ...CacheConfig) Option {
	return internal.WithCaches(caches...)
}

// WithDefaultBackend sets the template for fallback instances created when
// an unconfigured name is requested. The template's Name is ignored.
//
// Example:
//
//	cachebox.WithDefaultBackend(cachebox.CacheConfig{
//	    Backend:  cachebox.BackendLRU,
//	    Capacity: 10000,
//	})
func WithDefaultBackend(tmpl CacheConfig) Option {
	return internal.WithDefaultBackend(tmpl)
}

// WithoutFallback disables fallback instances: asking for an unconfigured
// name returns ErrUnknownCache. Use this when every cache must be declared
// deliberately.
func WithoutFallback() Option {
	return internal.WithoutFallback()
}

// WithLogger sets the logger for registry lifecycle events.
// If nil, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithMarshaler overrides the value codec for every instance.
// Defaults to JSON.
func WithMarshaler(m Marshaler) Option {
	return internal.WithMarshaler(m)
}

// WithRedisClient injects an existing Redis client for redis caches.
// The caller keeps ownership; the registry will not close it.
func WithRedisClient(client goredis.UniversalClient) Option {
	return internal.WithRedisClient(client)
}

// WithPostgresPool injects an existing pool for postgres caches.
// The caller keeps ownership; the registry will not close it.
func WithPostgresPool(pool *pgxpool.Pool) Option {
	return internal.WithPostgresPool(pool)
}

// WithLocalDir sets the directory for local cache files. Each local cache
// without an explicit path gets <dir>/<name>.db.
func WithLocalDir(dir string) Option {
	return internal.WithLocalDir(dir)
}

// Store options

// WithTTL sets an explicit lifetime for the stored entry, overriding the
// cache's default TTL. Zero or negative means the entry never expires.
func WithTTL(ttl time.Duration) StoreOption {
	return internal.WithTTL(ttl)
}

// WithNoExpiry stores the entry without a lifetime, overriding the cache's
// default TTL.
func WithNoExpiry() StoreOption {
	return internal.WithNoExpiry()
}

// Pinned exempts the entry from capacity eviction on the lru backend.
// The entry still honors its TTL. Other backends ignore the flag.
func Pinned() StoreOption {
	return internal.Pinned()
}

// Cache errors for checking return values.
var (
	ErrNotFound      = cache.ErrNotFound
	ErrClosed        = cache.ErrClosed
	ErrUnavailable   = cache.ErrUnavailable
	ErrTimeout       = cache.ErrTimeout
	ErrRegionVersion = cache.ErrRegionVersion
	ErrMarshal       = cache.ErrMarshal
	ErrUnmarshal     = cache.ErrUnmarshal
)

// Registry errors for checking return values.
var (
	ErrInvalidConfig  = internal.ErrInvalidConfig
	ErrDuplicateCache = internal.ErrDuplicateCache
	ErrUnknownCache   = internal.ErrUnknownCache
	ErrRegistryClosed = internal.ErrRegistryClosed
)

// Fetch reads the value under key as a T. A missing or expired key returns
// ErrNotFound; backend failures surface as ErrUnavailable or ErrTimeout,
// never as a miss.
//
// Example:
//
//	user, err := cachebox.Fetch[User](ctx, c, "user:42")
func Fetch[T any](ctx context.Context, c *Cache, key string) (T, error) {
	return internal.Fetch[T](ctx, c, key)
}

// GetOrStore returns the cached value under key, computing and storing it
// on a miss. Concurrent callers for the same key share one computation, so
// an expensive fn runs once per flight, not once per caller.
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
	return internal.GetOrStore(ctx, c, key, fn)
}
