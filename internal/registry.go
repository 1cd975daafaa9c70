package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/cachebox/pkg/cache"
	"github.com/dmitrymomot/cachebox/pkg/db"
	"github.com/dmitrymomot/cachebox/pkg/logger"
	"github.com/dmitrymomot/cachebox/pkg/redis"
)

// DefaultCacheName is the instance name used when callers ask for a cache
// without naming one.
const DefaultCacheName = "default"

// Registry owns a set of named cache instances built from configuration.
// It is created once at startup, passed around by reference, and closed on
// shutdown; it never consults configuration again after New returns.
//
// Asking for a name that was never configured returns a fresh instance on
// the default backend template (unless WithoutFallback), so application
// code can address caches ad hoc while operators decide placement in
// config.
type Registry struct {
	mu     sync.RWMutex
	caches map[string]*Cache
	closed bool

	cfg       Config
	fallback  bool
	marshaler cache.Marshaler
	log       *slog.Logger
	flight    singleflight.Group

	// Shared connections. Owned ones were dialed here and are closed by
	// Close; injected ones belong to the caller.
	redisClient goredis.UniversalClient
	pool        *pgxpool.Pool
	ownedRedis  []goredis.UniversalClient
	ownedPools  []*pgxpool.Pool
}

// New builds a registry and every cache it declares. Configuration errors
// and unreachable backends fail here, before the registry is ever used;
// anything already built is torn down on the way out.
//
// Example:
//
//	cfg, err := cachebox.LoadConfig("cachebox.yaml")
//	reg, err := cachebox.New(ctx, cachebox.WithConfig(cfg))
//	defer reg.Close()
func New(ctx context.Context, opts ...Option) (*Registry, error) {
	r := &Registry{
		caches:    make(map[string]*Cache),
		fallback:  true,
		marshaler: cache.JSON,
		log:       logger.NewNope(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if err := r.cfg.Validate(); err != nil {
		return nil, err
	}

	if err := r.dialShared(ctx); err != nil {
		return nil, err
	}

	if r.cfg.Default != nil {
		if err := r.checkTemplate(*r.cfg.Default); err != nil {
			r.teardown()
			return nil, err
		}
	}

	for _, cc := range r.cfg.Caches {
		c, err := r.buildCache(ctx, cc)
		if err != nil {
			r.teardown()
			return nil, err
		}
		r.caches[cc.Name] = c
		r.log.DebugContext(ctx, "cache instance ready", "name", cc.Name, "backend", cc.kind())
	}

	return r, nil
}

// Cache returns the instance registered under name, or a fallback instance
// on the default backend when the name was never configured. An empty name
// resolves to "default". Fallback instances are built once and memoized.
func (r *Registry) Cache(name string) (*Cache, error) {
	if name == "" {
		name = DefaultCacheName
	}

	r.mu.RLock()
	c, ok := r.caches[name]
	closed := r.closed
	r.mu.RUnlock()

	if closed {
		return nil, ErrRegistryClosed
	}
	if ok {
		return c, nil
	}
	if !r.fallback {
		return nil, errors.Join(ErrUnknownCache, fmt.Errorf("cache %q is not configured", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	// Another caller may have built it while we waited for the lock.
	if c, ok := r.caches[name]; ok {
		return c, nil
	}

	tmpl := CacheConfig{}
	if r.cfg.Default != nil {
		tmpl = *r.cfg.Default
	}
	tmpl.Name = name

	c, err := r.buildCache(context.Background(), tmpl)
	if err != nil {
		return nil, err
	}
	r.caches[name] = c
	r.log.Debug("fallback cache created", "name", name, "backend", tmpl.kind())

	return c, nil
}

// MustCache is Cache for startup wiring: it panics instead of returning an
// error.
func (r *Registry) MustCache(name string) *Cache {
	c, err := r.Cache(name)
	if err != nil {
		panic(err)
	}
	return c
}

// Names returns the resolved cache names in sorted order, fallback
// instances included.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.caches))
	for name := range r.caches {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Close shuts down every cache instance, then the connections the registry
// dialed itself. Injected clients and pools stay open for their owners.
// Close is idempotent; resolving caches afterwards returns
// ErrRegistryClosed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for name, c := range r.caches {
		if err := c.backend.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache %q: %w", name, err))
		}
	}
	for _, client := range r.ownedRedis {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, pool := range r.ownedPools {
		pool.Close()
	}

	r.log.Debug("cache registry closed", "caches", len(r.caches))

	return errors.Join(errs...)
}

// dialShared opens the registry-wide connections declared in config,
// unless the caller already injected them.
func (r *Registry) dialShared(ctx context.Context) error {
	if r.cfg.RedisURL != "" && r.redisClient == nil {
		client, err := redis.Open(ctx, r.cfg.RedisURL)
		if err != nil {
			return errors.Join(cache.ErrUnavailable, err)
		}
		r.redisClient = client
		r.ownedRedis = append(r.ownedRedis, client)
	}

	if r.cfg.PostgresURL != "" && r.pool == nil {
		pool, err := db.Connect(ctx, db.Config{ConnectionString: r.cfg.PostgresURL})
		if err != nil {
			r.teardown()
			return errors.Join(cache.ErrUnavailable, err)
		}
		r.pool = pool
		r.ownedPools = append(r.ownedPools, pool)
	}

	return nil
}

// teardown closes everything built so far after a failed New.
func (r *Registry) teardown() {
	for _, c := range r.caches {
		_ = c.backend.Close()
	}
	for _, client := range r.ownedRedis {
		_ = client.Close()
	}
	for _, pool := range r.ownedPools {
		pool.Close()
	}
}

// checkTemplate verifies the fallback template can actually produce
// instances, so a broken template fails at New instead of on the first
// unknown name.
func (r *Registry) checkTemplate(tmpl CacheConfig) error {
	switch tmpl.kind() {
	case BackendLocal:
		if tmpl.Path != "" {
			return errors.Join(ErrInvalidConfig,
				errors.New("default template: local backend cannot use a fixed path, set local_dir instead"))
		}
		if r.cfg.LocalDir == "" {
			return errors.Join(ErrInvalidConfig,
				errors.New("default template: local backend needs local_dir"))
		}
	case BackendRedis:
		if r.redisClient == nil && tmpl.RedisURL == "" {
			return errors.Join(ErrInvalidConfig,
				errors.New("default template: redis backend needs redis_url or an injected client"))
		}
	case BackendPostgres:
		if r.pool == nil && tmpl.PostgresURL == "" {
			return errors.Join(ErrInvalidConfig,
				errors.New("default template: postgres backend needs postgres_url or an injected pool"))
		}
	}
	return nil
}

// buildCache assembles one instance: backend first, then the facade that
// carries the marshaler and TTL policy.
func (r *Registry) buildCache(ctx context.Context, cc CacheConfig) (*Cache, error) {
	backend, err := r.buildBackend(ctx, cc)
	if err != nil {
		return nil, err
	}

	return &Cache{
		name:       cc.Name,
		backend:    backend,
		marshaler:  r.marshaler,
		defaultTTL: cc.DefaultTTL.Std(),
		flight:     &r.flight,
	}, nil
}

// buildBackend constructs the storage for one cache. The cache name
// doubles as the namespace on shared stores: a Redis key prefix, a
// Postgres namespace column, or a per-name file for the local backend.
func (r *Registry) buildBackend(ctx context.Context, cc CacheConfig) (cache.Backend, error) {
	switch cc.kind() {
	case BackendLRU:
		var opts []cache.LRUOption
		if cc.Capacity != 0 {
			opts = append(opts, cache.WithCapacity(cc.Capacity))
		}
		if cc.CleanupInterval != 0 {
			opts = append(opts, cache.WithCleanupInterval(cc.CleanupInterval.Std()))
		}
		return cache.NewLRU(opts...), nil

	case BackendLocal:
		path := cc.Path
		if path == "" {
			if r.cfg.LocalDir == "" {
				return nil, errors.Join(ErrInvalidConfig,
					fmt.Errorf("cache %q: local backend needs a path or local_dir", cc.Name))
			}
			path = filepath.Join(r.cfg.LocalDir, cc.Name+".db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Join(cache.ErrUnavailable,
				fmt.Errorf("cache %q: %w", cc.Name, err))
		}
		var opts []cache.LocalOption
		if cc.CleanupInterval != 0 {
			opts = append(opts, cache.WithLocalCleanupInterval(cc.CleanupInterval.Std()))
		}
		return cache.NewLocal(path, opts...)

	case BackendRedis:
		client := r.redisClient
		if cc.RedisURL != "" {
			dedicated, err := redis.Open(ctx, cc.RedisURL)
			if err != nil {
				return nil, errors.Join(cache.ErrUnavailable,
					fmt.Errorf("cache %q: %w", cc.Name, err))
			}
			r.ownedRedis = append(r.ownedRedis, dedicated)
			client = dedicated
		}
		if client == nil {
			return nil, errors.Join(ErrInvalidConfig,
				fmt.Errorf("cache %q: redis backend needs redis_url or an injected client", cc.Name))
		}
		opts := []cache.RedisOption{cache.WithRedisPrefix(cc.Name)}
		if cc.OperationTimeout > 0 {
			opts = append(opts, cache.WithRedisOperationTimeout(cc.OperationTimeout.Std()))
		}
		return cache.NewRedis(client, opts...), nil

	case BackendPostgres:
		pool := r.pool
		if cc.PostgresURL != "" {
			dedicated, err := db.Connect(ctx, db.Config{ConnectionString: cc.PostgresURL})
			if err != nil {
				return nil, errors.Join(cache.ErrUnavailable,
					fmt.Errorf("cache %q: %w", cc.Name, err))
			}
			r.ownedPools = append(r.ownedPools, dedicated)
			pool = dedicated
		}
		if pool == nil {
			return nil, errors.Join(ErrInvalidConfig,
				fmt.Errorf("cache %q: postgres backend needs postgres_url or an injected pool", cc.Name))
		}
		opts := []cache.PostgresOption{cache.WithPostgresNamespace(cc.Name)}
		if cc.Table != "" {
			opts = append(opts, cache.WithPostgresTable(cc.Table))
		}
		if cc.OperationTimeout > 0 {
			opts = append(opts, cache.WithPostgresOperationTimeout(cc.OperationTimeout.Std()))
		}
		if cc.CleanupInterval != 0 {
			opts = append(opts, cache.WithPostgresCleanupInterval(cc.CleanupInterval.Std()))
		}
		return cache.NewPostgres(ctx, pool, opts...)

	default:
		return nil, errors.Join(ErrInvalidConfig,
			fmt.Errorf("cache %q: unknown backend %q", cc.Name, cc.Backend))
	}
}
