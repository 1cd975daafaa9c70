package internal

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/cachebox/pkg/cache"
)

// Option configures the registry.
type Option func(*Registry)

// WithConfig supplies the full declarative configuration, typically loaded
// from a YAML file.
//
// Example:
//
//	cfg, err := cachebox.LoadConfig("cachebox.yaml")
//	reg, err := cachebox.New(ctx, cachebox.WithConfig(cfg))
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		r.cfg = cfg
	}
}

// WithCaches declares cache instances in code, appending to whatever
// WithConfig brought in.
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
func WithCaches(caches ...CacheConfig) Option {
	return func(r *Registry) {
		r.cfg.Caches = append(r.cfg.Caches, caches...)
	}
}

// WithDefaultBackend sets the template for fallback instances created when
// an unconfigured name is requested. The template's Name is ignored.
func WithDefaultBackend(tmpl CacheConfig) Option {
	return func(r *Registry) {
		r.cfg.Default = &tmpl
	}
}

// WithoutFallback disables fallback instances: asking for an unconfigured
// name returns ErrUnknownCache. Use this when every cache must be declared
// deliberately.
func WithoutFallback() Option {
	return func(r *Registry) {
		r.fallback = false
	}
}

// WithLogger sets the logger for registry lifecycle events. The default
// discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMarshaler overrides the value codec for every instance. The default
// is JSON.
func WithMarshaler(m cache.Marshaler) Option {
	return func(r *Registry) {
		if m != nil {
			r.marshaler = m
		}
	}
}

// WithRedisClient injects an existing Redis client for redis caches. The
// caller keeps ownership; the registry will not close it.
func WithRedisClient(client goredis.UniversalClient) Option {
	return func(r *Registry) {
		r.redisClient = client
	}
}

// WithPostgresPool injects an existing pool for postgres caches. The
// caller keeps ownership; the registry will not close it.
func WithPostgresPool(pool *pgxpool.Pool) Option {
	return func(r *Registry) {
		r.pool = pool
	}
}

// WithLocalDir sets the directory for local cache files, equivalent to the
// local_dir config key. Each local cache without an explicit path gets
// <dir>/<name>.db.
func WithLocalDir(dir string) Option {
	return func(r *Registry) {
		if dir != "" {
			r.cfg.LocalDir = dir
		}
	}
}
