// Package cachebox provides named cache instances over interchangeable
// backends: in-process LRU, bbolt-backed local files, Redis, and Postgres.
//
// Cachebox is designed around one rule: cache placement is configuration,
// not code. Application code asks a [Registry] for a cache by name and
// works against a single API; operators decide per deployment whether that
// name lives in memory, on disk, or on a shared store.
//
// # Quick Start
//
// Create a registry with cachebox.New(), resolve instances by name, and
// close the registry on shutdown:
//
//	reg, err := cachebox.New(ctx,
//	    cachebox.WithCaches(
//	        cachebox.CacheConfig{Name: "sessions", DefaultTTL: cachebox.Duration(30 * time.Minute)},
//	        cachebox.CacheConfig{Name: "objects", Capacity: 50000},
//	    ),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer reg.Close()
//
//	sessions := reg.MustCache("sessions")
//	sessions.Store(ctx, "token:abc", sess)
//
// # Configuration
//
// Registries are usually built from a YAML file so backend placement can
// change without a rebuild:
//
//	redis_url: redis://localhost:6379/0
//	local_dir: /var/lib/app/cache
//
//	default:
//	  backend: lru
//	  capacity: 10000
//
//	caches:
//	  - name: sessions
//	    backend: redis
//	    default_ttl: 30m
//	  - name: objects
//	    backend: local
//
//	cfg, err := cachebox.LoadConfig("cachebox.yaml")
//	reg, err := cachebox.New(ctx, cachebox.WithConfig(cfg))
//
// Asking for a name that was never configured returns a fresh instance on
// the default template, so code can address caches ad hoc while operators
// decide placement later. Disable this with [WithoutFallback].
//
// # Typed Access
//
// Values are marshaled to JSON by default. The generic helpers avoid
// manual decoding:
//
//	user, err := cachebox.Fetch[User](ctx, c, "user:42")
//
//	user, err := cachebox.GetOrStore(ctx, c, "user:42",
//	    func(ctx context.Context) (User, time.Duration, error) {
//	        u, err := repo.FindUser(ctx, 42)
//	        return u, 5 * time.Minute, err
//	    })
//
// # Errors
//
// A miss is the only condition reported as [ErrNotFound]; backend trouble
// surfaces as [ErrUnavailable] or [ErrTimeout] so callers can tell "not
// cached" from "cache is down":
//
//	err := c.Fetch(ctx, "user:42", &user)
//	switch {
//	case errors.Is(err, cachebox.ErrNotFound):
//	    // load from source
//	case errors.Is(err, cachebox.ErrUnavailable):
//	    // degrade: skip the cache this request
//	}
//
// # Escape Hatch
//
// For raw byte access or a registry-free setup, use the
// [github.com/dmitrymomot/cachebox/pkg/cache] package directly:
//
//	backend := cache.NewLRU(cache.WithCapacity(1024))
//	backend.Store(ctx, "k", cache.NewEntry([]byte("v"), time.Minute, false))
package cachebox
