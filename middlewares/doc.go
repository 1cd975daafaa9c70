// Package middlewares provides HTTP middleware built on cachebox.
//
// The middleware is framework-agnostic: it has the standard
// func(http.Handler) http.Handler shape, so it works with chi, the
// standard mux, or any router that composes plain handlers.
//
// # Response Caching
//
// ResponseCache stores successful GET responses in a cache instance and
// serves repeats without touching the handler:
//
//	reg, _ := cachebox.New(ctx,
//	    cachebox.WithCaches(cachebox.CacheConfig{Name: "pages"}),
//	)
//
//	r := chi.NewRouter()
//	r.With(middlewares.ResponseCache(reg.MustCache("pages"),
//	    middlewares.WithResponseTTL(5*time.Minute),
//	)).Get("/pricing", pricingHandler)
//
// Cached hits carry an "X-Cache: HIT" header. Requests with an
// Authorization header bypass the cache entirely, and Set-Cookie headers
// are never stored.
package middlewares
