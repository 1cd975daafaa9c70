package middlewares

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/cachebox"
)

// DefaultResponseTTL is the default lifetime of a cached response.
const DefaultResponseTTL = time.Minute

// DefaultMaxBodySize is the largest response body the middleware will
// cache. Bigger responses are served normally and skipped.
const DefaultMaxBodySize = 1 << 20 // 1 MiB

// ResponseCacheConfig configures the response cache middleware.
type ResponseCacheConfig struct {
	TTL         time.Duration
	MaxBodySize int
	KeyFunc     func(*http.Request) string
}

// ResponseCacheOption configures ResponseCacheConfig.
type ResponseCacheOption func(*ResponseCacheConfig)

// WithResponseTTL sets how long cached responses live.
func WithResponseTTL(ttl time.Duration) ResponseCacheOption {
	return func(cfg *ResponseCacheConfig) {
		if ttl > 0 {
			cfg.TTL = ttl
		}
	}
}

// WithMaxBodySize caps the response body size eligible for caching.
func WithMaxBodySize(n int) ResponseCacheOption {
	return func(cfg *ResponseCacheConfig) {
		if n > 0 {
			cfg.MaxBodySize = n
		}
	}
}

// WithCacheKey overrides how the cache key is derived from a request.
// The default is the request path plus the raw query.
func WithCacheKey(fn func(*http.Request) string) ResponseCacheOption {
	return func(cfg *ResponseCacheConfig) {
		if fn != nil {
			cfg.KeyFunc = fn
		}
	}
}

// cachedResponse is the stored form of one response.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// ResponseCache returns middleware that caches successful GET responses
// in the given cache. Hits are served without invoking the handler and
// marked with an "X-Cache: HIT" header.
//
// Requests carrying an Authorization header bypass the cache, and
// Set-Cookie headers are never stored, so per-user responses stay
// per-user. When the cache backend is unreachable the middleware degrades
// to a pass-through instead of failing the request.
//
// Example:
//
//	r := chi.NewRouter()
//	r.With(middlewares.ResponseCache(reg.MustCache("pages"),
//	    middlewares.WithResponseTTL(5*time.Minute),
//	)).Get("/pricing", pricingHandler)
func ResponseCache(c *cachebox.Cache, opts ...ResponseCacheOption) func(http.Handler) http.Handler {
	cfg := &ResponseCacheConfig{
		TTL:         DefaultResponseTTL,
		MaxBodySize: DefaultMaxBodySize,
		KeyFunc:     requestKey,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.Header.Get("Authorization") != "" {
				next.ServeHTTP(w, r)
				return
			}

			key := cfg.KeyFunc(r)

			var cached cachedResponse
			err := c.Fetch(r.Context(), key, &cached)
			if err == nil {
				serveCached(w, cached)
				return
			}
			if !errors.Is(err, cachebox.ErrNotFound) {
				// Backend trouble: serve the request, skip caching.
				next.ServeHTTP(w, r)
				return
			}

			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK, limit: cfg.MaxBodySize}
			rec.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(rec, r)

			if rec.status != http.StatusOK || rec.over {
				return
			}

			header := rec.Header().Clone()
			header.Del("Set-Cookie")
			header.Del("X-Cache")

			// A failed store only costs the next request a recompute.
			_, _ = c.Store(r.Context(), key, cachedResponse{
				Status: rec.status,
				Header: header,
				Body:   rec.buf.Bytes(),
			}, cachebox.WithTTL(cfg.TTL))
		})
	}
}

// requestKey is the default cache key: path plus raw query.
func requestKey(r *http.Request) string {
	if r.URL.RawQuery == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + r.URL.RawQuery
}

// serveCached writes a stored response.
func serveCached(w http.ResponseWriter, cached cachedResponse) {
	for k, vv := range cached.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("X-Cache", "HIT")
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}

// responseRecorder tees the response body into a buffer while it streams
// to the client, up to a size limit.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	buf         bytes.Buffer
	limit       int
	over        bool
}

func (r *responseRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}
	if !r.over {
		if r.buf.Len()+len(p) > r.limit {
			r.over = true
			r.buf.Reset()
		} else {
			r.buf.Write(p)
		}
	}
	return r.ResponseWriter.Write(p)
}
