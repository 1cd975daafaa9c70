package middlewares_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachebox"
	"github.com/dmitrymomot/cachebox/middlewares"
)

// newPageCache builds a throwaway in-memory cache instance.
func newPageCache(t *testing.T) *cachebox.Cache {
	t.Helper()

	reg, err := cachebox.New(context.Background(),
		cachebox.WithCaches(cachebox.CacheConfig{Name: "pages"}))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, reg.Close()) })

	return reg.MustCache("pages")
}

// countingHandler writes a body that includes how many times it ran.
func countingHandler(calls *atomic.Int32) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		fmt.Fprintf(w, "hello %d", n)
	})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestResponseCache(t *testing.T) {
	t.Parallel()

	t.Run("serves the second request from cache", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := middlewares.ResponseCache(newPageCache(t))(countingHandler(&calls))

		first := get(t, h, "/pricing")
		require.Equal(t, http.StatusOK, first.Code)
		require.Equal(t, "hello 1", first.Body.String())
		require.Equal(t, "MISS", first.Header().Get("X-Cache"))

		second := get(t, h, "/pricing")
		require.Equal(t, http.StatusOK, second.Code)
		require.Equal(t, "hello 1", second.Body.String())
		require.Equal(t, "HIT", second.Header().Get("X-Cache"))

		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("treats different query strings as different pages", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := middlewares.ResponseCache(newPageCache(t))(countingHandler(&calls))

		require.Equal(t, "hello 1", get(t, h, "/search?q=go").Body.String())
		require.Equal(t, "hello 2", get(t, h, "/search?q=rust").Body.String())
		require.Equal(t, "hello 1", get(t, h, "/search?q=go").Body.String())
	})

	t.Run("skips non-GET requests", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := middlewares.ResponseCache(newPageCache(t))(countingHandler(&calls))

		for range 2 {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submit", nil))
			require.Empty(t, rec.Header().Get("X-Cache"))
		}
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("bypasses authorized requests", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := middlewares.ResponseCache(newPageCache(t))(countingHandler(&calls))

		for range 2 {
			req := httptest.NewRequest(http.MethodGet, "/account", nil)
			req.Header.Set("Authorization", "Bearer token")
			h.ServeHTTP(httptest.NewRecorder(), req)
		}
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("does not cache error responses", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := middlewares.ResponseCache(newPageCache(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		require.Equal(t, http.StatusInternalServerError, get(t, h, "/broken").Code)
		require.Equal(t, http.StatusInternalServerError, get(t, h, "/broken").Code)
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("never replays set-cookie headers", func(t *testing.T) {
		t.Parallel()

		h := middlewares.ResponseCache(newPageCache(t))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "secret"})
			w.Write([]byte("page"))
		}))

		first := get(t, h, "/")
		require.NotEmpty(t, first.Header().Get("Set-Cookie"))

		second := get(t, h, "/")
		require.Equal(t, "HIT", second.Header().Get("X-Cache"))
		require.Empty(t, second.Header().Get("Set-Cookie"))
	})

	t.Run("skips bodies over the size limit", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := middlewares.ResponseCache(newPageCache(t),
			middlewares.WithMaxBodySize(4),
		)(countingHandler(&calls))

		get(t, h, "/big")
		get(t, h, "/big")
		require.Equal(t, int32(2), calls.Load())
	})

	t.Run("honors a custom key function", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := middlewares.ResponseCache(newPageCache(t),
			middlewares.WithCacheKey(func(r *http.Request) string { return r.URL.Path }),
		)(countingHandler(&calls))

		require.Equal(t, "hello 1", get(t, h, "/feed?page=1").Body.String())
		require.Equal(t, "hello 1", get(t, h, "/feed?page=2").Body.String())
		require.Equal(t, int32(1), calls.Load())
	})

	t.Run("expires cached responses after the TTL", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		h := middlewares.ResponseCache(newPageCache(t),
			middlewares.WithResponseTTL(30*time.Millisecond),
		)(countingHandler(&calls))

		require.Equal(t, "MISS", get(t, h, "/news").Header().Get("X-Cache"))
		time.Sleep(60 * time.Millisecond)
		require.Equal(t, "MISS", get(t, h, "/news").Header().Get("X-Cache"))
		require.Equal(t, int32(2), calls.Load())
	})
}
