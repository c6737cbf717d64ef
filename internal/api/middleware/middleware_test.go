package middleware_test

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/cache"
	"github.com/musemate/backend/internal/api/middleware"
	redisclient "github.com/musemate/backend/internal/infrastructure/clients/redis"
)

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	})
}

func TestRateLimiter(t *testing.T) {
	handler := middleware.NewRateLimiter(0.001, 2).Middleware(okHandler(`{}`))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/functions/web-search", nil)
		req.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))

	// Other clients have their own bucket
	assert.Equal(t, http.StatusOK, send("10.0.0.2"))
}

func TestRateLimiter_ForwardedFor(t *testing.T) {
	send := func(handler http.Handler, remote, forwarded, realIP string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = remote
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		if realIP != "" {
			req.Header.Set("X-Real-IP", realIP)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("behind a trusted proxy", func(t *testing.T) {
		handler := middleware.NewRateLimiter(0.001, 1, "127.0.0.1", "10.0.0.0/8").Middleware(okHandler(`{}`))

		assert.Equal(t, http.StatusOK, send(handler, "127.0.0.1:1000", "203.0.113.7, 10.0.0.1", ""))
		assert.Equal(t, http.StatusTooManyRequests, send(handler, "127.0.0.1:1001", "203.0.113.7, 10.0.0.1", ""))
		// A client-supplied leftmost entry does not buy a fresh bucket
		assert.Equal(t, http.StatusTooManyRequests, send(handler, "127.0.0.1:1002", "198.51.100.1, 203.0.113.7", ""))
		assert.Equal(t, http.StatusOK, send(handler, "127.0.0.1:1003", "", "198.51.100.9"))
	})

	t.Run("spoofed headers from untrusted peers are ignored", func(t *testing.T) {
		handler := middleware.NewRateLimiter(0.001, 1).Middleware(okHandler(`{}`))

		assert.Equal(t, http.StatusOK, send(handler, "192.0.2.5:1000", "203.0.113.1", ""))
		assert.Equal(t, http.StatusTooManyRequests, send(handler, "192.0.2.5:1001", "203.0.113.2", "203.0.113.3"))
	})

	t.Run("invalid proxy entries are skipped", func(t *testing.T) {
		handler := middleware.NewRateLimiter(0.001, 1, "not-an-ip", "10.0.0.0/33").Middleware(okHandler(`{}`))

		assert.Equal(t, http.StatusOK, send(handler, "10.1.1.1:1000", "203.0.113.1", ""))
		assert.Equal(t, http.StatusTooManyRequests, send(handler, "10.1.1.1:1001", "203.0.113.2", ""))
	})

	t.Run("limited responses carry a json error", func(t *testing.T) {
		handler := middleware.NewRateLimiter(0.001, 1).Middleware(okHandler(`{}`))
		send(handler, "192.0.2.9:1000", "", "")

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.9:1001"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.JSONEq(t, `{"error":"rate limit exceeded, try again later"}`, w.Body.String())
	})
}

func TestCORS(t *testing.T) {
	handler := middleware.CORS([]string{"http://localhost:5173"})(okHandler(`{}`))

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/museums", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	wildcard := middleware.CORS([]string{"*"})(okHandler(`{}`))
	w = httptest.NewRecorder()
	wildcard.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/museums", nil))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCacheMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	provider := cache.NewRedisAdapter(redisclient.NewFromAddr(mr.Addr()))

	var calls int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"museums":[]}`))
	})
	handler := middleware.NewCacheMiddleware(provider, nil, middleware.CacheRule{Prefix: "/api/museums", TTL: time.Minute}).Middleware(next)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	first := get("/api/museums?city=Pune")
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	second := get("/api/museums?city=Pune")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, `{"museums":[]}`, second.Body.String())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	get("/api/museums?city=Mumbai")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))

	// Uncached prefixes always reach the handler
	get("/api/chat/sessions/abc")
	get("/api/chat/sessions/abc")
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
}

func TestResponseOptimization(t *testing.T) {
	handler := middleware.ResponseOptimization(okHandler(`{"status":"ok"}`))

	req := httptest.NewRequest(http.MethodGet, "/api/museums", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	etag := w.Header().Get("ETag")
	require.NotEmpty(t, etag)

	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	body, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, string(body))

	req = httptest.NewRequest(http.MethodGet, "/api/museums", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("If-None-Match", etag)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotModified, w.Code)
}
