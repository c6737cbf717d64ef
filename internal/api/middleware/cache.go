package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/infrastructure/observability"
)

const responseCachePrefix = "http:cache:"

// CacheRule maps a path prefix to how long its GET responses are cached
type CacheRule struct {
	Prefix string
	TTL    time.Duration
}

// DefaultCacheRules covers the read-only catalog endpoints. Chat, visits and
// the proxies are never cached here.
var DefaultCacheRules = []CacheRule{
	{Prefix: "/api/museums/search", TTL: 2 * time.Minute},
	{Prefix: "/api/museums", TTL: 10 * time.Minute},
	{Prefix: "/api/trips/plan", TTL: 5 * time.Minute},
	{Prefix: "/api/chat/menu", TTL: time.Hour},
}

// CacheMiddleware caches successful GET responses in the cache provider
type CacheMiddleware struct {
	cache   providers.CacheProvider
	rules   []CacheRule
	metrics *observability.Metrics
}

// NewCacheMiddleware creates a cache middleware; rules are matched in order
func NewCacheMiddleware(cache providers.CacheProvider, metrics *observability.Metrics, rules ...CacheRule) *CacheMiddleware {
	if len(rules) == 0 {
		rules = DefaultCacheRules
	}
	return &CacheMiddleware{cache: cache, rules: rules, metrics: metrics}
}

// Middleware returns the cache middleware handler
func (m *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || m.cache == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl, ok := m.ttlFor(r.URL.Path)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key := cacheKey(r)
		if cached, err := m.cache.Get(ctx, key); err == nil {
			observability.RecordCacheHit(ctx, m.metrics, "http")
			w.Header().Set("X-Cache", "HIT")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write(cached)
			return
		}

		observability.RecordCacheMiss(ctx, m.metrics, "http")
		w.Header().Set("X-Cache", "MISS")

		recorder := &bodyRecorder{ResponseWriter: w, statusCode: http.StatusOK, body: &bytes.Buffer{}}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode == http.StatusOK && recorder.body.Len() > 0 {
			if err := m.cache.Set(ctx, key, recorder.body.Bytes(), ttl); err != nil {
				observability.LoggerFromContext(ctx).Warn().Err(err).Str("path", r.URL.Path).Msg("failed to cache response")
			}
		}
	})
}

func (m *CacheMiddleware) ttlFor(path string) (time.Duration, bool) {
	for _, rule := range m.rules {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.TTL, rule.TTL > 0
		}
	}
	return 0, false
}

// cacheKey hashes the path and raw query
func cacheKey(r *http.Request) string {
	key := r.URL.Path
	if r.URL.RawQuery != "" {
		key += "?" + r.URL.RawQuery
	}
	hash := sha256.Sum256([]byte(key))
	return responseCachePrefix + hex.EncodeToString(hash[:])
}

// bodyRecorder tees the response body so it can be cached
type bodyRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
	written    bool
}

func (r *bodyRecorder) WriteHeader(statusCode int) {
	if !r.written {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.written = true
	}
}

func (r *bodyRecorder) Write(data []byte) (int, error) {
	if !r.written {
		r.WriteHeader(http.StatusOK)
	}
	r.body.Write(data)
	return r.ResponseWriter.Write(data)
}
