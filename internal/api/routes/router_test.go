package routes_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/memory"
	"github.com/musemate/backend/internal/adapters/providers/geolocation"
	"github.com/musemate/backend/internal/adapters/providers/websearch"
	"github.com/musemate/backend/internal/adapters/session"
	"github.com/musemate/backend/internal/api/handlers"
	"github.com/musemate/backend/internal/api/middleware"
	"github.com/musemate/backend/internal/api/routes"
	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/infrastructure/observability"
)

func newTestRouter(t *testing.T, limiter *middleware.RateLimiter) http.Handler {
	t.Helper()
	repo := memory.NewMuseumRepository([]*entities.Museum{
		{ID: "kelkar", Name: "Raja Dinkar Kelkar Museum", City: "Pune", Type: "History"},
		{ID: "csmvs", Name: "Chhatrapati Shivaji Maharaj Vastu Sangrahalaya", City: "Mumbai", Type: "Art"},
	})
	registry := prometheus.NewRegistry()
	chatMetrics := observability.NewChatMetrics(registry)

	trips := services.NewTripPlannerService(repo, geolocation.NewDirectoryProvider(nil))
	chat := services.NewChatService(
		services.NewChatbotFlowService(repo, trips),
		services.NewFallbackResolver(repo, nil),
		websearch.DeflectionProvider{},
		session.NewMemoryStore(time.Hour),
		services.ChatServiceConfig{Analytics: memory.NewChatAnalyticsRepository(), Metrics: chatMetrics},
	)

	router := routes.NewRouter(
		handlers.NewMuseumHandler(services.NewMuseumService(repo, nil, memory.NewVisitRepository())),
		handlers.NewChatHandler(chat),
		handlers.NewTripHandler(trips),
		handlers.NewVideoHandler(services.NewVideoLookupService(nil, time.Second, chatMetrics), nil, websearch.DeflectionProvider{}),
		routes.Options{
			ProxyLimiter:   limiter,
			Gatherer:       registry,
			AllowedOrigins: []string{"*"},
		},
	)
	return router.SetupRoutes()
}

func TestRouter_Health(t *testing.T) {
	handler := newTestRouter(t, nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_APIRoutes(t *testing.T) {
	handler := newTestRouter(t, nil)

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/api/museums", "", http.StatusOK},
		{http.MethodGet, "/api/museums/kelkar", "", http.StatusOK},
		{http.MethodGet, "/api/museums/missing", "", http.StatusNotFound},
		{http.MethodGet, "/api/museums/search?q=kelkar", "", http.StatusOK},
		{http.MethodGet, "/api/chat/menu", "", http.StatusOK},
		{http.MethodPost, "/api/chat/sessions", "", http.StatusCreated},
		{http.MethodGet, "/api/trips/plan?city=Pune&date=2026-03-02", "", http.StatusOK},
		{http.MethodGet, "/api/trips/plan?city=Pune", "", http.StatusBadRequest},
		{http.MethodPost, "/functions/web-search", `{"query":"kelkar"}`, http.StatusOK},
		{http.MethodPost, "/functions/web-search", `{"query":""}`, http.StatusBadRequest},
		{http.MethodGet, "/api/unknown", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRouter_CORSHeaders(t *testing.T) {
	handler := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_ProxyRateLimit(t *testing.T) {
	handler := newTestRouter(t, middleware.NewRateLimiter(0.001, 1))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/functions/web-search", strings.NewReader(`{"query":"museums"}`))
		req.RemoteAddr = "198.51.100.4:4000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}
	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	// Catalog routes are not limited
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/museums", nil)
	req.RemoteAddr = "198.51.100.4:4000"
	handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Metrics(t *testing.T) {
	handler := newTestRouter(t, nil)

	// Drive one chat transition so the counters have samples
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/chat/sessions", nil))
	require.Equal(t, http.StatusCreated, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("ETag"))
}
