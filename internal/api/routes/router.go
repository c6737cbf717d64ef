package routes

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/musemate/backend/internal/api/handlers"
	"github.com/musemate/backend/internal/api/middleware"
	"github.com/musemate/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	museumHandler *handlers.MuseumHandler
	chatHandler   *handlers.ChatHandler
	tripHandler   *handlers.TripHandler
	videoHandler  *handlers.VideoHandler

	cacheMiddleware *middleware.CacheMiddleware
	proxyLimiter    *middleware.RateLimiter
	metrics         *observability.Metrics
	gatherer        prometheus.Gatherer
	allowedOrigins  []string
}

// Options carries the optional pieces of the HTTP stack
type Options struct {
	CacheMiddleware *middleware.CacheMiddleware
	ProxyLimiter    *middleware.RateLimiter
	Metrics         *observability.Metrics
	Gatherer        prometheus.Gatherer
	AllowedOrigins  []string
}

// NewRouter creates a new router
func NewRouter(
	museumHandler *handlers.MuseumHandler,
	chatHandler *handlers.ChatHandler,
	tripHandler *handlers.TripHandler,
	videoHandler *handlers.VideoHandler,
	opts Options,
) *Router {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Router{
		mux:             http.NewServeMux(),
		museumHandler:   museumHandler,
		chatHandler:     chatHandler,
		tripHandler:     tripHandler,
		videoHandler:    videoHandler,
		cacheMiddleware: opts.CacheMiddleware,
		proxyLimiter:    opts.ProxyLimiter,
		metrics:         opts.Metrics,
		gatherer:        gatherer,
		allowedOrigins:  opts.AllowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Museum catalog
	r.mux.HandleFunc("GET /api/museums", r.museumHandler.ListMuseums)
	r.mux.HandleFunc("GET /api/museums/search", r.museumHandler.SearchMuseums)
	r.mux.HandleFunc("GET /api/museums/{id}", r.museumHandler.GetMuseum)

	// Visit history
	r.mux.HandleFunc("POST /api/users/{userID}/visits", r.museumHandler.TrackVisit)
	r.mux.HandleFunc("GET /api/users/{userID}/visits", r.museumHandler.RecentVisits)

	// Chat
	r.mux.HandleFunc("GET /api/chat/menu", r.chatHandler.Menu)
	r.mux.HandleFunc("POST /api/chat/sessions", r.chatHandler.StartSession)
	r.mux.HandleFunc("GET /api/chat/sessions/{id}", r.chatHandler.GetSession)
	r.mux.HandleFunc("POST /api/chat/sessions/{id}/options", r.chatHandler.SelectOption)
	r.mux.HandleFunc("POST /api/chat/sessions/{id}/messages", r.chatHandler.SendMessage)
	r.mux.HandleFunc("POST /api/chat/sessions/{id}/reset", r.chatHandler.Reset)
	r.mux.HandleFunc("GET /api/analytics/unresolved-queries", r.chatHandler.UnresolvedQueries)

	r.mux.HandleFunc("GET /api/trips/plan", r.tripHandler.PlanTrip)
	r.mux.HandleFunc("GET /api/videos", r.videoHandler.LookupVideos)

	// Search proxies
	r.mux.Handle("POST /functions/video-search", r.limited(http.HandlerFunc(r.videoHandler.VideoSearch)))
	r.mux.Handle("POST /functions/web-search", r.limited(http.HandlerFunc(r.videoHandler.WebSearch)))

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	if r.cacheMiddleware != nil {
		handler = r.cacheMiddleware.Middleware(handler)
	}
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)
	// CORS wraps everything so headers are set even on cache HITs
	handler = middleware.CORS(r.allowedOrigins)(handler)

	// promhttp negotiates its own compression
	root := http.NewServeMux()
	root.Handle("GET /metrics", promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{}))
	root.Handle("/", handler)
	return root
}

func (r *Router) limited(h http.Handler) http.Handler {
	if r.proxyLimiter == nil {
		return h
	}
	return r.proxyLimiter.Middleware(h)
}
