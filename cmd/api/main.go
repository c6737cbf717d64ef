package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/musemate/backend/internal/adapters/cache"
	"github.com/musemate/backend/internal/adapters/database"
	"github.com/musemate/backend/internal/adapters/events"
	"github.com/musemate/backend/internal/adapters/memory"
	"github.com/musemate/backend/internal/adapters/providers/geolocation"
	"github.com/musemate/backend/internal/adapters/providers/video"
	"github.com/musemate/backend/internal/adapters/providers/websearch"
	"github.com/musemate/backend/internal/adapters/search"
	"github.com/musemate/backend/internal/adapters/session"
	"github.com/musemate/backend/internal/api/handlers"
	"github.com/musemate/backend/internal/api/middleware"
	"github.com/musemate/backend/internal/api/routes"
	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/clients/postgres"
	"github.com/musemate/backend/internal/infrastructure/clients/redis"
	"github.com/musemate/backend/internal/infrastructure/clients/typesense"
	"github.com/musemate/backend/internal/infrastructure/observability"
	"github.com/musemate/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)
	logger := observability.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(shutdownCtx); err != nil {
					logger.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := observability.NewChatMetrics(registry)

	// Redis is optional: without it the API runs with in-memory sessions and no response cache
	var cacheProvider providers.CacheProvider
	var redisClient *redis.Client
	if client, err := redis.NewClient(ctx, &cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, caching disabled")
	} else {
		redisClient = client
		defer redisClient.Close()
		cacheProvider = cache.NewRedisAdapter(redisClient)
	}

	// Catalog: a JSON file for offline use, otherwise Postgres
	var museumRepo repositories.MuseumRepository
	var cachedMuseums *database.CachedMuseumAdapter
	var visitRepo repositories.VisitRepository
	var analyticsRepo repositories.ChatAnalyticsRepository
	if cfg.Catalog.DataFile != "" {
		repo, err := memory.LoadMuseumFile(cfg.Catalog.DataFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.Catalog.DataFile).Msg("failed to load museum data file")
		}
		museumRepo = repo
		visitRepo = memory.NewVisitRepository()
		analyticsRepo = memory.NewChatAnalyticsRepository()
		logger.Info().Str("file", cfg.Catalog.DataFile).Msg("serving museums from data file")
	} else {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
		}
		defer pgClient.Close()
		if err := pgClient.ApplySchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to apply schema")
		}

		museumRepo = database.NewMuseumAdapter(pgClient, metrics)
		if cacheProvider != nil {
			cachedMuseums = database.NewCachedMuseumAdapter(museumRepo, cacheProvider, metrics)
			museumRepo = cachedMuseums
		}
		visitRepo = database.NewVisitAdapter(pgClient, metrics)
		analyticsRepo = database.NewChatAnalyticsAdapter(pgClient, metrics)
	}

	var searchRepo repositories.MuseumSearchRepository
	if cfg.Catalog.DataFile == "" {
		if tsClient, err := typesense.NewClient(ctx, &cfg.Typesense); err != nil {
			logger.Warn().Err(err).Msg("Typesense unavailable, search falls back to the database")
		} else if err := tsClient.InitSchema(ctx); err != nil {
			logger.Warn().Err(err).Msg("failed to init Typesense schema")
		} else {
			searchRepo = search.NewTypesenseAdapter(tsClient)
		}
	}

	var sessions providers.SessionStore
	if cfg.Chat.SessionStore == "redis" && redisClient != nil {
		sessions = session.NewRedisStore(redisClient, cfg.Chat.SessionTTL)
	} else {
		sessions = session.NewMemoryStore(cfg.Chat.SessionTTL)
	}

	videoSearcher := buildVideoChain(ctx, cfg, cacheProvider, chatMetrics)
	webSearch := buildWebSearch(ctx, cfg)

	geo := buildGeolocation(cfg, cacheProvider)

	// The indexer announces catalog changes; drop cached museums when it does
	if redisClient != nil {
		bus := events.NewRedisEventBus(redisClient)
		defer bus.Close()
		invalidation := services.NewCacheInvalidationService(cacheProvider, bus)
		if err := invalidation.Start(); err != nil {
			logger.Warn().Err(err).Msg("cache invalidation disabled")
		} else {
			defer invalidation.Stop()
		}
	}
	if cachedMuseums != nil {
		services.NewCacheWarmingService(cachedMuseums, geo).StartPeriodicWarming(ctx, cfg.Catalog.WarmInterval)
	}

	synonyms := services.NewTermExpansionService(nil)
	if cfg.Catalog.SynonymsFile != "" {
		if synonyms, err = services.LoadTermExpansionFile(cfg.Catalog.SynonymsFile); err != nil {
			logger.Fatal().Err(err).Str("file", cfg.Catalog.SynonymsFile).Msg("failed to load search synonyms")
		}
	}

	museumService := services.NewMuseumService(museumRepo, searchRepo, visitRepo).WithTermExpansion(synonyms)
	tripPlanner := services.NewTripPlannerService(museumRepo, geo)
	chatService := services.NewChatService(
		services.NewChatbotFlowService(museumRepo, tripPlanner),
		services.NewFallbackResolver(museumRepo, nil),
		webSearch,
		sessions,
		services.ChatServiceConfig{
			Analytics:  analyticsRepo,
			Metrics:    chatMetrics,
			WebTimeout: cfg.Proxy.Timeout,
		},
	)
	videoLookup := services.NewVideoLookupService(videoSearcher, cfg.Proxy.Timeout, chatMetrics)

	var cacheMiddleware *middleware.CacheMiddleware
	if cacheProvider != nil {
		cacheMiddleware = middleware.NewCacheMiddleware(cacheProvider, metrics)
	}

	router := routes.NewRouter(
		handlers.NewMuseumHandler(museumService),
		handlers.NewChatHandler(chatService),
		handlers.NewTripHandler(tripPlanner),
		handlers.NewVideoHandler(videoLookup, videoSearcher, webSearch),
		routes.Options{
			CacheMiddleware: cacheMiddleware,
			ProxyLimiter:    middleware.NewRateLimiter(cfg.Proxy.RateLimit, cfg.Proxy.RateBurst, cfg.Proxy.TrustedProxies...),
			Metrics:         metrics,
			Gatherer:        registry,
			AllowedOrigins:  cfg.Server.AllowedOrigins,
		},
	)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}
	logger.Info().Msg("server stopped")
}

// buildVideoChain orders the configured video sources: YouTube, Vimeo, then the curated list
func buildVideoChain(ctx context.Context, cfg *config.Config, cacheProvider providers.CacheProvider, chatMetrics *observability.ChatMetrics) *video.SearchChain {
	logger := observability.GetLogger()
	var list []providers.VideoSearchProvider

	if cfg.VideoSearch.YouTubeAPIKey != "" {
		yt, err := video.NewYouTubeProvider(ctx, cfg.VideoSearch.YouTubeAPIKey, cfg.VideoSearch.MaxYouTubeResults)
		if err != nil {
			logger.Warn().Err(err).Msg("YouTube provider disabled")
		} else {
			list = append(list, yt)
		}
	}
	if cfg.VideoSearch.VimeoAccessToken != "" {
		list = append(list, video.NewVimeoProvider(cfg.VideoSearch.VimeoBaseURL, cfg.VideoSearch.VimeoAccessToken, cfg.Proxy.Timeout))
	}
	if cfg.VideoSearch.CuratedFallback {
		list = append(list, video.CuratedProvider{})
	}
	if len(list) == 0 {
		logger.Warn().Msg("no video providers configured, video search returns no results")
	}

	opts := []video.ChainOption{
		video.WithProviderTimeout(cfg.Proxy.Timeout),
		video.WithMetrics(chatMetrics),
	}
	if cacheProvider != nil {
		opts = append(opts, video.WithCache(cacheProvider, cfg.VideoSearch.ResultCacheTTL))
	}
	return video.NewSearchChain(list, opts...)
}

// buildGeolocation adds Google geocoding behind the city directory when a key is set
func buildGeolocation(cfg *config.Config, cacheProvider providers.CacheProvider) providers.GeolocationProvider {
	directory := geolocation.NewDirectoryProvider(nil)
	if cfg.Geolocation.GoogleMapsAPIKey == "" {
		return directory
	}
	var opts []geolocation.GoogleOption
	if cacheProvider != nil {
		opts = append(opts, geolocation.WithGeocodeCache(cacheProvider, cfg.Geolocation.CacheTTL))
	}
	return geolocation.NewGoogleProvider(directory, cfg.Geolocation.GoogleMapsAPIKey, cfg.Geolocation.Region, opts...)
}

func buildWebSearch(ctx context.Context, cfg *config.Config) providers.WebSearchProvider {
	if !cfg.WebSearch.WebSearchEnabled() {
		observability.GetLogger().Warn().Msg("web search credentials missing, unresolved questions get a canned reply")
		return websearch.DeflectionProvider{}
	}
	google, err := websearch.NewGoogleProvider(ctx, cfg.WebSearch.APIKey, cfg.WebSearch.EngineID)
	if err != nil {
		observability.GetLogger().Warn().Err(err).Msg("web search disabled")
		return websearch.DeflectionProvider{}
	}
	return google
}
