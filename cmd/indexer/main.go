package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/musemate/backend/internal/adapters/database"
	"github.com/musemate/backend/internal/adapters/events"
	"github.com/musemate/backend/internal/adapters/memory"
	"github.com/musemate/backend/internal/adapters/search"
	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/clients/postgres"
	"github.com/musemate/backend/internal/infrastructure/clients/redis"
	"github.com/musemate/backend/internal/infrastructure/clients/typesense"
	"github.com/musemate/backend/internal/infrastructure/observability"
	"github.com/musemate/backend/pkg/config"
)

const pageSize = 500

func main() {
	var reset bool
	var intervalFlag string
	var seedFile string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.StringVar(&seedFile, "seed", "", "upsert museums from a JSON file into Postgres before indexing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	observability.InitLogger("musemate-indexer", cfg.Server.Env)
	logger := observability.GetLogger()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			logger.Fatal().Err(err).Str("interval", intervalValue).Msg("invalid interval")
		}
		if interval <= 0 {
			logger.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer pgClient.Close()
	if err := pgClient.ApplySchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}
	museums := database.NewMuseumAdapter(pgClient, nil)

	// Running API instances drop their museum caches when we announce changes
	var bus providers.EventBus
	if redisClient, err := redis.NewClient(ctx, &cfg.Redis); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable, catalog changes will not be announced")
	} else {
		defer redisClient.Close()
		eventBus := events.NewRedisEventBus(redisClient)
		defer eventBus.Close()
		bus = eventBus
	}

	if seedFile != "" {
		count, err := seed(ctx, museums, seedFile)
		if err != nil {
			logger.Fatal().Err(err).Str("file", seedFile).Msg("seeding failed")
		}
		logger.Info().Int("count", count).Str("file", seedFile).Msg("seeded museums")
		announce(ctx, bus, entities.NewCatalogEvent(entities.CatalogEventMuseumsUpserted, count))
	}

	tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Typesense")
	}

	for {
		if reset || os.Getenv("RESET_TYPESENSE") == "true" {
			logger.Info().Msg("deleting museums collection before reindex")
			if _, err := tsClient.Client().Collection(typesense.MuseumsCollection).Delete(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to delete collection")
			}
		}

		if err := tsClient.InitSchema(ctx); err != nil {
			logger.Error().Err(err).Msg("failed to init Typesense schema")
		} else if count, err := indexOnce(ctx, museums, search.NewTypesenseAdapter(tsClient)); err != nil {
			logger.Error().Err(err).Msg("reindex failed")
		} else {
			logger.Info().Int("count", count).Msg("reindex complete")
			announce(ctx, bus, entities.NewCatalogEvent(entities.CatalogEventReindexed, count))
		}

		if interval <= 0 {
			return
		}
		reset = false
		logger.Info().Dur("interval", interval).Msg("next reindex scheduled")

		select {
		case <-ctx.Done():
			logger.Info().Msg("indexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

// indexOnce pages through the catalog and indexes every museum; per-document failures are logged and skipped
func indexOnce(ctx context.Context, source repositories.MuseumRepository, index repositories.MuseumSearchRepository) (int, error) {
	logger := observability.LoggerFromContext(ctx)
	indexed := 0
	for offset := 0; ; offset += pageSize {
		page, err := source.List(ctx, repositories.MuseumFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return indexed, err
		}
		for _, m := range page {
			if m == nil {
				continue
			}
			if err := index.Index(ctx, m); err != nil {
				logger.Warn().Err(err).Str("museum_id", m.ID).Msg("failed to index museum")
				continue
			}
			indexed++
		}
		if len(page) < pageSize {
			return indexed, nil
		}
	}
}

// announce publishes a catalog event; a nil bus or a failed publish is only logged
func announce(ctx context.Context, bus providers.EventBus, event *entities.CatalogEvent) {
	if bus == nil {
		return
	}
	if err := bus.Publish(ctx, providers.EventChannelCatalogUpdates, event); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to announce catalog change")
	}
}

func seed(ctx context.Context, dst repositories.MuseumWriter, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	list, err := memory.LoadMuseums(f)
	if err != nil {
		return 0, err
	}
	return upsertAll(ctx, dst, list)
}

func upsertAll(ctx context.Context, dst repositories.MuseumWriter, list []*entities.Museum) (int, error) {
	for i, m := range list {
		if err := dst.Upsert(ctx, m); err != nil {
			return i, err
		}
	}
	return len(list), nil
}
