package services

import (
	"context"
	"fmt"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/observability"
)

const warmTopMuseums = 50

// WarmableCatalog is a read-through museum repository; reading an entry caches it
type WarmableCatalog interface {
	List(ctx context.Context, filter repositories.MuseumFilter) ([]*entities.Museum, error)
	GetByID(ctx context.Context, id string) (*entities.Museum, error)
	ListByCity(ctx context.Context, city string, limit int) ([]*entities.Museum, error)
}

// CityDirectory lists the cities trips and suggestions are asked for
type CityDirectory interface {
	Cities(ctx context.Context) ([]string, error)
}

// CacheWarmingService pre-loads the lookups the chatbot and trip planner make most
type CacheWarmingService struct {
	catalog WarmableCatalog
	cities  CityDirectory
}

// NewCacheWarmingService creates a new cache warming service
func NewCacheWarmingService(catalog WarmableCatalog, cities CityDirectory) *CacheWarmingService {
	return &CacheWarmingService{
		catalog: catalog,
		cities:  cities,
	}
}

// WarmStats reports what one warming pass touched
type WarmStats struct {
	Museums int
	Cities  int
}

// WarmCache reads the full list, the first museums by id and every city list
func (s *CacheWarmingService) WarmCache(ctx context.Context) (WarmStats, error) {
	var stats WarmStats
	logger := observability.LoggerFromContext(ctx)

	museums, err := s.catalog.List(ctx, repositories.MuseumFilter{})
	if err != nil {
		return stats, fmt.Errorf("failed to warm museum list: %w", err)
	}

	for i, m := range museums {
		if i >= warmTopMuseums {
			break
		}
		if _, err := s.catalog.GetByID(ctx, m.ID); err != nil {
			logger.Warn().Err(err).Str("museum_id", m.ID).Msg("failed to warm museum")
			continue
		}
		stats.Museums++
	}

	if s.cities != nil {
		cities, err := s.cities.Cities(ctx)
		if err != nil {
			return stats, fmt.Errorf("failed to list cities: %w", err)
		}
		for _, city := range cities {
			// Trip planning reads the whole city; suggestions read a short page
			if _, err := s.catalog.ListByCity(ctx, city, 0); err != nil {
				logger.Warn().Err(err).Str("city", city).Msg("failed to warm city")
				continue
			}
			if _, err := s.catalog.ListByCity(ctx, city, suggestLimit); err != nil {
				logger.Warn().Err(err).Str("city", city).Msg("failed to warm city suggestions")
				continue
			}
			stats.Cities++
		}
	}

	logger.Info().Int("museums", stats.Museums).Int("cities", stats.Cities).Msg("cache warming completed")
	return stats, nil
}

// StartPeriodicWarming warms once, then again every interval until ctx is done
func (s *CacheWarmingService) StartPeriodicWarming(ctx context.Context, interval time.Duration) {
	logger := observability.LoggerFromContext(ctx)
	if _, err := s.WarmCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("initial cache warming failed")
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				logger.Info().Msg("stopping cache warming")
				return
			case <-ticker.C:
				if _, err := s.WarmCache(ctx); err != nil {
					logger.Warn().Err(err).Msg("periodic cache warming failed")
				}
			}
		}
	}()
	logger.Info().Dur("interval", interval).Msg("started periodic cache warming")
}
