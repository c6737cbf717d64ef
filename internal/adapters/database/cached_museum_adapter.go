package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/domain/repositories"
	"github.com/musemate/backend/internal/infrastructure/observability"
)

// CachedMuseumAdapter wraps a MuseumRepository with a read-through cache.
// Entries expire on their own or are dropped by catalog update events.
type CachedMuseumAdapter struct {
	adapter repositories.MuseumRepository
	cache   providers.CacheProvider
	metrics *observability.Metrics
}

// NewCachedMuseumAdapter creates a new cached museum adapter
func NewCachedMuseumAdapter(adapter repositories.MuseumRepository, cache providers.CacheProvider, metrics *observability.Metrics) *CachedMuseumAdapter {
	return &CachedMuseumAdapter{
		adapter: adapter,
		cache:   cache,
		metrics: metrics,
	}
}

var _ repositories.MuseumRepository = (*CachedMuseumAdapter)(nil)

const (
	museumByIDTTL   = 10 * time.Minute
	museumsListTTL  = 5 * time.Minute
	museumCityTTL   = 5 * time.Minute
	museumKeyPrefix = "museum:"
)

func museumCacheKey(id string) string {
	return fmt.Sprintf("museum:id:%s", id)
}

func museumsListCacheKey(filter repositories.MuseumFilter) string {
	return fmt.Sprintf("museum:list:%s:%s:%d:%d",
		strings.ToLower(filter.City), strings.ToLower(filter.Type), filter.Limit, filter.Offset)
}

func museumsCityCacheKey(city string, limit int) string {
	return fmt.Sprintf("museum:city:%s:%d", strings.ToLower(strings.TrimSpace(city)), limit)
}

// GetByID retrieves a museum with caching
func (a *CachedMuseumAdapter) GetByID(ctx context.Context, id string) (*entities.Museum, error) {
	key := museumCacheKey(id)

	var museum entities.Museum
	if a.lookup(ctx, key, "museum:id", &museum) {
		return &museum, nil
	}

	fetched, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.store(key, fetched, museumByIDTTL)
	return fetched, nil
}

// GetByIDs serves cached museums and batches the rest to the database
func (a *CachedMuseumAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Museum, error) {
	if len(ids) == 0 {
		return []*entities.Museum{}, nil
	}

	found := make([]*entities.Museum, 0, len(ids))
	var missing []string
	for _, id := range ids {
		var museum entities.Museum
		if a.lookup(ctx, museumCacheKey(id), "museum:id", &museum) {
			found = append(found, &museum)
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return found, nil
	}

	fetched, err := a.adapter.GetByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, museum := range fetched {
		a.store(museumCacheKey(museum.ID), museum, museumByIDTTL)
	}
	return append(found, fetched...), nil
}

// List retrieves museums with caching
func (a *CachedMuseumAdapter) List(ctx context.Context, filter repositories.MuseumFilter) ([]*entities.Museum, error) {
	key := museumsListCacheKey(filter)

	var museums []*entities.Museum
	if a.lookup(ctx, key, "museum:list", &museums) {
		return museums, nil
	}

	fetched, err := a.adapter.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	a.store(key, fetched, museumsListTTL)
	return fetched, nil
}

// ListByCity retrieves museums in a city with caching
func (a *CachedMuseumAdapter) ListByCity(ctx context.Context, city string, limit int) ([]*entities.Museum, error) {
	key := museumsCityCacheKey(city, limit)

	var museums []*entities.Museum
	if a.lookup(ctx, key, "museum:city", &museums) {
		return museums, nil
	}

	fetched, err := a.adapter.ListByCity(ctx, city, limit)
	if err != nil {
		return nil, err
	}
	a.store(key, fetched, museumCityTTL)
	return fetched, nil
}

// FindByName is not cached; inputs are free text typed in chat
func (a *CachedMuseumAdapter) FindByName(ctx context.Context, name string) (*entities.Museum, error) {
	return a.adapter.FindByName(ctx, name)
}

// SearchText is not cached; inputs are free text typed in chat
func (a *CachedMuseumAdapter) SearchText(ctx context.Context, terms []string, limit int) ([]*entities.Museum, error) {
	return a.adapter.SearchText(ctx, terms, limit)
}

// Invalidate drops every cached museum entry after the catalog changes
func (a *CachedMuseumAdapter) Invalidate(ctx context.Context) error {
	return a.cache.DeletePattern(ctx, museumKeyPrefix+"*")
}

func (a *CachedMuseumAdapter) lookup(ctx context.Context, key, family string, dest interface{}) bool {
	data, err := a.cache.Get(ctx, key)
	if err != nil {
		observability.RecordCacheMiss(ctx, a.metrics, family)
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("discarding unreadable cache entry")
		observability.RecordCacheMiss(ctx, a.metrics, family)
		return false
	}
	observability.RecordCacheHit(ctx, a.metrics, family)
	return true
}

// store writes asynchronously so a slow cache never delays the response
func (a *CachedMuseumAdapter) store(key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.cache.Set(ctx, key, data, ttl); err != nil {
			observability.GetLogger().Warn().Err(err).Str("key", key).Msg("failed to cache museums")
		}
	}()
}
