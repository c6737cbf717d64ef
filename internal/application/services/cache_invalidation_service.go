package services

import (
	"context"
	"fmt"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/infrastructure/observability"
)

// Cache key patterns dropped when the catalog changes
var catalogCachePatterns = []string{
	"museum:*",
	"http:cache:*",
}

// CacheInvalidationService clears catalog caches when catalog events arrive
type CacheInvalidationService struct {
	cache    providers.CacheProvider
	eventBus providers.EventBus
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCacheInvalidationService creates a new cache invalidation service
func NewCacheInvalidationService(cache providers.CacheProvider, eventBus providers.EventBus) *CacheInvalidationService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CacheInvalidationService{
		cache:    cache,
		eventBus: eventBus,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start begins listening for catalog events
func (s *CacheInvalidationService) Start() error {
	eventChan, err := s.eventBus.Subscribe(s.ctx, providers.EventChannelCatalogUpdates)
	if err != nil {
		return fmt.Errorf("failed to subscribe to catalog updates: %w", err)
	}

	go s.processEvents(eventChan)
	observability.GetLogger().Info().Str("channel", providers.EventChannelCatalogUpdates).Msg("cache invalidation service started")
	return nil
}

// Stop stops the cache invalidation service and waits for the event loop to exit
func (s *CacheInvalidationService) Stop() {
	s.cancel()
	<-s.done
	observability.GetLogger().Info().Msg("cache invalidation service stopped")
}

func (s *CacheInvalidationService) processEvents(eventChan <-chan *entities.CatalogEvent) {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event == nil {
				continue
			}
			s.handleEvent(event)
		}
	}
}

func (s *CacheInvalidationService) handleEvent(event *entities.CatalogEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger := observability.GetLogger().With().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Int("count", event.Count).
		Logger()

	if err := s.InvalidateCatalog(ctx); err != nil {
		logger.Warn().Err(err).Msg("catalog cache invalidation incomplete")
		return
	}
	logger.Info().Msg("invalidated catalog caches")
}

// InvalidateCatalog drops cached museum records and cached catalog responses.
// Every pattern is attempted even when an earlier one fails.
func (s *CacheInvalidationService) InvalidateCatalog(ctx context.Context) error {
	var firstErr error
	for _, pattern := range catalogCachePatterns {
		if err := s.cache.DeletePattern(ctx, pattern); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to invalidate pattern %s: %w", pattern, err)
		}
	}
	return firstErr
}
