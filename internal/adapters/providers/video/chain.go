package video

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/infrastructure/observability"
	apperrors "github.com/musemate/backend/pkg/errors"
)

const resultKeyPrefix = "video:search:"

// SearchChain asks each provider in order and returns the first non-empty
// answer. Provider failures are logged and treated as empty; the chain only
// fails when every provider failed.
type SearchChain struct {
	providers []providers.VideoSearchProvider
	cache     providers.CacheProvider
	ttl       time.Duration
	timeout   time.Duration
	metrics   *observability.ChatMetrics
}

var _ providers.VideoSearcher = (*SearchChain)(nil)

// ChainOption configures a SearchChain
type ChainOption func(*SearchChain)

// WithCache caches non-empty results per normalized query
func WithCache(cache providers.CacheProvider, ttl time.Duration) ChainOption {
	return func(c *SearchChain) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithProviderTimeout bounds each provider call
func WithProviderTimeout(d time.Duration) ChainOption {
	return func(c *SearchChain) { c.timeout = d }
}

func WithMetrics(m *observability.ChatMetrics) ChainOption {
	return func(c *SearchChain) { c.metrics = m }
}

func NewSearchChain(list []providers.VideoSearchProvider, opts ...ChainOption) *SearchChain {
	c := &SearchChain{providers: list, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SearchChain) SearchVideos(ctx context.Context, query string) (*entities.VideoSearchResult, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, apperrors.NewValidationError("search query is required")
	}

	ctx, span := observability.StartSpan(ctx, "video.search_chain")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	key := resultKeyPrefix + normalizeQuery(q)
	if cached, ok := c.cached(ctx, key); ok {
		cached.Query = q
		return cached, nil
	}

	var lastErr error
	failures := 0
	for _, p := range c.providers {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		videos, err := p.SearchVideos(callCtx, q)
		cancel()

		if err != nil {
			failures++
			lastErr = err
			c.metrics.ObserveProxyCall(p.Name(), "error")
			logger.Warn().Err(err).Str("provider", p.Name()).Str("query", q).Msg("video provider failed")
			continue
		}
		if len(videos) == 0 {
			c.metrics.ObserveProxyCall(p.Name(), "empty")
			continue
		}

		c.metrics.ObserveProxyCall(p.Name(), "ok")
		result := &entities.VideoSearchResult{Videos: videos, HasResults: true, Query: q}
		c.store(ctx, key, result)
		return result, nil
	}

	if len(c.providers) > 0 && failures == len(c.providers) {
		observability.RecordError(span, lastErr)
		return nil, apperrors.NewExternalError("all video providers failed", lastErr)
	}

	return &entities.VideoSearchResult{Videos: []entities.Video{}, HasResults: false, Query: q}, nil
}

func (c *SearchChain) cached(ctx context.Context, key string) (*entities.VideoSearchResult, bool) {
	if c.cache == nil {
		return nil, false
	}
	data, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("video cache read failed")
		}
		return nil, false
	}
	var result entities.VideoSearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, false
	}
	return &result, true
}

func (c *SearchChain) store(ctx context.Context, key string, result *entities.VideoSearchResult) {
	if c.cache == nil || c.ttl <= 0 {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("video cache write failed")
	}
}

func normalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
