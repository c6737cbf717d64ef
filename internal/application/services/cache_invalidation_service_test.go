package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/cache"
	"github.com/musemate/backend/internal/adapters/events"
	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	redisclient "github.com/musemate/backend/internal/infrastructure/clients/redis"
)

func TestCacheInvalidationService_ClearsCatalogCachesOnEvent(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	bus := events.NewRedisEventBus(client)
	t.Cleanup(func() { _ = bus.Close() })
	store := cache.NewRedisAdapter(client)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "museum:id:kelkar", []byte(`{}`), time.Minute))
	require.NoError(t, store.Set(ctx, "http:cache:abc", []byte(`{}`), time.Minute))
	require.NoError(t, store.Set(ctx, "session:user-1", []byte(`{}`), time.Minute))

	svc := services.NewCacheInvalidationService(store, bus)
	require.NoError(t, svc.Start())
	defer svc.Stop()

	event := entities.NewCatalogEvent(entities.CatalogEventMuseumsUpserted, 1, "kelkar")
	require.NoError(t, bus.Publish(ctx, providers.EventChannelCatalogUpdates, event))

	assert.Eventually(t, func() bool {
		return !mr.Exists("museum:id:kelkar") && !mr.Exists("http:cache:abc")
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, mr.Exists("session:user-1"))
}

func TestCacheInvalidationService_InvalidateCatalog(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewRedisAdapter(client)

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "museum:city:pune:0", []byte(`[]`), time.Minute))
	require.NoError(t, store.Set(ctx, "video:search:aga khan", []byte(`{}`), time.Minute))

	svc := services.NewCacheInvalidationService(store, events.NewRedisEventBus(client))
	require.NoError(t, svc.InvalidateCatalog(ctx))

	assert.False(t, mr.Exists("museum:city:pune:0"))
	assert.True(t, mr.Exists("video:search:aga khan"))
}
