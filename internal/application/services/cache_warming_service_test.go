package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/cache"
	"github.com/musemate/backend/internal/adapters/database"
	"github.com/musemate/backend/internal/adapters/memory"
	"github.com/musemate/backend/internal/adapters/providers/geolocation"
	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/providers"
	redisclient "github.com/musemate/backend/internal/infrastructure/clients/redis"
)

func TestCacheWarmingService_WarmCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })

	catalog := database.NewCachedMuseumAdapter(memory.NewMuseumRepository(museumFixtures()), cache.NewRedisAdapter(client), nil)
	cities := geolocation.NewDirectoryProvider(map[string]providers.Coordinates{
		"Pune":   {Latitude: 18.5204, Longitude: 73.8567},
		"Mumbai": {Latitude: 19.0760, Longitude: 72.8777},
	})

	stats, err := services.NewCacheWarmingService(catalog, cities).WarmCache(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(museumFixtures()), stats.Museums)
	assert.Equal(t, 2, stats.Cities)
	// The cached adapter writes in the background
	assert.Eventually(t, func() bool {
		return mr.Exists("museum:id:kelkar") &&
			mr.Exists("museum:city:pune:0") &&
			mr.Exists("museum:city:mumbai:5") &&
			mr.Exists("museum:list:::0:0")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCacheWarmingService_WithoutCities(t *testing.T) {
	catalog := memory.NewMuseumRepository(museumFixtures())

	stats, err := services.NewCacheWarmingService(catalog, nil).WarmCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Cities)
	assert.Equal(t, len(museumFixtures()), stats.Museums)
}
