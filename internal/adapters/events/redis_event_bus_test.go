package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/events"
	"github.com/musemate/backend/internal/domain/entities"
	"github.com/musemate/backend/internal/domain/providers"
	redisclient "github.com/musemate/backend/internal/infrastructure/clients/redis"
)

func newBus(t *testing.T) *events.RedisEventBus {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	bus := events.NewRedisEventBus(client)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func receive(t *testing.T, ch <-chan *entities.CatalogEvent) *entities.CatalogEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestRedisEventBus_FansOutToSubscribers(t *testing.T) {
	bus := newBus(t)
	ctx := context.Background()

	first, err := bus.Subscribe(ctx, providers.EventChannelCatalogUpdates)
	require.NoError(t, err)
	second, err := bus.Subscribe(ctx, providers.EventChannelCatalogUpdates)
	require.NoError(t, err)

	sent := entities.NewCatalogEvent(entities.CatalogEventReindexed, 11)
	require.NoError(t, bus.Publish(ctx, providers.EventChannelCatalogUpdates, sent))

	for _, ch := range []<-chan *entities.CatalogEvent{first, second} {
		got := receive(t, ch)
		assert.Equal(t, sent.ID, got.ID)
		assert.Equal(t, entities.CatalogEventReindexed, got.Type)
		assert.Equal(t, 11, got.Count)
	}
}

func TestRedisEventBus_ContextCancelClosesSubscription(t *testing.T) {
	bus := newBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := bus.Subscribe(ctx, providers.EventChannelCatalogUpdates)
	require.NoError(t, err)
	cancel()

	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestRedisEventBus_CloseClosesSubscribers(t *testing.T) {
	bus := newBus(t)

	ch, err := bus.Subscribe(context.Background(), providers.EventChannelCatalogUpdates)
	require.NoError(t, err)
	require.NoError(t, bus.Close())

	_, ok := <-ch
	assert.False(t, ok)
}
