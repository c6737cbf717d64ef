package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/musemate/backend/internal/adapters/cache"
	"github.com/musemate/backend/internal/domain/providers"
	redisclient "github.com/musemate/backend/internal/infrastructure/clients/redis"
)

func newAdapter(t *testing.T) (*cache.RedisAdapter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redisclient.NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisAdapter(client), mr
}

func TestRedisAdapter_SetGetExpire(t *testing.T) {
	adapter, mr := newAdapter(t)
	ctx := context.Background()

	require.NoError(t, adapter.Set(ctx, "museum:1", []byte(`{"id":"1"}`), time.Minute))

	got, err := adapter.Get(ctx, "museum:1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(got))

	mr.FastForward(2 * time.Minute)
	_, err = adapter.Get(ctx, "museum:1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_DeletePattern(t *testing.T) {
	adapter, mr := newAdapter(t)
	ctx := context.Background()

	for _, key := range []string{"museum:list:a", "museum:list:b", "museum:1"} {
		require.NoError(t, adapter.Set(ctx, key, []byte("x"), time.Minute))
	}

	require.NoError(t, adapter.DeletePattern(ctx, "museum:list:*"))

	assert.False(t, mr.Exists("museum:list:a"))
	assert.False(t, mr.Exists("museum:list:b"))
	assert.True(t, mr.Exists("museum:1"))

	require.NoError(t, adapter.Delete(ctx, "museum:1"))
	assert.False(t, mr.Exists("museum:1"))
}
