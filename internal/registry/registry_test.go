package registry

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/msgo/internal/testutil"
)

func setupRegistry(t *testing.T, server string) (*Registry, *redis.Client) {
	t.Helper()

	addr := testutil.SetupRedis(t)
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rdb.Ping(ctx).Err())

	return New(rdb, server, time.Minute), rdb
}

func TestRegistry_Lifecycle(t *testing.T) {
	reg, rdb := setupRegistry(t, "gs-1")
	ctx := context.Background()

	connected := time.UnixMilli(1_700_000_000_000)
	require.NoError(t, reg.Register(ctx, Entry{ID: "a", Remote: "10.0.0.1:5000", ConnectedAt: connected}))
	require.NoError(t, reg.Register(ctx, Entry{ID: "b", Remote: "10.0.0.2:5000"}))

	n, err := reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	got, err := reg.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, "10.0.0.1:5000", got.Remote)
	assert.Equal(t, "gs-1", got.Server)
	assert.True(t, connected.Equal(got.ConnectedAt))

	ttl, err := rdb.TTL(ctx, "msgo:sess:a").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, reg.Touch(ctx, "a"))

	require.NoError(t, reg.Unregister(ctx, "a"))
	_, err = reg.Get(ctx, "a")
	require.ErrorIs(t, err, ErrNotFound)

	n, err = reg.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// повторное удаление не ошибка
	require.NoError(t, reg.Unregister(ctx, "a"))
}

func TestRegistry_TouchUnknown(t *testing.T) {
	reg, _ := setupRegistry(t, "gs-1")

	err := reg.Touch(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRegistry_RegisterEmptyID(t *testing.T) {
	reg := New(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), "gs-1", 0)

	require.Error(t, reg.Register(context.Background(), Entry{}))
	assert.Equal(t, DefaultTTL, reg.ttl)
}

func TestRegistry_ClearIsPerServer(t *testing.T) {
	reg1, rdb := setupRegistry(t, "gs-1")
	reg2 := New(rdb, "gs-2", time.Minute)
	ctx := context.Background()

	require.NoError(t, reg1.Register(ctx, Entry{ID: "a"}))
	require.NoError(t, reg2.Register(ctx, Entry{ID: "b"}))

	require.NoError(t, reg1.Clear(ctx))

	n, err := reg1.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = reg2.Get(ctx, "b")
	require.NoError(t, err)
}
