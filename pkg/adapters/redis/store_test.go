package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/lobster/pkg/adapters/redis"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/state"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := setup(t)
	ports.RunSnapshotStoreContract(t, redis.NewFromClient(client))
}

func TestRedisStore_KeyLayout(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithPrefix("test:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "index", 1))
	assert.True(t, mr.Exists("test:snap:index"))
	assert.True(t, mr.Exists("test:index"))

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"index"}, keys, "a key named index does not collide with the index set")
}

func TestRedisStore_TTL(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Hour))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "ttl-key", map[string]any{"a": 1}))

	ttl := mr.TTL(redis.DefaultPrefix + "snap:ttl-key")
	assert.True(t, ttl > 59*time.Minute && ttl <= 1*time.Hour, "TTL should be ~1h, got %v", ttl)

	mr.FastForward(2 * time.Hour)
	_, err := store.Load(ctx, "ttl-key")
	assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestRedisStore_NewFromURL(t *testing.T) {
	mr, _ := setup(t)
	store, err := redis.NewFromURL("redis://" + mr.Addr() + "/0")
	require.NoError(t, err)
	defer store.Close()

	obs, err := state.DiffAndStore(context.Background(), store, "k", "v")
	require.NoError(t, err)
	assert.True(t, obs.Changed)

	_, err = redis.NewFromURL("::not a url")
	assert.Error(t, err)
}

func TestRedisStore_DiffWithLocker(t *testing.T) {
	mr, client := setup(t)
	store := redis.NewFromClient(client)
	mgr := state.NewManager(store, state.WithLocker(redis.NewLocker(client, "test:")))
	ctx := context.Background()

	obs, err := mgr.DiffAndStore(ctx, "github.pr:o/r#1", map[string]any{"state": "OPEN"})
	require.NoError(t, err)
	assert.True(t, obs.Changed)

	obs, err = mgr.DiffAndStore(ctx, "github.pr:o/r#1", map[string]any{"state": "OPEN"})
	require.NoError(t, err)
	assert.False(t, obs.Changed)

	assert.False(t, mr.Exists("test:lock:github.pr:o/r#1"), "lock is released after each update")
}
