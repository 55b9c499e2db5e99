package state_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/lobster/pkg/adapters/memory"
	"github.com/aretw0/lobster/pkg/domain"
	"github.com/aretw0/lobster/pkg/ports"
	"github.com/aretw0/lobster/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pr struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	State  string `json:"state"`
}

func TestDiffAndStore_FirstObservation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	obs, err := state.DiffAndStore(ctx, store, "k", map[string]any{"title": "A"})
	require.NoError(t, err)
	assert.True(t, obs.Changed, "first observation is always a change")
	assert.False(t, obs.Found)
	assert.Nil(t, obs.Before)

	stored, err := store.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "A"}, stored)
}

func TestDiffAndStore_Sequence(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewManager(memory.NewStore())

	obs, err := mgr.DiffAndStore(ctx, "k", map[string]any{"title": "A"})
	require.NoError(t, err)
	assert.True(t, obs.Changed)

	obs, err = mgr.DiffAndStore(ctx, "k", map[string]any{"title": "A"})
	require.NoError(t, err)
	assert.False(t, obs.Changed, "identical value is not a change")
	assert.True(t, obs.Found)
	assert.Equal(t, map[string]any{"title": "A"}, obs.Before)

	obs, err = mgr.DiffAndStore(ctx, "k", map[string]any{"title": "B"})
	require.NoError(t, err)
	assert.True(t, obs.Changed)
	assert.Equal(t, map[string]any{"title": "A"}, obs.Before)

	summary := domain.SummarizeChanges(obs.Before, obs.After, []string{"title"})
	assert.Equal(t, []string{"title"}, summary.ChangedFields)
	assert.Equal(t, domain.FieldChange{From: "A", To: "B"}, summary.Changes["title"])
}

func TestDiffAndStore_KeyOrderAndTypesDoNotMatter(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewManager(memory.NewStore())

	_, err := mgr.DiffAndStore(ctx, "pr", pr{Number: 7, Title: "T", State: "OPEN"})
	require.NoError(t, err)

	var decoded any
	require.NoError(t, json.Unmarshal([]byte(`{"state":"OPEN","title":"T","number":7}`), &decoded))

	obs, err := mgr.DiffAndStore(ctx, "pr", decoded)
	require.NoError(t, err)
	assert.False(t, obs.Changed, "a struct and an equivalent decoded map are the same snapshot")
}

func TestDiffAndStore_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewManager(memory.NewStore())

	_, err := mgr.DiffAndStore(ctx, "a", 1)
	require.NoError(t, err)

	obs, err := mgr.DiffAndStore(ctx, "b", 1)
	require.NoError(t, err)
	assert.True(t, obs.Changed)
	assert.False(t, obs.Found)
}

func TestDiffAndStore_ChangeBackIsAChange(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewManager(memory.NewStore())

	for i, want := range []bool{true, true, true, false} {
		value := []string{"A", "B", "A", "A"}[i]
		obs, err := mgr.DiffAndStore(ctx, "k", value)
		require.NoError(t, err)
		assert.Equal(t, want, obs.Changed, "observation %d", i)
	}
}

func TestDiffAndStore_RejectsUnencodable(t *testing.T) {
	store := memory.NewStore()
	_, err := state.DiffAndStore(context.Background(), store, "k", func() {})
	require.Error(t, err)

	keys, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys, "nothing is recorded for an invalid value")
}

type failingStore struct {
	ports.SnapshotStore
	loadErr error
}

func (f failingStore) Load(ctx context.Context, key string) (any, error) {
	return nil, f.loadErr
}

func TestDiffAndStore_LoadError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := state.DiffAndStore(context.Background(), failingStore{SnapshotStore: memory.NewStore(), loadErr: boom}, "k", 1)
	assert.ErrorIs(t, err, boom)
}

func TestManager_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewManager(memory.NewStore())

	_, ok, err := mgr.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mgr.Set(ctx, "k", "v"))
	v, ok, err := mgr.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	require.NoError(t, mgr.Delete(ctx, "k"))
	obs, err := mgr.DiffAndStore(ctx, "k", "v")
	require.NoError(t, err)
	assert.True(t, obs.Changed, "after Delete the next observation is a first one")
}

// recordingLocker counts lock/unlock pairs.
type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked int
	ttl      time.Duration
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.locked = append(l.locked, key)
	l.ttl = ttl
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked++
		return nil
	}, nil
}

func TestManager_UsesDistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	mgr := state.NewManager(memory.NewStore(), state.WithLocker(locker), state.WithLockTTL(5*time.Second))

	_, err := mgr.DiffAndStore(context.Background(), "github.pr:o/r#1", 1)
	require.NoError(t, err)

	assert.Equal(t, []string{"github.pr:o/r#1"}, locker.locked)
	assert.Equal(t, 1, locker.unlocked)
	assert.Equal(t, 5*time.Second, locker.ttl)
}

func TestManager_ConcurrentObservationsOfOneKey(t *testing.T) {
	ctx := context.Background()
	mgr := state.NewManager(memory.NewStore())

	const workers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs, err := mgr.DiffAndStore(ctx, "shared", "same")
			if err != nil {
				t.Error(err)
				return
			}
			if obs.Changed {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changed, "exactly one caller observes the first value")
}
