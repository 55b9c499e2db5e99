package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/lobster/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore
// implementation adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	key := "contract:" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		value := map[string]any{
			"title":  "A",
			"count":  42,
			"labels": []string{"x", "y"},
			"nested": map[string]any{"ok": true},
		}

		err := store.Save(ctx, key, value)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err, "Load should not return error")

		// Stores hand values back in canonical JSON form.
		want, err := domain.NormalizeJSON(value)
		require.NoError(t, err)
		assert.Equal(t, want, loaded)
		assert.True(t, domain.EqualJSON(value, loaded))

		m := loaded.(map[string]any)
		assert.Equal(t, json.Number("42"), m["count"])
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, map[string]any{"a": 1, "b": 2}))
		require.NoError(t, store.Save(ctx, key, map[string]any{"c": 3}))

		loaded, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"c": json.Number("3")}, loaded, "snapshots are replaced, not merged")
	})

	t.Run("Scalar Values", func(t *testing.T) {
		scalarKey := key + ":scalar"
		defer func() { assert.NoError(t, store.Delete(ctx, scalarKey)) }()

		require.NoError(t, store.Save(ctx, scalarKey, "plain"))
		loaded, err := store.Load(ctx, scalarKey)
		require.NoError(t, err)
		assert.Equal(t, "plain", loaded)

		require.NoError(t, store.Save(ctx, scalarKey, nil))
		loaded, err = store.Load(ctx, scalarKey)
		require.NoError(t, err, "a stored null is still a snapshot")
		assert.Nil(t, loaded)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent:"+key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound)
	})

	t.Run("Keys With Separators", func(t *testing.T) {
		odd := "github.pr:owner/repo#1152"
		defer func() { assert.NoError(t, store.Delete(ctx, odd)) }()

		require.NoError(t, store.Save(ctx, odd, map[string]any{"n": 1}))
		_, err := store.Load(ctx, odd)
		require.NoError(t, err)

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, odd)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, key, "x"))

		err := store.Delete(ctx, key)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, key)
		assert.ErrorIs(t, err, domain.ErrSnapshotNotFound, "Load after Delete should return ErrSnapshotNotFound")

		assert.NoError(t, store.Delete(ctx, key), "deleting a missing key is not an error")
	})

	t.Run("List", func(t *testing.T) {
		k1 := key + "-1"
		k2 := key + "-2"
		require.NoError(t, store.Save(ctx, k1, 1))
		require.NoError(t, store.Save(ctx, k2, 2))

		keys, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, k1)
		assert.Contains(t, keys, k2)

		require.NoError(t, store.Delete(ctx, k1))
		require.NoError(t, store.Delete(ctx, k2))

		keys, err = store.List(ctx)
		require.NoError(t, err)
		assert.NotContains(t, keys, k1)
		assert.NotContains(t, keys, k2)
	})
}
