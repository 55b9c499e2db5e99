package domain

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromSlice_ConsumedOnce(t *testing.T) {
	ctx := context.Background()
	s := Of(1, 2, 3)

	items, err := Collect(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, []Item{1, 2, 3}, items)

	_, err = s.Next(ctx)
	assert.Equal(t, io.EOF, err, "exhausted stream must keep returning EOF")

	again, err := Collect(ctx, s)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestFromSlice_CopiesInput(t *testing.T) {
	src := []Item{"a", "b"}
	s := FromSlice(src)
	src[0] = "mutated"

	items, err := Collect(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []Item{"a", "b"}, items)
}

func TestMapAndFilter_AreLazy(t *testing.T) {
	ctx := context.Background()
	pulled := 0
	source := StreamFunc(func(ctx context.Context) (Item, error) {
		if pulled == 4 {
			return nil, io.EOF
		}
		pulled++
		return pulled, nil
	})

	evens := Filter(source, func(item Item) bool { return item.(int)%2 == 0 })
	doubled := Map(evens, func(ctx context.Context, item Item) (Item, error) {
		return item.(int) * 2, nil
	})

	assert.Equal(t, 0, pulled, "nothing is pulled before the first Next")

	first, err := doubled.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, first)
	assert.Equal(t, 2, pulled)

	rest, err := Collect(ctx, doubled)
	require.NoError(t, err)
	assert.Equal(t, []Item{8}, rest)
}

func TestCollect_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	s := StreamFunc(func(ctx context.Context) (Item, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return calls, nil
	})

	items, err := Collect(context.Background(), s)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []Item{1}, items)
}

func TestCollect_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Collect(ctx, Of(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDiscard(t *testing.T) {
	s := Of(1, 2, 3)
	require.NoError(t, Discard(context.Background(), s))
	_, err := s.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.NoError(t, Discard(context.Background(), nil))
}

func TestDefer(t *testing.T) {
	ctx := context.Background()
	built := false
	s := Defer(func(ctx context.Context) (Stream, error) {
		built = true
		return Of("x"), nil
	})
	assert.False(t, built)

	items, err := Collect(ctx, s)
	require.NoError(t, err)
	assert.True(t, built)
	assert.Equal(t, []Item{"x"}, items)

	failing := Defer(func(ctx context.Context) (Stream, error) {
		return nil, errors.New("spawn failed")
	})
	_, err = failing.Next(ctx)
	assert.EqualError(t, err, "spawn failed")
}
