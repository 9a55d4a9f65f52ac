package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Seeds(t *testing.T) {
	s := newTestStore(t)

	haikus, err := s.List(context.Background(), 0, 10)
	require.NoError(t, err)
	require.Len(t, haikus, 3)

	assert.Equal(t, 85, haikus[0].Score)
	assert.Equal(t, 92, haikus[1].Score)
	assert.Equal(t, 78, haikus[2].Score)
	assert.Contains(t, haikus[0].Text, "frog")
}

func TestCreate(t *testing.T) {
	s := newTestStore(t)

	h, err := s.Create(context.Background(), "Morning dew glistens\non the quiet maple leaf\nsun climbs the hillside", 71)
	require.NoError(t, err)

	assert.Equal(t, int64(4), h.ID)
	assert.Equal(t, 71, h.Score)
	assert.False(t, h.CreatedAt.IsZero())

	got, err := s.Get(context.Background(), h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Text, got.Text)
}

func TestCreate_Validation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Create(ctx, "", 50)
	assert.Error(t, err)

	_, err = s.Create(ctx, "words", 0)
	assert.Error(t, err)

	_, err = s.Create(ctx, "words", 101)
	assert.Error(t, err)

	_, err = s.Create(ctx, "words", 1)
	assert.NoError(t, err)

	_, err = s.Create(ctx, "more words", 100)
	assert.NoError(t, err)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList_Pagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	page, err := s.List(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(1), page[0].ID)

	page, err = s.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, int64(3), page[0].ID)

	// Defaults kick in for non-positive limit.
	page, err = s.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("by text", func(t *testing.T) {
		results, err := s.Search(ctx, "candle", 0)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 78, results[0].Score)
	})

	t.Run("by min score", func(t *testing.T) {
		results, err := s.Search(ctx, "", 85)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("combined", func(t *testing.T) {
		results, err := s.Search(ctx, "pond", 90)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, 92, results[0].Score)
	})

	t.Run("no filters returns all", func(t *testing.T) {
		results, err := s.Search(ctx, "", 0)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("no matches", func(t *testing.T) {
		results, err := s.Search(ctx, "skyscraper", 0)
		require.NoError(t, err)
		assert.Empty(t, results)
	})
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, 1))

	_, err := s.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, 1), ErrNotFound)
}
