package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/numguess/internal/db"
	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/store"
)

func newSQLStore(t *testing.T) store.Store {
	t.Helper()
	conn, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(context.Background(), conn))
	return store.NewSQLStore(conn)
}

func TestStores(t *testing.T) {
	impls := map[string]func(t *testing.T) store.Store{
		"memory": func(*testing.T) store.Store { return store.NewMemoryStore() },
		"sql":    newSQLStore,
	}
	for name, mk := range impls {
		t.Run(name, func(t *testing.T) {
			t.Run("SaveGet", func(t *testing.T) { testSaveGet(t, mk(t)) })
			t.Run("NotFound", func(t *testing.T) { testNotFound(t, mk(t)) })
			t.Run("NoAliasing", func(t *testing.T) { testNoAliasing(t, mk(t)) })
			t.Run("ListAndClaim", func(t *testing.T) { testListAndClaim(t, mk(t)) })
		})
	}
}

func testSaveGet(t *testing.T, st store.Store) {
	assert := assert.New(t)
	ctx := context.Background()

	g, err := game.New(0, 22, game.WithMaxGuesses(8))
	require.NoError(t, err)
	_, _, err = g.Apply(game.FeedbackGreater)
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, g))

	got, err := st.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(g.ID, got.ID)
	assert.Equal(17, got.Guess())
	assert.Equal([]int{11, 17}, got.Guesses)
	assert.Equal([]game.Feedback{game.FeedbackGreater}, got.Feedback)
	assert.Equal(8, got.MaxGuesses)
	assert.Equal(game.StatusPlaying, got.Status)
	assert.WithinDuration(g.StartedAt, got.StartedAt, time.Millisecond)
	assert.True(got.FinishedAt.IsZero())

	// Update in place and finish.
	_, _, err = got.Apply(game.FeedbackGreater)
	require.NoError(t, err)
	_, status, err := got.Apply(game.FeedbackCorrect)
	require.NoError(t, err)
	require.Equal(t, game.StatusWon, status)
	require.NoError(t, st.Save(ctx, got))

	final, err := st.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(game.StatusWon, final.Status)
	assert.Equal([]int{11, 17, 20}, final.Guesses)
	assert.False(final.FinishedAt.IsZero())
}

func testNotFound(t *testing.T, st store.Store) {
	_, err := st.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testNoAliasing(t *testing.T, st store.Store) {
	ctx := context.Background()
	g, err := game.New(0, 100)
	require.NoError(t, err)
	require.NoError(t, st.Save(ctx, g))

	a, err := st.Get(ctx, g.ID)
	require.NoError(t, err)
	_, _, err = a.Apply(game.FeedbackLower)
	require.NoError(t, err)

	b, err := st.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, b.Guess(), "unsaved changes must not leak into the store")
}

func testListAndClaim(t *testing.T, st store.Store) {
	assert := assert.New(t)
	ctx := context.Background()

	older, err := game.New(0, 10, game.WithOwner("user-1", ""))
	require.NoError(t, err)
	older.StartedAt = time.Now().Add(-time.Hour).UTC()
	newer, err := game.New(0, 20, game.WithOwner("user-1", ""))
	require.NoError(t, err)
	anon, err := game.New(0, 30, game.WithOwner("", "anon-1"))
	require.NoError(t, err)
	other, err := game.New(0, 40, game.WithOwner("user-2", ""))
	require.NoError(t, err)
	for _, g := range []*game.Game{older, newer, anon, other} {
		require.NoError(t, st.Save(ctx, g))
	}

	list, err := st.ListByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(newer.ID, list[0].ID)
	assert.Equal(older.ID, list[1].ID)

	limited, err := st.ListByUser(ctx, "user-1", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(newer.ID, limited[0].ID)

	require.NoError(t, st.ClaimAnon(ctx, "anon-1", "user-1"))
	list, err = st.ListByUser(ctx, "user-1", 10)
	require.NoError(t, err)
	assert.Len(list, 3)

	claimed, err := st.Get(ctx, anon.ID)
	require.NoError(t, err)
	assert.Equal("user-1", claimed.UserID)
	assert.Empty(claimed.AnonID)

	none, err := st.ListByUser(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.Empty(none)
}
