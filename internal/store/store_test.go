package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelup/internal/models"
	"levelup/internal/pkg/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)

	store, err := Open(filepath.Join(t.TempDir(), "cache.db"), l)
	require.NoError(t, err)
	t.Cleanup(store.Close)
	return store
}

func TestTokenRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LoadToken(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.SaveToken(ctx, "token-one"))
	token, err := store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-one", token)

	// Saving again replaces the single session row.
	require.NoError(t, store.SaveToken(ctx, "token-two"))
	token, err = store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-two", token)

	require.NoError(t, store.DeleteToken(ctx))
	_, err = store.LoadToken(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.LoadProfile(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	profile := &models.Profile{
		Username:        "alice",
		MaxLevel:        7,
		TotalPoints:     3200,
		HintPoints:      45,
		Achievements:    []string{"CONSISTENT_100"},
		TakenHintLevels: []int{0, 3},
	}
	require.NoError(t, store.SaveProfile(ctx, profile))

	loaded, err := store.LoadProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, profile, loaded)

	profile.MaxLevel = 8
	require.NoError(t, store.SaveProfile(ctx, profile))
	loaded, err = store.LoadProfile(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.MaxLevel)
}

func TestPendingWrongAnswerQueue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pending, err := store.PendingWrongAnswers(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, pending)

	first := models.WrongAnswer{Question: "q1", Answer: "a1", LevelNumber: 1}
	second := models.WrongAnswer{Question: "q2", Answer: "a2", LevelNumber: 2}
	require.NoError(t, store.AddPendingWrongAnswer(ctx, "alice", first))
	require.NoError(t, store.AddPendingWrongAnswer(ctx, "alice", second))
	require.NoError(t, store.AddPendingWrongAnswer(ctx, "bob", models.WrongAnswer{Question: "other"}))

	pending, err = store.PendingWrongAnswers(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first, pending[0].Record)
	assert.Equal(t, second, pending[1].Record)

	require.NoError(t, store.DeletePendingWrongAnswer(ctx, pending[0].ID))
	pending, err = store.PendingWrongAnswers(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, second, pending[0].Record)
}
