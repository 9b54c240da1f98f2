package stub

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelup/internal/models"
	"levelup/internal/pkg/logger"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)
	return NewBackend(l)
}

func intPtr(v int) *int { return &v }

func TestLeaderboardOrdering(t *testing.T) {
	backend := newTestBackend(t)
	for _, username := range []string{"alice", "bob", "carol"} {
		_, err := backend.createUser(username, username+"@example.com", "secret", "user")
		require.NoError(t, err)
	}

	_, err := backend.patchProfile("alice", models.ProfilePatch{TotalPoints: intPtr(300)})
	require.NoError(t, err)
	_, err = backend.patchProfile("bob", models.ProfilePatch{TotalPoints: intPtr(500)})
	require.NoError(t, err)
	_, err = backend.patchProfile("carol", models.ProfilePatch{TotalPoints: intPtr(300)})
	require.NoError(t, err)

	entries := backend.leaderboard()
	require.Len(t, entries, 3)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)
	// Ties rank by username.
	assert.Equal(t, "alice", entries[1].Username)
	assert.Equal(t, "carol", entries[2].Username)
	assert.Equal(t, 3, entries[2].Rank)
}

func TestLeaderboardConcurrentWithProfileWrites(t *testing.T) {
	backend := newTestBackend(t)
	usernames := make([]string, 4)
	for i := range usernames {
		usernames[i] = fmt.Sprintf("player-%d", i)
		_, err := backend.createUser(usernames[i], usernames[i]+"@example.com", "secret", "user")
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	for _, username := range usernames {
		wg.Add(1)
		go func(username string) {
			defer wg.Done()
			for points := 0; points < 200; points++ {
				_, err := backend.patchProfile(username, models.ProfilePatch{TotalPoints: intPtr(points)})
				assert.NoError(t, err)
				_, err = backend.addWrongAnswer(username, models.WrongAnswer{LevelNumber: points})
				assert.NoError(t, err)
			}
		}(username)
	}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				entries := backend.leaderboard()
				assert.Len(t, entries, len(usernames))
			}
		}()
	}
	wg.Wait()
}

func TestReviewPuzzleAveragesOverReviews(t *testing.T) {
	backend := newTestBackend(t)
	puzzle := backend.createPuzzle(models.Puzzle{Title: "loops", Answer: "for"})

	// Plays accumulated before the first review must not dilute the average.
	for i := 0; i < 5; i++ {
		backend.recordPuzzlePlay(puzzle.ID)
	}

	require.NoError(t, backend.reviewPuzzle(puzzle.ID, 5))
	got, err := backend.puzzleByID(puzzle.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Rating)
	assert.Equal(t, 1, got.Reviews)

	require.NoError(t, backend.reviewPuzzle(puzzle.ID, 3))
	got, err = backend.puzzleByID(puzzle.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 2, got.Reviews)
	assert.Equal(t, 5, got.Plays)
}

func TestReviewPuzzleUnknownID(t *testing.T) {
	backend := newTestBackend(t)
	assert.ErrorIs(t, backend.reviewPuzzle("missing", 4), ErrNotFound)
}
