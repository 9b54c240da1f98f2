package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelup/internal/api"
	"levelup/internal/models"
	"levelup/internal/pkg/auth"
	"levelup/internal/pkg/logger"
)

// fakeBackend is a minimal profile backend recording every PATCH in arrival
// order.
type fakeBackend struct {
	mu      sync.Mutex
	profile models.Profile
	patches []models.ProfilePatch
	wrongs  []models.WrongAnswer
	failing bool
}

func (f *fakeBackend) router(t *testing.T) chi.Router {
	t.Helper()
	router := chi.NewRouter()

	router.Post("/api/auth/login", func(res http.ResponseWriter, req *http.Request) {
		token, err := auth.GenerateToken("alice", "user", "user-1")
		require.NoError(t, err)
		json.NewEncoder(res).Encode(models.AuthResponse{Token: token})
	})
	router.Get("/api/profile/{username}", func(res http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(res).Encode(f.profile)
	})
	router.Patch("/api/profile/{username}", func(res http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failing {
			res.WriteHeader(http.StatusBadRequest)
			return
		}
		var patch models.ProfilePatch
		require.NoError(t, json.NewDecoder(req.Body).Decode(&patch))
		f.patches = append(f.patches, patch)
		if patch.MaxLevel != nil {
			f.profile.MaxLevel = *patch.MaxLevel
		}
		if patch.Achievements != nil {
			f.profile.Achievements = *patch.Achievements
		}
		if patch.TotalPoints != nil {
			f.profile.TotalPoints = *patch.TotalPoints
		}
		if patch.HintPoints != nil {
			f.profile.HintPoints = *patch.HintPoints
		}
		if patch.TakenHintLevels != nil {
			f.profile.TakenHintLevels = *patch.TakenHintLevels
		}
		json.NewEncoder(res).Encode(models.ProfileResponse{Profile: &f.profile})
	})
	router.Patch("/api/profile/{username}/wrong-answer", func(res http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failing {
			res.WriteHeader(http.StatusBadRequest)
			return
		}
		var body struct {
			WrongAnswer models.WrongAnswer `json:"wrongAnswer"`
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		f.wrongs = append(f.wrongs, body.WrongAnswer)
		f.profile.WrongAnswers = append(f.profile.WrongAnswers, body.WrongAnswer)
		json.NewEncoder(res).Encode(models.ProfileResponse{Profile: &f.profile})
	})
	router.Post("/api/profile/{username}/daily-streak", func(res http.ResponseWriter, req *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		json.NewEncoder(res).Encode(models.ProfileResponse{Profile: &f.profile})
	})
	router.Post("/api/transactions", func(res http.ResponseWriter, req *http.Request) {
		var tx models.Transaction
		require.NoError(t, json.NewDecoder(req.Body).Decode(&tx))
		tx.ID = "tx-1"
		res.WriteHeader(http.StatusCreated)
		json.NewEncoder(res).Encode(tx)
	})
	return router
}

func (f *fakeBackend) patchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.patches)
}

func newTestSession(t *testing.T, backend *fakeBackend) *Session {
	t.Helper()
	l, err := logger.CreateLogger("error")
	require.NoError(t, err)

	server := httptest.NewServer(backend.router(t))
	t.Cleanup(server.Close)

	intervals := Intervals{Profile: time.Hour, Transactions: time.Hour, Leaderboard: time.Hour}
	sess := NewSession(api.NewClient(server.URL, l), nil, intervals, l)
	t.Cleanup(sess.Close)
	return sess
}

func TestLoginInstallsIdentityAndProfile(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice", MaxLevel: 5, HintPoints: 40}}
	sess := newTestSession(t, backend)

	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	assert.True(t, sess.Authenticated())
	identity := sess.Identity()
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, 5, sess.Profile().MaxLevel)
}

func TestSetMaxLevelOptimisticEcho(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice", MaxLevel: 3}}
	sess := newTestSession(t, backend)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	sess.SetMaxLevel(4)

	// The echo is immediate, before any backend round trip.
	assert.Equal(t, 4, sess.Profile().MaxLevel)

	require.Eventually(t, func() bool { return backend.patchCount() >= 1 }, 2*time.Second, 10*time.Millisecond)
	backend.mu.Lock()
	patch := backend.patches[0]
	backend.mu.Unlock()
	require.NotNil(t, patch.MaxLevel)
	assert.Equal(t, 4, *patch.MaxLevel)
	assert.Nil(t, patch.Achievements)
}

func TestSetMaxLevelNeverLowers(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice", MaxLevel: 9}}
	sess := newTestSession(t, backend)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	sess.SetMaxLevel(2)
	assert.Equal(t, 9, sess.Profile().MaxLevel)
}

func TestUnlockAchievementIdempotent(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice"}}
	sess := newTestSession(t, backend)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	sess.UnlockAchievement("CONSISTENT_100", 200)
	sess.UnlockAchievement("CONSISTENT_100", 200)

	profile := sess.Profile()
	assert.Equal(t, []string{"CONSISTENT_100"}, profile.Achievements)
	assert.Equal(t, 200, profile.TotalPoints)

	require.Eventually(t, func() bool { return backend.patchCount() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, backend.patchCount(), "second unlock must not reach the backend")
}

func TestMutationsAppliedInOrder(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice"}}
	sess := newTestSession(t, backend)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	sess.SetMaxLevel(1)
	sess.SetMaxLevel(2)
	sess.SetMaxLevel(3)

	require.Eventually(t, func() bool { return backend.patchCount() >= 3 }, 2*time.Second, 10*time.Millisecond)
	backend.mu.Lock()
	defer backend.mu.Unlock()
	var got []int
	for _, patch := range backend.patches {
		if patch.MaxLevel != nil {
			got = append(got, *patch.MaxLevel)
		}
	}
	assert.Equal(t, []int{1, 2, 3}, got)
}

func TestRecordWrongAnswerKeepsLocalCopyOnFailure(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice"}, failing: true}
	sess := newTestSession(t, backend)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	sess.RecordWrongAnswer(models.WrongAnswer{Question: "q", Answer: "a", LevelNumber: 2})

	// The local echo survives the backend failure.
	require.Eventually(t, func() bool {
		return len(sess.Profile().WrongAnswers) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, sess.Profile().WrongAnswers[0].LevelNumber)
}

func TestSpendHintPoints(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice", HintPoints: 15}}
	sess := newTestSession(t, backend)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	require.NoError(t, sess.SpendHintPoints(0, 10))
	assert.Equal(t, 5, sess.Profile().HintPoints)

	// The same hint is free afterwards.
	require.NoError(t, sess.SpendHintPoints(0, 10))
	assert.Equal(t, 5, sess.Profile().HintPoints)

	// A different hint is no longer affordable.
	assert.ErrorIs(t, sess.SpendHintPoints(1, 10), ErrInsufficientHintPoints)
}

func TestSpendHintPointsRequiresLogin(t *testing.T) {
	backend := &fakeBackend{}
	sess := newTestSession(t, backend)

	assert.ErrorIs(t, sess.SpendHintPoints(0, 10), ErrNotAuthenticated)
}

func TestRequestHintPoints(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice"}}
	sess := newTestSession(t, backend)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	tx, err := sess.RequestHintPoints(context.Background(), "", "mega-pack")
	require.NoError(t, err)
	assert.Equal(t, "alice", tx.Username)
	assert.Equal(t, "mega-pack", tx.SelectedPackage)
	assert.NotEmpty(t, tx.TransactionID, "a transaction id must be generated")
	assert.Equal(t, models.TransactionPending, tx.ApproveStatus)
}

func TestLogoutClearsState(t *testing.T) {
	backend := &fakeBackend{profile: models.Profile{Username: "alice", MaxLevel: 3}}
	sess := newTestSession(t, backend)
	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))

	sess.Logout(context.Background())

	assert.False(t, sess.Authenticated())
	assert.Empty(t, sess.Identity().Username)
	assert.Zero(t, sess.Profile().MaxLevel)
}

func TestResumeWithoutCache(t *testing.T) {
	backend := &fakeBackend{}
	sess := newTestSession(t, backend)

	assert.ErrorIs(t, sess.Resume(context.Background()), ErrNoSavedSession)
}

func TestTokenAttachedAfterLogin(t *testing.T) {
	var sawBearer atomic.Bool
	backend := &fakeBackend{profile: models.Profile{Username: "alice"}}
	router := backend.router(t)

	wrapped := http.HandlerFunc(func(res http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
			sawBearer.Store(true)
		}
		router.ServeHTTP(res, req)
	})
	server := httptest.NewServer(wrapped)
	t.Cleanup(server.Close)

	l, err := logger.CreateLogger("error")
	require.NoError(t, err)
	sess := NewSession(api.NewClient(server.URL, l), nil, Intervals{Profile: time.Hour, Transactions: time.Hour, Leaderboard: time.Hour}, l)
	t.Cleanup(sess.Close)

	require.NoError(t, sess.Login(context.Background(), "alice", "secret"))
	assert.True(t, sawBearer.Load())
}
