// Package session owns the authenticated user's state: the bearer token, the
// identity decoded from it, and the cached profile. Every profile mutation in
// the application funnels through this package's serialized FIFO queue, which
// applies an optimistic local echo immediately and then writes to the backend
// best-effort. Backend failures never block or roll back gameplay; the cache
// is reconciled by the periodic pollers and by successful write responses.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"levelup/internal/api"
	"levelup/internal/models"
	"levelup/internal/pkg/auth"
	"levelup/internal/pkg/logger"
	"levelup/internal/store"
)

// Predefined errors for session operations.
var (
	// ErrNotAuthenticated indicates an operation that requires a logged-in user.
	ErrNotAuthenticated = errors.New("session: not authenticated")
	// ErrInsufficientHintPoints indicates the player cannot afford a hint.
	ErrInsufficientHintPoints = errors.New("session: insufficient hint points")
	// ErrNoSavedSession indicates Resume found no persisted token.
	ErrNoSavedSession = errors.New("session: no saved session")
)

const mutationQueueSize = 128

// Intervals for the background pollers. They run on independent schedules and
// overlapping fetches resolve last-response-wins.
type Intervals struct {
	Profile      time.Duration
	Transactions time.Duration
	Leaderboard  time.Duration
}

// DefaultIntervals matches the cadence of the web client.
func DefaultIntervals() Intervals {
	return Intervals{
		Profile:      15 * time.Second,
		Transactions: 10 * time.Second,
		Leaderboard:  30 * time.Second,
	}
}

type mutation func(ctx context.Context)

// Session is the session and profile store. It is safe for concurrent use.
type Session struct {
	api       *api.Client
	cache     *store.Store
	log       *logger.Logger
	intervals Intervals

	mu           sync.RWMutex
	token        string
	identity     auth.Identity
	profile      models.Profile
	transactions []models.Transaction
	leaderboard  []models.LeaderboardEntry

	queue  chan mutation
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSession creates a Session. The cache may be nil, in which case nothing is
// persisted across restarts and failed wrong-answer writes stay local-only.
func NewSession(client *api.Client, cache *store.Store, intervals Intervals, l *logger.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		api:       client,
		cache:     cache,
		log:       l,
		intervals: intervals,
		queue:     make(chan mutation, mutationQueueSize),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

// worker applies queued profile mutations one at a time, in submission order.
func (s *Session) worker() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case m := <-s.queue:
			m(s.ctx)
		}
	}
}

// enqueue submits a mutation without ever blocking the caller. A full queue
// drops the mutation; the next poll cycle repairs any divergence.
func (s *Session) enqueue(m mutation) {
	select {
	case s.queue <- m:
	default:
		s.log.Warn("profile mutation queue full, dropping mutation")
	}
}

// Login authenticates, installs the token, loads the profile, triggers the
// daily-streak check, replays any queued wrong answers, and starts the pollers.
func (s *Session) Login(ctx context.Context, username, password string) error {
	token, err := s.api.Login(ctx, username, password)
	if err != nil {
		return err
	}
	return s.install(ctx, token)
}

// Register creates a new account. The caller logs in separately; registration
// never installs a token.
func (s *Session) Register(ctx context.Context, req models.RegisterRequest) error {
	return s.api.Register(ctx, req)
}

// Resume restores the previous session from the local cache.
func (s *Session) Resume(ctx context.Context) error {
	if s.cache == nil {
		return ErrNoSavedSession
	}
	token, err := s.cache.LoadToken(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNoSavedSession
	}
	if err != nil {
		return err
	}
	return s.install(ctx, token)
}

func (s *Session) install(ctx context.Context, token string) error {
	identity, err := auth.DecodeIdentity(token)
	if err != nil {
		return fmt.Errorf("session: decode token: %w", err)
	}

	s.api.SetToken(token)
	s.mu.Lock()
	s.token = token
	s.identity = identity
	s.profile = models.Profile{Username: identity.Username}
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.SaveToken(ctx, token); err != nil {
			s.log.Sugar().Errorf("Failed to persist token: %s", err)
		}
	}

	s.refreshProfile(ctx)
	s.enqueue(s.dailyStreakMutation())
	s.enqueue(s.replayPendingMutation())
	s.startPollers()
	return nil
}

// Logout stops the pollers and clears the token locally and from the cache.
func (s *Session) Logout(ctx context.Context) {
	s.stopPollers()

	s.mu.Lock()
	s.token = ""
	s.identity = auth.Identity{}
	s.profile = models.Profile{}
	s.transactions = nil
	s.mu.Unlock()

	s.api.SetToken("")
	if s.cache != nil {
		if err := s.cache.DeleteToken(ctx); err != nil {
			s.log.Sugar().Errorf("Failed to delete persisted token: %s", err)
		}
	}
}

// Close stops all background work. The session is unusable afterwards.
func (s *Session) Close() {
	s.stopPollers()
	s.cancel()
	s.wg.Wait()
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

// Identity returns the identity decoded from the bearer token.
func (s *Session) Identity() auth.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// Profile returns a copy of the cached profile.
func (s *Session) Profile() models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Transactions returns the cached transaction list for the current user.
func (s *Session) Transactions() []models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Transaction(nil), s.transactions...)
}

// Leaderboard returns the cached global leaderboard.
func (s *Session) Leaderboard() []models.LeaderboardEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.LeaderboardEntry(nil), s.leaderboard...)
}

// SetMaxLevel enqueues a best-effort maxLevel update. The cached profile is
// echoed immediately; the backend's response wins on success.
func (s *Session) SetMaxLevel(level int) {
	s.mu.Lock()
	username := s.profile.Username
	if level > s.profile.MaxLevel {
		s.profile.MaxLevel = level
	}
	s.mu.Unlock()
	if username == "" {
		return
	}

	s.enqueue(func(ctx context.Context) {
		patch := models.ProfilePatch{MaxLevel: &level}
		updated, err := s.api.PatchProfile(ctx, username, patch)
		if err != nil {
			s.log.Sugar().Errorf("Failed to update max level: %s", err)
			return
		}
		if updated != nil {
			s.reconcile(ctx, updated)
		}
	})
}

// UnlockAchievement enqueues a best-effort achievement unlock with its point
// reward. Already-unlocked achievements are a no-op.
func (s *Session) UnlockAchievement(id string, points int) {
	s.mu.Lock()
	if s.profile.HasAchievement(id) {
		s.mu.Unlock()
		return
	}
	s.profile.Achievements = append(s.profile.Achievements, id)
	s.profile.TotalPoints += points
	username := s.profile.Username
	achievements := append([]string(nil), s.profile.Achievements...)
	totalPoints := s.profile.TotalPoints
	s.mu.Unlock()
	if username == "" {
		return
	}

	s.enqueue(func(ctx context.Context) {
		patch := models.ProfilePatch{Achievements: &achievements, TotalPoints: &totalPoints}
		updated, err := s.api.PatchProfile(ctx, username, patch)
		if err != nil {
			s.log.Sugar().Errorf("Failed to persist achievement %s: %s", id, err)
			return
		}
		if updated != nil {
			s.reconcile(ctx, updated)
		}
	})
}

// RecordWrongAnswer enqueues a best-effort wrong-answer append. On backend
// failure the record stays in the local cache (and the pending queue when a
// cache is configured) so the divergence is visible and replayable.
func (s *Session) RecordWrongAnswer(wrong models.WrongAnswer) {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return
	}
	s.profile.WrongAnswers = append(s.profile.WrongAnswers, wrong)
	username := s.profile.Username
	s.mu.Unlock()

	s.enqueue(func(ctx context.Context) {
		updated, err := s.api.AddWrongAnswer(ctx, username, wrong)
		if err != nil {
			s.log.Sugar().Errorf("Failed to record wrong answer, keeping local copy: %s", err)
			if s.cache != nil {
				if cacheErr := s.cache.AddPendingWrongAnswer(ctx, username, wrong); cacheErr != nil {
					s.log.Sugar().Errorf("Failed to queue wrong answer locally: %s", cacheErr)
				}
			}
			return
		}
		if updated != nil {
			s.reconcile(ctx, updated)
		}
	})
}

// SpendHintPoints deducts the hint cost for a level and marks the hint taken.
// Already-taken hints are free. The affordability check is synchronous; the
// backend write is queued best-effort like every other profile mutation.
func (s *Session) SpendHintPoints(levelIndex, cost int) error {
	s.mu.Lock()
	if s.token == "" {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	if s.profile.HasTakenHint(levelIndex) {
		s.mu.Unlock()
		return nil
	}
	if s.profile.HintPoints < cost {
		s.mu.Unlock()
		return ErrInsufficientHintPoints
	}
	s.profile.HintPoints -= cost
	s.profile.TakenHintLevels = append(s.profile.TakenHintLevels, levelIndex)
	username := s.profile.Username
	hintPoints := s.profile.HintPoints
	taken := append([]int(nil), s.profile.TakenHintLevels...)
	s.mu.Unlock()

	s.enqueue(func(ctx context.Context) {
		patch := models.ProfilePatch{HintPoints: &hintPoints, TakenHintLevels: &taken}
		updated, err := s.api.PatchProfile(ctx, username, patch)
		if err != nil {
			s.log.Sugar().Errorf("Failed to persist hint spend: %s", err)
			return
		}
		if updated != nil {
			s.reconcile(ctx, updated)
		}
	})
	return nil
}

// RequestHintPoints creates a pending hint-point purchase transaction that an
// admin later approves or cancels.
func (s *Session) RequestHintPoints(ctx context.Context, transactionID, selectedPackage string) (*models.Transaction, error) {
	s.mu.RLock()
	username := s.profile.Username
	token := s.token
	s.mu.RUnlock()
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	tx := models.Transaction{
		Username:        username,
		TransactionID:   transactionID,
		SelectedPackage: selectedPackage,
		ApproveStatus:   models.TransactionPending,
	}
	return s.api.CreateTransaction(ctx, tx)
}

// dailyStreakMutation fires the login-time daily streak check. Failures are
// silent; a missed streak bonus surfaces on the next poll.
func (s *Session) dailyStreakMutation() mutation {
	return func(ctx context.Context) {
		s.mu.RLock()
		username := s.profile.Username
		s.mu.RUnlock()
		if username == "" {
			return
		}
		updated, err := s.api.DailyStreak(ctx, username)
		if err != nil || updated == nil {
			return
		}
		s.mu.Lock()
		s.profile.CurrentStreak = updated.CurrentStreak
		s.profile.LongestStreak = updated.LongestStreak
		s.profile.TotalPoints = updated.TotalPoints
		s.profile.HintPoints = updated.HintPoints
		s.profile.Achievements = updated.Achievements
		s.profile.Rewards = updated.Rewards
		s.profile.LastPlayedDate = time.Now().Format(time.RFC3339)
		s.mu.Unlock()
	}
}

// replayPendingMutation retries wrong-answer records queued while the backend
// was unreachable.
func (s *Session) replayPendingMutation() mutation {
	return func(ctx context.Context) {
		if s.cache == nil {
			return
		}
		s.mu.RLock()
		username := s.profile.Username
		s.mu.RUnlock()
		if username == "" {
			return
		}

		pending, err := s.cache.PendingWrongAnswers(ctx, username)
		if err != nil {
			return
		}
		for _, entry := range pending {
			if _, err := s.api.AddWrongAnswer(ctx, username, entry.Record); err != nil {
				return
			}
			if err := s.cache.DeletePendingWrongAnswer(ctx, entry.ID); err != nil {
				s.log.Sugar().Errorf("Failed to drop replayed wrong answer: %s", err)
			}
		}
	}
}

// reconcile overwrites the cached profile with the backend's view and saves a
// snapshot to the local cache.
func (s *Session) reconcile(ctx context.Context, updated *models.Profile) {
	s.mu.Lock()
	s.profile = *updated
	s.mu.Unlock()
	if s.cache != nil {
		if err := s.cache.SaveProfile(ctx, updated); err != nil {
			s.log.Sugar().Errorf("Failed to snapshot profile: %s", err)
		}
	}
}

func (s *Session) refreshProfile(ctx context.Context) {
	s.mu.RLock()
	username := s.identity.Username
	s.mu.RUnlock()
	if username == "" {
		return
	}

	profile, err := s.api.Profile(ctx, username)
	if err != nil {
		s.log.Sugar().Errorf("Failed to refresh profile: %s", err)
		return
	}
	s.reconcile(ctx, profile)
}

func (s *Session) refreshTransactions(ctx context.Context) {
	s.mu.RLock()
	username := s.identity.Username
	s.mu.RUnlock()
	if username == "" {
		return
	}

	txs, err := s.api.UserTransactions(ctx, username)
	if err != nil {
		s.log.Sugar().Errorf("Failed to refresh transactions: %s", err)
		return
	}
	s.mu.Lock()
	s.transactions = txs
	s.mu.Unlock()
}

func (s *Session) refreshLeaderboard(ctx context.Context) {
	entries, err := s.api.Leaderboard(ctx, api.PeriodGlobal)
	if err != nil {
		s.log.Sugar().Errorf("Failed to refresh leaderboard: %s", err)
		return
	}
	s.mu.Lock()
	s.leaderboard = entries
	s.mu.Unlock()
}

// startPollers schedules the independent refresh timers. The schedules are
// deliberately uncoordinated; overlapping fetches resolve last-response-wins.
func (s *Session) startPollers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return
	}

	c := cron.New()
	c.AddFunc(every(s.intervals.Profile), func() { s.refreshProfile(s.ctx) })
	c.AddFunc(every(s.intervals.Transactions), func() { s.refreshTransactions(s.ctx) })
	c.AddFunc(every(s.intervals.Leaderboard), func() { s.refreshLeaderboard(s.ctx) })
	c.Start()
	s.cron = c
}

func (s *Session) stopPollers() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}
