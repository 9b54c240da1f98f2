// Package stub implements an in-memory development backend speaking the same
// REST and WebSocket contract as the production quiz service. It exists so the
// client, the integration tests, and local demos can run without the real
// backend. Nothing here survives a restart.
package stub

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"levelup/internal/models"
	"levelup/internal/pkg/logger"
	"levelup/internal/pkg/security"
)

// Predefined store errors.
var (
	ErrUserExists   = errors.New("stub: user already exists")
	ErrUserNotFound = errors.New("stub: user not found")
	ErrNotFound     = errors.New("stub: not found")
)

// user is one registered account.
type user struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
}

// Backend holds the whole in-memory world behind one mutex. The request rate
// of a development setup never makes the single lock a problem.
type Backend struct {
	log *logger.Logger
	hub *Hub

	mu           sync.Mutex
	users        map[string]*user
	profiles     map[string]*models.Profile
	levels       []models.Level
	transactions []models.Transaction
	puzzles      []models.Puzzle
	surveys      []models.SurveyResponse
	messages     map[string][]models.ChatMessage
}

// NewBackend creates an empty backend. Seed levels with SeedLevels before
// pointing a client at it.
func NewBackend(l *logger.Logger) *Backend {
	backend := &Backend{
		log:      l,
		users:    make(map[string]*user),
		profiles: make(map[string]*models.Profile),
		messages: make(map[string][]models.ChatMessage),
	}
	backend.hub = newHub(backend, l)
	return backend
}

// SeedLevels replaces the level catalog.
func (b *Backend) SeedLevels(levels []models.Level) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.levels = make([]models.Level, len(levels))
	copy(b.levels, levels)
	for i := range b.levels {
		if b.levels[i].ID == "" {
			b.levels[i].ID = uuid.NewString()
		}
	}
}

// createUser registers an account and its starter profile.
func (b *Backend) createUser(username, email, password, role string) (*user, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.users[username]; ok {
		return nil, ErrUserExists
	}

	u := &user{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: security.HashPassword(password),
		Role:         role,
	}
	b.users[username] = u
	b.profiles[username] = &models.Profile{
		ID:         uuid.NewString(),
		Username:   username,
		HintPoints: 100,
	}
	return u, nil
}

// checkUser verifies credentials and returns the account.
func (b *Backend) checkUser(username, password string) (*user, error) {
	b.mu.Lock()
	u, ok := b.users[username]
	b.mu.Unlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return nil, err
	}
	return u, nil
}

// profileCopy returns a snapshot of the named profile.
func (b *Backend) profileCopy(username string) (models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	profile, ok := b.profiles[username]
	if !ok {
		return models.Profile{}, ErrUserNotFound
	}
	return *profile, nil
}

// patchProfile applies the non-nil fields of the patch and returns the result.
func (b *Backend) patchProfile(username string, patch models.ProfilePatch) (models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	profile, ok := b.profiles[username]
	if !ok {
		return models.Profile{}, ErrUserNotFound
	}

	if patch.HintPoints != nil {
		profile.HintPoints = *patch.HintPoints
	}
	if patch.TotalPoints != nil {
		profile.TotalPoints = *patch.TotalPoints
	}
	if patch.MaxLevel != nil {
		profile.MaxLevel = *patch.MaxLevel
	}
	if patch.Achievements != nil {
		profile.Achievements = append([]string(nil), *patch.Achievements...)
	}
	if patch.Rewards != nil {
		profile.Rewards = append([]string(nil), *patch.Rewards...)
	}
	if patch.TakenHintLevels != nil {
		profile.TakenHintLevels = append([]int(nil), *patch.TakenHintLevels...)
	}
	return *profile, nil
}

// addWrongAnswer appends a wrong-answer record to the profile.
func (b *Backend) addWrongAnswer(username string, wrong models.WrongAnswer) (models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	profile, ok := b.profiles[username]
	if !ok {
		return models.Profile{}, ErrUserNotFound
	}
	profile.WrongAnswers = append(profile.WrongAnswers, wrong)
	return *profile, nil
}

// bumpDailyStreak advances the daily streak when the player shows up on a new
// day. A missed day resets the streak to one.
func (b *Backend) bumpDailyStreak(username string, now time.Time) (models.Profile, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	profile, ok := b.profiles[username]
	if !ok {
		return models.Profile{}, ErrUserNotFound
	}

	today := now.Format("2006-01-02")
	last := ""
	if profile.LastPlayedDate != "" {
		if t, err := time.Parse(time.RFC3339, profile.LastPlayedDate); err == nil {
			last = t.Format("2006-01-02")
		}
	}
	if last != today {
		yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
		if last == yesterday {
			profile.CurrentStreak++
		} else {
			profile.CurrentStreak = 1
		}
		if profile.CurrentStreak > profile.LongestStreak {
			profile.LongestStreak = profile.CurrentStreak
		}
		profile.LastPlayedDate = now.Format(time.RFC3339)
	}
	return *profile, nil
}

// createTransaction records a pending hint-point purchase.
func (b *Backend) createTransaction(tx models.Transaction) models.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	tx.ID = uuid.NewString()
	tx.ApproveStatus = models.TransactionPending
	b.transactions = append(b.transactions, tx)
	return tx
}

// userTransactions lists the transactions created by a user.
func (b *Backend) userTransactions(username string) []models.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	var txs []models.Transaction
	for _, tx := range b.transactions {
		if tx.Username == username {
			txs = append(txs, tx)
		}
	}
	return txs
}

// allTransactions lists every transaction.
func (b *Backend) allTransactions() []models.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Transaction(nil), b.transactions...)
}

// setTransactionStatus moves a transaction to a new approval status.
func (b *Backend) setTransactionStatus(id, status string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.transactions {
		if b.transactions[i].ID == id {
			b.transactions[i].ApproveStatus = status
			return nil
		}
	}
	return ErrNotFound
}

// leaderboard ranks every profile by total points. Profiles are snapshotted
// by value so sorting never reads through pointers mutated under b.mu.
func (b *Backend) leaderboard() []models.LeaderboardEntry {
	b.mu.Lock()
	profiles := make([]models.Profile, 0, len(b.profiles))
	for _, p := range b.profiles {
		profiles = append(profiles, *p)
	}
	b.mu.Unlock()

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].TotalPoints != profiles[j].TotalPoints {
			return profiles[i].TotalPoints > profiles[j].TotalPoints
		}
		return profiles[i].Username < profiles[j].Username
	})

	entries := make([]models.LeaderboardEntry, 0, len(profiles))
	for i, p := range profiles {
		entries = append(entries, models.LeaderboardEntry{
			Rank:        i + 1,
			Username:    p.Username,
			TotalPoints: p.TotalPoints,
			MaxLevel:    p.MaxLevel,
		})
	}
	return entries
}

// ranking finds one player's row on the global leaderboard.
func (b *Backend) ranking(username string) (models.Ranking, error) {
	for _, entry := range b.leaderboard() {
		if entry.Username == username {
			return models.Ranking{
				Username:    entry.Username,
				Rank:        entry.Rank,
				TotalPoints: entry.TotalPoints,
			}, nil
		}
	}
	return models.Ranking{}, ErrUserNotFound
}

// createPuzzle publishes a community puzzle.
func (b *Backend) createPuzzle(puzzle models.Puzzle) models.Puzzle {
	b.mu.Lock()
	defer b.mu.Unlock()
	puzzle.ID = uuid.NewString()
	b.puzzles = append(b.puzzles, puzzle)
	return puzzle
}

// puzzleByID fetches one puzzle.
func (b *Backend) puzzleByID(id string) (models.Puzzle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.puzzles {
		if p.ID == id {
			return p, nil
		}
	}
	return models.Puzzle{}, ErrNotFound
}

// marketplace lists every published puzzle.
func (b *Backend) marketplace() []models.Puzzle {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Puzzle(nil), b.puzzles...)
}

// recordPuzzlePlay bumps the play counter.
func (b *Backend) recordPuzzlePlay(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.puzzles {
		if b.puzzles[i].ID == id {
			b.puzzles[i].Plays++
			return
		}
	}
}

// reviewPuzzle folds a new rating into the puzzle's running average.
func (b *Backend) reviewPuzzle(id string, rating int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.puzzles {
		if b.puzzles[i].ID == id {
			p := &b.puzzles[i]
			p.Rating = (p.Rating*float64(p.Reviews) + float64(rating)) / float64(p.Reviews+1)
			p.Reviews++
			return nil
		}
	}
	return ErrNotFound
}

// addSurvey records a survey response.
func (b *Backend) addSurvey(survey models.SurveyResponse) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.surveys = append(b.surveys, survey)
}

// surveySummary aggregates the submitted surveys.
func (b *Backend) surveySummary() models.SurveySummary {
	b.mu.Lock()
	defer b.mu.Unlock()
	summary := models.SurveySummary{Count: len(b.surveys)}
	if summary.Count == 0 {
		return summary
	}
	total := 0
	for _, s := range b.surveys {
		total += s.Rating
	}
	summary.AverageRating = float64(total) / float64(summary.Count)
	return summary
}

// allSurveys lists every survey response.
func (b *Backend) allSurveys() []models.SurveyResponse {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.SurveyResponse(nil), b.surveys...)
}

// appendMessage persists a chat message for the history endpoint.
func (b *Backend) appendMessage(msg models.ChatMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages[msg.RoomID] = append(b.messages[msg.RoomID], msg)
}

// roomMessages returns the persisted history of one room.
func (b *Backend) roomMessages(roomID string) []models.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.ChatMessage(nil), b.messages[roomID]...)
}

// levelsCopy returns a snapshot of the catalog.
func (b *Backend) levelsCopy() []models.Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Level(nil), b.levels...)
}

// addLevel appends a level to the catalog.
func (b *Backend) addLevel(level models.Level) models.Level {
	b.mu.Lock()
	defer b.mu.Unlock()
	level.ID = uuid.NewString()
	b.levels = append(b.levels, level)
	return level
}

// updateLevel replaces the level with the given id.
func (b *Backend) updateLevel(id string, level models.Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.levels {
		if b.levels[i].ID == id {
			level.ID = id
			b.levels[i] = level
			return nil
		}
	}
	return ErrNotFound
}

// deleteLevel removes the level with the given id.
func (b *Backend) deleteLevel(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.levels {
		if b.levels[i].ID == id {
			b.levels = append(b.levels[:i], b.levels[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
