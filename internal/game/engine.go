// Package game implements the level-progression state machine: answer
// scoring, the two-tier streak counters, the consistency achievement ladder,
// and the explanation/completion transitions. All backend writes triggered
// here go through the profile service and are fire-and-forget; the player is
// never blocked on a failed or slow remote write.
package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"levelup/internal/models"
	"levelup/internal/pkg/logger"
)

// Predefined errors for invalid state transitions.
var (
	// ErrNotAnswering indicates an answer was submitted outside the answering phase.
	ErrNotAnswering = errors.New("game: not in answering phase")
	// ErrNotInExplanation indicates an advance was requested outside the explanation phase.
	ErrNotInExplanation = errors.New("game: not in explanation phase")
	// ErrAlreadyStarted indicates Start was called twice.
	ErrAlreadyStarted = errors.New("game: already started")
	// ErrLevelLocked indicates a jump to a level above the unlocked maximum.
	ErrLevelLocked = errors.New("game: level is locked")
)

// Phase is the engine's current state.
type Phase int

// Engine phases, in the order a session typically moves through them.
const (
	PhaseWelcome Phase = iota
	PhaseAnswering
	PhaseExplanation
	PhaseCompleted
)

// Mark is the transient visual verdict shown after an answer.
type Mark string

// Marks shown after an answer is scored.
const (
	MarkNone    Mark = ""
	MarkCorrect Mark = "✔️"
	MarkWrong   Mark = "❌"
)

// EventType discriminates the notifications the engine emits.
type EventType int

// Events emitted to the notify callback.
const (
	// EventStreakCelebration fires on every completed 10-streak except the tenth.
	EventStreakCelebration EventType = iota
	// EventSecretUnlocked replaces the tenth minor celebration with the one-time secret.
	EventSecretUnlocked
	// EventAchievementUnlocked fires when a consistency tier unlocks.
	EventAchievementUnlocked
	// EventExplanationReady fires after the post-answer delay, when the
	// explanation for the completed level should be shown.
	EventExplanationReady
	// EventCatalogCompleted fires when the player advances past the last level.
	EventCatalogCompleted
)

// Event is one engine notification.
type Event struct {
	Type            EventType
	Message         string
	AchievementID   string
	AchievementName string
	Points          int
	LevelIndex      int
	StreaksAchieved int
}

// ProfileService is the engine's gateway to the session and profile store.
// Implementations apply mutations optimistically and write through to the
// backend best-effort.
type ProfileService interface {
	Authenticated() bool
	Profile() models.Profile
	SetMaxLevel(level int)
	UnlockAchievement(id string, points int)
	RecordWrongAnswer(wrong models.WrongAnswer)
}

const (
	// streakWindow is the size of the minor-celebration streak window.
	streakWindow = 10
	// secretThreshold is the number of completed windows that trigger the secret.
	secretThreshold = 10
	// explanationDelay is how long the mark stays up before the explanation shows.
	explanationDelay = 1500 * time.Millisecond
)

// Engine drives level progression for one player session.
// It is safe for concurrent use.
type Engine struct {
	profiles ProfileService
	notify   func(Event)
	log      *logger.Logger

	// afterFunc schedules delayed transitions; replaced in tests.
	afterFunc func(d time.Duration, f func()) *time.Timer

	mu                  sync.Mutex
	levels              []models.Level
	phase               Phase
	levelIndex          int
	completedLevelIndex int
	mark                Mark
	streakCount         int
	streaksAchieved     int
	consistencyStreak   int
}

// NewEngine creates an Engine over the given level catalog. The notify
// callback may be nil; it is invoked outside the engine's lock.
func NewEngine(levels []models.Level, profiles ProfileService, notify func(Event), l *logger.Logger) *Engine {
	if notify == nil {
		notify = func(Event) {}
	}
	return &Engine{
		profiles:            profiles,
		notify:              notify,
		log:                 l,
		afterFunc:           time.AfterFunc,
		levels:              levels,
		phase:               PhaseWelcome,
		completedLevelIndex: -1,
	}
}

// Start leaves the welcome phase and resumes at the highest unlocked level.
// A player who has exhausted the catalog lands directly in the completed phase.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseWelcome {
		return ErrAlreadyStarted
	}

	if maxLevel := e.profiles.Profile().MaxLevel; maxLevel > 0 {
		e.levelIndex = maxLevel
	}
	if e.levelIndex >= len(e.levels) {
		e.phase = PhaseCompleted
		return nil
	}
	e.phase = PhaseAnswering
	return nil
}

// CurrentLevel returns the level being answered, if any.
func (e *Engine) CurrentLevel() (models.Level, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseAnswering || e.levelIndex >= len(e.levels) {
		return models.Level{}, false
	}
	return e.levels[e.levelIndex], true
}

// CompletedLevel returns the level whose explanation is being shown, if any.
func (e *Engine) CompletedLevel() (models.Level, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.phase != PhaseExplanation || e.completedLevelIndex < 0 || e.completedLevelIndex >= len(e.levels) {
		return models.Level{}, false
	}
	return e.levels[e.completedLevelIndex], true
}

// SubmitAnswer scores the given answer against the current level. It returns
// whether the answer was correct. On a correct answer the explanation
// transition is scheduled after a fixed delay; on a wrong answer the mark is
// cleared after the same delay and all streak counters reset.
func (e *Engine) SubmitAnswer(userAnswer string) (bool, error) {
	e.mu.Lock()
	if e.phase != PhaseAnswering || e.levelIndex >= len(e.levels) {
		e.mu.Unlock()
		return false, ErrNotAnswering
	}

	level := e.levels[e.levelIndex]
	correct := NormalizeAnswer(level.Answer) == NormalizeAnswer(userAnswer)

	var events []Event
	if correct {
		events = e.applyCorrect()
	} else {
		e.applyWrong(level)
	}
	idx := e.levelIndex
	e.mu.Unlock()

	for _, ev := range events {
		e.notify(ev)
	}

	if correct {
		e.afterFunc(explanationDelay, func() { e.showExplanation(idx) })
	} else {
		e.afterFunc(explanationDelay, func() { e.clearWrongMark(idx) })
	}
	return correct, nil
}

// applyCorrect runs the correct-answer bookkeeping. Caller holds the lock.
func (e *Engine) applyCorrect() []Event {
	e.mark = MarkCorrect
	e.streakCount++
	e.consistencyStreak++

	var events []Event
	profile := e.profiles.Profile()

	for _, ach := range ConsistencyAchievements {
		if e.consistencyStreak == ach.Threshold && !profile.HasAchievement(ach.ID) {
			e.log.Sugar().Infof("Consistency achievement unlocked: %s", ach.ID)
			e.profiles.UnlockAchievement(ach.ID, ach.Points)
			events = append(events, Event{
				Type:            EventAchievementUnlocked,
				AchievementID:   ach.ID,
				AchievementName: ach.Name,
				Points:          ach.Points,
			})
		}
	}

	if e.streakCount == streakWindow {
		e.streakCount = 0
		e.streaksAchieved++
		if e.streaksAchieved == secretThreshold {
			e.streaksAchieved = 0
			events = append(events, Event{Type: EventSecretUnlocked})
		} else {
			events = append(events, Event{
				Type:            EventStreakCelebration,
				Message:         congratsMessages[rand.Intn(len(congratsMessages))],
				StreaksAchieved: e.streaksAchieved,
			})
		}
	}

	// Persist the newly unlocked level, never the level index itself.
	if e.levelIndex >= profile.MaxLevel {
		e.profiles.SetMaxLevel(e.levelIndex + 1)
	}
	return events
}

// applyWrong runs the wrong-answer bookkeeping. Caller holds the lock.
func (e *Engine) applyWrong(level models.Level) {
	e.mark = MarkWrong
	e.streakCount = 0
	e.streaksAchieved = 0
	e.consistencyStreak = 0

	if e.profiles.Authenticated() {
		e.profiles.RecordWrongAnswer(models.WrongAnswer{
			Question:    level.Question,
			Options:     level.Options,
			Hint:        level.Hint,
			Answer:      level.Answer,
			Explanation: level.Explanation,
			Category:    level.Category,
			LevelNumber: e.levelIndex + 1,
		})
	}
}

// showExplanation is the delayed transition into the explanation phase.
// It is a no-op if the player restarted or jumped levels in the meantime.
func (e *Engine) showExplanation(idx int) {
	e.mu.Lock()
	if e.phase != PhaseAnswering || e.levelIndex != idx || e.mark != MarkCorrect {
		e.mu.Unlock()
		return
	}
	e.completedLevelIndex = idx
	e.phase = PhaseExplanation
	e.mark = MarkNone
	e.mu.Unlock()

	e.notify(Event{Type: EventExplanationReady, LevelIndex: idx})
}

// clearWrongMark removes the wrong-answer mark after the display delay.
func (e *Engine) clearWrongMark(idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.levelIndex == idx && e.mark == MarkWrong {
		e.mark = MarkNone
	}
}

// AdvanceToNextLevel leaves the explanation phase. At the end of the catalog
// it signals completion and persists maxLevel = len(levels) if needed; it
// never moves the level index past the catalog.
func (e *Engine) AdvanceToNextLevel() error {
	e.mu.Lock()
	if e.phase != PhaseExplanation {
		e.mu.Unlock()
		return ErrNotInExplanation
	}

	next := e.completedLevelIndex + 1
	e.completedLevelIndex = -1
	profile := e.profiles.Profile()

	var completed bool
	if next >= len(e.levels) {
		if profile.MaxLevel < len(e.levels) {
			e.profiles.SetMaxLevel(len(e.levels))
		}
		e.phase = PhaseCompleted
		completed = true
	} else {
		e.levelIndex = next
		e.phase = PhaseAnswering
		if next > profile.MaxLevel {
			e.profiles.SetMaxLevel(next)
		}
	}
	e.mu.Unlock()

	if completed {
		e.notify(Event{Type: EventCatalogCompleted})
	}
	return nil
}

// SelectLevel jumps to an already-unlocked level from the level selector.
func (e *Engine) SelectLevel(idx int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if idx < 0 || idx >= len(e.levels) {
		return ErrLevelLocked
	}
	if idx > e.profiles.Profile().MaxLevel {
		return ErrLevelLocked
	}
	e.levelIndex = idx
	e.completedLevelIndex = -1
	e.mark = MarkNone
	e.phase = PhaseAnswering
	return nil
}

// Restart returns to the first level. It clears only transient state: the
// unlocked maxLevel and the profile's achievements are untouched, and the
// streak counters keep their values.
func (e *Engine) Restart() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.levelIndex = 0
	e.completedLevelIndex = -1
	e.mark = MarkNone
	e.phase = PhaseAnswering
}

// Phase returns the engine's current phase.
func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phase
}

// LevelIndex returns the current 0-based level index.
func (e *Engine) LevelIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.levelIndex
}

// Mark returns the transient answer verdict.
func (e *Engine) Mark() Mark {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mark
}

// Streaks returns the current streak window count, the completed windows, and
// the consistency streak.
func (e *Engine) Streaks() (streakCount, streaksAchieved, consistencyStreak int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streakCount, e.streaksAchieved, e.consistencyStreak
}
