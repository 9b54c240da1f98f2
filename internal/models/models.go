// Package models defines the data structures exchanged with the quiz backend.
// It includes authentication payloads, the cached player profile, quiz levels,
// hint-point transactions, chat messages, community puzzles, and leaderboard rows.
package models

// AuthRequest represents the login request payload.
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse represents the login response payload.
// It contains the bearer token issued by the backend.
type AuthResponse struct {
	Token string `json:"token"`
}

// RegisterRequest represents the signup request payload.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// ErrorResponse represents a generic error response payload.
type ErrorResponse struct {
	Errors string `json:"errors"`
}

// Level is one quiz question unit. The order of the levels array returned by
// the backend defines the 0-based level index; it is displayed 1-based.
type Level struct {
	ID          string   `json:"_id"`
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Answer      string   `json:"answer"`
	Hint        string   `json:"hint"`
	Explanation string   `json:"explanation"`
	Category    string   `json:"category"`
}

// WrongAnswer records a level the player answered incorrectly. It is appended
// to the profile server-side, or locally when the backend write fails.
type WrongAnswer struct {
	Question    string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Hint        string   `json:"hint"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Category    string   `json:"category"`
	LevelNumber int      `json:"levelNumber"`
}

// Profile is the player profile owned by the backend and cached client-side.
type Profile struct {
	ID              string        `json:"_id,omitempty"`
	Username        string        `json:"username"`
	HintPoints      int           `json:"hintPoints"`
	TotalPoints     int           `json:"totalPoints"`
	MaxLevel        int           `json:"maxLevel"`
	CurrentStreak   int           `json:"currentStreak"`
	LongestStreak   int           `json:"longestStreak"`
	LastPlayedDate  string        `json:"lastPlayedDate,omitempty"`
	Achievements    []string      `json:"achievements,omitempty"`
	Rewards         []string      `json:"rewards,omitempty"`
	TakenHintLevels []int         `json:"takenHintLevels,omitempty"`
	WrongAnswers    []WrongAnswer `json:"wrongAnswers,omitempty"`
}

// HasAchievement reports whether the achievement id is already unlocked.
func (p *Profile) HasAchievement(id string) bool {
	for _, a := range p.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// HasTakenHint reports whether the hint for the given level index was already bought.
func (p *Profile) HasTakenHint(levelIndex int) bool {
	for _, l := range p.TakenHintLevels {
		if l == levelIndex {
			return true
		}
	}
	return false
}

// ProfilePatch is a partial profile update. Only non-nil fields are sent,
// matching the backend's PATCH semantics (last write wins per field).
type ProfilePatch struct {
	HintPoints      *int      `json:"hintPoints,omitempty"`
	TotalPoints     *int      `json:"totalPoints,omitempty"`
	MaxLevel        *int      `json:"maxLevel,omitempty"`
	Achievements    *[]string `json:"achievements,omitempty"`
	Rewards         *[]string `json:"rewards,omitempty"`
	TakenHintLevels *[]int    `json:"takenHintLevels,omitempty"`
}

// ProfileResponse wraps profile-mutating endpoint responses.
type ProfileResponse struct {
	Profile *Profile `json:"profile"`
}

// Transaction approval statuses for the hint-point purchase workflow.
const (
	TransactionPending  = "pending"
	TransactionApproved = "approved"
	TransactionFaked    = "faked"
)

// Transaction is a manual hint-point purchase request. Players create them;
// only admin screens mutate the approval status.
type Transaction struct {
	ID              string `json:"_id,omitempty"`
	Username        string `json:"username"`
	TransactionID   string `json:"transactionId"`
	SelectedPackage string `json:"selectedPackage"`
	ApproveStatus   string `json:"approveStatus"`
}

// Message types carried on the chat channel.
const (
	MessageTypeText        = "text"
	MessageTypeSystem      = "system"
	MessageTypeHelpRequest = "help-request"
	MessageTypeAchievement = "achievement"
)

// ChatMessage is one room message. Messages are only ever appended client-side.
type ChatMessage struct {
	ID            string `json:"_id"`
	RoomID        string `json:"roomId"`
	Username      string `json:"username"`
	Message       string `json:"message"`
	MessageType   string `json:"messageType"`
	FormattedTime string `json:"formattedTime"`
}

// Puzzle is a community marketplace entry.
type Puzzle struct {
	ID              string   `json:"_id,omitempty"`
	Title           string   `json:"title"`
	Category        string   `json:"category"`
	Difficulty      string   `json:"difficulty"`
	Question        string   `json:"question"`
	Options         []string `json:"options,omitempty"`
	Answer          string   `json:"answer,omitempty"`
	Explanation     string   `json:"explanation"`
	Hint            string   `json:"hint"`
	Rating          float64  `json:"rating"`
	Reviews         int      `json:"reviews"`
	Plays           int      `json:"plays"`
	CreatorUsername string   `json:"creatorUsername"`
}

// PuzzleAnswerResult is the grading result returned by the backend.
type PuzzleAnswerResult struct {
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation,omitempty"`
}

// PuzzleReview is a rating submitted for a marketplace puzzle.
type PuzzleReview struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// LeaderboardEntry is one ranked row of a leaderboard.
type LeaderboardEntry struct {
	Rank        int    `json:"rank"`
	Username    string `json:"username"`
	TotalPoints int    `json:"totalPoints"`
	MaxLevel    int    `json:"maxLevel"`
}

// Ranking is a single player's position on the global leaderboard.
type Ranking struct {
	Username    string `json:"username"`
	Rank        int    `json:"rank"`
	TotalPoints int    `json:"totalPoints"`
}

// SurveyResponse is one submitted survey entry.
type SurveyResponse struct {
	Username string `json:"username,omitempty"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback,omitempty"`
}

// SurveySummary aggregates submitted surveys.
type SurveySummary struct {
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
}
