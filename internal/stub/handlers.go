package stub

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"levelup/internal/game"
	"levelup/internal/models"
	"levelup/internal/pkg/auth"
	"levelup/internal/pkg/logger"
)

// handlers aggregates the backend state and logger behind the HTTP endpoints.
type handlers struct {
	backend *Backend
	log     *logger.Logger
}

// newHandlers initializes a new handlers instance over the given backend.
func newHandlers(backend *Backend, l *logger.Logger) *handlers {
	return &handlers{backend: backend, log: l}
}

// registerHandler creates a new account with a starter profile.
func (handlers *handlers) registerHandler(res http.ResponseWriter, req *http.Request) {
	var registerRequest models.RegisterRequest

	requestBody, err := io.ReadAll(req.Body)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return
	}
	if err = json.Unmarshal(requestBody, &registerRequest); err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return
	}
	if registerRequest.Username == "" || registerRequest.Password == "" {
		writeErrorResponse(res, "missing username or password", http.StatusBadRequest)
		return
	}

	_, err = handlers.backend.createUser(registerRequest.Username, registerRequest.Email, registerRequest.Password, "user")
	if err != nil {
		if errors.Is(err, ErrUserExists) {
			writeErrorResponse(res, "user with provided name already exists", http.StatusConflict)
			return
		}
		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}
	res.WriteHeader(http.StatusCreated)
}

// loginHandler verifies credentials and returns a signed token.
func (handlers *handlers) loginHandler(res http.ResponseWriter, req *http.Request) {
	var authRequest models.AuthRequest
	var authResponse models.AuthResponse

	requestBody, err := io.ReadAll(req.Body)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return
	}
	if err = json.Unmarshal(requestBody, &authRequest); err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return
	}
	if authRequest.Username == "" || authRequest.Password == "" {
		writeErrorResponse(res, "missing username or password", http.StatusBadRequest)
		return
	}

	user, err := handlers.backend.checkUser(authRequest.Username, authRequest.Password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeErrorResponse(res, "user not found", http.StatusUnauthorized)
			return
		}
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			writeErrorResponse(res, "incorrect password", http.StatusUnauthorized)
			return
		}
		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}

	authResponse.Token, err = auth.GenerateToken(user.Username, user.Role, user.ID)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSONResponse(res, http.StatusOK, authResponse)
}

// passwordResetHandler accepts forgot-password and reset-password requests.
// The development backend sends no mail and accepts any reset token.
func (handlers *handlers) passwordResetHandler(res http.ResponseWriter, req *http.Request) {
	io.Copy(io.Discard, req.Body)
	res.WriteHeader(http.StatusOK)
}

// levelsHandler returns the full level catalog.
func (handlers *handlers) levelsHandler(res http.ResponseWriter, req *http.Request) {
	writeJSONResponse(res, http.StatusOK, handlers.backend.levelsCopy())
}

// createLevelHandler appends a level to the catalog. Admin only.
func (handlers *handlers) createLevelHandler(res http.ResponseWriter, req *http.Request) {
	if !requireAdmin(res, req) {
		return
	}
	var level models.Level
	if !readJSONRequest(res, req, &level) {
		return
	}
	writeJSONResponse(res, http.StatusCreated, handlers.backend.addLevel(level))
}

// updateLevelHandler replaces a level. Admin only.
func (handlers *handlers) updateLevelHandler(res http.ResponseWriter, req *http.Request) {
	if !requireAdmin(res, req) {
		return
	}
	var level models.Level
	if !readJSONRequest(res, req, &level) {
		return
	}
	if err := handlers.backend.updateLevel(chi.URLParam(req, "id"), level); err != nil {
		writeErrorResponse(res, "level not found", http.StatusNotFound)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// deleteLevelHandler removes a level. Admin only.
func (handlers *handlers) deleteLevelHandler(res http.ResponseWriter, req *http.Request) {
	if !requireAdmin(res, req) {
		return
	}
	if err := handlers.backend.deleteLevel(chi.URLParam(req, "id")); err != nil {
		writeErrorResponse(res, "level not found", http.StatusNotFound)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// profileHandler returns the profile for the username in the URL.
func (handlers *handlers) profileHandler(res http.ResponseWriter, req *http.Request) {
	profile, err := handlers.backend.profileCopy(chi.URLParam(req, "username"))
	if err != nil {
		writeErrorResponse(res, "profile not found", http.StatusNotFound)
		return
	}
	writeJSONResponse(res, http.StatusOK, profile)
}

// patchProfileHandler applies a partial profile update. Players may only
// patch their own profile; admins may patch anyone's.
func (handlers *handlers) patchProfileHandler(res http.ResponseWriter, req *http.Request) {
	username := chi.URLParam(req, "username")
	if !requireSelfOrAdmin(res, req, username) {
		return
	}

	var patch models.ProfilePatch
	if !readJSONRequest(res, req, &patch) {
		return
	}

	profile, err := handlers.backend.patchProfile(username, patch)
	if err != nil {
		writeErrorResponse(res, "profile not found", http.StatusNotFound)
		return
	}
	writeJSONResponse(res, http.StatusOK, models.ProfileResponse{Profile: &profile})
}

// wrongAnswerHandler appends a wrong-answer record to the profile.
func (handlers *handlers) wrongAnswerHandler(res http.ResponseWriter, req *http.Request) {
	username := chi.URLParam(req, "username")
	if !requireSelfOrAdmin(res, req, username) {
		return
	}

	var body struct {
		WrongAnswer models.WrongAnswer `json:"wrongAnswer"`
	}
	if !readJSONRequest(res, req, &body) {
		return
	}

	profile, err := handlers.backend.addWrongAnswer(username, body.WrongAnswer)
	if err != nil {
		writeErrorResponse(res, "profile not found", http.StatusNotFound)
		return
	}
	writeJSONResponse(res, http.StatusOK, models.ProfileResponse{Profile: &profile})
}

// dailyStreakHandler runs the once-per-day streak check.
func (handlers *handlers) dailyStreakHandler(res http.ResponseWriter, req *http.Request) {
	username := chi.URLParam(req, "username")
	if !requireSelfOrAdmin(res, req, username) {
		return
	}

	profile, err := handlers.backend.bumpDailyStreak(username, time.Now())
	if err != nil {
		writeErrorResponse(res, "profile not found", http.StatusNotFound)
		return
	}
	writeJSONResponse(res, http.StatusOK, models.ProfileResponse{Profile: &profile})
}

// createTransactionHandler records a pending hint-point purchase.
func (handlers *handlers) createTransactionHandler(res http.ResponseWriter, req *http.Request) {
	var tx models.Transaction
	if !readJSONRequest(res, req, &tx) {
		return
	}
	if claims, ok := auth.ClaimsFromContext(req.Context()); ok {
		tx.Username = claims.Username
	}
	writeJSONResponse(res, http.StatusCreated, handlers.backend.createTransaction(tx))
}

// transactionsHandler lists every transaction. Admin only.
func (handlers *handlers) transactionsHandler(res http.ResponseWriter, req *http.Request) {
	if !requireAdmin(res, req) {
		return
	}
	writeJSONResponse(res, http.StatusOK, handlers.backend.allTransactions())
}

// userTransactionsHandler lists one user's transactions.
func (handlers *handlers) userTransactionsHandler(res http.ResponseWriter, req *http.Request) {
	username := chi.URLParam(req, "username")
	if !requireSelfOrAdmin(res, req, username) {
		return
	}
	writeJSONResponse(res, http.StatusOK, handlers.backend.userTransactions(username))
}

// setTransactionStatusHandler updates a transaction's approval status. Admin only.
func (handlers *handlers) setTransactionStatusHandler(res http.ResponseWriter, req *http.Request) {
	if !requireAdmin(res, req) {
		return
	}
	var body struct {
		ApproveStatus string `json:"approveStatus"`
	}
	if !readJSONRequest(res, req, &body) {
		return
	}
	if err := handlers.backend.setTransactionStatus(chi.URLParam(req, "id"), body.ApproveStatus); err != nil {
		writeErrorResponse(res, "transaction not found", http.StatusNotFound)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// leaderboardHandler returns the ranked player list. The development backend
// keeps no time-window bookkeeping, so every period serves the global ranking.
func (handlers *handlers) leaderboardHandler(res http.ResponseWriter, req *http.Request) {
	writeJSONResponse(res, http.StatusOK, handlers.backend.leaderboard())
}

// rankingHandler returns one player's global rank.
func (handlers *handlers) rankingHandler(res http.ResponseWriter, req *http.Request) {
	ranking, err := handlers.backend.ranking(chi.URLParam(req, "username"))
	if err != nil {
		writeErrorResponse(res, "player not found", http.StatusNotFound)
		return
	}
	writeJSONResponse(res, http.StatusOK, ranking)
}

// marketplaceHandler lists every published puzzle with answers stripped.
func (handlers *handlers) marketplaceHandler(res http.ResponseWriter, req *http.Request) {
	puzzles := handlers.backend.marketplace()
	for i := range puzzles {
		puzzles[i].Answer = ""
	}
	writeJSONResponse(res, http.StatusOK, puzzles)
}

// featuredPuzzlesHandler lists the highest-rated puzzles, answers stripped.
func (handlers *handlers) featuredPuzzlesHandler(res http.ResponseWriter, req *http.Request) {
	puzzles := handlers.backend.marketplace()
	featured := make([]models.Puzzle, 0, len(puzzles))
	for _, p := range puzzles {
		if p.Rating >= 4 {
			p.Answer = ""
			featured = append(featured, p)
		}
	}
	writeJSONResponse(res, http.StatusOK, featured)
}

// puzzleHandler returns one puzzle. The answer is only included for its creator.
func (handlers *handlers) puzzleHandler(res http.ResponseWriter, req *http.Request) {
	puzzle, err := handlers.backend.puzzleByID(chi.URLParam(req, "id"))
	if err != nil {
		writeErrorResponse(res, "puzzle not found", http.StatusNotFound)
		return
	}
	if claims, ok := auth.ClaimsFromContext(req.Context()); !ok || claims.Username != puzzle.CreatorUsername {
		puzzle.Answer = ""
	}
	writeJSONResponse(res, http.StatusOK, puzzle)
}

// createPuzzleHandler publishes a community puzzle under the caller's name.
func (handlers *handlers) createPuzzleHandler(res http.ResponseWriter, req *http.Request) {
	var puzzle models.Puzzle
	if !readJSONRequest(res, req, &puzzle) {
		return
	}
	if claims, ok := auth.ClaimsFromContext(req.Context()); ok {
		puzzle.CreatorUsername = claims.Username
	}
	writeJSONResponse(res, http.StatusCreated, handlers.backend.createPuzzle(puzzle))
}

// puzzleAnswerHandler grades a submitted answer server-side so the stored
// answer never reaches the client.
func (handlers *handlers) puzzleAnswerHandler(res http.ResponseWriter, req *http.Request) {
	var body struct {
		Answer string `json:"answer"`
	}
	if !readJSONRequest(res, req, &body) {
		return
	}

	id := chi.URLParam(req, "id")
	puzzle, err := handlers.backend.puzzleByID(id)
	if err != nil {
		writeErrorResponse(res, "puzzle not found", http.StatusNotFound)
		return
	}
	handlers.backend.recordPuzzlePlay(id)

	result := models.PuzzleAnswerResult{
		Correct: game.NormalizeAnswer(puzzle.Answer) == game.NormalizeAnswer(body.Answer),
	}
	if result.Correct {
		result.Explanation = puzzle.Explanation
	}
	writeJSONResponse(res, http.StatusOK, result)
}

// puzzleReviewHandler folds a rating into the puzzle's running average.
func (handlers *handlers) puzzleReviewHandler(res http.ResponseWriter, req *http.Request) {
	var review models.PuzzleReview
	if !readJSONRequest(res, req, &review) {
		return
	}
	if review.Rating < 1 || review.Rating > 5 {
		writeErrorResponse(res, "rating must be between 1 and 5", http.StatusBadRequest)
		return
	}
	if err := handlers.backend.reviewPuzzle(chi.URLParam(req, "id"), review.Rating); err != nil {
		writeErrorResponse(res, "puzzle not found", http.StatusNotFound)
		return
	}
	res.WriteHeader(http.StatusOK)
}

// chatMessagesHandler returns the persisted history of one room inside the
// success/data envelope the client expects.
func (handlers *handlers) chatMessagesHandler(res http.ResponseWriter, req *http.Request) {
	messages := handlers.backend.roomMessages(chi.URLParam(req, "roomId"))
	writeJSONResponse(res, http.StatusOK, struct {
		Success bool                 `json:"success"`
		Data    []models.ChatMessage `json:"data"`
	}{Success: true, Data: messages})
}

// surveyHandler records one survey response.
func (handlers *handlers) surveyHandler(res http.ResponseWriter, req *http.Request) {
	var survey models.SurveyResponse
	if !readJSONRequest(res, req, &survey) {
		return
	}
	handlers.backend.addSurvey(survey)
	res.WriteHeader(http.StatusCreated)
}

// surveySummaryHandler returns the aggregate survey statistics.
func (handlers *handlers) surveySummaryHandler(res http.ResponseWriter, req *http.Request) {
	writeJSONResponse(res, http.StatusOK, handlers.backend.surveySummary())
}

// allSurveysHandler lists every survey response. Admin only.
func (handlers *handlers) allSurveysHandler(res http.ResponseWriter, req *http.Request) {
	if !requireAdmin(res, req) {
		return
	}
	writeJSONResponse(res, http.StatusOK, handlers.backend.allSurveys())
}

// readJSONRequest reads and unmarshals the request body, writing the error
// response itself on failure.
func readJSONRequest(res http.ResponseWriter, req *http.Request, target interface{}) bool {
	requestBody, err := io.ReadAll(req.Body)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return false
	}
	if err = json.Unmarshal(requestBody, target); err != nil {
		writeErrorResponse(res, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// requireAdmin rejects the request unless the token carries the admin role.
func requireAdmin(res http.ResponseWriter, req *http.Request) bool {
	claims, ok := auth.ClaimsFromContext(req.Context())
	if !ok || claims.Role != "admin" {
		writeErrorResponse(res, "admin access required", http.StatusForbidden)
		return false
	}
	return true
}

// requireSelfOrAdmin rejects the request unless the token belongs to the
// named user or carries the admin role.
func requireSelfOrAdmin(res http.ResponseWriter, req *http.Request, username string) bool {
	claims, ok := auth.ClaimsFromContext(req.Context())
	if !ok || (claims.Username != username && claims.Role != "admin") {
		writeErrorResponse(res, "unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func writeJSONResponse(res http.ResponseWriter, statusCode int, data interface{}) {
	result, err := json.Marshal(data)
	if err != nil {
		writeErrorResponse(res, err.Error(), http.StatusInternalServerError)
		return
	}
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	res.Write(result)
}

func writeErrorResponse(res http.ResponseWriter, errorInfo string, statusCode int) {
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(statusCode)
	json.NewEncoder(res).Encode(models.ErrorResponse{Errors: errorInfo})
}
