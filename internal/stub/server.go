package stub

import (
	"levelup/internal/pkg/auth"
	"levelup/internal/pkg/logger"

	"github.com/go-chi/chi/v5"
)

// Service encapsulates the development backend's HTTP surface: the in-memory
// state, the handlers, the chat hub, and the listen address.
type Service struct {
	handlers   *handlers
	backend    *Backend
	runAddress string
	log        *logger.Logger
}

// NewService creates and initializes a new Service instance over the given
// backend.
func NewService(backend *Backend, runAddress string, l *logger.Logger) *Service {
	handlers := newHandlers(backend, l)
	return &Service{handlers: handlers, backend: backend, runAddress: runAddress, log: l}
}

// RunAddress returns the configured listen address.
func (service *Service) RunAddress() string {
	return service.runAddress
}

// NewRouter sets up and returns a new chi.Router instance with the necessary
// middleware and routes. It applies logging middleware globally, and JWT
// authentication middleware for protected routes.
func (service *Service) NewRouter() chi.Router {
	router := chi.NewRouter()
	router.Use(service.log.WithLogging())

	router.Post("/api/auth/register", service.handlers.registerHandler)
	router.Post("/api/auth/login", service.handlers.loginHandler)
	router.Post("/api/auth/forgot-password", service.handlers.passwordResetHandler)
	router.Post("/api/auth/reset-password", service.handlers.passwordResetHandler)

	router.Get("/api/levels", service.handlers.levelsHandler)
	router.Get("/api/leaderboard/{period}", service.handlers.leaderboardHandler)
	router.Get("/api/leaderboard/ranking/{username}", service.handlers.rankingHandler)
	router.Get("/api/puzzles/marketplace", service.handlers.marketplaceHandler)
	router.Get("/api/puzzles/featured", service.handlers.featuredPuzzlesHandler)
	router.Get("/api/chat/messages/{roomId}", service.handlers.chatMessagesHandler)
	router.Post("/api/survey", service.handlers.surveyHandler)
	router.Get("/api/survey/summary", service.handlers.surveySummaryHandler)

	router.Get("/ws", service.backend.hub.serveWS)

	router.Group(func(r chi.Router) {
		r.Use(auth.CheckJWTMiddleware())
		r.Post("/api/levels", service.handlers.createLevelHandler)
		r.Put("/api/levels/{id}", service.handlers.updateLevelHandler)
		r.Delete("/api/levels/{id}", service.handlers.deleteLevelHandler)
		r.Get("/api/profile/{username}", service.handlers.profileHandler)
		r.Patch("/api/profile/{username}", service.handlers.patchProfileHandler)
		r.Patch("/api/profile/{username}/wrong-answer", service.handlers.wrongAnswerHandler)
		r.Post("/api/profile/{username}/daily-streak", service.handlers.dailyStreakHandler)
		r.Post("/api/transactions", service.handlers.createTransactionHandler)
		r.Get("/api/transactions", service.handlers.transactionsHandler)
		r.Get("/api/transactions/user/{username}", service.handlers.userTransactionsHandler)
		r.Patch("/api/transactions/{id}", service.handlers.setTransactionStatusHandler)
		r.Get("/api/puzzles/{id}", service.handlers.puzzleHandler)
		r.Post("/api/puzzles", service.handlers.createPuzzleHandler)
		r.Post("/api/puzzles/{id}/answer", service.handlers.puzzleAnswerHandler)
		r.Post("/api/puzzles/{id}/review", service.handlers.puzzleReviewHandler)
		r.Get("/api/survey/all", service.handlers.allSurveysHandler)
	})
	return router
}

// CreateAdmin registers an admin account for level management and transaction
// approval.
func (service *Service) CreateAdmin(username, password string) error {
	_, err := service.backend.createUser(username, "", password, "admin")
	return err
}
