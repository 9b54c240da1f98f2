package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"levelup/internal/api"
	"levelup/internal/config"
	"levelup/internal/models"
	"levelup/internal/pkg/logger"
	"levelup/internal/session"
	"levelup/internal/store"
	"levelup/internal/stub"
)

func main() {
	local := flag.Bool("local", false, "run against an embedded in-memory backend")
	flag.Parse()

	var l *logger.Logger
	var err error
	if l, err = logger.CreateLogger(config.LogLevel); err != nil {
		log.Fatal("Failed to create logger:", err)
	}

	serverCtx, serverStopCtx := context.WithCancel(context.Background())

	var server *http.Server
	if *local {
		server = startLocalBackend(l, serverStopCtx)
	} else {
		serverStopCtx()
	}

	cache, err := store.Open(config.CachePath, l)
	if err != nil {
		log.Fatal(err)
	}
	defer cache.Close()

	client := api.NewClient(config.APIBaseURL, l)
	sess := session.NewSession(client, cache, session.Intervals{
		Profile:      config.ProfilePollInterval,
		Transactions: config.TransactionPollInterval,
		Leaderboard:  config.LeaderboardPollInterval,
	}, l)
	defer sess.Close()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	repl := newRepl(client, sess, l)
	done := make(chan struct{})
	go func() {
		repl.run(context.Background())
		close(done)
	}()

	select {
	case <-sig:
	case <-done:
	}
	repl.shutdown()

	if server != nil {
		const shutdownTimeout = 30 * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		<-serverCtx.Done()
	}
}

// startLocalBackend boots the embedded development backend with a seeded
// catalog and a demo account, and returns the running server.
func startLocalBackend(l *logger.Logger, stopped context.CancelFunc) *http.Server {
	backend := stub.NewBackend(l)
	backend.SeedLevels(demoLevels())

	service := stub.NewService(backend, config.StubRunAddress, l)
	if err := service.CreateAdmin("admin", "admin"); err != nil {
		log.Fatal(err)
	}

	const readHeaderTimeout = 5 * time.Second
	server := &http.Server{Addr: config.StubRunAddress, Handler: service.NewRouter(), ReadHeaderTimeout: readHeaderTimeout}

	go func() {
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
		stopped()
	}()
	l.Sugar().Infof("Embedded backend listening on %s", config.StubRunAddress)
	return server
}

// demoLevels seeds the embedded backend with a small catalog so local mode is
// playable out of the box.
func demoLevels() []models.Level {
	return []models.Level{
		{
			Question:    "What is the capital of France?",
			Options:     []string{"Paris", "Lyon", "Marseille", "Nice"},
			Answer:      "Paris",
			Hint:        "The city of light.",
			Explanation: "Paris has been the capital of France since the 12th century.",
			Category:    "geography",
		},
		{
			Question:    "What is 7 x 8?",
			Answer:      "56",
			Hint:        "Think of 7 x 8 as 7 x 10 minus 7 x 2.",
			Explanation: "7 x 8 = 56.",
			Category:    "math",
		},
		{
			Question:    "Which planet is known as the Red Planet?",
			Options:     []string{"Venus", "Mars", "Jupiter", "Mercury"},
			Answer:      "Mars",
			Hint:        "Named after the Roman god of war.",
			Explanation: "Iron oxide on its surface gives Mars its reddish appearance.",
			Category:    "science",
		},
	}
}
