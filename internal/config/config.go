package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

var (
	LogLevel     string
	APIBaseURL   string
	WSURL        string
	ChatRoomID   string
	CachePath    string

	StubRunAddress string

	ProfilePollInterval     time.Duration
	TransactionPollInterval time.Duration
	LeaderboardPollInterval time.Duration
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using default values")
	}

	LogLevel = os.Getenv("LOG_LEVEL")
	if LogLevel == "" {
		LogLevel = "info"
	}

	APIBaseURL = os.Getenv("API_BASE_URL")
	if APIBaseURL == "" {
		APIBaseURL = "http://localhost:5000"
	}

	WSURL = os.Getenv("WS_URL")
	if WSURL == "" {
		WSURL = "ws://localhost:5000/ws"
	}

	ChatRoomID = os.Getenv("CHAT_ROOM_ID")
	if ChatRoomID == "" {
		ChatRoomID = "general"
	}

	CachePath = os.Getenv("CACHE_PATH")
	if CachePath == "" {
		CachePath = "levelup.db"
	}

	StubRunAddress = os.Getenv("STUB_RUN_ADDRESS")
	if StubRunAddress == "" {
		StubRunAddress = "localhost:5000"
	}

	ProfilePollInterval = durationEnv("PROFILE_POLL_INTERVAL", 15*time.Second)
	TransactionPollInterval = durationEnv("TRANSACTION_POLL_INTERVAL", 10*time.Second)
	LeaderboardPollInterval = durationEnv("LEADERBOARD_POLL_INTERVAL", 30*time.Second)
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s value %q, using default", key, raw)
		return fallback
	}
	return d
}
