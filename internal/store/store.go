// Package store provides the local on-disk cache backing the client between
// sessions: the persisted bearer token, the last known profile snapshot, and
// the queue of wrong-answer records whose backend write failed. It plays the
// role browser local storage plays for the web client.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"levelup/internal/models"
	"levelup/internal/pkg/logger"

	_ "github.com/mattn/go-sqlite3"
)

const (
	createSchemaQuery = `
		CREATE TABLE IF NOT EXISTS session (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			token TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS profiles (
			username TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS pending_wrong_answers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			record TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`

	saveTokenQuery     = `INSERT INTO session (id, token, updated_at) VALUES (1, ?, ?) ON CONFLICT(id) DO UPDATE SET token = excluded.token, updated_at = excluded.updated_at;`
	loadTokenQuery     = `SELECT token FROM session WHERE id = 1;`
	deleteTokenQuery   = `DELETE FROM session WHERE id = 1;`
	saveProfileQuery   = `INSERT INTO profiles (username, snapshot, updated_at) VALUES (?, ?, ?) ON CONFLICT(username) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at;`
	loadProfileQuery   = `SELECT snapshot FROM profiles WHERE username = ?;`
	addPendingQuery    = `INSERT INTO pending_wrong_answers (username, record, created_at) VALUES (?, ?, ?);`
	listPendingQuery   = `SELECT id, record FROM pending_wrong_answers WHERE username = ? ORDER BY id;`
	deletePendingQuery = `DELETE FROM pending_wrong_answers WHERE id = ?;`
)

// ErrNotFound indicates the requested record is not in the cache.
var ErrNotFound = errors.New("store: not found")

// Store is the SQLite-backed local cache.
type Store struct {
	db  *sql.DB
	log *logger.Logger
}

// PendingWrongAnswer is a wrong-answer record waiting to be replayed to the backend.
type PendingWrongAnswer struct {
	ID     int64
	Record models.WrongAnswer
}

// Open opens (and if necessary creates) the cache database at path.
func Open(path string, l *logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		l.Sugar().Errorf("Failed to open the cache database: %s", err)
		return nil, err
	}

	const defaultTimeout = 10 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, createSchemaQuery); err != nil {
		l.Sugar().Errorf("Failed to create the cache schema: %s", err)
		db.Close()
		return nil, err
	}

	return &Store{db: db, log: l}, nil
}

// Close closes the cache database if it is open.
func (store *Store) Close() {
	if store.db != nil {
		store.db.Close()
	}
}

// SaveToken persists the bearer token across restarts.
func (store *Store) SaveToken(ctx context.Context, token string) error {
	if _, err := store.db.ExecContext(ctx, saveTokenQuery, token, time.Now()); err != nil {
		store.log.Sugar().Errorf("Failed to execute a query saveTokenQuery: %s", err)
		return err
	}
	return nil
}

// LoadToken returns the persisted bearer token, or ErrNotFound when logged out.
func (store *Store) LoadToken(ctx context.Context) (string, error) {
	var token string
	err := store.db.QueryRowContext(ctx, loadTokenQuery).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		store.log.Sugar().Errorf("Failed to execute a query loadTokenQuery: %s", err)
		return "", err
	}
	return token, nil
}

// DeleteToken removes the persisted token. Called on logout.
func (store *Store) DeleteToken(ctx context.Context) error {
	if _, err := store.db.ExecContext(ctx, deleteTokenQuery); err != nil {
		store.log.Sugar().Errorf("Failed to execute a query deleteTokenQuery: %s", err)
		return err
	}
	return nil
}

// SaveProfile stores the latest profile snapshot for the given username.
func (store *Store) SaveProfile(ctx context.Context, profile *models.Profile) error {
	snapshot, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if _, err := store.db.ExecContext(ctx, saveProfileQuery, profile.Username, string(snapshot), time.Now()); err != nil {
		store.log.Sugar().Errorf("Failed to execute a query saveProfileQuery: %s", err)
		return err
	}
	return nil
}

// LoadProfile returns the cached profile snapshot for the given username.
func (store *Store) LoadProfile(ctx context.Context, username string) (*models.Profile, error) {
	var snapshot string
	err := store.db.QueryRowContext(ctx, loadProfileQuery, username).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		store.log.Sugar().Errorf("Failed to execute a query loadProfileQuery: %s", err)
		return nil, err
	}

	var profile models.Profile
	if err := json.Unmarshal([]byte(snapshot), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// AddPendingWrongAnswer queues a wrong-answer record whose backend write failed.
func (store *Store) AddPendingWrongAnswer(ctx context.Context, username string, wrong models.WrongAnswer) error {
	record, err := json.Marshal(wrong)
	if err != nil {
		return err
	}
	if _, err := store.db.ExecContext(ctx, addPendingQuery, username, string(record), time.Now()); err != nil {
		store.log.Sugar().Errorf("Failed to execute a query addPendingQuery: %s", err)
		return err
	}
	return nil
}

// PendingWrongAnswers lists the queued wrong-answer records for the given username.
func (store *Store) PendingWrongAnswers(ctx context.Context, username string) ([]PendingWrongAnswer, error) {
	rows, err := store.db.QueryContext(ctx, listPendingQuery, username)
	if err != nil {
		store.log.Sugar().Errorf("Failed to execute a query listPendingQuery: %s", err)
		return nil, err
	}
	defer rows.Close()

	var pending []PendingWrongAnswer
	for rows.Next() {
		var (
			entry PendingWrongAnswer
			raw   string
		)
		if err := rows.Scan(&entry.ID, &raw); err != nil {
			store.log.Sugar().Errorf("Failed to scan a pending wrong answer: %s", err)
			return nil, err
		}
		if err := json.Unmarshal([]byte(raw), &entry.Record); err != nil {
			return nil, err
		}
		pending = append(pending, entry)
	}
	if err := rows.Err(); err != nil {
		store.log.Sugar().Errorf("The last error encountered by Rows.Scan in PendingWrongAnswers: %s", err)
		return pending, err
	}
	return pending, nil
}

// DeletePendingWrongAnswer removes a queued record once it was replayed successfully.
func (store *Store) DeletePendingWrongAnswer(ctx context.Context, id int64) error {
	if _, err := store.db.ExecContext(ctx, deletePendingQuery, id); err != nil {
		store.log.Sugar().Errorf("Failed to execute a query deletePendingQuery: %s", err)
		return err
	}
	return nil
}
