// Package store persists players, games, daily quest progress and
// leaderboard snapshots in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a player does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS players (
	user_id       INTEGER PRIMARY KEY,
	chat_id       INTEGER NOT NULL,
	name          TEXT    NOT NULL DEFAULT '',
	score         INTEGER NOT NULL DEFAULT 0,
	notifications INTEGER NOT NULL DEFAULT 1,
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_players_score ON players(score DESC);

CREATE TABLE IF NOT EXISTS games (
	id         TEXT    PRIMARY KEY,
	user_id    INTEGER NOT NULL REFERENCES players(user_id),
	card       TEXT    NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_games_user ON games(user_id);

CREATE TABLE IF NOT EXISTS daily_quests (
	user_id       INTEGER PRIMARY KEY REFERENCES players(user_id),
	games_played  INTEGER NOT NULL DEFAULT 0,
	bonus_awarded INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS leaderboard_snapshots (
	taken_at INTEGER NOT NULL,
	rank     INTEGER NOT NULL,
	user_id  INTEGER NOT NULL,
	name     TEXT    NOT NULL,
	score    INTEGER NOT NULL,
	PRIMARY KEY (taken_at, rank)
);
`

// Store is a SQLite-backed game store. It is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Open opens (creating if needed) the database at path. Call Init before
// using the store.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

// WithClock overrides the time source (for testing).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Init creates the schema. It is safe to call more than once.
func (s *Store) Init(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
