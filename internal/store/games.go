package store

import (
	"context"
	"fmt"
	"time"
)

// GameRecord is a finished game to persist along with its rewards.
type GameRecord struct {
	ID     string
	UserID int64
	// Card is the JSON-encoded bingo card.
	Card   string
	Points int

	// The quest bonus is awarded once, when games played today reaches
	// QuestTarget.
	QuestTarget int
	QuestBonus  int
}

// GameResult reports the player's totals after a game was recorded.
type GameResult struct {
	Score        int
	GamesToday   int
	BonusAwarded bool
}

// RecordGame stores a game and credits its points and quest progress in one
// transaction. The player must exist.
func (s *Store) RecordGame(ctx context.Context, g GameRecord) (GameResult, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return GameResult{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO games (id, user_id, card, created_at) VALUES (?, ?, ?, ?)`,
		g.ID, g.UserID, g.Card, s.now().Unix()); err != nil {
		return GameResult{}, fmt.Errorf("insert game %s: %w", g.ID, err)
	}

	var res GameResult
	var bonusAwarded bool
	err = tx.QueryRowContext(ctx, `
		INSERT INTO daily_quests (user_id, games_played) VALUES (?, 1)
		ON CONFLICT(user_id) DO UPDATE SET games_played = games_played + 1
		RETURNING games_played, bonus_awarded`, g.UserID).Scan(&res.GamesToday, &bonusAwarded)
	if err != nil {
		return GameResult{}, fmt.Errorf("update quest progress: %w", err)
	}

	points := g.Points
	if g.QuestTarget > 0 && !bonusAwarded && res.GamesToday >= g.QuestTarget {
		if _, err := tx.ExecContext(ctx,
			`UPDATE daily_quests SET bonus_awarded = 1 WHERE user_id = ?`, g.UserID); err != nil {
			return GameResult{}, fmt.Errorf("mark quest bonus: %w", err)
		}
		points += g.QuestBonus
		res.BonusAwarded = true
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE players SET score = score + ? WHERE user_id = ? RETURNING score`,
		points, g.UserID).Scan(&res.Score)
	if err != nil {
		return GameResult{}, fmt.Errorf("credit score for %d: %w", g.UserID, err)
	}

	if err := tx.Commit(); err != nil {
		return GameResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// ResetDailyQuests clears quest progress for every player and returns how
// many players had progress.
func (s *Store) ResetDailyQuests(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE daily_quests SET games_played = 0, bonus_awarded = 0 WHERE games_played > 0 OR bonus_awarded = 1`)
	if err != nil {
		return 0, fmt.Errorf("reset daily quests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset daily quests: %w", err)
	}
	return n, nil
}

// SnapshotEntry is one row of a leaderboard snapshot.
type SnapshotEntry struct {
	Rank   int
	UserID int64
	Name   string
	Score  int
}

// SnapshotLeaderboard stores the current top limit players and returns how
// many rows were written.
func (s *Store) SnapshotLeaderboard(ctx context.Context, limit int) (int, error) {
	top, err := s.TopPlayers(ctx, limit)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	at := s.now().Unix()
	for i, p := range top {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO leaderboard_snapshots (taken_at, rank, user_id, name, score) VALUES (?, ?, ?, ?, ?)`,
			at, i+1, p.UserID, p.Name, p.Score); err != nil {
			return 0, fmt.Errorf("insert snapshot row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(top), nil
}

// LatestSnapshot returns the most recent leaderboard snapshot and when it was
// taken. It returns ErrNotFound if none exists.
func (s *Store) LatestSnapshot(ctx context.Context) ([]SnapshotEntry, time.Time, error) {
	var at int64
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(taken_at), 0) FROM leaderboard_snapshots`).Scan(&at)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query latest snapshot: %w", err)
	}
	if at == 0 {
		return nil, time.Time{}, fmt.Errorf("leaderboard snapshot: %w", ErrNotFound)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, user_id, name, score FROM leaderboard_snapshots WHERE taken_at = ? ORDER BY rank`, at)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("query snapshot rows: %w", err)
	}
	defer rows.Close()

	var entries []SnapshotEntry
	for rows.Next() {
		var e SnapshotEntry
		if err := rows.Scan(&e.Rank, &e.UserID, &e.Name, &e.Score); err != nil {
			return nil, time.Time{}, fmt.Errorf("scan snapshot row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return entries, time.Unix(at, 0), nil
}
