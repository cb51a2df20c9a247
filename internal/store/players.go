package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Player is a registered bot user.
type Player struct {
	UserID        int64
	ChatID        int64
	Name          string
	Score         int
	Notifications bool
	GamesToday    int
	CreatedAt     time.Time
}

// UpsertPlayer registers a player or refreshes their chat and name. Score
// and settings of an existing player are untouched.
func (s *Store) UpsertPlayer(ctx context.Context, userID, chatID int64, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO players (user_id, chat_id, name, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			chat_id = excluded.chat_id,
			name = CASE WHEN excluded.name = '' THEN players.name ELSE excluded.name END`,
		userID, chatID, name, s.now().Unix())
	if err != nil {
		return fmt.Errorf("upsert player %d: %w", userID, err)
	}
	return nil
}

// Player returns the player with userID, or ErrNotFound.
func (s *Store) Player(ctx context.Context, userID int64) (Player, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT p.user_id, p.chat_id, p.name, p.score, p.notifications,
			COALESCE(q.games_played, 0), p.created_at
		FROM players p
		LEFT JOIN daily_quests q ON q.user_id = p.user_id
		WHERE p.user_id = ?`, userID)

	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Player{}, fmt.Errorf("player %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return Player{}, fmt.Errorf("get player %d: %w", userID, err)
	}
	return p, nil
}

// TopPlayers returns up to limit players ordered by score, highest first.
// Ties are broken by who registered first.
func (s *Store) TopPlayers(ctx context.Context, limit int) ([]Player, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.user_id, p.chat_id, p.name, p.score, p.notifications,
			COALESCE(q.games_played, 0), p.created_at
		FROM players p
		LEFT JOIN daily_quests q ON q.user_id = p.user_id
		ORDER BY p.score DESC, p.created_at ASC, p.user_id ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top players: %w", err)
	}
	defer rows.Close()

	var players []Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate players: %w", err)
	}
	return players, nil
}

// ToggleNotifications flips the player's reminder setting and returns the
// new value.
func (s *Store) ToggleNotifications(ctx context.Context, userID int64) (bool, error) {
	var enabled bool
	err := s.db.QueryRowContext(ctx, `
		UPDATE players SET notifications = 1 - notifications
		WHERE user_id = ?
		RETURNING notifications`, userID).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("player %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return false, fmt.Errorf("toggle notifications for %d: %w", userID, err)
	}
	return enabled, nil
}

// NotifiableChats returns the chat IDs of players with reminders enabled.
func (s *Store) NotifiableChats(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT chat_id FROM players WHERE notifications = 1 ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query notifiable chats: %w", err)
	}
	defer rows.Close()

	var chats []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan chat id: %w", err)
		}
		chats = append(chats, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chats: %w", err)
	}
	return chats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(row scanner) (Player, error) {
	var p Player
	var created int64
	if err := row.Scan(&p.UserID, &p.ChatID, &p.Name, &p.Score, &p.Notifications, &p.GamesToday, &created); err != nil {
		return Player{}, err
	}
	p.CreatedAt = time.Unix(created, 0)
	return p, nil
}
