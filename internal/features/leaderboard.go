package features

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jdelaire/bingobot/core"
	"github.com/jdelaire/bingobot/internal/store"
)

// LeaderboardSize is how many players the leaderboard shows and snapshots.
const LeaderboardSize = 10

// RankingStore lists players by score.
type RankingStore interface {
	TopPlayers(ctx context.Context, limit int) ([]store.Player, error)
}

// Leaderboard shows the top players by score.
type Leaderboard struct {
	store RankingStore
}

func NewLeaderboard(st RankingStore) *Leaderboard {
	return &Leaderboard{store: st}
}

func (l *Leaderboard) HandleCallback(ctx context.Context, cb *core.Callback) error {
	top, err := l.store.TopPlayers(ctx, LeaderboardSize)
	if err != nil {
		return errors.Join(fmt.Errorf("load leaderboard: %w", err), cb.Answer(ctx, "Leaderboard is unavailable right now."))
	}
	return cb.Reply(ctx, FormatLeaderboard(top), nil)
}

var medals = []string{"🥇", "🥈", "🥉"}

func FormatLeaderboard(top []store.Player) string {
	if len(top) == 0 {
		return "🏆 Leaderboard\n\nNo games played yet. Be the first!"
	}

	var b strings.Builder
	b.WriteString("🏆 Leaderboard\n")
	for i, p := range top {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("Player %d", p.UserID)
		}
		fmt.Fprintf(&b, "\n%s %s: %d", rank, name, p.Score)
	}
	return b.String()
}
