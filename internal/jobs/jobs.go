package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

const QuestResetText = "🎯 Daily quests have been reset! Play 3 games today to earn a bonus."

// QuestStore resets daily quest progress.
type QuestStore interface {
	ResetDailyQuests(ctx context.Context) (int64, error)
}

// QuestReset zeroes quest progress, then announces it. A failed
// announcement fails the cycle but the reset stays committed.
func QuestReset(schedule string, st QuestStore, b *Broadcaster, logger *slog.Logger) Job {
	return Job{
		Name:     "quest_reset",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			n, err := st.ResetDailyQuests(ctx)
			if err != nil {
				return err
			}
			logger.Info("daily quests reset", "players", n)

			if _, err := b.Broadcast(ctx, uuid.NewString(), QuestResetText, "quest_reset"); err != nil {
				return fmt.Errorf("announce reset: %w", err)
			}
			return nil
		},
	}
}

// SnapshotStore persists the leaderboard.
type SnapshotStore interface {
	SnapshotLeaderboard(ctx context.Context, limit int) (int, error)
}

func LeaderboardSnapshot(schedule string, limit int, st SnapshotStore, logger *slog.Logger) Job {
	return Job{
		Name:     "leaderboard_snapshot",
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			n, err := st.SnapshotLeaderboard(ctx, limit)
			if err != nil {
				return err
			}
			logger.Debug("leaderboard snapshot stored", "rows", n)
			return nil
		},
	}
}
