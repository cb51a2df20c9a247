package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "bingo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	require.NoError(t, s.Init(context.Background()))
	return s
}

func game(id string, userID int64) GameRecord {
	return GameRecord{ID: id, UserID: userID, Card: `[[1]]`, Points: 10, QuestTarget: 3, QuestBonus: 25}
}

func TestInitIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPlayer(ctx, 1, 100, "alice"))
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))

	p, err := s.Player(ctx, 1)
	require.NoError(t, err, "data must survive repeated Init")
	require.Equal(t, "alice", p.Name)
}

func TestUpsertPlayer(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertPlayer(ctx, 1, 100, "alice"))
	p, err := s.Player(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(100), p.ChatID)
	require.True(t, p.Notifications, "reminders default on")
	require.Zero(t, p.Score)

	require.NoError(t, s.UpsertPlayer(ctx, 1, 200, ""))
	p, err = s.Player(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, int64(200), p.ChatID)
	require.Equal(t, "alice", p.Name, "empty name keeps the old one")
}

func TestPlayerNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Player(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRecordGameAwardsQuestBonusOnce(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertPlayer(ctx, 1, 100, "alice"))

	want := []GameResult{
		{Score: 10, GamesToday: 1},
		{Score: 20, GamesToday: 2},
		{Score: 55, GamesToday: 3, BonusAwarded: true},
		{Score: 65, GamesToday: 4},
	}
	for i, w := range want {
		res, err := s.RecordGame(ctx, game(string(rune('a'+i)), 1))
		require.NoError(t, err)
		require.Equal(t, w, res, "game %d", i+1)
	}

	p, err := s.Player(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 65, p.Score)
	require.Equal(t, 4, p.GamesToday)
}

func TestRecordGameUnknownPlayer(t *testing.T) {
	s := newTestStore(t)
	_, err := s.RecordGame(context.Background(), game("g1", 99))
	require.Error(t, err)
}

func TestRecordGameDuplicateIDRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertPlayer(ctx, 1, 100, "alice"))

	_, err := s.RecordGame(ctx, game("g1", 1))
	require.NoError(t, err)
	_, err = s.RecordGame(ctx, game("g1", 1))
	require.Error(t, err)

	p, err := s.Player(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, 10, p.Score)
	require.Equal(t, 1, p.GamesToday)
}

func TestResetDailyQuests(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertPlayer(ctx, 1, 100, "alice"))
	require.NoError(t, s.UpsertPlayer(ctx, 2, 200, "bob"))
	for _, id := range []string{"a", "b", "c"} {
		_, err := s.RecordGame(ctx, game(id, 1))
		require.NoError(t, err)
	}

	n, err := s.ResetDailyQuests(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	p, err := s.Player(ctx, 1)
	require.NoError(t, err)
	require.Zero(t, p.GamesToday)
	require.Equal(t, 55, p.Score, "score is kept")

	res, err := s.RecordGame(ctx, game("d", 1))
	require.NoError(t, err)
	require.Equal(t, 1, res.GamesToday)
}

func TestTopPlayers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i, name := range []string{"alice", "bob", "carol"} {
		require.NoError(t, s.UpsertPlayer(ctx, int64(i+1), int64(100+i), name))
	}
	_, err := s.RecordGame(ctx, game("g1", 2))
	require.NoError(t, err)

	top, err := s.TopPlayers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	require.Equal(t, "bob", top[0].Name)
	require.Equal(t, "alice", top[1].Name, "ties go to the earliest player")
}

func TestToggleNotifications(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertPlayer(ctx, 1, 100, "alice"))
	require.NoError(t, s.UpsertPlayer(ctx, 2, 200, "bob"))

	on, err := s.ToggleNotifications(ctx, 1)
	require.NoError(t, err)
	require.False(t, on)

	chats, err := s.NotifiableChats(ctx)
	require.NoError(t, err)
	require.Equal(t, []int64{200}, chats)

	on, err = s.ToggleNotifications(ctx, 1)
	require.NoError(t, err)
	require.True(t, on)

	_, err = s.ToggleNotifications(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotLeaderboard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, err := s.LatestSnapshot(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.UpsertPlayer(ctx, 1, 100, "alice"))
	require.NoError(t, s.UpsertPlayer(ctx, 2, 200, "bob"))
	_, err = s.RecordGame(ctx, game("g1", 2))
	require.NoError(t, err)

	n, err := s.SnapshotLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	entries, at, err := s.LatestSnapshot(ctx)
	require.NoError(t, err)
	require.False(t, at.IsZero())
	require.Equal(t, []SnapshotEntry{
		{Rank: 1, UserID: 2, Name: "bob", Score: 10},
		{Rank: 2, UserID: 1, Name: "alice", Score: 0},
	}, entries)
}
