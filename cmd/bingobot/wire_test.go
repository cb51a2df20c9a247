package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jdelaire/bingobot/core"
	"github.com/jdelaire/bingobot/core/menu"
	"github.com/jdelaire/bingobot/internal/config"
	"github.com/jdelaire/bingobot/internal/features"
	"github.com/jdelaire/bingobot/internal/store"
)

type edit struct {
	chatID    int64
	messageID int
	text      string
}

type spyMessenger struct {
	mu      sync.Mutex
	sent    []core.Notification
	answers []string
	edits   []edit
}

func (s *spyMessenger) Name() string { return "spy" }

func (s *spyMessenger) Send(_ context.Context, n core.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, n)
	return nil
}

func (s *spyMessenger) AnswerCallback(_ context.Context, id, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, id)
	return nil
}

func (s *spyMessenger) EditMessage(_ context.Context, chatID int64, messageID int, text string, _ menu.Keyboard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edits = append(s.edits, edit{chatID: chatID, messageID: messageID, text: text})
	return nil
}

type harness struct {
	t          *testing.T
	spy        *spyMessenger
	dispatcher *core.Dispatcher
	store      *store.Store
}

var updateID atomic.Int64

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.Open(filepath.Join(t.TempDir(), "bingo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Init(context.Background()))

	spy := &spyMessenger{}
	d, err := buildDispatcher(config.Default(), st, spy, logger)
	require.NoError(t, err)
	return &harness{t: t, spy: spy, dispatcher: d, store: st}
}

func (h *harness) command(name string) {
	h.dispatcher.Handle(core.CommandEvent{
		UpdateID:  updateID.Add(1),
		ChatID:    500,
		UserID:    5,
		Name:      name,
		Timestamp: time.Now(),
	})
}

func (h *harness) press(tag string) {
	h.dispatcher.Handle(core.CallbackEvent{
		UpdateID:    updateID.Add(1),
		ID:          tag + "-cb",
		Tag:         tag,
		ChatID:      500,
		MessageID:   77,
		UserID:      5,
		DisplayName: "eve",
	})
}

func (h *harness) drain() {
	h.t.Helper()
	require.True(h.t, h.dispatcher.Drain(5*time.Second), "drain timed out")
}

func TestStartShowsMainMenu(t *testing.T) {
	h := newHarness(t)
	h.command("start")
	h.drain()

	require.Len(t, h.spy.sent, 1)
	n := h.spy.sent[0]
	require.Equal(t, menu.WelcomeText, n.Text)
	require.Len(t, n.Keyboard, 7)

	var labels []string
	for _, row := range n.Keyboard {
		require.Len(t, row, 1)
		labels = append(labels, row[0].Label)
	}
	want := []string{"🎮 Start Game", "🏆 Leaderboard", "⚙️ Settings", "🎯 Daily Quests", "🪙 Shop", "📣 Support Group", "🔔 Updates Channel"}
	if diff := cmp.Diff(want, labels); diff != "" {
		t.Errorf("menu labels (-want +got):\n%s", diff)
	}
	require.Equal(t, menu.DefaultSupportURL, n.Keyboard[5][0].URL)
}

func TestStartGameGoesToGameHandler(t *testing.T) {
	h := newHarness(t)
	h.press(menu.TagStartGame)
	h.drain()

	require.Equal(t, []string{"start_game-cb"}, h.spy.answers)
	require.Len(t, h.spy.edits, 1)
	require.Contains(t, h.spy.edits[0].text, "Ready for a new bingo card")

	h2 := newHarness(t)
	h2.press(features.TagStartGameConfirm)
	h2.drain()
	require.Len(t, h2.spy.answers, 1)
	p, err := h2.store.Player(context.Background(), 5)
	require.NoError(t, err)
	require.Equal(t, features.GamePoints, p.Score)
	require.Equal(t, "eve", p.Name)
}

func TestDailyQuestsComingSoon(t *testing.T) {
	h := newHarness(t)
	h.press(menu.TagDailyQuests)
	h.drain()

	require.Len(t, h.spy.answers, 1)
	require.Equal(t, []edit{{chatID: 500, messageID: 77, text: "🎯 Daily Quests feature coming soon!"}}, h.spy.edits)
}

func TestUnknownTag(t *testing.T) {
	h := newHarness(t)
	h.press("unknown_tag")
	h.drain()

	require.Len(t, h.spy.answers, 1)
	require.Len(t, h.spy.edits, 1)
	require.Equal(t, "⚠️ Unknown option selected.", h.spy.edits[0].text)
}

func TestEmptyTagIsOnlyAcknowledged(t *testing.T) {
	h := newHarness(t)
	h.press("")
	h.drain()

	require.Len(t, h.spy.answers, 1)
	require.Empty(t, h.spy.edits)
	require.Empty(t, h.spy.sent)
}

func TestHandlersCoverMainMenu(t *testing.T) {
	reg, err := buildHandlers(nil, slog.Default())
	require.NoError(t, err)
	require.Equal(t, []string{"start_game", "leaderboard", "settings", "daily_quests", "shop"}, reg.Prefixes())

	for _, row := range menu.MainMenu(menu.Links{}) {
		if tag := row[0].Tag; tag != "" {
			require.NotNil(t, reg.Resolve(tag), "no handler for %s", tag)
		}
	}
	require.NotNil(t, reg.Resolve(features.TagSettingsNotifications))
}

func TestBuildScheduler(t *testing.T) {
	_, err := buildScheduler(config.Default(), nil, nil, slog.Default())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.SnapshotSchedule = "nope"
	_, err = buildScheduler(cfg, nil, nil, slog.Default())
	require.Error(t, err)
}

func TestHelpListsCommands(t *testing.T) {
	h := newHarness(t)
	h.command("help")
	h.drain()

	require.Len(t, h.spy.sent, 1)
	require.Contains(t, h.spy.sent[0].Text, "/start")
	require.Contains(t, h.spy.sent[0].Text, "/help")
}
