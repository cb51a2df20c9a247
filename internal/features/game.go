package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/google/uuid"

	"github.com/jdelaire/bingobot/core"
	"github.com/jdelaire/bingobot/core/menu"
	"github.com/jdelaire/bingobot/internal/store"
)

const (
	GamePoints  = 10
	QuestTarget = 3
	QuestBonus  = 25

	TagStartGameConfirm = menu.TagStartGame + "_confirm"

	// NoChatText is the toast for buttons pressed outside a bot chat.
	NoChatText = "Open a chat with the bot to use this button."
	retryText  = "Something went wrong, please try again."
)

// GameStore is the persistence the game needs.
type GameStore interface {
	UpsertPlayer(ctx context.Context, userID, chatID int64, name string) error
	RecordGame(ctx context.Context, g store.GameRecord) (store.GameResult, error)
}

// Game deals bingo cards. "start_game" asks for confirmation and
// "start_game_confirm" deals a card and credits the player.
type Game struct {
	store  GameStore
	logger *slog.Logger
	perm   func(n int) []int
}

// NewGame creates the game handler.
func NewGame(st GameStore, logger *slog.Logger) *Game {
	return &Game{store: st, logger: logger, perm: rand.Perm}
}

func (g *Game) HandleCallback(ctx context.Context, cb *core.Callback) error {
	switch cb.Event.Tag {
	case menu.TagStartGame:
		return cb.Reply(ctx,
			fmt.Sprintf("🎮 Ready for a new bingo card?\n\nEach game earns %d points. Play %d today for a %d point bonus!", GamePoints, QuestTarget, QuestBonus),
			menu.Single(menu.TagButton("✅ Deal my card", TagStartGameConfirm)))
	case TagStartGameConfirm:
		return g.deal(ctx, cb)
	default:
		return cb.Reply(ctx, core.UnknownOptionText, nil)
	}
}

func (g *Game) deal(ctx context.Context, cb *core.Callback) error {
	ev := cb.Event
	if ev.ChatID == 0 {
		return cb.Answer(ctx, NoChatText)
	}
	if err := g.store.UpsertPlayer(ctx, ev.UserID, ev.ChatID, ev.DisplayName); err != nil {
		return errors.Join(fmt.Errorf("register player: %w", err), cb.Answer(ctx, retryText))
	}

	card := DrawCard(g.perm)
	encoded, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("encode card: %w", err)
	}

	id := uuid.NewString()
	res, err := g.store.RecordGame(ctx, store.GameRecord{
		ID:          id,
		UserID:      ev.UserID,
		Card:        string(encoded),
		Points:      GamePoints,
		QuestTarget: QuestTarget,
		QuestBonus:  QuestBonus,
	})
	if err != nil {
		return errors.Join(fmt.Errorf("record game: %w", err), cb.Answer(ctx, retryText))
	}
	g.logger.Info("game dealt", "game_id", id, "user_id", ev.UserID, "score", res.Score, "games_today", res.GamesToday)

	var b strings.Builder
	fmt.Fprintf(&b, "🎲 Your bingo card:\n\n%s\n\n", card)
	fmt.Fprintf(&b, "+%d points! Total score: %d\n", GamePoints, res.Score)
	if res.BonusAwarded {
		fmt.Fprintf(&b, "🎯 Daily quest complete! +%d bonus points", QuestBonus)
	} else if res.GamesToday < QuestTarget {
		fmt.Fprintf(&b, "🎯 Daily quest: %d/%d games", res.GamesToday, QuestTarget)
	} else {
		b.WriteString("🎯 Daily quest already complete")
	}

	return cb.Reply(ctx, b.String(), menu.Single(menu.TagButton("🔁 Play again", TagStartGameConfirm)))
}
