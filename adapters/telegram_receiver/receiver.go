package telegram_receiver

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mymmrac/telego"

	"github.com/jdelaire/bingobot/core"
)

const longPollTimeout = 30

// Updater is the part of *telego.Bot the receiver needs.
type Updater interface {
	UpdatesViaLongPolling(ctx context.Context, params *telego.GetUpdatesParams, options ...telego.LongPollingOption) (<-chan telego.Update, error)
}

// Receiver long-polls Telegram for commands and button presses.
type Receiver struct {
	bot     Updater
	handler core.EventHandler
	logger  *slog.Logger
}

// New creates a Telegram receiver that passes each event to handler.
func New(bot Updater, handler core.EventHandler, logger *slog.Logger) *Receiver {
	return &Receiver{
		bot:     bot,
		handler: handler,
		logger:  logger,
	}
}

// Start begins the long-poll loop. Blocks until ctx is cancelled. handler is
// called synchronously, so the poll loop applies its backpressure.
func (r *Receiver) Start(ctx context.Context) error {
	updates, err := r.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        longPollTimeout,
		AllowedUpdates: []string{"message", "callback_query"},
	})
	if err != nil {
		return fmt.Errorf("start long polling: %w", err)
	}

	r.logger.Info("telegram receiver started")
	for u := range updates {
		ev, ok := toEvent(u)
		if !ok {
			r.logger.Debug("ignoring update", "update_id", u.UpdateID)
			continue
		}
		r.handler(ev)
	}
	r.logger.Info("telegram receiver stopped")
	return nil
}

// toEvent converts an update to a core event. Plain text that is not a
// command and update kinds the bot does not handle are dropped.
func toEvent(u telego.Update) (core.Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		return callbackEvent(u), true
	case u.Message != nil:
		return commandEvent(u)
	default:
		return nil, false
	}
}

func commandEvent(u telego.Update) (core.Event, bool) {
	msg := u.Message
	name, args := core.ParseCommand(msg.Text)
	if name == "" {
		return nil, false
	}

	ev := core.CommandEvent{
		UpdateID:  int64(u.UpdateID),
		ChatID:    msg.Chat.ID,
		Name:      name,
		Args:      args,
		Timestamp: time.Unix(msg.Date, 0),
	}
	if msg.From != nil {
		ev.UserID = msg.From.ID
		ev.Username = msg.From.Username
		ev.DisplayName = displayName(msg.From)
	}
	return ev, true
}

func callbackEvent(u telego.Update) core.CallbackEvent {
	q := u.CallbackQuery
	ev := core.CallbackEvent{
		UpdateID:    int64(u.UpdateID),
		ID:          q.ID,
		Tag:         q.Data,
		UserID:      q.From.ID,
		Username:    q.From.Username,
		DisplayName: displayName(&q.From),
	}
	if q.Message != nil {
		ev.ChatID = q.Message.GetChat().ID
		ev.MessageID = q.Message.GetMessageID()
	}
	return ev
}

func displayName(u *telego.User) string {
	if u.Username != "" {
		return u.Username
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}
