package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jdelaire/bingobot/core"
)

// ChatLister lists the chats that accept announcements.
type ChatLister interface {
	NotifiableChats(ctx context.Context) ([]int64, error)
}

// Broadcaster sends one text to every player with reminders enabled.
type Broadcaster struct {
	chats    ChatLister
	notifier core.Notifier
	logger   *slog.Logger
}

var _ core.Broadcaster = (*Broadcaster)(nil)

func NewBroadcaster(chats ChatLister, notifier core.Notifier, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{chats: chats, notifier: notifier, logger: logger}
}

// Broadcast returns the number of chats reached. Delivery failures do not
// stop the broadcast; they are joined into the returned error.
func (b *Broadcaster) Broadcast(ctx context.Context, id, text, source string) (int, error) {
	chats, err := b.chats.NotifiableChats(ctx)
	if err != nil {
		return 0, fmt.Errorf("list recipients: %w", err)
	}

	var errs []error
	sent := 0
	for _, chatID := range chats {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		n := core.Notification{
			ID:        id,
			ChatID:    chatID,
			Text:      text,
			Source:    source,
			CreatedAt: time.Now(),
		}
		if err := b.notifier.Send(ctx, n); err != nil {
			b.logger.Warn("announcement not delivered", "id", id, "chat_id", chatID, "error", err)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
			continue
		}
		sent++
	}

	b.logger.Info("broadcast finished", "id", id, "source", source, "recipients", len(chats), "sent", sent)
	return sent, errors.Join(errs...)
}
