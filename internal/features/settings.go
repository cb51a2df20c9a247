package features

import (
	"context"
	"fmt"

	"github.com/jdelaire/bingobot/core"
	"github.com/jdelaire/bingobot/core/menu"
	"github.com/jdelaire/bingobot/internal/store"
)

const TagSettingsNotifications = menu.TagSettings + "_notifications"

// SettingsStore reads and updates player settings.
type SettingsStore interface {
	UpsertPlayer(ctx context.Context, userID, chatID int64, name string) error
	Player(ctx context.Context, userID int64) (store.Player, error)
	ToggleNotifications(ctx context.Context, userID int64) (bool, error)
}

// Settings shows the reminder setting and toggles it.
type Settings struct {
	store SettingsStore
}

func NewSettings(st SettingsStore) *Settings {
	return &Settings{store: st}
}

func (s *Settings) HandleCallback(ctx context.Context, cb *core.Callback) error {
	ev := cb.Event
	if ev.ChatID == 0 {
		return cb.Answer(ctx, NoChatText)
	}
	if err := s.store.UpsertPlayer(ctx, ev.UserID, ev.ChatID, ev.DisplayName); err != nil {
		return fmt.Errorf("register player: %w", err)
	}

	var enabled bool
	switch ev.Tag {
	case menu.TagSettings:
		p, err := s.store.Player(ctx, ev.UserID)
		if err != nil {
			return fmt.Errorf("load settings: %w", err)
		}
		enabled = p.Notifications
	case TagSettingsNotifications:
		v, err := s.store.ToggleNotifications(ctx, ev.UserID)
		if err != nil {
			return fmt.Errorf("toggle notifications: %w", err)
		}
		enabled = v
	default:
		return cb.Reply(ctx, core.UnknownOptionText, nil)
	}

	text, kb := settingsView(enabled)
	return cb.Reply(ctx, text, kb)
}

func settingsView(enabled bool) (string, menu.Keyboard) {
	if enabled {
		return "⚙️ Settings\n\nDaily reminders: On",
			menu.Single(menu.TagButton("🔕 Turn reminders off", TagSettingsNotifications))
	}
	return "⚙️ Settings\n\nDaily reminders: Off",
		menu.Single(menu.TagButton("🔔 Turn reminders on", TagSettingsNotifications))
}
