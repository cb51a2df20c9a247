package telegram_notifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/jdelaire/bingobot/core"
	"github.com/jdelaire/bingobot/core/menu"
)

// API is the part of *telego.Bot the notifier calls.
type API interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *telego.AnswerCallbackQueryParams) error
	EditMessageText(ctx context.Context, params *telego.EditMessageTextParams) (*telego.Message, error)
}

// Notifier sends messages, callback answers and message edits through the
// Telegram Bot API.
type Notifier struct {
	api API
}

var _ core.Messenger = (*Notifier)(nil)

// New creates a Telegram notifier.
func New(api API) *Notifier {
	return &Notifier{api: api}
}

func (n *Notifier) Name() string { return "telegram" }

func (n *Notifier) Send(ctx context.Context, notif core.Notification) error {
	params := &telego.SendMessageParams{
		ChatID: tu.ID(notif.ChatID),
		Text:   notif.Text,
	}
	if markup := inlineKeyboard(notif.Keyboard); markup != nil {
		params.ReplyMarkup = markup
	}

	if _, err := n.api.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("telegram sendMessage to chat %d: %w", notif.ChatID, err)
	}
	return nil
}

func (n *Notifier) AnswerCallback(ctx context.Context, callbackID, text string) error {
	err := n.api.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		return fmt.Errorf("telegram answerCallbackQuery: %w", err)
	}
	return nil
}

// EditMessage replaces the text and keyboard of a message the bot sent.
// Telegram rejects edits that change nothing; those count as success.
func (n *Notifier) EditMessage(ctx context.Context, chatID int64, messageID int, text string, kb menu.Keyboard) error {
	_, err := n.api.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(chatID),
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: inlineKeyboard(kb),
	})
	if err != nil && !strings.Contains(err.Error(), "message is not modified") {
		return fmt.Errorf("telegram editMessageText in chat %d: %w", chatID, err)
	}
	return nil
}

// inlineKeyboard converts a menu keyboard. It returns nil for an empty
// keyboard so no reply_markup is sent.
func inlineKeyboard(kb menu.Keyboard) *telego.InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]telego.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]telego.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			btn := telego.InlineKeyboardButton{Text: b.Label}
			if b.URL != "" {
				btn.URL = b.URL
			} else {
				btn.CallbackData = b.Tag
			}
			buttons = append(buttons, btn)
		}
		rows = append(rows, buttons)
	}
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}
