package core

import (
	"context"

	"github.com/jdelaire/bingobot/core/menu"
)

// Notifier delivers new messages to a chat.
type Notifier interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// CallbackResponder acknowledges callbacks and edits the message a button
// was attached to.
type CallbackResponder interface {
	AnswerCallback(ctx context.Context, callbackID, text string) error
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, kb menu.Keyboard) error
}

// Messenger is the full outbound surface of the platform.
type Messenger interface {
	Notifier
	CallbackResponder
}
