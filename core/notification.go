package core

import (
	"time"

	"github.com/jdelaire/bingobot/core/menu"
)

// Notification is an outbound message to a single chat.
type Notification struct {
	ID        string        `json:"id"`
	ChatID    int64         `json:"chat_id"`
	Text      string        `json:"text"`
	Keyboard  menu.Keyboard `json:"-"`
	Source    string        `json:"source"`
	CreatedAt time.Time     `json:"created_at"`
}
