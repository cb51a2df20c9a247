package core

import (
	"strings"
	"time"
)

// Event is an inbound platform event. It is either a CommandEvent or a
// CallbackEvent.
type Event interface {
	isEvent()
	Update() int64
}

// CommandEvent is a slash command sent to the bot, e.g. "/start".
type CommandEvent struct {
	UpdateID    int64
	ChatID      int64
	UserID      int64
	Username    string
	DisplayName string
	Name        string
	Args        string
	Timestamp   time.Time
}

// CallbackEvent is an inline button press. Tag is the button's callback data
// and may be empty.
type CallbackEvent struct {
	UpdateID    int64
	ID          string
	Tag         string
	ChatID      int64
	MessageID   int
	UserID      int64
	Username    string
	DisplayName string
}

func (CommandEvent) isEvent()  {}
func (CallbackEvent) isEvent() {}

func (e CommandEvent) Update() int64  { return e.UpdateID }
func (e CallbackEvent) Update() int64 { return e.UpdateID }

// EventHandler processes an inbound event.
type EventHandler func(ev Event)

// ParseCommand extracts the command name and arguments from a message.
// It handles "/command", "/command args", and "/command@botname args".
func ParseCommand(text string) (cmd, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	text = text[1:] // strip leading "/"

	parts := strings.SplitN(text, " ", 2)
	cmd = parts[0]
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}

	// Strip @botname suffix.
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}

	cmd = strings.ToLower(cmd)
	return cmd, args
}
