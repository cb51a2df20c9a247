package core

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jdelaire/bingobot/core/menu"
)

// Callback wraps a CallbackEvent with its platform responses. Answer sends
// at most one acknowledgment no matter how often it is called.
type Callback struct {
	Event CallbackEvent

	responder CallbackResponder
	answered  atomic.Bool
}

// NewCallback binds ev to responder.
func NewCallback(ev CallbackEvent, responder CallbackResponder) *Callback {
	return &Callback{Event: ev, responder: responder}
}

// Answer acknowledges the callback, optionally with a toast text.
// Calls after the first are no-ops.
func (c *Callback) Answer(ctx context.Context, text string) error {
	if !c.answered.CompareAndSwap(false, true) {
		return nil
	}
	return c.responder.AnswerCallback(ctx, c.Event.ID, text)
}

// Answered reports whether an acknowledgment has been attempted.
func (c *Callback) Answered() bool {
	return c.answered.Load()
}

// EditText replaces the text (and keyboard) of the message the button was
// attached to.
func (c *Callback) EditText(ctx context.Context, text string, kb menu.Keyboard) error {
	return c.responder.EditMessage(ctx, c.Event.ChatID, c.Event.MessageID, text, kb)
}

// Reply answers the callback and edits its message. It is the common path
// for handlers that produce one content update.
func (c *Callback) Reply(ctx context.Context, text string, kb menu.Keyboard) error {
	answerErr := c.Answer(ctx, "")
	return errors.Join(answerErr, c.EditText(ctx, text, kb))
}
