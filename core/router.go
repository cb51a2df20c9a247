package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// UnknownOptionText replaces the message when a callback tag matches no
// registered handler.
const UnknownOptionText = "⚠️ Unknown option selected."

// ThrottledText is shown as a toast when a callback is refused for flooding.
const ThrottledText = "⏳ Too many requests, please slow down."

const ackTimeout = 5 * time.Second

// Router dispatches callback events to registered handlers and guarantees
// exactly one acknowledgment per event.
type Router struct {
	registry  *HandlerRegistry
	responder CallbackResponder
	logger    *slog.Logger
}

// NewRouter creates a Router.
func NewRouter(registry *HandlerRegistry, responder CallbackResponder, logger *slog.Logger) *Router {
	return &Router{
		registry:  registry,
		responder: responder,
		logger:    logger,
	}
}

// Route handles a single callback event. Handler errors and panics are
// logged; if the handler did not answer the callback, Route answers it.
func (r *Router) Route(ctx context.Context, ev CallbackEvent) {
	cb := NewCallback(ev, r.responder)
	r.logger.Info("received callback", "tag", ev.Tag, "chat_id", ev.ChatID, "user_id", ev.UserID)

	defer r.finish(ctx, cb)

	if ev.Tag == "" {
		return
	}
	// Inline-mode messages carry no chat, so nothing can be edited or stored.
	if ev.ChatID == 0 {
		r.logger.Warn("callback without a message, acknowledging only", "tag", ev.Tag, "user_id", ev.UserID)
		return
	}

	h := r.registry.Resolve(ev.Tag)
	if h == nil {
		if err := cb.Reply(ctx, UnknownOptionText, nil); err != nil {
			r.logger.Error("failed to send unknown option notice", "tag", ev.Tag, "error", err)
		}
		return
	}

	if err := h.HandleCallback(ctx, cb); err != nil {
		r.logger.Error("callback handler failed", "tag", ev.Tag, "error", err)
	}
}

// Decline acknowledges a callback without dispatching it. text is shown to
// the user as a toast.
func (r *Router) Decline(ctx context.Context, ev CallbackEvent, text string) {
	cb := NewCallback(ev, r.responder)
	if err := cb.Answer(ctx, text); err != nil {
		r.logger.Error("failed to decline callback", "tag", ev.Tag, "error", err)
	}
}

// finish recovers handler panics and answers the callback if nobody did.
// It runs on a context detached from the handler deadline.
func (r *Router) finish(ctx context.Context, cb *Callback) {
	if rec := recover(); rec != nil {
		r.logger.Error("callback handler panicked", "tag", cb.Event.Tag, "error", fmt.Sprint(rec))
	}
	if cb.Answered() {
		return
	}

	ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ackTimeout)
	defer cancel()
	if err := cb.Answer(ackCtx, ""); err != nil {
		r.logger.Error("failed to answer callback", "tag", cb.Event.Tag, "error", err)
	}
}
