package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/jdelaire/bingobot/core/commands"
	"github.com/jdelaire/bingobot/core/policy"
	"github.com/jdelaire/bingobot/core/ratelimit"
)

const (
	DefaultMaxConcurrent  = 8
	DefaultHandlerTimeout = 30 * time.Second
)

// DispatcherOptions tunes concurrency. Zero values select the defaults.
// A nil Limiter disables per-user throttling.
type DispatcherOptions struct {
	MaxConcurrent  int
	HandlerTimeout time.Duration
	Limiter        *ratelimit.Limiter
}

// Dispatcher filters inbound events and runs each accepted one in its own
// goroutine: commands go to the command registry, callbacks to the Router.
type Dispatcher struct {
	policy   *policy.Policy
	commands *commands.Registry
	router   *Router
	notifier Notifier
	logger   *slog.Logger
	limiter  *ratelimit.Limiter
	sem      *semaphore.Weighted
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. pol may be nil to accept every event.
func NewDispatcher(pol *policy.Policy, cmds *commands.Registry, router *Router, notifier Notifier, logger *slog.Logger, opts DispatcherOptions) *Dispatcher {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.HandlerTimeout <= 0 {
		opts.HandlerTimeout = DefaultHandlerTimeout
	}
	return &Dispatcher{
		policy:   pol,
		commands: cmds,
		router:   router,
		notifier: notifier,
		logger:   logger,
		limiter:  opts.Limiter,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		timeout:  opts.HandlerTimeout,
	}
}

// Handle accepts an inbound event. It blocks while the maximum number of
// events is already in flight, then returns without waiting for the event
// to be processed. Events arriving after Drain are dropped.
func (d *Dispatcher) Handle(ev Event) {
	if d.policy != nil {
		if err := d.policy.Authorize(ev.Update(), timestampOf(ev)); err != nil {
			d.logger.Debug("event rejected by policy", "update_id", ev.Update(), "error", err)
			return
		}
	}

	if err := d.sem.Acquire(context.Background(), 1); err != nil {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.sem.Release(1)
		d.logger.Debug("dispatcher closed, dropping event", "update_id", ev.Update())
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer d.sem.Release(1)
		d.process(ev)
	}()
}

// Drain stops accepting events and waits for in-flight ones. It returns
// false if timeout elapsed first. A non-positive timeout waits indefinitely.
func (d *Dispatcher) Drain(timeout time.Duration) bool {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	if timeout <= 0 {
		<-done
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

func (d *Dispatcher) process(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error("event handler panicked", "update_id", ev.Update(), "error", fmt.Sprint(rec))
		}
	}()

	if d.limiter != nil {
		if err := d.limiter.Allow(userOf(ev)); err != nil {
			d.logger.Warn("event throttled", "update_id", ev.Update(), "user_id", userOf(ev), "error", err)
			if cb, ok := ev.(CallbackEvent); ok {
				d.router.Decline(ctx, cb, ThrottledText)
			}
			return
		}
	}

	switch e := ev.(type) {
	case CommandEvent:
		d.handleCommand(ctx, e)
	case CallbackEvent:
		d.router.Route(ctx, e)
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, ev CommandEvent) {
	if ev.Name == "" {
		return
	}

	cmd := d.commands.Get(ev.Name)
	if cmd == nil {
		d.respond(ctx, ev.ChatID, commands.Reply{
			Text: fmt.Sprintf("Unknown command: /%s\nSend /help for available commands.", ev.Name),
		})
		return
	}

	reply, err := cmd.Execute(ctx, commands.Request{
		ChatID:      ev.ChatID,
		UserID:      ev.UserID,
		Username:    ev.Username,
		DisplayName: ev.DisplayName,
		Args:        ev.Args,
	})
	if err != nil {
		d.logger.Error("command failed", "command", ev.Name, "chat_id", ev.ChatID, "error", err)
		return
	}
	d.respond(ctx, ev.ChatID, reply)
}

func (d *Dispatcher) respond(ctx context.Context, chatID int64, reply commands.Reply) {
	n := Notification{
		ID:        uuid.NewString(),
		ChatID:    chatID,
		Text:      reply.Text,
		Keyboard:  reply.Keyboard,
		Source:    "dispatcher",
		CreatedAt: time.Now(),
	}
	if err := d.notifier.Send(ctx, n); err != nil {
		d.logger.Error("failed to send response", "id", n.ID, "chat_id", chatID, "error", err)
		return
	}
	d.logger.Debug("response sent", "id", n.ID, "chat_id", chatID)
}

func userOf(ev Event) int64 {
	switch e := ev.(type) {
	case CommandEvent:
		return e.UserID
	case CallbackEvent:
		return e.UserID
	}
	return 0
}

func timestampOf(ev Event) time.Time {
	if c, ok := ev.(CommandEvent); ok {
		return c.Timestamp
	}
	return time.Time{}
}
