package main

import (
	"fmt"
	"log/slog"

	"github.com/jdelaire/bingobot/core"
	"github.com/jdelaire/bingobot/core/commands"
	"github.com/jdelaire/bingobot/core/menu"
	"github.com/jdelaire/bingobot/core/policy"
	"github.com/jdelaire/bingobot/core/ratelimit"
	"github.com/jdelaire/bingobot/internal/config"
	"github.com/jdelaire/bingobot/internal/features"
	"github.com/jdelaire/bingobot/internal/jobs"
	"github.com/jdelaire/bingobot/internal/store"
)

// buildCommands registers the slash commands.
func buildCommands(links menu.Links) (*commands.Registry, error) {
	reg := commands.NewRegistry()
	for _, c := range []commands.Command{
		&commands.StartCommand{Links: links},
		&commands.HelpCommand{Registry: reg},
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// buildHandlers registers a callback handler for every main menu tag.
func buildHandlers(st *store.Store, logger *slog.Logger) (*core.HandlerRegistry, error) {
	b := core.NewRegistryBuilder()
	for _, r := range []struct {
		prefix  string
		handler core.CallbackHandler
	}{
		{menu.TagStartGame, features.NewGame(st, logger)},
		{menu.TagLeaderboard, features.NewLeaderboard(st)},
		{menu.TagSettings, features.NewSettings(st)},
		{menu.TagDailyQuests, features.ComingSoon{Text: features.DailyQuestsText}},
		{menu.TagShop, features.ComingSoon{Text: features.ShopText}},
	} {
		if err := b.Register(r.prefix, r.handler); err != nil {
			return nil, fmt.Errorf("register %s handler: %w", r.prefix, err)
		}
	}
	return b.Build(), nil
}

func buildDispatcher(cfg config.Config, st *store.Store, messenger core.Messenger, logger *slog.Logger) (*core.Dispatcher, error) {
	cmds, err := buildCommands(cfg.Links())
	if err != nil {
		return nil, err
	}
	handlers, err := buildHandlers(st, logger)
	if err != nil {
		return nil, err
	}

	opts := core.DispatcherOptions{
		MaxConcurrent:  cfg.MaxConcurrentHandlers,
		HandlerTimeout: cfg.HandlerTimeout,
	}
	if cfg.RateLimitEnabled() {
		opts.Limiter = ratelimit.New(cfg.RateLimitEvents, cfg.RateLimitWindow, cfg.RateLimitCooldown)
	}

	router := core.NewRouter(handlers, messenger, logger)
	return core.NewDispatcher(policy.New(policy.DefaultFreshnessWindow), cmds, router, messenger, logger, opts), nil
}

func buildScheduler(cfg config.Config, st *store.Store, broadcaster *jobs.Broadcaster, logger *slog.Logger) (*jobs.Scheduler, error) {
	return jobs.NewScheduler(logger,
		jobs.QuestReset(cfg.QuestResetSchedule, st, broadcaster, logger),
		jobs.LeaderboardSnapshot(cfg.SnapshotSchedule, features.LeaderboardSize, st, logger),
	)
}
