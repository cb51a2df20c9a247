package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jdelaire/bingobot/adapters/telegram_bot"
	"github.com/jdelaire/bingobot/adapters/telegram_notifier"
	"github.com/jdelaire/bingobot/adapters/telegram_receiver"
	"github.com/jdelaire/bingobot/core"
	"github.com/jdelaire/bingobot/internal/config"
	"github.com/jdelaire/bingobot/internal/jobs"
	"github.com/jdelaire/bingobot/internal/keychain"
	"github.com/jdelaire/bingobot/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			token, err := cfg.ResolveToken(func() (string, error) {
				return keychain.Get(keychain.TokenAccount)
			})
			if errors.Is(err, config.ErrMissingToken) {
				return fmt.Errorf("%w: set BOT_TOKEN or run 'bingobot token set'", err)
			}
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bot, err := telegram_bot.New(token, cfg.APIServer, logger)
			if err != nil {
				return err
			}
			notifier := telegram_notifier.New(bot)

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			dispatcher, err := buildDispatcher(cfg, st, notifier, logger)
			if err != nil {
				return err
			}
			broadcaster := jobs.NewBroadcaster(st, notifier, logger)
			scheduler, err := buildScheduler(cfg, st, broadcaster, logger)
			if err != nil {
				return err
			}

			svc := core.NewService(core.ServiceConfig{
				Store:        st,
				Scheduler:    scheduler,
				Receiver:     telegram_receiver.New(bot, dispatcher.Handle, logger),
				Dispatcher:   dispatcher,
				DrainTimeout: cfg.ShutdownTimeout,
				AdminSocket:  cfg.AdminSocket,
				Broadcaster:  broadcaster,
				Logger:       logger,
			})

			logger.Info("bingobot starting", "db", st.Path(), "admin_socket", cfg.AdminSocket)
			if err := svc.Run(ctx); err != nil {
				logger.Error("bingobot stopped with error", "error", err)
				return err
			}
			logger.Info("bingobot stopped")
			return nil
		},
	}
}
