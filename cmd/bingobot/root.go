package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jdelaire/bingobot/internal/config"
	"github.com/jdelaire/bingobot/internal/logutil"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "bingobot",
		Short:        "Telegram bingo game bot",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Config file path (optional).")
	cmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error.")
	cmd.PersistentFlags().String("log-format", "", "Log format: text or json.")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newInitDBCmd())
	cmd.AddCommand(newTokenCmd())

	return cmd
}

// loadConfig reads the config named by --config and applies the logging
// flags on top of it.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, nil, err
	}

	if f := cmd.Flags().Lookup("log-level"); f != nil && f.Changed {
		cfg.LogLevel = f.Value.String()
	}
	if f := cmd.Flags().Lookup("log-format"); f != nil && f.Changed {
		cfg.LogFormat = f.Value.String()
	}

	logger, err := logutil.New(os.Stderr, logutil.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("configure logging: %w", err)
	}
	return cfg, logger, nil
}
