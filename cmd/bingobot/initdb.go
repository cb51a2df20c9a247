package main

import (
	"github.com/spf13/cobra"

	"github.com/jdelaire/bingobot/internal/store"
)

func newInitDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the database schema and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Init(cmd.Context()); err != nil {
				return err
			}
			logger.Info("database ready", "path", st.Path())
			return nil
		},
	}
}
