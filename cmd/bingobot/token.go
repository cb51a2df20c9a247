package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jdelaire/bingobot/internal/config"
	"github.com/jdelaire/bingobot/internal/keychain"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the bot token stored in the OS keychain",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Read a bot token from stdin and store it in the keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprint(cmd.ErrOrStderr(), "Bot token: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token: %w", err)
			}
			token := strings.TrimSpace(line)
			if token == "" || token == config.PlaceholderToken {
				return errors.New("a real bot token is required")
			}
			if err := keychain.Set(keychain.TokenAccount, token); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored in keychain.")
			return nil
		},
	})
	return cmd
}
