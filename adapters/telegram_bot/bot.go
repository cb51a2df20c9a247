// Package telegram_bot builds the Telegram Bot API client shared by the
// receiver and the notifier.
package telegram_bot

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/mymmrac/telego"
)

// New creates a bot client for token. apiServer overrides the Bot API base
// URL when non-empty. Library log output is routed to logger.
func New(token, apiServer string, logger *slog.Logger) (*telego.Bot, error) {
	opts := []telego.BotOption{telego.WithLogger(slogAdapter{logger: logger.With("component", "telego")})}
	if apiServer != "" {
		opts = append(opts, telego.WithAPIServer(strings.TrimRight(apiServer, "/")))
	}

	bot, err := telego.NewBot(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return bot, nil
}

// slogAdapter satisfies telego.Logger.
type slogAdapter struct {
	logger *slog.Logger
}

func (a slogAdapter) Debugf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

func (a slogAdapter) Errorf(format string, args ...any) {
	a.logger.Error(fmt.Sprintf(format, args...))
}
