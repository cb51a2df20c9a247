// Package config loads bingobot settings from built-in defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/jdelaire/bingobot/core/menu"
)

// PlaceholderToken is the value shipped in sample configs. It is never a
// usable token.
const PlaceholderToken = "YOUR_BOT_TOKEN_HERE"

// ErrMissingToken is returned when no bot token is configured.
var ErrMissingToken = errors.New("bot token not configured")

// Config holds all runtime settings.
type Config struct {
	BotToken string `yaml:"-" env:"BOT_TOKEN"`

	DBPath      string `yaml:"db_path" env:"BINGOBOT_DB_PATH"`
	APIServer   string `yaml:"api_server" env:"BINGOBOT_API_SERVER"`
	AdminSocket string `yaml:"admin_socket" env:"BINGOBOT_ADMIN_SOCKET"`
	SupportURL  string `yaml:"support_url" env:"BINGOBOT_SUPPORT_URL"`
	UpdatesURL  string `yaml:"updates_url" env:"BINGOBOT_UPDATES_URL"`

	QuestResetSchedule string `yaml:"quest_reset_schedule" env:"BINGOBOT_QUEST_RESET_SCHEDULE"`
	SnapshotSchedule   string `yaml:"snapshot_schedule" env:"BINGOBOT_SNAPSHOT_SCHEDULE"`

	MaxConcurrentHandlers int           `yaml:"max_concurrent_handlers" env:"BINGOBOT_MAX_CONCURRENT_HANDLERS"`
	HandlerTimeout        time.Duration `yaml:"handler_timeout" env:"BINGOBOT_HANDLER_TIMEOUT"`
	ShutdownTimeout       time.Duration `yaml:"shutdown_timeout" env:"BINGOBOT_SHUTDOWN_TIMEOUT"`

	RateLimitEvents   int           `yaml:"rate_limit_events" env:"BINGOBOT_RATE_LIMIT_EVENTS"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window" env:"BINGOBOT_RATE_LIMIT_WINDOW"`
	RateLimitCooldown time.Duration `yaml:"rate_limit_cooldown" env:"BINGOBOT_RATE_LIMIT_COOLDOWN"`

	LogLevel  string `yaml:"log_level" env:"BINGOBOT_LOG_LEVEL"`
	LogFormat string `yaml:"log_format" env:"BINGOBOT_LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:                "bingobot.db",
		SupportURL:            menu.DefaultSupportURL,
		UpdatesURL:            menu.DefaultUpdatesURL,
		QuestResetSchedule:    "0 0 * * *",
		SnapshotSchedule:      "0 * * * *",
		MaxConcurrentHandlers: 8,
		HandlerTimeout:        30 * time.Second,
		ShutdownTimeout:       10 * time.Second,
		RateLimitEvents:       20,
		RateLimitWindow:       10 * time.Second,
		RateLimitCooldown:     30 * time.Second,
		LogLevel:              "info",
		LogFormat:             "text",
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (Config, error) {
	return load(path, nil)
}

// load is Load with an explicit environment; a nil environ reads the process
// environment.
func load(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	cfg.BotToken = strings.TrimSpace(cfg.BotToken)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks schedules and limits.
func (c Config) Validate() error {
	var errs []error

	g := gronx.New()
	if !g.IsValid(c.QuestResetSchedule) {
		errs = append(errs, fmt.Errorf("quest_reset_schedule: invalid cron expression %q", c.QuestResetSchedule))
	}
	if !g.IsValid(c.SnapshotSchedule) {
		errs = append(errs, fmt.Errorf("snapshot_schedule: invalid cron expression %q", c.SnapshotSchedule))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if c.MaxConcurrentHandlers <= 0 {
		errs = append(errs, fmt.Errorf("max_concurrent_handlers must be positive, got %d", c.MaxConcurrentHandlers))
	}
	if c.HandlerTimeout <= 0 {
		errs = append(errs, fmt.Errorf("handler_timeout must be positive, got %s", c.HandlerTimeout))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout))
	}
	if c.RateLimitEvents < 0 {
		errs = append(errs, fmt.Errorf("rate_limit_events must not be negative, got %d", c.RateLimitEvents))
	}
	if c.RateLimitEvents > 0 && (c.RateLimitWindow <= 0 || c.RateLimitCooldown <= 0) {
		errs = append(errs, errors.New("rate_limit_window and rate_limit_cooldown must be positive when rate limiting is enabled"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// RateLimitEnabled reports whether per-user throttling is on. Setting
// rate_limit_events to 0 turns it off.
func (c Config) RateLimitEnabled() bool {
	return c.RateLimitEvents > 0
}

// Links returns the external menu links.
func (c Config) Links() menu.Links {
	return menu.Links{SupportURL: c.SupportURL, UpdatesURL: c.UpdatesURL}
}

// ResolveToken returns the configured bot token, falling back to lookup
// (normally the OS keychain) when the environment did not provide one.
// lookup returning an error counts as no token.
func (c Config) ResolveToken(lookup func() (string, error)) (string, error) {
	token := c.BotToken
	if token == "" && lookup != nil {
		if v, err := lookup(); err == nil {
			token = strings.TrimSpace(v)
		}
	}
	if token == "" {
		return "", ErrMissingToken
	}
	if token == PlaceholderToken {
		return "", fmt.Errorf("%w: placeholder %s must be replaced", ErrMissingToken, PlaceholderToken)
	}
	return token, nil
}
