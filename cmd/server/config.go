package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/wellness-assistant/wellness-web-ui/internal/chat"
	"github.com/wellness-assistant/wellness-web-ui/internal/wellness"
)

// config is read from WELLNESS_* environment variables.
type config struct {
	wellness.Env

	Port       string        `envconfig:"PORT" default:"8080"`
	ShellDelay time.Duration `envconfig:"SHELL_DELAY"`
	LogLevel   string        `envconfig:"LOG_LEVEL" default:"info"`
}

func loadConfig() (config, error) {
	// Fields without a default tag keep their preset value when the variable is unset.
	cfg := config{ShellDelay: chat.ShellReplyDelay}
	if err := envconfig.Process(wellness.EnvPrefix, &cfg); err != nil {
		return config{}, fmt.Errorf("error reading environment: %w", err)
	}
	return cfg, nil
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return l, nil
}
