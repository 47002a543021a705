package main

import (
	"github.com/ersonp/dramanet/internal/infrastructure/config"
	"github.com/ersonp/dramanet/internal/logging"
)

// setupLogging configures the default logger. Empty values fall back to
// the environment and then to info/text.
func setupLogging(level, format string) error {
	cfg := config.Default()
	if err := cfg.ApplyEnv(); err != nil {
		return err
	}
	return applyLogging(cfg.Logging, level, format)
}

// applyLogging configures the default logger from a config section, with
// non-empty flag values taking precedence.
func applyLogging(cfg config.LoggingConfig, level, format string) error {
	if level == "" {
		level = cfg.Level
	}
	if format == "" {
		format = cfg.Format
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return err
	}
	logging.Init(lvl, format)
	return nil
}
