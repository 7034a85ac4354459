// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package logging configures the global slog logger.
package logging

import (
	"log/slog"
	"os"

	"codeberg.org/oliverandrich/go-accounts/internal/config"
	"github.com/lmittmann/tint"
)

// Setup configures the global slog logger from the log configuration.
func Setup(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}
