// Package logger собирает slog.Logger под окружение.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// New текстовый вывод для local, JSON для dev и prod.
func New(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	switch env {
	case envDev, envProd:
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		if env == envLocal {
			opts.Level = slog.LevelDebug
		}
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
