package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/polkiloo/samplestore/internal/config"
)

// New creates a preconfigured slog.Logger.
func New(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stdout, cfg)
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	env := config.EnvProduction
	if cfg != nil {
		level = parseLevel(cfg.LogLevel)
		env = cfg.Environment
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("service", "samplestore"), slog.String("env", env))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
