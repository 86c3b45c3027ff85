package logger

import (
	"log/slog"
	"os"

	"github.com/quickwish/quickwish/internal/config"
)

// SetupLogger installs a JSON slog handler as the process default and
// returns the logger. The dev server logs JSON; the CLI installs its
// own text handler.
func SetupLogger(cfg *config.Config) *slog.Logger {
	//nolint:exhaustruct // default HandlerOptions otherwise
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level(cfg),
	}))

	slog.SetDefault(logger)

	return logger
}

// level is debug in development or when requested explicitly, info
// otherwise.
func level(cfg *config.Config) slog.Level {
	if cfg.Env == "development" || cfg.LogLevel == "debug" {
		return slog.LevelDebug
	}

	return slog.LevelInfo
}
