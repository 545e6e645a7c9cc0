package logging

import (
	"log/slog"
	"os"

	"github.com/kiselevos/lingua_practice_bot/internal/config"
)

// Setup настраивает глобальный slog: локально - текст, в проде - JSON.
func Setup(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var handler slog.Handler
	if cfg.AppEnv == "local" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
