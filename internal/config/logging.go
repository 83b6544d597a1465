package config

import (
	"log/slog"
	"os"
)

// SetupLogging installs a text slog handler on stderr as the default
// logger. verbose lowers the level to Debug.
func SetupLogging(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(log)
	return log
}
