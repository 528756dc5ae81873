// Package logging configures the process-wide zerolog logger and hands out
// component-scoped child loggers.
package logging

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config controls the global logger created by Init.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info"
	// on an empty or unrecognised value.
	Level string
	// Console selects a human-readable, colorized writer suited to an
	// interactive terminal. When false, logs are newline-delimited JSON,
	// suited to systemd/journald capture.
	Console bool
}

var (
	once   sync.Once
	logger zerolog.Logger
)

// Init configures the global logger. It is safe to call once at process
// startup; subsequent calls are no-ops.
func Init(cfg Config) {
	once.Do(func() {
		level := parseLevel(cfg.Level)
		zerolog.SetGlobalLevel(level)

		var w = os.Stdout
		if cfg.Console {
			cw := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
			logger = zerolog.New(cw).With().Timestamp().Logger()
			return
		}
		logger = zerolog.New(w).With().Timestamp().Logger()
	})
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithComponent returns a logger tagged with the given component name.
// If Init has not been called yet, it initialises sane defaults first so
// tests and early-startup code never see a zero-value logger.
func WithComponent(name string) zerolog.Logger {
	Init(Config{Level: "info", Console: true})
	return logger.With().Str("component", name).Logger()
}
