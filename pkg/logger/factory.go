package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the output format and verbosity of the process logger.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	Format string `env:"LOG_FORMAT" envDefault:"json"` // json or text
	Sentry SentryConfig
}

// New creates a stdout logger from cfg with optional context extractors.
// When cfg.Sentry.DSN is set, warnings and errors are also sent to Sentry.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return newLogger(os.Stdout, cfg, extractors...)
}

func newLogger(w io.Writer, cfg Config, extractors ...ContextExtractor) *slog.Logger {
	handler := newStdHandler(w, cfg)

	if cfg.Sentry.DSN != "" {
		sentryHandler, err := newSentryHandler(cfg.Sentry)
		if err != nil {
			// Graceful degradation: keep logging to stdout if Sentry init fails
			slog.New(handler).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		} else {
			handler = newMultiHandler(handler, sentryHandler)
		}
	}

	return slog.New(NewContextHandler(handler, extractors...))
}

func newStdHandler(w io.Writer, cfg Config) slog.Handler {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// ParseLevel maps a level name to slog.Level. Unknown names fall back to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}
