package observability

import (
	"cmp"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LoggingConfig selects level, encoding and destination of a logger.
type LoggingConfig struct {
	Level      string // trace, debug, info, warn, error, fatal, panic
	Format     string // json, console or pretty
	Output     string // stdout or stderr
	AddSource  bool
	TimeFormat string
}

// DefaultLoggingConfig returns info-level JSON on stdout.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		AddSource:  false,
		TimeFormat: time.RFC3339,
	}
}

// NewLogger builds a logger writing to the configured output stream.
func NewLogger(cfg LoggingConfig) zerolog.Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return NewLoggerTo(cfg, out)
}

// NewLoggerTo builds a logger writing to w; cfg.Output is ignored. The level
// also becomes the zerolog global level.
func NewLoggerTo(cfg LoggingConfig, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = cmp.Or(cfg.TimeFormat, time.RFC3339)

	switch strings.ToLower(cfg.Format) {
	case "console", "pretty":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: zerolog.TimeFieldFormat}
	}

	ctx := zerolog.New(w).With().Timestamp()
	if cfg.AddSource {
		ctx = ctx.Caller()
	}

	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)
	return ctx.Logger().Level(level)
}

// parseLevel maps a level name to zerolog.Level. "warning" is accepted for
// warn; unknown or empty names give info.
func parseLevel(level string) zerolog.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" || lvl == zerolog.NoLevel || lvl == zerolog.Disabled {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithQueryContext adds the detected record kind and the free-text query to a
// logger.
func WithQueryContext(logger zerolog.Logger, kind, query string) zerolog.Logger {
	return logger.With().
		Str("kind", kind).
		Str("query", query).
		Logger()
}

// WithProviderContext adds provider lookup fields to a logger.
func WithProviderContext(logger zerolog.Logger, provider, mode string) zerolog.Logger {
	return logger.With().
		Str("provider", provider).
		Str("mode", mode).
		Logger()
}
