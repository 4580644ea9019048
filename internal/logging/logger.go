package logging

import (
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// Logger wraps slog.Logger so request-scoped fields can be added without
// losing the configured handler
type Logger struct {
	*slog.Logger
}

// Config controls the logger output
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	Output io.Writer
}

// NewLogger returns a text logger at debug level in development and a JSON
// logger at info level otherwise
func NewLogger(isDevelopment bool) *Logger {
	if isDevelopment {
		return New(Config{Level: "debug", Format: "text"})
	}
	return New(Config{Level: "info", Format: "json"})
}

// New builds a Logger from cfg. Output defaults to stdout.
func New(cfg Config) *Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	return &Logger{Logger: slog.New(handler)}
}

// WithFields returns a child logger carrying the given fields. Keys are
// added in sorted order so output is stable.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		args = append(args, k, fields[k])
	}

	return &Logger{Logger: l.Logger.With(args...)}
}

// parseLevel maps a string to slog.Level
func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(lvl) {
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
