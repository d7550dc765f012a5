package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/groomer-price-service/internal/config"
	"github.com/mattn/go-isatty"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
// LOG_FORMAT=auto picks text on a terminal and JSON otherwise.
func NewLogger(cfg *config.Config) *slog.Logger {
	format := cfg.LogFormat
	if strings.EqualFold(format, "auto") {
		format = autoFormat(isatty.IsTerminal(os.Stdout.Fd()))
	}
	return newLogger(os.Stdout, cfg.LogLevel, format)
}

func autoFormat(terminal bool) string {
	if terminal {
		return "text"
	}
	return "json"
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
