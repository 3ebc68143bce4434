// Package logging builds the process-wide slog handler: colorized text on a
// terminal, JSON everywhere else.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"golang.org/x/term"
)

// Output formats accepted by NewHandler.
const (
	FormatAuto = "auto"
	FormatText = "text"
	FormatJSON = "json"
)

// ParseLevel maps a config string to a slog level. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// NewHandler returns a handler writing to w. With FormatAuto, text is chosen
// only when w is a terminal.
func NewHandler(w io.Writer, format string, level slog.Leveler) slog.Handler {
	switch resolveFormat(w, format) {
	case FormatText:
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isTerminal(w),
		})
	default:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
}

// Setup installs a default logger on stderr and returns it.
// An unknown level falls back to info and is reported through the new logger.
func Setup(level, format string) *slog.Logger {
	lvl, err := ParseLevel(level)
	logger := slog.New(NewHandler(os.Stderr, format, lvl))
	slog.SetDefault(logger)
	if err != nil {
		logger.Warn("invalid log level, using info", "error", err)
	}
	return logger
}

func resolveFormat(w io.Writer, format string) string {
	switch strings.ToLower(format) {
	case FormatText:
		return FormatText
	case FormatJSON:
		return FormatJSON
	default:
		if isTerminal(w) {
			return FormatText
		}
		return FormatJSON
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
