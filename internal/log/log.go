// Package log turns the --log-level and --log-format flags into a
// [slog.Handler]. The "text" format is the charm pretty printer meant for a
// terminal; "logfmt" and "json" suit files and pipes.
package log

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

var (
	ErrUnknownLogLevel  = errors.New("unknown log level")
	ErrUnknownLogFormat = errors.New("unknown log format")
)

var levels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Levels lists the accepted level names, most verbose first.
var Levels = []string{"debug", "info", "warn", "error"}

// Formats lists the accepted format names.
var Formats = []string{"text", "logfmt", "json"}

// NewHandler writes records at level or above to w in format.
func NewHandler(w io.Writer, level, format string) (slog.Handler, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "json":
		return slog.NewJSONHandler(w, opts), nil
	case "logfmt":
		return slog.NewTextHandler(w, opts), nil
	case "text":
		return pretty(w, lvl), nil
	}
	return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownLogFormat, format, strings.Join(Formats, ", "))
}

// ParseLevel is case-insensitive and accepts "warning" for "warn".
func ParseLevel(level string) (slog.Level, error) {
	if lvl, ok := levels[strings.ToLower(strings.TrimSpace(level))]; ok {
		return lvl, nil
	}
	return 0, fmt.Errorf("%w %q, want one of %s", ErrUnknownLogLevel, level, strings.Join(Levels, ", "))
}

func pretty(w io.Writer, lvl slog.Level) *charmlog.Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(int32(lvl)), //nolint:gosec // slog levels fit.
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "codeshot",
	})
	l.SetColorProfile(termenv.ColorProfile())
	return l
}

// Discard drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
