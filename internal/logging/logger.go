// Package logging builds the slog logger used by the csvtable command.
//
// Text output goes through tint so terminals get coloured, compact lines;
// colour is switched off automatically when the destination is not a TTY.
// JSON output uses the standard slog JSON handler for machine consumption.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Options selects level and format of the logger returned by New.
type Options struct {
	// Level is one of "debug", "info", "warn", "error" (default "warn").
	Level string
	// Format is "text" (default) or "json".
	Format string
	// NoColor disables ANSI colours even on a terminal.
	NoColor bool
}

// New returns a logger writing to w. When w is *os.File colour support is
// detected from the file descriptor.
func New(w io.Writer, opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)

	if strings.EqualFold(opts.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}

	noColor := opts.NoColor
	if f, ok := w.(*os.File); ok {
		noColor = noColor || !isatty.IsTerminal(f.Fd())
		w = colorable.NewColorable(f)
	} else {
		noColor = true
	}

	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    noColor,
	}))
}

// ParseLevel converts a level name to slog.Level. Unknown names map to warn,
// which keeps the command quiet unless asked otherwise.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
