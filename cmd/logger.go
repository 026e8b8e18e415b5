package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewLogger returns a text logger writing to w at the named level (debug,
// info, warn or error) and makes it the default logger. Debug level also
// reports the source line.
func NewLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     l,
		AddSource: l <= slog.LevelDebug,
	})
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger, nil
}
