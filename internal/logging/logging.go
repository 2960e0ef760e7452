// Package logging builds the process logger from config.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/joseph-ayodele/custody-tracker/internal/common"
)

// New returns a text or JSON slog logger writing to stdout.
func New(cfg common.LogConfig) (*slog.Logger, error) {
	return NewWithWriter(cfg, os.Stdout)
}

func NewWithWriter(cfg common.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level <= slog.LevelDebug}

	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "auto" {
		format = "json"
		if isTerminal(w) {
			format = "text"
		}
	}

	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log format: unsupported value %q", cfg.Format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

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
	}
	return slog.LevelInfo, fmt.Errorf("log level: unsupported value %q", s)
}
