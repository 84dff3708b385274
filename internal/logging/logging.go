// Package logging configures the process-wide zerolog logger used by every
// migas-go package.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// ParseLevel converts a level name (debug, info, warn, error) into a zerolog
// level. Matching is case-insensitive; "warning" is accepted as an alias.
func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.NoLevel, fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", s)
	}
}

// Setup replaces the package logger. Output to a terminal uses zerolog's
// console writer; anything else gets JSON lines.
func Setup(level string, w io.Writer) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	if w == nil {
		w = os.Stderr
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w = zerolog.ConsoleWriter{Out: f, TimeFormat: time.Kitchen}
	}

	mu.Lock()
	logger = zerolog.New(w).With().Timestamp().Str("component", "migas").Logger().Level(lvl)
	mu.Unlock()
	return nil
}

// Logger returns the current package logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := logger
	return &l
}
