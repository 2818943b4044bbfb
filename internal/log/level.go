package log

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level is the minimum severity a Logger writes
type Level slog.Level

const (
	LevelDebug = Level(slog.LevelDebug) // request traces and guard decisions
	LevelInfo  = Level(slog.LevelInfo)  // session and inventory changes
	LevelWarn  = Level(slog.LevelWarn)  // recoverable problems, e.g. a discarded session
	LevelError = Level(slog.LevelError)
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"":        LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

func (l Level) String() string {
	return slog.Level(l).String()
}

// ToSlogLevel converts l for handler options
func (l Level) ToSlogLevel() slog.Level {
	return slog.Level(l)
}

// ParseLevel parses a level name from a flag or config file.
// Unknown names are rejected so that typos surface.
func ParseLevel(s string) (Level, error) {
	if l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return l, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", s)
}
