package log

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/felixgeelhaar/parkspot/internal/errors"
)

// Logger writes structured records through log/slog. Attributes that
// carry credentials are masked before they reach the handler.
type Logger struct {
	slog   *slog.Logger
	config Config
}

// attrError is implemented by errors that describe themselves as log
// attributes, such as api.APIError.
type attrError interface {
	error
	LogAttrs() []any
}

const redacted = "[REDACTED]"

// sensitiveKeys are attribute names whose values never reach the output
var sensitiveKeys = []string{"token", "password", "authorization", "secret"}

func redact(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

// New builds a Logger from config
func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:       config.Level.ToSlogLevel(),
		AddSource:   config.AddSource,
		ReplaceAttr: redact,
	}
	var h slog.Handler = slog.NewTextHandler(out, opts)
	if config.Format == FormatJSON {
		h = slog.NewJSONHandler(out, opts)
	}

	l := slog.New(h)
	if config.ServiceName != "" {
		l = l.With("service", config.ServiceName)
	}
	return &Logger{slog: l, config: config}
}

// Nop discards everything
func Nop() *Logger {
	return New(Config{Level: LevelError, Output: io.Discard})
}

func (l *Logger) derive(s *slog.Logger) *Logger {
	return &Logger{slog: s, config: l.config}
}

// With attaches args to every record of the returned Logger
func (l *Logger) With(args ...any) *Logger {
	return l.derive(l.slog.With(args...))
}

// WithGroup nests the attributes of every record under name, e.g. "session"
func (l *Logger) WithGroup(name string) *Logger {
	return l.derive(l.slog.WithGroup(name))
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// LogError writes an ERROR record describing err. A nil err writes nothing.
func (l *Logger) LogError(msg string, err error) {
	if err == nil {
		return
	}
	l.slog.Log(context.Background(), slog.LevelError, msg, errorArgs(err)...)
}

// errorArgs flattens err into attributes. A ParkError contributes its
// code and suggestions; an attrError its own attributes.
func errorArgs(err error) []any {
	var pe *errors.ParkError
	if stderrors.As(err, &pe) {
		args := []any{"error", pe.Message, "error_code", string(pe.Code)}
		if len(pe.Suggestions) > 0 {
			args = append(args, "suggestions", pe.Suggestions)
		}
		if pe.Cause != nil {
			args = append(args, "cause", pe.Cause.Error())
		}
		return args
	}

	var ae attrError
	if stderrors.As(err, &ae) {
		return append([]any{"error", err.Error()}, ae.LogAttrs()...)
	}
	return []any{"error", err.Error()}
}

// Config returns the configuration l was built from
func (l *Logger) Config() Config {
	return l.config
}
