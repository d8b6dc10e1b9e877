package utils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// LogConfig selects the handler and sinks used by NewLoggerWithConfig.
type LogConfig struct {
	Level  string
	JSON   bool
	Writer io.Writer

	FluentEnabled bool
	FluentHost    string
	FluentPort    int
	FluentTag     string
}

// Logger provides leveled logging throughout the application. Messages are
// printf-style; structured fields are attached with With.
type Logger struct {
	slog   *slog.Logger
	fluent *fluent.Fluent
	tag    string
	fields []any
}

// NewLogger creates a Logger writing coloured text to stdout at info level.
func NewLogger() *Logger {
	l, _ := NewLoggerWithConfig(LogConfig{Level: "info"})
	return l
}

// NewLoggerWithConfig builds a Logger from cfg. When Fluent shipping is
// enabled but the forwarder cannot be reached, the stdout logger is still
// returned together with the error.
func NewLoggerWithConfig(cfg LogConfig) (*Logger, error) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	level := ParseLevel(cfg.Level)

	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(cfg.Writer, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(cfg.Writer, &tint.Options{
			Level:      level,
			TimeFormat: "2006-01-02 15:04:05",
			NoColor:    cfg.Writer != os.Stdout && cfg.Writer != os.Stderr,
		})
	}

	l := &Logger{slog: slog.New(handler), tag: cfg.FluentTag}
	if l.tag == "" {
		l.tag = "listing-counter"
	}

	if cfg.FluentEnabled && cfg.FluentHost != "" {
		f, err := fluent.New(fluent.Config{
			FluentHost: cfg.FluentHost,
			FluentPort: cfg.FluentPort,
			Async:      true,
		})
		if err != nil {
			return l, fmt.Errorf("logger: connect fluent %s:%d: %w", cfg.FluentHost, cfg.FluentPort, err)
		}
		l.fluent = f
	}
	return l, nil
}

// ParseLevel maps a level name to a slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// With returns a child Logger carrying the given key/value pairs on every
// message.
func (l *Logger) With(args ...any) *Logger {
	fields := make([]any, 0, len(l.fields)+len(args))
	fields = append(fields, l.fields...)
	fields = append(fields, args...)
	return &Logger{
		slog:   l.slog.With(args...),
		fluent: l.fluent,
		tag:    l.tag,
		fields: fields,
	}
}

func (l *Logger) Info(format string, args ...any) {
	l.log(slog.LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(slog.LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(slog.LevelError, format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(slog.LevelDebug, format, args...)
}

// Close flushes the Fluent forwarder, if any.
func (l *Logger) Close() error {
	if l.fluent == nil {
		return nil
	}
	return l.fluent.Close()
}

func (l *Logger) log(level slog.Level, format string, args ...any) {
	ctx := context.Background()
	if !l.slog.Enabled(ctx, level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.slog.Log(ctx, level, msg)

	if l.fluent != nil {
		_ = l.fluent.Post(l.tag+"."+strings.ToLower(level.String()), l.record(level, msg))
	}
}

func (l *Logger) record(level slog.Level, msg string) map[string]any {
	data := make(map[string]any, len(l.fields)/2+3)
	for i := 0; i+1 < len(l.fields); i += 2 {
		data[fmt.Sprint(l.fields[i])] = l.fields[i+1]
	}
	data["level"] = strings.ToLower(level.String())
	data["message"] = msg
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	return data
}
