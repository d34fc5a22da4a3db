// Package logging provides structured JSON logging for mergebench.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with additional context fields.
type Logger struct {
	*slog.Logger
}

type contextKey string

const (
	runKey      contextKey = "run"
	scenarioKey contextKey = "scenario"
)

// New creates a new Logger with JSON output on stderr.
// Stdout is reserved for scenario results.
func New() *Logger {
	return NewWithWriter(os.Stderr)
}

// NewWithWriter creates a new Logger with JSON output to the provided writer.
func NewWithWriter(w io.Writer) *Logger {
	return NewWithLevel(w, slog.LevelInfo)
}

// NewWithLevel creates a JSON logger with a minimum level.
func NewWithLevel(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewNop creates a Logger that discards all output.
func NewNop() *Logger {
	return NewWithWriter(io.Discard)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// WithContext returns a logger with context values attached.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	logger := l.Logger

	if run, ok := ctx.Value(runKey).(string); ok && run != "" {
		logger = logger.With(slog.String("run", run))
	}
	if scenario, ok := ctx.Value(scenarioKey).(string); ok && scenario != "" {
		logger = logger.With(slog.String("scenario", scenario))
	}

	return &Logger{Logger: logger}
}

// WithRun returns a logger tagged with a run label.
func (l *Logger) WithRun(run string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("run", run))}
}

// WithSegment returns a logger tagged with a segment id.
func (l *Logger) WithSegment(id string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("segment", id))}
}

// With returns a new logger with additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// ContextWithRun adds a run label to the context.
func ContextWithRun(ctx context.Context, run string) context.Context {
	return context.WithValue(ctx, runKey, run)
}

// ContextWithScenario adds a scenario description to the context.
func ContextWithScenario(ctx context.Context, scenario string) context.Context {
	return context.WithValue(ctx, scenarioKey, scenario)
}

// RunFromContext extracts the run label from the context.
func RunFromContext(ctx context.Context) string {
	if run, ok := ctx.Value(runKey).(string); ok {
		return run
	}
	return ""
}

// ScenarioFromContext extracts the scenario description from the context.
func ScenarioFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(scenarioKey).(string); ok {
		return s
	}
	return ""
}
