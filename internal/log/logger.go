// Package log builds the slog loggers used by the binaries and carries a
// request-scoped logger through contexts.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger tagged with the component that owns it.
type Logger struct {
	*slog.Logger
	component string
	root      *slog.Logger
	args      []any
}

type Config struct {
	Level     slog.Level
	Component string
	Output    io.Writer
	// JSON selects the JSON handler instead of the text one.
	JSON bool
}

func DefaultConfig() Config {
	return Config{
		Level:     slog.LevelInfo,
		Component: ComponentApp,
		Output:    os.Stdout,
	}
}

func New(config Config) *Logger {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: config.Level}

	var handler slog.Handler = slog.NewTextHandler(out, opts)
	if config.JSON {
		handler = slog.NewJSONHandler(out, opts)
	}

	component := config.Component
	if component == "" {
		component = ComponentApp
	}
	root := slog.New(handler)
	return &Logger{
		Logger:    root.With(FieldComponent, component),
		component: component,
		root:      root,
	}
}

// ParseLevel maps LOG_LEVEL values to slog levels; unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger:    l.Logger.With(args...),
		component: l.component,
		root:      l.root,
		args:      append(append([]any(nil), l.args...), args...),
	}
}

// WithComponent returns a child logger that reports component instead,
// keeping the attributes added through With.
func (l *Logger) WithComponent(component string) *Logger {
	root := l.root
	if root == nil {
		root = l.Logger
	}
	return &Logger{
		Logger:    root.With(FieldComponent, component).With(l.args...),
		component: component,
		root:      root,
		args:      l.args,
	}
}

func (l *Logger) Component() string {
	return l.component
}

func SetDefault(logger *Logger) {
	slog.SetDefault(logger.Logger)
}
