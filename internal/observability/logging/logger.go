// Package logging is the structured event log. "pretty" output stays quiet so
// human-facing command output is not interleaved; "jsonl" writes one object
// per line for collectors.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Logger is carried on the context. Component names the subsystem
// (cli, engine, catalog, mcp); fields are alternating key/value pairs.
type Logger interface {
	Debug(component, msg string, fields ...any)
	Info(component, msg string, fields ...any)
	Warn(component, msg string, fields ...any)
	Error(component, msg string, fields ...any)
	// Event records a named lifecycle step, e.g. "evaluate.complete"
	Event(ctx context.Context, event string, fields map[string]any)
	Close() error
}

type loggerKey struct{}

func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// From never returns nil
func From(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return l
	}
	return &noopLogger{}
}

func NewLogger(cfg Config) (Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w, closer, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}
	if cfg.Format != "jsonl" {
		return &noopLogger{closer: closer}, nil
	}

	component := cfg.Component
	if component == "" {
		component = "cli"
	}
	return &jsonlLogger{
		writer:    w,
		closer:    closer,
		minLevel:  levelPriority(cfg.Level),
		component: component,
	}, nil
}

// openOutput resolves stderr, stdout or a file path. Files are appended to
// so consecutive inspections share one log.
func openOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	}
	if dir := filepath.Dir(output); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log output: %w", err)
	}
	return f, f, nil
}

type noopLogger struct {
	closer io.Closer
}

func (n *noopLogger) Debug(component, msg string, fields ...any) {}
func (n *noopLogger) Info(component, msg string, fields ...any)  {}
func (n *noopLogger) Warn(component, msg string, fields ...any)  {}
func (n *noopLogger) Error(component, msg string, fields ...any) {}

func (n *noopLogger) Event(ctx context.Context, event string, fields map[string]any) {
}

func (n *noopLogger) Close() error {
	if n.closer == nil {
		return nil
	}
	return n.closer.Close()
}
