package toolbelt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Middleware wraps a Tool with cross-cutting behavior. Install chains with
// Toolkit.Use or wrap individual tools directly.
type Middleware func(Tool) Tool

// WithLogging logs every invocation: start, outcome, and duration. A nil
// logger selects slog.Default.
func WithLogging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Tool) Tool {
		return &loggingTool{toolBase: toolBase{next: next}, logger: logger}
	}
}

// WithRecovery converts panics in the tool target into errors so one
// misbehaving tool cannot take down the process during a fan-out.
func WithRecovery() Middleware {
	return func(next Tool) Tool {
		return &recoveryTool{toolBase{next: next}}
	}
}

// toolBase delegates everything but Run to the wrapped tool, including its
// ToolMetadata when present.
type toolBase struct {
	next Tool
}

func (b *toolBase) Name() string               { return b.next.Name() }
func (b *toolBase) Description() string        { return b.next.Description() }
func (b *toolBase) Usage() string              { return b.next.Usage() }
func (b *toolBase) Parameters() map[string]any { return b.next.Parameters() }

func (b *toolBase) Source() string {
	if meta, ok := b.next.(ToolMetadata); ok {
		return meta.Source()
	}
	return ""
}

func (b *toolBase) Tags() []string {
	if meta, ok := b.next.(ToolMetadata); ok {
		return meta.Tags()
	}
	return nil
}

type loggingTool struct {
	toolBase
	logger *slog.Logger
}

func (m *loggingTool) Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	m.logger.InfoContext(ctx, "tool start", "tool", m.next.Name())
	start := time.Now()
	res, err := m.next.Run(ctx, args)
	duration := time.Since(start)
	if err != nil {
		m.logger.ErrorContext(ctx, "tool error", "tool", m.next.Name(), "duration", duration, "error", err)
		return nil, err
	}
	m.logger.InfoContext(ctx, "tool end", "tool", m.next.Name(), "duration", duration)
	return res, nil
}

type recoveryTool struct {
	toolBase
}

func (m *recoveryTool) Run(ctx context.Context, args json.RawMessage) (res json.RawMessage, err error) {
	defer func() {
		if p := recover(); p != nil {
			res = nil
			err = &panicError{value: p}
		}
	}()
	return m.next.Run(ctx, args)
}

// panicError carries a recovered panic value as an error.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return "tool panicked: " + fmt.Sprint(e.value)
}
