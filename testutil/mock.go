// Package testutil provides helpers for testing code built on toolbelt.
package testutil

import (
	"context"
	"encoding/json"

	"github.com/toolbelt-ai/toolbelt"
)

// MockTool is a configurable Tool for tests. Zero value works: it reports the
// name "mock", an empty object schema, and returns null from Run.
type MockTool struct {
	NameVal   string
	DescVal   string
	UsageVal  string
	ParamsVal map[string]any
	SourceVal string
	TagsVal   []string
	RunFn     func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

var (
	_ toolbelt.Tool         = (*MockTool)(nil)
	_ toolbelt.ToolMetadata = (*MockTool)(nil)
)

func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

func (m *MockTool) Description() string { return m.DescVal }

func (m *MockTool) Usage() string { return m.UsageVal }

func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (m *MockTool) Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	if m.RunFn != nil {
		return m.RunFn(ctx, args)
	}
	return json.RawMessage(`null`), nil
}

func (m *MockTool) Source() string {
	if m.SourceVal != "" {
		return m.SourceVal
	}
	return toolbelt.SourceLocal
}

func (m *MockTool) Tags() []string { return m.TagsVal }
