package toolbelt

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

type addArgs struct {
	A int `json:"a" jsonschema:"description=First addend"`
	B int `json:"b" jsonschema:"description=Second addend"`
}

func newAddTool(t *testing.T, opts ...ToolOption) Tool {
	t.Helper()
	tool, err := NewTool("add_numbers", "Adds two numbers.",
		func(_ context.Context, args addArgs) (int, error) {
			return args.A + args.B, nil
		}, opts...)
	require.NoError(t, err)
	return tool
}

func TestDefinition(t *testing.T) {
	tool := newAddTool(t)

	def := Definition(tool)
	assert.Equal(t, "add_numbers", def.Name)
	assert.Equal(t, "Adds two numbers.", def.Description)
	require.NotNil(t, def.Parameters)
	assert.Equal(t, "object", def.Parameters["type"])
}

func TestSchemaExportShape(t *testing.T) {
	tool := newAddTool(t)

	data, err := json.Marshal(Schema(tool))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "function",
		"function": {
			"name": "add_numbers",
			"description": "Adds two numbers.",
			"parameters": {
				"type": "object",
				"properties": {
					"a": {"type": "integer", "description": "First addend"},
					"b": {"type": "integer", "description": "Second addend"}
				},
				"required": ["a", "b"]
			}
		}
	}`, string(data))
}

func TestToolRunEndToEnd(t *testing.T) {
	tool := newAddTool(t)

	out, err := tool.Run(context.Background(), raw(`{"a": 5, "b": 3}`))
	require.NoError(t, err)
	assert.Equal(t, "8", string(out))
}

func TestToolMetadataDefaults(t *testing.T) {
	tool := newAddTool(t)

	meta, ok := tool.(ToolMetadata)
	require.True(t, ok)
	assert.Equal(t, SourceLocal, meta.Source())
	assert.Empty(t, meta.Tags())
}
