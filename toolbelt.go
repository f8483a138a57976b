package toolbelt

import (
	"context"
	"encoding/json"
)

// Tool is an LLM-callable instrument: a name, prompt-facing metadata, a JSON
// Schema for its arguments, and a single invocation entry point. The interface
// is provider-agnostic; rendering for a concrete LLM API happens in Definition
// and Schema.
type Tool interface {
	// Name is the unique identifier the model calls the tool by.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// Usage is the "when to use" hint shown in documentation exports.
	// May be empty.
	Usage() string

	// Parameters returns the argument schema as a JSON Schema object map,
	// in the shape LLM tool definitions expect.
	Parameters() map[string]any

	// Run validates args against the schema and invokes the target under the
	// tool's execution policy. The result is the target's JSON-encoded return
	// value. Safe for concurrent use; tools built with WithSerial serialize
	// their own executions internally.
	Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

// Tool provenance values reported through ToolMetadata.
const (
	SourceLocal   = "local"
	SourceOpenAPI = "openapi"
	SourceMCP     = "mcp"
)

// ToolMetadata is implemented by tools built with NewTool and NewDynamicTool
// and exposes provenance and orchestration metadata on top of the core Tool
// surface.
type ToolMetadata interface {
	// Source reports where the tool came from: SourceLocal, SourceOpenAPI,
	// or SourceMCP.
	Source() string

	// Tags returns the tool's tags, in the order they were set.
	Tags() []string
}

// Call is a single tool invocation request, as decoded from a model response.
type Call struct {
	ID   string
	Tool string
	Args json.RawMessage
}

// Result is the outcome of one call in a RunBatch fan-out. Results come back
// in the order the calls were issued, regardless of completion order.
type Result struct {
	ID    string
	Tool  string
	Value json.RawMessage
	Err   error
}

// Failure is the payload a tool built with WithFailureCapture returns in
// place of an error when its target fails.
type Failure struct {
	Error string `json:"error"`
}

// FunctionDefinition is one tool rendered for an LLM function-calling API.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// FunctionSchema is the element shape of the tools array in a chat completion
// request.
type FunctionSchema struct {
	Type     string             `json:"type"`
	Function FunctionDefinition `json:"function"`
}

// Definition renders t as a FunctionDefinition.
func Definition(t Tool) FunctionDefinition {
	return FunctionDefinition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  t.Parameters(),
	}
}

// Schema renders t as a FunctionSchema with type "function".
func Schema(t Tool) FunctionSchema {
	return FunctionSchema{Type: "function", Function: Definition(t)}
}
