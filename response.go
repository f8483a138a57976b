package toolbelt

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// ParseCalls extracts the tool calls from a chat completion response payload
// (choices.0.message.tool_calls). Function arguments arrive as a JSON string
// inside the response and are returned decoded, ready for Toolkit.RunBatch.
// Returns ErrNoToolCalls when the response has none.
func ParseCalls(response []byte) ([]Call, error) {
	toolCalls := gjson.GetBytes(response, "choices.0.message.tool_calls")
	if !toolCalls.Exists() || !toolCalls.IsArray() {
		return nil, ErrNoToolCalls
	}
	var calls []Call
	for _, tc := range toolCalls.Array() {
		name := tc.Get("function.name").String()
		if name == "" {
			continue
		}
		args := tc.Get("function.arguments").String()
		if args == "" {
			args = "{}"
		}
		if !json.Valid([]byte(args)) {
			return nil, &ValidationError{Path: name, Reason: "tool call arguments are not valid JSON", Err: ErrValidation}
		}
		calls = append(calls, Call{
			ID:   tc.Get("id").String(),
			Tool: name,
			Args: json.RawMessage(args),
		})
	}
	if len(calls) == 0 {
		return nil, ErrNoToolCalls
	}
	return calls, nil
}

// ValidateCall checks that the first tool call in the response targets the
// named tool.
func ValidateCall(response []byte, name string) error {
	calls, err := ParseCalls(response)
	if err != nil {
		return err
	}
	if calls[0].Tool != name {
		return fmt.Errorf("tool call names %q, want %q", calls[0].Tool, name)
	}
	return nil
}
