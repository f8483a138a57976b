package toolbelt

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compileRawSchema compiles a raw JSON Schema map into a validator. Dynamic
// tools (and the adapters built on them) validate through the compiled schema
// instead of the reflection-derived tree.
func compileRawSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("tool.json", doc); err != nil {
		return nil, err
	}
	return compiler.Compile("tool.json")
}

// validateRaw checks an already-decoded value against a compiled schema.
func validateRaw(schema *jsonschema.Schema, v any) error {
	if err := schema.Validate(v); err != nil {
		return &ValidationError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}

// deepCopyMap clones a decoded JSON object tree. Schema maps held by tools are
// pure JSON values (they come out of a JSON round trip), so a structural copy
// covers everything and accessor results share no state with the tool.
func deepCopyMap(m map[string]any) map[string]any {
	clone := make(map[string]any, len(m))
	for k, v := range m {
		clone[k] = deepCopyJSONValue(v)
	}
	return clone
}

func deepCopyJSONValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = deepCopyJSONValue(e)
		}
		return out
	default:
		return v
	}
}

// deepCopySchema clones a schema map through a JSON round trip so later caller
// mutations cannot leak into the tool.
func deepCopySchema(schemaMap map[string]any) (map[string]any, error) {
	data, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, err
	}
	var clone map[string]any
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return clone, nil
}
