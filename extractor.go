package toolbelt

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Extractor derives the argument schema for T and converts raw JSON into
// validated T values. It is the piece of NewTool that works without the Tool
// interface, for orchestrators that need schema export and validated parsing
// but run execution themselves.
type Extractor[T any] struct {
	schema    *jsonschema.Schema
	schemaMap map[string]any
}

// NewExtractor derives the schema for T. It fails with a SchemaError for
// unsupported field types and a ConfigError for recursive argument structs.
func NewExtractor[T any]() (*Extractor[T], error) {
	schema, err := deriveSchema[T]()
	if err != nil {
		return nil, err
	}
	m, err := schemaToMap(schema)
	if err != nil {
		return nil, err
	}
	return &Extractor[T]{schema: schema, schemaMap: m}, nil
}

// Schema returns the schema as a JSON object map. The result is a deep copy;
// mutating it never reaches the extractor.
func (e *Extractor[T]) Schema() map[string]any {
	return deepCopyMap(e.schemaMap)
}

// ParseAndValidate decodes argsJSON, validates it against the schema (failures
// carry dotted field paths), injects defaults for absent optional fields,
// converts the payload into T, and finally runs Validate when T implements
// Validatable.
func (e *Extractor[T]) ParseAndValidate(argsJSON []byte) (T, error) {
	var zero T
	var decoded any
	if err := json.Unmarshal(argsJSON, &decoded); err != nil {
		return zero, &ValidationError{Reason: "arguments are not valid JSON: " + err.Error(), Err: ErrValidation}
	}
	normalized, err := checkValue(e.schema, decoded, "")
	if err != nil {
		return zero, err
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return zero, &ValidationError{Reason: "re-encode arguments: " + err.Error(), Err: ErrValidation}
	}
	var args T
	if err := json.Unmarshal(data, &args); err != nil {
		return zero, &ValidationError{Reason: "arguments do not fit the declared type: " + err.Error(), Err: ErrValidation}
	}
	if err := runCustomValidation(args); err != nil {
		return zero, err
	}
	return args, nil
}

// runCustomValidation runs Validatable on args, falling back to &args so
// pointer-receiver implementations on value argument types still fire.
func runCustomValidation[T any](args T) error {
	if err := validateCustom(any(args)); err != nil {
		return err
	}
	if _, ok := any(args).(Validatable); ok {
		return nil
	}
	typ := reflect.TypeOf(args)
	if typ == nil || typ.Kind() == reflect.Pointer {
		return nil
	}
	return validateCustom(any(&args))
}
