package toolbelt

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/invopop/jsonschema"
)

// Validatable adds custom business validation to an argument struct. Validate
// runs after schema validation and conversion succeed, so the struct is fully
// populated when it is called.
type Validatable interface {
	Validate() error
}

// checkValue validates a decoded argument value against a schema node and
// returns the normalized value: defaults are injected for absent optional
// object fields and integers pass where numbers are expected. No other
// coercion happens. path is the dotted location used in errors.
func checkValue(s *jsonschema.Schema, v any, path string) (any, error) {
	if s == nil {
		return v, nil
	}
	if len(s.Enum) > 0 && !slices.ContainsFunc(s.Enum, func(e any) bool { return enumEqual(e, v) }) {
		return nil, newValidationError(path, fmt.Sprintf("value %v is not one of the allowed values", v))
	}
	switch {
	case s.Type == "object" || s.Properties != nil:
		return checkObject(s, v, path)
	case s.Type == "array":
		return checkArray(s, v, path)
	case s.Type == "string":
		if _, ok := v.(string); !ok {
			return nil, newValidationError(path, "expected string, got "+typeName(v))
		}
		return v, nil
	case s.Type == "boolean":
		if _, ok := v.(bool); !ok {
			return nil, newValidationError(path, "expected boolean, got "+typeName(v))
		}
		return v, nil
	case s.Type == "integer":
		f, ok := v.(float64)
		if !ok {
			return nil, newValidationError(path, "expected integer, got "+typeName(v))
		}
		if math.Trunc(f) != f {
			return nil, newValidationError(path, fmt.Sprintf("expected integer, got %v", f))
		}
		return v, nil
	case s.Type == "number":
		// Integers widen to numbers. Nothing else does.
		if _, ok := v.(float64); !ok {
			return nil, newValidationError(path, "expected number, got "+typeName(v))
		}
		return v, nil
	default:
		return v, nil
	}
}

func checkObject(s *jsonschema.Schema, v any, path string) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, newValidationError(path, "expected object, got "+typeName(v))
	}
	for _, name := range s.Required {
		if _, present := obj[name]; !present {
			return nil, newValidationError(childPath(path, name), "required field is missing")
		}
	}
	if s.Properties != nil {
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			name, prop := pair.Key, pair.Value
			val, present := obj[name]
			if !present {
				if prop != nil && prop.Default != nil {
					obj[name] = prop.Default
				}
				continue
			}
			normalized, err := checkValue(prop, val, childPath(path, name))
			if err != nil {
				return nil, err
			}
			obj[name] = normalized
		}
	}
	if elem, ok := s.PatternProperties[".*"]; ok {
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		slices.Sort(keys)
		for _, key := range keys {
			normalized, err := checkValue(elem, obj[key], childPath(path, key))
			if err != nil {
				return nil, err
			}
			obj[key] = normalized
		}
	}
	return obj, nil
}

func checkArray(s *jsonschema.Schema, v any, path string) (any, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, newValidationError(path, "expected array, got "+typeName(v))
	}
	for i, item := range arr {
		normalized, err := checkValue(s.Items, item, childPath(path, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		arr[i] = normalized
	}
	return arr, nil
}

func childPath(parent, field string) string {
	if parent == "" {
		return field
	}
	return parent + "." + field
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func enumEqual(e, v any) bool {
	if ef, ok := toFloat(e); ok {
		vf, vok := v.(float64)
		return vok && ef == vf
	}
	return reflect.DeepEqual(e, v)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// validateCustom invokes Validate when v implements Validatable, normalizing
// non-ValidationError failures into the validation taxonomy.
func validateCustom(v any) error {
	val, ok := v.(Validatable)
	if !ok {
		return nil
	}
	if err := val.Validate(); err != nil {
		if IsValidationError(err) {
			return err
		}
		return &ValidationError{Reason: err.Error(), Err: ErrValidation}
	}
	return nil
}
