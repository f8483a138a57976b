package toolbelt

import (
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/invopop/jsonschema"
)

var timeType = reflect.TypeOf(time.Time{})

var (
	customTypesMu sync.RWMutex
	customTypes   = make(map[reflect.Type]*jsonschema.Schema)
)

// RegisterType maps a custom Go type to a JSON Schema type and format in
// generated schemas, for example:
//
//	toolbelt.RegisterType(uuid.UUID{}, "string", "uuid")
//	toolbelt.RegisterType(decimal.Decimal{}, "string", "")
//
// Pointer fields (*T) use the same mapping as T. Register types at application
// startup, before the first NewTool call. Panics if emptyInstance is nil or
// jsonType is empty.
func RegisterType(emptyInstance any, jsonType, format string) {
	if emptyInstance == nil {
		panic("toolbelt: RegisterType requires a non-nil instance")
	}
	if jsonType == "" {
		panic("toolbelt: RegisterType requires a JSON type")
	}
	t := reflect.TypeOf(emptyInstance)
	customTypesMu.Lock()
	defer customTypesMu.Unlock()
	customTypes[t] = &jsonschema.Schema{Type: jsonType, Format: format}
}

func lookupCustomType(t reflect.Type) *jsonschema.Schema {
	customTypesMu.RLock()
	defer customTypesMu.RUnlock()
	s, ok := customTypes[t]
	if !ok {
		return nil
	}
	return &jsonschema.Schema{Type: s.Type, Format: s.Format}
}

// deriveSchema builds the argument schema for T: an inline JSON Schema tree
// where every object's required list names exactly the properties without a
// declared default. Nested structs expand recursively; the supported leaf set
// is closed (strings, integers, floats, booleans, slices, string-keyed maps,
// time.Time, and types added via RegisterType).
func deriveSchema[T any]() (*jsonschema.Schema, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if err := checkArgType(typ); err != nil {
		return nil, err
	}
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		ExpandedStruct:            true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
		Mapper:                    lookupCustomType,
	}
	schema := r.ReflectFromType(typ)
	if schema == nil {
		return nil, &SchemaError{Param: typ.String(), Reason: "reflection produced no schema"}
	}
	schema.Version = ""
	normalizeRequired(schema)
	return schema, nil
}

// checkArgType enforces the closed leaf-type set and rejects recursive
// argument types before schema reflection runs.
func checkArgType(root reflect.Type) error {
	if root == nil {
		return &ConfigError{Reason: "argument type must be a struct"}
	}
	root = derefType(root)
	if root.Kind() != reflect.Struct {
		return &ConfigError{Reason: fmt.Sprintf("argument type must be a struct, got %s", root.Kind())}
	}
	return checkType(root, "", nil)
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func checkType(t reflect.Type, path string, seen []reflect.Type) error {
	t = derefType(t)
	if lookupCustomType(t) != nil || t == timeType {
		return nil
	}
	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return nil
	case reflect.Slice, reflect.Array:
		return checkType(t.Elem(), path, seen)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &SchemaError{Param: path, Reason: fmt.Sprintf("map keys must be strings, got %s", t.Key().Kind())}
		}
		if t.Elem().Kind() == reflect.Interface {
			return nil
		}
		return checkType(t.Elem(), path, seen)
	case reflect.Struct:
		if slices.Contains(seen, t) {
			return &ConfigError{Reason: fmt.Sprintf("recursive argument type %s at %q", t, path)}
		}
		seen = append(seen, t)
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := jsonFieldName(f)
			if name == "" {
				continue
			}
			if err := checkType(f.Type, childPath(path, name), seen); err != nil {
				return err
			}
		}
		return nil
	default:
		return &SchemaError{Param: path, Reason: fmt.Sprintf("unsupported type %s", t)}
	}
}

func jsonFieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name
	}
	return name
}

// normalizeRequired rewrites every object node's required list to the sorted
// set of its properties without a default, recursively. A property is optional
// exactly when it declares a default; pointers and omitempty do not count.
func normalizeRequired(s *jsonschema.Schema) {
	if s == nil {
		return
	}
	if s.Properties != nil {
		required := make([]string, 0, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			normalizeRequired(pair.Value)
			if pair.Value != nil && pair.Value.Default == nil {
				required = append(required, pair.Key)
			}
		}
		slices.Sort(required)
		s.Required = required
	}
	normalizeRequired(s.Items)
	for _, sub := range s.PatternProperties {
		normalizeRequired(sub)
	}
}

// schemaToMap renders a schema tree as a plain JSON object map.
func schemaToMap(s *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	return m, nil
}
