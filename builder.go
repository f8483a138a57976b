package toolbelt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// tool is the implementation behind NewTool and NewDynamicTool: metadata, a
// schema map, and an invoke closure that already contains validation and the
// execution policy.
type tool struct {
	name        string
	description string
	usage       string
	schemaMap   map[string]any
	invoke      func(context.Context, json.RawMessage) (json.RawMessage, error)
	opts        toolOptions

	// serializes Run for tools built with WithSerial
	mu sync.Mutex
}

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)

// NewTool wraps a typed function as a Tool. The argument schema is derived
// from T (fields without a jsonschema default are required); description and
// usage come from doc via the Desc: and Usage: tags, with the first non-blank
// line as fallback description. Run unmarshals and validates the call
// arguments, invokes fn, and marshals its result.
//
// Construction fails with a SchemaError when T contains an unsupported field
// type and a ConfigError when T is recursive, fn is nil, or the options
// contradict each other.
func NewTool[T any, R any](
	name, doc string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	o, err := buildToolOptions(opts)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &ConfigError{Reason: "tool name must not be empty"}
	}
	if fn == nil {
		return nil, &ConfigError{Reason: "tool function must not be nil"}
	}
	ext, err := NewExtractor[T]()
	if err != nil {
		return nil, err
	}
	invoke := func(ctx context.Context, argsJSON json.RawMessage) (json.RawMessage, error) {
		args, err := ext.ParseAndValidate(argsJSON)
		if err != nil {
			return nil, err
		}
		return runPolicy(ctx, o.policy, func(ctx context.Context) (json.RawMessage, error) {
			res, err := fn(ctx, args)
			if err != nil {
				return nil, err
			}
			data, err := json.Marshal(res)
			if err != nil {
				return nil, fmt.Errorf("marshal result of %q: %w", name, err)
			}
			return data, nil
		})
	}
	return newBuiltTool(name, parseDocText(doc), ext.Schema(), invoke, o), nil
}

// NewDynamicTool wraps a handler together with a raw JSON Schema map as a
// Tool, for tools whose shape is only known at runtime (the openapi and mcp
// adapters are built on it). The schema map is deep copied, so later caller
// mutations do not reach the tool, and must compile as a JSON Schema.
// Arguments are validated against the compiled schema before fn runs.
func NewDynamicTool(
	name, doc string,
	schemaMap map[string]any,
	fn func(ctx context.Context, argsJSON json.RawMessage) (json.RawMessage, error),
	opts ...ToolOption,
) (Tool, error) {
	o, err := buildToolOptions(opts)
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, &ConfigError{Reason: "tool name must not be empty"}
	}
	if fn == nil {
		return nil, &ConfigError{Reason: "tool function must not be nil"}
	}
	if schemaMap == nil {
		return nil, &ConfigError{Reason: "schema map must not be nil"}
	}
	schemaCopy, err := deepCopySchema(schemaMap)
	if err != nil {
		return nil, &ConfigError{Reason: "schema map is not JSON-encodable: " + err.Error()}
	}
	compiled, err := compileRawSchema(schemaCopy)
	if err != nil {
		return nil, &ConfigError{Reason: "schema does not compile: " + err.Error()}
	}
	invoke := func(ctx context.Context, argsJSON json.RawMessage) (json.RawMessage, error) {
		var decoded any
		if err := json.Unmarshal(argsJSON, &decoded); err != nil {
			return nil, &ValidationError{Reason: "arguments are not valid JSON: " + err.Error(), Err: ErrValidation}
		}
		if err := validateRaw(compiled, decoded); err != nil {
			return nil, err
		}
		return runPolicy(ctx, o.policy, func(ctx context.Context) (json.RawMessage, error) {
			return fn(ctx, argsJSON)
		})
	}
	return newBuiltTool(name, parseDocText(doc), schemaCopy, invoke, o), nil
}

func newBuiltTool(name string, meta docMeta, schemaMap map[string]any, invoke func(context.Context, json.RawMessage) (json.RawMessage, error), o toolOptions) *tool {
	usage := meta.usage
	if o.usageSet {
		usage = o.usage
	}
	return &tool{
		name:        name,
		description: meta.description,
		usage:       usage,
		schemaMap:   schemaMap,
		invoke:      invoke,
		opts:        o,
	}
}

// runPolicy applies the execution policy around one target invocation:
// the retry loop when enabled, failure capture when enabled, plain
// propagation otherwise. Validation has already happened by the time this
// runs, so captured and retried failures are always target failures.
func runPolicy(ctx context.Context, p policy, invoke func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	if p.retry {
		return runWithRetry(ctx, p.maxTimeout, p.maxBackoff, invoke)
	}
	res, err := invoke(ctx)
	if err != nil && p.captureFailures {
		data, merr := json.Marshal(Failure{Error: err.Error()})
		if merr != nil {
			return nil, merr
		}
		return data, nil
	}
	return res, err
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }
func (t *tool) Usage() string       { return t.usage }

// Parameters returns a deep copy of the schema map; mutating it never reaches
// the tool.
func (t *tool) Parameters() map[string]any {
	return deepCopyMap(t.schemaMap)
}

func (t *tool) Run(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	if !t.opts.policy.concurrent {
		t.mu.Lock()
		defer t.mu.Unlock()
	}
	return t.invoke(ctx, args)
}

func (t *tool) Source() string { return t.opts.source }

func (t *tool) Tags() []string {
	return append([]string(nil), t.opts.tags...)
}
