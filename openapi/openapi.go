// Package openapi imports the operations of an OpenAPI 3 document as toolbelt
// tools backed by HTTP calls. Each retained operation becomes one tool: its
// argument schema merges path-level and operation-level parameters with the
// JSON request body, and invocation templates path parameters into the URL,
// sends query parameters, and posts the remaining arguments as the body.
package openapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/toolbelt-ai/toolbelt"
)

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// Tools loads an OpenAPI 3 document and returns one tool per retained
// operation. source may be a URL string, a file path string, raw document
// bytes, or an already-parsed *openapi3.T.
func Tools(ctx context.Context, source any, opts ...Option) ([]toolbelt.Tool, error) {
	doc, err := load(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	return FromDocument(doc, opts...)
}

func load(ctx context.Context, source any) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = true
	switch src := source.(type) {
	case *openapi3.T:
		return src, nil
	case []byte:
		return loader.LoadFromData(src)
	case string:
		if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
			u, err := url.Parse(src)
			if err != nil {
				return nil, err
			}
			return loader.LoadFromURI(u)
		}
		return loader.LoadFromFile(src)
	default:
		return nil, fmt.Errorf("unsupported document source %T", source)
	}
}

// FromDocument converts an already-parsed document. Operations are visited in
// sorted path and method order so the returned slice, and any toolkit built
// from it, is deterministic.
func FromDocument(doc *openapi3.T, opts ...Option) ([]toolbelt.Tool, error) {
	o := buildOptions(opts)
	if doc == nil || doc.Paths == nil {
		return nil, nil
	}
	base := o.baseURL
	if base == "" && len(doc.Servers) > 0 {
		base = doc.Servers[0].URL
	}
	base = strings.TrimSuffix(base, "/")

	pathItems := doc.Paths.Map()
	pathKeys := sortedKeys(pathItems)

	var tools []toolbelt.Tool
	for _, path := range pathKeys {
		item := pathItems[path]
		if item == nil {
			continue
		}
		operations := item.Operations()
		methods := sortedKeys(operations)
		for _, method := range methods {
			if !supportedMethods[method] {
				continue
			}
			op := operations[method]
			name := toolName(method, path, op)
			if len(o.operations) > 0 && !slices.Contains(o.operations, name) {
				continue
			}
			schemaMap, queryNames := operationSchema(item, op)
			target := newTarget(o, method, base+path, queryNames)
			tool, err := toolbelt.NewDynamicTool(name, operationDoc(op), schemaMap, target,
				toolbelt.WithSource(toolbelt.SourceOpenAPI))
			if err != nil {
				return nil, fmt.Errorf("operation %s: %w", name, err)
			}
			tools = append(tools, tool)
		}
	}
	return tools, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// toolName prefers the declared operationId and falls back to a name built
// from the method and path, with braces stripped: GET /users/{id} becomes
// get_users_id.
func toolName(method, path string, op *openapi3.Operation) string {
	if op != nil && op.OperationID != "" {
		return op.OperationID
	}
	p := strings.Trim(path, "/")
	p = strings.NewReplacer("{", "", "}", "").Replace(p)
	p = strings.ReplaceAll(p, "/", "_")
	if p == "" {
		return strings.ToLower(method)
	}
	return strings.ToLower(method) + "_" + p
}

func operationDoc(op *openapi3.Operation) string {
	if op == nil {
		return ""
	}
	if op.Summary != "" {
		return op.Summary
	}
	return op.Description
}

// operationSchema builds the tool's argument schema. Path-item parameters and
// operation parameters merge; a JSON request body of type object contributes
// its properties directly, any other body shape becomes a single "data"
// property. The required list is the sorted union of required parameters and
// required body fields. Returns the schema map plus the names of declared
// query parameters, which the target needs for routing.
func operationSchema(item *openapi3.PathItem, op *openapi3.Operation) (map[string]any, []string) {
	properties := map[string]any{}
	var required []string
	var queryNames []string

	params := make(openapi3.Parameters, 0, len(item.Parameters)+len(op.Parameters))
	params = append(params, item.Parameters...)
	params = append(params, op.Parameters...)
	for _, ref := range params {
		if ref == nil || ref.Value == nil {
			continue
		}
		p := ref.Value
		if p.In != openapi3.ParameterInPath && p.In != openapi3.ParameterInQuery {
			continue
		}
		properties[p.Name] = parameterSchema(p)
		if p.Required {
			required = append(required, p.Name)
		}
		if p.In == openapi3.ParameterInQuery {
			queryNames = append(queryNames, p.Name)
		}
	}

	if ref := jsonBody(op); ref != nil && ref.Value != nil {
		body := ref.Value
		if body.Type.Is("object") && len(body.Properties) > 0 {
			names := sortedKeys(body.Properties)
			for _, name := range names {
				if m, err := schemaRefToMap(body.Properties[name]); err == nil {
					properties[name] = m
				}
			}
			required = append(required, body.Required...)
		} else if m, err := schemaRefToMap(ref); err == nil {
			properties["data"] = m
			if op.RequestBody.Value.Required {
				required = append(required, "data")
			}
		}
	}

	slices.Sort(required)
	required = slices.Compact(required)
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}, queryNames
}

// parameterSchema renders one parameter's schema, defaulting to a bare string
// when the document declares none.
func parameterSchema(p *openapi3.Parameter) map[string]any {
	if p.Schema == nil || p.Schema.Value == nil {
		m := map[string]any{"type": "string"}
		if p.Description != "" {
			m["description"] = p.Description
		}
		return m
	}
	m, err := schemaRefToMap(p.Schema)
	if err != nil {
		return map[string]any{"type": "string"}
	}
	if p.Description != "" {
		if _, ok := m["description"]; !ok {
			m["description"] = p.Description
		}
	}
	return m
}

func schemaRefToMap(ref *openapi3.SchemaRef) (map[string]any, error) {
	data, err := ref.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func jsonBody(op *openapi3.Operation) *openapi3.SchemaRef {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil {
		return nil
	}
	return media.Schema
}

// newTarget builds the HTTP invocation closure for one operation. Path
// parameters template into the URL; for GET every remaining argument travels
// as a query parameter, for other methods declared query parameters stay in
// the query and the rest form the JSON body.
func newTarget(o options, method, urlTemplate string, queryNames []string) func(context.Context, json.RawMessage) (json.RawMessage, error) {
	client := o.client
	if client == nil {
		client = http.DefaultClient
	}
	headers := maps.Clone(o.headers)
	staticParams := maps.Clone(o.params)

	return func(ctx context.Context, argsJSON json.RawMessage) (json.RawMessage, error) {
		var args map[string]any
		if err := json.Unmarshal(argsJSON, &args); err != nil {
			return nil, &toolbelt.ValidationError{Reason: "arguments are not valid JSON: " + err.Error(), Err: toolbelt.ErrValidation}
		}
		if args == nil {
			args = map[string]any{}
		}

		endpoint := urlTemplate
		for key, val := range args {
			placeholder := "{" + key + "}"
			if strings.Contains(endpoint, placeholder) {
				endpoint = strings.ReplaceAll(endpoint, placeholder, url.PathEscape(queryValue(val)))
				delete(args, key)
			}
		}

		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, fmt.Errorf("build request url: %w", err)
		}
		query := u.Query()
		for key, val := range staticParams {
			query.Set(key, val)
		}

		var body io.Reader
		if method == http.MethodGet {
			for key, val := range args {
				query.Set(key, queryValue(val))
			}
		} else {
			for _, name := range queryNames {
				if val, ok := args[name]; ok {
					query.Set(name, queryValue(val))
					delete(args, name)
				}
			}
			data, err := json.Marshal(args)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(data)
		}
		u.RawQuery = query.Encode()

		req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		for key, val := range headers {
			req.Header.Set(key, val)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, &toolbelt.UpstreamError{Message: "request failed", Err: err}
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &toolbelt.UpstreamError{Status: resp.StatusCode, Message: "read response body", Err: err}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &toolbelt.UpstreamError{Status: resp.StatusCode, Message: truncate(string(data), 512)}
		}
		if json.Valid(data) {
			return json.RawMessage(data), nil
		}
		return json.Marshal(string(data))
	}
}

// queryValue renders an argument for a URL position: scalars print bare,
// composites as compact JSON.
func queryValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case bool, float64:
		return fmt.Sprint(val)
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
