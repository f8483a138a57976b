// Package mcp discovers tools on Model Context Protocol servers and imports
// them as toolbelt tools.
//
// Sessions are strictly two-phase. Discovery opens one short-lived session,
// pages through the server's tool list, and closes it before returning. Every
// invocation then dials its own fresh session, issues the single call, and
// closes it on the way out, success or failure. No session is ever shared
// between calls or reused after discovery, so a dropped connection can only
// ever affect the one call riding on it.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	mcpgolang "github.com/metoro-io/mcp-golang"

	"github.com/toolbelt-ai/toolbelt"
)

// Session is one open client session against an MCP server. Dialers hand it
// back initialized and ready; Close releases the transport and whatever sits
// behind it (for subprocess servers, the process itself).
type Session interface {
	ListTools(ctx context.Context, cursor *string) (*mcpgolang.ToolsResponse, error)
	CallTool(ctx context.Context, name string, args any) (*mcpgolang.ToolResponse, error)
	Close() error
}

// Dialer opens fresh sessions. Tools dials once for discovery and once per
// invocation; implementations must return an independent session every time.
type Dialer interface {
	Dial(ctx context.Context) (Session, error)
}

// DialerFunc adapts a function to the Dialer interface, for custom transports
// and tests.
type DialerFunc func(ctx context.Context) (Session, error)

func (f DialerFunc) Dial(ctx context.Context) (Session, error) { return f(ctx) }

// Tools discovers the server's tools through one short-lived session and
// returns a toolbelt tool per discovered tool. The discovery session is
// closed before Tools returns; each returned tool dials its own session per
// invocation.
func Tools(ctx context.Context, dialer Dialer, opts ...Option) ([]toolbelt.Tool, error) {
	o := buildOptions(opts)
	discovered, err := discover(ctx, dialer)
	if err != nil {
		return nil, err
	}
	tools := make([]toolbelt.Tool, 0, len(discovered))
	for _, d := range discovered {
		if len(o.include) > 0 && !slices.Contains(o.include, d.name) {
			continue
		}
		tool, err := newServerTool(dialer, d)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", d.name, err)
		}
		tools = append(tools, tool)
	}
	return tools, nil
}

type discoveredTool struct {
	name        string
	description string
	schema      map[string]any
}

// discover lists the server's tools with cursor pagination over a single
// session and closes it before returning.
func discover(ctx context.Context, dialer Dialer) (tools []discoveredTool, err error) {
	session, err := dialer.Dial(ctx)
	if err != nil {
		return nil, &toolbelt.UpstreamError{Message: "open discovery session", Err: err}
	}
	defer func() {
		if cerr := session.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var cursor *string
	for {
		resp, lerr := session.ListTools(ctx, cursor)
		if lerr != nil {
			return nil, &toolbelt.UpstreamError{Message: "list tools", Err: lerr}
		}
		for _, t := range resp.Tools {
			tools = append(tools, discoveredTool{
				name:        t.Name,
				description: strDeref(t.Description),
				schema:      schemaToMap(t.InputSchema),
			})
		}
		if resp.NextCursor == nil || *resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return tools, nil
}

// newServerTool wraps one discovered tool. The target dials a fresh session,
// issues the call, and closes the session before returning; context
// cancellation tears the session down with everything in flight on it.
func newServerTool(dialer Dialer, d discoveredTool) (toolbelt.Tool, error) {
	target := func(ctx context.Context, argsJSON json.RawMessage) (json.RawMessage, error) {
		var args map[string]any
		if err := json.Unmarshal(argsJSON, &args); err != nil {
			return nil, &toolbelt.ValidationError{Reason: "arguments are not valid JSON: " + err.Error(), Err: toolbelt.ErrValidation}
		}
		session, err := dialer.Dial(ctx)
		if err != nil {
			return nil, &toolbelt.UpstreamError{Message: "open session for " + d.name, Err: err}
		}
		defer func() {
			_ = session.Close()
		}()
		resp, err := session.CallTool(ctx, d.name, args)
		if err != nil {
			return nil, &toolbelt.UpstreamError{Message: "call " + d.name, Err: err}
		}
		return resultJSON(resp)
	}
	return toolbelt.NewDynamicTool(d.name, d.description, d.schema, target,
		toolbelt.WithSource(toolbelt.SourceMCP))
}

// resultJSON renders a tool response as JSON: the text contents joined with
// newlines when present (kept raw when they already form valid JSON), the
// content list itself otherwise.
func resultJSON(resp *mcpgolang.ToolResponse) (json.RawMessage, error) {
	if resp == nil {
		return json.Marshal("")
	}
	var texts []string
	for _, c := range resp.Content {
		if c != nil && c.TextContent != nil {
			texts = append(texts, c.TextContent.Text)
		}
	}
	if len(texts) > 0 {
		joined := strings.Join(texts, "\n")
		if json.Valid([]byte(joined)) {
			return json.RawMessage(joined), nil
		}
		return json.Marshal(joined)
	}
	return json.Marshal(resp.Content)
}

// schemaToMap coerces a discovered input schema into a schema map, falling
// back to an open object when the server sent none.
func schemaToMap(schema any) map[string]any {
	if m, ok := schema.(map[string]any); ok && len(m) > 0 {
		return m
	}
	if schema != nil {
		if data, err := json.Marshal(schema); err == nil {
			var m map[string]any
			if err := json.Unmarshal(data, &m); err == nil && len(m) > 0 {
				return m
			}
		}
	}
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
