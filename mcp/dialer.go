package mcp

import (
	"context"
	"net/url"
	"os"
	"os/exec"

	mcpgolang "github.com/metoro-io/mcp-golang"
	mcphttp "github.com/metoro-io/mcp-golang/transport/http"
	"github.com/metoro-io/mcp-golang/transport/stdio"

	"github.com/toolbelt-ai/toolbelt"
)

// clientSession is a Session over an mcp-golang client plus the transport
// cleanup that goes with it.
type clientSession struct {
	client  *mcpgolang.Client
	cleanup func() error
}

func (s *clientSession) ListTools(ctx context.Context, cursor *string) (*mcpgolang.ToolsResponse, error) {
	return s.client.ListTools(ctx, cursor)
}

func (s *clientSession) CallTool(ctx context.Context, name string, args any) (*mcpgolang.ToolResponse, error) {
	return s.client.CallTool(ctx, name, args)
}

func (s *clientSession) Close() error {
	if s.cleanup == nil {
		return nil
	}
	return s.cleanup()
}

// Endpoint dials an MCP server over HTTP. endpoint is the full URL of the
// server's MCP endpoint, e.g. "http://localhost:8080/mcp".
func Endpoint(endpoint string) Dialer {
	return DialerFunc(func(ctx context.Context) (Session, error) {
		u, err := url.Parse(endpoint)
		if err != nil {
			return nil, &toolbelt.ConfigError{Reason: "invalid mcp endpoint url: " + err.Error()}
		}
		path := u.Path
		if path == "" {
			path = "/"
		}
		transport := mcphttp.NewHTTPClientTransport(path).WithBaseURL(u.Scheme + "://" + u.Host)
		client := mcpgolang.NewClient(transport)
		if _, err := client.Initialize(ctx); err != nil {
			return nil, &toolbelt.UpstreamError{Message: "initialize mcp session", Err: err}
		}
		return &clientSession{client: client, cleanup: transport.Close}, nil
	})
}

// Command dials an MCP server by launching it as a subprocess and speaking
// the stdio transport. Every Dial starts a new process; Close kills it.
type Command struct {
	Command string
	Args    []string
	Env     map[string]string
}

func (c Command) Dial(ctx context.Context) (Session, error) {
	if c.Command == "" {
		return nil, &toolbelt.ConfigError{Reason: "mcp command must not be empty"}
	}
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Env = os.Environ()
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, &toolbelt.UpstreamError{Message: "start mcp server " + c.Command, Err: err}
	}
	cleanup := func() error {
		_ = stdin.Close()
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
		return nil
	}

	transport := stdio.NewStdioServerTransportWithIO(stdout, stdin)
	client := mcpgolang.NewClient(transport)
	if _, err := client.Initialize(ctx); err != nil {
		_ = cleanup()
		return nil, &toolbelt.UpstreamError{Message: "initialize mcp session", Err: err}
	}
	return &clientSession{client: client, cleanup: cleanup}, nil
}
