package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/innkeep/innkeep/pkg/schema"
)

// Transport is one live session against a tool provider. Implementations
// are not required to be safe for concurrent CallTool use; the gateway
// serializes access per connection where the underlying client needs it.
type Transport interface {
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
	Close() error
}

// mcpTransport adapts an initialized mcp-go client session to Transport.
type mcpTransport struct {
	cli *client.Client
}

// NewStdioTransport launches the provider command as a subprocess, speaks
// MCP over its stdio, and completes the initialize handshake.
func NewStdioTransport(ctx context.Context, command string, env []string, args ...string) (Transport, error) {
	cli, err := client.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeToolError,
			"start provider %q: %v", command, err).WithCause(err)
	}
	if err := initialize(ctx, cli); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return &mcpTransport{cli: cli}, nil
}

// NewInProcessTransport connects to an MCP server living in the same
// process, bypassing any wire serialization of the session itself.
func NewInProcessTransport(ctx context.Context, srv *server.MCPServer) (Transport, error) {
	cli, err := client.NewInProcessClient(srv)
	if err != nil {
		return nil, schema.NewErrorf(schema.ErrCodeToolError,
			"create in-process client: %v", err).WithCause(err)
	}
	if err := cli.Start(ctx); err != nil {
		_ = cli.Close()
		return nil, schema.NewErrorf(schema.ErrCodeToolError,
			"start in-process client: %v", err).WithCause(err)
	}
	if err := initialize(ctx, cli); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return &mcpTransport{cli: cli}, nil
}

func initialize(ctx context.Context, cli *client.Client) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "innkeep-gateway",
		Version: "1.0.0",
	}
	if _, err := cli.Initialize(ctx, req); err != nil {
		return schema.NewErrorf(schema.ErrCodeToolError,
			"initialize handshake: %v", err).WithCause(err)
	}
	return nil
}

// CallTool invokes the named tool and returns the concatenated text payload
// of the result. Tool-reported failures (IsError results) come back as
// TOOL_ERROR with the provider's message preserved.
func (t *mcpTransport) CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := t.cli.CallTool(ctx, req)
	if err != nil {
		return nil, err
	}

	text := collectText(res)
	if res.IsError {
		return nil, schema.NewErrorf(schema.ErrCodeToolError, "tool %s: %s", name, text)
	}
	return json.RawMessage(text), nil
}

func (t *mcpTransport) Close() error {
	return t.cli.Close()
}

// collectText joins all text content blocks of a tool result.
func collectText(res *mcp.CallToolResult) string {
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			sb.WriteString(tc.Text)
		}
	}
	if sb.Len() == 0 {
		return fmt.Sprintf("%v", res.Content)
	}
	return sb.String()
}
