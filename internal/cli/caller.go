package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/drutigliano19/spark-history-mcp/internal/server"
)

// toolCaller runs an MCP tool by name and returns its text output.
type toolCaller interface {
	Call(ctx context.Context, name string, args map[string]any) (string, error)
	Close() error
}

// mcpCaller talks to an in-process server over an in-memory transport, so
// the commands return exactly what an agent would see.
type mcpCaller struct {
	session *mcp.ClientSession
}

func newMCPCaller(ctx context.Context, o *options) (toolCaller, error) {
	clients, err := server.Clients(o.cfg)
	if err != nil {
		return nil, err
	}
	srv, err := server.New(o.cfg, clients, o.version)
	if err != nil {
		return nil, err
	}

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	if _, err := srv.MCP().Connect(ctx, serverTransport, nil); err != nil {
		return nil, fmt.Errorf("failed to start in-process server: %w", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "spark-history-cli", Version: o.version}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to in-process server: %w", err)
	}
	return &mcpCaller{session: session}, nil
}

func (c *mcpCaller) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	res, err := c.session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("failed to call %s: %w", name, err)
	}
	var parts []string
	for _, content := range res.Content {
		if text, ok := content.(*mcp.TextContent); ok {
			parts = append(parts, text.Text)
		}
	}
	out := strings.Join(parts, "\n")
	if res.IsError {
		return "", errors.New(out)
	}
	return out, nil
}

func (c *mcpCaller) Close() error {
	return c.session.Close()
}

// callJSON runs a tool and decodes its JSON output into a generic document
// and, when target is not nil, into target as well.
func (o *options) callJSON(ctx context.Context, name string, args map[string]any, target any) (any, error) {
	caller, err := o.newCaller(ctx, o)
	if err != nil {
		return nil, err
	}
	defer caller.Close()

	if s := o.serverName(); s != "" {
		args["server"] = s
	}
	out, err := caller.Call(ctx, name, args)
	if err != nil {
		return nil, err
	}

	var doc any
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		return nil, fmt.Errorf("unexpected output of %s: %w", name, err)
	}
	if target != nil {
		if err := json.Unmarshal([]byte(out), target); err != nil {
			return nil, fmt.Errorf("unexpected output of %s: %w", name, err)
		}
	}
	return doc, nil
}
