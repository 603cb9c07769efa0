package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/parleychat/parley/pkg/debug"
	"github.com/parleychat/parley/pkg/tools"
)

// Client wraps an MCP SDK client and session for a single MCP server
// connection. It handles connection lifecycle, tool discovery, and tool
// execution.
type Client struct {
	cfg     ServerConfig
	client  *mcp.Client
	session *mcp.ClientSession
}

// NewClient creates a new Client for the given server configuration.
// Call Connect to establish the connection.
func NewClient(cfg ServerConfig) *Client {
	return &Client{cfg: cfg}
}

// Connect establishes the MCP connection to the server, performing the
// protocol handshake.
func (c *Client) Connect(ctx context.Context) error {
	return c.ConnectWithTransport(ctx, nil)
}

// ConnectWithTransport establishes the MCP connection using the given
// transport. If transport is nil, a transport is created from the
// server configuration. Passing a transport directly is intended for tests.
func (c *Client) ConnectWithTransport(ctx context.Context, transport mcp.Transport) error {
	c.client = mcp.NewClient(
		&mcp.Implementation{
			Name:    "parley",
			Version: "1.0.0",
		},
		&mcp.ClientOptions{
			Capabilities: &mcp.ClientCapabilities{},
		},
	)

	if transport == nil {
		t, err := c.createTransport()
		if err != nil {
			return fmt.Errorf("creating transport for %q: %w", c.cfg.Name, err)
		}
		transport = t
	}

	session, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("connecting to MCP server %q: %w", c.cfg.Name, err)
	}
	c.session = session
	debug.Log("mcp", "connected", "server", c.cfg.Name, "url", c.cfg.URL)
	return nil
}

// createTransport creates an MCP transport based on the server configuration.
func (c *Client) createTransport() (mcp.Transport, error) {
	httpClient := c.buildHTTPClient()

	switch c.cfg.Transport {
	case "sse":
		transport := &mcp.SSEClientTransport{
			Endpoint: c.cfg.URL,
		}
		if httpClient != nil {
			transport.HTTPClient = httpClient
		}
		return transport, nil

	case "streamable-http", "":
		transport := &mcp.StreamableClientTransport{
			Endpoint: c.cfg.URL,
		}
		if httpClient != nil {
			transport.HTTPClient = httpClient
		}
		return transport, nil

	default:
		return nil, fmt.Errorf("unsupported transport type %q", c.cfg.Transport)
	}
}

// buildHTTPClient returns an HTTP client that injects static headers and
// dynamically obtained auth headers. Returns nil if neither is configured.
func (c *Client) buildHTTPClient() *http.Client {
	var source headerSource
	if c.cfg.Auth.Type == "oauth_client_credentials" {
		source = newClientCredentials(c.cfg.Auth)
	}

	if len(c.cfg.Headers) == 0 && source == nil {
		return nil
	}

	return &http.Client{
		Transport: &authTransport{
			base:    http.DefaultTransport,
			headers: c.cfg.Headers,
			source:  source,
		},
	}
}

// authTransport is an http.RoundTripper that adds static headers and
// dynamically obtained auth headers to every request.
type authTransport struct {
	base    http.RoundTripper
	headers map[string]string
	source  headerSource
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}

	// Auth headers may override static ones, e.g. Authorization.
	if t.source != nil {
		headers, err := t.source.authHeaders(req.Context())
		if err != nil {
			return nil, fmt.Errorf("getting auth headers: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	return t.base.RoundTrip(req)
}

// Functions discovers the server's tools and wraps each one as a
// tools.Function that forwards invocations to the server. Tools inherit
// the server's RequireConfirm flag.
func (c *Client) Functions(ctx context.Context) ([]*tools.Function, error) {
	if c.session == nil {
		return nil, fmt.Errorf("MCP client %q not connected", c.cfg.Name)
	}

	var fns []*tools.Function
	for tool, err := range c.session.Tools(ctx, nil) {
		if err != nil {
			return nil, fmt.Errorf("listing tools from %q: %w", c.cfg.Name, err)
		}

		var params json.RawMessage
		if tool.InputSchema != nil {
			data, err := json.Marshal(tool.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("marshaling input schema of %q from %q: %w", tool.Name, c.cfg.Name, err)
			}
			params = data
		}

		name := tool.Name
		fns = append(fns, &tools.Function{
			Name:           name,
			Description:    tool.Description,
			Parameters:     params,
			RequireConfirm: c.cfg.RequireConfirm,
			Invoke: func(ctx context.Context, inv tools.Invocation) (string, error) {
				return c.call(ctx, name, inv.Args)
			},
		})
	}

	return fns, nil
}

// call executes a tool call on the MCP server. Server-side tool failures
// are reported as output text so the model can react to them; only
// transport-level failures surface as errors.
func (c *Client) call(ctx context.Context, name string, args map[string]any) (string, error) {
	result, err := c.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return fmt.Sprintf("MCP tool call error: %v", err), nil
	}
	return textContent(result), nil
}

// textContent joins the text blocks of a tool result.
func textContent(result *mcp.CallToolResult) string {
	var output string
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			if output != "" {
				output += "\n"
			}
			output += tc.Text
		}
	}
	return output
}

// Close closes the MCP session.
func (c *Client) Close() error {
	if c.session != nil {
		return c.session.Close()
	}
	return nil
}
