// client.go — MCP client for a running apps-sdk-everything server.
// Calls tools over the streamable HTTP transport at <baseURL>/mcp.
package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	healthTimeout      = 2 * time.Second
	healthPollInterval = 100 * time.Millisecond
)

// Client connects to a running server. Each call opens a short-lived session.
type Client struct {
	baseURL    string
	httpClient *http.Client
	version    string
}

// New creates a client for baseURL (e.g. http://127.0.0.1:3000).
// A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, version string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		version:    version,
	}
}

// BaseURL returns the server base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// HealthCheck reports whether GET /health answers 200.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// WaitForServer polls the health endpoint until it responds or timeout elapses.
func (c *Client) WaitForServer(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if c.HealthCheck(ctx) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(healthPollInterval):
		}
	}
}

func (c *Client) connect(ctx context.Context) (*mcp.ClientSession, error) {
	client := mcp.NewClient(&mcp.Implementation{Name: "apps-sdk-everything-cli", Version: c.version}, nil)
	cs, err := client.Connect(ctx, &mcp.StreamableClientTransport{
		Endpoint:   c.baseURL + "/mcp",
		HTTPClient: c.httpClient,
	}, nil)
	if err != nil {
		if IsConnectionError(err) {
			return nil, fmt.Errorf("server not running at %s: %w", c.baseURL, err)
		}
		return nil, fmt.Errorf("initialize: %w", err)
	}
	return cs, nil
}

// CallTool sends a tools/call request. Tool-level failures come back as a
// result with IsError set, not as an error.
func (c *Client) CallTool(ctx context.Context, tool string, arguments map[string]any) (*mcp.CallToolResult, error) {
	if arguments == nil {
		arguments = map[string]any{}
	}
	cs, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cs.Close() }()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: tool, Arguments: arguments})
	if err != nil {
		return nil, fmt.Errorf("call tool %q: %w", tool, err)
	}
	return res, nil
}

// ListTools returns every tool the server advertises.
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	cs, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cs.Close() }()

	var out []*mcp.Tool
	params := &mcp.ListToolsParams{}
	for {
		res, err := cs.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("list tools: %w", err)
		}
		out = append(out, res.Tools...)
		if res.NextCursor == "" {
			return out, nil
		}
		params.Cursor = res.NextCursor
	}
}

// IsConnectionError returns true if the error indicates the server is unreachable.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	// Some transports flatten the error chain.
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "no such host")
}
