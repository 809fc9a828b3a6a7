// client_test.go — Tests for the MCP HTTP client and connection helpers.
package mcpclient

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoArgs struct {
	Text string `json:"text" jsonschema:"text to echo"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := mcp.NewServer(&mcp.Implementation{Name: "test-server", Version: "test"}, nil)
	mcp.AddTool(server, &mcp.Tool{Name: "echo", Description: "Echo text"}, func(_ context.Context, _ *mcp.CallToolRequest, args echoArgs) (*mcp.CallToolResult, any, error) {
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: args.Text}}}, nil, nil
	})

	mux := http.NewServeMux()
	mux.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return server }, nil))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_CallTool(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	c := New(srv.URL+"/", nil, "test")
	assert.Equal(t, srv.URL, c.BaseURL())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	res, err := c.CallTool(ctx, "echo", map[string]any{"text": "hello"})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Equal(t, "hello", res.Content[0].(*mcp.TextContent).Text)
}

func TestClient_ListTools(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	tools, err := New(srv.URL, nil, "test").ListTools(ctx)
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "echo", tools[0].Name)
}

func TestClient_HealthCheck(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	assert.True(t, New(srv.URL, nil, "test").HealthCheck(ctx))
	assert.True(t, New(srv.URL, nil, "test").WaitForServer(ctx, time.Second))
}

func TestClient_ServerDown(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c := New("http://"+addr, nil, "test")
	ctx := context.Background()
	assert.False(t, c.HealthCheck(ctx))
	assert.False(t, c.WaitForServer(ctx, 150*time.Millisecond))

	_, err = c.CallTool(ctx, "echo", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server not running")
}

func TestIsConnectionError(t *testing.T) {
	t.Parallel()
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	dnsErr := &net.DNSError{Err: "no such host", Name: "nonexistent.example.com"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"op error", opErr, true},
		{"wrapped op error", errors.Join(errors.New("context"), opErr), true},
		{"dns error", dnsErr, true},
		{"wrapped dns error", errors.Join(errors.New("lookup failed"), dnsErr), true},
		{"refused string", errors.New("dial tcp 127.0.0.1:3000: connection refused"), true},
		{"no such host string", errors.New("lookup nonexistent.local: no such host"), true},
		{"unrelated", errors.New("timeout exceeded"), false},
		{"empty", errors.New(""), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, IsConnectionError(tc.err))
		})
	}
}
