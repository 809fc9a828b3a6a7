// timeout.go — Per-request timeout for MCP methods.
package tools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Timeout constants for different request kinds.
const (
	FastTimeout = 10 * time.Second
	// SlowTimeout covers resources/read, which may fetch widget HTML from a
	// remote deployment.
	SlowTimeout = 35 * time.Second
)

// RequestTimeout returns the deadline budget for method.
func RequestTimeout(method string) time.Duration {
	if method == "resources/read" {
		return SlowTimeout
	}
	return FastTimeout
}

// Timeouts returns receiving middleware that bounds every request by
// RequestTimeout.
func Timeouts() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			ctx, cancel := context.WithTimeout(ctx, RequestTimeout(method))
			defer cancel()
			return next(ctx, method, req)
		}
	}
}
