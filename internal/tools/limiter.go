// limiter.go — Sliding-window rate limit for tools/call.
package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MCPJam/apps-sdk-everything/internal/toolkit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// CallLimiter implements a sliding window rate limiter for tool calls.
type CallLimiter struct {
	mu         sync.Mutex
	timestamps []time.Time
	maxCalls   int
	window     time.Duration
	now        func() time.Time
}

// NewCallLimiter creates a rate limiter allowing maxCalls within the given window.
func NewCallLimiter(maxCalls int, window time.Duration) *CallLimiter {
	return &CallLimiter{
		timestamps: make([]time.Time, 0, maxCalls),
		maxCalls:   maxCalls,
		window:     window,
		now:        time.Now,
	}
}

// Allow checks if a new call is permitted. If allowed, records it and returns true.
func (l *CallLimiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	valid := 0
	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			l.timestamps[valid] = ts
			valid++
		}
	}
	l.timestamps = l.timestamps[:valid]

	if len(l.timestamps) >= l.maxCalls {
		return false
	}

	l.timestamps = append(l.timestamps, now)
	return true
}

// RateLimit returns receiving middleware that answers tools/call with a
// rate_limited error result once l is exhausted. Other methods pass through.
func RateLimit(l *CallLimiter, logger *zap.Logger) mcp.Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" || l == nil || l.Allow() {
				return next(ctx, method, req)
			}
			name := ""
			if p, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok {
				name = p.Name
			}
			logger.Warn("tool call rate limited", zap.String("tool", name))
			return toolkit.StructuredErrorResult(toolkit.ErrRateLimited,
				fmt.Sprintf("more than %d tool calls in %s", l.maxCalls, l.window),
				"Wait and call again"), nil
		}
	}
}
