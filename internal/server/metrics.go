// metrics.go — Per-tool request and error counters exposed on /health.
package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Metrics tracks tool call counts. All methods are safe for concurrent use.
type Metrics struct {
	mu            sync.RWMutex
	startTime     time.Time
	now           func() time.Time
	requestCounts map[string]int64
	errorCounts   map[string]int64
}

// ToolStats is the health view of one tool.
type ToolStats struct {
	Requests int64 `json:"requests"`
	Errors   int64 `json:"errors"`
}

// NewMetrics creates a Metrics with the clock started.
func NewMetrics() *Metrics {
	return &Metrics{
		startTime:     time.Now(),
		now:           time.Now,
		requestCounts: make(map[string]int64),
		errorCounts:   make(map[string]int64),
	}
}

// IncrementRequest increments the request count for the given tool.
func (m *Metrics) IncrementRequest(tool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCounts[tool]++
}

// IncrementError increments the error count for the given tool.
func (m *Metrics) IncrementError(tool string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCounts[tool]++
}

// Uptime returns the time since NewMetrics.
func (m *Metrics) Uptime() time.Duration {
	return m.now().Sub(m.startTime)
}

// Tools returns the counters of every tool called at least once.
func (m *Metrics) Tools() map[string]ToolStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]ToolStats, len(m.requestCounts))
	for name, n := range m.requestCounts {
		out[name] = ToolStats{Requests: n, Errors: m.errorCounts[name]}
	}
	return out
}

// ToolNames returns the called tool names, sorted.
func (m *Metrics) ToolNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.requestCounts))
	for name := range m.requestCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Middleware counts tools/call requests. Protocol errors and isError results
// both count as errors.
func (m *Metrics) Middleware() mcp.Middleware {
	return func(next mcp.MethodHandler) mcp.MethodHandler {
		return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}
			name := ""
			if p, ok := req.GetParams().(*mcp.CallToolParamsRaw); ok {
				name = p.Name
			}
			m.IncrementRequest(name)
			res, err := next(ctx, method, req)
			if err != nil {
				m.IncrementError(name)
			} else if r, ok := res.(*mcp.CallToolResult); ok && r.IsError {
				m.IncrementError(name)
			}
			return res, err
		}
	}
}
