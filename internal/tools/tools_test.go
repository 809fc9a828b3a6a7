// tools_test.go — End-to-end tool and resource tests over in-memory transports.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/MCPJam/apps-sdk-everything/internal/catalog"
	"github.com/MCPJam/apps-sdk-everything/internal/toolkit"
	"github.com/MCPJam/apps-sdk-everything/internal/widgets"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

type zeroRand struct{}

func (zeroRand) IntN(int) int { return 0 }

type failingSource struct{}

func (failingSource) HTML(context.Context, widgets.Request) (string, error) {
	return "", errors.New("upstream down")
}

func connect(t *testing.T, reg *Registry, mw ...mcp.Middleware) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()

	server := mcp.NewServer(&mcp.Implementation{Name: "apps-sdk-everything", Version: "test"}, nil)
	if len(mw) > 0 {
		server.AddReceivingMiddleware(mw...)
	}
	reg.Register(server)

	st, ct := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cs.Close()
		_ = ss.Wait()
	})
	return cs
}

func newRegistry(opts ...Option) *Registry {
	base := []Option{WithClock(func() time.Time { return fixedNow }), WithRand(zeroRand{})}
	return New(widgets.NewRenderer(), append(base, opts...)...)
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	return res
}

// assertRejected checks that a call fails either at the protocol level or as
// a tool error.
func assertRejected(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return
	}
	assert.True(t, res.IsError, "%s(%v) should be rejected", name, args)
}

func structured(t *testing.T, res *mcp.CallToolResult) map[string]any {
	t.Helper()
	m, ok := res.StructuredContent.(map[string]any)
	require.True(t, ok, "structured content: %T", res.StructuredContent)
	return m
}

func TestListTools_CatalogWithMeta(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	byName := map[string]*mcp.Tool{}
	for _, tool := range res.Tools {
		byName[tool.Name] = tool
	}
	assert.Len(t, byName, len(catalog.Widgets())+len(catalog.Tools()))

	dash := byName["show_apps_sdk_dashboard"]
	require.NotNil(t, dash)
	assert.Equal(t, "ui://widget/content-template.html", dash.Meta[toolkit.MetaOutputTemplate])
	assert.Equal(t, "Loading content...", dash.Meta[toolkit.MetaInvoking])
	assert.Equal(t, false, dash.Meta[toolkit.MetaWidgetAccessible])
	assert.Equal(t, true, dash.Meta[toolkit.MetaResultCanProduceWidget])

	counter := byName["counter_increment"]
	require.NotNil(t, counter)
	assert.Equal(t, true, counter.Meta[toolkit.MetaWidgetAccessible])

	assert.Empty(t, byName["get_time"].Meta)
}

func TestListResources_WidgetMeta(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res, err := cs.ListResources(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Resources, len(catalog.Widgets()))

	for _, r := range res.Resources {
		assert.Equal(t, toolkit.MIMETypeSkybridge, r.MIMEType, r.URI)
		if r.URI == "ui://widget/meta-demo.html" {
			csp, ok := r.Meta[toolkit.MetaWidgetCSP].(map[string]any)
			require.True(t, ok)
			assert.Equal(t, []any{"api.github.com"}, csp["connect_domains"])
			assert.Equal(t, []any{"fonts.googleapis.com"}, csp["resource_domains"])
		}
	}
}

func TestReadResource_RendersWidget(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "ui://widget/content-template.html"})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)

	c := res.Contents[0]
	assert.Equal(t, "ui://widget/content-template.html", c.URI)
	assert.Equal(t, toolkit.MIMETypeSkybridge, c.MIMEType)
	assert.Contains(t, c.Text, `data-widget="dashboard"`)
	assert.Equal(t, "https://nextjs.org/docs", c.Meta[toolkit.MetaWidgetDomain])
	assert.Equal(t, true, c.Meta[toolkit.MetaWidgetPrefersBorder])
}

func TestReadResource_SourceFailure(t *testing.T) {
	t.Parallel()
	cs := connect(t, New(failingSource{}))

	_, err := cs.ReadResource(context.Background(), &mcp.ReadResourceParams{URI: "ui://widget/popover.html"})
	assert.Error(t, err)
}

func TestDashboardTool(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res := call(t, cs, "show_apps_sdk_dashboard", map[string]any{"name": "Ada"})
	assert.False(t, res.IsError)
	assert.Equal(t, "Ada", toolkit.FirstText(res))
	assert.Equal(t, map[string]any{"name": "Ada", "timestamp": "2025-10-01T12:00:00.000Z"}, structured(t, res))
	assert.Equal(t, "ui://widget/content-template.html", res.Meta[toolkit.MetaOutputTemplate])
}

func TestPageWidgetTools(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	for _, w := range catalog.Widgets() {
		if w.NameArg {
			continue
		}
		t.Run(w.ID, func(t *testing.T) {
			res := call(t, cs, w.ID, nil)
			assert.False(t, res.IsError)
			assert.NotEmpty(t, toolkit.FirstText(res))
			assert.Equal(t, w.TemplateURI, res.Meta[toolkit.MetaOutputTemplate])
		})
	}

	res := call(t, cs, "read-only-widget", nil)
	out := structured(t, res)
	assert.Equal(t, "2025-10-01T12:00:00.000Z", out["timestamp"])
	assert.Equal(t, "UTC", out["timezone"])
}

func TestGetTime(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res := call(t, cs, "get_time", nil)
	assert.Equal(t, "Current time: 2025-10-01T12:00:00.000Z", toolkit.FirstText(res))
	out := structured(t, res)
	assert.Equal(t, float64(fixedNow.UnixMilli()), out["unixTimestamp"])
	assert.Equal(t, "UTC", out["timezone"])
}

func TestCalculator(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	tests := []struct {
		op     string
		a, b   float64
		text   string
		result float64
	}{
		{"add", 2, 3, "2 add 3 = 5", 5},
		{"subtract", 2, 3.5, "2 subtract 3.5 = -1.5", -1.5},
		{"multiply", 4, 2.5, "4 multiply 2.5 = 10", 10},
		{"divide", 9, 4, "9 divide 4 = 2.25", 2.25},
	}
	for _, tc := range tests {
		t.Run(tc.op, func(t *testing.T) {
			res := call(t, cs, "calculator", map[string]any{"operation": tc.op, "a": tc.a, "b": tc.b})
			require.False(t, res.IsError)
			assert.Equal(t, tc.text, toolkit.FirstText(res))
			out := structured(t, res)
			assert.Equal(t, tc.result, out["result"])
			assert.Equal(t, map[string]any{"a": tc.a, "b": tc.b}, out["operands"])
		})
	}
}

func TestCalculator_DivideByZero(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res := call(t, cs, "calculator", map[string]any{"operation": "divide", "a": 1, "b": 0})
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: Division by zero", toolkit.FirstText(res))
	assert.Nil(t, res.StructuredContent)
}

func TestCalculator_UnknownOperation(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())
	assertRejected(t, cs, "calculator", map[string]any{"operation": "mod", "a": 1, "b": 2})

	// Direct callers bypass schema validation and still get a structured error.
	res, _, err := newRegistry().calculator(context.Background(), nil, calculatorArgs{Operation: "mod", A: 1, B: 2})
	require.NoError(t, err)
	require.True(t, res.IsError)
	se, ok := toolkit.ParseStructuredError(toolkit.FirstText(res))
	require.True(t, ok)
	assert.Equal(t, toolkit.ErrInvalidParam, se.Error)
	assert.Equal(t, "operation", se.Param)
}

func TestInputSchemas_AdvertiseConstraints(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	schemas := map[string]map[string]any{}
	for _, tool := range res.Tools {
		raw, err := json.Marshal(tool.InputSchema)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		schemas[tool.Name] = m
	}

	prop := func(tool, name string) map[string]any {
		props, _ := schemas[tool]["properties"].(map[string]any)
		p, _ := props[name].(map[string]any)
		require.NotNil(t, p, "%s.%s", tool, name)
		return p
	}

	assert.Equal(t, []any{"add", "subtract", "multiply", "divide"}, prop("calculator", "operation")["enum"])
	assert.ElementsMatch(t, []any{"operation", "a", "b"}, schemas["calculator"]["required"])
	for _, name := range []string{"counter", "incrementAmount"} {
		p := prop("increment", name)
		assert.Equal(t, 0.0, p["minimum"], name)
		assert.Equal(t, 100.0, p["maximum"], name)
	}
}

func TestCounterIncrement_SharedCounter(t *testing.T) {
	t.Parallel()
	reg := newRegistry()
	cs := connect(t, reg)

	res := call(t, cs, "counter_increment", nil)
	assert.Equal(t, "Counter incremented by 1. New value: 1", toolkit.FirstText(res))

	res = call(t, cs, "counter_increment", map[string]any{"amount": 2.5})
	assert.Equal(t, "Counter incremented by 2.5. New value: 3.5", toolkit.FirstText(res))
	assert.Equal(t, 3.5, structured(t, res)["counter"])
	assert.Equal(t, 3.5, reg.Counter())
}

func TestGetWeather(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res := call(t, cs, "get_weather", map[string]any{"location": "Lisbon"})
	assert.Equal(t, "Weather in Lisbon: sunny, -5°C", toolkit.FirstText(res))
	assert.Equal(t, map[string]any{
		"location":    "Lisbon",
		"condition":   "sunny",
		"temperature": -5.0,
		"humidity":    0.0,
		"windSpeed":   0.0,
	}, structured(t, res))
	assert.Equal(t, "mock-weather-api", res.Meta["custom/dataSource"])
	assert.Equal(t, false, res.Meta["custom/cached"])
	assert.Equal(t, "2025-10-01T12:00:00.000Z", res.Meta["custom/timestamp"])

	res = call(t, cs, "get_weather", map[string]any{"location": "  "})
	assert.True(t, res.IsError)
}

func TestSearchItems(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	tests := []struct {
		name  string
		args  map[string]any
		want  []string
		total float64
	}{
		{"default limit", map[string]any{"query": "electronics"}, []string{"Laptop", "Mouse", "Keyboard", "Monitor", "Headphones"}, 5},
		{"case insensitive name", map[string]any{"query": "DESK"}, []string{"Desk Chair", "Desk Lamp"}, 2},
		{"category", map[string]any{"query": "furniture", "limit": 1}, []string{"Desk Chair"}, 1},
		{"no match", map[string]any{"query": "piano"}, nil, 0},
		{"zero limit", map[string]any{"query": "e", "limit": 0}, nil, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := call(t, cs, "search_items", tc.args)
			require.False(t, res.IsError)
			out := structured(t, res)
			assert.Equal(t, tc.total, out["totalResults"])
			var names []string
			for _, it := range out["items"].([]any) {
				names = append(names, it.(map[string]any)["name"].(string))
			}
			assert.Equal(t, tc.want, names)
		})
	}

	res := call(t, cs, "search_items", map[string]any{"query": "e", "limit": -1})
	assert.True(t, res.IsError)
}

func TestIncrement(t *testing.T) {
	t.Parallel()
	cs := connect(t, newRegistry())

	res := call(t, cs, "increment", map[string]any{"counter": 4, "incrementAmount": 3})
	require.False(t, res.IsError)
	assert.Equal(t, "Counter incremented by 3. New value: 7", toolkit.FirstText(res))
	assert.Equal(t, 7.0, structured(t, res)["counter"])
	assert.Equal(t, true, res.Meta[toolkit.MetaWidgetAccessible])
	assert.Equal(t, "Tool call completed", res.Meta[toolkit.MetaInvoked])

	res = call(t, cs, "increment", nil)
	assert.Equal(t, 0.0, structured(t, res)["counter"])

	assertRejected(t, cs, "increment", map[string]any{"counter": 101})
	assertRejected(t, cs, "increment", map[string]any{"incrementAmount": -1})

	direct, _, err := newRegistry().increment(context.Background(), nil, incrementArgs{Counter: 101})
	require.NoError(t, err)
	require.True(t, direct.IsError)
	se, ok := toolkit.ParseStructuredError(toolkit.FirstText(direct))
	require.True(t, ok)
	assert.Equal(t, "counter", se.Param)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	limiter := NewCallLimiter(2, time.Minute)
	cs := connect(t, newRegistry(), RateLimit(limiter, nil))

	assert.False(t, call(t, cs, "get_time", nil).IsError)
	assert.False(t, call(t, cs, "get_time", nil).IsError)

	res := call(t, cs, "get_time", nil)
	require.True(t, res.IsError)
	se, ok := toolkit.ParseStructuredError(toolkit.FirstText(res))
	require.True(t, ok)
	assert.Equal(t, toolkit.ErrRateLimited, se.Error)
	assert.True(t, se.Retryable)

	_, err := cs.ListTools(context.Background(), nil)
	assert.NoError(t, err, "only tools/call is limited")
}

func TestCallLimiter_SlidingWindow(t *testing.T) {
	t.Parallel()
	now := fixedNow
	l := NewCallLimiter(2, time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, l.Allow())
}

func TestRequestTimeout(t *testing.T) {
	t.Parallel()
	assert.Equal(t, SlowTimeout, RequestTimeout("resources/read"))
	assert.Equal(t, FastTimeout, RequestTimeout("tools/call"))
	assert.Equal(t, FastTimeout, RequestTimeout("ping"))
}

func TestTimeouts_BoundToolContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	server := mcp.NewServer(&mcp.Implementation{Name: "apps-sdk-everything", Version: "test"}, nil)
	server.AddReceivingMiddleware(Timeouts())

	var remaining time.Duration
	mcp.AddTool(server, &mcp.Tool{Name: "deadline"}, func(ctx context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
		if dl, ok := ctx.Deadline(); ok {
			remaining = time.Until(dl)
		}
		return toolkit.TextResult("ok"), nil, nil
	})

	st, ct := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil).Connect(ctx, ct, nil)
	require.NoError(t, err)
	defer func() {
		_ = cs.Close()
		_ = ss.Wait()
	}()

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: "deadline", Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Greater(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, FastTimeout)
}
