// demo_tools.go — Mock tools without widgets: time, calculator, counters,
// weather and item search.
package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/MCPJam/apps-sdk-everything/internal/catalog"
	"github.com/MCPJam/apps-sdk-everything/internal/toolkit"
	"github.com/MCPJam/apps-sdk-everything/internal/util"
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type calculatorArgs struct {
	Operation string  `json:"operation" jsonschema:"The operation to perform: add, subtract, multiply or divide"`
	A         float64 `json:"a" jsonschema:"First number"`
	B         float64 `json:"b" jsonschema:"Second number"`
}

type counterArgs struct {
	Amount *float64 `json:"amount,omitempty" jsonschema:"Amount to increment by (default: 1)"`
}

type weatherArgs struct {
	Location string `json:"location" jsonschema:"City name or location"`
}

type searchArgs struct {
	Query string `json:"query" jsonschema:"Search query"`
	Limit *int   `json:"limit,omitempty" jsonschema:"Maximum number of results (default: 5)"`
}

type incrementArgs struct {
	Counter         float64 `json:"counter,omitempty" jsonschema:"Current counter value, 0 to 100"`
	IncrementAmount float64 `json:"incrementAmount,omitempty" jsonschema:"Amount to add, 0 to 100"`
}

// TimeOutput is the structured content of get_time.
type TimeOutput struct {
	Timestamp     string `json:"timestamp"`
	Timezone      string `json:"timezone"`
	UnixTimestamp int64  `json:"unixTimestamp"`
}

// Operands echoes the calculator inputs.
type Operands struct {
	A float64 `json:"a"`
	B float64 `json:"b"`
}

// CalculatorOutput is the structured content of calculator.
type CalculatorOutput struct {
	Operation string   `json:"operation"`
	Operands  Operands `json:"operands"`
	Result    float64  `json:"result"`
}

// CounterOutput is the structured content of counter_increment and increment.
type CounterOutput struct {
	Counter         float64 `json:"counter"`
	IncrementAmount float64 `json:"incrementAmount"`
	Timestamp       string  `json:"timestamp"`
}

// WeatherOutput is the structured content of get_weather.
type WeatherOutput struct {
	Location    string `json:"location"`
	Condition   string `json:"condition"`
	Temperature int    `json:"temperature"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"windSpeed"`
}

// Item is one row of the mock search database.
type Item struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int    `json:"price"`
}

// SearchOutput is the structured content of search_items.
type SearchOutput struct {
	Query        string `json:"query"`
	TotalResults int    `json:"totalResults"`
	Items        []Item `json:"items"`
}

var weatherConditions = []string{"sunny", "cloudy", "rainy", "snowy", "windy"}

var mockItems = []Item{
	{ID: 1, Name: "Laptop", Category: "Electronics", Price: 999},
	{ID: 2, Name: "Mouse", Category: "Electronics", Price: 29},
	{ID: 3, Name: "Keyboard", Category: "Electronics", Price: 79},
	{ID: 4, Name: "Desk Chair", Category: "Furniture", Price: 299},
	{ID: 5, Name: "Monitor", Category: "Electronics", Price: 399},
	{ID: 6, Name: "Headphones", Category: "Electronics", Price: 149},
	{ID: 7, Name: "Desk Lamp", Category: "Furniture", Price: 49},
	{ID: 8, Name: "Notebook", Category: "Stationery", Price: 5},
}

const (
	defaultSearchLimit = 5
	maxIncrement       = 100
)

var calculatorOperations = []any{"add", "subtract", "multiply", "divide"}

// calculatorSchema advertises the operation enum so clients reject unknown
// operations before calling.
func calculatorSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"operation": {
				Type:        "string",
				Description: "The operation to perform",
				Enum:        calculatorOperations,
			},
			"a": {Type: "number", Description: "First number"},
			"b": {Type: "number", Description: "Second number"},
		},
		Required: []string{"operation", "a", "b"},
	}
}

func incrementSchema() *jsonschema.Schema {
	lo, hi := 0.0, float64(maxIncrement)
	bounded := func(desc string) *jsonschema.Schema {
		return &jsonschema.Schema{
			Type:        "number",
			Description: desc,
			Minimum:     &lo,
			Maximum:     &hi,
		}
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"counter":         bounded("Current counter value"),
			"incrementAmount": bounded("Amount to add"),
		},
	}
}

func (r *Registry) addDemoTools(s *mcp.Server) {
	for _, t := range catalog.Tools() {
		tool := &mcp.Tool{
			Name:        t.Name,
			Title:       t.Title,
			Description: t.Description,
			Meta:        t.Meta.Meta(),
		}
		switch t.Name {
		case catalog.ToolGetTime:
			mcp.AddTool(s, tool, r.getTime)
		case catalog.ToolCalculator:
			tool.InputSchema = calculatorSchema()
			mcp.AddTool(s, tool, r.calculator)
		case catalog.ToolCounterIncrement:
			mcp.AddTool(s, tool, r.counterIncrement)
		case catalog.ToolGetWeather:
			mcp.AddTool(s, tool, r.getWeather)
		case catalog.ToolSearchItems:
			mcp.AddTool(s, tool, r.searchItems)
		case catalog.ToolIncrement:
			tool.InputSchema = incrementSchema()
			meta := tool.Meta
			mcp.AddTool(s, tool, func(ctx context.Context, req *mcp.CallToolRequest, args incrementArgs) (*mcp.CallToolResult, any, error) {
				res, out, err := r.increment(ctx, req, args)
				if res != nil && !res.IsError {
					toolkit.WithMeta(res, meta)
				}
				return res, out, err
			})
		}
	}
}

func (r *Registry) getTime(_ context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	now := r.now()
	ts := util.FormatISO(now)
	return toolkit.TextResult("Current time: " + ts), TimeOutput{
		Timestamp:     ts,
		Timezone:      util.ZoneName(now),
		UnixTimestamp: now.UnixMilli(),
	}, nil
}

func (r *Registry) calculator(_ context.Context, _ *mcp.CallToolRequest, args calculatorArgs) (*mcp.CallToolResult, any, error) {
	var result float64
	switch args.Operation {
	case "add":
		result = args.A + args.B
	case "subtract":
		result = args.A - args.B
	case "multiply":
		result = args.A * args.B
	case "divide":
		if args.B == 0 {
			return toolkit.ErrorResult("Error: Division by zero"), nil, nil
		}
		result = args.A / args.B
	default:
		return toolkit.StructuredErrorResult(toolkit.ErrInvalidParam,
			fmt.Sprintf("unknown operation %q", args.Operation),
			"Use one of add, subtract, multiply, divide",
			toolkit.WithParam("operation")), nil, nil
	}

	text := fmt.Sprintf("%s %s %s = %s", num(args.A), args.Operation, num(args.B), num(result))
	return toolkit.TextResult(text), CalculatorOutput{
		Operation: args.Operation,
		Operands:  Operands{A: args.A, B: args.B},
		Result:    result,
	}, nil
}

func (r *Registry) counterIncrement(_ context.Context, _ *mcp.CallToolRequest, args counterArgs) (*mcp.CallToolResult, any, error) {
	amount := 1.0
	if args.Amount != nil {
		amount = *args.Amount
	}

	r.mu.Lock()
	r.counter += amount
	counter := r.counter
	r.mu.Unlock()

	text := fmt.Sprintf("Counter incremented by %s. New value: %s", num(amount), num(counter))
	return toolkit.TextResult(text), CounterOutput{
		Counter:         counter,
		IncrementAmount: amount,
		Timestamp:       util.FormatISO(r.now()),
	}, nil
}

func (r *Registry) getWeather(_ context.Context, _ *mcp.CallToolRequest, args weatherArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Location) == "" {
		return toolkit.StructuredErrorResult(toolkit.ErrMissingParam, "location is empty",
			"Add the 'location' parameter and call again", toolkit.WithParam("location")), nil, nil
	}

	out := WeatherOutput{
		Location:    args.Location,
		Condition:   weatherConditions[r.rng.IntN(len(weatherConditions))],
		Temperature: r.rng.IntN(40) - 5,
		Humidity:    r.rng.IntN(100),
		WindSpeed:   r.rng.IntN(50),
	}
	res := toolkit.TextResult(fmt.Sprintf("Weather in %s: %s, %d°C", out.Location, out.Condition, out.Temperature))
	res.Meta = mcp.Meta{
		"custom/dataSource": "mock-weather-api",
		"custom/cached":     false,
		"custom/timestamp":  util.FormatISO(r.now()),
	}
	return res, out, nil
}

func (r *Registry) searchItems(_ context.Context, _ *mcp.CallToolRequest, args searchArgs) (*mcp.CallToolResult, any, error) {
	limit := defaultSearchLimit
	if args.Limit != nil {
		limit = *args.Limit
	}
	if limit < 0 {
		return toolkit.StructuredErrorResult(toolkit.ErrInvalidParam,
			fmt.Sprintf("limit must not be negative, got %d", limit),
			"Pass a limit of 0 or more, or omit it for 5",
			toolkit.WithParam("limit")), nil, nil
	}

	q := strings.ToLower(args.Query)
	items := make([]Item, 0, limit)
	for _, item := range mockItems {
		if len(items) == limit {
			break
		}
		if strings.Contains(strings.ToLower(item.Name), q) || strings.Contains(strings.ToLower(item.Category), q) {
			items = append(items, item)
		}
	}

	text := fmt.Sprintf("Found %d items matching %q", len(items), args.Query)
	return toolkit.TextResult(text), SearchOutput{
		Query:        args.Query,
		TotalResults: len(items),
		Items:        items,
	}, nil
}

func (r *Registry) increment(_ context.Context, _ *mcp.CallToolRequest, args incrementArgs) (*mcp.CallToolResult, any, error) {
	for _, p := range []struct {
		name string
		v    float64
	}{{"counter", args.Counter}, {"incrementAmount", args.IncrementAmount}} {
		if p.v < 0 || p.v > maxIncrement {
			return toolkit.StructuredErrorResult(toolkit.ErrInvalidParam,
				fmt.Sprintf("%s must be between 0 and %d, got %s", p.name, maxIncrement, num(p.v)),
				fmt.Sprintf("Pass a %s from 0 to %d", p.name, maxIncrement),
				toolkit.WithParam(p.name)), nil, nil
		}
	}

	amount := args.Counter + args.IncrementAmount
	text := fmt.Sprintf("Counter incremented by %s. New value: %s", num(args.IncrementAmount), num(amount))
	return toolkit.TextResult(text), CounterOutput{
		Counter:         amount,
		IncrementAmount: args.IncrementAmount,
		Timestamp:       util.FormatISO(r.now()),
	}, nil
}

// num formats f the way JavaScript prints numbers.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
