// widget_tools.go — Tools whose results render a widget resource.
package tools

import (
	"context"
	"fmt"

	"github.com/MCPJam/apps-sdk-everything/internal/catalog"
	"github.com/MCPJam/apps-sdk-everything/internal/toolkit"
	"github.com/MCPJam/apps-sdk-everything/internal/util"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type dashboardArgs struct {
	Name string `json:"name" jsonschema:"The name of the user to display on the homepage"`
}

type noArgs struct{}

// DashboardOutput is the structured content of show_apps_sdk_dashboard.
type DashboardOutput struct {
	Name      string `json:"name"`
	Timestamp string `json:"timestamp"`
}

// ReadOnlyOutput is the structured content of read-only-widget.
type ReadOnlyOutput struct {
	Timestamp     string `json:"timestamp"`
	Timezone      string `json:"timezone"`
	UnixTimestamp int64  `json:"unixTimestamp"`
}

func (r *Registry) addWidgetTool(s *mcp.Server, w catalog.Widget) {
	meta := w.ToolMeta().Meta()
	tool := &mcp.Tool{
		Name:        w.ID,
		Title:       w.Title,
		Description: w.ToolDescription,
		Meta:        meta,
	}

	if w.NameArg {
		mcp.AddTool(s, tool, func(_ context.Context, _ *mcp.CallToolRequest, args dashboardArgs) (*mcp.CallToolResult, any, error) {
			out := DashboardOutput{Name: args.Name, Timestamp: util.FormatISO(r.now())}
			return toolkit.WithMeta(toolkit.TextResult(args.Name), meta), out, nil
		})
		return
	}

	mcp.AddTool(s, tool, func(_ context.Context, _ *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
		res := toolkit.WithMeta(toolkit.TextResult(widgetText(w)), meta)
		if w.Page == "read-only" {
			now := r.now()
			return res, ReadOnlyOutput{
				Timestamp:     util.FormatISO(now),
				Timezone:      util.ZoneName(now),
				UnixTimestamp: now.UnixMilli(),
			}, nil
		}
		return res, nil, nil
	})
}

func widgetText(w catalog.Widget) string {
	if w.ID == "show_widget_meta_demo" {
		return "Widget _meta fields demo loaded. This widget demonstrates the different _meta configurations available for ChatGPT components."
	}
	return fmt.Sprintf("%s: %s", w.Invoked, w.Title)
}
