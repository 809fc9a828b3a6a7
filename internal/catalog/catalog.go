// catalog.go — Tool and widget resource catalog.
// Pure data: every descriptor the server registers, with zero runtime dependencies.
package catalog

import "github.com/MCPJam/apps-sdk-everything/internal/toolkit"

// Widget is a tool whose result renders an HTML widget resource.
type Widget struct {
	// ID is the tool name.
	ID              string
	Title           string
	ToolDescription string

	TemplateURI  string
	ResourceName string
	// Page names the embedded template; Path is the page's route on a
	// remote deployment.
	Page string
	Path string

	Invoking string
	Invoked  string

	// Description is the resource description. WidgetDescription, when set,
	// replaces it in openai/widgetDescription.
	Description       string
	WidgetDescription string
	Domain            string
	PrefersBorder     bool
	CSP               *toolkit.CSP

	WidgetAccessible       *bool
	ResultCanProduceWidget *bool
	// NameArg marks widgets whose tool takes the user's name.
	NameArg bool
}

// ToolMeta returns the tool descriptor _meta.
func (w Widget) ToolMeta() *toolkit.ToolMeta {
	return &toolkit.ToolMeta{
		OutputTemplate:         w.TemplateURI,
		Invoking:               w.Invoking,
		Invoked:                w.Invoked,
		WidgetAccessible:       w.WidgetAccessible,
		ResultCanProduceWidget: w.ResultCanProduceWidget,
	}
}

// ResourceMeta returns the widget resource _meta.
func (w Widget) ResourceMeta() toolkit.ResourceMeta {
	desc := w.WidgetDescription
	if desc == "" {
		desc = w.Description
	}
	return toolkit.ResourceMeta{
		Description:   desc,
		PrefersBorder: w.PrefersBorder,
		CSP:           w.CSP,
		Domain:        w.Domain,
	}
}

const docsDomain = "https://nextjs.org/docs"

// Widgets returns every widget tool in registration order.
func Widgets() []Widget {
	return []Widget{
		{
			ID:                     "show_apps_sdk_dashboard",
			Title:                  "Show Apps SDK Dashboard",
			ToolDescription:        "Fetch and display the homepage content with the name of the user",
			TemplateURI:            "ui://widget/content-template.html",
			ResourceName:           "content-widget",
			Page:                   "dashboard",
			Path:                   "/",
			Invoking:               "Loading content...",
			Invoked:                "Content loaded",
			Description:            "Displays the Apps SDK Dashboard",
			Domain:                 docsDomain,
			PrefersBorder:          true,
			WidgetAccessible:       toolkit.Bool(false),
			ResultCanProduceWidget: toolkit.Bool(true),
			NameArg:                true,
		},
		{
			ID:                     "show_widget_meta_demo",
			Title:                  "Widget _meta Fields Demo",
			ToolDescription:        "Display an educational widget about component resource _meta fields and their usage",
			TemplateURI:            "ui://widget/meta-demo.html",
			ResourceName:           "widget-meta-demo",
			Page:                   "meta-demo",
			Path:                   "/widget-meta-demo",
			Invoking:               "Loading _meta fields demo...",
			Invoked:                "_meta fields demo loaded",
			Description:            "Educational widget demonstrating component resource _meta field configurations",
			WidgetDescription:      "Interactive documentation showing how to use _meta fields like widgetDescription, widgetPrefersBorder, widgetCSP, and widgetDomain to control widget behavior in ChatGPT",
			Domain:                 docsDomain,
			PrefersBorder:          true,
			CSP:                    &toolkit.CSP{ConnectDomains: []string{"api.github.com"}, ResourceDomains: []string{"fonts.googleapis.com"}},
			WidgetAccessible:       toolkit.Bool(false),
			ResultCanProduceWidget: toolkit.Bool(true),
		},
		pageWidget("display-mode-widget", "Display Mode Widget",
			"Shows how to use window.openai.requestDisplayMode() to change the display mode",
			"display-mode", "/widgets/display-mode", "Requesting display mode...", "Display mode requested"),
		pageWidget("open-external-widget", "Open External Widget",
			"Shows how to use window.openai.openExternal() to open external links",
			"open-external", "/widgets/open-external", "Opening external link...", "External link opened"),
		pageWidget("popover-widget", "Popover Widget",
			"Sample widget with a popover component for testing",
			"popover", "/widgets/popover", "Opening popover widget...", "Popover widget opened"),
		pageWidget("read-only-widget", "Read-Only Widget",
			"A simple read-only widget displaying time data",
			"read-only", "/widgets/read-only", "Loading time data...", "Time data loaded"),
		pageWidget("send-message-widget", "Send Message Widget",
			"Shows how to use window.openai.sendFollowUpMessage() to add messages to the conversation",
			"send-message", "/widgets/send-message", "Sending message...", "Message sent"),
		pageWidget("show-widget-description-demo", "Widget Description Demo",
			"Demonstrates the openai/widgetDescription _meta field",
			"widget-description-demo", "/widget-description-demo", "Loading description demo...", "Description demo loaded"),
		pageWidget("widget-accessible-tool", "Widget Accessible Tool",
			"A widget-accessible tool that increments a counter. Can be called directly from the widget using window.openai.callTool()",
			"widget-accessible", "/widgets/widget-accessible", "Calling tool from widget...", "Tool call completed"),
	}
}

func pageWidget(id, title, desc, page, path, invoking, invoked string) Widget {
	return Widget{
		ID:              id,
		Title:           title,
		ToolDescription: desc,
		TemplateURI:     "ui://widget/" + page + ".html",
		ResourceName:    page,
		Page:            page,
		Path:            path,
		Invoking:        invoking,
		Invoked:         invoked,
		Description:     desc,
	}
}

// Tool is a plain tool descriptor.
type Tool struct {
	Name        string
	Title       string
	Description string
	Meta        *toolkit.ToolMeta
}

// Tool names that are not widgets.
const (
	ToolGetTime          = "get_time"
	ToolCalculator       = "calculator"
	ToolCounterIncrement = "counter_increment"
	ToolGetWeather       = "get_weather"
	ToolSearchItems      = "search_items"
	ToolIncrement        = "increment"
)

// Tools returns the non-widget tools in registration order.
func Tools() []Tool {
	return []Tool{
		{
			Name:        ToolGetTime,
			Title:       "Get Current Time",
			Description: "Returns the current server time in ISO format",
		},
		{
			Name:        ToolCalculator,
			Title:       "Calculator",
			Description: "Performs basic mathematical calculations",
		},
		{
			Name:        ToolCounterIncrement,
			Title:       "Increment Counter",
			Description: "Increments a server-side counter (widget accessible)",
			Meta:        &toolkit.ToolMeta{WidgetAccessible: toolkit.Bool(true)},
		},
		{
			Name:        ToolGetWeather,
			Title:       "Get Weather",
			Description: "Returns mock weather data for a location",
		},
		{
			Name:        ToolSearchItems,
			Title:       "Search Items",
			Description: "Search through a mock database of items",
		},
		{
			Name:        ToolIncrement,
			Title:       "Increment",
			Description: "Increments a counter. Can be called directly from the widget using window.openai.callTool()",
			Meta: &toolkit.ToolMeta{
				Invoking:               "Calling tool from widget...",
				Invoked:                "Tool call completed",
				WidgetAccessible:       toolkit.Bool(true),
				ResultCanProduceWidget: toolkit.Bool(true),
			},
		},
	}
}

// Lookup finds a widget by tool name.
func Lookup(id string) (Widget, bool) {
	for _, w := range Widgets() {
		if w.ID == id {
			return w, true
		}
	}
	return Widget{}, false
}

// LookupURI finds a widget by its template URI.
func LookupURI(uri string) (Widget, bool) {
	for _, w := range Widgets() {
		if w.TemplateURI == uri {
			return w, true
		}
	}
	return Widget{}, false
}

// Page is a browsable demo page. Pages backing a widget tool carry its ID.
type Page struct {
	Name        string
	Title       string
	Description string
	Path        string
	WidgetID    string
}

// Pages returns every demo page: one per widget plus the standalone
// playground pages.
func Pages() []Page {
	widgets := Widgets()
	pages := make([]Page, 0, len(widgets)+3)
	for _, w := range widgets {
		pages = append(pages, Page{
			Name:        w.Page,
			Title:       w.Title,
			Description: w.Description,
			Path:        w.Path,
			WidgetID:    w.ID,
		})
	}
	pages = append(pages,
		Page{
			Name:        "events-monitor",
			Title:       "Events Monitor",
			Description: "Live log of openai:set_globals events",
			Path:        "/events-monitor",
		},
		Page{
			Name:        "methods-playground",
			Title:       "Methods Playground",
			Description: "Call every window.openai method and inspect the result",
			Path:        "/methods-playground",
		},
		Page{
			Name:        "state-demo",
			Title:       "Widget State Demo",
			Description: "Persist widget state through setWidgetState and watch it round-trip",
			Path:        "/state-demo",
		},
	)
	return pages
}

// LookupPage finds a page by name.
func LookupPage(name string) (Page, bool) {
	for _, p := range Pages() {
		if p.Name == name {
			return p, true
		}
	}
	return Page{}, false
}
