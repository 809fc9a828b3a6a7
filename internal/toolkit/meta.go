// meta.go — openai/* _meta keys for tools, widget resources and results.
package toolkit

import "github.com/modelcontextprotocol/go-sdk/mcp"

// MIMETypeSkybridge marks an HTML resource as a renderable widget.
const MIMETypeSkybridge = "text/html+skybridge"

// Tool descriptor keys.
const (
	MetaOutputTemplate         = "openai/outputTemplate"
	MetaInvoking               = "openai/toolInvocation/invoking"
	MetaInvoked                = "openai/toolInvocation/invoked"
	MetaWidgetAccessible       = "openai/widgetAccessible"
	MetaResultCanProduceWidget = "openai/resultCanProduceWidget"
)

// Widget resource keys.
const (
	MetaWidgetDescription   = "openai/widgetDescription"
	MetaWidgetPrefersBorder = "openai/widgetPrefersBorder"
	MetaWidgetCSP           = "openai/widgetCSP"
	MetaWidgetDomain        = "openai/widgetDomain"
)

// CSP lists the origins a widget may reach.
type CSP struct {
	ConnectDomains  []string `json:"connect_domains,omitempty" yaml:"connect_domains"`
	ResourceDomains []string `json:"resource_domains,omitempty" yaml:"resource_domains"`
}

// Map renders the CSP as a _meta value.
func (c CSP) Map() map[string]any {
	out := map[string]any{}
	if len(c.ConnectDomains) > 0 {
		out["connect_domains"] = append([]string(nil), c.ConnectDomains...)
	}
	if len(c.ResourceDomains) > 0 {
		out["resource_domains"] = append([]string(nil), c.ResourceDomains...)
	}
	return out
}

// ToolMeta describes the openai/* flags of a tool descriptor.
type ToolMeta struct {
	OutputTemplate         string
	Invoking               string
	Invoked                string
	WidgetAccessible       *bool
	ResultCanProduceWidget *bool
}

// Meta returns the populated keys only. A nil ToolMeta yields nil.
func (m *ToolMeta) Meta() mcp.Meta {
	if m == nil {
		return nil
	}
	out := mcp.Meta{}
	if m.OutputTemplate != "" {
		out[MetaOutputTemplate] = m.OutputTemplate
	}
	if m.Invoking != "" {
		out[MetaInvoking] = m.Invoking
	}
	if m.Invoked != "" {
		out[MetaInvoked] = m.Invoked
	}
	if m.WidgetAccessible != nil {
		out[MetaWidgetAccessible] = *m.WidgetAccessible
	}
	if m.ResultCanProduceWidget != nil {
		out[MetaResultCanProduceWidget] = *m.ResultCanProduceWidget
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ResourceMeta describes the openai/* flags of a widget resource.
type ResourceMeta struct {
	Description   string
	PrefersBorder bool
	CSP           *CSP
	Domain        string
}

// Descriptor returns the _meta advertised in resources/list. The widget
// domain is only sent with the contents.
func (m ResourceMeta) Descriptor() mcp.Meta {
	out := mcp.Meta{MetaWidgetPrefersBorder: m.PrefersBorder}
	if m.Description != "" {
		out[MetaWidgetDescription] = m.Description
	}
	if m.CSP != nil {
		out[MetaWidgetCSP] = m.CSP.Map()
	}
	return out
}

// Contents returns the _meta attached to resources/read contents.
func (m ResourceMeta) Contents() mcp.Meta {
	out := mcp.Meta{MetaWidgetPrefersBorder: m.PrefersBorder}
	if m.Description != "" {
		out[MetaWidgetDescription] = m.Description
	}
	if m.Domain != "" {
		out[MetaWidgetDomain] = m.Domain
	}
	return out
}

// Bool returns a pointer to b for ToolMeta fields.
func Bool(b bool) *bool { return &b }
