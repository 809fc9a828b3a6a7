// catalog_test.go — Catalog invariants.
package catalog

import (
	"strings"
	"testing"

	"github.com/MCPJam/apps-sdk-everything/internal/toolkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesAreUnique(t *testing.T) {
	t.Parallel()
	seen := map[string]bool{}
	for _, w := range Widgets() {
		assert.False(t, seen[w.ID], "duplicate tool %s", w.ID)
		seen[w.ID] = true
	}
	for _, tool := range Tools() {
		assert.False(t, seen[tool.Name], "duplicate tool %s", tool.Name)
		seen[tool.Name] = true
	}
	assert.Len(t, seen, 15)

	uris := map[string]bool{}
	pages := map[string]bool{}
	for _, w := range Widgets() {
		assert.False(t, uris[w.TemplateURI], "duplicate uri %s", w.TemplateURI)
		uris[w.TemplateURI] = true
		assert.False(t, pages[w.Page], "duplicate page %s", w.Page)
		pages[w.Page] = true
	}
}

func TestWidgets_AreComplete(t *testing.T) {
	t.Parallel()
	for _, w := range Widgets() {
		t.Run(w.ID, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(w.TemplateURI, "ui://widget/"))
			assert.True(t, strings.HasSuffix(w.TemplateURI, ".html"))
			assert.NotEmpty(t, w.Title)
			assert.NotEmpty(t, w.ToolDescription)
			assert.NotEmpty(t, w.Invoking)
			assert.NotEmpty(t, w.Invoked)
			assert.True(t, strings.HasPrefix(w.Path, "/"))

			meta := w.ToolMeta().Meta()
			assert.Equal(t, w.TemplateURI, meta[toolkit.MetaOutputTemplate])
			assert.Equal(t, w.Invoking, meta[toolkit.MetaInvoking])
		})
	}
}

func TestDashboardWidget(t *testing.T) {
	t.Parallel()
	w, ok := Lookup("show_apps_sdk_dashboard")
	require.True(t, ok)
	assert.True(t, w.NameArg)

	meta := w.ToolMeta().Meta()
	assert.Equal(t, false, meta[toolkit.MetaWidgetAccessible])
	assert.Equal(t, true, meta[toolkit.MetaResultCanProduceWidget])

	contents := w.ResourceMeta().Contents()
	assert.Equal(t, "https://nextjs.org/docs", contents[toolkit.MetaWidgetDomain])
	assert.Equal(t, "Displays the Apps SDK Dashboard", contents[toolkit.MetaWidgetDescription])
}

func TestMetaDemoWidget_DeclaresCSP(t *testing.T) {
	t.Parallel()
	w, ok := LookupURI("ui://widget/meta-demo.html")
	require.True(t, ok)
	require.NotNil(t, w.CSP)
	assert.Equal(t, []string{"api.github.com"}, w.CSP.ConnectDomains)
	assert.Equal(t, []string{"fonts.googleapis.com"}, w.CSP.ResourceDomains)
	assert.Contains(t, w.ResourceMeta().Description, "widgetCSP")
}

func TestIncrementTool_Meta(t *testing.T) {
	t.Parallel()
	var inc Tool
	for _, tool := range Tools() {
		if tool.Name == ToolIncrement {
			inc = tool
		}
	}
	meta := inc.Meta.Meta()
	assert.Equal(t, true, meta[toolkit.MetaWidgetAccessible])
	assert.Equal(t, true, meta[toolkit.MetaResultCanProduceWidget])
	assert.Equal(t, "Calling tool from widget...", meta[toolkit.MetaInvoking])
	assert.NotContains(t, meta, toolkit.MetaOutputTemplate)
}

func TestPages(t *testing.T) {
	t.Parallel()
	pages := Pages()
	assert.Len(t, pages, len(Widgets())+3)

	p, ok := LookupPage("events-monitor")
	require.True(t, ok)
	assert.Empty(t, p.WidgetID)

	p, ok = LookupPage("display-mode")
	require.True(t, ok)
	assert.Equal(t, "display-mode-widget", p.WidgetID)

	_, ok = LookupPage("nope")
	assert.False(t, ok)
}
