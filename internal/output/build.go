// build.go — Converts MCP tool results into CLI results.
package output

import (
	"encoding/json"
	"strings"

	"github.com/MCPJam/apps-sdk-everything/internal/toolkit"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// BuildResult constructs a Result from an MCP tool result. Structured
// content wins over text parsed as JSON; error results carry the structured
// error message when one is present.
func BuildResult(tool string, res *mcp.CallToolResult) *Result {
	text := ExtractText(res)
	result := &Result{
		Success:     !res.IsError,
		Tool:        tool,
		TextContent: text,
	}

	if res.IsError {
		result.Error = text
		if se, ok := toolkit.ParseStructuredError(text); ok {
			result.Error = se.Message
			result.Data = map[string]any{"code": se.Error, "retry": se.Retry}
		}
		return result
	}

	if data, ok := asMap(res.StructuredContent); ok {
		result.Data = data
		return result
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err == nil {
		result.Data = data
	}
	return result
}

// ExtractText concatenates the text blocks of res.
func ExtractText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok && tc.Text != "" {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func asMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}
