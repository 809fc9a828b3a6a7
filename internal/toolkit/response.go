// response.go — Tool result builders.
package toolkit

import "github.com/modelcontextprotocol/go-sdk/mcp"

// TextResult returns a result with a single text block.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// ErrorResult returns an isError result with a single text block.
func ErrorResult(text string) *mcp.CallToolResult {
	res := TextResult(text)
	res.IsError = true
	return res
}

// WithMeta sets _meta on res and returns it.
func WithMeta(res *mcp.CallToolResult, meta mcp.Meta) *mcp.CallToolResult {
	if len(meta) > 0 {
		res.Meta = meta
	}
	return res
}

// FirstText returns the text of the first text block in res.
func FirstText(res *mcp.CallToolResult) string {
	if res == nil {
		return ""
	}
	for _, c := range res.Content {
		if tc, ok := c.(*mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
