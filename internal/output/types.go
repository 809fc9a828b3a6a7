// types.go — Shared types for CLI output formatting.
package output

import "io"

// Result represents the outcome of one CLI tool call.
type Result struct {
	Success     bool           `json:"success"`
	Tool        string         `json:"tool"`
	Data        map[string]any `json:"data,omitempty"`
	Error       string         `json:"error,omitempty"`
	TextContent string         `json:"-"` // Raw text from the MCP response
}

// Formatter is the interface for all output formatters.
type Formatter interface {
	Format(w io.Writer, result *Result) error
}

// Format names accepted by GetFormatter.
const (
	FormatHuman = "human"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// GetFormatter returns the formatter for format, falling back to human.
func GetFormatter(format string) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &HumanFormatter{}
	}
}

// ValidFormat reports whether format is one GetFormatter knows.
func ValidFormat(format string) bool {
	switch format {
	case FormatHuman, FormatJSON, FormatCSV:
		return true
	}
	return false
}
