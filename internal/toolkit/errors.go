// errors.go — Structured error results for MCP tools.
// Tool failures are reported as isError results carrying a self-describing
// JSON block, never as protocol errors.
package toolkit

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Error codes are self-describing snake_case strings.
const (
	// Input errors: fix the arguments and retry immediately
	ErrMissingParam = "missing_param"
	ErrInvalidParam = "invalid_param"

	// State errors: wait or change state before retrying
	ErrRateLimited       = "rate_limited"
	ErrWidgetUnavailable = "widget_unavailable"

	// Internal errors: do not retry
	ErrInternal = "internal_error"
)

// StructuredError is embedded in the text content of an error result.
type StructuredError struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	Retry        string `json:"retry"`
	Retryable    bool   `json:"retryable"`
	RetryAfterMs int    `json:"retry_after_ms,omitempty"`
	Param        string `json:"param,omitempty"`
	Hint         string `json:"hint,omitempty"`
}

// ErrorOption customizes a StructuredError.
type ErrorOption func(*StructuredError)

// StructuredErrorResult builds an isError tool result. Format:
//
//	Error: invalid_param — Use one of add, subtract, multiply, divide
//	{"error":"invalid_param","message":"...","retry":"...","param":"operation"}
func StructuredErrorResult(code, message, retry string, opts ...ErrorOption) *mcp.CallToolResult {
	se := StructuredError{Error: code, Message: message, Retry: retry}
	for _, opt := range RetryDefaultsForCode(code) {
		opt(&se)
	}
	for _, opt := range opts {
		opt(&se)
	}

	seJSON, _ := json.Marshal(se)
	text := fmt.Sprintf("Error: %s — %s\n%s", code, retry, string(seJSON))
	return ErrorResult(text)
}

// WithParam names the offending argument.
func WithParam(p string) ErrorOption {
	return func(se *StructuredError) { se.Param = p }
}

// WithHint adds a free-form hint.
func WithHint(h string) ErrorOption {
	return func(se *StructuredError) { se.Hint = h }
}

// WithRetryable overrides the code's retryable default.
func WithRetryable(retryable bool) ErrorOption {
	return func(se *StructuredError) { se.Retryable = retryable }
}

// WithRetryAfterMs sets the suggested delay before retrying.
func WithRetryAfterMs(ms int) ErrorOption {
	return func(se *StructuredError) { se.RetryAfterMs = ms }
}

// RetryDefaultsForCode returns the retryable defaults for code. Transient
// conditions are retryable after a delay; input errors are not.
func RetryDefaultsForCode(code string) []ErrorOption {
	switch code {
	case ErrRateLimited:
		return []ErrorOption{WithRetryable(true), WithRetryAfterMs(1000)}
	case ErrWidgetUnavailable:
		return []ErrorOption{WithRetryable(true), WithRetryAfterMs(2000)}
	default:
		return []ErrorOption{WithRetryable(false)}
	}
}

// ParseStructuredError extracts the JSON block from an error result's text.
func ParseStructuredError(text string) (StructuredError, bool) {
	var se StructuredError
	for i := 0; i < len(text); i++ {
		if text[i] != '\n' {
			continue
		}
		if err := json.Unmarshal([]byte(text[i+1:]), &se); err != nil {
			return StructuredError{}, false
		}
		return se, se.Error != ""
	}
	return StructuredError{}, false
}
