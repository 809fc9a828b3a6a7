// human.go — Human-readable output formatter.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// HumanFormatter produces human-readable output.
type HumanFormatter struct{}

// Format writes a human-readable representation of the result.
func (h *HumanFormatter) Format(w io.Writer, result *Result) error {
	var sb strings.Builder

	if result.Success {
		fmt.Fprintf(&sb, "[OK] %s\n", result.Tool)
	} else {
		fmt.Fprintf(&sb, "[Error] %s\n", result.Tool)
		if result.Error != "" {
			fmt.Fprintf(&sb, "   Error: %s\n", result.Error)
		}
	}

	if result.TextContent != "" && result.Success {
		sb.WriteString("\n")
		sb.WriteString(result.TextContent)
		if !strings.HasSuffix(result.TextContent, "\n") {
			sb.WriteString("\n")
		}
	}

	if len(result.Data) > 0 {
		keys := make([]string, 0, len(result.Data))
		for k := range result.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "   %s: %v\n", k, result.Data[k])
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
