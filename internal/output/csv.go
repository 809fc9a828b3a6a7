// csv.go — CSV output formatter.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
)

// CSVFormatter produces CSV output.
type CSVFormatter struct{}

// Format writes a single result as CSV (header + one row).
func (f *CSVFormatter) Format(w io.Writer, result *Result) error {
	return f.FormatMultiple(w, []*Result{result})
}

// FormatMultiple writes multiple results as CSV (header + N rows). Data keys
// become sorted columns; nested values are JSON-encoded.
func (f *CSVFormatter) FormatMultiple(w io.Writer, results []*Result) error {
	if len(results) == 0 {
		return nil
	}

	keySet := make(map[string]bool)
	for _, r := range results {
		for k := range r.Data {
			keySet[k] = true
		}
	}
	dataKeys := make([]string, 0, len(keySet))
	for k := range keySet {
		dataKeys = append(dataKeys, k)
	}
	sort.Strings(dataKeys)

	header := append([]string{"success", "tool", "error"}, dataKeys...)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range results {
		row := []string{fmt.Sprintf("%t", r.Success), r.Tool, r.Error}
		for _, k := range dataKeys {
			row = append(row, cell(r.Data[k]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}
