package service

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"complaint-cli/internal/api"

	"gopkg.in/yaml.v3"
)

// Output formats for Export.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
	FormatMarkdown = "markdown"
)

// ParseFormat validates an --output value.
func ParseFormat(s string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown output format %q (use text, json, yaml or markdown)", s)
	}
}

// Export writes v, a complaint or a list of complaints, as JSON or YAML. The
// YAML form is derived from the JSON encoding so both carry the same keys,
// including fields the client does not model.
func Export(w io.Writer, v any, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		return nil
	case FormatYAML:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("re-decoding json: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("export does not support format %q", format)
	}
}

// ExportHistory is Export for a history list; nil is written as an empty list.
func ExportHistory(w io.Writer, list []api.Complaint, format string) error {
	if list == nil {
		list = []api.Complaint{}
	}
	return Export(w, list, format)
}
