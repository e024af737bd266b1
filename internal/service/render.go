package service

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Markdown styles accepted by RenderMarkdown.
const (
	StyleAuto  = "auto"
	StyleDark  = "dark"
	StyleLight = "light"
	StylePlain = "notty"
)

// RenderMarkdown renders md for a terminal of the given width. Style "auto"
// picks dark or light from the terminal background; "notty" emits plain text
// without escape sequences.
func RenderMarkdown(md string, width int, style string) (string, error) {
	if width <= 0 {
		width = 80
	}
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch style {
	case "", StyleAuto:
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("creating markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
