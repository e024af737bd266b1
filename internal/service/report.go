package service

import (
	"fmt"
	"strings"

	"complaint-cli/internal/api"
)

// ComplaintMarkdown renders one analysis result as a markdown report.
func ComplaintMarkdown(c *api.Complaint) string {
	if c == nil {
		return "_No analysis result._\n"
	}
	d := FormatComplaint(c)

	var b strings.Builder
	fmt.Fprintf(&b, "# Complaint %s\n\n", d.ID)

	var meta []Field
	if d.Status != "" {
		meta = append(meta, Field{"Status", d.Status})
	}
	if d.CustomerID != "" {
		meta = append(meta, Field{"Customer", d.CustomerID})
	}
	if d.Confidence != "" {
		meta = append(meta, Field{"Confidence", d.Confidence})
	}
	writeFields(&b, meta)

	if d.Summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", d.Summary)
	}
	if len(d.Categories) > 0 {
		b.WriteString("## Categorization\n\n")
		writeBullets(&b, d.Categories)
	}
	if len(d.RegulatoryFlags) > 0 {
		b.WriteString("## Regulatory flags\n\n")
		writeBullets(&b, d.RegulatoryFlags)
	}
	if len(d.Details) > 0 {
		b.WriteString("## Extracted details\n\n")
		writeFields(&b, d.Details)
	}
	if d.HasActionPlan {
		b.WriteString("## Proposed action plan\n\n")
		if d.RequiresApproval {
			b.WriteString("> Requires human approval before any step is carried out.\n\n")
		}
		for _, s := range d.Steps {
			fmt.Fprintf(&b, "%d. %s", s.Number, s.Description)
			if s.Party != "" {
				fmt.Fprintf(&b, " _(%s)_", s.Party)
			}
			b.WriteString("\n")
			if s.Details != "" {
				fmt.Fprintf(&b, "   - %s\n", s.Details)
			}
		}
		b.WriteString("\n")
	}
	if len(d.Checklist) > 0 {
		b.WriteString("## Investigation checklist\n\n")
		for _, item := range d.Checklist {
			fmt.Fprintf(&b, "- [ ] %s\n", item)
		}
		b.WriteString("\n")
	}
	if len(d.QueryParameters) > 0 {
		b.WriteString("## Knowledge base query\n\n")
		writeFields(&b, d.QueryParameters)
	}
	return b.String()
}

// HistoryMarkdown renders the history list as a markdown table.
func HistoryMarkdown(list []api.Complaint) string {
	if len(list) == 0 {
		return "_No complaints analysed yet._\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Complaint history (%d)\n\n", len(list))
	b.WriteString("| ID | Status | Confidence | Summary |\n")
	b.WriteString("|----|--------|------------|---------|\n")
	for _, c := range list {
		r := FormatHistoryRow(c)
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			escapeCell(r.ID), escapeCell(r.Status), r.Confidence, escapeCell(r.Summary))
	}
	return b.String()
}

func writeFields(b *strings.Builder, fields []Field) {
	if len(fields) == 0 {
		return
	}
	for _, f := range fields {
		fmt.Fprintf(b, "- **%s:** %s\n", f.Label, f.Value)
	}
	b.WriteString("\n")
}

func writeBullets(b *strings.Builder, items []string) {
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
