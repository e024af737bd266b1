package service

import (
	"fmt"
	"sort"
	"strings"

	"complaint-cli/internal/api"
)

// ComplaintDisplay holds display-ready analysis result fields. Empty strings
// and nil slices mean the backend did not send the field.
type ComplaintDisplay struct {
	ID               string
	Status           string
	CustomerID       string
	Summary          string
	Confidence       string
	Categories       []string
	RegulatoryFlags  []string
	Details          []Field
	QueryParameters  []Field
	Steps            []StepDisplay
	RequiresApproval bool
	HasActionPlan    bool
	Checklist        []string
}

// Field is a labelled value.
type Field struct {
	Label string
	Value string
}

// StepDisplay is one action plan step.
type StepDisplay struct {
	Number      int
	Description string
	Party       string
	Details     string
}

// FormatComplaint maps a complaint record to display-ready fields.
func FormatComplaint(c *api.Complaint) ComplaintDisplay {
	if c == nil {
		return ComplaintDisplay{}
	}

	d := ComplaintDisplay{
		ID:              c.ComplaintID,
		Status:          c.Status,
		CustomerID:      c.CustomerID,
		Summary:         StripHTML(c.Summary),
		Confidence:      FormatConfidence(c.ConfidenceScore),
		Categories:      c.Categorization,
		RegulatoryFlags: c.RegulatoryFlags,
		Checklist:       c.InvestigationChecklist,
		QueryParameters: sortedFields(c.QueryParameters),
	}
	if d.ID == "" {
		d.ID = "(unassigned)"
	}

	if x := c.ExtractedDetails; x != nil {
		d.Details = nonEmpty(
			Field{"Issue", x.IssueType},
			Field{"Product", x.ProductAffected},
			Field{"Amount disputed", x.AmountDisputed},
			Field{"Incident date", x.IncidentDate},
			Field{"Contact issue", x.ContactMethodIssue},
			Field{"Account", x.AccountNumber},
			Field{"Vulnerable customer", x.VulnerableCustomerFlag},
			Field{"Desired outcome", strings.Join(x.CustomerDesiredOutcome, ", ")},
			Field{"FCA references", strings.Join(x.ImplicitRegulatoryRefs, ", ")},
		)
	}

	if p := c.ActionPlan; p != nil {
		d.HasActionPlan = true
		d.RequiresApproval = p.RequiresHumanApproval
		for i, s := range p.Steps {
			n := s.StepNumber
			if n == 0 {
				n = i + 1
			}
			d.Steps = append(d.Steps, StepDisplay{
				Number:      n,
				Description: StripHTML(s.Description),
				Party:       s.ResponsibleParty,
				Details:     StripHTML(s.Details),
			})
		}
	}
	return d
}

// FormatConfidence renders a 0..1 score as a whole percentage. Scores above
// 1 are assumed to already be percentages.
func FormatConfidence(score *float64) string {
	if score == nil {
		return ""
	}
	v := *score
	if v <= 1 {
		v *= 100
	}
	return fmt.Sprintf("%.0f%%", v)
}

// HistoryRow is one line of the history list.
type HistoryRow struct {
	ID         string
	Status     string
	Summary    string
	Confidence string
	Categories string
}

// FormatHistoryRow maps a complaint to a compact list row.
func FormatHistoryRow(c api.Complaint) HistoryRow {
	summary := strings.Join(strings.Fields(StripHTML(c.Summary)), " ")
	if summary == "" {
		summary = "(no summary)"
	}
	id := c.ComplaintID
	if id == "" {
		id = "(unassigned)"
	}
	return HistoryRow{
		ID:         id,
		Status:     c.Status,
		Summary:    Truncate(summary, 72),
		Confidence: FormatConfidence(c.ConfidenceScore),
		Categories: strings.Join(c.Categorization, ", "),
	}
}

// Truncate shortens s to at most n runes, ending in an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}

func sortedFields(m map[string]any) []Field {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, Field{Label: k, Value: fmt.Sprint(m[k])})
	}
	return fields
}

func nonEmpty(fields ...Field) []Field {
	var out []Field
	for _, f := range fields {
		if strings.TrimSpace(f.Value) != "" {
			out = append(out, f)
		}
	}
	return out
}
