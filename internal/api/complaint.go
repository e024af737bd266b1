package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Complaint is one analysed complaint as returned by the backend. Only
// ComplaintID is guaranteed; every other field is optional and versioned by
// the backend. Fields the client does not model are kept in Extra so exports
// round-trip what the server sent.
type Complaint struct {
	ComplaintID            string            `json:"complaint_id"`
	Status                 string            `json:"status,omitempty"`
	CustomerID             string            `json:"customer_id,omitempty"`
	Summary                string            `json:"summary,omitempty"`
	ExtractedDetails       *ExtractedDetails `json:"extracted_details,omitempty"`
	QueryParameters        map[string]any    `json:"athena_query_parameters,omitempty"`
	Categorization         StringList        `json:"categorization,omitempty"`
	RegulatoryFlags        StringList        `json:"regulatory_flag,omitempty"`
	ActionPlan             *ActionPlan       `json:"proposed_action_plan,omitempty"`
	ConfidenceScore        *float64          `json:"confidence_score,omitempty"`
	InvestigationChecklist StringList        `json:"investigation_checklist,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type ExtractedDetails struct {
	Summary                string     `json:"summary,omitempty"`
	IssueType              string     `json:"issue_type,omitempty"`
	ProductAffected        string     `json:"product_affected,omitempty"`
	AmountDisputed         string     `json:"amount_disputed,omitempty"`
	IncidentDate           string     `json:"incident_date,omitempty"`
	ContactMethodIssue     string     `json:"contact_method_issue,omitempty"`
	CustomerDesiredOutcome StringList `json:"customer_desired_outcome,omitempty"`
	AccountNumber          string     `json:"account_number,omitempty"`
	VulnerableCustomerFlag string     `json:"is_vulnerable_customer_flag,omitempty"`
	ImplicitRegulatoryRefs StringList `json:"references_fca_rule_implicitly,omitempty"`
}

type ActionPlan struct {
	RequiresHumanApproval bool         `json:"requires_human_approval"`
	Steps                 []ActionStep `json:"steps,omitempty"`
}

type ActionStep struct {
	StepNumber       int    `json:"step_number"`
	Description      string `json:"description,omitempty"`
	ResponsibleParty string `json:"responsible_party,omitempty"`
	Details          string `json:"details_from_athena,omitempty"`
}

// UnmarshalJSON decodes each key on its own. Scalars of any JSON type are
// rendered as text, so one mistyped field never drops the others.
func (d *ExtractedDetails) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("decoding extracted details: %w", err)
	}
	*d = ExtractedDetails{}
	for key, val := range fields {
		switch key {
		case "summary":
			d.Summary = textValue(val)
		case "issue_type":
			d.IssueType = textValue(val)
		case "product_affected":
			d.ProductAffected = textValue(val)
		case "amount_disputed":
			d.AmountDisputed = textValue(val)
		case "incident_date":
			d.IncidentDate = textValue(val)
		case "contact_method_issue":
			d.ContactMethodIssue = textValue(val)
		case "customer_desired_outcome":
			decodeInto(val, &d.CustomerDesiredOutcome)
		case "account_number":
			d.AccountNumber = textValue(val)
		case "is_vulnerable_customer_flag":
			d.VulnerableCustomerFlag = textValue(val)
		case "references_fca_rule_implicitly":
			decodeInto(val, &d.ImplicitRegulatoryRefs)
		}
	}
	return nil
}

// UnmarshalJSON accepts the approval flag as a bool, string or number and
// skips steps that are not objects or carry nothing.
func (p *ActionPlan) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("decoding action plan: %w", err)
	}
	*p = ActionPlan{}
	if val, ok := fields["requires_human_approval"]; ok {
		p.RequiresHumanApproval = boolValue(val)
	}
	var steps []json.RawMessage
	if val, ok := fields["steps"]; ok && json.Unmarshal(val, &steps) == nil {
		for _, raw := range steps {
			var st ActionStep
			if err := json.Unmarshal(raw, &st); err == nil && st != (ActionStep{}) {
				p.Steps = append(p.Steps, st)
			}
		}
	}
	return nil
}

// UnmarshalJSON takes step_number as a number or a numeric string; anything
// else leaves it 0 so renderers fall back to the step's position.
func (s *ActionStep) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return fmt.Errorf("decoding action step: %w", err)
	}
	*s = ActionStep{}
	for key, val := range fields {
		switch key {
		case "step_number":
			if n, err := strconv.Atoi(textValue(val)); err == nil {
				s.StepNumber = n
			}
		case "description":
			s.Description = textValue(val)
		case "responsible_party":
			s.ResponsibleParty = textValue(val)
		case "details_from_athena":
			s.Details = textValue(val)
		}
	}
	return nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// textValue renders any JSON value as display text; null becomes "".
func textValue(val json.RawMessage) string {
	var v any
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	return scalarString(v)
}

func boolValue(val json.RawMessage) bool {
	switch strings.ToLower(textValue(val)) {
	case "yes", "true", "1", "y":
		return true
	}
	return false
}

// fieldAliases maps legacy spellings to the canonical key, in priority order.
// The canonical key wins when a payload carries both.
var fieldAliases = []struct{ alias, canonical string }{
	{"categorisation", "categorization"},
	{"categories", "categorization"},
	{"regulatory_flags", "regulatory_flag"},
	{"fca_flags", "regulatory_flag"},
	{"action_plan", "proposed_action_plan"},
	{"query_parameters", "athena_query_parameters"},
}

// UnmarshalJSON normalizes legacy field names and tolerates known fields with
// an unexpected shape: such fields are kept in Extra instead of failing the
// whole record. A JSON null leaves c unchanged.
func (c *Complaint) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding complaint: %w", err)
	}
	if raw == nil {
		return nil
	}

	for _, a := range fieldAliases {
		v, ok := raw[a.alias]
		if !ok {
			continue
		}
		if _, exists := raw[a.canonical]; !exists {
			raw[a.canonical] = v
		}
		delete(raw, a.alias)
	}

	*c = Complaint{}
	extra := make(map[string]json.RawMessage)
	for key, val := range raw {
		if !c.decodeField(key, val) {
			extra[key] = val
		}
	}
	if len(extra) > 0 {
		c.Extra = extra
	}
	return nil
}

// decodeField sets one known field. It reports false for unknown keys and for
// known keys whose value has an unexpected shape.
func (c *Complaint) decodeField(key string, val json.RawMessage) bool {
	switch key {
	case "complaint_id":
		id, err := decodeID(val)
		if err != nil {
			return false
		}
		c.ComplaintID = id
	case "customer_id":
		id, err := decodeID(val)
		if err != nil {
			return false
		}
		c.CustomerID = id
	case "status":
		return decodeInto(val, &c.Status)
	case "summary":
		return decodeInto(val, &c.Summary)
	case "extracted_details":
		return decodeInto(val, &c.ExtractedDetails)
	case "athena_query_parameters":
		return decodeInto(val, &c.QueryParameters)
	case "categorization":
		return decodeInto(val, &c.Categorization)
	case "regulatory_flag":
		return decodeInto(val, &c.RegulatoryFlags)
	case "proposed_action_plan":
		return decodeInto(val, &c.ActionPlan)
	case "confidence_score":
		return decodeInto(val, &c.ConfidenceScore)
	case "investigation_checklist":
		return decodeInto(val, &c.InvestigationChecklist)
	default:
		return false
	}
	return true
}

// decodeInto leaves dst untouched when val does not decode.
func decodeInto[T any](val json.RawMessage, dst *T) bool {
	var v T
	if err := json.Unmarshal(val, &v); err != nil {
		return false
	}
	*dst = v
	return true
}

// MarshalJSON emits the canonical fields followed by anything kept in Extra.
func (c Complaint) MarshalJSON() ([]byte, error) {
	type plain Complaint
	known, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	if len(c.Extra) == 0 {
		return known, nil
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, err
	}
	for k, v := range c.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// decodeID accepts a string or a number; some backends emit numeric ids.
func decodeID(val json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// StringList decodes a string, a list of scalars, or an object. Objects become
// sorted "key: value" entries so categorization maps render the same way as
// lists.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*l = nil
		return nil
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case string:
		if t == "" {
			*l = nil
		} else {
			*l = StringList{t}
		}
	case []any:
		out := make(StringList, 0, len(t))
		for _, item := range t {
			if s := scalarString(item); s != "" {
				out = append(out, s)
			}
		}
		*l = out
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(StringList, 0, len(keys))
		for _, k := range keys {
			if s := scalarString(t[k]); s != "" {
				out = append(out, k+": "+s)
			} else {
				out = append(out, k)
			}
		}
		*l = out
	default:
		s := scalarString(t)
		if s == "" {
			*l = nil
		} else {
			*l = StringList{s}
		}
	}
	return nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := scalarString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// DecodeComplaint parses a single complaint record. A JSON null yields nil
// without error so callers can distinguish "no payload" from a bad payload.
func DecodeComplaint(data []byte) (*Complaint, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var c Complaint
	if err := json.Unmarshal(trimmed, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
