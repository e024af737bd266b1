package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"complaint-cli/internal/api"

	"gopkg.in/yaml.v3"
)

func TestComplaintMarkdown(t *testing.T) {
	md := ComplaintMarkdown(sampleComplaint())

	for _, want := range []string{
		"# Complaint AUTO_GEN_COMPLAINT_001",
		"- **Status:** Awaiting Review",
		"- **Confidence:** 95%",
		"## Summary\n\nUnauthorised £500 payment",
		"## Regulatory flags\n\n- PSR",
		"> Requires human approval",
		"1. Acknowledge complaint _(Complaint Handler)_",
		"   - DISP 1.4.1 R",
		"2. Refund customer\n",
		"- [ ] Check transaction logs",
		"- **question:** fraud protocol",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q\n---\n%s", want, md)
		}
	}
}

func TestComplaintMarkdownSparse(t *testing.T) {
	md := ComplaintMarkdown(&api.Complaint{ComplaintID: "c1"})
	if strings.Contains(md, "##") {
		t.Errorf("sparse complaint should have no sections:\n%s", md)
	}
	if got := ComplaintMarkdown(nil); !strings.Contains(got, "No analysis result") {
		t.Errorf("ComplaintMarkdown(nil) = %q", got)
	}
}

func TestHistoryMarkdown(t *testing.T) {
	md := HistoryMarkdown([]api.Complaint{
		{ComplaintID: "a", Status: "Open", Summary: "pipe | inside"},
		{ComplaintID: "b"},
	})
	if !strings.Contains(md, "(2)") {
		t.Errorf("missing count:\n%s", md)
	}
	if !strings.Contains(md, `pipe \| inside`) {
		t.Errorf("pipe not escaped:\n%s", md)
	}
	if got := HistoryMarkdown(nil); !strings.Contains(got, "No complaints") {
		t.Errorf("HistoryMarkdown(nil) = %q", got)
	}
}

func TestRenderMarkdownPlain(t *testing.T) {
	out, err := RenderMarkdown(ComplaintMarkdown(sampleComplaint()), 100, StylePlain)
	if err != nil {
		t.Fatalf("RenderMarkdown() error = %v", err)
	}
	if !strings.Contains(out, "AUTO_GEN_COMPLAINT_001") {
		t.Errorf("rendered output missing id:\n%s", out)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", FormatText, false},
		{"TEXT", FormatText, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"md", FormatMarkdown, false},
		{"csv", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExportHistory(t *testing.T) {
	var c api.Complaint
	if err := json.Unmarshal([]byte(`{"complaint_id":"c1","categorisation":["Fraud"],"channel":"email"}`), &c); err != nil {
		t.Fatal(err)
	}
	list := []api.Complaint{c}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportHistory(&buf, list, FormatJSON); err != nil {
			t.Fatalf("ExportHistory() error = %v", err)
		}
		var got []map[string]any
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
		}
		if got[0]["channel"] != "email" || got[0]["categorization"] == nil {
			t.Errorf("exported record = %v", got[0])
		}
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportHistory(&buf, list, FormatYAML); err != nil {
			t.Fatalf("ExportHistory() error = %v", err)
		}
		var got []map[string]any
		if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
		}
		if got[0]["complaint_id"] != "c1" || got[0]["channel"] != "email" {
			t.Errorf("exported record = %v", got[0])
		}
	})

	t.Run("nil list", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportHistory(&buf, nil, FormatJSON); err != nil {
			t.Fatal(err)
		}
		if strings.TrimSpace(buf.String()) != "[]" {
			t.Errorf("nil list exported as %q", buf.String())
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		if err := ExportHistory(&bytes.Buffer{}, list, FormatText); err == nil {
			t.Error("expected error for text format")
		}
	})
}
