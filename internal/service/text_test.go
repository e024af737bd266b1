package service

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"hello", "hello"},
		{"line1<br/>line2", "line1\nline2"},
		{"line1<br>line2", "line1\nline2"},
		{"line1<br />line2", "line1\nline2"},
		{"<b>bold</b> text", "bold text"},
		{"<p>paragraph</p>", "paragraph"},
		{"no tags here", "no tags here"},
		{"", ""},
	}

	for _, tt := range tests {
		got := StripHTML(tt.input)
		if got != tt.want {
			t.Errorf("StripHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCleanThought(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Classifying complaint", "Classifying complaint"},
		{"  Querying\n\tknowledge   base ", "Querying knowledge base"},
		{"Found <b>3</b> rules<br/>DISP 1.3", "Found 3 rules DISP 1.3"},
		{"", "…"},
		{"<br/>", "…"},
	}

	for _, tt := range tests {
		if got := CleanThought(tt.input); got != tt.want {
			t.Errorf("CleanThought(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 8, "this is…"},
		{"£500 refund", 4, "£50…"},
		{"abc", 1, "…"},
		{"abc", 0, "abc"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}
