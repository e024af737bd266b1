package display

import (
	"fmt"
	"io"
)

// ThoughtPrinter writes a growing thought log to a terminal, one line per new
// entry. A log shorter than what was already printed means a new session
// started, so printing restarts from the top.
type ThoughtPrinter struct {
	w       io.Writer
	printed int
	conn    string
}

func NewThoughtPrinter(w io.Writer) *ThoughtPrinter {
	return &ThoughtPrinter{w: w}
}

// Thoughts prints entries of log not yet shown.
func (p *ThoughtPrinter) Thoughts(log []string, clean func(string) string) {
	if len(log) < p.printed {
		p.printed = 0
	}
	for _, t := range log[p.printed:] {
		if clean != nil {
			t = clean(t)
		}
		fmt.Fprintf(p.w, "  %s🧠%s %s\n", Magenta, Reset, t)
	}
	p.printed = len(log)
}

// Connection prints the stream state when it changes.
func (p *ThoughtPrinter) Connection(state string) {
	if state == p.conn {
		return
	}
	if p.conn != "" {
		fmt.Fprintf(p.w, "  %sstream%s %s\n", Dim, Reset, ConnectionLabel(state))
	}
	p.conn = state
}
