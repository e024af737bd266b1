package display

import (
	"fmt"
	"os"
	"strings"
)

const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
	White   = "\033[37m"
	Gray    = "\033[90m"
)

func Header(text string) {
	fmt.Printf("\n%s%s%s\n", Bold+Cyan, text, Reset)
	fmt.Println(strings.Repeat("─", min(len(text)+4, 80)))
}

func SubHeader(text string) {
	fmt.Printf("%s%s%s\n", Bold+White, text, Reset)
}

func Success(text string) {
	fmt.Printf("%s✓%s %s\n", Green, Reset, text)
}

func Error(text string) {
	fmt.Fprintf(os.Stderr, "%s✗%s %s\n", Red, Reset, text)
}

func Warn(text string) {
	fmt.Printf("%s!%s %s\n", Yellow, Reset, text)
}

func Info(label, value string) {
	fmt.Printf("  %s%-20s%s %s\n", Dim, label, Reset, value)
}

func Spinner(text string) {
	fmt.Printf("\r%s⟳%s %s", Yellow, Reset, text)
}

func ClearLine() {
	fmt.Print("\r\033[K")
}

// Submission phase display, keyed by the phase's String() form.
func PhaseLabel(phase string) string {
	labels := map[string]string{
		"idle":       Gray + "○ Idle" + Reset,
		"submitting": Yellow + "⟳ Analyzing" + Reset,
		"succeeded":  Green + "✓ Analyzed" + Reset,
		"failed":     Red + "✗ Failed" + Reset,
	}
	if label, ok := labels[phase]; ok {
		return label
	}
	return phase
}

// Event stream connection display
func ConnectionLabel(state string) string {
	labels := map[string]string{
		"connecting": Yellow + "◌ connecting" + Reset,
		"open":       Green + "● live" + Reset,
		"closed":     Gray + "○ offline" + Reset,
	}
	if label, ok := labels[state]; ok {
		return label
	}
	return state
}

// ComplaintStatusLabel colours the backend's free-text complaint status.
func ComplaintStatusLabel(status string) string {
	lower := strings.ToLower(status)
	switch {
	case status == "":
		return Gray + "—" + Reset
	case strings.Contains(lower, "escalat"), strings.Contains(lower, "reject"):
		return Red + status + Reset
	case strings.Contains(lower, "await"), strings.Contains(lower, "review"), strings.Contains(lower, "pending"):
		return Yellow + status + Reset
	case strings.Contains(lower, "resolv"), strings.Contains(lower, "closed"), strings.Contains(lower, "approved"):
		return Green + status + Reset
	default:
		return status
	}
}
