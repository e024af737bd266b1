package tui

import (
	"fmt"
	"strings"

	"complaint-cli/internal/api"
	"complaint-cli/internal/service"
	"complaint-cli/internal/session"
	"complaint-cli/internal/stream"
)

// ─── Welcome Screen ─────────────────────────────────────────────────────────

func renderWelcome(version, server, profile string, width int) string {
	titleLine := logoTitleStyle.Render("Complaint Analyst") + " " + versionStyle.Render("v"+version)

	serverDisplay := server
	if len(serverDisplay) > 40 {
		serverDisplay = serverDisplay[:37] + "..."
	}
	infoLine := welcomeInfoLabel.Render(fmt.Sprintf("%s · profile %s", serverDisplay, profile))
	hint := welcomeHintStyle.Render("Describe a complaint to analyze it, or try /sample 1")

	art := renderLogoASCIIArt()
	if width > 0 && width < 40 {
		art = ""
	}
	return fmt.Sprintf("\n%s\n\n%s\n%s\n%s\n", art, titleLine, infoLine, hint)
}

const logoASCIIArt = `
    ************************
    **                    **
    **  ++++++++++++++++  **
    **                    **
    **  ++++++++++++      **
    **                    **
    **  ++++++++++++++    **
    **                    **
    ********    ************
           **  **
            ****
`

func renderLogoASCIIArt() string {
	lines := trimEmptyEdgeLines(strings.Split(logoASCIIArt, "\n"))

	minIndent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := countLeadingSpaces(line)
		if minIndent == -1 || indent < minIndent {
			minIndent = indent
		}
	}

	for i, line := range lines {
		line = strings.TrimRight(line, " ")
		if minIndent > 0 && len(line) >= minIndent {
			line = line[minIndent:]
		}
		lines[i] = colorizeLogoLine(line)
	}

	return strings.Join(lines, "\n")
}

func trimEmptyEdgeLines(lines []string) []string {
	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}

	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

func countLeadingSpaces(s string) int {
	i := 0
	for i < len(s) && s[i] == ' ' {
		i++
	}
	return i
}

// colorizeLogoLine renders runs of body ('*') and accent ('+') characters with
// their styles, so each run costs one escape sequence.
func colorizeLogoLine(line string) string {
	const (
		stylePlain = iota
		styleBody
		styleAccent
	)

	styleFor := func(r rune) int {
		switch r {
		case '*':
			return styleBody
		case '+':
			return styleAccent
		default:
			return stylePlain
		}
	}

	render := func(style int, s string) string {
		switch style {
		case styleBody:
			return logoBodyStyle.Render(s)
		case styleAccent:
			return logoAccentStyle.Render(s)
		default:
			return s
		}
	}

	var out strings.Builder
	var run strings.Builder
	currentStyle := stylePlain
	first := true

	flush := func() {
		if run.Len() == 0 {
			return
		}
		out.WriteString(render(currentStyle, run.String()))
		run.Reset()
	}

	for _, r := range line {
		nextStyle := styleFor(r)
		if first {
			currentStyle = nextStyle
			first = false
		} else if nextStyle != currentStyle {
			flush()
			currentStyle = nextStyle
		}
		run.WriteRune(r)
	}

	flush()
	return out.String()
}

// ─── Panels ─────────────────────────────────────────────────────────────────

func renderTabs(active session.View, conn stream.State) string {
	tab := func(v session.View, label string) string {
		if v == active {
			return tabActiveStyle.Render(label)
		}
		return tabInactiveStyle.Render(label)
	}
	return "  " + tab(session.LiveView, "Live") + "   " + tab(session.HistoryView, "History") +
		"   " + connectionBadge(conn)
}

func connectionBadge(s stream.State) string {
	switch s {
	case stream.Open:
		return successMsgStyle.Render("● live")
	case stream.Connecting:
		return warnMsgStyle.Render("◌ connecting")
	default:
		return dimStyle.Render("○ offline")
	}
}

// renderThoughts shows the newest n entries of the thought log, oldest first.
func renderThoughts(log []string, n, width int) string {
	if len(log) == 0 {
		return ""
	}
	start := 0
	if len(log) > n {
		start = len(log) - n
	}
	limit := width - 6
	if limit < 20 {
		limit = 72
	}

	var lines []string
	if start > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  … %d earlier", start)))
	}
	for _, t := range log[start:] {
		t = service.CleanThought(t)
		lines = append(lines, "  "+panelTitleStyle.Render("›")+" "+thoughtStyle.Render(service.Truncate(t, limit)))
	}
	return strings.Join(lines, "\n")
}

func renderResultLine(c *api.Complaint) string {
	r := service.FormatHistoryRow(*c)
	line := "  " + successMsgStyle.Render("✓ "+r.ID)
	if r.Status != "" {
		line += dimStyle.Render(" · " + r.Status)
	}
	if r.Confidence != "" {
		line += dimStyle.Render(" · " + r.Confidence)
	}
	if r.Categories != "" {
		line += dimStyle.Render(" · " + r.Categories)
	}
	return line
}

// renderHistoryRows lists complaints in backend order with the selected row
// highlighted.
func renderHistoryRows(list []api.Complaint, cursor, width int) string {
	if len(list) == 0 {
		return ""
	}
	summaryWidth := width - 40
	if summaryWidth < 20 {
		summaryWidth = 40
	}

	lines := make([]string, 0, len(list))
	for i, c := range list {
		r := service.FormatHistoryRow(c)
		marker := "  "
		id := rowIDStyle.Render(service.Truncate(r.ID, 24))
		if i == cursor {
			marker = selectedRowStyle.Render("❯ ")
			id = selectedRowStyle.Render(service.Truncate(r.ID, 24))
		}
		line := fmt.Sprintf("%s%2d. %s", marker, i+1, id)
		if r.Confidence != "" {
			line += " " + dimStyle.Render(r.Confidence)
		}
		line += "  " + service.Truncate(r.Summary, summaryWidth)
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
