package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"complaint-cli/internal/api"
	"complaint-cli/internal/config"
	"complaint-cli/internal/samples"
	"complaint-cli/internal/service"
	"complaint-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Input dispatcher ───────────────────────────────────────────────────────

func (m model) dispatchInput(input string) (tea.Model, tea.Cmd) {
	if input == "?" {
		return m.cmdHelp()
	}
	if strings.HasPrefix(input, "/") {
		return m.dispatchCommand(input)
	}
	// Default: treat as a complaint to analyze
	return m.cmdSubmit(input)
}

func (m model) dispatchCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help", "/h":
		return m.cmdHelp()
	case "/live":
		return m.apply(m.ctrl.SetView(session.LiveView))
	case "/history":
		return m.apply(m.ctrl.SetView(session.HistoryView))
	case "/refresh":
		return m.apply(m.ctrl.RefreshHistory())
	case "/open":
		return m.cmdOpen(args)
	case "/samples":
		return m.cmdSamples()
	case "/sample":
		return m.cmdSample(args)
	case "/status":
		return m.cmdStatus()
	case "/agents":
		return m.cmdAgents()
	case "/config":
		return m.cmdConfig()
	case "/clear":
		return m, tea.ClearScreen
	case "/quit", "/exit", "/q":
		return m, tea.Quit
	default:
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Unknown command: %s (type /help)", cmd)))
	}
}

// ─── /help ──────────────────────────────────────────────────────────────────

func (m model) cmdHelp() (tea.Model, tea.Cmd) {
	pad := func(s string, w int) string {
		for len(s) < w {
			s += " "
		}
		return s
	}

	lines := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render("  Shortcuts:")),
		tea.Println(""),
		tea.Println("  " + pad(hintKeyStyle.Render("Tab"), 30) + dimStyle.Render("Switch between live and history")),
		tea.Println("  " + pad(hintKeyStyle.Render("/live"), 30) + dimStyle.Render("Show the live analysis view")),
		tea.Println("  " + pad(hintKeyStyle.Render("/history"), 30) + dimStyle.Render("Show analysed complaints")),
		tea.Println("  " + pad(hintKeyStyle.Render("/refresh"), 30) + dimStyle.Render("Reload the complaint history")),
		tea.Println("  " + pad(hintKeyStyle.Render("/open <n|id>"), 30) + dimStyle.Render("Print a history entry as a report")),
		tea.Println("  " + pad(hintKeyStyle.Render("/samples"), 30) + dimStyle.Render("List built-in sample complaints")),
		tea.Println("  " + pad(hintKeyStyle.Render("/sample <n|id>"), 30) + dimStyle.Render("Submit a sample complaint")),
		tea.Println("  " + pad(hintKeyStyle.Render("/status"), 30) + dimStyle.Render("Check backend health")),
		tea.Println("  " + pad(hintKeyStyle.Render("/agents"), 30) + dimStyle.Render("List backend agents")),
		tea.Println("  " + pad(hintKeyStyle.Render("/config"), 30) + dimStyle.Render("Show current configuration")),
		tea.Println("  " + pad(hintKeyStyle.Render("/clear"), 30) + dimStyle.Render("Clear the screen")),
		tea.Println("  " + pad(hintKeyStyle.Render("/quit"), 30) + dimStyle.Render("Exit")),
		tea.Println(""),
		tea.Println(dimStyle.Render("  Or just type a complaint to analyze it.")),
		tea.Println(""),
	}
	return m, tea.Sequence(lines...)
}

// ─── Submit ─────────────────────────────────────────────────────────────────

func (m model) cmdSubmit(text string) (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ No backend configured. Run: complaint set server <url>"))
	}
	busy := m.state.Busy()
	next, cmd := m.apply(m.ctrl.Submit(text))
	if busy {
		return next, tea.Batch(cmd, tea.Println(warnMsgStyle.Render("  ! An analysis is already in progress.")))
	}
	return next, cmd
}

// ─── /samples ───────────────────────────────────────────────────────────────

func (m model) cmdSamples() (tea.Model, tea.Cmd) {
	if len(m.samples) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No sample complaints available."))
	}
	cmds := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Sample complaints (%d):", len(m.samples)))),
		tea.Println(""),
	}
	for i, s := range m.samples {
		line := fmt.Sprintf("  %2d. %s  %s", i+1, rowIDStyle.Render(s.ID), s.Title)
		if s.Product != "" {
			line += dimStyle.Render(" · " + s.Product)
		}
		cmds = append(cmds, tea.Println(line))
	}
	cmds = append(cmds,
		tea.Println(""),
		tea.Println(dimStyle.Render("  Submit one with /sample <n|id>")),
		tea.Println(""),
	)
	return m, tea.Sequence(cmds...)
}

func (m model) cmdSample(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! Usage: /sample <n|id>"))
	}
	s, err := samples.Find(m.samples, args[0])
	if err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ %v", err)))
	}
	return m.cmdSubmit(s.Text)
}

// ─── /open ──────────────────────────────────────────────────────────────────

func (m model) cmdOpen(args []string) (tea.Model, tea.Cmd) {
	list := m.state.History
	if len(list) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! History is empty. Try /refresh."))
	}
	if len(args) == 0 {
		return m.openSelected()
	}
	c, ok := findComplaint(list, args[0])
	if !ok {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ No complaint %q in history", args[0])))
	}
	return m, tea.Println(m.renderReport(&c))
}

// findComplaint looks a history entry up by 1-based row or complaint id.
func findComplaint(list []api.Complaint, key string) (api.Complaint, bool) {
	if n, err := strconv.Atoi(key); err == nil {
		if n >= 1 && n <= len(list) {
			return list[n-1], true
		}
		return api.Complaint{}, false
	}
	for _, c := range list {
		if strings.EqualFold(c.ComplaintID, key) {
			return c, true
		}
	}
	return api.Complaint{}, false
}

// ─── /status ────────────────────────────────────────────────────────────────

type healthResultMsg struct {
	resp *api.HealthResponse
	err  error
}

func (m model) cmdStatus() (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ No backend configured."))
	}
	client := m.client
	ctx := m.ctx

	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Checking backend...")),
		func() tea.Msg {
			resp, err := client.Health(ctx)
			return healthResultMsg{resp: resp, err: err}
		},
	)
}

func (m model) handleHealthResult(msg healthResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Backend unreachable: %v", msg.err)))
	}
	status := "ok"
	if msg.resp != nil && msg.resp.Status != "" {
		status = msg.resp.Status
	}
	return m, tea.Sequence(
		tea.Println(successMsgStyle.Render(fmt.Sprintf("  ✓ Backend %s", status))),
		tea.Println(dimStyle.Render(fmt.Sprintf("    Event stream: %s", m.state.Connection))),
	)
}

// ─── /agents ────────────────────────────────────────────────────────────────

type agentsResultMsg struct {
	agents []string
	plan   *api.ActionPlan
	err    error
}

func (m model) cmdAgents() (tea.Model, tea.Cmd) {
	if m.client == nil {
		return m, tea.Println(errorMsgStyle.Render("  ✗ No backend configured."))
	}
	client := m.client
	ctx := m.ctx

	return m, tea.Sequence(
		tea.Println(statusStyle.Render("  ⟳ Loading agents...")),
		func() tea.Msg {
			return loadAgents(ctx, client)
		},
	)
}

func loadAgents(ctx context.Context, client api.ComplaintAPI) agentsResultMsg {
	resp, err := client.Agents(ctx)
	if err != nil {
		return agentsResultMsg{err: err}
	}
	msg := agentsResultMsg{agents: resp.Agents}
	// The canned retrieval output is optional; older backends lack it.
	if mock, err := client.MockAgents(ctx); err == nil && mock != nil {
		msg.plan = mock.ActionPlan
	}
	return msg
}

func (m model) handleAgentsResult(msg agentsResultMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		return m, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Failed to load agents: %v", msg.err)))
	}
	if len(msg.agents) == 0 {
		return m, tea.Println(warnMsgStyle.Render("  ! No agents reported."))
	}

	cmds := []tea.Cmd{
		tea.Println(""),
		tea.Println(dimStyle.Render(fmt.Sprintf("  Agents (%d):", len(msg.agents)))),
	}
	for _, a := range msg.agents {
		cmds = append(cmds, tea.Println("    • "+a))
	}
	if msg.plan != nil && len(msg.plan.Steps) > 0 {
		cmds = append(cmds, tea.Println(""), tea.Println(dimStyle.Render("  Sample action plan:")))
		for i, st := range msg.plan.Steps {
			n := st.StepNumber
			if n == 0 {
				n = i + 1
			}
			cmds = append(cmds, tea.Println(fmt.Sprintf("    %d. %s", n, service.Truncate(st.Description, 90))))
		}
	}
	cmds = append(cmds, tea.Println(""))
	return m, tea.Sequence(cmds...)
}

// ─── /config ────────────────────────────────────────────────────────────────

func (m model) cmdConfig() (tea.Model, tea.Cmd) {
	ws, err := m.cfg.WebSocketURL()
	if err != nil {
		ws = dimStyle.Render("(" + err.Error() + ")")
	}

	return m, tea.Sequence(
		tea.Println(""),
		tea.Println(dimStyle.Render("  Configuration:")),
		tea.Println(fmt.Sprintf("    Profile:         %s", config.ProfileName(m.profile))),
		tea.Println(fmt.Sprintf("    Server:          %s", m.cfg.ServerURL())),
		tea.Println(fmt.Sprintf("    Event stream:    %s", ws)),
		tea.Println(fmt.Sprintf("    Reconnect delay: %s (max %s)", m.cfg.ReconnectDelay(), m.cfg.MaxReconnectDelay())),
		tea.Println(fmt.Sprintf("    Request timeout: %s", m.cfg.RequestTimeout())),
		tea.Println(""),
	)
}
