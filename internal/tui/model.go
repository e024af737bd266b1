package tui

import (
	"context"
	"fmt"
	"strings"

	"complaint-cli/internal/api"
	"complaint-cli/internal/config"
	"complaint-cli/internal/samples"
	"complaint-cli/internal/service"
	"complaint-cli/internal/session"
	"complaint-cli/internal/stream"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	liveThoughtRows = 6  // thought lines shown in the live panel
	historyRows     = 10 // visible rows of the history list
	maxInputHistory = 1000
)

// ─── Slash command registry ─────────────────────────────────────────────────

type slashCmd struct {
	name string
	desc string
}

var slashCommands = []slashCmd{
	{"/agents", "List backend agents"},
	{"/clear", "Clear the screen"},
	{"/config", "Show current configuration"},
	{"/help", "Show all commands"},
	{"/history", "Switch to the history view"},
	{"/live", "Switch to the live view"},
	{"/open", "Print a history entry as a report"},
	{"/quit", "Exit"},
	{"/refresh", "Reload the complaint history"},
	{"/sample", "Submit a built-in sample complaint"},
	{"/samples", "List built-in sample complaints"},
	{"/status", "Check backend health"},
}

// ─── Model ──────────────────────────────────────────────────────────────────

type model struct {
	width  int
	height int

	// Bubble Tea components
	input   textinput.Model
	spinner spinner.Model
	list    viewport.Model

	// Session state. ctrl is shared between model copies; Update is the only
	// caller, so it is never touched concurrently.
	ctx     context.Context
	ctrl    *session.Controller
	state   session.ViewState
	signals <-chan stream.Signal
	client  api.ComplaintAPI
	cfg     *config.Config
	version string
	profile string
	style   string
	samples []samples.Sample

	// Output bookkeeping so each outcome is printed once.
	printedResult *api.Complaint
	printedFail   uint64 // seq of the last failure printed

	// History list selection
	cursor int

	// UI state
	ready        bool
	cmdMenuIdx   int    // selected index in command menu (-1 = none)
	cmdMenuOpen  bool   // whether the command menu is visible
	lastInputVal string // track input changes to reset menu index

	// Input history
	inputHistory []string
	historyIdx   int    // current position in input history (-1 = not browsing)
	historySaved string // saved input value when entering history mode
}

func initialModel(ctx context.Context, opts Options, signals <-chan stream.Signal) model {
	ti := textinput.New()
	ti.Placeholder = "Describe a complaint or type /help..."
	ti.Focus()
	ti.CharLimit = 8192
	ti.Prompt = "❯ "
	ti.PromptStyle = promptSymbol
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(colorTeal)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorTeal)

	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{Profile: opts.Profile}
	}
	style := opts.Style
	if style == "" {
		style = service.StyleDark
	}
	builtin, _ := samples.Load("")

	ctrl := session.New(opts.Logger)

	return model{
		input:        ti,
		spinner:      sp,
		list:         viewport.New(80, historyRows),
		ctx:          ctx,
		ctrl:         ctrl,
		state:        ctrl.View(),
		signals:      signals,
		client:       opts.Client,
		cfg:          cfg,
		version:      opts.Version,
		profile:      opts.Profile,
		style:        style,
		samples:      builtin,
		inputHistory: make([]string, 0),
		historyIdx:   -1,
	}
}

// ─── Init ───────────────────────────────────────────────────────────────────

func (m model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		waitForSignal(m.signals),
	)
}

// ─── Update ─────────────────────────────────────────────────────────────────

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = m.width - 6
		m.list.Width = m.width
		m.refreshList()

		if !m.ready {
			m.ready = true
			// Print welcome header on first render
			welcome := renderWelcome(m.version, m.cfg.ServerURL(), config.ProfileName(m.profile), m.width)
			cmds = append(cmds, tea.Println(welcome))
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEsc:
			if m.cmdMenuOpen {
				m.cmdMenuOpen = false
				m.cmdMenuIdx = 0
				return m, nil
			}

		case tea.KeyUp:
			if m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					m.cmdMenuIdx--
					if m.cmdMenuIdx < 0 {
						m.cmdMenuIdx = len(matches) - 1
					}
					return m, nil
				}
			} else if m.browsingList() {
				m.moveCursor(-1)
				return m, nil
			} else if len(m.inputHistory) > 0 {
				if m.historyIdx == -1 {
					m.historySaved = m.input.Value()
					m.historyIdx = len(m.inputHistory) - 1
				} else {
					m.historyIdx--
					if m.historyIdx < 0 {
						m.historyIdx = 0
					}
				}
				m.input.SetValue(m.inputHistory[m.historyIdx])
				m.input.CursorEnd()
				return m, nil
			}

		case tea.KeyDown:
			if m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					m.cmdMenuIdx++
					if m.cmdMenuIdx >= len(matches) {
						m.cmdMenuIdx = 0
					}
					return m, nil
				}
			} else if m.browsingList() {
				m.moveCursor(1)
				return m, nil
			} else if m.historyIdx != -1 {
				m.historyIdx++
				if m.historyIdx >= len(m.inputHistory) {
					// Leaving history mode restores what was being typed.
					m.historyIdx = -1
					m.input.SetValue(m.historySaved)
					m.historySaved = ""
				} else {
					m.input.SetValue(m.inputHistory[m.historyIdx])
				}
				m.input.CursorEnd()
				return m, nil
			}

		case tea.KeyTab:
			if m.cmdMenuOpen {
				matches := matchCommands(m.input.Value())
				if len(matches) > 0 {
					idx := m.cmdMenuIdx
					if idx < 0 || idx >= len(matches) {
						idx = 0
					}
					m.input.SetValue(matches[idx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
				}
				return m, nil
			}
			next := session.HistoryView
			if m.state.ActiveView == session.HistoryView {
				next = session.LiveView
			}
			return m.apply(m.ctrl.SetView(next))

		case tea.KeyEnter:
			if m.cmdMenuOpen && m.cmdMenuIdx >= 0 {
				matches := matchCommands(m.input.Value())
				if m.cmdMenuIdx < len(matches) {
					m.input.SetValue(matches[m.cmdMenuIdx].name + " ")
					m.input.CursorEnd()
					m.cmdMenuOpen = false
					m.cmdMenuIdx = 0
					return m, nil
				}
			}

			value := strings.TrimSpace(m.input.Value())
			if value == "" {
				if m.state.ActiveView == session.HistoryView {
					return m.openSelected()
				}
				return m, nil
			}

			if len(m.inputHistory) == 0 || m.inputHistory[len(m.inputHistory)-1] != value {
				m.inputHistory = append(m.inputHistory, value)
				if len(m.inputHistory) > maxInputHistory {
					m.inputHistory = m.inputHistory[len(m.inputHistory)-maxInputHistory:]
				}
			}
			m.historyIdx = -1
			m.historySaved = ""

			m.input.SetValue("")
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0

			return m.dispatchInput(value)
		}

	// ── Session messages ──────────────────────────────────────────────
	case signalMsg:
		next, cmd := m.apply(m.ctrl.HandleSignal(msg.sig))
		return next, tea.Batch(cmd, waitForSignal(m.signals))

	case signalsClosedMsg:
		m.signals = nil
		return m, nil

	case effectMsg:
		return m.apply(m.ctrl.Update(msg.msg))

	// ── Async results ─────────────────────────────────────────────────
	case healthResultMsg:
		return m.handleHealthResult(msg)

	case agentsResultMsg:
		return m.handleAgentsResult(msg)
	}

	// Update sub-components
	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)

	m.spinner, cmd = m.spinner.Update(msg)
	cmds = append(cmds, cmd)

	// Track input changes to open/close command menu and reset selection
	newVal := m.input.Value()
	if newVal != m.lastInputVal {
		m.lastInputVal = newVal
		if m.historyIdx != -1 {
			if m.historyIdx < len(m.inputHistory) && m.inputHistory[m.historyIdx] != newVal {
				m.historyIdx = -1
				m.historySaved = ""
			}
		}
		if strings.HasPrefix(newVal, "/") {
			m.cmdMenuOpen = true
			m.cmdMenuIdx = 0
		} else {
			m.cmdMenuOpen = false
			m.cmdMenuIdx = 0
		}
	}

	return m, tea.Batch(cmds...)
}

// apply takes a fresh snapshot after the controller handled something, prints
// whatever outcome became visible, and schedules the requested effects.
func (m model) apply(effects []session.Effect) (model, tea.Cmd) {
	prev := m.state
	m.state = m.ctrl.View()
	m.refreshList()

	var prints []tea.Cmd
	sub := m.state.Submission

	if sub.Phase == session.Submitting && (prev.Submission.Phase != session.Submitting || prev.Submission.Seq != sub.Seq) {
		prints = append(prints, tea.Println(userPromptStyle.Render("❯ ")+service.Truncate(sub.Text, 200)))
	}
	if sub.Phase == session.Failed && sub.Seq != m.printedFail {
		m.printedFail = sub.Seq
		prints = append(prints, tea.Println(errorMsgStyle.Render(fmt.Sprintf("  ✗ Analysis failed: %s", sub.Err))))
	}
	if r := m.state.LastResult; r != nil && !sameComplaint(r, m.printedResult) {
		m.printedResult = r
		prints = append(prints, tea.Println(m.renderReport(r)))
	}

	cmds := []tea.Cmd{runEffects(m.ctx, m.client, effects)}
	if len(prints) > 0 {
		cmds = append(cmds, tea.Sequence(prints...))
	}
	return m, tea.Batch(cmds...)
}

// sameComplaint treats a stream result and an HTTP response for the same
// complaint as one outcome.
func sameComplaint(a, b *api.Complaint) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a == b {
		return true
	}
	return a.ComplaintID != "" && a.ComplaintID == b.ComplaintID
}

func (m model) renderReport(c *api.Complaint) string {
	md := service.ComplaintMarkdown(c)
	out, err := service.RenderMarkdown(md, min(m.width, 100), m.style)
	if err != nil {
		return md
	}
	return out
}

// ─── History list ───────────────────────────────────────────────────────────

// browsingList reports whether arrow keys should move the history selection
// rather than recall earlier input.
func (m model) browsingList() bool {
	return m.state.ActiveView == session.HistoryView && m.input.Value() == "" && len(m.state.History) > 0
}

func (m *model) moveCursor(delta int) {
	m.cursor += delta
	m.refreshList()
}

// refreshList clamps the selection and keeps it inside the visible window.
func (m *model) refreshList() {
	n := len(m.state.History)
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.list.SetContent(renderHistoryRows(m.state.History, m.cursor, m.width))
	if m.cursor < m.list.YOffset {
		m.list.SetYOffset(m.cursor)
	} else if m.cursor >= m.list.YOffset+m.list.Height {
		m.list.SetYOffset(m.cursor - m.list.Height + 1)
	}
}

func (m model) openSelected() (tea.Model, tea.Cmd) {
	if len(m.state.History) == 0 {
		return m, nil
	}
	c := m.state.History[m.cursor]
	return m, tea.Println(m.renderReport(&c))
}

// ─── View ───────────────────────────────────────────────────────────────────
//
// Inline mode: View() shows the active panel, the input prompt and hints.
// Reports and errors are printed above via tea.Println.

func (m model) View() string {
	if !m.ready {
		return ""
	}

	var s strings.Builder

	s.WriteString(renderTabs(m.state.ActiveView, m.state.Connection))
	s.WriteString("\n")

	switch m.state.ActiveView {
	case session.HistoryView:
		s.WriteString(m.renderHistoryPanel())
	default:
		s.WriteString(m.renderLivePanel())
	}

	s.WriteString(m.input.View())
	s.WriteString("\n")

	// Separator
	sepWidth := min(m.width, 80)
	if sepWidth < 20 {
		sepWidth = 20
	}
	s.WriteString(separatorStyle.Render(strings.Repeat("─", sepWidth)))
	s.WriteString("\n")

	s.WriteString(m.renderHints())

	return s.String()
}

func (m model) renderLivePanel() string {
	var s strings.Builder
	sub := m.state.Submission

	thoughts := renderThoughts(m.state.ThoughtLog, liveThoughtRows, m.width)
	if thoughts != "" {
		s.WriteString(thoughts)
		s.WriteString("\n")
	}

	switch sub.Phase {
	case session.Submitting:
		status := fmt.Sprintf("Analyzing complaint #%d...", sub.Seq)
		s.WriteString(m.spinner.View() + " " + statusStyle.Render(status) + "\n")
	case session.Failed:
		s.WriteString(errorMsgStyle.Render("  ✗ "+sub.Err) + "\n")
	}
	if sub.Phase != session.Submitting && m.state.LastResult != nil {
		s.WriteString(renderResultLine(m.state.LastResult) + "\n")
	}
	return s.String()
}

func (m model) renderHistoryPanel() string {
	var s strings.Builder
	title := fmt.Sprintf("Complaint history (%d)", len(m.state.History))
	if m.state.HistoryLoading {
		title += " " + m.spinner.View()
	}
	s.WriteString(panelTitleStyle.Render("  "+title) + "\n")

	if m.state.HistoryError != "" {
		s.WriteString(errorMsgStyle.Render("  ✗ "+m.state.HistoryError) + "\n")
	}
	switch {
	case len(m.state.History) > 0:
		s.WriteString(m.list.View())
		s.WriteString("\n")
	case m.state.HistoryLoading:
		s.WriteString(dimStyle.Render("  Loading...") + "\n")
	default:
		s.WriteString(dimStyle.Render("  No complaints analysed yet.") + "\n")
	}
	return s.String()
}

// ─── Hint bar ───────────────────────────────────────────────────────────────

func (m model) renderHints() string {
	if m.cmdMenuOpen {
		matches := matchCommands(m.input.Value())
		if len(matches) > 0 {
			return m.renderCommandMenu(matches)
		}
	}

	if m.state.ActiveView == session.HistoryView {
		return hintBarStyle.Render("  ↑↓ select   Enter open   Tab live   ? for help")
	}
	return hintBarStyle.Render("  Tab history   ? for help")
}

// renderCommandMenu renders a vertical list of matching commands.
func (m model) renderCommandMenu(matches []slashCmd) string {
	maxLen := 0
	for _, c := range matches {
		if len(c.name) > maxLen {
			maxLen = len(c.name)
		}
	}

	var lines []string
	for i, c := range matches {
		padded := c.name + strings.Repeat(" ", maxLen-len(c.name))

		var line string
		if i == m.cmdMenuIdx {
			line = "  " + cmdSelectedNameStyle.Render(padded) + "  " + cmdSelectedDescStyle.Render(c.desc)
		} else {
			line = "  " + cmdNameStyle.Render(padded) + "  " + cmdDescStyle.Render(c.desc)
		}
		lines = append(lines, line)
	}

	lines = append(lines, hintBarStyle.Render("  ↑↓ navigate  Tab/Enter select"))

	return strings.Join(lines, "\n")
}

// matchCommands returns all slash commands matching a prefix.
func matchCommands(prefix string) []slashCmd {
	prefix = strings.ToLower(prefix)
	if prefix == "/" {
		return slashCommands
	}
	var matches []slashCmd
	for _, c := range slashCommands {
		if strings.HasPrefix(c.name, prefix) {
			matches = append(matches, c)
		}
	}
	return matches
}
