package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"complaint-cli/internal/api"
	"complaint-cli/internal/config"
	"complaint-cli/internal/service"
	"complaint-cli/internal/session"
	"complaint-cli/internal/stream"

	tea "github.com/charmbracelet/bubbletea"
)

// mockAPI implements api.ComplaintAPI for testing.
type mockAPI struct {
	result  *api.Complaint
	history []api.Complaint
	agents  []string
	plan    *api.ActionPlan

	err error // if set, all methods return this error
}

func (m *mockAPI) Analyze(ctx context.Context, text string) (*api.Complaint, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &api.Complaint{ComplaintID: "mock", Summary: text}, nil
}

func (m *mockAPI) History(ctx context.Context) ([]api.Complaint, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.history, nil
}

func (m *mockAPI) Health(ctx context.Context) (*api.HealthResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.HealthResponse{Status: "ok"}, nil
}

func (m *mockAPI) Agents(ctx context.Context) (*api.AgentsResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.AgentsResponse{Agents: m.agents}, nil
}

func (m *mockAPI) MockAgents(ctx context.Context) (*api.MockAgentsResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.MockAgentsResponse{ActionPlan: m.plan}, nil
}

// Verify mockAPI satisfies the interface at compile time.
var _ api.ComplaintAPI = (*mockAPI)(nil)

func newTestModel() model {
	m := initialModel(context.Background(), Options{
		Version: "test",
		Config:  &config.Config{Server: "http://localhost:8000"},
		Client:  &mockAPI{},
		Style:   service.StylePlain,
	}, nil)
	m.ready = true
	m.width = 80
	m.height = 24
	return m
}

func update(t *testing.T, m model, msg tea.Msg) model {
	t.Helper()
	result, _ := m.Update(msg)
	return result.(model)
}

func thought(text string) signalMsg {
	return signalMsg{sig: stream.EnvelopeReceived{Envelope: stream.Envelope{Type: "thought", Message: text}}}
}

func enter(t *testing.T, m model, text string) model {
	t.Helper()
	m.input.SetValue(text)
	return update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
}

func TestDispatchCommand(t *testing.T) {
	for _, input := range []string{"/help", "/config", "/clear", "/quit", "/samples", "/status", "/agents", "/unknown"} {
		t.Run(input, func(t *testing.T) {
			m := newTestModel()
			result, cmd := m.dispatchCommand(input)
			rm := result.(model)
			if rm.state.Busy() {
				t.Error("command should not start an analysis")
			}
			if cmd == nil {
				t.Error("expected output cmd, got nil")
			}
		})
	}
}

func TestDispatchInput(t *testing.T) {
	t.Run("plain text submits", func(t *testing.T) {
		m := enter(t, newTestModel(), "  I was charged twice  ")
		if !m.state.Busy() {
			t.Fatal("expected submission in progress")
		}
		if m.state.Submission.Text != "I was charged twice" {
			t.Errorf("Text = %q", m.state.Submission.Text)
		}
		if m.input.Value() != "" {
			t.Errorf("input not cleared: %q", m.input.Value())
		}
	})

	t.Run("submit without client shows error", func(t *testing.T) {
		m := newTestModel()
		m.client = nil
		result, cmd := m.dispatchInput("test complaint")
		if result.(model).state.Busy() {
			t.Error("should not submit without a client")
		}
		if cmd == nil {
			t.Error("expected error message cmd, got nil")
		}
	})

	t.Run("sample submits its text", func(t *testing.T) {
		m := newTestModel()
		result, _ := m.dispatchInput("/sample 1")
		rm := result.(model)
		if !rm.state.Busy() || !strings.Contains(rm.state.Submission.Text, "12345678") {
			t.Errorf("submission = %+v", rm.state.Submission)
		}
	})

	t.Run("unknown sample", func(t *testing.T) {
		m := newTestModel()
		result, _ := m.dispatchInput("/sample 99")
		if result.(model).state.Busy() {
			t.Error("out of range sample should not submit")
		}
	})
}

func TestDuplicateSubmitIgnoredWhileBusy(t *testing.T) {
	m := enter(t, newTestModel(), "first")
	m = enter(t, m, "second")

	sub := m.state.Submission
	if sub.Seq != 1 || sub.Text != "first" {
		t.Errorf("submission = %+v, want seq 1 with first text", sub)
	}
}

func TestSubmitResultAndStreamResult(t *testing.T) {
	m := enter(t, newTestModel(), "charged twice")
	m = update(t, m, thought("reading complaint"))

	if !strings.Contains(m.View(), "reading complaint") {
		t.Errorf("live panel missing thought:\n%s", m.View())
	}

	m = update(t, m, effectMsg{msg: session.SubmitResult{Seq: 1, Complaint: &api.Complaint{ComplaintID: "c1", Status: "Open"}}})
	if m.state.Submission.Phase != session.Succeeded {
		t.Fatalf("phase = %v, want succeeded", m.state.Submission.Phase)
	}
	if m.printedResult == nil || m.printedResult.ComplaintID != "c1" {
		t.Fatalf("printedResult = %+v", m.printedResult)
	}
	printed := m.printedResult

	// The same outcome arriving on the stream is not printed again.
	m = update(t, m, signalMsg{sig: stream.EnvelopeReceived{Envelope: stream.Envelope{
		Type: "result",
		Data: []byte(`{"complaint_id":"c1","status":"Open"}`),
	}}})
	if m.printedResult != printed {
		t.Error("duplicate result was printed twice")
	}
	if m.state.Submission.Phase != session.Succeeded {
		t.Errorf("phase = %v after stream result", m.state.Submission.Phase)
	}
	if len(m.state.ThoughtLog) != 0 {
		t.Errorf("thought log = %v, want cleared by result", m.state.ThoughtLog)
	}
	if !strings.Contains(m.View(), "c1") {
		t.Errorf("live panel missing result:\n%s", m.View())
	}
}

func TestSubmitFailure(t *testing.T) {
	m := enter(t, newTestModel(), "charged twice")
	m = update(t, m, effectMsg{msg: session.SubmitResult{Seq: 1, Err: errors.New("backend exploded")}})

	if m.state.Submission.Phase != session.Failed {
		t.Fatalf("phase = %v, want failed", m.state.Submission.Phase)
	}
	if m.printedFail != 1 {
		t.Errorf("printedFail = %d, want 1", m.printedFail)
	}
	if !strings.Contains(m.View(), "backend exploded") {
		t.Errorf("view missing error:\n%s", m.View())
	}

	// Resubmitting after a failure is allowed.
	m = enter(t, m, "try again")
	if !m.state.Busy() || m.state.Submission.Seq != 2 {
		t.Errorf("submission = %+v, want seq 2 in progress", m.state.Submission)
	}
}

func TestConnectionBadge(t *testing.T) {
	m := newTestModel()
	if !strings.Contains(m.View(), "offline") {
		t.Errorf("initial view should be offline:\n%s", m.View())
	}
	m = update(t, m, signalMsg{sig: stream.StateChange{State: stream.Open}})
	if m.state.Connection != stream.Open {
		t.Fatalf("Connection = %v", m.state.Connection)
	}
	if !strings.Contains(m.View(), "● live") {
		t.Errorf("view missing live badge:\n%s", m.View())
	}
}

func TestTabSwitchesView(t *testing.T) {
	m := newTestModel()

	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m = result.(model)
	if m.state.ActiveView != session.HistoryView {
		t.Fatalf("ActiveView = %v, want history", m.state.ActiveView)
	}
	if !m.state.HistoryLoading || cmd == nil {
		t.Error("switching to history should start a fetch")
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.state.ActiveView != session.LiveView {
		t.Errorf("ActiveView = %v, want live", m.state.ActiveView)
	}
}

func TestHistoryPanel(t *testing.T) {
	m := newTestModel()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, effectMsg{msg: session.HistoryResult{Seq: 1, Complaints: []api.Complaint{
		{ComplaintID: "CMP-A", Summary: "card declined abroad"},
		{ComplaintID: "CMP-B", Summary: "late fee"},
	}}})

	view := m.View()
	for _, want := range []string{"Complaint history (2)", "CMP-A", "card declined abroad", "CMP-B"} {
		if !strings.Contains(view, want) {
			t.Errorf("history view missing %q:\n%s", want, view)
		}
	}

	// A failed refresh keeps the list and shows the error on the history view only.
	m, _ = m.apply(m.ctrl.RefreshHistory())
	m = update(t, m, effectMsg{msg: session.HistoryResult{Seq: 2, Err: errors.New("history down")}})
	view = m.View()
	if !strings.Contains(view, "history down") || !strings.Contains(view, "CMP-A") {
		t.Errorf("history view after failure:\n%s", view)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if strings.Contains(m.View(), "history down") {
		t.Errorf("live view should not show the history error:\n%s", m.View())
	}
}

func TestHistoryCursor(t *testing.T) {
	m := newTestModel()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = update(t, m, effectMsg{msg: session.HistoryResult{Seq: 1, Complaints: []api.Complaint{
		{ComplaintID: "a"}, {ComplaintID: "b"}, {ComplaintID: "c"},
	}}})

	steps := []struct {
		key  tea.KeyType
		want int
	}{
		{tea.KeyDown, 1},
		{tea.KeyDown, 2},
		{tea.KeyDown, 2},
		{tea.KeyUp, 1},
		{tea.KeyUp, 0},
		{tea.KeyUp, 0},
	}
	for i, s := range steps {
		m = update(t, m, tea.KeyMsg{Type: s.key})
		if m.cursor != s.want {
			t.Fatalf("step %d: cursor = %d, want %d", i, m.cursor, s.want)
		}
	}

	// A shorter list clamps the selection.
	m.cursor = 2
	m = update(t, m, effectMsg{msg: session.HistoryResult{Seq: 1, Complaints: []api.Complaint{{ComplaintID: "a"}}}})
	if m.cursor != 0 {
		t.Errorf("cursor = %d after shrink, want 0", m.cursor)
	}
}

func TestAgentsResult(t *testing.T) {
	client := &mockAPI{
		agents: []string{"classifier", "retriever"},
		plan:   &api.ActionPlan{Steps: []api.ActionStep{{Description: "Acknowledge"}}},
	}
	msg := loadAgents(context.Background(), client)
	if msg.err != nil || len(msg.agents) != 2 || msg.plan == nil {
		t.Fatalf("loadAgents() = %+v", msg)
	}

	client.err = errors.New("down")
	if msg := loadAgents(context.Background(), client); msg.err == nil {
		t.Error("expected error")
	}
}

func TestRunEffects(t *testing.T) {
	ctx := context.Background()
	client := &mockAPI{
		result:  &api.Complaint{ComplaintID: "c9"},
		history: []api.Complaint{{ComplaintID: "h1"}},
	}

	t.Run("single effect", func(t *testing.T) {
		cmd := runEffects(ctx, client, []session.Effect{session.SubmitRequest{Seq: 3, Text: "x"}})
		em, ok := cmd().(effectMsg)
		if !ok {
			t.Fatal("expected effectMsg")
		}
		res, ok := em.msg.(session.SubmitResult)
		if !ok || res.Seq != 3 || res.Complaint.ComplaintID != "c9" {
			t.Errorf("result = %+v", em.msg)
		}
	})

	t.Run("several effects batch", func(t *testing.T) {
		cmd := runEffects(ctx, client, []session.Effect{
			session.SubmitRequest{Seq: 1, Text: "x"},
			session.FetchHistory{Seq: 1},
		})
		batch, ok := cmd().(tea.BatchMsg)
		if !ok || len(batch) != 2 {
			t.Fatalf("expected batch of 2, got %T", cmd())
		}
		em := batch[1]().(effectMsg)
		if res := em.msg.(session.HistoryResult); len(res.Complaints) != 1 {
			t.Errorf("history result = %+v", res)
		}
	})

	t.Run("nothing to do", func(t *testing.T) {
		if runEffects(ctx, client, nil) != nil {
			t.Error("expected nil cmd for no effects")
		}
		if runEffects(ctx, nil, []session.Effect{session.FetchHistory{}}) != nil {
			t.Error("expected nil cmd without a client")
		}
	})
}

func TestWaitForSignal(t *testing.T) {
	if waitForSignal(nil) != nil {
		t.Error("nil channel should give nil cmd")
	}

	ch := make(chan stream.Signal, 1)
	ch <- stream.StateChange{State: stream.Connecting}
	msg, ok := waitForSignal(ch)().(signalMsg)
	if !ok || msg.sig.(stream.StateChange).State != stream.Connecting {
		t.Errorf("got %+v", msg)
	}

	close(ch)
	if _, ok := waitForSignal(ch)().(signalsClosedMsg); !ok {
		t.Error("closed channel should give signalsClosedMsg")
	}
}

func TestMatchCommands(t *testing.T) {
	if got := matchCommands("/"); len(got) != len(slashCommands) {
		t.Errorf("matchCommands(/) = %d commands", len(got))
	}
	got := matchCommands("/sa")
	if len(got) != 2 || got[0].name != "/sample" || got[1].name != "/samples" {
		t.Errorf("matchCommands(/sa) = %v", got)
	}
	if got := matchCommands("/zzz"); len(got) != 0 {
		t.Errorf("matchCommands(/zzz) = %v", got)
	}
}

func TestFindComplaint(t *testing.T) {
	list := []api.Complaint{{ComplaintID: "CMP-1"}, {ComplaintID: "CMP-2"}}
	tests := []struct {
		key    string
		wantID string
		wantOK bool
	}{
		{"1", "CMP-1", true},
		{"2", "CMP-2", true},
		{"3", "", false},
		{"cmp-2", "CMP-2", true},
		{"nope", "", false},
	}
	for _, tt := range tests {
		c, ok := findComplaint(list, tt.key)
		if ok != tt.wantOK || c.ComplaintID != tt.wantID {
			t.Errorf("findComplaint(%q) = %q, %v", tt.key, c.ComplaintID, ok)
		}
	}
}

func TestSameComplaint(t *testing.T) {
	a := &api.Complaint{ComplaintID: "x"}
	tests := []struct {
		name string
		a, b *api.Complaint
		want bool
	}{
		{"both nil", nil, nil, true},
		{"one nil", a, nil, false},
		{"same pointer", a, a, true},
		{"same id", a, &api.Complaint{ComplaintID: "x"}, true},
		{"different id", a, &api.Complaint{ComplaintID: "y"}, false},
		{"both unassigned", &api.Complaint{}, &api.Complaint{}, false},
	}
	for _, tt := range tests {
		if got := sameComplaint(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: sameComplaint() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRenderThoughts(t *testing.T) {
	var log []string
	for i := 0; i < 10; i++ {
		log = append(log, fmt.Sprintf("thought-%d", i))
	}
	out := renderThoughts(log, 6, 80)
	if !strings.Contains(out, "4 earlier") {
		t.Errorf("missing overflow marker:\n%s", out)
	}
	if strings.Contains(out, "thought-3") || !strings.Contains(out, "thought-4") || !strings.Contains(out, "thought-9") {
		t.Errorf("wrong window:\n%s", out)
	}
	if renderThoughts(nil, 6, 80) != "" {
		t.Error("empty log should render nothing")
	}
}

func TestRenderWelcome(t *testing.T) {
	out := renderWelcome("1.2.3", "http://localhost:8000", "default", 80)
	for _, want := range []string{"Complaint Analyst", "v1.2.3", "localhost:8000", "profile default"} {
		if !strings.Contains(out, want) {
			t.Errorf("welcome missing %q:\n%s", want, out)
		}
	}
}
