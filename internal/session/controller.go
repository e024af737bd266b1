// Package session reconciles the event stream, the submission request and
// the history list into one render-ready view state.
//
// The Controller is not safe for concurrent use. It is meant to be owned by a
// single loop (Loop, or a Bubble Tea model's Update) that feeds it messages one
// at a time and runs the effects it returns elsewhere.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"complaint-cli/internal/api"
	"complaint-cli/internal/stream"
)

// View is the user's tab selection.
type View int

const (
	LiveView View = iota
	HistoryView
)

func (v View) String() string {
	switch v {
	case LiveView:
		return "live"
	case HistoryView:
		return "history"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

// ParseView accepts "live" or "history".
func ParseView(s string) (View, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "live":
		return LiveView, nil
	case "history":
		return HistoryView, nil
	}
	return LiveView, fmt.Errorf("unknown view %q (use live or history)", s)
}

// ViewState is a snapshot for rendering. Slices are copies; the complaint
// pointers are shared and must be treated as read-only.
type ViewState struct {
	ActiveView     View
	ThoughtLog     []string
	Submission     SubmissionState
	LastResult     *api.Complaint
	History        []api.Complaint
	HistoryError   string
	HistoryLoading bool
	Connection     stream.State
}

// Busy reports whether a submission is in flight.
func (v ViewState) Busy() bool {
	return v.Submission.Phase == Submitting
}

// Controller owns the view state. Each input source has its own entry point
// and may only touch its own slice of the state.
type Controller struct {
	view       View
	thoughts   []string
	lastResult *api.Complaint
	conn       stream.State

	dispatcher *Dispatcher
	submission *Coordinator
	history    *HistoryFetcher
	logger     *slog.Logger
}

func New(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger = logger.With("component", "session")
	return &Controller{
		conn:       stream.Closed,
		dispatcher: NewDispatcher(logger),
		submission: NewCoordinator(logger),
		history:    NewHistoryFetcher(logger),
		logger:     logger,
	}
}

// Update routes msg to its entry point.
func (c *Controller) Update(msg Msg) []Effect {
	switch m := msg.(type) {
	case SubmitMsg:
		return c.Submit(m.Text)
	case SwitchViewMsg:
		return c.SetView(m.View)
	case RefreshMsg:
		return c.RefreshHistory()
	case SignalMsg:
		return c.HandleSignal(m.Signal)
	case SubmitResult:
		return c.HandleSubmitResult(m)
	case HistoryResult:
		return c.HandleHistoryResult(m)
	default:
		c.logger.Debug("unhandled message", "type", fmt.Sprintf("%T", msg))
		return nil
	}
}

// Submit starts analyzing text. A new session clears the thought log and the
// previous result. Rejected submissions change nothing and request no I/O.
func (c *Controller) Submit(text string) []Effect {
	req, ok := c.submission.Begin(text)
	if !ok {
		return nil
	}
	c.thoughts = nil
	c.lastResult = nil
	return []Effect{req}
}

func (c *Controller) HandleSignal(sig stream.Signal) []Effect {
	switch s := sig.(type) {
	case stream.StateChange:
		c.conn = s.State
		return nil
	case stream.EnvelopeReceived:
		ev, ok := c.dispatcher.Classify(s.Envelope)
		if !ok {
			return nil
		}
		return c.HandleEvent(ev)
	default:
		return nil
	}
}

// HandleEvent applies one classified stream event.
func (c *Controller) HandleEvent(ev Event) []Effect {
	switch e := ev.(type) {
	case ThoughtEvent:
		c.thoughts = append(c.thoughts, e.Message)
		return nil
	case ResultEvent:
		c.logger.Debug("session closed by result", "thoughts", len(c.thoughts), "has_payload", e.Complaint != nil)
		c.thoughts = nil
		if e.Complaint != nil {
			c.lastResult = e.Complaint
			c.submission.ResolveFromStream(e.Complaint)
		}
		return []Effect{c.history.Request(ReasonResult)}
	default:
		return nil
	}
}

// HandleSubmitResult settles the submission with the backend's direct
// response. A response for a submission that has already settled is ignored.
func (c *Controller) HandleSubmitResult(r SubmitResult) []Effect {
	if r.Err != nil {
		c.submission.Fail(r.Seq, r.Err)
		return nil
	}
	if c.submission.Resolve(r.Seq, r.Complaint) {
		c.lastResult = r.Complaint
	}
	return nil
}

func (c *Controller) HandleHistoryResult(r HistoryResult) []Effect {
	c.history.Complete(r)
	return nil
}

// SetView switches tabs. Entering the history view fetches unless a fetch is
// already running.
func (c *Controller) SetView(v View) []Effect {
	if v != LiveView && v != HistoryView {
		return nil
	}
	prev := c.view
	c.view = v
	if v != HistoryView || prev == HistoryView {
		return nil
	}
	if fetch, ok := c.history.Activate(); ok {
		return []Effect{fetch}
	}
	return nil
}

// RefreshHistory always issues a fetch.
func (c *Controller) RefreshHistory() []Effect {
	return []Effect{c.history.Request(ReasonRefresh)}
}

func (c *Controller) View() ViewState {
	var thoughts []string
	if len(c.thoughts) > 0 {
		thoughts = append([]string(nil), c.thoughts...)
	}
	var history []api.Complaint
	if list := c.history.List(); list != nil {
		history = append([]api.Complaint{}, list...)
	}
	return ViewState{
		ActiveView:     c.view,
		ThoughtLog:     thoughts,
		Submission:     c.submission.State(),
		LastResult:     c.lastResult,
		History:        history,
		HistoryError:   c.history.Err(),
		HistoryLoading: c.history.Loading(),
		Connection:     c.conn,
	}
}
