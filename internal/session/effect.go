package session

import (
	"context"
	"errors"

	"complaint-cli/internal/api"
	"complaint-cli/internal/stream"
)

// ─── Effects: I/O requested by the controller ───────────────────────────────

// Effect is work the controller needs done outside its loop. The caller runs
// it (see Perform) and feeds the resulting Msg back through Update.
type Effect interface {
	isEffect()
}

// SubmitRequest posts complaint text for analysis.
type SubmitRequest struct {
	Seq  uint64
	Text string
}

// FetchHistory reads the full history list.
type FetchHistory struct {
	Seq    uint64
	Reason string
}

func (SubmitRequest) isEffect() {}
func (FetchHistory) isEffect()  {}

// Reasons attached to FetchHistory, for logs.
const (
	ReasonViewActivated = "view"
	ReasonResult        = "result"
	ReasonRefresh       = "refresh"
)

// ─── Messages: inputs to the controller ─────────────────────────────────────

// Msg is anything the controller's loop consumes.
type Msg interface {
	isMsg()
}

// SubmitMsg is a user request to analyze Text.
type SubmitMsg struct {
	Text string
}

// SwitchViewMsg selects the active view.
type SwitchViewMsg struct {
	View View
}

// RefreshMsg is an explicit user request to reload history.
type RefreshMsg struct{}

// SignalMsg carries one signal from the stream manager.
type SignalMsg struct {
	Signal stream.Signal
}

// SubmitResult is the outcome of a SubmitRequest.
type SubmitResult struct {
	Seq       uint64
	Complaint *api.Complaint
	Err       error
}

// HistoryResult is the outcome of a FetchHistory.
type HistoryResult struct {
	Seq        uint64
	Complaints []api.Complaint
	Err        error
}

func (SubmitMsg) isMsg()     {}
func (SwitchViewMsg) isMsg() {}
func (RefreshMsg) isMsg()    {}
func (SignalMsg) isMsg()     {}
func (SubmitResult) isMsg()  {}
func (HistoryResult) isMsg() {}

var errEmptyResult = errors.New("server returned an empty analysis result")

// Perform executes e against client and returns the message to feed back
// into the loop. It blocks for the duration of the request, so callers run it
// off the loop goroutine. Unknown effects yield nil.
func Perform(ctx context.Context, client api.ComplaintAPI, e Effect) Msg {
	switch e := e.(type) {
	case SubmitRequest:
		c, err := client.Analyze(ctx, e.Text)
		if err == nil && c == nil {
			err = errEmptyResult
		}
		return SubmitResult{Seq: e.Seq, Complaint: c, Err: err}
	case FetchHistory:
		list, err := client.History(ctx)
		return HistoryResult{Seq: e.Seq, Complaints: list, Err: err}
	default:
		return nil
	}
}
