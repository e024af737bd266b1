package session

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"complaint-cli/internal/api"
)

// Phase is the lifecycle position of a submission.
type Phase int

const (
	Idle Phase = iota
	Submitting
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Terminal reports whether a new submission may start from p.
func (p Phase) Terminal() bool {
	return p != Submitting
}

// SubmissionState is a value snapshot. Complaint is set only when Succeeded,
// Err only when Failed.
type SubmissionState struct {
	Phase     Phase
	Seq       uint64
	Text      string
	Complaint *api.Complaint
	Err       string
}

// Coordinator drives a single submission at a time:
//
//	Idle | Succeeded | Failed ──Begin──▶ Submitting ──Resolve──▶ Succeeded
//	                                         └───────Fail──────▶ Failed
//
// Each Begin issues a new sequence number. HTTP outcomes carry the number of
// the request they answer, so a response to an earlier submission can never
// settle a later one.
type Coordinator struct {
	state  SubmissionState
	seq    uint64
	logger *slog.Logger
}

func NewCoordinator(logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{logger: logger}
}

func (c *Coordinator) State() SubmissionState {
	return c.state
}

// Begin starts a submission. Blank text and a submission already in flight
// are both rejected without side effects.
func (c *Coordinator) Begin(text string) (SubmitRequest, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return SubmitRequest{}, false
	}
	if c.state.Phase == Submitting {
		c.logger.Warn("duplicate submission ignored", "in_flight_seq", c.state.Seq)
		return SubmitRequest{}, false
	}
	c.seq++
	c.state = SubmissionState{Phase: Submitting, Seq: c.seq, Text: text}
	c.logger.Info("submission started", "seq", c.seq, "chars", len(text))
	return SubmitRequest{Seq: c.seq, Text: text}, true
}

// Resolve settles submission seq with the backend's direct response.
func (c *Coordinator) Resolve(seq uint64, complaint *api.Complaint) bool {
	if !c.pending(seq) || complaint == nil {
		c.logger.Debug("submission response ignored", "seq", seq, "phase", c.state.Phase)
		return false
	}
	c.state.Phase = Succeeded
	c.state.Complaint = complaint
	c.logger.Info("submission succeeded", "seq", seq, "complaint_id", complaint.ComplaintID, "source", "response")
	return true
}

// Fail settles submission seq with a transport or HTTP error.
func (c *Coordinator) Fail(seq uint64, err error) bool {
	if !c.pending(seq) {
		c.logger.Debug("submission failure ignored", "seq", seq, "phase", c.state.Phase, "error", err)
		return false
	}
	msg := "analysis failed"
	if err != nil {
		msg = err.Error()
	}
	c.state.Phase = Failed
	c.state.Err = msg
	c.logger.Warn("submission failed", "seq", seq, "error", msg)
	return true
}

// ResolveFromStream settles whatever submission is in flight with a result
// delivered over the event stream. The stream carries no sequence number.
func (c *Coordinator) ResolveFromStream(complaint *api.Complaint) bool {
	if c.state.Phase != Submitting || complaint == nil {
		return false
	}
	c.state.Phase = Succeeded
	c.state.Complaint = complaint
	c.logger.Info("submission succeeded", "seq", c.state.Seq, "complaint_id", complaint.ComplaintID, "source", "stream")
	return true
}

func (c *Coordinator) pending(seq uint64) bool {
	return c.state.Phase == Submitting && c.state.Seq == seq
}
