package session

import (
	"io"
	"log/slog"

	"complaint-cli/internal/api"
	"complaint-cli/internal/stream"
)

// Envelope type discriminators understood by the client.
const (
	TypeThought = "thought"
	TypeResult  = "result"
)

// Event is a classified stream envelope: ThoughtEvent or ResultEvent.
type Event interface {
	isEvent()
}

// ThoughtEvent is an intermediate progress message from the backend.
type ThoughtEvent struct {
	Message string
}

// ResultEvent ends an analysis session. Complaint is nil when the backend
// announced completion without a payload.
type ResultEvent struct {
	Complaint *api.Complaint
}

func (ThoughtEvent) isEvent() {}
func (ResultEvent) isEvent()  {}

// Dispatcher turns raw envelopes into events. It holds no session state.
type Dispatcher struct {
	logger *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Dispatcher{logger: logger}
}

// Classify reports false for envelopes that must be ignored: unknown types
// and results whose data is not a complaint record.
func (d *Dispatcher) Classify(env stream.Envelope) (Event, bool) {
	switch env.Type {
	case TypeThought:
		return ThoughtEvent{Message: env.Message}, true
	case TypeResult:
		c, err := api.DecodeComplaint(env.Data)
		if err != nil {
			d.logger.Debug("dropping result with undecodable data", "error", err)
			return nil, false
		}
		return ResultEvent{Complaint: c}, true
	default:
		d.logger.Debug("ignoring envelope", "type", env.Type)
		return nil, false
	}
}
