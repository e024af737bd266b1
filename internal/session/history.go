package session

import (
	"io"
	"log/slog"

	"complaint-cli/internal/api"
)

// HistoryFetcher tracks the cached history list and the fetches issued for
// it. Overlapping fetches are allowed; whichever response is handled last
// wins.
type HistoryFetcher struct {
	seq      uint64
	inFlight int
	list     []api.Complaint
	err      string
	logger   *slog.Logger
}

func NewHistoryFetcher(logger *slog.Logger) *HistoryFetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HistoryFetcher{logger: logger}
}

// Request always issues a fetch.
func (h *HistoryFetcher) Request(reason string) FetchHistory {
	h.seq++
	h.inFlight++
	h.logger.Debug("history fetch requested", "seq", h.seq, "reason", reason, "in_flight", h.inFlight)
	return FetchHistory{Seq: h.seq, Reason: reason}
}

// Activate issues a fetch for a switch to the history view unless one is
// already outstanding.
func (h *HistoryFetcher) Activate() (FetchHistory, bool) {
	if h.inFlight > 0 {
		return FetchHistory{}, false
	}
	return h.Request(ReasonViewActivated), true
}

// Complete applies a fetch outcome. Failure keeps the previous list.
func (h *HistoryFetcher) Complete(r HistoryResult) {
	if h.inFlight > 0 {
		h.inFlight--
	}
	if r.Err != nil {
		h.err = r.Err.Error()
		h.logger.Warn("history fetch failed", "seq", r.Seq, "error", r.Err)
		return
	}
	h.list = r.Complaints
	h.err = ""
	h.logger.Debug("history updated", "seq", r.Seq, "count", len(r.Complaints))
}

func (h *HistoryFetcher) List() []api.Complaint { return h.list }
func (h *HistoryFetcher) Err() string           { return h.err }
func (h *HistoryFetcher) Loading() bool         { return h.inFlight > 0 }
