package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"complaint-cli/internal/api"
	"complaint-cli/internal/config"
	"complaint-cli/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockAPI implements api.ComplaintAPI for testing.
type mockAPI struct {
	mu sync.Mutex

	analyzeFn func(ctx context.Context, text string) (*api.Complaint, error)
	historyFn func(ctx context.Context) ([]api.Complaint, error)

	analyzeCalls []string
	historyCalls int
}

func (m *mockAPI) Analyze(ctx context.Context, text string) (*api.Complaint, error) {
	m.mu.Lock()
	m.analyzeCalls = append(m.analyzeCalls, text)
	fn := m.analyzeFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, text)
	}
	return &api.Complaint{ComplaintID: "mock"}, nil
}

func (m *mockAPI) History(ctx context.Context) ([]api.Complaint, error) {
	m.mu.Lock()
	m.historyCalls++
	fn := m.historyFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx)
	}
	return []api.Complaint{}, nil
}

func (m *mockAPI) Health(context.Context) (*api.HealthResponse, error) {
	return &api.HealthResponse{Status: "ok"}, nil
}

func (m *mockAPI) Agents(context.Context) (*api.AgentsResponse, error) {
	return &api.AgentsResponse{}, nil
}

func (m *mockAPI) MockAgents(context.Context) (*api.MockAgentsResponse, error) {
	return &api.MockAgentsResponse{}, nil
}

func (m *mockAPI) calls() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.analyzeCalls...), m.historyCalls
}

var _ api.ComplaintAPI = (*mockAPI)(nil)

func TestPerform(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("submit success", func(t *testing.T) {
		m := &mockAPI{analyzeFn: func(_ context.Context, text string) (*api.Complaint, error) {
			return &api.Complaint{ComplaintID: "c1", Summary: text}, nil
		}}
		msg := Perform(ctx, m, SubmitRequest{Seq: 4, Text: "hello"})
		res, ok := msg.(SubmitResult)
		require.True(t, ok)
		assert.Equal(t, uint64(4), res.Seq)
		assert.NoError(t, res.Err)
		assert.Equal(t, "hello", res.Complaint.Summary)
	})

	t.Run("submit error", func(t *testing.T) {
		m := &mockAPI{analyzeFn: func(context.Context, string) (*api.Complaint, error) { return nil, boom }}
		res := Perform(ctx, m, SubmitRequest{Seq: 1, Text: "x"}).(SubmitResult)
		assert.ErrorIs(t, res.Err, boom)
	})

	t.Run("submit empty result", func(t *testing.T) {
		m := &mockAPI{analyzeFn: func(context.Context, string) (*api.Complaint, error) { return nil, nil }}
		res := Perform(ctx, m, SubmitRequest{Seq: 1, Text: "x"}).(SubmitResult)
		assert.ErrorIs(t, res.Err, errEmptyResult)
	})

	t.Run("submit null body from backend", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprint(w, `null`)
		}))
		defer srv.Close()

		client := api.NewClient(&config.Config{Server: srv.URL})
		res := Perform(ctx, client, SubmitRequest{Seq: 1, Text: "x"}).(SubmitResult)
		assert.ErrorIs(t, res.Err, errEmptyResult)

		c := New(nil)
		c.Submit("x")
		c.HandleSubmitResult(res)
		assert.Equal(t, Failed, c.View().Submission.Phase)
		assert.Nil(t, c.View().LastResult)
	})

	t.Run("history", func(t *testing.T) {
		m := &mockAPI{historyFn: func(context.Context) ([]api.Complaint, error) {
			return []api.Complaint{{ComplaintID: "h1"}}, nil
		}}
		res := Perform(ctx, m, FetchHistory{Seq: 2}).(HistoryResult)
		assert.Equal(t, uint64(2), res.Seq)
		assert.Len(t, res.Complaints, 1)
	})

	t.Run("unknown effect", func(t *testing.T) {
		assert.Nil(t, Perform(ctx, &mockAPI{}, nil))
	})
}

func TestLoopSubmissionRacesStream(t *testing.T) {
	signals := make(chan stream.Signal, 8)
	release := make(chan struct{})
	m := &mockAPI{
		analyzeFn: func(ctx context.Context, text string) (*api.Complaint, error) {
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return &api.Complaint{ComplaintID: "c1", Summary: "from response"}, nil
		},
		historyFn: func(context.Context) ([]api.Complaint, error) {
			return []api.Complaint{{ComplaintID: "c1"}}, nil
		},
	}

	var states []ViewState
	submitted := make(chan struct{})
	var once sync.Once
	loop := NewLoop(New(nil), m,
		WithSignals(signals),
		WithObserver(func(v ViewState) bool {
			states = append(states, v)
			if v.Busy() {
				once.Do(func() { close(submitted) })
			}
			return len(v.History) == 1 && !v.HistoryLoading
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()

	require.NoError(t, loop.Send(ctx, SubmitMsg{Text: "card charged twice"}))
	<-submitted
	signals <- stream.StateChange{State: stream.Open}
	signals <- stream.EnvelopeReceived{Envelope: stream.Envelope{Type: TypeThought, Message: "classifying complaint"}}
	signals <- stream.EnvelopeReceived{Envelope: stream.Envelope{
		Type: TypeResult,
		Data: json.RawMessage(`{"complaint_id":"c1","summary":"from stream"}`),
	}}

	require.NoError(t, <-errc)
	close(release)

	final := states[len(states)-1]
	assert.Equal(t, Succeeded, final.Submission.Phase)
	assert.Equal(t, "from stream", final.LastResult.Summary, "stream won the race")
	assert.Equal(t, stream.Open, final.Connection)
	assert.Empty(t, final.ThoughtLog)

	var sawThought bool
	for _, s := range states {
		if len(s.ThoughtLog) == 1 && s.ThoughtLog[0] == "classifying complaint" {
			sawThought = true
		}
	}
	assert.True(t, sawThought)

	analyzed, histories := m.calls()
	assert.Equal(t, []string{"card charged twice"}, analyzed)
	assert.Equal(t, 1, histories)
}

func TestLoopDuplicateSubmitMakesNoCall(t *testing.T) {
	block := make(chan struct{})
	m := &mockAPI{analyzeFn: func(ctx context.Context, _ string) (*api.Complaint, error) {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil, ctx.Err()
	}}

	seen := 0
	loop := NewLoop(New(nil), m, WithObserver(func(ViewState) bool {
		seen++
		return seen == 2
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Send(ctx, SubmitMsg{Text: "one"}))
	require.NoError(t, loop.Send(ctx, SubmitMsg{Text: "two"}))

	require.NoError(t, loop.Run(ctx))
	close(block)

	analyzed, _ := m.calls()
	assert.Equal(t, []string{"one"}, analyzed)
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	loop := NewLoop(New(nil), &mockAPI{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, loop.Run(ctx), context.Canceled)
}

func TestLoopSurvivesClosedSignals(t *testing.T) {
	signals := make(chan stream.Signal)
	close(signals)

	loop := NewLoop(New(nil), &mockAPI{}, WithSignals(signals), WithObserver(func(v ViewState) bool {
		return v.ActiveView == HistoryView
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, loop.Send(ctx, SwitchViewMsg{View: HistoryView}))
	require.NoError(t, loop.Run(ctx))
}
