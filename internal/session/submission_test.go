package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"complaint-cli/internal/api"
	"complaint-cli/internal/stream"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinatorTransitions(t *testing.T) {
	c := NewCoordinator(nil)
	assert.Equal(t, Idle, c.State().Phase)

	req, ok := c.Begin("  first  ")
	require.True(t, ok)
	assert.Equal(t, SubmitRequest{Seq: 1, Text: "first"}, req)

	assert.False(t, c.ResolveFromStream(nil), "a result without payload does not settle")
	assert.True(t, c.Resolve(1, &api.Complaint{ComplaintID: "a"}))
	assert.False(t, c.Resolve(1, &api.Complaint{ComplaintID: "b"}), "second resolution is a no-op")
	assert.False(t, c.Fail(1, errors.New("late")))
	assert.Equal(t, "a", c.State().Complaint.ComplaintID)

	req, ok = c.Begin("second")
	require.True(t, ok)
	assert.Equal(t, uint64(2), req.Seq)
	assert.False(t, c.Resolve(1, &api.Complaint{ComplaintID: "stale"}))
	assert.True(t, c.Fail(2, nil))
	assert.Equal(t, "analysis failed", c.State().Err)
	assert.Nil(t, c.State().Complaint)

	assert.False(t, c.ResolveFromStream(&api.Complaint{ComplaintID: "x"}), "only a pending submission can be settled")
	assert.Equal(t, Failed, c.State().Phase)
}

func TestCoordinatorLogsDuplicate(t *testing.T) {
	var buf bytes.Buffer
	c := NewCoordinator(slog.New(slog.NewTextHandler(&buf, nil)))

	_, ok := c.Begin("one")
	require.True(t, ok)
	_, ok = c.Begin("two")
	assert.False(t, ok)

	assert.Contains(t, buf.String(), "duplicate submission ignored")
	assert.Equal(t, "one", c.State().Text)
}

func TestPhase(t *testing.T) {
	tests := []struct {
		phase    Phase
		name     string
		terminal bool
	}{
		{Idle, "idle", true},
		{Submitting, "submitting", false},
		{Succeeded, "succeeded", true},
		{Failed, "failed", true},
		{Phase(9), "phase(9)", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.phase.String())
		assert.Equal(t, tt.terminal, tt.phase.Terminal())
	}
}

func TestDispatcherClassify(t *testing.T) {
	d := NewDispatcher(nil)

	tests := []struct {
		name string
		env  stream.Envelope
		want Event
		ok   bool
	}{
		{
			name: "thought",
			env:  stream.Envelope{Type: "thought", Message: "Searching FCA handbook"},
			want: ThoughtEvent{Message: "Searching FCA handbook"},
			ok:   true,
		},
		{
			name: "empty thought is still a thought",
			env:  stream.Envelope{Type: "thought"},
			want: ThoughtEvent{},
			ok:   true,
		},
		{
			name: "result without data",
			env:  stream.Envelope{Type: "result"},
			want: ResultEvent{},
			ok:   true,
		},
		{
			name: "result with null data",
			env:  stream.Envelope{Type: "result", Data: json.RawMessage("null")},
			want: ResultEvent{},
			ok:   true,
		},
		{name: "unknown type", env: stream.Envelope{Type: "progress", Message: "50%"}},
		{name: "wrong case", env: stream.Envelope{Type: "Thought", Message: "x"}},
		{name: "result with array data", env: stream.Envelope{Type: "result", Data: json.RawMessage(`[]`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := d.Classify(tt.env)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDispatcherNormalizesResult(t *testing.T) {
	d := NewDispatcher(nil)
	ev, ok := d.Classify(stream.Envelope{
		Type: "result",
		Data: json.RawMessage(`{"complaint_id":"c9","categorisation":["Payments"],"confidence_score":0.8}`),
	})
	require.True(t, ok)
	res, ok := ev.(ResultEvent)
	require.True(t, ok)
	require.NotNil(t, res.Complaint)
	assert.Equal(t, "c9", res.Complaint.ComplaintID)
	assert.Equal(t, api.StringList{"Payments"}, res.Complaint.Categorization)
}

func TestDispatcherLogsDrops(t *testing.T) {
	var buf bytes.Buffer
	d := NewDispatcher(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	d.Classify(stream.Envelope{Type: "heartbeat"})
	assert.True(t, strings.Contains(buf.String(), "type=heartbeat"), buf.String())
}
