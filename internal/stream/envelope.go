package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ─── Connection state ───────────────────────────────────────────────────────

type State int

const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ─── Envelopes ──────────────────────────────────────────────────────────────

// Envelope is one message unit from the event stream. Type is the
// discriminator ("thought", "result", ...); the remaining fields depend on it.
type Envelope struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var errNotObject = errors.New("envelope is not a JSON object")

// DecodeEnvelope parses a raw frame. Anything that is not a JSON object with
// the expected field types is malformed.
func DecodeEnvelope(frame []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(frame)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Envelope{}, errNotObject
	}
	var env Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Envelope{}, fmt.Errorf("decoding envelope: %w", err)
	}
	return env, nil
}

// ─── Signals sent to the consumer ───────────────────────────────────────────

// Signal is either a StateChange or an EnvelopeReceived, delivered in the
// order the manager observed them.
type Signal interface {
	isSignal()
}

type StateChange struct {
	State State
	// Err is the dial or read error that caused a transition to Closed.
	Err error
	// Attempt counts consecutive failed connection attempts; 0 once open.
	Attempt int
}

type EnvelopeReceived struct {
	Envelope Envelope
}

func (StateChange) isSignal()      {}
func (EnvelopeReceived) isSignal() {}
