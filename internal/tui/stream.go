package tui

import (
	"context"

	"complaint-cli/internal/api"
	"complaint-cli/internal/session"
	"complaint-cli/internal/stream"

	tea "github.com/charmbracelet/bubbletea"
)

// ─── Stream messages ────────────────────────────────────────────────────────

// signalMsg carries one signal from the stream manager into Update.
type signalMsg struct {
	sig stream.Signal
}

// signalsClosedMsg is sent once the manager has stopped for good.
type signalsClosedMsg struct{}

// effectMsg wraps the outcome of an effect performed off the Update loop.
type effectMsg struct {
	msg session.Msg
}

// waitForSignal reads exactly one signal. Update re-issues it after every
// signal so the manager's order is preserved.
func waitForSignal(ch <-chan stream.Signal) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		sig, ok := <-ch
		if !ok {
			return signalsClosedMsg{}
		}
		return signalMsg{sig: sig}
	}
}

// runEffects performs the controller's requested I/O, one command per effect.
// Results come back as effectMsg and are applied in arrival order.
func runEffects(ctx context.Context, client api.ComplaintAPI, effects []session.Effect) tea.Cmd {
	if client == nil || len(effects) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, e := range effects {
		cmds = append(cmds, func() tea.Msg {
			res := session.Perform(ctx, client, e)
			if res == nil {
				return nil
			}
			return effectMsg{msg: res}
		})
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	return tea.Batch(cmds...)
}
