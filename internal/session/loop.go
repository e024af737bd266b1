package session

import (
	"context"

	"complaint-cli/internal/api"
	"complaint-cli/internal/stream"

	"golang.org/x/sync/errgroup"
)

// Loop is a headless event loop around a Controller. Stream signals, user
// messages and effect results are applied strictly one at a time; effects run
// on their own goroutines and report back through the loop.
type Loop struct {
	ctrl    *Controller
	client  api.ComplaintAPI
	signals <-chan stream.Signal
	msgs    chan Msg
	observe func(ViewState) bool
}

type LoopOption func(*Loop)

// WithObserver registers fn to run after every applied message. Returning
// true stops the loop.
func WithObserver(fn func(ViewState) bool) LoopOption {
	return func(l *Loop) { l.observe = fn }
}

// WithSignals attaches a stream manager's signal channel.
func WithSignals(ch <-chan stream.Signal) LoopOption {
	return func(l *Loop) { l.signals = ch }
}

func NewLoop(ctrl *Controller, client api.ComplaintAPI, opts ...LoopOption) *Loop {
	l := &Loop{
		ctrl:    ctrl,
		client:  client,
		msgs:    make(chan Msg, 16),
		observe: func(ViewState) bool { return false },
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Send queues msg for the loop. It blocks until the loop accepts it or ctx
// ends.
func (l *Loop) Send(ctx context.Context, msg Msg) error {
	select {
	case l.msgs <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes messages until ctx ends or the observer asks to stop. It
// returns nil on an observer stop and ctx.Err() otherwise. Outstanding
// effects are cancelled and waited for before Run returns.
func (l *Loop) Run(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	var effects errgroup.Group
	defer func() {
		cancel()
		_ = effects.Wait()
	}()

	signals := l.signals
	for {
		var msg Msg
		select {
		case <-runCtx.Done():
			return ctx.Err()
		case sig, ok := <-signals:
			if !ok {
				signals = nil
				continue
			}
			msg = SignalMsg{Signal: sig}
		case msg = <-l.msgs:
		}

		for _, e := range l.ctrl.Update(msg) {
			effects.Go(func() error {
				if out := Perform(runCtx, l.client, e); out != nil {
					_ = l.Send(runCtx, out)
				}
				return nil
			})
		}
		if l.observe(l.ctrl.View()) {
			return nil
		}
	}
}
