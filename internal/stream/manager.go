// Package stream maintains the client's single event stream connection to the
// complaint backend and turns inbound frames into ordered signals.
package stream

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultReconnectDelay = time.Second
	defaultBuffer         = 256
)

// Manager owns one logical connection. It reconnects on every unexpected
// close, without a retry limit, until Close is called or the context passed
// to Start is cancelled.
//
// State machine:
//
//	Connecting ──dial ok──▶ Open ──read error──▶ Closed ──after delay──▶ Connecting
//	     │                                          ▲
//	     └──────────────dial error──────────────────┘
//
// Closed is only terminal after teardown.
type Manager struct {
	url      string
	dialer   Dialer
	delay    time.Duration
	maxDelay time.Duration
	logger   *slog.Logger
	sleep    func(ctx context.Context, d time.Duration) error

	signals chan Signal
	done    chan struct{}

	mu      sync.Mutex
	state   State
	started bool
	closed  bool
	cancel  context.CancelFunc
}

type Option func(*Manager)

func WithDialer(d Dialer) Option {
	return func(m *Manager) { m.dialer = d }
}

// WithReconnectDelay sets the delay before a reconnect attempt. When limit is
// greater than base the delay doubles after each consecutive failure, capped
// at limit; otherwise it stays fixed.
func WithReconnectDelay(base, limit time.Duration) Option {
	return func(m *Manager) {
		if base > 0 {
			m.delay = base
		}
		m.maxDelay = limit
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithBuffer sets the capacity of the signal channel.
func WithBuffer(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.signals = make(chan Signal, n)
		}
	}
}

func NewManager(url string, opts ...Option) *Manager {
	m := &Manager{
		url:     url,
		dialer:  WebSocketDialer{},
		delay:   DefaultReconnectDelay,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		sleep:   sleepContext,
		signals: make(chan Signal, defaultBuffer),
		done:    make(chan struct{}),
		state:   Closed,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.maxDelay < m.delay {
		m.maxDelay = m.delay
	}
	m.logger = m.logger.With("component", "stream", "url", url)
	return m
}

// Signals returns the ordered stream of state changes and envelopes. It is
// closed after the manager stops.
func (m *Manager) Signals() <-chan Signal {
	return m.signals
}

// Done is closed once the connection goroutine has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start begins connecting in the background and returns immediately. Calling
// it again while running, or after Close, is a no-op.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started || m.closed {
		return
	}
	m.started = true
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.state = Connecting
	go m.run(runCtx)
}

// Close tears the connection down without scheduling a reconnect and waits
// for the background goroutine to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	started := m.started
	cancel := m.cancel
	m.mu.Unlock()

	if !started {
		close(m.signals)
		close(m.done)
		return
	}
	cancel()
	<-m.done
}

func (m *Manager) run(ctx context.Context) {
	defer close(m.done)
	defer close(m.signals)

	delay := m.delay
	attempt := 0
	for {
		m.transition(ctx, StateChange{State: Connecting, Attempt: attempt})

		conn, err := m.dialer.Dial(ctx, m.url)
		if err != nil {
			if ctx.Err() != nil {
				m.finish()
				return
			}
			connectFailuresTotal.Inc()
			attempt++
			m.logger.Warn("stream connect failed", "attempt", attempt, "retry_in", delay, "error", err)
		} else {
			attempt = 0
			delay = m.delay
			connectsTotal.Inc()
			m.logger.Info("stream connected")
			m.transition(ctx, StateChange{State: Open})

			err = m.readLoop(ctx, conn)
			if ctx.Err() != nil {
				m.finish()
				return
			}
			disconnectsTotal.Inc()
			m.logger.Info("stream disconnected, reconnecting", "retry_in", delay, "error", err)
		}

		m.transition(ctx, StateChange{State: Closed, Err: err, Attempt: attempt})
		if err := m.sleep(ctx, delay); err != nil {
			m.finish()
			return
		}
		if attempt > 0 {
			delay = nextDelay(delay, m.maxDelay)
		}
	}
}

// readLoop delivers envelopes until the connection fails or ctx ends.
// Malformed frames are dropped; they never close the connection.
func (m *Manager) readLoop(ctx context.Context, conn Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	defer conn.Close()

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		env, err := DecodeEnvelope(frame)
		if err != nil {
			droppedTotal.WithLabelValues("malformed").Inc()
			m.logger.Debug("dropping malformed envelope", "error", err, "bytes", len(frame))
			continue
		}
		if !m.emit(ctx, EnvelopeReceived{Envelope: env}) {
			return ctx.Err()
		}
		envelopesTotal.Inc()
	}
}

func (m *Manager) transition(ctx context.Context, sc StateChange) {
	m.mu.Lock()
	m.state = sc.State
	m.mu.Unlock()
	m.emit(ctx, sc)
}

// finish records the terminal Closed state. The consumer may already be gone,
// so the send never blocks.
func (m *Manager) finish() {
	m.mu.Lock()
	m.state = Closed
	m.mu.Unlock()
	select {
	case m.signals <- StateChange{State: Closed}:
	default:
	}
	m.logger.Debug("stream stopped")
}

func (m *Manager) emit(ctx context.Context, s Signal) bool {
	select {
	case m.signals <- s:
		return true
	case <-ctx.Done():
		return false
	}
}

func nextDelay(cur, limit time.Duration) time.Duration {
	next := cur * 2
	if next > limit {
		return limit
	}
	return next
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
