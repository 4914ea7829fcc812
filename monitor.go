package session

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultValidationInterval = 30 * time.Second
	DefaultActivityDebounce   = time.Second
)

// ActivityKind labels the user interaction that triggered a revalidation
type ActivityKind string

const (
	ActivityPointer ActivityKind = "pointer"
	ActivityKey     ActivityKind = "key"
	ActivityScroll  ActivityKind = "scroll"
	ActivityTouch   ActivityKind = "touch"
)

type MonitorOptions struct {
	Interval time.Duration
	Debounce time.Duration
	Logger   Logger
}

// Monitor revalidates the session on a fixed interval and after bursts of
// user activity. It is started and closed by the composition root.
type Monitor struct {
	validator *Validator
	logger    Logger

	ticker    *Ticker
	debouncer *Debouncer

	runMu   sync.Mutex
	stateMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	closed  bool
}

func NewMonitor(validator *Validator, opts MonitorOptions) *Monitor {
	if opts.Interval <= 0 {
		opts.Interval = DefaultValidationInterval
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultActivityDebounce
	}

	m := &Monitor{
		validator: validator,
		logger:    normalizeLogger(opts.Logger),
	}
	m.ticker = NewTicker(opts.Interval, m.run)
	m.debouncer = NewDebouncer(opts.Debounce, func() {
		if ctx := m.context(); ctx != nil {
			m.run(ctx)
		}
	})
	return m
}

// Start runs one validation right away and then keeps revalidating until
// Close is called or ctx is done. When the first validation fails nothing
// keeps running and Start may be called again.
func (m *Monitor) Start(ctx context.Context) error {
	m.stateMu.Lock()
	if m.closed {
		m.stateMu.Unlock()
		return context.Canceled
	}
	if m.cancel != nil {
		m.stateMu.Unlock()
		return nil
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	runCtx := m.ctx
	m.stateMu.Unlock()

	m.runMu.Lock()
	_, err := m.validator.Validate(runCtx)
	m.runMu.Unlock()
	if err != nil {
		m.logger.Error("initial session validation failed: %s", err)
		m.stateMu.Lock()
		cancel := m.cancel
		m.ctx, m.cancel = nil, nil
		m.stateMu.Unlock()
		if cancel != nil {
			cancel()
		}
		return err
	}

	m.ticker.Start(runCtx)
	return nil
}

// Activity records a user interaction. Bursts are collapsed by the
// debouncer so validation runs once per quiet window.
func (m *Monitor) Activity(kind ActivityKind) {
	if m.context() == nil {
		return
	}
	m.logger.Debug("user activity: %s", kind)
	m.debouncer.Trigger()
}

// Close stops the ticker and the debouncer. Further activity is ignored.
func (m *Monitor) Close() {
	m.stateMu.Lock()
	if m.closed {
		m.stateMu.Unlock()
		return
	}
	m.closed = true
	cancel := m.cancel
	m.ctx, m.cancel = nil, nil
	m.stateMu.Unlock()

	m.debouncer.Stop()
	m.ticker.Stop()
	if cancel != nil {
		cancel()
	}
}

func (m *Monitor) context() context.Context {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if m.closed {
		return nil
	}
	return m.ctx
}

func (m *Monitor) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()

	if _, err := m.validator.Validate(ctx); err != nil {
		m.logger.Error("session validation failed: %s", err)
	}
}
