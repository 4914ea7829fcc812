package session

import (
	"context"
	"sync"
)

// HistoryNavigator keeps the current location in memory and remembers every
// navigation. Headless clients and tests use it in place of a browser.
type HistoryNavigator struct {
	mu       sync.RWMutex
	location string
	history  []Decision
	logger   Logger
}

func NewHistoryNavigator(start string, logger Logger) *HistoryNavigator {
	if start == "" {
		start = "/"
	}
	return &HistoryNavigator{
		location: start,
		logger:   normalizeLogger(logger),
	}
}

func (n *HistoryNavigator) Location() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.location
}

// Visit moves to path without recording a redirect
func (n *HistoryNavigator) Visit(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = path
}

func (n *HistoryNavigator) Navigate(ctx context.Context, decision Decision) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.mu.Lock()
	from := n.location
	n.location = decision.Target
	n.history = append(n.history, decision)
	n.mu.Unlock()

	n.logger.Info("redirect %s: %s -> %s", decision.Action, from, decision.Target)
	return nil
}

// History returns a copy of all navigations so far
func (n *HistoryNavigator) History() []Decision {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]Decision, len(n.history))
	copy(out, n.history)
	return out
}

// Last returns the most recent navigation
func (n *HistoryNavigator) Last() (Decision, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if len(n.history) == 0 {
		return Decision{}, false
	}
	return n.history[len(n.history)-1], true
}
