package session

import (
	"context"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess    ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure    ActivityEventType = "auth.login.failure"
	ActivityEventRegisterSuccess ActivityEventType = "auth.register.success"
	ActivityEventRegisterFailure ActivityEventType = "auth.register.failure"
	ActivityEventVerifySuccess   ActivityEventType = "auth.verify.success"
	ActivityEventVerifyFailure   ActivityEventType = "auth.verify.failure"
	ActivityEventLogout          ActivityEventType = "auth.logout"
	ActivityEventSessionValid    ActivityEventType = "session.validated"
	ActivityEventSessionExpired  ActivityEventType = "session.expired"
	ActivityEventSessionInvalid  ActivityEventType = "session.invalid"
	ActivityEventSessionCleared  ActivityEventType = "session.cleared"
	ActivityEventRedirect        ActivityEventType = "session.redirect"
)

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	UserID     string
	Role       Role
	Outcome    Outcome
	Decision   Decision
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

// MultiActivitySink fans an event out to several sinks, the first error is
// returned after all sinks ran.
type MultiActivitySink []ActivitySink

func (m MultiActivitySink) Record(ctx context.Context, event ActivityEvent) error {
	var first error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// recordActivity runs the sink best effort, errors are only logged
func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, clock Clock, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = clock.Now()
	}
	if err := sink.Record(ctx, event); err != nil {
		logger.Error("activity sink failed for %s: %s", event.EventType, err)
	}
}
