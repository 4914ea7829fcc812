package session

import (
	"context"
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Error(format string, args ...any)
}

// TokenStore persists the bearer token under a single known key.
// Get returns an empty string when no token is stored.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// Navigator moves the client to a new location. Location reports where the
// client currently is so the redirect policy can be applied to it.
type Navigator interface {
	Location() string
	Navigate(ctx context.Context, decision Decision) error
}

// Config holds session client options
type Config interface {
	GetBaseURL() string
	GetTokenKey() string
	GetSigningKey() string
	GetJWKSURL() string
	GetGraceWindow() time.Duration
	GetValidationInterval() time.Duration
	GetActivityDebounce() time.Duration
	GetRequestTimeout() time.Duration
	GetRoutes() Routes
	GetEndpoints() Endpoints
}

// Clock returns the current time, tests swap it for a fixed one
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
