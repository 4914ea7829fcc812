package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-social-session"
)

var testKey = []byte("session-test-secret")

const testUserID = "0b8e6a4c-4a8d-4c66-9c39-1f6a3f4b2d11"

// fixed instant all clock dependent tests share
var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() session.Clock {
	return func() time.Time { return testNow }
}

type tokenOpts struct {
	role     string
	verified bool
	exp      time.Time
	noExp    bool
	extra    jwt.MapClaims
}

func signToken(t *testing.T, opts tokenOpts) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":        "jane@example.com",
		"userId":     testUserID,
		"email":      "jane@example.com",
		"username":   "jane",
		"role":       opts.role,
		"isVerified": opts.verified,
		"iat":        testNow.Add(-time.Minute).Unix(),
	}
	if !opts.noExp {
		exp := opts.exp
		if exp.IsZero() {
			exp = testNow.Add(time.Hour)
		}
		claims["exp"] = exp.Unix()
	}
	for k, v := range opts.extra {
		claims[k] = v
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
	require.NoError(t, err)
	return signed
}

type recordingSink struct {
	mu     sync.Mutex
	events []session.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, e session.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingSink) Types() []session.ActivityEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]session.ActivityEventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.EventType)
	}
	return out
}

// failingTokens fails every call with err
type failingTokens struct {
	err error
}

func (f failingTokens) Get(context.Context) (string, error) { return "", f.err }
func (f failingTokens) Set(context.Context, string) error   { return f.err }
func (f failingTokens) Delete(context.Context) error        { return f.err }

var errStorage = errors.New("storage unavailable")

type quietLogger struct{}

func (quietLogger) Debug(string, ...any) {}
func (quietLogger) Info(string, ...any)  {}
func (quietLogger) Error(string, ...any) {}
