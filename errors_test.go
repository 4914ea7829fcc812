package session_test

import (
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"

	session "github.com/goliatone/go-social-session"
)

func TestIsTokenExpiredError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "Structured token expired error",
			err:      session.ErrTokenExpired,
			expected: true,
		},
		{
			name:     "Cloned token expired error",
			err:      session.ErrTokenExpired.Clone(),
			expected: true,
		},
		{
			name:     "Foreign error (string match)",
			err:      errors.New("some wrapper: token is expired"),
			expected: true,
		},
		{
			name:     "Different structured error",
			err:      session.ErrTokenMalformed,
			expected: false,
		},
		{
			name:     "Nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, session.IsTokenExpiredError(tt.err))
		})
	}
}

func TestIsMalformedError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{name: "Structured", err: session.ErrTokenMalformed, expected: true},
		{name: "Foreign", err: errors.New("token is malformed: bad segment"), expected: true},
		{name: "Expired", err: session.ErrTokenExpired, expected: false},
		{name: "Nil", err: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, session.IsMalformedError(tt.err))
		})
	}
}

func TestErrorCategories(t *testing.T) {
	var richErr *goerrors.Error

	assert.True(t, goerrors.As(session.ErrNotAuthenticated, &richErr))
	assert.Equal(t, goerrors.CategoryAuth, richErr.Category)
	assert.Equal(t, goerrors.CodeUnauthorized, richErr.Code)
	assert.Equal(t, session.TextCodeNotAuthenticated, richErr.TextCode)
}
