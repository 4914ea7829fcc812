package session

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenMissing     = "session_token_missing"
	TextCodeTokenMalformed   = "session_token_malformed"
	TextCodeTokenExpired     = "session_token_expired"
	TextCodeNotAuthenticated = "session_not_authenticated"
	TextCodeBackend          = "session_backend_error"
	TextCodeInvalidPayload   = "session_invalid_payload"
)

// ErrTokenMissing is returned when an operation requires a stored token
var ErrTokenMissing = errors.New("no session token stored", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMissing).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned when a token can not be decoded
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its expiry
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrNotAuthenticated is returned when an operation needs a valid session
var ErrNotAuthenticated = errors.New("a valid session is required", errors.CategoryAuth).
	WithTextCode(TextCodeNotAuthenticated).
	WithCode(errors.CodeUnauthorized)

// ErrBackendResponse is the base for unexpected backend responses
var ErrBackendResponse = errors.New("unexpected backend response", errors.CategoryOperation).
	WithTextCode(TextCodeBackend).
	WithCode(errors.CodeInternal)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.TextCode == TextCodeTokenMalformed {
		return true
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

func malformed(cause error, reason string) error {
	clone := ErrTokenMalformed.Clone()
	clone.Source = cause
	return clone.WithMetadata(map[string]any{
		"reason": reason,
	})
}
