package session_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-social-session"
)

func TestSession_Helpers(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sess := session.Session{
		UserID:     "0b8e6a4c-4a8d-4c66-9c39-1f6a3f4b2d11",
		Email:      "jane@example.com",
		Username:   "jane",
		Role:       session.RoleAdmin,
		RawRole:    "ROLE_ADMIN",
		IsVerified: true,
		IssuedAt:   now.Add(-time.Hour),
		ExpiresAt:  now.Add(90 * time.Second),
	}

	id, err := sess.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("0b8e6a4c-4a8d-4c66-9c39-1f6a3f4b2d11"), id)

	assert.True(t, sess.IsAdmin())
	assert.Equal(t, 90*time.Second, sess.ExpiresIn(now))
	assert.Contains(t, sess.String(), "role=admin")
	assert.Contains(t, sess.String(), "verified=true")

	sess.UserID = "user-1"
	_, err = sess.UserUUID()
	assert.Error(t, err)
}
