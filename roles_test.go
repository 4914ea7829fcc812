package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	session "github.com/goliatone/go-social-session"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		raw      string
		expected session.Role
	}{
		{raw: "ADMIN", expected: session.RoleAdmin},
		{raw: "ROLE_ADMIN", expected: session.RoleAdmin},
		{raw: "admin", expected: session.RoleAdmin},
		{raw: "role_admin", expected: session.RoleAdmin},
		{raw: " Admin ", expected: session.RoleAdmin},
		{raw: "USER", expected: session.RoleUser},
		{raw: "ROLE_USER", expected: session.RoleUser},
		{raw: "moderator", expected: session.RoleUser},
		{raw: "", expected: session.RoleUser},
		{raw: "ROLE_", expected: session.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, session.NormalizeRole(tt.raw))
		})
	}
}

func TestRole_Helpers(t *testing.T) {
	assert.True(t, session.RoleAdmin.IsAdmin())
	assert.False(t, session.RoleUser.IsAdmin())

	assert.True(t, session.RoleUser.IsValid())
	assert.False(t, session.Role("owner").IsValid())

	assert.True(t, session.RoleAdmin.IsAtLeast(session.RoleUser))
	assert.True(t, session.RoleUser.IsAtLeast(session.RoleUser))
	assert.False(t, session.RoleUser.IsAtLeast(session.RoleAdmin))
	assert.False(t, session.Role("owner").IsAtLeast(session.RoleUser))

	assert.Equal(t, "admin", session.RoleAdmin.String())
}
