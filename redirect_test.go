package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	session "github.com/goliatone/go-social-session"
)

func TestRedirectPolicy_Decide(t *testing.T) {
	policy := session.NewRedirectPolicy(session.DefaultRoutes())

	admin := session.Session{UserID: "a", Role: session.RoleAdmin, IsVerified: true}
	verified := session.Session{UserID: "u", Role: session.RoleUser, IsVerified: true}
	unverified := session.Session{UserID: "n", Role: session.RoleUser}

	tests := []struct {
		name     string
		state    session.State
		location string
		expected session.Decision
	}{
		{
			name:     "unauthenticated on public path stays",
			state:    session.State{Outcome: session.OutcomeUnauthenticated},
			location: "/login",
		},
		{
			name:     "unauthenticated on private path goes home",
			state:    session.State{Outcome: session.OutcomeUnauthenticated},
			location: "/posts",
			expected: session.Decision{Action: session.ActionHome, Target: "/"},
		},
		{
			name:     "expired on private path goes to flagged login",
			state:    session.State{Outcome: session.OutcomeExpired},
			location: "/posts/42?tab=comments",
			expected: session.Decision{Action: session.ActionLogin, Target: "/login?expired=true"},
		},
		{
			name:     "invalid on public path stays",
			state:    session.State{Outcome: session.OutcomeInvalid},
			location: "/register",
		},
		{
			name:     "user on admin path goes home",
			state:    session.State{Outcome: session.OutcomeValid, Session: verified},
			location: "/admin/users",
			expected: session.Decision{Action: session.ActionHome, Target: "/"},
		},
		{
			name:     "admin on admin path stays",
			state:    session.State{Outcome: session.OutcomeValid, Session: admin},
			location: "/admin/users",
		},
		{
			name:     "admin on login goes to admin home",
			state:    session.State{Outcome: session.OutcomeValid, Session: admin},
			location: "/login",
			expected: session.Decision{Action: session.ActionAdminHome, Target: "/admin"},
		},
		{
			name:     "unverified admin on register still goes to admin home",
			state:    session.State{Outcome: session.OutcomeValid, Session: session.Session{Role: session.RoleAdmin}},
			location: "/register/",
			expected: session.Decision{Action: session.ActionAdminHome, Target: "/admin"},
		},
		{
			name:     "verified user on login goes home",
			state:    session.State{Outcome: session.OutcomeValid, Session: verified},
			location: "/login",
			expected: session.Decision{Action: session.ActionHome, Target: "/"},
		},
		{
			name:     "unverified user on login stays",
			state:    session.State{Outcome: session.OutcomeValid, Session: unverified},
			location: "/login",
		},
		{
			name:     "verified user elsewhere stays",
			state:    session.State{Outcome: session.OutcomeValid, Session: verified},
			location: "/posts",
		},
		{
			name:     "absolute URL is reduced to its path",
			state:    session.State{Outcome: session.OutcomeUnauthenticated},
			location: "https://social.example.com/groups?page=2",
			expected: session.Decision{Action: session.ActionHome, Target: "/"},
		},
		{
			name:     "admin prefix does not match lookalike paths",
			state:    session.State{Outcome: session.OutcomeValid, Session: verified},
			location: "/administrators",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Decide(tt.state, tt.location)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, policy.Decide(tt.state, tt.location), "decisions must be deterministic")
		})
	}
}

func TestRedirectPolicy_PublicWildcard(t *testing.T) {
	routes := session.DefaultRoutes()
	routes.Public = append(routes.Public, "/static/*")
	policy := session.NewRedirectPolicy(routes)

	assert.True(t, policy.IsPublic("/static"))
	assert.True(t, policy.IsPublic("/static/css/site.css"))
	assert.False(t, policy.IsPublic("/staticfiles"))
	assert.True(t, policy.IsPublic("/login?expired=true"))
	assert.False(t, policy.IsPublic("/posts"))
}

func TestRedirectPolicy_CustomRoutes(t *testing.T) {
	policy := session.NewRedirectPolicy(session.Routes{
		Login:      "/signin",
		ExpiredKey: "stale",
	})

	routes := policy.Routes()
	assert.Equal(t, "/signin", routes.Login)
	assert.Equal(t, "/register", routes.Register, "missing routes fall back to defaults")

	assert.Equal(t, "/signin?stale=true", policy.ExpiredLogin().Target)
	assert.Equal(t, session.ActionVerify, policy.VerifyStep().Action)
	assert.Equal(t, "/admin", policy.ForRole(session.Session{Role: session.RoleAdmin}).Target)
	assert.Equal(t, "/", policy.ForRole(session.Session{Role: session.RoleUser}).Target)
}

func TestOutcomeAndActionStrings(t *testing.T) {
	assert.Equal(t, "valid", session.OutcomeValid.String())
	assert.Equal(t, "expired", session.OutcomeExpired.String())
	assert.Equal(t, "admin_home", session.ActionAdminHome.String())
	assert.True(t, session.Decision{}.IsNoop())
}
