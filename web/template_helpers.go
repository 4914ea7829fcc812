package web

import (
	"maps"

	"github.com/goliatone/go-router"

	session "github.com/goliatone/go-social-session"
)

var TemplateUserKey = "current_user"

// TemplateHelpers returns the functions and constants every view gets.
//
// In templates:
//
//	{% if is_authenticated(current_user) %}
//	{% if has_role(current_user, "admin") %}
//	{% if is_at_least(current_user, roles.admin) %}
func TemplateHelpers() router.ViewContext {
	return router.ViewContext{
		"is_authenticated": isAuthenticated,
		"has_role":         hasRole,
		"is_at_least":      isAtLeast,
		"roles": map[string]string{
			"user":  session.RoleUser.String(),
			"admin": session.RoleAdmin.String(),
		},
	}
}

// MergeTemplateData layers the helpers, the CSRF locals, the request
// session as current_user, and data. Keys in data win. current_user is nil
// when the gate found no valid session.
func MergeTemplateData(ctx router.Context, data router.ViewContext) router.ViewContext {
	out := TemplateHelpers()
	for _, key := range []string{LocalsCSRFToken, LocalsCSRFField} {
		if v := ctx.Locals(key); v != nil {
			out[key] = v
		}
	}

	out[TemplateUserKey] = nil
	if sess, ok := CurrentSession(ctx); ok {
		out[TemplateUserKey] = sess
	}

	maps.Copy(out, data)
	return out
}

// sessionOf reports whether user holds a session. Presence is what counts,
// claims such as the user id may legitimately be empty.
func sessionOf(user any) (session.Session, bool) {
	switch u := user.(type) {
	case session.Session:
		return u, true
	case *session.Session:
		if u == nil {
			return session.Session{}, false
		}
		return *u, true
	default:
		return session.Session{}, false
	}
}

func isAuthenticated(user any) bool {
	_, ok := sessionOf(user)
	return ok
}

func hasRole(user any, role string) bool {
	sess, ok := sessionOf(user)
	return ok && sess.Role == session.NormalizeRole(role)
}

func isAtLeast(user any, minRole string) bool {
	sess, ok := sessionOf(user)
	return ok && sess.Role.IsAtLeast(session.NormalizeRole(minRole))
}
