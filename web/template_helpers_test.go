package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-social-session"
	"github.com/goliatone/go-social-session/web"
)

// renderData runs a gated request and returns what MergeTemplateData built
func renderData(t *testing.T, token string, data router.ViewContext) router.ViewContext {
	t.Helper()

	var got router.ViewContext
	app := newRouterApp(t, func(r router.Router[*fiber.App]) {
		r.Use(web.Gate(web.GateConfig{Decoder: session.NewHMACDecoder(signingKey)}))
		r.Get("/", func(ctx router.Context) error {
			ctx.Locals(web.LocalsCSRFField, "<input>")
			got = web.MergeTemplateData(ctx, data)
			return ctx.Status(http.StatusNoContent).SendString("")
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	_, err := app.Test(req)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

func TestMergeTemplateData(t *testing.T) {
	got := renderData(t,
		signToken(t, "ROLE_ADMIN", true, time.Now().Add(time.Hour)),
		router.ViewContext{"title": "Home", "roles": "overridden"},
	)

	assert.Equal(t, "Home", got["title"])
	assert.Equal(t, "overridden", got["roles"], "request data wins over helpers")
	assert.Equal(t, "<input>", got[web.LocalsCSRFField])

	user, ok := got[web.TemplateUserKey].(session.Session)
	require.True(t, ok)
	assert.Equal(t, session.RoleAdmin, user.Role)

	isAuthenticated := got["is_authenticated"].(func(any) bool)
	hasRole := got["has_role"].(func(any, string) bool)
	isAtLeast := got["is_at_least"].(func(any, string) bool)

	assert.True(t, isAuthenticated(user))
	assert.False(t, isAuthenticated(nil))
	assert.False(t, isAuthenticated((*session.Session)(nil)))
	assert.True(t, hasRole(user, "ADMIN"))
	assert.True(t, hasRole(&user, "admin"))
	assert.False(t, hasRole(user, "user"))
	assert.True(t, isAtLeast(user, "user"))
	assert.False(t, isAtLeast(session.Session{UserID: "u", Role: session.RoleUser}, "ROLE_ADMIN"))
}

func TestMergeTemplateData_Anonymous(t *testing.T) {
	got := renderData(t, "", nil)

	assert.Nil(t, got[web.TemplateUserKey])

	isAuthenticated := got["is_authenticated"].(func(any) bool)
	assert.False(t, isAuthenticated(got[web.TemplateUserKey]))
}

func TestMergeTemplateData_SessionWithoutUserID(t *testing.T) {
	claims := jwt.MapClaims{
		"email": "anon-id@example.com",
		"role":  "USER",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)

	got := renderData(t, token, nil)

	user, ok := got[web.TemplateUserKey].(session.Session)
	require.True(t, ok, "a valid token is a session even without id claims")
	assert.Empty(t, user.UserID)

	isAuthenticated := got["is_authenticated"].(func(any) bool)
	assert.True(t, isAuthenticated(user))
}
