package web_test

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/require"
)

var signingKey = []byte("web-test-secret")

func signToken(t *testing.T, role string, verified bool, exp time.Time) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub":        "user-1",
		"userId":     "0b8e6a4c-4a8d-4c66-9c39-1f6a3f4b2d11",
		"email":      "jane@example.com",
		"username":   "jane",
		"role":       role,
		"isVerified": verified,
		"iat":        time.Now().Add(-time.Minute).Unix(),
		"exp":        exp.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)
	return signed
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// newRouterApp runs mount against a go-router server over a bare fiber app
// and returns the fiber app for app.Test.
func newRouterApp(t *testing.T, mount func(r router.Router[*fiber.App])) *fiber.App {
	t.Helper()

	var app *fiber.App
	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app = fiber.New(fiber.Config{DisableStartupMessage: true})
		return app
	})
	mount(srv.Router())

	require.NotNil(t, app)
	return app
}
