package web_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	session "github.com/goliatone/go-social-session"
	"github.com/goliatone/go-social-session/web"
)

func newGateApp(t *testing.T, metrics *session.MetricsSink) *fiber.App {
	t.Helper()

	return newRouterApp(t, func(r router.Router[*fiber.App]) {
		r.Use(web.Gate(web.GateConfig{
			Decoder:     session.NewHMACDecoder(signingKey),
			Metrics:     metrics,
			GraceWindow: session.DefaultGraceWindow,
		}))

		handler := func(ctx router.Context) error {
			sess, ok := web.CurrentSession(ctx)
			if !ok {
				return ctx.SendString("anonymous")
			}
			ctxSess, _ := session.FromContext(ctx.Context())
			return ctx.SendString(sess.Email + "|" + ctxSess.Role.String())
		}

		for _, path := range []string{"/", "/login", "/register", "/posts", "/profile", "/admin", "/admin/users"} {
			r.Get(path, handler)
		}
		r.Post("/posts", handler)
	})
}

func TestGate_Redirects(t *testing.T) {
	future := time.Now().Add(time.Hour)

	tests := []struct {
		name     string
		method   string
		path     string
		token    func(t *testing.T) string
		status   int
		location string
	}{
		{
			name:     "admin on login goes to admin home",
			path:     "/login",
			token:    func(t *testing.T) string { return signToken(t, "ROLE_ADMIN", true, future) },
			status:   fiber.StatusFound,
			location: "/admin",
		},
		{
			name:     "verified user on register goes home",
			path:     "/register",
			token:    func(t *testing.T) string { return signToken(t, "USER", true, future) },
			status:   fiber.StatusFound,
			location: "/",
		},
		{
			name:     "user on admin path goes home",
			path:     "/admin/users",
			token:    func(t *testing.T) string { return signToken(t, "USER", true, future) },
			status:   fiber.StatusFound,
			location: "/",
		},
		{
			name:     "anonymous on private path goes home",
			path:     "/posts",
			token:    func(t *testing.T) string { return "" },
			status:   fiber.StatusFound,
			location: "/",
		},
		{
			name:     "garbage token on private path goes to expired login",
			path:     "/profile",
			token:    func(t *testing.T) string { return "not-a-token" },
			status:   fiber.StatusFound,
			location: "/login?expired=true",
		},
		{
			name:     "token inside the grace window counts as expired",
			path:     "/posts",
			token:    func(t *testing.T) string { return signToken(t, "USER", true, time.Now().Add(30*time.Second)) },
			status:   fiber.StatusFound,
			location: "/login?expired=true",
		},
		{
			name:     "non GET redirects with see other",
			method:   http.MethodPost,
			path:     "/posts",
			token:    func(t *testing.T) string { return "" },
			status:   fiber.StatusSeeOther,
			location: "/",
		},
	}

	app := newGateApp(t, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req := httptest.NewRequest(method, tt.path, nil)
			if token := tt.token(t); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestGate_ValidSessionReachesHandler(t *testing.T) {
	app := newGateApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: signToken(t, "admin", true, time.Now().Add(time.Hour))})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := readBody(t, resp)
	assert.Equal(t, "jane@example.com|admin", body)
}

func TestGate_PublicPathWithBadTokenClearsCookie(t *testing.T) {
	app := newGateApp(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "garbage"})

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "anonymous", readBody(t, resp))

	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == "token" && c.Value == "" {
			cleared = true
		}
	}
	assert.True(t, cleared, "invalid token cookie should be removed")
}

func TestGate_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := session.NewMetricsSink(reg, "gate_test")
	require.NoError(t, err)

	app := newGateApp(t, metrics)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/posts", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	expected := `
# HELP gate_test_redirects_total Redirects issued by the session redirect policy.
# TYPE gate_test_redirects_total counter
gate_test_redirects_total{action="home"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "gate_test_redirects_total"))
}

func TestGetExtractors(t *testing.T) {
	extractors := web.GetExtractors("header:Authorization,query:auth_token,cookie:jwt")
	require.Len(t, extractors, 3)

	app := newRouterApp(t, func(r router.Router[*fiber.App]) {
		r.Get("/", func(ctx router.Context) error {
			return ctx.SendString(web.ExtractToken(ctx, extractors))
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/?auth_token=from-query", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "from-query", readBody(t, resp), "non bearer header falls through to query")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "from-cookie"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "from-header", readBody(t, resp), "header wins over cookie")

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "from-cookie"})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "from-cookie", readBody(t, resp))
}

func TestGate_GraceWindowDefaults(t *testing.T) {
	soon := time.Now().Add(30 * time.Second)

	tests := []struct {
		name     string
		grace    time.Duration
		status   int
		location string
	}{
		{name: "zero uses the default window", grace: 0, status: fiber.StatusFound, location: "/login?expired=true"},
		{name: "explicit window", grace: time.Minute, status: fiber.StatusFound, location: "/login?expired=true"},
		{name: "negative disables it", grace: -1, status: fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newRouterApp(t, func(r router.Router[*fiber.App]) {
				r.Use(web.Gate(web.GateConfig{
					Decoder:     session.NewHMACDecoder(signingKey),
					GraceWindow: tt.grace,
				}))
				r.Get("/posts", func(ctx router.Context) error { return ctx.SendString("posts") })
			})

			req := httptest.NewRequest(http.MethodGet, "/posts", nil)
			req.Header.Set(fiber.HeaderAuthorization, "Bearer "+signToken(t, "USER", true, soon))

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get(fiber.HeaderLocation))
		})
	}
}
