package web

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-router"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	session "github.com/goliatone/go-social-session"
)

//go:embed views
var viewsFS embed.FS

const metricsPath = "/metrics"

// AppConfig wires the server rendered front end
type AppConfig struct {
	Options  *session.Options
	Client   *session.Client
	Decoder  session.TokenDecoder
	Logger   session.Logger
	Sink     session.ActivitySink
	Clock    session.Clock
	Registry *prometheus.Registry
	// Metrics is created on Registry when nil
	Metrics *session.MetricsSink
}

// NewViewEngine returns the django engine over the embedded templates
func NewViewEngine() (*django.Engine, error) {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		return nil, err
	}
	return django.NewFileSystem(http.FS(sub), ".html"), nil
}

// Server is the go-router server together with the fiber app it runs on
type Server struct {
	router.Server[*fiber.App]
	app *fiber.App
}

// App returns the underlying fiber app
func (s *Server) App() *fiber.App {
	return s.app
}

// Test runs req through the app without a listener
func (s *Server) Test(req *http.Request, msTimeout ...int) (*http.Response, error) {
	return s.app.Test(req, msTimeout...)
}

// Listen blocks serving addr until the app is shut down
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) ShutdownWithContext(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// NewApp builds the server: go-router over fiber with the session gate,
// CSRF when a key is configured, the auth controller routes and, when a
// registry is given and metrics are on, the prometheus endpoint.
func NewApp(cfg AppConfig) (*Server, error) {
	opts := cfg.Options
	if opts == nil {
		opts = session.DefaultOptions()
	}

	engine, err := NewViewEngine()
	if err != nil {
		return nil, err
	}

	policy := session.NewRedirectPolicy(opts.GetRoutes())

	metricsOn := cfg.Registry != nil && opts.Web.Metrics

	var metrics *session.MetricsSink
	sink := cfg.Sink
	if metricsOn {
		metrics = cfg.Metrics
		if metrics == nil {
			metrics, err = session.NewMetricsSink(cfg.Registry, "")
			if err != nil {
				return nil, err
			}
		}
		sink = session.MultiActivitySink{cfg.Sink, metrics}
	}

	var app *fiber.App
	srv := router.NewFiberAdapter(func(_ *fiber.App) *fiber.App {
		app = fiber.New(fiber.Config{
			Views:                 engine,
			PassLocalsToViews:     true,
			DisableStartupMessage: true,
		})
		if metricsOn {
			app.Get(metricsPath, adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{})))
		}
		return app
	})

	r := srv.Router()

	r.Use(Gate(GateConfig{
		Filter: func(ctx router.Context) bool {
			return strings.HasPrefix(ctx.Path(), metricsPath) || ctx.Path() == "/favicon.ico"
		},
		Decoder:      cfg.Decoder,
		Policy:       policy,
		Metrics:      metrics,
		Logger:       cfg.Logger,
		Clock:        cfg.Clock,
		CookieName:   opts.GetTokenKey(),
		CookieSecure: opts.Web.CookieSecure,
		GraceWindow:  opts.GetGraceWindow(),
	}))

	if key := opts.Web.CSRFKey; key != "" {
		csrf, err := CSRF(CSRFConfig{
			SecureKey: []byte(key),
			Clock:     cfg.Clock,
		})
		if err != nil {
			return nil, err
		}
		r.Use(csrf)
	}

	controller := NewController(cfg.Client, cfg.Decoder, policy,
		WithControllerLogger(cfg.Logger),
		WithControllerActivitySink(sink),
		WithControllerClock(cfg.Clock),
		WithCookie(opts.GetTokenKey(), opts.Web.CookieSecure),
		WithControllerGraceWindow(opts.GetGraceWindow()),
		WithControllerDebug(opts.Debug),
	)
	RegisterRoutes(r, controller)

	return &Server{Server: srv, app: app}, nil
}
