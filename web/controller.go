package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	session "github.com/goliatone/go-social-session"
)

// ControllerViews names the templates the controller renders
type ControllerViews struct {
	Login    string
	Register string
	Verify   string
	Home     string
	Admin    string
}

// Controller serves the login, registration, and verification forms and
// proxies them to the backend auth API.
type Controller struct {
	Client       *session.Client
	Decoder      session.TokenDecoder
	Policy       *session.RedirectPolicy
	Logger       session.Logger
	Sink         session.ActivitySink
	Clock        session.Clock
	Views        ControllerViews
	CookieName   string
	CookieSecure bool
	GraceWindow  time.Duration
	Debug        bool
}

type ControllerOption func(*Controller) *Controller

func WithControllerLogger(l session.Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if l != nil {
			c.Logger = l
		}
		return c
	}
}

func WithControllerActivitySink(s session.ActivitySink) ControllerOption {
	return func(c *Controller) *Controller {
		if s != nil {
			c.Sink = s
		}
		return c
	}
}

func WithControllerClock(clock session.Clock) ControllerOption {
	return func(c *Controller) *Controller {
		c.Clock = clock
		return c
	}
}

func WithCookie(name string, secure bool) ControllerOption {
	return func(c *Controller) *Controller {
		if name != "" {
			c.CookieName = name
		}
		c.CookieSecure = secure
		return c
	}
}

// WithControllerGraceWindow follows GateConfig.GraceWindow: zero keeps the
// default, negative disables the grace window.
func WithControllerGraceWindow(d time.Duration) ControllerOption {
	return func(c *Controller) *Controller {
		c.GraceWindow = graceWindow(d)
		return c
	}
}

func WithControllerDebug(debug bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.Debug = debug
		return c
	}
}

func NewController(client *session.Client, decoder session.TokenDecoder, policy *session.RedirectPolicy, opts ...ControllerOption) *Controller {
	c := &Controller{
		Client:      client,
		Decoder:     decoder,
		Policy:      policy,
		Logger:      defLogger{},
		CookieName:  session.DefaultTokenKey,
		GraceWindow: session.DefaultGraceWindow,
		Views: ControllerViews{
			Login:    "login",
			Register: "register",
			Verify:   "verify",
			Home:     "home",
			Admin:    "admin",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Client == nil {
		panic("Missing backend client in session controller...")
	}

	if c.Decoder == nil {
		c.Decoder = session.NewUnverifiedDecoder()
	}

	if c.Policy == nil {
		c.Policy = session.NewRedirectPolicy(session.DefaultRoutes())
	}

	return c
}

// RegisterRoutes mounts the controller routes on app. Middleware such as
// Gate and CSRF must be added with app.Use before calling it.
func RegisterRoutes[T any](app router.Router[T], controller *Controller) {
	routes := controller.Policy.Routes()

	app.Get(routes.Login, controller.LoginShow).SetName("session.login")
	app.Post(routes.Login, controller.LoginPost).SetName("session.login.post")

	app.Get(routes.Register, controller.RegistrationShow).SetName("session.register")
	app.Post(routes.Register, controller.RegistrationCreate).SetName("session.register.post")

	app.Get(routes.Verify, controller.VerifyShow).SetName("session.verify")
	app.Post(routes.Verify, controller.VerifyPost).SetName("session.verify.post")
	app.Post(routes.Verify+"/resend", controller.VerifyResend).SetName("session.verify.resend")

	app.Get("/logout", controller.LogOut).SetName("session.logout")

	app.Get(routes.Home, controller.Home).SetName("session.home")
	app.Get(routes.AdminHome, controller.AdminHome).SetName("session.admin")
}

func (a *Controller) LoginShow(ctx router.Context) error {
	return a.render(ctx, http.StatusOK, a.Views.Login, router.ViewContext{
		"errors":  map[string]string{},
		"record":  session.LoginRequest{},
		"expired": ctx.Query(a.Policy.Routes().ExpiredKey, "") == "true",
	})
}

func (a *Controller) LoginPost(ctx router.Context) error {
	payload := new(session.LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload: %s", err)
		return a.render(ctx, http.StatusBadRequest, a.Views.Login, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return a.render(ctx, http.StatusUnprocessableEntity, a.Views.Login, router.ViewContext{
			"errors": session.FormatValidationErrors(err),
			"record": payload,
		})
	}

	if a.Debug {
		a.Logger.Debug("login attempt %s", print.MaybePrettyJSON(map[string]string{"email": payload.Email}))
	}

	res, err := a.Client.Login(session.WithBearer(ctx.Context(), ""), *payload)
	if err != nil {
		a.record(ctx.Context(), session.ActivityEvent{
			EventType: session.ActivityEventLoginFailure,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return a.render(ctx, statusFor(err), a.Views.Login, router.ViewContext{
			"errors": map[string]string{"authentication": messageFor(err, "Authentication Error")},
			"record": payload,
		})
	}

	sess, err := a.adopt(ctx, res.BearerToken())
	if err != nil {
		a.Logger.Error("login rejected backend token: %s", err)
		return a.render(ctx, http.StatusBadGateway, a.Views.Login, router.ViewContext{
			"errors": map[string]string{"authentication": "Authentication Error"},
			"record": payload,
		})
	}

	a.record(ctx.Context(), session.ActivityEvent{
		EventType: session.ActivityEventLoginSuccess,
		UserID:    sess.UserID,
		Role:      sess.Role,
	})

	return ctx.Redirect(a.Policy.ForRole(sess).Target, http.StatusSeeOther)
}

func (a *Controller) RegistrationShow(ctx router.Context) error {
	return a.render(ctx, http.StatusOK, a.Views.Register, router.ViewContext{
		"errors": map[string]string{},
		"record": session.RegisterRequest{},
	})
}

func (a *Controller) RegistrationCreate(ctx router.Context) error {
	payload := new(session.RegisterRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %s", err)
		return a.render(ctx, http.StatusBadRequest, a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return a.render(ctx, http.StatusUnprocessableEntity, a.Views.Register, router.ViewContext{
			"errors": session.FormatValidationErrors(err),
			"record": payload,
		})
	}

	res, err := a.Client.Register(session.WithBearer(ctx.Context(), ""), payload.Normalize())
	if err != nil {
		a.record(ctx.Context(), session.ActivityEvent{
			EventType: session.ActivityEventRegisterFailure,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return a.render(ctx, statusFor(err), a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": messageFor(err, "Registration failed")},
			"record": payload,
		})
	}

	sess, err := a.adopt(ctx, res.BearerToken())
	if err != nil {
		a.Logger.Error("register rejected backend token: %s", err)
		return a.render(ctx, http.StatusBadGateway, a.Views.Register, router.ViewContext{
			"errors": map[string]string{"form": "Registration failed"},
			"record": payload,
		})
	}

	a.record(ctx.Context(), session.ActivityEvent{
		EventType: session.ActivityEventRegisterSuccess,
		UserID:    sess.UserID,
		Role:      sess.Role,
	})

	return ctx.Redirect(a.Policy.VerifyStep().Target, http.StatusSeeOther)
}

func (a *Controller) VerifyShow(ctx router.Context) error {
	sess, _, redirect := a.requireSession(ctx)
	if redirect != nil {
		return ctx.Redirect(redirect.Target, http.StatusFound)
	}

	return a.render(ctx, http.StatusOK, a.Views.Verify, router.ViewContext{
		"errors":  map[string]string{},
		"session": sess,
	})
}

func (a *Controller) VerifyPost(ctx router.Context) error {
	sess, token, redirect := a.requireSession(ctx)
	if redirect != nil {
		return ctx.Redirect(redirect.Target, http.StatusSeeOther)
	}

	payload := new(session.VerifyRequest)
	if err := ctx.Bind(payload); err != nil {
		return a.render(ctx, http.StatusBadRequest, a.Views.Verify, router.ViewContext{
			"errors":  map[string]string{"form": "Failed to parse form"},
			"session": sess,
		})
	}

	if err := payload.Validate(); err != nil {
		return a.render(ctx, http.StatusUnprocessableEntity, a.Views.Verify, router.ViewContext{
			"errors":  session.FormatValidationErrors(err),
			"session": sess,
		})
	}

	res, err := a.Client.VerifyAccount(session.WithBearer(ctx.Context(), token), *payload)
	if err != nil {
		a.record(ctx.Context(), session.ActivityEvent{
			EventType: session.ActivityEventVerifyFailure,
			UserID:    sess.UserID,
			Role:      sess.Role,
			Metadata:  map[string]any{"error": err.Error()},
		})
		return a.render(ctx, statusFor(err), a.Views.Verify, router.ViewContext{
			"errors":  map[string]string{"code": messageFor(err, "Verification failed")},
			"session": sess,
		})
	}

	if next := res.BearerToken(); next != "" {
		updated, err := a.adopt(ctx, next)
		if err != nil {
			a.Logger.Error("verify rejected backend token: %s", err)
		} else {
			sess = updated
		}
	}

	a.record(ctx.Context(), session.ActivityEvent{
		EventType: session.ActivityEventVerifySuccess,
		UserID:    sess.UserID,
		Role:      sess.Role,
	})

	return ctx.Redirect(a.Policy.ForRole(sess).Target, http.StatusSeeOther)
}

func (a *Controller) VerifyResend(ctx router.Context) error {
	sess, token, redirect := a.requireSession(ctx)
	if redirect != nil {
		return ctx.Redirect(redirect.Target, http.StatusSeeOther)
	}

	req := session.ResendRequest{Email: sess.Email}
	if err := a.Client.ResendVerificationCode(session.WithBearer(ctx.Context(), token), req); err != nil {
		return a.render(ctx, statusFor(err), a.Views.Verify, router.ViewContext{
			"errors":  map[string]string{"form": messageFor(err, "Could not resend the code")},
			"session": sess,
		})
	}

	return a.render(ctx, http.StatusOK, a.Views.Verify, router.ViewContext{
		"errors":  map[string]string{},
		"session": sess,
		"message": "A new verification code was sent to " + sess.Email,
	})
}

// LogOut tells the backend best effort, then always drops the cookie
func (a *Controller) LogOut(ctx router.Context) error {
	token := ctx.Cookies(a.CookieName)
	if token != "" {
		if err := a.Client.Logout(session.WithBearer(ctx.Context(), token)); err != nil {
			a.Logger.Info("backend logout failed, clearing local session anyway: %s", err)
		}
	}

	ClearTokenCookie(ctx, a.CookieName, a.CookieSecure)

	sess, _ := CurrentSession(ctx)
	a.record(ctx.Context(), session.ActivityEvent{
		EventType: session.ActivityEventLogout,
		UserID:    sess.UserID,
		Role:      sess.Role,
	})

	return ctx.Redirect(a.Policy.Login().Target, http.StatusFound)
}

func (a *Controller) Home(ctx router.Context) error {
	return a.render(ctx, http.StatusOK, a.Views.Home, router.ViewContext{})
}

func (a *Controller) AdminHome(ctx router.Context) error {
	sess, ok := CurrentSession(ctx)
	if !ok || !sess.IsAdmin() {
		return ctx.Redirect(a.Policy.Home().Target, http.StatusFound)
	}
	return a.render(ctx, http.StatusOK, a.Views.Admin, router.ViewContext{
		"session": sess,
	})
}

// requireSession reads the token cookie for routes that need a session even
// though they are public to the gate.
func (a *Controller) requireSession(ctx router.Context) (session.Session, string, *session.Decision) {
	if sess, ok := CurrentSession(ctx); ok {
		return sess, ctx.Cookies(a.CookieName), nil
	}

	token := ctx.Cookies(a.CookieName)
	outcome, sess, err := session.Evaluate(token, a.Decoder, a.Clock.Now(), a.GraceWindow)
	switch outcome {
	case session.OutcomeValid:
		return sess, token, nil
	case session.OutcomeUnauthenticated:
		d := a.Policy.Login()
		return session.Session{}, "", &d
	default:
		a.Logger.Info("discarding %s token: %s", outcome, err)
		ClearTokenCookie(ctx, a.CookieName, a.CookieSecure)
		d := a.Policy.ExpiredLogin()
		return session.Session{}, "", &d
	}
}

// adopt only sets the cookie for tokens that validate
func (a *Controller) adopt(ctx router.Context, token string) (session.Session, error) {
	if token == "" {
		return session.Session{}, session.ErrTokenMissing
	}

	outcome, sess, err := session.Evaluate(token, a.Decoder, a.Clock.Now(), a.GraceWindow)
	if outcome != session.OutcomeValid {
		return session.Session{}, err
	}

	SetTokenCookie(ctx, a.CookieName, token, sess.ExpiresAt, a.CookieSecure)
	ctx.Locals(LocalsSession, sess)
	return sess, nil
}

func (a *Controller) record(ctx context.Context, event session.ActivityEvent) {
	if a.Sink == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = a.Clock.Now()
	}
	if err := a.Sink.Record(ctx, event); err != nil {
		a.Logger.Error("activity sink failed for %s: %s", event.EventType, err)
	}
}

// render binds views with a fiber.Map, the map type the django engine reads
func (a *Controller) render(ctx router.Context, status int, view string, data router.ViewContext) error {
	return ctx.Status(status).Render(view, fiber.Map(MergeTemplateData(ctx, data)))
}

func statusFor(err error) int {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Code >= 400 && richErr.Code < 500 {
		return richErr.Code
	}
	return http.StatusBadGateway
}

func messageFor(err error, fallback string) string {
	var richErr *errors.Error
	if errors.As(err, &richErr) && richErr.Message != "" {
		return richErr.Message
	}
	return fallback
}
