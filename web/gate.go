package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goliatone/go-router"

	session "github.com/goliatone/go-social-session"
)

const (
	LocalsSession = "session"
	LocalsOutcome = "session_outcome"
)

// GateConfig configures the per request session gate
type GateConfig struct {
	// Filter skips the gate when it returns true
	Filter func(ctx router.Context) bool

	Decoder session.TokenDecoder
	Policy  *session.RedirectPolicy
	Metrics *session.MetricsSink
	Logger  session.Logger
	Clock   session.Clock

	// TokenLookup defaults to "header:Authorization,cookie:<CookieName>"
	TokenLookup  string
	AuthScheme   string
	CookieName   string
	CookieSecure bool
	// GraceWindow zero means session.DefaultGraceWindow, negative disables it
	GraceWindow time.Duration
}

func (cfg GateConfig) withDefaults() GateConfig {
	if cfg.Decoder == nil {
		cfg.Decoder = session.NewUnverifiedDecoder()
	}
	if cfg.Policy == nil {
		cfg.Policy = session.NewRedirectPolicy(session.DefaultRoutes())
	}
	if cfg.Logger == nil {
		cfg.Logger = defLogger{}
	}
	if cfg.CookieName == "" {
		cfg.CookieName = session.DefaultTokenKey
	}
	if cfg.TokenLookup == "" {
		cfg.TokenLookup = fmt.Sprintf("header:%s,cookie:%s", "Authorization", cfg.CookieName)
	}
	cfg.GraceWindow = graceWindow(cfg.GraceWindow)
	return cfg
}

func graceWindow(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return session.DefaultGraceWindow
	case d < 0:
		return 0
	default:
		return d
	}
}

// Gate validates the request token and applies the redirect policy to the
// request path. Valid sessions are exposed through Locals and the request
// context; invalid or expired tokens have their cookie removed.
func Gate(config GateConfig) router.MiddlewareFunc {
	cfg := config.withDefaults()
	extractors := GetExtractors(cfg.TokenLookup, cfg.AuthScheme)

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			token := ExtractToken(ctx, extractors)
			outcome, sess, err := session.Evaluate(token, cfg.Decoder, cfg.Clock.Now(), cfg.GraceWindow)
			if err != nil {
				cfg.Logger.Info("session gate %s token on %s: %s", outcome, ctx.Path(), err)
				ClearTokenCookie(ctx, cfg.CookieName, cfg.CookieSecure)
			}

			decision := cfg.Policy.Decide(session.State{Outcome: outcome, Session: sess}, ctx.OriginalURL())
			if cfg.Metrics != nil {
				cfg.Metrics.ObserveDecision(outcome, decision)
			}

			if !decision.IsNoop() {
				cfg.Logger.Debug("session gate redirect %s -> %s (%s)", ctx.Path(), decision.Target, decision.Action)
				return ctx.Redirect(decision.Target, redirectStatus(ctx))
			}

			ctx.Locals(LocalsOutcome, outcome)
			if outcome == session.OutcomeValid {
				ctx.Locals(LocalsSession, sess)
				ctx.SetContext(session.WithContext(ctx.Context(), sess))
			}

			return ctx.Next()
		}
	}
}

// CurrentSession returns the session the gate stored for this request
func CurrentSession(ctx router.Context) (session.Session, bool) {
	sess, ok := ctx.Locals(LocalsSession).(session.Session)
	return sess, ok
}

func redirectStatus(ctx router.Context) int {
	if ctx.Method() == http.MethodGet || ctx.Method() == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}

type defLogger struct{}

func (defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] WEB "+format+"\n", args...)
}

func (defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] WEB "+format+"\n", args...)
}

func (defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] WEB "+format+"\n", args...)
}
