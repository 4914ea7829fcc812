package session

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// DefaultGraceWindow is subtracted from the token expiry so tokens about to
// expire are treated as expired already.
const DefaultGraceWindow = 60 * time.Second

// Result is the outcome of one validation run
type Result struct {
	Outcome  Outcome
	Session  Session
	Decision Decision
}

// Evaluate decodes token and classifies it. The returned error explains an
// invalid or expired outcome and is nil otherwise.
func Evaluate(token string, decoder TokenDecoder, now time.Time, grace time.Duration) (Outcome, Session, error) {
	if token == "" {
		return OutcomeUnauthenticated, Session{}, nil
	}

	claims, err := decoder.Decode(token)
	if err != nil {
		if IsTokenExpiredError(err) {
			return OutcomeExpired, Session{}, err
		}
		return OutcomeInvalid, Session{}, err
	}

	sess, err := sessionFromClaims(claims)
	if err != nil {
		return OutcomeInvalid, Session{}, err
	}

	if !sess.ExpiresAt.Add(-grace).After(now) {
		return OutcomeExpired, Session{}, ErrTokenExpired.Clone().WithMetadata(map[string]any{
			"expires_at": sess.ExpiresAt,
			"grace":      grace.String(),
		})
	}

	return OutcomeValid, sess, nil
}

// Validator checks the persisted token and keeps the Store in sync with it
type Validator struct {
	tokens    TokenStore
	decoder   TokenDecoder
	store     *Store
	policy    *RedirectPolicy
	navigator Navigator
	grace     time.Duration
	clock     Clock
	logger    Logger
	sink      ActivitySink
}

type ValidatorOption func(*Validator) *Validator

func WithGraceWindow(d time.Duration) ValidatorOption {
	return func(v *Validator) *Validator {
		if d >= 0 {
			v.grace = d
		}
		return v
	}
}

func WithValidatorClock(c Clock) ValidatorOption {
	return func(v *Validator) *Validator {
		v.clock = c
		return v
	}
}

func WithValidatorLogger(l Logger) ValidatorOption {
	return func(v *Validator) *Validator {
		v.logger = normalizeLogger(l)
		return v
	}
}

func WithValidatorActivitySink(s ActivitySink) ValidatorOption {
	return func(v *Validator) *Validator {
		v.sink = normalizeActivitySink(s)
		return v
	}
}

func WithNavigator(n Navigator) ValidatorOption {
	return func(v *Validator) *Validator {
		v.navigator = n
		return v
	}
}

func NewValidator(tokens TokenStore, decoder TokenDecoder, store *Store, policy *RedirectPolicy, opts ...ValidatorOption) *Validator {
	v := &Validator{
		tokens:  tokens,
		decoder: decoder,
		store:   store,
		policy:  policy,
		grace:   DefaultGraceWindow,
		logger:  defLogger{},
		sink:    noopActivitySink{},
	}

	for _, opt := range opts {
		v = opt(v)
	}

	if v.decoder == nil {
		v.decoder = NewUnverifiedDecoder()
	}

	if v.policy == nil {
		v.policy = NewRedirectPolicy(DefaultRoutes())
	}

	return v
}

func (v *Validator) Policy() *RedirectPolicy {
	return v.policy
}

func (v *Validator) Navigator() Navigator {
	return v.navigator
}

// Check evaluates the stored token, updates the Store, and computes the
// redirect decision for the current location without navigating.
func (v *Validator) Check(ctx context.Context) (Result, error) {
	token, err := v.tokens.Get(ctx)
	if err != nil {
		v.logger.Error("failed to read session token: %s", err)
		return Result{}, errors.Wrap(err, errors.CategoryOperation, "failed to read session token")
	}

	outcome, sess, evalErr := Evaluate(token, v.decoder, v.clock.Now(), v.grace)

	switch outcome {
	case OutcomeValid:
		v.store.Replace(sess)
		recordActivity(ctx, v.sink, v.logger, v.clock, ActivityEvent{
			EventType: ActivityEventSessionValid,
			UserID:    sess.UserID,
			Role:      sess.Role,
			Outcome:   outcome,
		})
	case OutcomeUnauthenticated:
		if _, had := v.store.Current(); had {
			recordActivity(ctx, v.sink, v.logger, v.clock, ActivityEvent{
				EventType: ActivityEventSessionCleared,
				Outcome:   outcome,
			})
		}
		v.store.Clear()
	default:
		v.logger.Info("discarding %s session token: %s", outcome, evalErr)
		if err := v.tokens.Delete(ctx); err != nil {
			v.logger.Error("failed to delete session token: %s", err)
		}
		v.store.Clear()

		eventType := ActivityEventSessionInvalid
		if outcome == OutcomeExpired {
			eventType = ActivityEventSessionExpired
		}
		recordActivity(ctx, v.sink, v.logger, v.clock, ActivityEvent{
			EventType: eventType,
			Outcome:   outcome,
		})
	}

	decision := v.policy.Decide(State{Outcome: outcome, Session: sess}, v.location())

	return Result{
		Outcome:  outcome,
		Session:  sess,
		Decision: decision,
	}, nil
}

// Validate runs Check and hands any redirect to the Navigator.
func (v *Validator) Validate(ctx context.Context) (Result, error) {
	res, err := v.Check(ctx)
	if err != nil {
		return res, err
	}

	if err := v.navigate(ctx, res.Decision, res.Session); err != nil {
		return res, err
	}

	return res, nil
}

func (v *Validator) navigate(ctx context.Context, decision Decision, sess Session) error {
	if decision.IsNoop() || v.navigator == nil {
		return nil
	}

	v.logger.Debug("navigating %s -> %s", v.navigator.Location(), decision.Target)

	recordActivity(ctx, v.sink, v.logger, v.clock, ActivityEvent{
		EventType: ActivityEventRedirect,
		UserID:    sess.UserID,
		Role:      sess.Role,
		Decision:  decision,
	})

	if err := v.navigator.Navigate(ctx, decision); err != nil {
		v.logger.Error("navigation to %s failed: %s", decision.Target, err)
		return err
	}
	return nil
}

func (v *Validator) location() string {
	if v.navigator == nil {
		return "/"
	}
	return v.navigator.Location()
}
