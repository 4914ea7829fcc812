package session

import (
	"context"

	"github.com/goliatone/go-errors"
)

// Service runs the auth operations against the backend and keeps the
// session store and token store consistent with the results.
type Service struct {
	client    *Client
	tokens    TokenStore
	store     *Store
	validator *Validator
	policy    *RedirectPolicy
	logger    Logger
	sink      ActivitySink
	clock     Clock
}

type ServiceOption func(*Service) *Service

func WithServiceLogger(l Logger) ServiceOption {
	return func(s *Service) *Service {
		s.logger = normalizeLogger(l)
		return s
	}
}

func WithServiceActivitySink(sink ActivitySink) ServiceOption {
	return func(s *Service) *Service {
		s.sink = normalizeActivitySink(sink)
		return s
	}
}

func WithServiceClock(c Clock) ServiceOption {
	return func(s *Service) *Service {
		s.clock = c
		return s
	}
}

// NewService wires the auth operations. The validator provides the token
// store, session store, policy and navigator so they are shared.
func NewService(client *Client, validator *Validator, opts ...ServiceOption) *Service {
	s := &Service{
		client:    client,
		tokens:    validator.tokens,
		store:     validator.store,
		validator: validator,
		policy:    validator.policy,
		logger:    defLogger{},
		sink:      noopActivitySink{},
	}

	for _, opt := range opts {
		s = opt(s)
	}

	return s
}

func (s *Service) Store() *Store {
	return s.store
}

// Login sends the credentials. On success the returned token is decoded,
// persisted, and the session replaced, then the client is sent home or to
// the admin home by role. On failure nothing changes.
func (s *Service) Login(ctx context.Context, req LoginRequest) (Session, error) {
	if err := validatePayload(req); err != nil {
		return Session{}, err
	}

	res, err := s.client.Login(ctx, req)
	if err != nil {
		s.logger.Error("Login error: %s", err)
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Metadata:  map[string]any{"email": req.Email},
		})
		return Session{}, err
	}

	sess, err := s.adopt(ctx, res.BearerToken())
	if err != nil {
		s.logger.Error("Login token rejected: %s", err)
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventLoginFailure,
			Metadata:  map[string]any{"email": req.Email, "reason": "token"},
		})
		return Session{}, err
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		UserID:    sess.UserID,
		Role:      sess.Role,
	})

	return sess, s.validator.navigate(ctx, s.policy.ForRole(sess), sess)
}

// Register creates the account, stores the returned token and moves the
// client to the verification step. A token that does not validate leaves
// the stored session untouched.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Session, error) {
	if err := validatePayload(req); err != nil {
		return Session{}, err
	}
	req = req.Normalize()

	res, err := s.client.Register(ctx, req)
	if err != nil {
		s.logger.Error("Register error: %s", err)
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventRegisterFailure,
			Metadata:  map[string]any{"email": req.Email},
		})
		return Session{}, err
	}

	sess, err := s.adopt(ctx, res.BearerToken())
	if err != nil {
		s.logger.Error("Register rejected backend token: %s", err)
		return Session{}, err
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventRegisterSuccess,
		UserID:    sess.UserID,
		Role:      sess.Role,
	})

	return sess, s.validator.navigate(ctx, s.policy.VerifyStep(), sess)
}

// Verify submits the verification code. It needs a valid session, without
// one the client is sent to login.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (Session, error) {
	current, err := s.validator.Check(ctx)
	if err != nil {
		return Session{}, err
	}
	if current.Outcome != OutcomeValid {
		decision := s.policy.ExpiredLogin()
		if current.Outcome == OutcomeUnauthenticated {
			decision = s.policy.Login()
		}
		if navErr := s.validator.navigate(ctx, decision, Session{}); navErr != nil {
			s.logger.Error("Verify redirect failed: %s", navErr)
		}
		return Session{}, ErrNotAuthenticated
	}

	if err := validatePayload(req); err != nil {
		return Session{}, err
	}

	res, err := s.client.VerifyAccount(ctx, req)
	if err != nil {
		s.logger.Error("Verify error: %s", err)
		s.record(ctx, ActivityEvent{
			EventType: ActivityEventVerifyFailure,
			UserID:    current.Session.UserID,
		})
		return Session{}, err
	}

	if token := res.BearerToken(); token != "" {
		if _, err := s.adopt(ctx, token); err != nil {
			s.logger.Error("Verify token rejected: %s", err)
			return Session{}, err
		}
	}

	result, err := s.validator.Check(ctx)
	if err != nil {
		return Session{}, err
	}
	if result.Outcome != OutcomeValid {
		return Session{}, ErrNotAuthenticated
	}

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventVerifySuccess,
		UserID:    result.Session.UserID,
		Role:      result.Session.Role,
	})

	return result.Session, s.validator.navigate(ctx, s.policy.ForRole(result.Session), result.Session)
}

// ResendVerificationCode asks for a new code for the given email
func (s *Service) ResendVerificationCode(ctx context.Context, req ResendRequest) error {
	if err := validatePayload(req); err != nil {
		return err
	}

	token, err := s.tokens.Get(ctx)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to read session token")
	}
	if token == "" {
		return ErrTokenMissing
	}

	if err := s.client.ResendVerificationCode(ctx, req); err != nil {
		s.logger.Error("Resend verification code error: %s", err)
		return err
	}
	return nil
}

// Logout notifies the backend best effort, then always clears the token and
// the session and sends the client to login.
func (s *Service) Logout(ctx context.Context) error {
	current, _ := s.store.Current()

	if err := s.client.Logout(ctx); err != nil {
		s.logger.Info("Logout notification failed, clearing local session anyway: %s", err)
	}

	deleteErr := s.tokens.Delete(ctx)
	if deleteErr != nil {
		s.logger.Error("Logout failed to delete token: %s", deleteErr)
		deleteErr = errors.Wrap(deleteErr, errors.CategoryOperation, "failed to delete session token")
	}
	s.store.Clear()

	s.record(ctx, ActivityEvent{
		EventType: ActivityEventLogout,
		UserID:    current.UserID,
		Role:      current.Role,
	})

	if err := s.validator.navigate(ctx, s.policy.Login(), Session{}); err != nil {
		s.logger.Error("Logout redirect failed: %s", err)
	}

	return deleteErr
}

// adopt decodes token, and only when it is usable persists it and replaces
// the session.
func (s *Service) adopt(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrBackendResponse.Clone().WithMetadata(map[string]any{
			"reason": "missing token",
		})
	}

	outcome, sess, err := Evaluate(token, s.validator.decoder, s.validator.clock.Now(), s.validator.grace)
	if outcome != OutcomeValid {
		if err == nil {
			err = ErrTokenMalformed
		}
		return Session{}, err
	}

	if err := s.tokens.Set(ctx, token); err != nil {
		return Session{}, errors.Wrap(err, errors.CategoryOperation, "failed to persist session token")
	}
	s.store.Replace(sess)
	return sess, nil
}

func (s *Service) record(ctx context.Context, event ActivityEvent) {
	recordActivity(ctx, s.sink, s.logger, s.clock, event)
}
