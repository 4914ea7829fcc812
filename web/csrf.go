package web

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"

	session "github.com/goliatone/go-social-session"
)

const (
	TextCodeCSRFMissing  = "csrf_token_missing"
	TextCodeCSRFMismatch = "csrf_token_mismatch"
	TextCodeCSRFExpired  = "csrf_token_expired"
)

var (
	ErrCSRFMissing = errors.New("CSRF token missing", errors.CategoryBadInput).
			WithTextCode(TextCodeCSRFMissing).
			WithCode(errors.CodeBadRequest)
	ErrCSRFMismatch = errors.New("CSRF token mismatch", errors.CategoryAuthz).
			WithTextCode(TextCodeCSRFMismatch).
			WithCode(errors.CodeForbidden)
	ErrCSRFExpired = errors.New("CSRF token expired", errors.CategoryAuthz).
			WithTextCode(TextCodeCSRFExpired).
			WithCode(errors.CodeForbidden)
)

const (
	LocalsCSRFToken = "csrf_token"
	LocalsCSRFField = "csrf_field"

	DefaultCSRFFormField = "_token"
	DefaultCSRFHeader    = "X-CSRF-Token"
	minCSRFKeyLength     = 32
)

// CSRFConfig configures the stateless CSRF middleware. Tokens are HMAC
// signed and bound to the caller, either the session user or the client IP.
type CSRFConfig struct {
	Filter func(ctx router.Context) bool

	// SecureKey signs the tokens, must be at least 32 bytes
	SecureKey []byte

	FormField   string
	HeaderName  string
	SafeMethods []string
	Expiration  time.Duration
	TokenLength int

	// ErrorHandler defaults to a plain text response with the error status
	ErrorHandler router.ErrorHandler

	Clock session.Clock
}

func (cfg CSRFConfig) withDefaults() (CSRFConfig, error) {
	if len(cfg.SecureKey) < minCSRFKeyLength {
		return cfg, fmt.Errorf("csrf: secure key must be at least %d bytes, got %d", minCSRFKeyLength, len(cfg.SecureKey))
	}
	if cfg.FormField == "" {
		cfg.FormField = DefaultCSRFFormField
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeader
	}
	if cfg.SafeMethods == nil {
		cfg.SafeMethods = []string{http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace}
	}
	if cfg.Expiration == 0 {
		cfg.Expiration = 24 * time.Hour
	}
	if cfg.TokenLength == 0 {
		cfg.TokenLength = 32
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(ctx router.Context, err error) error {
			return ctx.Status(statusFor(err)).SendString(err.Error())
		}
	}
	return cfg, nil
}

// CSRF issues a token on every request and checks it on unsafe methods.
// The token and a ready hidden input are exposed in Locals for templates.
// Mount it after Gate so tokens bind to the session user.
func CSRF(config CSRFConfig) (router.MiddlewareFunc, error) {
	cfg, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			if cfg.Filter != nil && cfg.Filter(ctx) {
				return ctx.Next()
			}

			if !slices.Contains(cfg.SafeMethods, strings.ToUpper(ctx.Method())) {
				received := ctx.FormValue(cfg.FormField)
				if received == "" {
					received = ctx.Header(cfg.HeaderName)
				}
				if err := verifyCSRFToken(cfg, csrfSubject(ctx), received); err != nil {
					return cfg.ErrorHandler(ctx, err)
				}
			}

			token, err := issueCSRFToken(cfg, csrfSubject(ctx))
			if err != nil {
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(LocalsCSRFToken, token)
			ctx.Locals(LocalsCSRFField, `<input type="hidden" name="`+cfg.FormField+`" value="`+token+`">`)

			return ctx.Next()
		}
	}, nil
}

// csrfSubject binds tokens to the session user when there is one
func csrfSubject(ctx router.Context) string {
	if sess, ok := CurrentSession(ctx); ok && sess.UserID != "" {
		return "user_" + sess.UserID
	}
	return "ip_" + ctx.IP()
}

func issueCSRFToken(cfg CSRFConfig, subject string) (string, error) {
	nonce := make([]byte, cfg.TokenLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%d:%s:%s", cfg.Clock.Now().UTC().Unix(), hex.EncodeToString(nonce), subject)
	token := payload + ":" + hex.EncodeToString(signCSRF(cfg.SecureKey, payload))

	return base64.RawURLEncoding.EncodeToString([]byte(token)), nil
}

func verifyCSRFToken(cfg CSRFConfig, subject, token string) error {
	if token == "" {
		return ErrCSRFMissing
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrCSRFMismatch
	}

	// subject may hold colons (IPv6), the signature is always last
	raw := string(decoded)
	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return ErrCSRFMismatch
	}
	payload, signatureHex := raw[:idx], raw[idx+1:]

	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 {
		return ErrCSRFMismatch
	}

	issuedAt, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return ErrCSRFMismatch
	}

	signature, err := hex.DecodeString(signatureHex)
	if err != nil {
		return ErrCSRFMismatch
	}

	if !hmac.Equal(signature, signCSRF(cfg.SecureKey, payload)) {
		return ErrCSRFMismatch
	}

	if subtle.ConstantTimeCompare([]byte(parts[2]), []byte(subject)) != 1 {
		return ErrCSRFMismatch
	}

	if cfg.Clock.Now().UTC().After(time.Unix(issuedAt, 0).Add(cfg.Expiration)) {
		return ErrCSRFExpired
	}

	return nil
}

func signCSRF(key []byte, payload string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(payload))
	return mac.Sum(nil)
}
