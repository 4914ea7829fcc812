package session

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"
	maxErrorBody    = 64 << 10
)

// Endpoints are the backend paths used by the auth operations
type Endpoints struct {
	Login      string `yaml:"login" json:"login"`
	Register   string `yaml:"register" json:"register"`
	Verify     string `yaml:"verify" json:"verify"`
	ResendCode string `yaml:"resend_code" json:"resend_code"`
	Logout     string `yaml:"logout" json:"logout"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:      "/api/auth/login",
		Register:   "/api/auth/register",
		Verify:     "/api/auth/verify-account",
		ResendCode: "/api/auth/resend-verification-code",
		Logout:     "/api/auth/logout",
	}
}

func (e Endpoints) withDefaults() Endpoints {
	def := DefaultEndpoints()
	if e.Login == "" {
		e.Login = def.Login
	}
	if e.Register == "" {
		e.Register = def.Register
	}
	if e.Verify == "" {
		e.Verify = def.Verify
	}
	if e.ResendCode == "" {
		e.ResendCode = def.ResendCode
	}
	if e.Logout == "" {
		e.Logout = def.Logout
	}
	return e
}

// AuthResponse is what the backend returns from login, register and verify
type AuthResponse struct {
	Token       string `json:"token,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	Message     string `json:"message,omitempty"`
}

// BearerToken returns whichever token field the backend filled
func (r AuthResponse) BearerToken() string {
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Client talks to the social network REST backend
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	tokens    TokenStore
	endpoints Endpoints
	timeout   time.Duration
	logger    Logger
}

type ClientOption func(*Client) *Client

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) *Client {
		if hc != nil {
			c.http = hc
		}
		return c
	}
}

// WithTokenSource makes the client send the stored token as bearer
func WithTokenSource(tokens TokenStore) ClientOption {
	return func(c *Client) *Client {
		c.tokens = tokens
		return c
	}
}

func WithEndpoints(e Endpoints) ClientOption {
	return func(c *Client) *Client {
		c.endpoints = e.withDefaults()
		return c
	}
}

func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) *Client {
		c.timeout = d
		return c
	}
}

func WithClientLogger(l Logger) ClientOption {
	return func(c *Client) *Client {
		c.logger = normalizeLogger(l)
		return c
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("backend base URL must be absolute", errors.CategoryBadInput).
			WithCode(errors.CodeBadRequest).
			WithMetadata(map[string]any{"base_url": baseURL})
	}

	c := &Client{
		baseURL:   u,
		http:      &http.Client{},
		endpoints: DefaultEndpoints(),
		timeout:   15 * time.Second,
		logger:    defLogger{},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	return c, nil
}

type bearerCtxKey struct{}

// WithBearer makes requests made with ctx carry token instead of the
// stored one. An empty token sends the request anonymously.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerCtxKey{}, token)
}

func (c *Client) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	var res AuthResponse
	err := c.Do(ctx, http.MethodPost, c.endpoints.Login, nil, req, &res)
	return res, err
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	var res AuthResponse
	err := c.Do(ctx, http.MethodPost, c.endpoints.Register, nil, req, &res)
	return res, err
}

func (c *Client) VerifyAccount(ctx context.Context, req VerifyRequest) (AuthResponse, error) {
	var res AuthResponse
	err := c.Do(ctx, http.MethodPost, c.endpoints.Verify, nil, req, &res)
	return res, err
}

func (c *Client) ResendVerificationCode(ctx context.Context, req ResendRequest) error {
	return c.Do(ctx, http.MethodPost, c.endpoints.ResendCode, nil, req, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, c.endpoints.Logout, nil, nil, nil)
}

// Do sends a JSON request to path and decodes a JSON response into out.
// Non 2xx responses come back as *errors.Error categorized by status.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path, query), reader)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to build request")
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(HeaderRequestID, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := c.bearer(ctx)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug("%s %s request_id=%s", method, req.URL.Path, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "request to backend failed").
			WithTextCode(TextCodeBackend).
			WithMetadata(map[string]any{
				"path":       path,
				"request_id": requestID,
			})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return responseError(resp.StatusCode, raw, path, requestID)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to read backend response")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		clone := ErrBackendResponse.Clone()
		clone.Source = err
		return clone.WithMetadata(map[string]any{
			"path":       path,
			"request_id": requestID,
		})
	}
	return nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if token, ok := ctx.Value(bearerCtxKey{}).(string); ok {
		return token, nil
	}
	if c.tokens == nil {
		return "", nil
	}
	token, err := c.tokens.Get(ctx)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryOperation, "failed to read session token")
	}
	return token, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	// path may carry escaped segments, keep them as sent
	joined := strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	if unescaped, err := url.PathUnescape(joined); err == nil {
		u.Path, u.RawPath = unescaped, joined
	} else {
		u.Path, u.RawPath = joined, ""
	}
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func responseError(status int, raw []byte, path, requestID string) error {
	var body errorBody
	message := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		message = body.Message
		if message == "" {
			message = body.Error
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(status)
	}

	category, code := classifyStatus(status)
	return errors.New(message, category).
		WithCode(code).
		WithTextCode(TextCodeBackend).
		WithMetadata(map[string]any{
			"status":     status,
			"path":       path,
			"request_id": requestID,
		})
}

func classifyStatus(status int) (errors.Category, int) {
	switch {
	case status == http.StatusUnauthorized:
		return errors.CategoryAuth, errors.CodeUnauthorized
	case status == http.StatusForbidden:
		return errors.CategoryAuthz, errors.CodeForbidden
	case status == http.StatusNotFound:
		return errors.CategoryNotFound, errors.CodeNotFound
	case status == http.StatusConflict:
		return errors.CategoryConflict, errors.CodeConflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return errors.CategoryValidation, errors.CodeBadRequest
	case status >= 400 && status < 500:
		return errors.CategoryBadInput, errors.CodeBadRequest
	default:
		return errors.CategoryOperation, errors.CodeInternal
	}
}
