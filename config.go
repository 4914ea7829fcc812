package session

import (
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultTokenKey = "token"
	envPrefix       = "SOCIAL_"
)

const (
	StorageMemory = "memory"
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
)

// StorageOptions selects where the bearer token is persisted
type StorageOptions struct {
	Driver   string        `yaml:"driver"`
	DSN      string        `yaml:"dsn"`
	RedisURL string        `yaml:"redis_url"`
	TTL      time.Duration `yaml:"ttl"`
}

// WebOptions configures the server rendered front end
type WebOptions struct {
	Addr         string `yaml:"addr"`
	CookieSecure bool   `yaml:"cookie_secure"`
	Metrics      bool   `yaml:"metrics"`
	// CSRFKey enables form CSRF protection when set
	CSRFKey string `yaml:"csrf_key"`
}

// Options is the file backed Config implementation.
// Priority: environment variables > YAML file > defaults.
type Options struct {
	BaseURL            string         `yaml:"base_url"`
	TokenKey           string         `yaml:"token_key"`
	SigningKey         string         `yaml:"signing_key"`
	JWKSURL            string         `yaml:"jwks_url"`
	GraceWindow        time.Duration  `yaml:"grace_window"`
	ValidationInterval time.Duration  `yaml:"validation_interval"`
	ActivityDebounce   time.Duration  `yaml:"activity_debounce"`
	RequestTimeout     time.Duration  `yaml:"request_timeout"`
	Routes             Routes         `yaml:"routes"`
	Endpoints          Endpoints      `yaml:"endpoints"`
	Storage            StorageOptions `yaml:"storage"`
	Web                WebOptions     `yaml:"web"`
	Debug              bool           `yaml:"debug"`
	// Audit writes every activity event to stderr as a JSON line
	Audit bool `yaml:"audit"`
}

var _ Config = (*Options)(nil)

func DefaultOptions() *Options {
	return &Options{
		BaseURL:            "http://localhost:8080",
		TokenKey:           DefaultTokenKey,
		GraceWindow:        DefaultGraceWindow,
		ValidationInterval: DefaultValidationInterval,
		ActivityDebounce:   DefaultActivityDebounce,
		RequestTimeout:     15 * time.Second,
		Routes:             DefaultRoutes(),
		Endpoints:          DefaultEndpoints(),
		Storage: StorageOptions{
			Driver: StorageMemory,
		},
		Web: WebOptions{
			Addr:    ":3000",
			Metrics: true,
		},
	}
}

// LoadConfig reads the YAML file at path (optional), then applies SOCIAL_*
// environment overrides and validates the result.
func LoadConfig(path string) (*Options, error) {
	opts := DefaultOptions()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to read config file").
				WithMetadata(map[string]any{"path": path})
		}
		if err := yaml.Unmarshal(raw, opts); err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to parse config file").
				WithMetadata(map[string]any{"path": path})
		}
	}

	opts.applyEnv(os.LookupEnv)
	opts.Routes = opts.Routes.withDefaults()
	opts.Endpoints = opts.Endpoints.withDefaults()

	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.CategoryValidation, "invalid configuration").
			WithCode(errors.CodeBadRequest)
	}

	return opts, nil
}

func (o *Options) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str("BASE_URL", &o.BaseURL)
	str("TOKEN_KEY", &o.TokenKey)
	str("SIGNING_KEY", &o.SigningKey)
	str("JWKS_URL", &o.JWKSURL)
	str("STORAGE_DRIVER", &o.Storage.Driver)
	str("STORAGE_DSN", &o.Storage.DSN)
	str("REDIS_URL", &o.Storage.RedisURL)
	str("WEB_ADDR", &o.Web.Addr)
	str("CSRF_KEY", &o.Web.CSRFKey)
	dur("GRACE_WINDOW", &o.GraceWindow)
	dur("VALIDATION_INTERVAL", &o.ValidationInterval)
	dur("ACTIVITY_DEBOUNCE", &o.ActivityDebounce)
	dur("REQUEST_TIMEOUT", &o.RequestTimeout)

	flag := func(key string, dst *bool) {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = strings.EqualFold(v, "true") || v == "1"
		}
	}

	flag("DEBUG", &o.Debug)
	flag("AUDIT", &o.Audit)
}

// Validate will validate the options
func (o *Options) Validate() error {
	return validation.ValidateStruct(o,
		validation.Field(&o.BaseURL, validation.Required, is.URL),
		validation.Field(&o.TokenKey, validation.Required),
		validation.Field(&o.JWKSURL, is.URL),
		validation.Field(&o.GraceWindow, validation.Min(time.Duration(0))),
		validation.Field(&o.ValidationInterval, validation.Required),
		validation.Field(&o.ActivityDebounce, validation.Required),
		validation.Field(&o.Storage),
		validation.Field(&o.Web),
	)
}

func (w WebOptions) Validate() error {
	return validation.ValidateStruct(&w,
		validation.Field(&w.Addr, validation.Required),
		validation.Field(&w.CSRFKey, validation.Length(32, 0)),
	)
}

func (s StorageOptions) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Driver, validation.Required, validation.In(StorageMemory, StorageSQLite, StorageRedis)),
		validation.Field(&s.DSN, requiredFor(s.Driver == StorageSQLite)...),
		validation.Field(&s.RedisURL, requiredFor(s.Driver == StorageRedis)...),
	)
}

func requiredFor(cond bool) []validation.Rule {
	if cond {
		return []validation.Rule{validation.Required}
	}
	return nil
}

func (o *Options) GetBaseURL() string                   { return o.BaseURL }
func (o *Options) GetTokenKey() string                  { return o.TokenKey }
func (o *Options) GetSigningKey() string                { return o.SigningKey }
func (o *Options) GetJWKSURL() string                   { return o.JWKSURL }
func (o *Options) GetGraceWindow() time.Duration        { return o.GraceWindow }
func (o *Options) GetValidationInterval() time.Duration { return o.ValidationInterval }
func (o *Options) GetActivityDebounce() time.Duration   { return o.ActivityDebounce }
func (o *Options) GetRequestTimeout() time.Duration     { return o.RequestTimeout }
func (o *Options) GetRoutes() Routes                    { return o.Routes }
func (o *Options) GetEndpoints() Endpoints              { return o.Endpoints }

// NewDecoder builds the decoder the config asks for: JWKS when a set URL is
// configured, HMAC with a signing key, payload only otherwise. The returned
// close function releases background resources.
func NewDecoder(cfg Config, logger Logger) (TokenDecoder, func(), error) {
	if url := cfg.GetJWKSURL(); url != "" {
		d, err := NewJWKSDecoder(url, logger)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	}
	if key := cfg.GetSigningKey(); key != "" {
		return NewHMACDecoder([]byte(key)), func() {}, nil
	}
	return NewUnverifiedDecoder(), func() {}, nil
}
