package session

import (
	"net/url"
	"strings"
)

// Outcome is the result of evaluating the stored token
type Outcome int

const (
	OutcomeUnauthenticated Outcome = iota
	OutcomeInvalid
	OutcomeExpired
	OutcomeValid
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeExpired:
		return "expired"
	case OutcomeValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Action is what the navigator should do after a decision
type Action int

const (
	ActionNone Action = iota
	ActionLogin
	ActionHome
	ActionAdminHome
	ActionVerify
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionLogin:
		return "login"
	case ActionHome:
		return "home"
	case ActionAdminHome:
		return "admin_home"
	case ActionVerify:
		return "verify"
	default:
		return "unknown"
	}
}

// Decision pairs an action with the concrete target path
type Decision struct {
	Action Action
	Target string
}

// IsNoop reports whether no navigation is needed
func (d Decision) IsNoop() bool {
	return d.Action == ActionNone
}

// State is the input of the redirect policy
type State struct {
	Outcome Outcome
	Session Session
}

// Routes lists the paths the redirect policy knows about
type Routes struct {
	Login       string   `yaml:"login" json:"login"`
	Register    string   `yaml:"register" json:"register"`
	Verify      string   `yaml:"verify" json:"verify"`
	Home        string   `yaml:"home" json:"home"`
	AdminHome   string   `yaml:"admin_home" json:"admin_home"`
	AdminPrefix string   `yaml:"admin_prefix" json:"admin_prefix"`
	Public      []string `yaml:"public" json:"public"`
	ExpiredKey  string   `yaml:"expired_key" json:"expired_key"`
}

// DefaultRoutes returns the routes used by the web client
func DefaultRoutes() Routes {
	return Routes{
		Login:       "/login",
		Register:    "/register",
		Verify:      "/verify",
		Home:        "/",
		AdminHome:   "/admin",
		AdminPrefix: "/admin",
		Public:      []string{"/", "/login", "/register", "/verify"},
		ExpiredKey:  "expired",
	}
}

func (r Routes) withDefaults() Routes {
	def := DefaultRoutes()
	if r.Login == "" {
		r.Login = def.Login
	}
	if r.Register == "" {
		r.Register = def.Register
	}
	if r.Verify == "" {
		r.Verify = def.Verify
	}
	if r.Home == "" {
		r.Home = def.Home
	}
	if r.AdminHome == "" {
		r.AdminHome = def.AdminHome
	}
	if r.AdminPrefix == "" {
		r.AdminPrefix = def.AdminPrefix
	}
	if r.Public == nil {
		r.Public = def.Public
	}
	if r.ExpiredKey == "" {
		r.ExpiredKey = def.ExpiredKey
	}
	return r
}

// RedirectPolicy decides where the client should go given its session
// state and current path. It holds no mutable state.
type RedirectPolicy struct {
	routes Routes
}

func NewRedirectPolicy(routes Routes) *RedirectPolicy {
	return &RedirectPolicy{routes: routes.withDefaults()}
}

func (p *RedirectPolicy) Routes() Routes {
	return p.routes
}

// Decide applies the rules in order:
//   - unauthenticated outside the public paths goes home
//   - expired or invalid outside the public paths goes to login, flagged
//   - non admin on an admin path goes home
//   - admin on login or register goes to the admin home
//   - verified user on login or register goes home
func (p *RedirectPolicy) Decide(state State, location string) Decision {
	path := cleanPath(location)
	public := p.IsPublic(path)

	switch state.Outcome {
	case OutcomeUnauthenticated:
		if !public {
			return p.Home()
		}
		return Decision{}
	case OutcomeExpired, OutcomeInvalid:
		if !public {
			return p.ExpiredLogin()
		}
		return Decision{}
	}

	sess := state.Session
	if !sess.IsAdmin() && p.IsAdminPath(path) {
		return p.Home()
	}

	if p.isAuthPage(path) {
		if sess.IsAdmin() {
			return p.AdminHome()
		}
		if sess.IsVerified {
			return p.Home()
		}
	}

	return Decision{}
}

// ForRole is where a freshly authenticated session lands
func (p *RedirectPolicy) ForRole(sess Session) Decision {
	if sess.IsAdmin() {
		return p.AdminHome()
	}
	return p.Home()
}

func (p *RedirectPolicy) Home() Decision {
	return Decision{Action: ActionHome, Target: p.routes.Home}
}

func (p *RedirectPolicy) AdminHome() Decision {
	return Decision{Action: ActionAdminHome, Target: p.routes.AdminHome}
}

// VerifyStep is where a freshly registered account confirms its email
func (p *RedirectPolicy) VerifyStep() Decision {
	return Decision{Action: ActionVerify, Target: p.routes.Verify}
}

func (p *RedirectPolicy) Login() Decision {
	return Decision{Action: ActionLogin, Target: p.routes.Login}
}

// ExpiredLogin sends the client to login with the expired indicator set
func (p *RedirectPolicy) ExpiredLogin() Decision {
	q := url.Values{}
	q.Set(p.routes.ExpiredKey, "true")
	return Decision{Action: ActionLogin, Target: p.routes.Login + "?" + q.Encode()}
}

// IsPublic reports whether path is in the allow list. Entries ending in
// "/*" match the prefix and everything below it.
func (p *RedirectPolicy) IsPublic(path string) bool {
	path = cleanPath(path)
	for _, entry := range p.routes.Public {
		if prefix, ok := strings.CutSuffix(entry, "/*"); ok {
			if matchesPrefix(path, prefix) {
				return true
			}
			continue
		}
		if path == cleanPath(entry) {
			return true
		}
	}
	return false
}

func (p *RedirectPolicy) IsAdminPath(path string) bool {
	return matchesPrefix(cleanPath(path), p.routes.AdminPrefix)
}

func (p *RedirectPolicy) isAuthPage(path string) bool {
	return path == cleanPath(p.routes.Login) || path == cleanPath(p.routes.Register)
}

func matchesPrefix(path, prefix string) bool {
	prefix = cleanPath(prefix)
	if prefix == "/" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func cleanPath(location string) string {
	path := location
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if u, err := url.Parse(path); err == nil && u.Path != "" {
		path = u.Path
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
