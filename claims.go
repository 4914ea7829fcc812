package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload the backend signs into bearer tokens
type Claims struct {
	jwt.RegisteredClaims
	UID        string `json:"userId,omitempty"`
	AltID      string `json:"id,omitempty"`
	EmailAddr  string `json:"email,omitempty"`
	Name       string `json:"username,omitempty"`
	UserRole   string `json:"role,omitempty"`
	IsVerified bool   `json:"isVerified,omitempty"`
}

// UserID returns the user ID, falling back to the subject
func (c *Claims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	if c.AltID != "" {
		return c.AltID
	}
	return c.Subject
}

// Email returns the email claim. Tokens that carry the email as subject
// are handled as well.
func (c *Claims) Email() string {
	if c.EmailAddr != "" {
		return c.EmailAddr
	}
	if strings.Contains(c.Subject, "@") {
		return c.Subject
	}
	return ""
}

// Username returns the username claim
func (c *Claims) Username() string {
	return c.Name
}

// Role returns the raw role claim
func (c *Claims) Role() string {
	return c.UserRole
}

// Verified reports the account verification flag
func (c *Claims) Verified() bool {
	return c.IsVerified
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// Issued returns the issued at time
func (c *Claims) Issued() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
