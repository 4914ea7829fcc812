package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is the decoded, in memory view of the current user's claims
type Session struct {
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Username   string    `json:"username,omitempty"`
	Role       Role      `json:"role"`
	RawRole    string    `json:"raw_role,omitempty"`
	IsVerified bool      `json:"is_verified"`
	IssuedAt   time.Time `json:"issued_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

func (s Session) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s Session) IsAdmin() bool {
	return s.Role.IsAdmin()
}

// ExpiresIn returns how long the session has left relative to now
func (s Session) ExpiresIn(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

func (s Session) String() string {
	return fmt.Sprintf(
		"user=%s email=%s username=%s role=%s verified=%t iat=%s exp=%s",
		s.UserID,
		s.Email,
		s.Username,
		s.Role,
		s.IsVerified,
		s.IssuedAt.Format(time.RFC1123),
		s.ExpiresAt.Format(time.RFC1123),
	)
}

// sessionFromClaims creates a Session from decoded claims
func sessionFromClaims(claims *Claims) (Session, error) {
	if claims == nil {
		return Session{}, ErrTokenMalformed
	}

	return Session{
		UserID:     claims.UserID(),
		Email:      claims.Email(),
		Username:   claims.Username(),
		Role:       NormalizeRole(claims.Role()),
		RawRole:    claims.Role(),
		IsVerified: claims.Verified(),
		IssuedAt:   claims.Issued(),
		ExpiresAt:  claims.Expires(),
	}, nil
}
