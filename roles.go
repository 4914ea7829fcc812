package session

import "strings"

// Role is the normalized role carried by a session.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

const rolePrefix = "ROLE_"

// NormalizeRole maps the raw role claim to a Role. The backend emits both
// "ADMIN" and "ROLE_ADMIN", comparison is case insensitive and the prefix is
// optional. Anything that is not an admin role is a regular user.
func NormalizeRole(raw string) Role {
	r := strings.ToUpper(strings.TrimSpace(raw))
	r = strings.TrimPrefix(r, rolePrefix)
	switch r {
	case "ADMIN":
		return RoleAdmin
	default:
		return RoleUser
	}
}

// IsValid checks if the role is one of the predefined valid roles
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role grants access to the admin area
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// IsAtLeast checks if this role meets the minimum required level
func (r Role) IsAtLeast(minRole Role) bool {
	roleHierarchy := map[Role]int{
		RoleUser:  0,
		RoleAdmin: 1,
	}

	currentLevel, exists := roleHierarchy[r]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

func (r Role) String() string {
	return string(r)
}
