package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import (
	"errors"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence and cookies.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// ParseRole converts persisted or user-supplied text into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errors.New("role must be one of admin, user, guest")
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleGuest:
		return true
	default:
		return false
	}
}

// Tier is the coarse access level that drives what the console renders.
type Tier int

const (
	TierUnauthenticated Tier = iota
	TierStandard
	TierPrivileged
)

func (t Tier) String() string {
	switch t {
	case TierStandard:
		return "standard"
	case TierPrivileged:
		return "privileged"
	default:
		return "unauthenticated"
	}
}

// TierForRole maps a role onto a tier. Guests are signed in but see the standard console.
func TierForRole(r Role) Tier {
	switch r {
	case RoleAdmin:
		return TierPrivileged
	case RoleUser, RoleGuest:
		return TierStandard
	default:
		return TierUnauthenticated
	}
}

// Identity represents the authenticated principal returned by an authenticator.
// Adapters map provider-specific claims into this shape.
type Identity struct {
	UserID    string // stable user identifier (e.g., uid, DN, database id or sub)
	FirstName string
	LastName  string
	Email     string
	Groups    []string
	// Role is set by authenticators that already know it (local users).
	// When empty the groups are mapped through a RoleMapper.
	Role      Role
	ExpiresAt time.Time // absolute expiry from IdP token; zero means "use session TTL"
}

// Session is the server-side record we persist for an authenticated user.
// It is also the resolved identity handed to the UI layer.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Errors returned by Session.Validate.
var (
	ErrSessionIncomplete = errors.New("session is missing id or user")
	ErrSessionRole       = errors.New("session has an unknown role")
	ErrSessionExpired    = errors.New("session expired")
)

// Validate checks a session at the resolution boundary. Anything that fails here
// is treated as "no identity".
func (s Session) Validate(now time.Time) error {
	if s.ID == "" || s.UserID == "" {
		return ErrSessionIncomplete
	}
	if !s.Role.Valid() {
		return ErrSessionRole
	}
	if !s.ExpiresAt.After(now) {
		return ErrSessionExpired
	}
	return nil
}

// IsGuest returns true if the session role is guest.
func (s Session) IsGuest() bool { return s.Role == RoleGuest }

// Tier reports the access tier for the session.
func (s Session) Tier() Tier { return TierForRole(s.Role) }

// IsPrivileged reports whether the session may see administrative surfaces.
func (s Session) IsPrivileged() bool { return s.Tier() == TierPrivileged }

// DisplayName prefers the person's name and falls back to email, then user id.
func (s Session) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	switch {
	case name != "":
		return name
	case s.Email != "":
		return s.Email
	default:
		return s.UserID
	}
}

// TierOf returns the tier for an optional session; nil is unauthenticated.
func TierOf(s *Session) Tier {
	if s == nil {
		return TierUnauthenticated
	}
	return s.Tier()
}
