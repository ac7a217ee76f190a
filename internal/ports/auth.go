package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"
	"time"

	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
)

// Authenticator checks an identifier/secret pair against a backing store.
// Failures the user should see are returned as *domainauth.Error; anything else
// is treated as an infrastructure fault. Implementations must honour ctx.
type Authenticator interface {
	Authenticate(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error)
}

// BeginInput carries inputs for initiating an SSO redirect flow.
type BeginInput struct {
	RedirectURL string
}

// SSOProvider initiates and completes an authentication flow against an IdP.
type SSOProvider interface {
	// Begin starts the login flow and returns the provider auth URL, an opaque state, and a nonce.
	Begin(ctx context.Context, in BeginInput) (authURL, state, nonce string, err error)

	// Exchange completes the login flow, verifying state and nonce, and returns the authenticated identity.
	Exchange(ctx context.Context, in ExchangeInput) (domainauth.Identity, error)
}

// ExchangeInput groups parameters for the code/token exchange.
type ExchangeInput struct {
	Code  string
	State string
	Nonce string
}

// SessionStore persists and retrieves user sessions.
type SessionStore interface {
	Save(ctx context.Context, sess domainauth.Session) error
	Get(ctx context.Context, id string) (domainauth.Session, error)
	Delete(ctx context.Context, id string) error
}

// TokenClaims is what a session token carries once verified.
type TokenClaims struct {
	SessionID string
	UserID    string
	Role      domainauth.Role
	ExpiresAt time.Time
}

// TokenCodec turns a session into the opaque value stored in the browser and back.
// Decode is local: it verifies the signature and expiry without any I/O.
type TokenCodec interface {
	Encode(sess domainauth.Session) (string, error)
	Decode(token string) (TokenClaims, error)
}

// RoleMapper maps provider groups to application roles.
type RoleMapper interface {
	Map(groups []string) domainauth.Role
}

// ErrSessionNotFound is returned by SessionStore.Get when no live session matches the id.
var ErrSessionNotFound = errors.New("session not found")
