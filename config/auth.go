package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModePassword checks credentials against local users stored in Postgres.
	AuthModePassword AuthMode = "password"
	// AuthModeLDAP checks credentials with an LDAP bind.
	AuthModeLDAP AuthMode = "ldap"
	// AuthModeOAuth uses OAuth/OIDC single sign-on.
	AuthModeOAuth AuthMode = "oauth"
	// AuthModeMock uses mock/dev authentication (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "password", "ldap", "oauth", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: password, ldap, oauth, mock)", v)
	}
}

// UsesCredentialForm reports whether the login page posts an identifier and secret.
// Only the OAuth mode delegates the whole login to an identity provider.
func (a AuthMode) UsesCredentialForm() bool {
	return a != AuthModeOAuth
}

// OAuthConfig contains OAuth/OIDC configuration.
type OAuthConfig struct {
	ClientID     string `env:"CLIENT_ID"     envDefault:"dns-manager"`
	ClientSecret string `env:"CLIENT_SECRET" envDefault:"dns-manager"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/auth/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email groups"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
	// GroupsClaim is a JMESPath expression evaluated against the ID token claims
	// to extract group names, e.g. "realm_access.roles" for Keycloak.
	GroupsClaim string `env:"GROUPS_CLAIM"  envDefault:"memberof"`
}

// LDAPConfig controls directory-backed credential checks (AUTH_MODE=ldap).
type LDAPConfig struct {
	URL                string `env:"URL"                  envDefault:"ldap://localhost:389"`
	BindDN             string `env:"BIND_DN"`
	BindPassword       string `env:"BIND_PASSWORD"`
	BaseDN             string `env:"BASE_DN"`
	UserFilter         string `env:"USER_FILTER"          envDefault:"(&(objectClass=person)(mail=%s))"`
	GroupAttribute     string `env:"GROUP_ATTRIBUTE"      envDefault:"memberOf"`
	StartTLS           bool   `env:"START_TLS"            envDefault:"false"`
	InsecureSkipVerify bool   `env:"INSECURE_SKIP_VERIFY" envDefault:"false"`
}

// DevAuthConfig controls mock/dev authentication identity.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	UserID   string   `env:"USER_ID"  envDefault:"dev-user"`
	Email    string   `env:"EMAIL"    envDefault:"dev@example.com"`
	Password string   `env:"PASSWORD" envDefault:"dev"`
	Groups   []string `env:"GROUPS"   envDefault:"admins"          envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which authentication provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"password"`

	// TokenSecret signs session tokens stored in the browser cookie.
	TokenSecret string `env:"AUTH_TOKEN_SECRET"`

	// SessionTTL bounds how long a signed-in session stays valid.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"8h"`

	// Timeout caps a single credential check against the backing store.
	Timeout time.Duration `env:"AUTH_TIMEOUT" envDefault:"10s"`

	// OAuth configuration (used when Mode=oauth).
	OAuth OAuthConfig `envPrefix:"OAUTH_"`

	// LDAP configuration (used when Mode=ldap).
	LDAP LDAPConfig `envPrefix:"LDAP_"`

	// DevAuth configuration (used when Mode=mock).
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminGroup is the group name (or DN) that grants the privileged tier.
	AdminGroup string `env:"ADMIN_GROUP" envDefault:"admins"`

	// UserGroup is the group name (or DN) that grants the standard tier.
	UserGroup string `env:"USER_GROUP" envDefault:"users"`
}

// devTokenSecret is used only in dev mode when no secret is configured.
const devTokenSecret = "dev-insecure-token-secret-change-me"

// minTokenSecretLen is the minimum HMAC key length accepted outside dev mode.
const minTokenSecretLen = 32

// Sanitize applies defaults that depend on the dev flag.
func (a *AuthConfig) Sanitize(isDev bool) {
	a.TokenSecret = strings.TrimSpace(a.TokenSecret)
	if a.TokenSecret == "" && isDev {
		a.TokenSecret = devTokenSecret
	}
	if a.SessionTTL <= 0 {
		a.SessionTTL = 8 * time.Hour
	}
	if a.Timeout <= 0 {
		a.Timeout = 10 * time.Second
	}
	if strings.TrimSpace(a.OAuth.GroupsClaim) == "" {
		a.OAuth.GroupsClaim = "memberof"
	}
}

// Validate checks mode-specific requirements.
func (a *AuthConfig) Validate(isDev bool) error {
	var errs []error
	if !isDev && len(a.TokenSecret) < minTokenSecretLen {
		errs = append(errs, fmt.Errorf("AUTH_TOKEN_SECRET must be at least %d characters", minTokenSecretLen))
	}
	if a.Mode == AuthModeMock && !isDev {
		errs = append(errs, errors.New("AUTH_MODE=mock is only allowed when DEV=true"))
	}
	if a.Mode == AuthModeLDAP && strings.TrimSpace(a.LDAP.BaseDN) == "" {
		errs = append(errs, errors.New("LDAP_BASE_DN is required when AUTH_MODE=ldap"))
	}
	if a.Mode == AuthModeOAuth && strings.TrimSpace(a.OAuth.DiscoveryURL) == "" {
		errs = append(errs, errors.New("OAUTH_DISCOVERY_URL is required when AUTH_MODE=oauth"))
	}
	return errors.Join(errs...)
}
