package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/dns-manager-ui/config"
	"github.com/target/dns-manager-ui/internal/adapters/authroles"
	"github.com/target/dns-manager-ui/internal/adapters/devauth"
	"github.com/target/dns-manager-ui/internal/adapters/ldapauth"
	"github.com/target/dns-manager-ui/internal/adapters/localauth"
	"github.com/target/dns-manager-ui/internal/adapters/oidc"
	redisadapter "github.com/target/dns-manager-ui/internal/adapters/redis"
	"github.com/target/dns-manager-ui/internal/adapters/token"
	"github.com/target/dns-manager-ui/internal/observability/statsd"
	"github.com/target/dns-manager-ui/internal/ports"
	"github.com/target/dns-manager-ui/internal/service"
)

// ErrRedisRequired is returned when the session store has no Redis client.
var ErrRedisRequired = errors.New("auth service requires a redis client")

// AuthConfig contains configuration for auth service.
type AuthConfig struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	// KeyPrefix namespaces session keys; empty uses the adapter default.
	KeyPrefix string
	// Users backs AUTH_MODE=password.
	Users   ports.UserRepository
	Metrics statsd.Sink
	Logger  *slog.Logger
}

// BuildAuthService creates an auth service for the configured auth mode.
// Session storage, token signing and role mapping are shared by every mode.
func BuildAuthService(ctx context.Context, cfg AuthConfig) (*service.AuthService, error) {
	if cfg.RedisClient == nil {
		return nil, ErrRedisRequired
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	codec, err := token.NewJWTCodec(token.Config{Secret: cfg.Auth.TokenSecret})
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}

	authPorts := service.AuthPorts{
		Sessions: redisadapter.NewSessionStoreWithPrefix(cfg.RedisClient, cfg.KeyPrefix),
		Tokens:   codec,
		Roles: authroles.StaticRoleMapper{
			AdminGroup: cfg.Auth.AdminGroup,
			UserGroup:  cfg.Auth.UserGroup,
		},
		Metrics: cfg.Metrics,
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		authPorts.Authenticator, err = buildDevAuthenticator(cfg.Auth.DevAuth)
	case config.AuthModeLDAP:
		authPorts.Authenticator = buildLDAPAuthenticator(cfg.Auth.LDAP, logger)
	case config.AuthModeOAuth:
		authPorts.SSO, err = buildSSOProvider(ctx, cfg.Auth.OAuth)
	case config.AuthModePassword:
		if cfg.Users == nil {
			return nil, errors.New("AUTH_MODE=password requires a user repository")
		}
		authPorts.Authenticator = &localauth.Authenticator{Users: cfg.Users, Logger: logger}
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s authenticator: %w", cfg.Auth.Mode, err)
	}

	logger.Info("auth service configured",
		"mode", cfg.Auth.Mode,
		"session_ttl", cfg.Auth.SessionTTL,
		"timeout", cfg.Auth.Timeout,
	)

	return service.NewAuthService(service.AuthServiceOptions{
		Ports: authPorts,
		Config: service.AuthServiceConfig{
			Mode:       string(cfg.Auth.Mode),
			SessionTTL: cfg.Auth.SessionTTL,
			Timeout:    cfg.Auth.Timeout,
		},
		Logger: logger,
	}), nil
}

//nolint:ireturn // the caller stores it behind the Authenticator port.
func buildDevAuthenticator(cfg config.DevAuthConfig) (ports.Authenticator, error) {
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:   cfg.UserID,
		Email:    cfg.Email,
		Password: cfg.Password,
		Groups:   cfg.Groups,
	})
	if err != nil {
		return nil, err
	}
	return prov, nil
}

func buildLDAPAuthenticator(cfg config.LDAPConfig, logger *slog.Logger) *ldapauth.Authenticator {
	return ldapauth.New(ldapauth.Config{
		URL:                cfg.URL,
		BindDN:             cfg.BindDN,
		BindPassword:       cfg.BindPassword,
		BaseDN:             cfg.BaseDN,
		UserFilter:         cfg.UserFilter,
		GroupAttribute:     cfg.GroupAttribute,
		StartTLS:           cfg.StartTLS,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}, logger)
}

//nolint:ireturn // the caller stores it behind the SSOProvider port.
func buildSSOProvider(ctx context.Context, oauth config.OAuthConfig) (ports.SSOProvider, error) {
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" || oauth.ClientSecret == "" {
		return nil, errors.New("OAUTH_DISCOVERY_URL, OAUTH_CLIENT_ID and OAUTH_CLIENT_SECRET are required")
	}
	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		GroupsClaim:  oauth.GroupsClaim,
	})
	if err != nil {
		return nil, err
	}
	return prov, nil
}
