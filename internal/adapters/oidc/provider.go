// Package oidc implements corporate single sign-on against an OpenID Connect provider.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/ports"
	"golang.org/x/oauth2"
)

const (
	defaultGroupsClaim = "memberof"
	defaultHTTPTimeout = 30 * time.Second
	// 24 random bytes encode to 32 URL-safe characters.
	stateBytes = 24
	// Used when the token response carries no expiry.
	fallbackSessionTTL = time.Hour
)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	// DiscoveryURL is the issuer, with or without /.well-known/openid-configuration.
	DiscoveryURL string
	// GroupsClaim is a JMESPath expression selecting group names from the claims.
	GroupsClaim string
	HTTPClient  *http.Client
}

func (c ProviderConfig) validate() error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"client ID", c.ClientID},
		{"client secret", c.ClientSecret},
		{"redirect URL", c.RedirectURL},
		{"discovery URL", c.DiscoveryURL},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name+" is required")
		}
	}
	if len(missing) > 0 {
		return errors.New(strings.Join(missing, "; "))
	}
	return nil
}

// Provider implements ports.SSOProvider with the authorization code flow.
type Provider struct {
	oauth    *oauth2.Config
	op       *gooidc.Provider
	verifier *gooidc.IDTokenVerifier
	groups   groupsSelector
	client   *http.Client
	now      func() time.Time
}

var _ ports.SSOProvider = (*Provider)(nil)

// NewProvider fetches the discovery document and builds a Provider.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	expr := strings.TrimSpace(cfg.GroupsClaim)
	if expr == "" {
		expr = defaultGroupsClaim
	}
	groups, err := compileGroups(expr)
	if err != nil {
		return nil, fmt.Errorf("compile groups claim %q: %w", expr, err)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultHTTPTimeout}
	}

	issuer := strings.TrimSuffix(strings.TrimSuffix(cfg.DiscoveryURL, "/"), "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, client), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       strings.Fields(cfg.Scope),
			Endpoint:     op.Endpoint(),
		},
		op:       op,
		verifier: op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		groups:   groups,
		client:   client,
		now:      time.Now,
	}, nil
}

// Begin returns the authorization URL with a fresh state and nonce. The
// registered RedirectURL is always used; in.RedirectURL only has to be present.
func (p *Provider) Begin(_ context.Context, in ports.BeginInput) (string, string, string, error) {
	if in.RedirectURL == "" {
		return "", "", "", errors.New("redirect URL is required")
	}
	state, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomToken()
	if err != nil {
		return "", "", "", fmt.Errorf("generate nonce: %w", err)
	}

	authURL := p.oauth.AuthCodeURL(state,
		gooidc.Nonce(nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, state, nonce, nil
}

// Exchange redeems the code, verifies the ID token against nonce and maps its
// claims. The userinfo endpoint fills whatever the ID token left out.
func (p *Provider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	switch {
	case in.Code == "":
		return domainauth.Identity{}, errors.New("authorization code is required")
	case in.State == "":
		return domainauth.Identity{}, errors.New("state is required")
	case in.Nonce == "":
		return domainauth.Identity{}, errors.New("nonce is required")
	}
	ctx = gooidc.ClientContext(ctx, p.client)

	tok, err := p.oauth.Exchange(ctx, in.Code)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("exchange code for token: %w", err)
	}

	claims, err := p.idTokenClaims(ctx, tok, in.Nonce)
	if err != nil {
		return domainauth.Identity{}, err
	}
	prof := readProfile(claims, p.groups)

	if !prof.complete() {
		info, err := p.userInfoClaims(ctx, tok)
		if err != nil {
			return domainauth.Identity{}, err
		}
		prof = prof.orElse(readProfile(info, p.groups))
	}
	if prof.subject == "" {
		return domainauth.Identity{}, errors.New("identity provider returned no subject")
	}

	expires := tok.Expiry
	if expires.IsZero() {
		expires = p.now().Add(fallbackSessionTTL)
	}
	return domainauth.Identity{
		UserID:    prof.subject,
		FirstName: prof.given,
		LastName:  prof.family,
		Email:     strings.ToLower(prof.email),
		Groups:    prof.groups,
		ExpiresAt: expires,
	}, nil
}

func (p *Provider) idTokenClaims(ctx context.Context, tok *oauth2.Token, nonce string) (map[string]any, error) {
	raw, err := rawIDToken(tok)
	if err != nil {
		return nil, err
	}
	idTok, err := p.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}
	if idTok.Nonce != nonce {
		return nil, errors.New("verify id_token: nonce mismatch")
	}
	var claims map[string]any
	if err := idTok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode id_token claims: %w", err)
	}
	return claims, nil
}

func (p *Provider) userInfoClaims(ctx context.Context, tok *oauth2.Token) (map[string]any, error) {
	info, err := p.op.UserInfo(ctx, oauth2.StaticTokenSource(tok))
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	var claims map[string]any
	if err := info.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return claims, nil
}

func rawIDToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return "", errors.New("missing id_token in token response")
	}
	return raw, nil
}

func randomToken() (string, error) {
	b := make([]byte, stateBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
