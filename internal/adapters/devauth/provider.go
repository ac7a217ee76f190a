package devauth

// Package devauth provides a simple, config-driven Authenticator for local development.

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/ports"
)

// Config controls the dev authenticator behavior.
// All fields are required except Groups, which may be empty.
type Config struct {
	UserID   string
	Email    string
	Password string
	Groups   []string
	// Delay simulates a slow backend so the submitting state can be exercised locally.
	Delay time.Duration
}

// Provider implements ports.Authenticator for local development.
// It accepts exactly one configured email/password pair.
type Provider struct {
	identity domainauth.Identity
	password string
	delay    time.Duration
}

var _ ports.Authenticator = (*Provider)(nil)

// NewProvider constructs a dev authenticator from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.Password == "" {
		return nil, errors.New("dev auth: Password is required")
	}
	return &Provider{
		identity: domainauth.Identity{
			UserID: cfg.UserID,
			Email:  strings.ToLower(strings.TrimSpace(cfg.Email)),
			Groups: append([]string(nil), cfg.Groups...),
		},
		password: cfg.Password,
		delay:    cfg.Delay,
	}, nil
}

// Authenticate returns the configured identity when both fields match.
func (p *Provider) Authenticate(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
	if p.delay > 0 {
		timer := time.NewTimer(p.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return domainauth.Identity{}, ctx.Err()
		case <-timer.C:
		}
	}

	creds = creds.Normalized()
	emailOK := subtle.ConstantTimeCompare([]byte(creds.Identifier), []byte(p.identity.Email)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(creds.Secret), []byte(p.password)) == 1
	if !emailOK || !passOK {
		return domainauth.Identity{}, domainauth.ErrInvalidCredentials
	}

	id := p.identity
	id.Groups = append([]string(nil), p.identity.Groups...)
	return id, nil
}
