// Package localauth checks console credentials against accounts stored in Postgres.
package localauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/target/dns-manager-ui/internal/data"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/ports"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the account does not exist so unknown
// identifiers cost about the same as wrong passwords.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("dns-manager-timing-pad"), bcrypt.DefaultCost)
	if err != nil {
		return nil
	}
	return h
})

// Authenticator implements ports.Authenticator with bcrypt password hashes.
type Authenticator struct {
	Users  ports.UserRepository
	Logger *slog.Logger
}

var _ ports.Authenticator = (*Authenticator)(nil)

func (a *Authenticator) logger() *slog.Logger {
	if a != nil && a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}

// Authenticate looks the account up by email and compares the bcrypt hash.
func (a *Authenticator) Authenticate(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
	if a == nil || a.Users == nil {
		return domainauth.Identity{}, errors.New("local authenticator not configured")
	}
	creds = creds.Normalized()

	user, err := a.Users.GetByEmail(ctx, creds.Identifier)
	if err != nil {
		if errors.Is(err, data.ErrUserNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(creds.Secret))
			return domainauth.Identity{}, domainauth.ErrInvalidCredentials
		}
		return domainauth.Identity{}, fmt.Errorf("lookup user: %w", err)
	}

	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Secret)); cmpErr != nil {
		if errors.Is(cmpErr, bcrypt.ErrMismatchedHashAndPassword) {
			return domainauth.Identity{}, domainauth.ErrInvalidCredentials
		}
		return domainauth.Identity{}, fmt.Errorf("compare password hash: %w", cmpErr)
	}
	if user.Disabled {
		return domainauth.Identity{}, domainauth.ErrAccountDisabled
	}

	if recErr := a.Users.RecordLogin(ctx, user.ID); recErr != nil {
		a.logger().WarnContext(ctx, "record last login failed", "user_id", user.ID, "error", recErr)
	}

	role, err := domainauth.ParseRole(user.Role)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("user %s: %w", user.ID, err)
	}

	return domainauth.Identity{
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      role,
	}, nil
}

// HashPassword returns a bcrypt hash suitable for UserRepository.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}
