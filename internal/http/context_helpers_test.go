package httpx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
)

func TestGetUserSessionFromContext(t *testing.T) {
	// No session
	if s, ok := GetUserSessionFromContext(context.Background()); assert.False(t, ok) {
		assert.Nil(t, s)
	}

	// With session
	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleUser}
	ctx := SetSessionInContext(context.Background(), sess)
	s, ok := GetUserSessionFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, sess, s)
	assert.True(t, identityResolved(ctx))
}

func TestClearSessionInContext(t *testing.T) {
	sess := &domainauth.Session{ID: "abc", Role: domainauth.RoleAdmin}
	ctx := SetSessionInContext(context.Background(), sess)
	assert.Equal(t, domainauth.TierPrivileged, TierFromContext(ctx))

	ctx = ClearSessionInContext(ctx)
	_, ok := GetUserSessionFromContext(ctx)
	assert.False(t, ok)
	assert.True(t, identityResolved(ctx))
	assert.Equal(t, domainauth.TierUnauthenticated, TierFromContext(ctx))
}

func TestMarkResolved(t *testing.T) {
	assert.False(t, identityResolved(context.Background()))
	assert.True(t, identityResolved(markResolved(context.Background())))
}

func TestIsGuestUser(t *testing.T) {
	// No session => guest
	assert.True(t, IsGuestUser(context.Background()))

	// Guest role => guest
	guest := &domainauth.Session{ID: "g", Role: domainauth.RoleGuest}
	assert.True(t, IsGuestUser(SetSessionInContext(context.Background(), guest)))

	// User/Admin => not guest
	user := &domainauth.Session{ID: "u", Role: domainauth.RoleUser}
	admin := &domainauth.Session{ID: "a", Role: domainauth.RoleAdmin}
	assert.False(t, IsGuestUser(SetSessionInContext(context.Background(), user)))
	assert.False(t, IsGuestUser(SetSessionInContext(context.Background(), admin)))
}
