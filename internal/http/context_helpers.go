package httpx

import (
	"context"

	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
)

// sessionKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type sessionKey struct{}

// resolvedKey marks a request whose identity has already been resolved, even when absent.
type resolvedKey struct{}

// SetSessionInContext returns a child context that carries the given session.
// If session is nil, the original ctx is returned unchanged.
func SetSessionInContext(ctx context.Context, session *domainauth.Session) context.Context {
	if session == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, resolvedKey{}, true)
	return context.WithValue(ctx, sessionKey{}, session)
}

// ClearSessionInContext records that the request no longer carries an identity.
// Used after sign-out so the rest of the request renders the signed-out state.
func ClearSessionInContext(ctx context.Context) context.Context {
	ctx = context.WithValue(ctx, sessionKey{}, (*domainauth.Session)(nil))
	return context.WithValue(ctx, resolvedKey{}, true)
}

// markResolved records an anonymous resolution so later middleware does not repeat it.
func markResolved(ctx context.Context) context.Context {
	return context.WithValue(ctx, resolvedKey{}, true)
}

// identityResolved reports whether resolution already ran for this request.
func identityResolved(ctx context.Context) bool {
	v, _ := ctx.Value(resolvedKey{}).(bool)
	return v
}

// GetUserSessionFromContext returns the user session from context and a boolean indicating presence.
func GetUserSessionFromContext(ctx context.Context) (*domainauth.Session, bool) {
	if session, ok := ctx.Value(sessionKey{}).(*domainauth.Session); ok && session != nil {
		return session, true
	}
	return nil, false
}

// GetSessionFromContext retrieves the session from the request context.
// Maintained for convenience; prefer GetUserSessionFromContext when you need presence info.
func GetSessionFromContext(ctx context.Context) *domainauth.Session {
	if s, ok := GetUserSessionFromContext(ctx); ok {
		return s
	}
	return nil
}

// TierFromContext returns the access tier of the resolved identity.
func TierFromContext(ctx context.Context) domainauth.Tier {
	return domainauth.TierOf(GetSessionFromContext(ctx))
}

// IsGuestUser reports whether the current request context is unauthenticated or a guest session.
func IsGuestUser(ctx context.Context) bool {
	s, ok := GetUserSessionFromContext(ctx)
	if !ok || s == nil {
		return true
	}
	return s.IsGuest()
}
