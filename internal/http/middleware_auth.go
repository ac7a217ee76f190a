package httpx

import (
	"errors"
	"net/http"
	"strings"

	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
)

// OptionalAuth attaches the caller's session, if any, and never blocks.
// Static assets and the health check are passed through unresolved.
func OptionalAuth(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if identityless(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, resolveIdentity(r, authSvc))
		})
	}
}

func identityless(path string) bool {
	return path == "/healthz" || strings.HasPrefix(path, "/static/")
}

// RequireAuth answers anonymous API calls with a 401 JSON error.
func RequireAuth(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return RequireTier(authSvc, domainauth.TierStandard)
}

// RequireTier answers API calls below tier with 401 (anonymous) or 403 JSON errors.
func RequireTier(authSvc AuthServiceInterface, tier domainauth.Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = resolveIdentity(r, authSvc)
			switch current := TierFromContext(r.Context()); {
			case current == domainauth.TierUnauthenticated:
				writeAuthRequired(w)
			case current < tier:
				writeInsufficientPermissions(w)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireAuthBrowser is RequireTierBrowser at the standard tier.
func RequireAuthBrowser(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return RequireTierBrowser(authSvc, domainauth.TierStandard, nil)
}

// RequireTierBrowser requires the resolved identity to reach tier.
// Anonymous browser requests are sent to the login page. A signed-in identity
// below tier gets denied (a plain 403 when denied is nil). API requests get JSON errors.
func RequireTierBrowser(
	authSvc AuthServiceInterface,
	tier domainauth.Tier,
	denied http.HandlerFunc,
) func(http.Handler) http.Handler {
	if denied == nil {
		denied = showAccessDenied
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r = resolveIdentity(r, authSvc)
			current := TierFromContext(r.Context())
			browser := IsBrowserRequest(r)

			switch {
			case current >= tier:
				next.ServeHTTP(w, r)
			case current == domainauth.TierUnauthenticated && browser:
				redirectToLogin(w, r)
			case current == domainauth.TierUnauthenticated:
				writeAuthRequired(w)
			case browser:
				denied(w, r)
			default:
				writeInsufficientPermissions(w)
			}
		})
	}
}

// resolveIdentity resolves the session cookie once per request and records the
// outcome in the context. Later calls reuse it.
func resolveIdentity(r *http.Request, authSvc AuthServiceInterface) *http.Request {
	if identityResolved(r.Context()) {
		return r
	}
	if session := sessionFromCookie(r, authSvc); session != nil {
		return r.WithContext(SetSessionInContext(r.Context(), session))
	}
	return r.WithContext(markResolved(r.Context()))
}

func sessionFromCookie(r *http.Request, authSvc AuthServiceInterface) *domainauth.Session {
	if authSvc == nil {
		return nil
	}
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	session, ok := authSvc.ResolveIdentity(r.Context(), c.Value)
	if !ok {
		return nil
	}
	return session
}

func writeAuthRequired(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

func writeInsufficientPermissions(w http.ResponseWriter) {
	WriteError(w, ErrorParams{
		Code:    http.StatusForbidden,
		ErrCode: "insufficient_permissions",
		Err:     errors.New("insufficient permissions"),
	})
}

// showAccessDenied is the fallback 403 when no page renderer is wired.
func showAccessDenied(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "Bu sayfaya erişim yetkiniz yok.", http.StatusForbidden)
}
