package httpx

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/target/dns-manager-ui/internal/http/ui/viewmodel"
)

// flashMaxAge bounds how long an unread flash toast survives.
const flashMaxAge = 60

// cookieWriter sets and clears cookies with the attributes shared by every console cookie.
type cookieWriter struct {
	Domain string
}

// isSecureRequest reports whether the browser reached us over HTTPS, directly
// or through proxies listed in X-Forwarded-Proto ("https,http").
func isSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	for _, proto := range strings.Split(r.Header.Get("X-Forwarded-Proto"), ",") {
		if strings.EqualFold(strings.TrimSpace(proto), "https") {
			return true
		}
	}
	return false
}

func (c cookieWriter) set(w http.ResponseWriter, r *http.Request, cookie *http.Cookie) {
	cookie.Path = "/"
	cookie.Domain = c.Domain
	cookie.HttpOnly = true
	cookie.Secure = isSecureRequest(r)
	cookie.SameSite = http.SameSiteLaxMode
	http.SetCookie(w, cookie)
}

// clear expires a cookie. It mirrors the attributes used when setting it so
// every browser matches and removes the same cookie.
func (c cookieWriter) clear(w http.ResponseWriter, r *http.Request, name string) {
	c.set(w, r, &http.Cookie{
		Name:    name,
		Value:   "",
		MaxAge:  -1,
		Expires: time.Unix(0, 0).UTC(),
	})
}

// setSession stores the signed session token until the session expires.
func (c cookieWriter) setSession(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = -1
	}
	c.set(w, r, &http.Cookie{
		Name:   SessionCookieName,
		Value:  token,
		MaxAge: maxAge,
	})
}

// setFlash queues a toast to be shown once on the next rendered page.
func (c cookieWriter) setFlash(w http.ResponseWriter, r *http.Request, toast viewmodel.Toast) {
	b, err := json.Marshal(toast)
	if err != nil {
		return
	}
	c.set(w, r, &http.Cookie{
		Name:   FlashCookieName,
		Value:  base64.RawURLEncoding.EncodeToString(b),
		MaxAge: flashMaxAge,
	})
}

// popFlash returns the queued toast, if any, and clears it.
func (c cookieWriter) popFlash(w http.ResponseWriter, r *http.Request) (viewmodel.Toast, bool) {
	cookie, err := r.Cookie(FlashCookieName)
	if err != nil || cookie.Value == "" {
		return viewmodel.Toast{}, false
	}
	c.clear(w, r, FlashCookieName)

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return viewmodel.Toast{}, false
	}
	var toast viewmodel.Toast
	if err := json.Unmarshal(raw, &toast); err != nil || toast.Title == "" {
		return viewmodel.Toast{}, false
	}
	if toast.Variant != viewmodel.ToastDestructive {
		toast.Variant = viewmodel.ToastDefault
	}
	return toast, true
}

// oauthCookieParams groups values needed to set OAuth cookies (≤3 params rule).
type oauthCookieParams struct {
	State       string
	Nonce       string
	RedirectURI string
}

const oauthCookieMaxAge = 600 // 10 minutes

// setOAuth stores OAuth state, nonce, and the post-login redirect.
func (c cookieWriter) setOAuth(w http.ResponseWriter, r *http.Request, p oauthCookieParams) {
	c.set(w, r, &http.Cookie{Name: oauthStateCookie, Value: p.State, MaxAge: oauthCookieMaxAge})
	c.set(w, r, &http.Cookie{Name: oauthNonceCookie, Value: p.Nonce, MaxAge: oauthCookieMaxAge})
	c.set(w, r, &http.Cookie{Name: postLoginRedirectCookie, Value: p.RedirectURI, MaxAge: oauthCookieMaxAge})
}

// popPostLoginRedirect returns the stored post-login redirect and clears the cookie.
func (c cookieWriter) popPostLoginRedirect(w http.ResponseWriter, r *http.Request) string {
	redirectCookie, err := r.Cookie(postLoginRedirectCookie)
	if err != nil {
		return defaultLanding
	}
	c.clear(w, r, postLoginRedirectCookie)
	return landingFor(redirectCookie.Value)
}

// landingFor validates a post-login destination, defaulting to the dashboard.
func landingFor(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return defaultLanding
	}
	safe := safeRedirectPath(candidate)
	if safe == "/" || strings.HasPrefix(safe, "/auth/") {
		return defaultLanding
	}
	return safe
}
