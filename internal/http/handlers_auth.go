package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/http/ui/viewmodel"
	"github.com/target/dns-manager-ui/internal/service"
)

// AuthServiceInterface defines the interface for auth service operations.
type AuthServiceInterface interface {
	SignIn(ctx context.Context, in service.SignInInput) (*service.SignInResult, error)
	ResolveIdentity(ctx context.Context, token string) (*domainauth.Session, bool)
	SignOut(ctx context.Context, token string) error
	BeginSSO(ctx context.Context, redirectURL string) (*service.BeginSSOResult, error)
	CompleteSSO(ctx context.Context, in service.CompleteSSOInput) (*service.SignInResult, error)
	CredentialLogin() bool
	SSOEnabled() bool
}

var _ AuthServiceInterface = (*service.AuthService)(nil)

// Form field names posted by the login form.
const (
	fieldIdentifier  = "email"
	fieldSecret      = "password"
	fieldFormNonce   = "form_nonce"
	fieldRedirectURI = "redirect_uri"
)

const (
	genericSignInError  = "Giriş sırasında beklenmeyen bir hata oluştu."
	genericSignOutError = "Çıkış yapılırken bir hata oluştu."
	ssoFailedMessage    = "Kurumsal hesap ile giriş tamamlanamadı."
)

//nolint:gochecknoglobals // fixed notification copy
var (
	toastSignedIn  = viewmodel.Toast{Title: "Giriş başarılı!", Description: "DNS Manager'a hoş geldiniz.", Variant: viewmodel.ToastDefault}
	toastSignedOut = viewmodel.Toast{Title: "Çıkış yapıldı", Description: "Başarıyla çıkış yapıldı.", Variant: viewmodel.ToastDefault}
)

func errorToast(message string) viewmodel.Toast {
	return viewmodel.Toast{Title: "Hata", Description: message, Variant: viewmodel.ToastDestructive}
}

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Svc AuthServiceInterface
	// UI renders the login form, the signed-out view and the sidebar fragment.
	UI                *UIHandlers
	CookieDomain      string
	ContactURL        string
	ForgotPasswordURL string
	Logger            *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) cookies() cookieWriter { return cookieWriter{Domain: h.CookieDomain} }

// loginForm is what the credential form echoes back across renders. The secret is never part of it.
type loginForm struct {
	Identifier  string
	RedirectURI string
}

// loginData builds the template data for the login page. Every render gets a
// fresh form nonce; submissions of the same render share one sign-in.
func (h *AuthHandlers) loginData(r *http.Request, form loginForm) map[string]any {
	data := basePageData(r, PageMeta{Title: "Giriş Yap - DNS Manager", PageTitle: "Giriş Yap", CurrentPage: "login"})
	data["FormNonce"] = uuid.NewString()
	data["Identifier"] = form.Identifier
	data["RedirectURI"] = form.RedirectURI
	data["CredentialLogin"] = h.Svc.CredentialLogin()
	data["SSOEnabled"] = h.Svc.SSOEnabled()
	data["ContactURL"] = linkOrPlaceholder(h.ContactURL)
	data["ForgotPasswordURL"] = linkOrPlaceholder(h.ForgotPasswordURL)
	return data
}

func linkOrPlaceholder(u string) string {
	if u == "" {
		return "#"
	}
	return u
}

// LoginPage renders the credential form.
// GET /auth/login?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	redirectURI := landingFor(r.URL.Query().Get(fieldRedirectURI))
	if GetSessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, redirectURI, http.StatusSeeOther)
		return
	}

	data := h.loginData(r, loginForm{RedirectURI: redirectURI})
	h.UI.withFlash(w, r, data)
	h.UI.writeHTML(w, r, htmlResponse{Parts: []string{"login-page"}, Data: data})
}

// LoginSubmit checks the posted credentials.
// POST /auth/login.
func (h *AuthHandlers) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_form", Err: err})
		return
	}

	form := loginForm{
		Identifier:  strings.TrimSpace(r.PostFormValue(fieldIdentifier)),
		RedirectURI: landingFor(r.PostFormValue(fieldRedirectURI)),
	}
	creds := domainauth.Credentials{
		Identifier: r.PostFormValue(fieldIdentifier),
		Secret:     r.PostFormValue(fieldSecret),
	}
	key := r.PostFormValue(fieldFormNonce)
	if key == "" {
		key = creds.Normalized().Identifier
	}

	res, err := h.Svc.SignIn(r.Context(), service.SignInInput{Credentials: creds, SubmissionKey: key})
	if err != nil {
		h.loginFailed(w, r, form, err)
		return
	}

	h.cookies().setSession(w, r, res.Token, res.Session.ExpiresAt)
	h.cookies().setFlash(w, r, toastSignedIn)
	if IsHTMX(r) {
		HTMX(w).Redirect(form.RedirectURI)
		return
	}
	http.Redirect(w, r, form.RedirectURI, http.StatusSeeOther)
}

// loginFailed shows one destructive toast and re-renders the form with the identifier kept.
func (h *AuthHandlers) loginFailed(w http.ResponseWriter, r *http.Request, form loginForm, err error) {
	if r.Context().Err() != nil {
		// The client is gone; nobody is left to show the form to.
		h.logger().DebugContext(r.Context(), "sign-in abandoned", "error", err)
		return
	}

	msg, ok := domainauth.DisplayMessage(err)
	if !ok {
		h.logger().ErrorContext(r.Context(), "sign-in failed", "error", err)
		msg = genericSignInError
	}
	toast := errorToast(msg)
	data := h.loginData(r, form)

	if IsHTMX(r) {
		HTMX(w).Retarget("#login-form", "outerHTML")
		triggerToast(w, toast)
		h.UI.writeHTML(w, r, htmlResponse{Parts: []string{"login-form"}, Data: data})
		return
	}

	data["Toasts"] = []viewmodel.Toast{toast}
	h.UI.writeHTML(w, r, htmlResponse{Status: http.StatusUnprocessableEntity, Parts: []string{"login-page"}, Data: data})
}

// Logout discards the session and re-renders only what changes.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	var token string
	if c, err := r.Cookie(SessionCookieName); err == nil {
		token = c.Value
	}

	if err := h.Svc.SignOut(r.Context(), token); err != nil {
		h.logoutFailed(w, r, err)
		return
	}

	h.cookies().clear(w, r, SessionCookieName)
	r = r.WithContext(ClearSessionInContext(r.Context()))

	redirectURI := landingFor(r.FormValue(fieldRedirectURI))
	signedOutURL := signedOutURLFor(redirectURI)

	if IsHTMX(r) {
		data := h.UI.signedOutData(r, redirectURI)
		data["SidebarOOB"] = true
		HTMX(w).PushURL(signedOutURL)
		triggerToast(w, toastSignedOut)
		h.UI.writeHTML(w, r, htmlResponse{Parts: []string{"signed-out-content", "sidebar", "header-title-oob"}, Data: data})
		return
	}

	h.cookies().setFlash(w, r, toastSignedOut)
	http.Redirect(w, r, signedOutURL, http.StatusSeeOther)
}

// logoutFailed keeps the session cookie so the person can try again.
func (h *AuthHandlers) logoutFailed(w http.ResponseWriter, r *http.Request, err error) {
	h.logger().ErrorContext(r.Context(), "sign-out failed", "error", err)

	msg, ok := domainauth.DisplayMessage(err)
	if !ok {
		msg = genericSignOutError
	}
	toast := errorToast(msg)

	if IsHTMX(r) {
		HTMX(w).Reswap("none")
		triggerToast(w, toast)
		w.WriteHeader(http.StatusOK)
		return
	}

	back := safeRedirectFromURL(r.Referer())
	if back == "" || back == "/" {
		back = defaultLanding
	}
	h.cookies().setFlash(w, r, toast)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func signedOutURLFor(redirectURI string) string {
	u := url.URL{Path: signedOutPath}
	q := url.Values{}
	q.Set(fieldRedirectURI, redirectURI)
	u.RawQuery = q.Encode()
	return u.String()
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		if _, err := r.Cookie(SessionCookieName); err == nil {
			h.cookies().clear(w, r, SessionCookieName)
		}
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"tier":          domainauth.TierUnauthenticated.String(),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"tier":          session.Tier().String(),
		"user": map[string]any{
			"id":         session.UserID,
			"first_name": session.FirstName,
			"last_name":  session.LastName,
			"email":      session.Email,
			"role":       session.Role,
		},
		"expires_at": session.ExpiresAt,
	})
}

// SSO starts the identity provider redirect.
// GET /auth/sso?redirect_uri=<optional_redirect>.
func (h *AuthHandlers) SSO(w http.ResponseWriter, r *http.Request) {
	if !h.Svc.SSOEnabled() {
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	redirectURI := landingFor(r.URL.Query().Get(fieldRedirectURI))

	result, err := h.Svc.BeginSSO(r.Context(), redirectURI)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin sso failed", "error", err)
		h.failSSO(w, r)
		return
	}

	h.cookies().setOAuth(w, r, oauthCookieParams{State: result.State, Nonce: result.Nonce, RedirectURI: redirectURI})
	http.Redirect(w, r, result.AuthURL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	stateCookie, err := r.Cookie(oauthStateCookie)
	if code == "" || state == "" || err != nil || stateCookie.Value != state {
		h.logger().WarnContext(r.Context(), "sso callback rejected", "has_code", code != "", "state_ok", err == nil)
		h.failSSO(w, r)
		return
	}
	nonceCookie, err := r.Cookie(oauthNonceCookie)
	if err != nil {
		h.failSSO(w, r)
		return
	}

	result, err := h.Svc.CompleteSSO(r.Context(), service.CompleteSSOInput{
		Code:  code,
		State: state,
		Nonce: nonceCookie.Value,
	})
	if err != nil {
		h.logger().ErrorContext(r.Context(), "sso completion failed", "error", err)
		h.failSSO(w, r)
		return
	}

	h.cookies().setSession(w, r, result.Token, result.Session.ExpiresAt)
	h.cookies().clear(w, r, oauthStateCookie)
	h.cookies().clear(w, r, oauthNonceCookie)
	h.cookies().setFlash(w, r, toastSignedIn)

	http.Redirect(w, r, h.cookies().popPostLoginRedirect(w, r), http.StatusFound)
}

func (h *AuthHandlers) failSSO(w http.ResponseWriter, r *http.Request) {
	h.cookies().clear(w, r, oauthStateCookie)
	h.cookies().clear(w, r, oauthNonceCookie)
	h.cookies().setFlash(w, r, errorToast(ssoFailedMessage))
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}
