package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	mockauth "github.com/target/dns-manager-ui/internal/mocks/auth"
)

func TestLoginPage_RendersCredentialForm(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	w := h.do(t, testRequest{Path: "/auth/login?redirect_uri=%2Fdomains"})

	require.Equal(t, http.StatusOK, w.Code)
	doc := parseHTML(t, w.Body.String())

	forms := findAll(doc, byID("login-form"))
	require.Len(t, forms, 1)
	_, disables := attr(forms[0], "hx-disabled-elt")
	assert.True(t, disables, "submit control must be disabled while in flight")

	nonce := findAll(doc, byAttr("name", "form_nonce"))
	require.Len(t, nonce, 1)
	v, _ := attr(nonce[0], "value")
	assert.NotEmpty(t, v)

	redirect := findAll(doc, byAttr("name", "redirect_uri"))
	require.Len(t, redirect, 1)
	v, _ = attr(redirect[0], "value")
	assert.Equal(t, "/domains", v)

	body := w.Body.String()
	for _, s := range []string{
		"E-posta Adresi", "Şifre", "E-posta adresinizi girin", "Şifrenizi girin",
		"Panele Giriş Yap", "Giriş yapılıyor...", "Şifrenizi mi unuttunuz?", "VEYA",
		"Hizmet Almak için İletişime Geçin", "Yenilikçi Çözümler",
	} {
		assert.Contains(t, body, s)
	}
	assert.Empty(t, findAll(doc, byID("sso-login")))
}

func TestLoginPage_SignedInRedirects(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})
	tok := h.signIn(t, "a@b.com", "x")

	w := h.do(t, testRequest{Path: "/auth/login", Token: tok})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestLoginSubmit_SuccessNavigatesWithOneToast(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: loginFormValues("a@b.com", "x")})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	assert.Equal(t, 1, h.authn.Calls())

	session := responseCookie(w, SessionCookieName)
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)
	flash := responseCookie(w, FlashCookieName)
	require.NotNil(t, flash)

	// Follow the redirect carrying the cookies the browser would have stored.
	next := h.do(t, testRequest{Path: "/dashboard", Token: session.Value, Cookies: []*http.Cookie{flash}})
	require.Equal(t, http.StatusOK, next.Code)

	doc := parseHTML(t, next.Body.String())
	toasts := findAll(doc, byClass("toast"))
	require.Len(t, toasts, 1)
	assert.True(t, hasClass(toasts[0], "toast-default"))
	assert.Equal(t, "Giriş başarılı!", textOf(findAll(toasts[0], byClass("toast-title"))[0]))
	assert.Equal(t, "DNS Manager'a hoş geldiniz.", textOf(findAll(toasts[0], byClass("toast-description"))[0]))

	cleared := responseCookie(next, FlashCookieName)
	require.NotNil(t, cleared, "flash must be consumed")
	assert.Less(t, cleared.MaxAge, 0)
}

func TestLoginSubmit_HTMXSuccessUsesHXRedirect(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: loginFormValues("a@b.com", "x"), HTMX: true})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Hx-Redirect"))
	assert.NotNil(t, responseCookie(w, SessionCookieName))
}

func TestLoginSubmit_FailureShowsExactMessage(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: loginFormValues("a@b.com", "wrong")})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
	assert.Nil(t, responseCookie(w, SessionCookieName))

	doc := parseHTML(t, w.Body.String())
	toasts := findAll(doc, byClass("toast"))
	require.Len(t, toasts, 1)
	assert.True(t, hasClass(toasts[0], "toast-destructive"))
	assert.Equal(t, "Hata", textOf(findAll(toasts[0], byClass("toast-title"))[0]))
	assert.Equal(t, "Invalid credentials", textOf(findAll(toasts[0], byClass("toast-description"))[0]))

	email := findAll(doc, byID("email"))
	require.Len(t, email, 1)
	v, _ := attr(email[0], "value")
	assert.Equal(t, "a@b.com", v)

	password := findAll(doc, byID("password"))
	require.Len(t, password, 1)
	_, hasValue := attr(password[0], "value")
	assert.False(t, hasValue, "secret must never be echoed")
}

func TestLoginSubmit_HTMXFailureRetargetsForm(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: loginFormValues("a@b.com", "wrong"), HTMX: true})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Hx-Redirect"))
	assert.Equal(t, "#login-form", w.Header().Get("Hx-Retarget"))
	assert.Equal(t, "outerHTML", w.Header().Get("Hx-Reswap"))

	var trigger map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("Hx-Trigger")), &trigger))
	require.Contains(t, trigger, "showToast")
	assert.Equal(t, "Hata", trigger["showToast"]["title"])
	assert.Equal(t, "Invalid credentials", trigger["showToast"]["message"])
	assert.Equal(t, "destructive", trigger["showToast"]["type"])

	doc := parseHTML(t, w.Body.String())
	require.Len(t, findAll(doc, byID("login-form")), 1)
	assert.Empty(t, findAll(doc, byClass("toast")), "toast travels in the header only")
}

func TestLoginSubmit_MissingFieldsUsesDomainMessage(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: loginFormValues("", "")})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "E-posta adresi ve şifre gereklidir.")
	assert.Equal(t, 0, h.authn.Calls())
}

func TestLoginSubmit_UnexpectedErrorIsGeneric(t *testing.T) {
	authn := &mockauth.StubAuthenticator{
		AuthenticateFunc: func(context.Context, domainauth.Credentials) (domainauth.Identity, error) {
			return domainauth.Identity{}, errors.New("dial tcp 10.0.0.1:389: connection refused")
		},
	}
	h := newConsoleHarness(t, harnessOptions{Authenticator: authn})

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: loginFormValues("a@b.com", "x")})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, genericSignInError)
	assert.NotContains(t, body, "connection refused")
}

func TestLoginSubmit_PasswordToggleDoesNotChangeSecret(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	form := loginFormValues("a@b.com", "x")
	form.Set("show_password", "on")
	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: form})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "x", h.authn.LastCredentials().Secret)
}

func TestLoginSubmit_DuplicateSubmissionAuthenticatesOnce(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	authn := &mockauth.StubAuthenticator{
		AuthenticateFunc: func(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
			entered <- struct{}{}
			select {
			case <-release:
			case <-ctx.Done():
				return domainauth.Identity{}, ctx.Err()
			}
			return domainauth.Identity{UserID: "user-1", Email: creds.Identifier, Groups: []string{"users"}}, nil
		},
	}
	h := newConsoleHarness(t, harnessOptions{Authenticator: authn})

	form := loginFormValues("a@b.com", "x")
	form.Set("form_nonce", "render-1")

	var wg sync.WaitGroup
	codes := make([]int, 2)
	for i := range codes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: form}).Code
		}(i)
	}

	<-entered
	// Give the second submission time to join the flight before it completes.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, 1, authn.Calls())
	assert.Equal(t, []int{http.StatusSeeOther, http.StatusSeeOther}, codes)
}

func TestLoginSubmit_RedirectURIMustBeLocal(t *testing.T) {
	tests := []struct {
		name     string
		redirect string
		want     string
	}{
		{name: "local path", redirect: "/domains", want: "/domains"},
		{name: "absolute url", redirect: "https://evil.example/", want: "/dashboard"},
		{name: "scheme relative", redirect: "//evil.example", want: "/dashboard"},
		{name: "back to login", redirect: "/auth/login", want: "/dashboard"},
		{name: "root", redirect: "/", want: "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newConsoleHarness(t, harnessOptions{})
			form := loginFormValues("a@b.com", "x")
			form.Set("redirect_uri", tt.redirect)

			w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: form})

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Location"))
		})
	}
}

func TestLoginSubmit_RejectsMissingCSRFToken(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})
	form := loginFormValues("a@b.com", "x")
	form.Set("csrf_token", "forged")

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/login", Form: form})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 0, h.authn.Calls())
}

func logoutForm() url.Values {
	return url.Values{"csrf_token": {testCSRFToken}, "redirect_uri": {"/domains"}}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})
	tok := h.signIn(t, "a@b.com", "x")
	require.Equal(t, 1, h.store.Len())

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/logout", Form: logoutForm(), Token: tok})

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/signed-out?redirect_uri=%2Fdomains", w.Header().Get("Location"))

	cleared := responseCookie(w, SessionCookieName)
	require.NotNil(t, cleared)
	assert.Less(t, cleared.MaxAge, 0)
	assert.NotNil(t, responseCookie(w, FlashCookieName))

	assert.Equal(t, 0, h.store.Len())
	_, ok := h.svc.ResolveIdentity(context.Background(), tok)
	assert.False(t, ok, "a signed-out token must not resolve")

	// The stale cookie no longer opens protected pages.
	again := h.do(t, testRequest{Path: "/dashboard", Token: tok})
	assert.Equal(t, http.StatusSeeOther, again.Code)
}

func TestLogout_HTMXRerendersSidebarOutOfBand(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})
	tok := h.signIn(t, "a@b.com", "x")

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/logout", Form: logoutForm(), Token: tok, HTMX: true})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/auth/signed-out?redirect_uri=%2Fdomains", w.Header().Get("Hx-Push-Url"))
	assert.Empty(t, w.Header().Get("Hx-Redirect"))

	var trigger map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("Hx-Trigger")), &trigger))
	assert.Equal(t, "Çıkış yapıldı", trigger["showToast"]["title"])
	assert.Equal(t, "Başarıyla çıkış yapıldı.", trigger["showToast"]["message"])
	assert.Equal(t, "default", trigger["showToast"]["type"])

	doc := parseHTML(t, w.Body.String())
	require.Len(t, findAll(doc, byID("signed-out")), 1)

	sidebar := findAll(doc, byID("sidebar"))
	require.Len(t, sidebar, 1)
	oob, _ := attr(sidebar[0], "hx-swap-oob")
	assert.Equal(t, "outerHTML", oob)
	assert.Empty(t, navGroups(sidebar[0]), "signed-out sidebar shows no navigation")
	assert.Empty(t, findAll(sidebar[0], byAttr("data-session-indicator", "")))

	_, ok := h.svc.ResolveIdentity(context.Background(), tok)
	assert.False(t, ok)
}

func TestLogout_FailureKeepsSessionAndShowsToast(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})
	tok := h.signIn(t, "a@b.com", "x")
	h.store.DeleteErr = errors.New("redis: connection reset")

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/logout", Form: logoutForm(), Token: tok, HTMX: true})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "none", w.Header().Get("Hx-Reswap"))
	assert.Nil(t, responseCookie(w, SessionCookieName), "session cookie is kept on failure")

	var trigger map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("Hx-Trigger")), &trigger))
	assert.Equal(t, "Hata", trigger["showToast"]["title"])
	assert.Equal(t, genericSignOutError, trigger["showToast"]["message"])
	assert.Equal(t, "destructive", trigger["showToast"]["type"])

	h.store.DeleteErr = nil
	_, ok := h.svc.ResolveIdentity(context.Background(), tok)
	assert.True(t, ok)
}

func TestLogout_FailureWithoutHTMXGoesBack(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})
	tok := h.signIn(t, "a@b.com", "x")
	h.store.DeleteErr = errors.New("redis: connection reset")

	w := h.do(t, testRequest{Method: http.MethodPost, Path: "/auth/logout", Form: logoutForm(), Token: tok})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
	assert.NotNil(t, responseCookie(w, FlashCookieName))
	assert.Nil(t, responseCookie(w, SessionCookieName))
}

func TestStatus(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{Authenticator: adminAuthenticator()})

	t.Run("anonymous", func(t *testing.T) {
		w := h.do(t, testRequest{Path: "/auth/status"})
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["authenticated"])
		assert.Equal(t, "unauthenticated", body["tier"])
	})

	t.Run("privileged", func(t *testing.T) {
		tok := h.signIn(t, "admin@b.com", "x")
		w := h.do(t, testRequest{Path: "/auth/status", Token: tok})
		require.Equal(t, http.StatusOK, w.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, true, body["authenticated"])
		assert.Equal(t, "privileged", body["tier"])
		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "admin", user["role"])
	})

	t.Run("tampered token", func(t *testing.T) {
		tok := h.signIn(t, "a@b.com", "x")
		w := h.do(t, testRequest{Path: "/auth/status", Token: tok + "x"})
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, false, body["authenticated"])
		assert.NotNil(t, responseCookie(w, SessionCookieName), "stale cookie is cleared")
	})
}

func TestSSO_DisabledFallsBackToLogin(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	w := h.do(t, testRequest{Path: "/auth/sso"})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
}

func TestSSO_RoundTrip(t *testing.T) {
	sso := mockauth.NewMockSSOProvider()
	h := newConsoleHarness(t, harnessOptions{SSO: sso})

	login := h.do(t, testRequest{Path: "/auth/login"})
	require.Equal(t, http.StatusOK, login.Code)
	doc := parseHTML(t, login.Body.String())
	assert.Len(t, findAll(doc, byID("sso-login")), 1)
	assert.Empty(t, findAll(doc, byID("login-form")), "credential fields are replaced by SSO")

	begin := h.do(t, testRequest{Path: "/auth/sso?redirect_uri=%2Fprofile"})
	require.Equal(t, http.StatusFound, begin.Code)
	assert.Equal(t, sso.AuthURL, begin.Header().Get("Location"))

	state := responseCookie(begin, oauthStateCookie)
	nonce := responseCookie(begin, oauthNonceCookie)
	redirect := responseCookie(begin, postLoginRedirectCookie)
	require.NotNil(t, state)
	require.NotNil(t, nonce)
	require.NotNil(t, redirect)

	cb := h.do(t, testRequest{
		Path:    "/auth/callback?code=abc&state=" + url.QueryEscape(state.Value),
		Cookies: []*http.Cookie{state, nonce, redirect},
	})
	require.Equal(t, http.StatusFound, cb.Code)
	assert.Equal(t, "/profile", cb.Header().Get("Location"))

	session := responseCookie(cb, SessionCookieName)
	require.NotNil(t, session)
	resolved, ok := h.svc.ResolveIdentity(context.Background(), session.Value)
	require.True(t, ok)
	assert.Equal(t, "mock.user@example.com", resolved.Email)
}

func TestSSO_CallbackStateMismatch(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{SSO: mockauth.NewMockSSOProvider()})

	w := h.do(t, testRequest{
		Path:    "/auth/callback?code=abc&state=other",
		Cookies: []*http.Cookie{{Name: oauthStateCookie, Value: "state-1"}, {Name: oauthNonceCookie, Value: "nonce-1"}},
	})

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login", w.Header().Get("Location"))
	assert.Nil(t, responseCookie(w, SessionCookieName))
	assert.NotNil(t, responseCookie(w, FlashCookieName))
}
