package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

// IsBrowserRequest reports the decision made by BrowserDetection, or detects
// it directly when the middleware did not run.
func IsBrowserRequest(r *http.Request) bool {
	if isBrowser, ok := r.Context().Value(browserRequestKey{}).(bool); ok {
		return isBrowser
	}
	return isBrowserRequest(r)
}

// isBrowserRequest: /api/ and /static/ never are; htmx always is; otherwise
// the Accept header decides, and a missing one counts as a browser.
func isBrowserRequest(r *http.Request) bool {
	p := r.URL.Path
	if strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/static/") {
		return false
	}
	if IsHTMX(r) {
		return true
	}
	accept := r.Header.Get("Accept")
	return accept == "" || strings.Contains(accept, "text/html")
}

// redirectToLogin sends the browser to the login form, remembering where it was going.
// htmx requests are navigated to the signed-out page instead of swapping an error in.
func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	back := url.QueryEscape(redirectPathForRequest(r))

	if IsHTMX(r) {
		SetHXRedirect(w, signedOutPath+"?redirect_uri="+back)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, loginPath+"?redirect_uri="+back, http.StatusSeeOther)
}

// redirectPathForRequest prefers the page an htmx request was issued from
// over the fragment URL it targeted.
func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		for _, h := range []string{"Hx-Current-Url", "Referer"} {
			if p := safeRedirectFromURL(r.Header.Get(h)); p != "" {
				return p
			}
		}
	}
	return safeRedirectPath(r.URL.RequestURI())
}

// safeRedirectFromURL keeps only the path and query of an absolute URL.
// Scheme-relative references and unparsable input yield "".
func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}
	if u.Host != "" {
		return ""
	}
	return safeRedirectPath(raw)
}

// safeRedirectPath returns candidate when it is a same-origin absolute path, "/" otherwise.
func safeRedirectPath(candidate string) string {
	if candidate == "" || strings.HasPrefix(candidate, "//") || strings.Contains(candidate, `\`) {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}
