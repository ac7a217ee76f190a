package httpx

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// signedOutData builds the signed-out view. The request context must already
// carry the cleared identity so the sidebar renders anonymously.
func (h *UIHandlers) signedOutData(r *http.Request, redirectURI string) map[string]any {
	data := basePageData(r, PageMeta{
		Title:       "Çıkış Yapıldı - DNS Manager",
		PageTitle:   "Çıkış Yapıldı",
		CurrentPage: PageSignedOut,
	})
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	data["RedirectURI"] = redirectURI
	data["LoginURL"] = loginPath + "?" + q.Encode()
	data["LogoutURL"] = h.LogoutURL
	return data
}

// SignedOut renders the signed-out page with a link back to the login form.
func (h *UIHandlers) SignedOut(w http.ResponseWriter, r *http.Request) {
	redirect := landingFor(r.URL.Query().Get("redirect_uri"))
	if h.T == nil {
		http.Redirect(w, r, loginPath+"?redirect_uri="+url.QueryEscape(redirect), http.StatusSeeOther)
		return
	}
	data := h.signedOutData(r, redirect)
	h.withFlash(w, r, data)
	h.renderDashboardPage(w, r, data)
}

// errorPage describes a status page rendered with the error layout.
type errorPage struct {
	Status  int
	Title   string
	Message string
}

func (h *UIHandlers) renderErrorPage(w http.ResponseWriter, r *http.Request, p errorPage) {
	isAuthenticated := GetSessionFromContext(r.Context()) != nil
	data := map[string]any{
		"Title":           p.Title + " - DNS Manager",
		"Code":            strconv.Itoa(p.Status),
		"Message":         p.Message,
		"IsAuthenticated": isAuthenticated,
		"ShowLogin":       !isAuthenticated,
		"RedirectURI":     r.URL.RequestURI(),
	}
	if h.T == nil {
		http.Error(w, p.Message, p.Status)
		return
	}
	h.writeHTML(w, r, htmlResponse{Status: p.Status, Parts: []string{"error-layout"}, Data: data})
}

// Forbidden renders the access-denied page for identities below the required tier.
func (h *UIHandlers) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.renderErrorPage(w, r, errorPage{
		Status:  http.StatusForbidden,
		Title:   "Erişim Engellendi",
		Message: "Bu sayfaya erişim yetkiniz yok.",
	})
}

// NotFound handles 404 errors with auth-aware behavior.
// For browser requests, it renders an HTML error page.
// For API requests, it returns a JSON error response.
func (h *UIHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) {
		h.renderErrorPage(w, r, errorPage{
			Status:  http.StatusNotFound,
			Title:   "Sayfa Bulunamadı",
			Message: "Aradığınız sayfa mevcut değil.",
		})
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusNotFound,
		ErrCode: "not_found",
		Err:     errors.New("not found"),
	})
}
