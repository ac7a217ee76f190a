package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/target/dns-manager-ui/internal/domain/model"
	"github.com/target/dns-manager-ui/internal/http/ui/nav"
	"github.com/target/dns-manager-ui/internal/http/ui/viewmodel"
	"github.com/target/dns-manager-ui/internal/http/uiutil"
	"github.com/target/dns-manager-ui/internal/service"
)

// UserDirectory is the slice of the user service the admin panel needs.
type UserDirectory interface {
	List(ctx context.Context, opts model.UserListOptions) ([]*model.User, error)
}

var _ UserDirectory = (*service.UserService)(nil)

// UIHandlers serves browser-facing routes.
type UIHandlers struct {
	T *TemplateRenderer
	// Users is nil unless local accounts are enabled.
	Users        UserDirectory
	CookieDomain string
	// LogoutURL is the identity provider's end-session page, linked from the signed-out page.
	LogoutURL string
	IsDev     bool
	Logger    *slog.Logger
}

func (h *UIHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *UIHandlers) cookies() cookieWriter { return cookieWriter{Domain: h.CookieDomain} }

// PageMeta names a page for the title bar and the sidebar's active entry.
type PageMeta struct {
	Title       string
	PageTitle   string
	CurrentPage string
}

// PageSpec is a page plus the optional loader for its content.
type PageSpec struct {
	Meta  PageMeta
	Fetch func(ctx context.Context, data map[string]any) error
}

// Page renders ps inside the console chrome. A failed Fetch still renders
// the page, with an error banner instead of content.
func (h *UIHandlers) Page(w http.ResponseWriter, r *http.Request, ps PageSpec) {
	data := basePageData(r, ps.Meta)
	h.withFlash(w, r, data)
	if ps.Fetch != nil {
		if err := ps.Fetch(r.Context(), data); err != nil {
			h.logger().ErrorContext(r.Context(), "page data fetch failed",
				"page", ps.Meta.CurrentPage, "error", err)
			data["Error"] = true
			if _, ok := data["ErrorMessage"]; !ok {
				data["ErrorMessage"] = "Beklenmeyen bir hata oluştu. Lütfen tekrar deneyin."
			}
		}
	}
	h.renderDashboardPage(w, r, data)
}

// buildLayout derives the chrome from the identity resolved by the auth middleware.
func buildLayout(r *http.Request, meta PageMeta) viewmodel.Layout {
	layout := viewmodel.Layout{
		Title:       meta.Title,
		PageTitle:   meta.PageTitle,
		CurrentPage: meta.CurrentPage,
		CurrentPath: r.URL.Path,
		Brand:       nav.Brand,
		CSRFToken:   GetCSRFToken(r),
		Nav:         nav.Render(TierFromContext(r.Context()), r.URL.Path),
	}
	if s := GetSessionFromContext(r.Context()); s != nil {
		name := s.DisplayName()
		layout.IsAuthenticated = true
		layout.IsPrivileged = s.IsPrivileged()
		layout.User = &viewmodel.User{
			Name:     name,
			Email:    s.Email,
			Role:     string(s.Role),
			Initials: uiutil.Initials(name),
		}
	}
	return layout
}

// basePageData flattens the layout into the map the templates read.
func basePageData(r *http.Request, meta PageMeta) map[string]any {
	l := buildLayout(r, meta)
	data := map[string]any{
		"Title":           l.Title,
		"PageTitle":       l.PageTitle,
		"CurrentPage":     l.CurrentPage,
		"CurrentPath":     l.CurrentPath,
		"Brand":           l.Brand,
		"Nav":             l.Nav,
		"IsAuthenticated": l.IsAuthenticated,
		"IsPrivileged":    l.IsPrivileged,
	}
	if l.CSRFToken != "" {
		data["CSRFToken"] = l.CSRFToken
	}
	if l.User != nil {
		data["User"] = l.User
	}
	return data
}

// withFlash moves a queued flash toast into the page data.
func (h *UIHandlers) withFlash(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if toast, ok := h.cookies().popFlash(w, r); ok {
		data["Toasts"] = []viewmodel.Toast{toast}
	}
}

// triggerToast asks the client toast region to show toast after the swap.
func triggerToast(w http.ResponseWriter, toast viewmodel.Toast) {
	if w == nil || strings.TrimSpace(toast.Title) == "" {
		return
	}
	variant := strings.TrimSpace(toast.Variant)
	if variant == "" {
		variant = viewmodel.ToastDefault
	}
	HTMX(w).Trigger("showToast", map[string]any{
		"title":   toast.Title,
		"message": toast.Description,
		"type":    variant,
	})
}
