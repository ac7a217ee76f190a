package httpx

import (
	"context"
	"net/http"

	"github.com/target/dns-manager-ui/internal/domain/model"
	"github.com/target/dns-manager-ui/internal/http/ui/nav"
)

// Index sends signed-in users to the dashboard and everyone else to the login form.
func (h *UIHandlers) Index(w http.ResponseWriter, r *http.Request) {
	if GetSessionFromContext(r.Context()) != nil {
		http.Redirect(w, r, defaultLanding, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// Dashboard serves the landing page after sign-in.
func (h *UIHandlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Dashboard - DNS Manager", PageTitle: "Dashboard", CurrentPage: PageDashboard},
		Fetch: func(_ context.Context, data map[string]any) error {
			// Shortcuts mirror the primary navigation group.
			for _, g := range nav.Groups() {
				if g.Key == nav.GroupPrimary {
					data["Shortcuts"] = g.Entries
				}
			}
			return nil
		},
	})
}

// Domains serves the domain management page.
func (h *UIHandlers) Domains(w http.ResponseWriter, r *http.Request) {
	h.placeholder(w, r, PageMeta{Title: "Domains - DNS Manager", PageTitle: "Domains", CurrentPage: PageDomains})
}

// LoadBalancers serves the DNS load balancer page.
func (h *UIHandlers) LoadBalancers(w http.ResponseWriter, r *http.Request) {
	h.placeholder(w, r, PageMeta{
		Title:       "DNS Load Balancers - DNS Manager",
		PageTitle:   "DNS Load Balancers",
		CurrentPage: PageLoadBalancers,
	})
}

// Profile shows the signed-in account.
func (h *UIHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Profil - DNS Manager", PageTitle: "Profil", CurrentPage: PageProfile},
		Fetch: func(ctx context.Context, data map[string]any) error {
			if s := GetSessionFromContext(ctx); s != nil {
				data["Session"] = s
			}
			return nil
		},
	})
}

// Settings serves the application settings page.
func (h *UIHandlers) Settings(w http.ResponseWriter, r *http.Request) {
	h.placeholder(w, r, PageMeta{Title: "Ayarlar - DNS Manager", PageTitle: "Ayarlar", CurrentPage: PageSettings})
}

func (h *UIHandlers) placeholder(w http.ResponseWriter, r *http.Request, meta PageMeta) {
	h.Page(w, r, PageSpec{Meta: meta})
}

// Admin lists console accounts. Only reachable for the privileged tier.
func (h *UIHandlers) Admin(w http.ResponseWriter, r *http.Request) {
	h.Page(w, r, PageSpec{
		Meta: PageMeta{Title: "Admin Panel - DNS Manager", PageTitle: "Admin Panel", CurrentPage: PageAdmin},
		Fetch: func(ctx context.Context, data map[string]any) error {
			if h.Users == nil {
				data["UsersUnavailable"] = true
				return nil
			}
			users, pg, err := paginate(ctx, r, pageFromRequest(r), func(ctx context.Context, limit, offset int) ([]*model.User, error) {
				return h.Users.List(ctx, model.UserListOptions{Limit: limit, Offset: offset})
			})
			if err != nil {
				data["ErrorMessage"] = "Kullanıcı listesi yüklenemedi."
				return err
			}
			data["Users"] = users
			data["Pagination"] = pg
			return nil
		},
	})
}
