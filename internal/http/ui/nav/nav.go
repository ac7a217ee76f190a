// Package nav holds the console's static navigation tree and the single gate
// deciding which groups a tier may see.
package nav

import (
	"strings"

	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
)

// Brand is shown at the top of the sidebar.
const Brand = "DNS Manager"

// Group keys.
const (
	GroupPrimary = "primary"
	GroupAdmin   = "admin"
	GroupAccount = "account"
)

// Entry is one link in the sidebar.
type Entry struct {
	Path        string
	Icon        string
	Label       string
	Description string
}

// Group is a labeled run of entries with the lowest tier allowed to see it.
type Group struct {
	Key     string
	Label   string
	Entries []Entry
	MinTier domainauth.Tier
}

//nolint:gochecknoglobals // static navigation tree
var groups = []Group{
	{
		Key:     GroupPrimary,
		Label:   "Ana Menü",
		MinTier: domainauth.TierStandard,
		Entries: []Entry{
			{Path: "/dashboard", Icon: "bar-chart", Label: "Dashboard", Description: "Genel bakış ve istatistikler"},
			{Path: "/domains", Icon: "globe", Label: "Domains", Description: "Domain yönetimi"},
			{Path: "/dns-loadbalancer", Icon: "server", Label: "DNS Load Balancers", Description: "Load balancing yönetimi"},
		},
	},
	{
		Key:     GroupAdmin,
		Label:   "Yönetim",
		MinTier: domainauth.TierPrivileged,
		Entries: []Entry{
			{Path: "/admin", Icon: "crown", Label: "Admin Panel", Description: "Sistem yönetimi"},
		},
	},
	{
		Key:     GroupAccount,
		Label:   "Hesap",
		MinTier: domainauth.TierStandard,
		Entries: []Entry{
			{Path: "/profile", Icon: "users", Label: "Profil", Description: "Hesap bilgileri"},
			{Path: "/settings", Icon: "settings", Label: "Ayarlar", Description: "Uygulama ayarları"},
		},
	},
}

// Groups returns a copy of the navigation tree in display order.
func Groups() []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		g.Entries = append([]Entry(nil), g.Entries...)
		out[i] = g
	}
	return out
}

// Visible is the render gate: a group is shown when the tier reaches its minimum.
func Visible(g Group, tier domainauth.Tier) bool {
	return tier >= g.MinTier
}

// EntryView is an Entry plus its active state for the current request.
type EntryView struct {
	Entry
	Active bool
}

// GroupView is a visible group ready for the template.
type GroupView struct {
	Key     string
	Label   string
	Entries []EntryView
}

// Render returns the groups visible to tier, marking the entry that matches currentPath.
func Render(tier domainauth.Tier, currentPath string) []GroupView {
	current := normalizePath(currentPath)
	views := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		if !Visible(g, tier) {
			continue
		}
		gv := GroupView{Key: g.Key, Label: g.Label, Entries: make([]EntryView, 0, len(g.Entries))}
		for _, e := range g.Entries {
			gv.Entries = append(gv.Entries, EntryView{Entry: e, Active: isActive(e.Path, current)})
		}
		views = append(views, gv)
	}
	return views
}

// Lookup finds the entry registered for path.
func Lookup(path string) (Entry, bool) {
	p := normalizePath(path)
	for _, g := range groups {
		for _, e := range g.Entries {
			if e.Path == p {
				return e, true
			}
		}
	}
	return Entry{}, false
}

// isActive matches the entry itself and anything nested below it.
func isActive(entryPath, current string) bool {
	return current == entryPath || strings.HasPrefix(current, entryPath+"/")
}

func normalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
	}
	return p
}
