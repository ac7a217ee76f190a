package viewmodel

import "github.com/target/dns-manager-ui/internal/http/ui/nav"

// User represents the authenticated user context exposed to templates.
type User struct {
	Name     string
	Email    string
	Role     string
	Initials string
}

// Toast variants understood by the client toast region.
const (
	ToastDefault     = "default"
	ToastDestructive = "destructive"
)

// Toast is a transient notification.
type Toast struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Variant     string `json:"variant"`
}

// Layout captures shared chrome metadata (titles, navigation state, auth flags).
type Layout struct {
	Title           string
	PageTitle       string
	CurrentPage     string
	CurrentPath     string
	CSRFToken       string
	Brand           string
	IsAuthenticated bool
	IsPrivileged    bool
	User            *User
	Nav             []nav.GroupView
}
