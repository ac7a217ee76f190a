package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/target/dns-manager-ui/internal/http/uiutil"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
	// Now is used by relative time helpers; defaults to time.Now.
	Now func() time.Time
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"friendlyTime": createFriendlyTimeFunc(),
		"relativeTime": func(ts any) string {
			t0, ok := asTime(ts)
			if !ok {
				return ""
			}
			return uiutil.FriendlyRelativeTime(t0, now())
		},
		"timeTag":      createTimeTagFunc(),
		"add":          func(a, b int) int { return a + b },
		"truncateText": uiutil.TruncateWithEllipsis,
		"initials":     uiutil.Initials,
		"roleLabel":    RoleLabel,
		"roleBadge":    RoleBadgeClass,
		"icon":         Icon,
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - The HTML here is rendered by our own trusted templates (html/template),
		// and is embedded back into the same template set. User-provided values were already
		// auto-escaped during ExecuteTemplate above.
		return template.HTML(buf.String()), nil
	}

	funcs["toJSON"] = func(v any) (string, error) {
		b, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func asTime(ts any) (time.Time, bool) {
	switch v := ts.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v != nil && !v.IsZero() {
			return *v, true
		}
	}
	return time.Time{}, false
}

func createFriendlyTimeFunc() func(any) string {
	return func(ts any) string {
		t0, ok := asTime(ts)
		if !ok {
			return ""
		}
		return uiutil.FormatFriendlyDateTime(t0)
	}
}

func createTimeTagFunc() func(any) template.HTML {
	return func(ts any) template.HTML {
		t0, ok := asTime(ts)
		if !ok {
			return ""
		}
		friendly := uiutil.FormatFriendlyDateTime(t0)
		dt := t0.UTC().Format(time.RFC3339)
		title := t0.Local().Format(time.RFC1123)
		// #nosec G203 - The HTML here is constructed from trusted, escaped values only
		return template.HTML(
			fmt.Sprintf(
				"<time datetime=\"%s\" title=\"%s\">%s</time>",
				dt,
				template.HTMLEscapeString(title),
				template.HTMLEscapeString(friendly),
			),
		)
	}
}

// RoleLabel returns the Turkish display name of a role.
func RoleLabel(role any) string {
	switch fmt.Sprint(role) {
	case "admin":
		return "Yönetici"
	case "user":
		return "Kullanıcı"
	case "guest":
		return "Misafir"
	default:
		return fmt.Sprint(role)
	}
}

// RoleBadgeClass returns the badge modifier class for a role.
func RoleBadgeClass(role any) string {
	switch fmt.Sprint(role) {
	case "admin":
		return "badge-admin"
	case "user":
		return "badge-user"
	default:
		return "badge-muted"
	}
}
