package core

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncs_RenderSection(t *testing.T) {
	var tmpl *template.Template
	funcs := Funcs(Deps{
		Template:           &tmpl,
		ContentTemplateFor: func(string) string { return "section" },
	})

	var err error
	tmpl, err = template.New("root").Funcs(funcs).Parse(
		`{{define "section"}}<p>{{.}}</p>{{end}}{{define "page"}}<main>{{renderSection "x" .}}</main>{{end}}`,
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.ExecuteTemplate(&buf, "page", "<b>hi</b>"))
	assert.Equal(t, "<main><p>&lt;b&gt;hi&lt;/b&gt;</p></main>", buf.String())
}

func TestFuncs_RenderSectionWithoutTemplate(t *testing.T) {
	funcs := Funcs(Deps{ContentTemplateFor: func(string) string { return "x" }})
	render := funcs["renderSection"].(func(string, any) (template.HTML, error))
	_, err := render("x", nil)
	assert.Error(t, err)
}

func TestFuncs_RelativeTimeUsesNow(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	funcs := Funcs(Deps{ContentTemplateFor: func(string) string { return "" }, Now: func() time.Time { return now }})
	rel := funcs["relativeTime"].(func(any) string)

	assert.Equal(t, "10 dakika önce", rel(now.Add(-10*time.Minute)))
	ts := now.Add(-2 * time.Hour)
	assert.Equal(t, "2 saat önce", rel(&ts))
	assert.Empty(t, rel(nil))
	assert.Empty(t, rel((*time.Time)(nil)))
}

func TestTimeTag(t *testing.T) {
	tag := createTimeTagFunc()(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	assert.Contains(t, string(tag), `datetime="2025-03-01T12:00:00Z"`)
	assert.Empty(t, createTimeTagFunc()(time.Time{}))
}

func TestRoleHelpers(t *testing.T) {
	assert.Equal(t, "Yönetici", RoleLabel("admin"))
	assert.Equal(t, "Kullanıcı", RoleLabel("user"))
	assert.Equal(t, "Misafir", RoleLabel("guest"))
	assert.Equal(t, "other", RoleLabel("other"))

	assert.Equal(t, "badge-admin", RoleBadgeClass("admin"))
	assert.Equal(t, "badge-muted", RoleBadgeClass("guest"))
}

func TestIcon(t *testing.T) {
	for _, name := range []string{"bar-chart", "globe", "server", "crown", "users", "settings"} {
		svg := string(Icon(name))
		assert.True(t, strings.HasPrefix(svg, "<svg"), name)
		assert.True(t, strings.HasSuffix(svg, "</svg>"), name)
	}
	assert.Empty(t, Icon("unknown"))
}
