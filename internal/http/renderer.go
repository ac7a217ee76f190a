package httpx

import (
	"bytes"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"maps"
	"net/http"

	httpassets "github.com/target/dns-manager-ui/internal/http/assets"
	assetfuncs "github.com/target/dns-manager-ui/internal/http/templates/assets"
	corefuncs "github.com/target/dns-manager-ui/internal/http/templates/core"
)

// templateGlobs are parsed in order; later files may override blocks.
var templateGlobs = []string{"*.tmpl", "pages/*.tmpl", "partials/*.tmpl"} //nolint:gochecknoglobals // fixed layout

// TemplateRenderer executes the console's parsed template set.
type TemplateRenderer struct {
	t      *template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS // required
	Logger     *slog.Logger
	// Assets resolves {{asset "..."}} references; nil serves logical names.
	Assets *httpassets.Resolver
}

// NewTemplateRenderer parses every template under cfg.TemplateFS.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}

	// renderSection needs the parsed set, which does not exist until ParseFS returns.
	var t *template.Template
	funcs := corefuncs.Funcs(corefuncs.Deps{Template: &t, ContentTemplateFor: ContentTemplateFor})
	maps.Copy(funcs, assetfuncs.Funcs(cfg.Assets))

	parsed, err := template.New("root").Funcs(funcs).ParseFS(cfg.TemplateFS, templateGlobs...)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Error("template parsing failed", slog.Any("error", err))
		}
		return nil, err
	}
	t = parsed
	return &TemplateRenderer{t: t, logger: cfg.Logger}, nil
}

// RenderFull writes the whole page: layout, sidebar and content.
func (r *TemplateRenderer) RenderFull(w http.ResponseWriter, _ *http.Request, data any) error {
	var buf bytes.Buffer
	if err := r.executeTo(&buf, "layout", data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// executeTo renders name into dst. Nothing is written when execution fails.
func (r *TemplateRenderer) executeTo(dst io.Writer, name string, data any) error {
	var buf bytes.Buffer
	if err := r.t.ExecuteTemplate(&buf, name, data); err != nil {
		if r.logger != nil {
			r.logger.Error("template execution failed", slog.String("template", name), slog.Any("error", err))
		}
		return err
	}
	_, err := buf.WriteTo(dst)
	return err
}
