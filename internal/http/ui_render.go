package httpx

import (
	"bytes"
	"html"
	"net/http"

	"github.com/target/dns-manager-ui/internal/http/ui/viewmodel"
)

// renderDashboardPage writes the full layout for navigations and only the
// content block for htmx swaps. Partials carry a <title> and an out-of-band
// header so the chrome stays in sync.
func (h *UIHandlers) renderDashboardPage(w http.ResponseWriter, r *http.Request, data map[string]any) {
	if !WantsPartial(r) {
		if err := h.T.RenderFull(w, r, data); err != nil {
			h.renderTemplateError(w, r, err, "full page render")
		}
		return
	}

	title, _ := data["Title"].(string)
	pageTitle, _ := data["PageTitle"].(string)
	page, _ := data["CurrentPage"].(string)

	var buf bytes.Buffer
	buf.WriteString(`<title>` + html.EscapeString(title) + `</title>`)
	buf.WriteString(`<h1 id="header-title" class="header-title" hx-swap-oob="outerHTML">` +
		html.EscapeString(pageTitle) + `</h1>`)
	if err := h.T.executeTo(&buf, ContentTemplateFor(page), data); err != nil {
		h.renderTemplateError(w, r, err, "partial content render")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	SetHXTrigger(w, "nav:activate", map[string]string{"path": r.URL.Path})
	if toasts, _ := data["Toasts"].([]viewmodel.Toast); len(toasts) > 0 {
		triggerToast(w, toasts[0])
	}
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().ErrorContext(r.Context(), "failed to write partial response", "error", err)
	}
}

// htmlResponse groups the templates, data and status written by writeHTML.
type htmlResponse struct {
	Status int
	Parts  []string
	Data   any
}

// writeHTML renders every part into a buffer so status and headers are only
// sent once all templates have succeeded.
func (h *UIHandlers) writeHTML(w http.ResponseWriter, r *http.Request, resp htmlResponse) {
	var buf bytes.Buffer
	for _, part := range resp.Parts {
		if err := h.T.executeTo(&buf, part, resp.Data); err != nil {
			h.renderTemplateError(w, r, err, part)
			return
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger().ErrorContext(r.Context(), "failed to write response", "error", err)
	}
}

// renderTemplateError logs a failed render. Dev mode shows the error in the
// page; production gets a bare 500.
func (h *UIHandlers) renderTemplateError(w http.ResponseWriter, r *http.Request, err error, stage string) {
	h.logger().ErrorContext(r.Context(), "template rendering failed",
		"error", err,
		"stage", stage,
		"path", r.URL.Path,
		"method", r.Method,
	)
	if !h.IsDev {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	body := `<div class="dev-error"><h2>Template Rendering Error</h2>` +
		`<p><strong>Stage:</strong> ` + html.EscapeString(stage) + `</p>` +
		`<p><strong>Path:</strong> ` + html.EscapeString(r.URL.Path) + `</p>` +
		`<pre>` + html.EscapeString(err.Error()) + `</pre></div>`
	if _, werr := w.Write([]byte(body)); werr != nil {
		h.logger().ErrorContext(r.Context(), "failed to write template error response", "error", werr)
	}
}
