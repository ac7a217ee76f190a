package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// IsHTMX reports whether the request was issued by htmx (Hx-Request: true).
func IsHTMX(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Hx-Request"), "true")
}

// WantsPartial reports whether only the content block should be rendered.
// History restores are htmx requests too and get the partial.
func WantsPartial(r *http.Request) bool {
	return IsHTMX(r)
}

// SetHXRedirect makes htmx navigate the whole page to url.
func SetHXRedirect(w http.ResponseWriter, url string) { w.Header().Set("Hx-Redirect", url) }

// SetHXTrigger adds event to the Hx-Trigger header, keeping events already
// set. A nil payload is sent as true.
func SetHXTrigger(w http.ResponseWriter, event string, payload any) {
	if payload == nil {
		payload = true
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		raw = []byte("true")
	}

	events := map[string]json.RawMessage{}
	if existing := w.Header().Get("Hx-Trigger"); existing != "" {
		// A foreign, non-JSON value is replaced.
		_ = json.Unmarshal([]byte(existing), &events)
	}
	events[event] = raw

	b, err := json.Marshal(events)
	if err != nil {
		b = []byte(`{"` + event + `":true}`)
	}
	w.Header().Set("Hx-Trigger", string(b))
}

// HTMXResponse sets htmx response headers. Header setters chain; Redirect
// writes the status and ends the response.
type HTMXResponse struct {
	w http.ResponseWriter
}

// HTMX starts an htmx response on w.
func HTMX(w http.ResponseWriter) *HTMXResponse {
	return &HTMXResponse{w: w}
}

// Redirect navigates the browser to url with a 204. Nothing else may be written afterwards.
func (h *HTMXResponse) Redirect(url string) {
	SetHXRedirect(h.w, url)
	h.w.WriteHeader(http.StatusNoContent)
}

// Trigger fires a client event after the swap.
func (h *HTMXResponse) Trigger(event string, payload any) *HTMXResponse {
	SetHXTrigger(h.w, event, payload)
	return h
}

// PushURL records url in the browser history.
func (h *HTMXResponse) PushURL(url string) *HTMXResponse {
	h.w.Header().Set("Hx-Push-Url", url)
	return h
}

// Retarget swaps the response into selector, optionally with a different strategy.
func (h *HTMXResponse) Retarget(selector, strategy string) *HTMXResponse {
	h.w.Header().Set("Hx-Retarget", selector)
	if strategy != "" {
		h.Reswap(strategy)
	}
	return h
}

// Reswap overrides the swap strategy, e.g. "outerHTML" or "none".
func (h *HTMXResponse) Reswap(strategy string) *HTMXResponse {
	h.w.Header().Set("Hx-Reswap", strategy)
	return h
}
