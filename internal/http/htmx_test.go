package httpx

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsHTMX(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/domains", nil)
	assert.False(t, IsHTMX(r))
	assert.False(t, WantsPartial(r))

	r.Header.Set("Hx-Request", "TRUE")
	assert.True(t, IsHTMX(r))
	assert.True(t, WantsPartial(r))

	r.Header.Set("Hx-History-Restore-Request", "true")
	assert.True(t, WantsPartial(r), "history restores get the partial")
}

func triggerEvents(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var events map[string]any
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("Hx-Trigger")), &events))
	return events
}

func TestSetHXTrigger(t *testing.T) {
	t.Run("nil payload is true", func(t *testing.T) {
		w := httptest.NewRecorder()
		SetHXTrigger(w, "refresh", nil)
		assert.Equal(t, map[string]any{"refresh": true}, triggerEvents(t, w))
	})

	t.Run("events accumulate", func(t *testing.T) {
		w := httptest.NewRecorder()
		SetHXTrigger(w, "nav:activate", map[string]string{"path": "/domains"})
		SetHXTrigger(w, "showToast", "hi")
		assert.Equal(t, map[string]any{
			"nav:activate": map[string]any{"path": "/domains"},
			"showToast":    "hi",
		}, triggerEvents(t, w))
	})

	t.Run("same event is replaced", func(t *testing.T) {
		w := httptest.NewRecorder()
		SetHXTrigger(w, "showToast", "first")
		SetHXTrigger(w, "showToast", "second")
		assert.Equal(t, map[string]any{"showToast": "second"}, triggerEvents(t, w))
	})

	t.Run("foreign header is replaced", func(t *testing.T) {
		w := httptest.NewRecorder()
		w.Header().Set("Hx-Trigger", "plainEvent")
		SetHXTrigger(w, "showToast", 1)
		assert.Equal(t, map[string]any{"showToast": float64(1)}, triggerEvents(t, w))
	})

	t.Run("unmarshalable payload", func(t *testing.T) {
		w := httptest.NewRecorder()
		SetHXTrigger(w, "bad", make(chan int))
		assert.Equal(t, map[string]any{"bad": true}, triggerEvents(t, w))
	})
}

func TestHTMXResponse(t *testing.T) {
	t.Run("redirect", func(t *testing.T) {
		w := httptest.NewRecorder()
		HTMX(w).Redirect("/dashboard?welcome=1")
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "/dashboard?welcome=1", w.Header().Get("Hx-Redirect"))
	})

	t.Run("chained headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		HTMX(w).Retarget("#login-form", "outerHTML").PushURL("/auth/signed-out").Trigger("showToast", nil)

		assert.Equal(t, "#login-form", w.Header().Get("Hx-Retarget"))
		assert.Equal(t, "outerHTML", w.Header().Get("Hx-Reswap"))
		assert.Equal(t, "/auth/signed-out", w.Header().Get("Hx-Push-Url"))
		assert.Equal(t, map[string]any{"showToast": true}, triggerEvents(t, w))
	})

	t.Run("retarget keeps swap strategy when blank", func(t *testing.T) {
		w := httptest.NewRecorder()
		HTMX(w).Reswap("none").Retarget("#toast-region", "")
		assert.Equal(t, "none", w.Header().Get("Hx-Reswap"))
	})
}
