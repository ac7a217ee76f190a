package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/dns-manager-ui/internal/domain/model"
	apperrors "github.com/target/dns-manager-ui/internal/errors"
)

func TestAccountAPI_MeRequiresSession(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{})

	w := recordRequest(h.handler, newJSONRequest(http.MethodGet, "/api/me"))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "authentication_required")
}

func TestAccountAPI_MeReturnsSession(t *testing.T) {
	h := newConsoleHarness(t, harnessOptions{Authenticator: adminAuthenticator()})
	tok := h.signIn(t, "admin@b.com", "x")

	r := newJSONRequest(http.MethodGet, "/api/me")
	r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tok})
	w := recordRequest(h.handler, r)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "admin@b.com", body["email"])
	assert.Equal(t, "admin", body["role"])
	assert.Equal(t, "privileged", body["tier"])
}

func TestAccountAPI_ListUsers(t *testing.T) {
	dir := &stubDirectory{users: []*model.User{{ID: "u1", Email: "ops@b.com", Role: model.UserRoleAdmin}}}
	h := newConsoleHarness(t, harnessOptions{Authenticator: adminAuthenticator(), Users: dir})

	t.Run("standard role is forbidden", func(t *testing.T) {
		tok := h.signIn(t, "a@b.com", "x")
		w := h.do(t, testRequest{Path: "/api/admin/users", Token: tok})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "insufficient_permissions")
	})

	t.Run("admin gets a clamped page", func(t *testing.T) {
		tok := h.signIn(t, "admin@b.com", "x")
		w := h.do(t, testRequest{Path: "/api/admin/users?limit=5000&offset=-3", Token: tok})
		require.Equal(t, http.StatusOK, w.Code)

		assert.Equal(t, maxAPIUserLimit, dir.opts.Limit)
		assert.Equal(t, 0, dir.opts.Offset)

		var body struct {
			Users []struct {
				Email        string `json:"email"`
				PasswordHash string `json:"password_hash"`
			} `json:"users"`
			Limit int `json:"limit"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Users, 1)
		assert.Equal(t, "ops@b.com", body.Users[0].Email)
		assert.Empty(t, body.Users[0].PasswordHash)
		assert.Equal(t, maxAPIUserLimit, body.Limit)
	})
}

func TestAccountAPI_ListUsersErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		hidden     string
	}{
		{
			name:       "validation",
			err:        apperrors.ValidationField("limit", "limit too large"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "validation",
		},
		{
			name:       "internal",
			err:        errors.New("pq: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   "internal",
			hidden:     "connection refused",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &AccountAPIHandlers{Users: &stubDirectory{err: tt.err}}
			w := httptest.NewRecorder()
			h.ListUsers(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"error":"`+tt.wantCode+`"`)
			if tt.hidden != "" {
				assert.NotContains(t, w.Body.String(), tt.hidden)
			}
		})
	}
}

func TestAccountAPI_ListUsersWithoutDirectory(t *testing.T) {
	h := &AccountAPIHandlers{}
	w := httptest.NewRecorder()
	h.ListUsers(w, httptest.NewRequest(http.MethodGet, "/api/admin/users", nil))

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestParseLimitOffset(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 50, 0},
		{"limit=10&offset=20", 10, 20},
		{"limit=0", 1, 0},
		{"limit=abc&offset=xyz", 50, 0},
		{"limit=999", 200, 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/x?"+tt.query, nil)
		lim, off := ParseLimitOffset(r, 50, 200)
		assert.Equal(t, tt.wantLimit, lim, tt.query)
		assert.Equal(t, tt.wantOffset, off, tt.query)
	}
}
