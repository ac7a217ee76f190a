package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/domain/model"
)

const (
	defaultAPIUserLimit = 50
	maxAPIUserLimit     = 200
)

// AccountAPIHandlers serves the JSON view of the signed-in account and the user directory.
type AccountAPIHandlers struct {
	Users  UserDirectory
	Logger *slog.Logger
}

type userListResponse struct {
	Users  []*model.User `json:"users"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// Me returns the session the request was authenticated with.
// GET /api/me.
func (h *AccountAPIHandlers) Me(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		writeAuthRequired(w)
		return
	}
	WriteJSON(w, http.StatusOK, struct {
		*domainauth.Session
		Tier string `json:"tier"`
	}{Session: session, Tier: domainauth.TierForRole(session.Role).String()})
}

// ListUsers pages through local accounts.
// GET /api/admin/users?limit=&offset=.
func (h *AccountAPIHandlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	if h.Users == nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotImplemented,
			ErrCode: "directory_unavailable",
			Err:     errors.New("accounts are managed by an external identity provider"),
		})
		return
	}

	limit, offset := ParseLimitOffset(r, defaultAPIUserLimit, maxAPIUserLimit)
	users, err := h.Users.List(r.Context(), model.UserListOptions{Limit: limit, Offset: offset})
	if err != nil {
		status, code := statusForError(err), errorCodeFor(err)
		if status >= http.StatusInternalServerError {
			h.logger().ErrorContext(r.Context(), "list users failed", "error", err)
			err = errors.New("could not list users")
		}
		WriteError(w, ErrorParams{Code: status, ErrCode: code, Err: err})
		return
	}
	if users == nil {
		users = []*model.User{}
	}
	WriteJSON(w, http.StatusOK, userListResponse{Users: users, Limit: limit, Offset: offset})
}

func (h *AccountAPIHandlers) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// registerAccountAPIRoutes wires the JSON account endpoints.
func registerAccountAPIRoutes(mux *http.ServeMux, authSvc AuthServiceInterface, h *AccountAPIHandlers) {
	mux.Handle("GET /api/me", RequireAuth(authSvc)(http.HandlerFunc(h.Me)))
	mux.Handle("GET /api/admin/users", RequireTier(authSvc, domainauth.TierPrivileged)(http.HandlerFunc(h.ListUsers)))
}
