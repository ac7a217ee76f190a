package auth

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_IsGuest(t *testing.T) {
	s := Session{Role: RoleGuest}
	if !s.IsGuest() {
		t.Fatalf("expected guest")
	}
	if (Session{Role: RoleUser}).IsGuest() {
		t.Fatalf("did not expect guest")
	}
}

func TestTierForRole(t *testing.T) {
	assert.Equal(t, TierPrivileged, TierForRole(RoleAdmin))
	assert.Equal(t, TierStandard, TierForRole(RoleUser))
	assert.Equal(t, TierStandard, TierForRole(RoleGuest))
	assert.Equal(t, TierUnauthenticated, TierForRole(""))
	assert.Equal(t, TierUnauthenticated, TierForRole("root"))
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierUnauthenticated, TierOf(nil))
	assert.Equal(t, TierPrivileged, TierOf(&Session{Role: RoleAdmin}))
	assert.True(t, (&Session{Role: RoleAdmin}).IsPrivileged())
	assert.False(t, (&Session{Role: RoleUser}).IsPrivileged())
	assert.Equal(t, "privileged", TierPrivileged.String())
	assert.Equal(t, "unauthenticated", Tier(99).String())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("superuser")
	require.Error(t, err)
}

func TestSession_Validate(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	valid := Session{ID: "s1", UserID: "u1", Role: RoleUser, ExpiresAt: now.Add(time.Hour)}

	tests := []struct {
		name string
		mut  func(*Session)
		want error
	}{
		{name: "valid", mut: func(*Session) {}},
		{name: "missing id", mut: func(s *Session) { s.ID = "" }, want: ErrSessionIncomplete},
		{name: "missing user", mut: func(s *Session) { s.UserID = "" }, want: ErrSessionIncomplete},
		{name: "unknown role", mut: func(s *Session) { s.Role = "owner" }, want: ErrSessionRole},
		{name: "expired", mut: func(s *Session) { s.ExpiresAt = now }, want: ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mut(&s)
			err := s.Validate(now)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSession_DisplayName(t *testing.T) {
	assert.Equal(t, "Ada Lovelace", Session{FirstName: "Ada", LastName: "Lovelace", Email: "a@b.com"}.DisplayName())
	assert.Equal(t, "a@b.com", Session{Email: "a@b.com", UserID: "u"}.DisplayName())
	assert.Equal(t, "u", Session{UserID: "u"}.DisplayName())
}

func TestCredentials(t *testing.T) {
	c := Credentials{Identifier: "  A@B.com ", Secret: " x "}
	n := c.Normalized()
	assert.Equal(t, "a@b.com", n.Identifier)
	assert.Equal(t, " x ", n.Secret, "secret must be passed through unchanged")

	assert.NoError(t, c.Validate())
	assert.ErrorIs(t, Credentials{Identifier: "a@b.com"}.Validate(), ErrCredentialsRequired)
	assert.ErrorIs(t, Credentials{Secret: "x"}.Validate(), ErrCredentialsRequired)

	assert.Equal(t, "***@b.com", c.RedactedIdentifier())
	assert.Equal(t, "***", Credentials{Identifier: "jdoe"}.RedactedIdentifier())
}

func TestError(t *testing.T) {
	cause := errors.New("ldap: result code 49")
	err := fmt.Errorf("authenticate: %w", NewError("Invalid credentials", cause))

	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, cause)

	msg, ok := DisplayMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Invalid credentials", msg)

	_, ok = DisplayMessage(errors.New("dial tcp: refused"))
	assert.False(t, ok)
}
