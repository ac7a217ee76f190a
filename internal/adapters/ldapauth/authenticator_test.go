package ldapauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
)

type fakeDirectory struct {
	mu      sync.Mutex
	binds   []string
	filters []string

	entries   []*ldap.Entry
	passwords map[string]string
	searchErr error
	block     chan struct{}
}

func (f *fakeDirectory) Bind(username, password string) error {
	f.mu.Lock()
	f.binds = append(f.binds, username)
	f.mu.Unlock()
	if want, ok := f.passwords[username]; ok && want == password {
		return nil
	}
	return ldap.NewError(ldap.LDAPResultInvalidCredentials, errors.New("invalid credentials"))
}

func (f *fakeDirectory) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	f.mu.Lock()
	f.filters = append(f.filters, req.Filter)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
		return nil, errors.New("connection closed")
	}
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &ldap.SearchResult{Entries: f.entries}, nil
}

func newTestAuthenticator(dir *fakeDirectory, cfg Config) (*Authenticator, *int) {
	a := New(cfg, nil)
	closed := 0
	a.dial = func(context.Context, Config) (directory, func(), error) {
		return dir, func() {
			closed++
			if dir.block != nil {
				close(dir.block)
			}
		}, nil
	}
	return a, &closed
}

const userDN = "uid=ayse,ou=people,dc=example,dc=org"

func ayseEntry() *ldap.Entry {
	return ldap.NewEntry(userDN, map[string][]string{
		"uid":       {"ayse"},
		"mail":      {"Ayse@Example.org"},
		"givenName": {"Ayşe"},
		"sn":        {"Yılmaz"},
		"memberOf":  {"cn=admins,ou=groups,dc=example,dc=org"},
	})
}

func baseConfig() Config {
	return Config{
		URL:          "ldap://ldap.example.org",
		BindDN:       "cn=reader,dc=example,dc=org",
		BindPassword: "reader-secret",
		BaseDN:       "ou=people,dc=example,dc=org",
	}
}

func TestAuthenticate_Success(t *testing.T) {
	dir := &fakeDirectory{
		entries: []*ldap.Entry{ayseEntry()},
		passwords: map[string]string{
			"cn=reader,dc=example,dc=org": "reader-secret",
			userDN:                        "s3cret",
		},
	}
	a, closed := newTestAuthenticator(dir, baseConfig())

	id, err := a.Authenticate(context.Background(), domainauth.Credentials{Identifier: "Ayse@Example.org", Secret: "s3cret"})
	require.NoError(t, err)

	assert.Equal(t, "ayse", id.UserID)
	assert.Equal(t, "ayse@example.org", id.Email)
	assert.Equal(t, "Ayşe", id.FirstName)
	assert.Equal(t, []string{"cn=admins,ou=groups,dc=example,dc=org"}, id.Groups)
	assert.Empty(t, id.Role)
	assert.Equal(t, []string{"cn=reader,dc=example,dc=org", userDN}, dir.binds)
	assert.Equal(t, 1, *closed)
}

func TestAuthenticate_FilterEscapesIdentifier(t *testing.T) {
	dir := &fakeDirectory{passwords: map[string]string{"cn=reader,dc=example,dc=org": "reader-secret"}}
	a, _ := newTestAuthenticator(dir, baseConfig())

	_, err := a.Authenticate(context.Background(), domainauth.Credentials{Identifier: "*)(uid=*", Secret: "x"})
	require.ErrorIs(t, err, domainauth.ErrInvalidCredentials)

	require.Len(t, dir.filters, 1)
	assert.Equal(t, fmt.Sprintf(defaultUserFilter, ldap.EscapeFilter("*)(uid=*")), dir.filters[0])
	assert.NotContains(t, dir.filters[0], "(uid=*")
}

func TestAuthenticate_Rejections(t *testing.T) {
	t.Run("wrong password", func(t *testing.T) {
		dir := &fakeDirectory{
			entries:   []*ldap.Entry{ayseEntry()},
			passwords: map[string]string{"cn=reader,dc=example,dc=org": "reader-secret", userDN: "s3cret"},
		}
		a, _ := newTestAuthenticator(dir, baseConfig())
		_, err := a.Authenticate(context.Background(), domainauth.Credentials{Identifier: "ayse@example.org", Secret: "nope"})
		require.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
	})

	t.Run("ambiguous filter", func(t *testing.T) {
		dir := &fakeDirectory{
			entries:   []*ldap.Entry{ayseEntry(), ayseEntry()},
			passwords: map[string]string{"cn=reader,dc=example,dc=org": "reader-secret"},
		}
		a, _ := newTestAuthenticator(dir, baseConfig())
		_, err := a.Authenticate(context.Background(), domainauth.Credentials{Identifier: "ayse@example.org", Secret: "s3cret"})
		require.ErrorIs(t, err, domainauth.ErrInvalidCredentials)
	})

	t.Run("empty secret never reaches the directory", func(t *testing.T) {
		dir := &fakeDirectory{}
		a, _ := newTestAuthenticator(dir, baseConfig())
		_, err := a.Authenticate(context.Background(), domainauth.Credentials{Identifier: "ayse@example.org"})
		require.ErrorIs(t, err, domainauth.ErrCredentialsRequired)
		assert.Empty(t, dir.binds)
	})
}

func TestAuthenticate_ServiceBindFailureIsInfrastructure(t *testing.T) {
	dir := &fakeDirectory{}
	a, _ := newTestAuthenticator(dir, baseConfig())

	_, err := a.Authenticate(context.Background(), domainauth.Credentials{Identifier: "ayse@example.org", Secret: "s3cret"})
	require.Error(t, err)
	_, displayable := domainauth.DisplayMessage(err)
	assert.False(t, displayable)
}

func TestAuthenticate_DialFailure(t *testing.T) {
	a := New(baseConfig(), nil)
	a.dial = func(context.Context, Config) (directory, func(), error) {
		return nil, nil, errors.New("connection refused")
	}
	_, err := a.Authenticate(context.Background(), domainauth.Credentials{Identifier: "ayse@example.org", Secret: "s3cret"})
	require.ErrorContains(t, err, "ldap dial")
}

func TestAuthenticate_CancelClosesConnection(t *testing.T) {
	dir := &fakeDirectory{
		block:     make(chan struct{}),
		passwords: map[string]string{"cn=reader,dc=example,dc=org": "reader-secret"},
	}
	a, closed := newTestAuthenticator(dir, baseConfig())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := a.Authenticate(ctx, domainauth.Credentials{Identifier: "ayse@example.org", Secret: "s3cret"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *closed)
}
