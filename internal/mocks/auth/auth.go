package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.Authenticator = (*StubAuthenticator)(nil)
	_ ports.SSOProvider   = (*MockSSOProvider)(nil)
	_ ports.SessionStore  = (*MemorySessionStore)(nil)
)

// StubAuthenticator counts calls and delegates to AuthenticateFunc.
// With no func set it accepts a@b.com / x as a standard user.
type StubAuthenticator struct {
	AuthenticateFunc func(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error)

	calls atomic.Int32
	mu    sync.Mutex
	last  domainauth.Credentials
}

func (s *StubAuthenticator) Authenticate(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.last = creds
	s.mu.Unlock()

	if s.AuthenticateFunc != nil {
		return s.AuthenticateFunc(ctx, creds)
	}
	if creds.Identifier == "a@b.com" && creds.Secret == "x" {
		return domainauth.Identity{UserID: "user-1", Email: "a@b.com", Groups: []string{"users"}}, nil
	}
	return domainauth.Identity{}, domainauth.ErrInvalidCredentials
}

// Calls reports how many times Authenticate ran.
func (s *StubAuthenticator) Calls() int { return int(s.calls.Load()) }

// LastCredentials returns the credentials passed to the most recent call.
func (s *StubAuthenticator) LastCredentials() domainauth.Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// MockSSOProvider simulates an IdP for tests with deterministic state/nonce handling.
type MockSSOProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity

	callCount int
}

// NewMockSSOProvider creates a MockSSOProvider with sensible defaults.
func NewMockSSOProvider() *MockSSOProvider {
	return &MockSSOProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			UserID:    "mock-user-1",
			FirstName: "Mock",
			LastName:  "User",
			Email:     "mock.user@example.com",
			Groups:    []string{"users"},
		},
	}
}

func (m *MockSSOProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.callCount++
	return m.AuthURL, fmt.Sprintf("state-%d", m.callCount), fmt.Sprintf("nonce-%d", m.callCount), nil
}

func (m *MockSSOProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session

	// GetErr and DeleteErr force failures from the matching methods when set.
	GetErr    error
	DeleteErr error
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: make(map[string]domainauth.Session),
	}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	if m.GetErr != nil {
		return domainauth.Session{}, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || id == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
