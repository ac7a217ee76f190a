package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/observability/metrics"
	"github.com/target/dns-manager-ui/internal/observability/statsd"
	"github.com/target/dns-manager-ui/internal/ports"
	"golang.org/x/sync/singleflight"
)

const (
	defaultSessionTTL  = 8 * time.Hour
	defaultAuthTimeout = 10 * time.Second
)

var (
	// ErrSSODisabled is returned by the SSO methods when no SSOProvider is configured.
	ErrSSODisabled = errors.New("single sign-on is not configured")
	// ErrCredentialLoginDisabled is returned by SignIn when only SSO is configured.
	ErrCredentialLoginDisabled = errors.New("credential sign-in is not configured")
)

// AuthPorts groups the collaborators AuthService talks to.
// Sessions, Tokens and Roles are required. Exactly one of Authenticator or SSO is normally set.
type AuthPorts struct {
	Authenticator ports.Authenticator
	SSO           ports.SSOProvider
	Sessions      ports.SessionStore
	Tokens        ports.TokenCodec
	Roles         ports.RoleMapper
	Metrics       statsd.Sink
}

// AuthServiceConfig holds tunables for AuthService.
type AuthServiceConfig struct {
	Mode       string        // reported in logs and metric tags
	SessionTTL time.Duration // upper bound on a session's lifetime
	Timeout    time.Duration // per authenticate call
	Now        func() time.Time
}

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Ports  AuthPorts
	Config AuthServiceConfig
	Logger *slog.Logger
}

// AuthService issues, resolves and discards console sessions.
type AuthService struct {
	ports  AuthPorts
	cfg    AuthServiceConfig
	logger *slog.Logger

	inflight singleflight.Group
	mu       sync.Mutex
	flights  map[string]*flight
}

// flight is the context shared by every caller waiting on one sign-in.
// It is cancelled when the last waiter leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	if opts.Ports.Sessions == nil {
		panic("SessionStore is required")
	}
	if opts.Ports.Tokens == nil {
		panic("TokenCodec is required")
	}
	if opts.Ports.Roles == nil {
		panic("RoleMapper is required")
	}

	cfg := opts.Config
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAuthTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		ports:   opts.Ports,
		cfg:     cfg,
		logger:  logger.With("component", "auth_service", "auth_mode", cfg.Mode),
		flights: make(map[string]*flight),
	}
}

// CredentialLogin reports whether SignIn can be used.
func (s *AuthService) CredentialLogin() bool { return s.ports.Authenticator != nil }

// SSOEnabled reports whether BeginSSO/CompleteSSO can be used.
func (s *AuthService) SSOEnabled() bool { return s.ports.SSO != nil }

// SignInInput is one submission of the credential form.
type SignInInput struct {
	Credentials domainauth.Credentials
	// SubmissionKey is the per-render form nonce. Submissions sharing a key and
	// credentials while one is in flight share its outcome.
	SubmissionKey string
}

// SignInResult is the outcome of a successful sign-in.
type SignInResult struct {
	Session domainauth.Session
	Token   string
	// Shared is true when this caller joined a sign-in already in flight.
	Shared bool
}

// SignIn checks the credentials and issues a session.
//
// Failures the user should see are *domainauth.Error values; DisplayMessage
// extracts their text. Any other error is an infrastructure fault.
func (s *AuthService) SignIn(ctx context.Context, in SignInInput) (*SignInResult, error) {
	if s.ports.Authenticator == nil {
		return nil, ErrCredentialLoginDisabled
	}
	creds := in.Credentials.Normalized()
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := s.cfg.Now()
	key := flightKey(in.SubmissionKey, creds)
	f := s.join(ctx, key)

	ch := s.inflight.DoChan(key, func() (any, error) {
		return s.signIn(f.ctx, creds)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
		s.leave(key, f)
	case <-ctx.Done():
		if s.leave(key, f) {
			// Nobody is left to receive the session, so it must not outlive the flight.
			go s.discard(ch)
		}
		s.recordSignIn(ctx, creds, false, start, ctx.Err())
		return nil, ctx.Err()
	}

	s.recordSignIn(ctx, creds, res.Shared, start, res.Err)
	if res.Err != nil {
		return nil, res.Err
	}
	out := *res.Val.(*SignInResult)
	out.Shared = res.Shared
	return &out, nil
}

// join registers a waiter on key, starting a new flight context if none is live.
// The flight is detached from ctx so one waiter leaving does not fail the others.
func (s *AuthService) join(ctx context.Context, key string) *flight {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[key]
	if !ok {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
		f = &flight{ctx: fctx, cancel: cancel}
		s.flights[key] = f
	}
	f.waiters++
	return f
}

// leave drops a waiter and reports whether it was the last one. The last
// waiter cancels the flight and forgets the call so later submissions start fresh.
func (s *AuthService) leave(key string, f *flight) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return false
	}
	f.cancel()
	if s.flights[key] == f {
		delete(s.flights, key)
		s.inflight.Forget(key)
	}
	return true
}

// discard deletes a session issued after every waiter left.
func (s *AuthService) discard(ch <-chan singleflight.Result) {
	res := <-ch
	if res.Err != nil {
		return
	}
	sess := res.Val.(*SignInResult).Session
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()
	if err := s.ports.Sessions.Delete(ctx, sess.ID); err != nil {
		s.logger.WarnContext(ctx, "delete abandoned session", "error", err)
	}
}

func (s *AuthService) signIn(ctx context.Context, creds domainauth.Credentials) (*SignInResult, error) {
	identity, err := s.ports.Authenticator.Authenticate(ctx, creds)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, identity)
}

// issue maps the role, persists a session and signs its token.
func (s *AuthService) issue(ctx context.Context, identity domainauth.Identity) (*SignInResult, error) {
	role := identity.Role
	if !role.Valid() {
		role = s.ports.Roles.Map(identity.Groups)
	}

	now := s.cfg.Now()
	expiresAt := now.Add(s.cfg.SessionTTL)
	if !identity.ExpiresAt.IsZero() && identity.ExpiresAt.Before(expiresAt) {
		expiresAt = identity.ExpiresAt
	}

	sess := domainauth.Session{
		ID:        uuid.NewString(),
		UserID:    identity.UserID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
		Email:     identity.Email,
		Role:      role,
		ExpiresAt: expiresAt,
	}
	if err := sess.Validate(now); err != nil {
		return nil, fmt.Errorf("new session: %w", err)
	}

	if err := s.ports.Sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	token, err := s.ports.Tokens.Encode(sess)
	if err != nil {
		_ = s.ports.Sessions.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("encode session token: %w", err)
	}
	return &SignInResult{Session: sess, Token: token}, nil
}

func (s *AuthService) recordSignIn(ctx context.Context, creds domainauth.Credentials, shared bool, start time.Time, err error) {
	_, rejected := domainauth.DisplayMessage(err)
	result := metrics.ResultFor(err, rejected)

	metrics.EmitSignIn(s.ports.Metrics, metrics.AuthMetric{
		Mode:     s.cfg.Mode,
		Result:   result,
		Shared:   shared,
		Duration: s.cfg.Now().Sub(start),
		Err:      err,
	})

	attrs := []any{"identifier", creds.RedactedIdentifier(), "shared", shared}
	switch result {
	case metrics.ResultSuccess:
		s.logger.InfoContext(ctx, "sign-in succeeded", attrs...)
	case metrics.ResultRejected:
		s.logger.InfoContext(ctx, "sign-in rejected", append(attrs, "reason", err.Error())...)
	case metrics.ResultCanceled:
		if errors.Is(err, context.Canceled) {
			s.logger.InfoContext(ctx, "sign-in abandoned", attrs...)
			return
		}
		s.logger.WarnContext(ctx, "sign-in timed out", append(attrs, "error", err)...)
	default:
		s.logger.ErrorContext(ctx, "sign-in failed", append(attrs, "error", err)...)
	}
}

// flightKey never contains the secret itself.
func flightKey(submissionKey string, creds domainauth.Credentials) string {
	h := sha256.New()
	h.Write([]byte(submissionKey))
	h.Write([]byte{0})
	h.Write([]byte(creds.Identifier))
	h.Write([]byte{0})
	h.Write([]byte(creds.Secret))
	return hex.EncodeToString(h.Sum(nil))
}

// ResolveIdentity turns a session token into the live session it names.
// ok is false for anything that does not resolve to a valid session; no error is surfaced.
func (s *AuthService) ResolveIdentity(ctx context.Context, token string) (*domainauth.Session, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := s.ports.Tokens.Decode(token)
	if err != nil {
		metrics.EmitSessionResolve(s.ports.Metrics, "invalid_token")
		return nil, false
	}

	sess, err := s.ports.Sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, ports.ErrSessionNotFound) {
			metrics.EmitSessionResolve(s.ports.Metrics, "revoked")
		} else {
			s.logger.WarnContext(ctx, "session lookup failed", "error", err)
			metrics.EmitSessionResolve(s.ports.Metrics, "error")
		}
		return nil, false
	}

	if sess.UserID != claims.UserID || sess.Role != claims.Role {
		s.logger.WarnContext(ctx, "session token does not match stored session", "session_id", claims.SessionID)
		return nil, false
	}
	if err := sess.Validate(s.cfg.Now()); err != nil {
		if errors.Is(err, domainauth.ErrSessionExpired) {
			_ = s.ports.Sessions.Delete(ctx, sess.ID)
		}
		metrics.EmitSessionResolve(s.ports.Metrics, "invalid_session")
		return nil, false
	}
	return &sess, true
}

// SignOut deletes the session named by token. Tokens that no longer decode have
// nothing left to discard and are not an error.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.ports.Tokens.Decode(token)
	if err != nil {
		metrics.EmitSignOut(s.ports.Metrics, metrics.ResultNoop)
		return nil
	}
	if err := s.ports.Sessions.Delete(ctx, claims.SessionID); err != nil {
		metrics.EmitSignOut(s.ports.Metrics, metrics.ResultError)
		return fmt.Errorf("delete session: %w", err)
	}
	metrics.EmitSignOut(s.ports.Metrics, metrics.ResultSuccess)
	s.logger.InfoContext(ctx, "signed out", "user_id", claims.UserID)
	return nil
}

// BeginSSOResult contains the redirect target and the values to round-trip.
type BeginSSOResult struct {
	AuthURL string
	State   string
	Nonce   string
}

// BeginSSO initiates an SSO flow.
func (s *AuthService) BeginSSO(ctx context.Context, redirectURL string) (*BeginSSOResult, error) {
	if s.ports.SSO == nil {
		return nil, ErrSSODisabled
	}
	if redirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	authURL, state, nonce, err := s.ports.SSO.Begin(ctx, ports.BeginInput{RedirectURL: redirectURL})
	if err != nil {
		return nil, fmt.Errorf("begin auth flow: %w", err)
	}
	return &BeginSSOResult{AuthURL: authURL, State: state, Nonce: nonce}, nil
}

// CompleteSSOInput groups parameters for completing an SSO flow.
type CompleteSSOInput struct {
	Code  string
	State string
	Nonce string
}

// CompleteSSO exchanges the authorization code and issues a session.
func (s *AuthService) CompleteSSO(ctx context.Context, in CompleteSSOInput) (*SignInResult, error) {
	if s.ports.SSO == nil {
		return nil, ErrSSODisabled
	}
	if in.Code == "" {
		return nil, errors.New("authorization code is required")
	}
	if in.State == "" || in.Nonce == "" {
		return nil, errors.New("state and nonce are required")
	}

	start := s.cfg.Now()
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	identity, err := s.ports.SSO.Exchange(ctx, ports.ExchangeInput{Code: in.Code, State: in.State, Nonce: in.Nonce})
	if err != nil {
		err = fmt.Errorf("exchange authorization code: %w", err)
		s.recordSignIn(ctx, domainauth.Credentials{}, false, start, err)
		return nil, err
	}
	res, err := s.issue(ctx, identity)
	s.recordSignIn(ctx, domainauth.Credentials{Identifier: identity.Email}, false, start, err)
	return res, err
}
