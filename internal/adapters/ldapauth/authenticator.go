// Package ldapauth checks console credentials with an LDAP search-then-bind.
package ldapauth

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/ports"
)

const (
	defaultUserFilter     = "(&(objectClass=person)(mail=%s))"
	defaultGroupAttribute = "memberOf"
	dialTimeout           = 5 * time.Second
)

// Config describes the directory to authenticate against.
type Config struct {
	URL                string
	BindDN             string
	BindPassword       string
	BaseDN             string
	UserFilter         string // must contain exactly one %s for the escaped identifier
	GroupAttribute     string
	StartTLS           bool
	InsecureSkipVerify bool
}

// directory is the subset of *ldap.Conn used here.
type directory interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
}

type dialFunc func(ctx context.Context, cfg Config) (directory, func(), error)

// Authenticator implements ports.Authenticator against an LDAP directory.
type Authenticator struct {
	cfg    Config
	dial   dialFunc
	logger *slog.Logger
}

var _ ports.Authenticator = (*Authenticator)(nil)

// New builds an Authenticator. A nil logger falls back to slog.Default().
func New(cfg Config, logger *slog.Logger) *Authenticator {
	if strings.TrimSpace(cfg.UserFilter) == "" {
		cfg.UserFilter = defaultUserFilter
	}
	if strings.TrimSpace(cfg.GroupAttribute) == "" {
		cfg.GroupAttribute = defaultGroupAttribute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{cfg: cfg, dial: dialDirectory, logger: logger.With("component", "ldapauth")}
}

// Authenticate looks the entry up with the service account and then binds as it.
// Cancelling ctx closes the connection, which unblocks any in-flight operation.
func (a *Authenticator) Authenticate(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error) {
	creds = creds.Normalized()
	if err := creds.Validate(); err != nil {
		return domainauth.Identity{}, err
	}
	if err := ctx.Err(); err != nil {
		return domainauth.Identity{}, err
	}

	conn, closeConn, err := a.dial(ctx, a.cfg)
	if err != nil {
		return domainauth.Identity{}, fmt.Errorf("ldap dial: %w", err)
	}
	stop := context.AfterFunc(ctx, closeConn)
	defer func() {
		if stop() {
			closeConn()
		}
	}()

	if a.cfg.BindDN != "" {
		if bindErr := conn.Bind(a.cfg.BindDN, a.cfg.BindPassword); bindErr != nil {
			return domainauth.Identity{}, a.opError(ctx, "service bind", bindErr)
		}
	}

	entry, err := a.lookup(ctx, conn, creds.Identifier)
	if err != nil {
		return domainauth.Identity{}, err
	}

	if bindErr := conn.Bind(entry.DN, creds.Secret); bindErr != nil {
		if ldap.IsErrorWithCode(bindErr, ldap.LDAPResultInvalidCredentials) {
			return domainauth.Identity{}, domainauth.ErrInvalidCredentials
		}
		return domainauth.Identity{}, a.opError(ctx, "user bind", bindErr)
	}

	return identityFromEntry(entry, creds.Identifier, a.cfg.GroupAttribute), nil
}

func (a *Authenticator) lookup(ctx context.Context, conn directory, identifier string) (*ldap.Entry, error) {
	filter := fmt.Sprintf(a.cfg.UserFilter, ldap.EscapeFilter(identifier))
	req := ldap.NewSearchRequest(
		a.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2,
		0,
		false,
		filter,
		[]string{"dn", "uid", "mail", "givenName", "sn", a.cfg.GroupAttribute},
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
			a.logger.WarnContext(ctx, "ldap filter matched more than one entry", "base_dn", a.cfg.BaseDN)
			return nil, domainauth.ErrInvalidCredentials
		}
		return nil, a.opError(ctx, "search", err)
	}
	switch len(res.Entries) {
	case 0:
		return nil, domainauth.ErrInvalidCredentials
	case 1:
		return res.Entries[0], nil
	default:
		a.logger.WarnContext(ctx, "ldap filter matched more than one entry", "base_dn", a.cfg.BaseDN, "count", len(res.Entries))
		return nil, domainauth.ErrInvalidCredentials
	}
}

// opError prefers the context error so callers see cancellation rather than a closed-connection error.
func (a *Authenticator) opError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("ldap %s: %w", op, ctxErr)
	}
	return fmt.Errorf("ldap %s: %w", op, err)
}

func identityFromEntry(entry *ldap.Entry, identifier, groupAttr string) domainauth.Identity {
	id := entry.GetAttributeValue("uid")
	if id == "" {
		id = entry.DN
	}
	email := entry.GetAttributeValue("mail")
	if email == "" {
		email = identifier
	}
	return domainauth.Identity{
		UserID:    id,
		FirstName: entry.GetAttributeValue("givenName"),
		LastName:  entry.GetAttributeValue("sn"),
		Email:     strings.ToLower(email),
		Groups:    entry.GetAttributeValues(groupAttr),
	}
}

func dialDirectory(ctx context.Context, cfg Config) (directory, func(), error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parse ldap url: %w", err)
	}
	tlsCfg := &tls.Config{
		ServerName:         u.Hostname(),
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // operator opt-in for lab directories
		MinVersion:         tls.VersionTLS12,
	}

	conn, err := ldap.DialURL(cfg.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: dialTimeout}),
		ldap.DialWithTLSConfig(tlsCfg),
	)
	if err != nil {
		return nil, nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		conn.SetTimeout(time.Until(dl))
	}
	if cfg.StartTLS && u.Scheme == "ldap" {
		if tlsErr := conn.StartTLS(tlsCfg); tlsErr != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("start tls: %w", tlsErr)
		}
	}
	return conn, func() { conn.Close() }, nil
}
