// Package token signs and verifies the session token kept in the browser cookie.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	domainauth "github.com/target/dns-manager-ui/internal/domain/auth"
	"github.com/target/dns-manager-ui/internal/ports"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// DefaultIssuer is stamped into every token and required on decode.
const DefaultIssuer = "dns-manager"

// claims is the wire shape of a session token.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec is an HMAC-SHA256 implementation of ports.TokenCodec.
type JWTCodec struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Config holds the codec settings.
type Config struct {
	Secret string
	Issuer string
}

var _ ports.TokenCodec = (*JWTCodec)(nil)

// NewJWTCodec builds a codec. Secret must be non-empty.
func NewJWTCodec(cfg Config) (*JWTCodec, error) {
	if cfg.Secret == "" {
		return nil, errors.New("token secret is required")
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return &JWTCodec{secret: []byte(cfg.Secret), issuer: issuer, now: time.Now}, nil
}

// Encode signs the session id, subject, role and expiry.
func (c *JWTCodec) Encode(sess domainauth.Session) (string, error) {
	if sess.ID == "" || sess.UserID == "" {
		return "", errors.New("session id and user id are required")
	}
	now := c.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(sess.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Issuer:    c.issuer,
			Subject:   sess.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	return tok.SignedString(c.secret)
}

// Decode verifies signature, issuer and expiry locally and returns the claims.
func (c *JWTCodec) Decode(raw string) (ports.TokenClaims, error) {
	if raw == "" {
		return ports.TokenClaims{}, ErrInvalidToken
	}
	var cl claims
	tok, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ports.TokenClaims{}, ErrExpiredToken
		}
		return ports.TokenClaims{}, ErrInvalidToken
	}
	if !tok.Valid || cl.ID == "" || cl.Subject == "" {
		return ports.TokenClaims{}, ErrInvalidToken
	}

	return ports.TokenClaims{
		SessionID: cl.ID,
		UserID:    cl.Subject,
		Role:      domainauth.Role(cl.Role),
		ExpiresAt: cl.ExpiresAt.Time,
	}, nil
}
