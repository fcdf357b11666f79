// Package jwtx implements the HMAC-signed session token codec. Tokens are
// HS256 JWTs carrying the account email as subject plus a role claim; there
// is no server-side token identifier, so validity is purely signature and
// expiry based.
package jwtx

import (
	"encoding/base64"
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Kind selects the token lifetime. Access and refresh tokens are otherwise
// identical on the wire; they are distinguished by the header slot they
// travel in.
type Kind int

const (
	KindAccess Kind = iota
	KindRefresh
)

const (
	// AccessTokenTTL is the lifetime of access tokens.
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the lifetime of refresh tokens.
	RefreshTokenTTL = 48 * time.Hour
)

var (
	ErrEmptySecret   = errors.New("jwtx: empty signing secret")
	ErrInvalidSecret = errors.New("jwtx: signing secret is not valid base64")
	ErrInvalidToken  = errors.New("jwtx: invalid token")
)

// SessionClaims are the claims embedded in every session token.
type SessionClaims struct {
	jwt.RegisteredClaims

	// Role is the account's flat role string, e.g. "USER" or "ADMIN".
	Role string `json:"role,omitempty"`
}

// Codec issues and validates session tokens under a single process-wide
// HMAC key. Construct it once at startup; the key is never re-read.
type Codec struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock injects the time source, used by tests to pin expiry behaviour.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec builds a Codec from a base64-encoded HMAC secret. A missing or
// undecodable secret is a startup-fatal configuration error.
func NewCodec(base64Secret string, opts ...Option) (*Codec, error) {
	if base64Secret == "" {
		return nil, ErrEmptySecret
	}

	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, ErrInvalidSecret
	}

	c := &Codec{
		key:        key,
		accessTTL:  AccessTokenTTL,
		refreshTTL: RefreshTokenTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue signs a token for the given subject email and role. IssuedAt is the
// current clock reading; ExpiresAt is issuedAt plus the kind's TTL.
func (c *Codec) Issue(email, role string, kind Kind) (string, error) {
	now := c.now()

	ttl := c.accessTTL
	if kind == KindRefresh {
		ttl = c.refreshTTL
	}

	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
}

// Validate reports whether the token has a valid signature and is not
// expired. All failure modes collapse to false; the cause is only logged as
// a diagnostic, never surfaced to the caller.
func (c *Codec) Validate(token string) bool {
	if _, err := c.parse(token); err != nil {
		slog.Debug("session token rejected", "error", err)
		return false
	}
	return true
}

// Subject re-parses the token and returns its subject email. Callers are
// expected to have run Validate first; an unverifiable token returns an
// error.
func (c *Codec) Subject(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Claims returns the full verified claim set.
func (c *Codec) Claims(token string) (SessionClaims, error) {
	claims, err := c.parse(token)
	if err != nil {
		return SessionClaims{}, err
	}
	return *claims, nil
}

func (c *Codec) parse(token string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)

	parsed, err := parser.ParseWithClaims(token, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
