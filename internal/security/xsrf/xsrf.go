// Package xsrf issues and verifies session tokens bound to an OAuth access
// token. The token is an HS256 JWT whose subject is a SHA-256 binding of the
// access token, so verification is pure recomputation: no session table,
// re-derivable at any time from the same access token.
package xsrf

import (
	"crypto/subtle"
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/goodow/moonauth/internal/security/token"
)

var (
	// ErrTokenExpired means the token was once valid but its expiry window
	// elapsed. Callers may re-authenticate silently via refresh.
	ErrTokenExpired = errors.New("xsrf: token expired")

	// ErrTokenInvalid means tampering or a token issued for a different
	// access token or secret. Callers must force a full re-login.
	ErrTokenInvalid = errors.New("xsrf: token invalid")
)

// Codec derives session tokens from (access token, secret, expiry window).
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) *Codec {
	return &Codec{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports the expiry window, which is also the session cookie lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue creates a token bound to accessToken, valid for the codec's window.
func (c *Codec) Issue(accessToken string) (string, error) {
	now := c.now().UTC()
	claims := jwtv5.RegisteredClaims{
		Subject:   token.SHA256Base64URL(accessToken),
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(c.ttl)),
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify recomputes the binding and checks the signature and expiry.
// Returns nil, ErrTokenExpired, or ErrTokenInvalid.
func (c *Codec) Verify(accessToken, tok string) error {
	parsed, err := jwtv5.ParseWithClaims(tok, &jwtv5.RegisteredClaims{},
		func(*jwtv5.Token) (any, error) { return c.secret, nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*jwtv5.RegisteredClaims)
	if !ok {
		return ErrTokenInvalid
	}
	want := token.SHA256Base64URL(accessToken)
	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(want)) != 1 {
		return ErrTokenInvalid
	}
	return nil
}
