package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Token is a JWT together with its expiry.
type Token struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires"`
}

// Valid reports whether the token is present and unexpired at now.
func (t Token) Valid(now time.Time) bool {
	return t.Value != "" && t.ExpiresAt.After(now)
}

// TokenPair holds the access and refresh tokens of the signed-in user.
type TokenPair struct {
	AccessToken  Token `json:"accessToken"`
	RefreshToken Token `json:"refreshToken"`
}

// User is the identity carried in the access token's subject.
type User struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// subject is the object-valued "sub" claim issued by the API.
type subject struct {
	ID        int    `json:"id"`
	UserEmail string `json:"user_email"`
}

// claims decodes the API's tokens. RegisteredClaims cannot be embedded
// because "sub" is an object rather than a string.
type claims struct {
	Sub subject          `json:"sub"`
	Exp *jwt.NumericDate `json:"exp"`
}

func (c *claims) GetExpirationTime() (*jwt.NumericDate, error) { return c.Exp, nil }
func (c *claims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (c *claims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c *claims) GetIssuer() (string, error)                   { return "", nil }
func (c *claims) GetSubject() (string, error)                  { return "", nil }
func (c *claims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// parseToken decodes raw without verifying its signature; the API is the
// only party able to verify it and does so on every Bearer call.
func parseToken(parser *jwt.Parser, raw string) (*claims, error) {
	if raw == "" {
		return nil, errors.New("token is empty")
	}
	decoded := &claims{}
	if _, _, err := parser.ParseUnverified(raw, decoded); err != nil {
		return nil, errors.Wrap(err, "failed to decode token")
	}
	if decoded.Exp == nil {
		return nil, errors.New("token has no exp claim")
	}
	return decoded, nil
}
