// Package token creates and verifies the signed tokens carried by the two
// session cookies. Tokens are self-contained HS256 JWTs; nothing is stored
// server side.
package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/genuka/go-auth-service/internal/errors"
)

// Kind discriminates the two cookie tokens. A session token cannot be used
// to refresh and a refresh token cannot access protected routes.
type Kind string

const (
	KindSession Kind = "session"
	KindRefresh Kind = "refresh"
)

// Claims is the payload of a session or refresh token. Field names match
// what the platform boilerplates emit ("companyId", "type").
type Claims struct {
	CompanyID string `json:"companyId"`
	Kind      Kind   `json:"type"`
	jwtlib.RegisteredClaims
}

// Codec encodes and decodes signed session tokens.
type Codec struct {
	secret  []byte
	nowTime func() time.Time
}

// CodecOption modifies a Codec.
type CodecOption func(*Codec)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowTime = nowFunc
	}
}

func NewCodec(secret []byte, options ...CodecOption) *Codec {
	c := &Codec{
		secret:  secret,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Encode creates a signed token of the given kind bound to companyID.
func (c *Codec) Encode(companyID string, kind Kind, ttl time.Duration) (string, error) {
	now := c.nowTime()
	claims := Claims{
		CompanyID: companyID,
		Kind:      kind,
		RegisteredClaims: jwtlib.RegisteredClaims{
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrapf(err, "[Codec.Encode] signing token")
	}
	return signed, nil
}

// Decode verifies the signature, then expiry, then structure, and returns
// the claims. No claim is trusted before the signature checks out.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (interface{}, error) {
		return c.secret, nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}), jwtlib.WithTimeFunc(c.nowTime))

	switch {
	case err == nil:
	case errors.Is(err, jwtlib.ErrTokenSignatureInvalid):
		return nil, errors.ErrSignatureInvalid
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return nil, errors.ErrTokenExpired
	default:
		return nil, errors.Wrapf(errors.ErrTokenMalformed, "[Codec.Decode] %v", err)
	}

	if claims.CompanyID == "" || (claims.Kind != KindSession && claims.Kind != KindRefresh) {
		return nil, errors.ErrTokenMalformed
	}
	return claims, nil
}
