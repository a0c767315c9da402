package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidToken is returned by Verify for every verification failure: wrong
// signature, wrong signing method, malformed structure, or expiry in the past.
// Callers cannot distinguish a forged token from an expired one.
var ErrInvalidToken = errors.New("invalid token")

// Codec signs and verifies HS256 tokens. The zero value is unusable; construct
// with NewCodec. The clock is injectable so issuance and expiry checks follow
// one time source.
type Codec struct {
	nowFunc func() time.Time
}

type CodecOption func(*Codec)

func WithNowFunc(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.nowFunc = now
	}
}

func NewCodec(options ...CodecOption) *Codec {
	c := &Codec{
		nowFunc: time.Now,
	}

	for _, opt := range options {
		opt(c)
	}
	return c
}

// Sign creates a signed HS256 token from the claims, with expiry set to
// now + ttl. The registered claims (iat, exp, jti) are always overwritten.
func (c *Codec) Sign(claims *Claims, secret []byte, ttl time.Duration) (string, error) {
	now := c.nowFunc()

	signing := *claims
	signing.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &signing).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "token.Codec.Sign")
	}
	return signed, nil
}

// Verify parses and validates a token against the given secret, checking both
// the signature and the expiry.
func (c *Codec) Verify(raw string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.nowFunc() }))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Decode extracts claims without verifying the signature, returning nil on
// malformed input. It exists so a caller can read the expiry and routing
// identifiers before the verified check; its output must never cross a trust
// boundary on its own.
func Decode(raw string) *Claims {
	parsed, _, err := jwt.NewParser().ParseUnverified(raw, &Claims{})
	if err != nil {
		return nil
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil
	}
	return claims
}
