package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

var ErrInvalidCredential = errors.New("invalid credential")

type Claims struct {
	Uid string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

type authenticator struct {
	secret []byte
	clock  clockwork.Clock
}

func New(secret string, clk clockwork.Clock) *authenticator {
	return &authenticator{
		secret: []byte(secret),
		clock:  clk,
	}
}

// Authenticate verifies an HS256 token and returns the identity it was issued for,
// taken from the sub claim or, failing that, the uid claim.
func (a authenticator) Authenticate(ctx context.Context, credential string) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(credential, &claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock.Now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}

	if !token.Valid {
		return "", ErrInvalidCredential
	}

	identity := claims.Subject
	if identity == "" {
		identity = claims.Uid
	}

	if identity == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrInvalidCredential)
	}

	return identity, nil
}

// Issue signs a token for identity valid for ttl. A zero ttl issues a token without expiry.
func (a authenticator) Issue(identity string, ttl time.Duration) (string, error) {
	now := a.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  identity,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(a.secret)
}
