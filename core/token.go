package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid is returned for tokens with a bad signature, wrong
	// algorithm, missing identity, or past expiry.
	ErrTokenInvalid = errors.New("token is not valid")
	// ErrEmptySecret is returned when the issuer is constructed without a
	// signing secret; callers treat it as a server misconfiguration.
	ErrEmptySecret = errors.New("empty jwt secret")
)

// tokenUser is the identity object embedded in the token payload.
// The nested {user:{id}} shape is what existing clients decode.
type tokenUser struct {
	ID string `json:"id"`
}

type tokenClaims struct {
	User tokenUser `json:"user"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies signed bearer tokens. The secret and
// lifetime are fixed at construction; the issuer is safe for concurrent use.
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenIssuer builds an issuer from cfg. The lifetime default of 360000
// seconds is applied by Load; it is deliberately configurable rather than
// baked in here.
func NewTokenIssuer(cfg Config) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(cfg.JWTSecret),
		lifetime: time.Duration(cfg.TokenLifetimeSeconds) * time.Second,
	}
}

// Issue signs a token carrying userID, valid for the configured lifetime.
func (t *TokenIssuer) Issue(userID string) (string, error) {
	if len(t.secret) == 0 {
		return "", ErrEmptySecret
	}
	now := time.Now()
	claims := tokenClaims{
		User: tokenUser{ID: userID},
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded user id.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrTokenInvalid
	}
	if claims.User.ID == "" {
		return "", ErrTokenInvalid
	}
	return claims.User.ID, nil
}
