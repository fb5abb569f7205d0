// Package jwt issues and verifies the bearer tokens carried by admin requests.
package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSigningMethod is returned when the JWT signing method is not supported.
	ErrInvalidSigningMethod = errors.New("invalid JWT signing method")

	// ErrSigningKeyTooShort is returned when the HS512 signing key is less than 64 bytes.
	ErrSigningKeyTooShort = errors.New("HS512 signing key must be at least 64 bytes (512 bits)")

	// ErrTokenExpired is returned when the JWT token has expired.
	ErrTokenExpired = errors.New("JWT token has expired")

	// ErrInvalidToken is returned when the token is malformed or fails validation.
	ErrInvalidToken = errors.New("invalid token")
)

// JWT generates and verifies admin tokens.
type JWT interface {
	Generate(sub Subject) (string, error)
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

// Subject is the authenticated admin a token is issued for.
type Subject struct {
	ID    int64
	Email string
	Name  string
}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	UUID      generator
}

// Claims wraps the registered claims with the admin identity.
type Claims struct {
	jwt.RegisteredClaims
	AdminID    int64  `json:"admin_id,string"`
	AdminEmail string `json:"admin_email"`
	AdminName  string `json:"admin_name"`
}

type claimsKey struct{}

// GetAuth returns the claims stored in the context, if any.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(claimsKey{}).(Claims)
	if !ok {
		return nil
	}

	return &clm
}

// SetAuth stores claims in the context.
func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, clm)
}
