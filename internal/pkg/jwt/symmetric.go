package jwt

import (
	"errors"
	"strconv"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const (
	minSecretLen = 64
	defaultTTL   = time.Hour
)

// Symmetric signs admin tokens with HS512.
type Symmetric struct {
	secret    []byte
	issuer    string
	audiences []string
	ttl       time.Duration
	clock     clocker
	uuid      generator
	parser    *libJWT.Parser
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrSigningKeyTooShort
	}

	s := &Symmetric{
		secret:    cfg.Secret,
		issuer:    cfg.Issuer,
		audiences: cfg.Audiences,
		ttl:       cfg.TTL,
		clock:     cfg.Clock,
		uuid:      cfg.UUID,
	}
	if s.ttl <= 0 {
		s.ttl = defaultTTL
	}

	s.parser = libJWT.NewParser(
		libJWT.WithIssuer(s.issuer),
		libJWT.WithAudience(s.audiences...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(s.clock.Now),
	)

	return s, nil
}

func (s *Symmetric) claimsFor(sub Subject, now time.Time) Claims {
	return Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   strconv.FormatInt(sub.ID, 10),
			Issuer:    s.issuer,
			Audience:  s.audiences,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		AdminID:    sub.ID,
		AdminEmail: sub.Email,
		AdminName:  sub.Name,
	}
}

// Generate issues a token for sub valid for the configured TTL.
func (s *Symmetric) Generate(sub Subject) (string, error) {
	token := libJWT.NewWithClaims(libJWT.SigningMethodHS512, s.claimsFor(sub, s.clock.Now()))

	return token.SignedString(s.secret)
}

func (s *Symmetric) key(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}

	return s.secret, nil
}

// Verify checks signature, issuer, audience and expiry. An expired token
// yields ErrTokenExpired.
func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims

	token, err := s.parser.ParseWithClaims(tokenStr, &claims, s.key)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, err
	case !token.Valid:
		return Claims{}, ErrInvalidToken
	}

	return claims, nil
}
