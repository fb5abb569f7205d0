// Package otp implements the time-based one-time passwords used for door
// credentials: SHA1, 6 digits, 30 second steps.
//
// Validation is window tolerant and reports the matched time step so callers
// can log or reason about clock drift.
package otp

import (
	"crypto/subtle"
	"encoding/base32"
	"errors"
	"regexp"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
	"github.com/pquerna/otp/totp"
)

const (
	// Period is the length of one time step.
	Period = 30 * time.Second
	// Digits is the code length.
	Digits = 6
	// DefaultWindow is the number of steps accepted on each side of the current one.
	DefaultWindow uint = 2
	// SecretSize is the raw secret size in bytes (160 bits).
	SecretSize = 20
)

var (
	// ErrInvalidSecret is returned when a secret is not unpadded base32.
	ErrInvalidSecret = errors.New("otp: secret must be unpadded base32 (A-Z, 2-7)")

	reSecret = regexp.MustCompile(`^[A-Z2-7]+$`)
	reCode   = regexp.MustCompile(`^\d{6}$`)
)

// OTP defines the contract for TOTP operations.
type OTP interface {
	// Generate returns the code for secret at the given instant.
	Generate(secret string, at time.Time) (string, error)
	// Validate checks code against every step in [current-window, current+window]
	// and returns the first matching step.
	Validate(secret, code string, at time.Time, window uint) (step int64, ok bool)
	// NewSecret creates a fresh secret with its provisioning URI.
	NewSecret(accountName string) (secret string, uri string, err error)
	// ProvisioningURI builds the otpauth URI for an existing secret.
	ProvisioningURI(accountName, secret string) (string, error)
}

// TOTP implements OTP. It holds no mutable state and is safe for concurrent use.
type TOTP struct {
	issuer string
}

// NewTOTP returns a TOTP engine whose provisioning URIs carry issuer.
func NewTOTP(issuer string) *TOTP {
	return &TOTP{issuer: issuer}
}

// Counter returns the time step index for at.
func Counter(at time.Time) int64 {
	return at.Unix() / int64(Period/time.Second)
}

// Remaining returns how long the code for at stays current.
func Remaining(at time.Time) time.Duration {
	period := int64(Period / time.Second)
	left := period - at.Unix()%period

	return time.Duration(left) * time.Second
}

// ValidSecret reports whether secret is strict unpadded base32.
func ValidSecret(secret string) bool {
	return reSecret.MatchString(secret)
}

// Generate returns the code for secret at the given instant.
func (o *TOTP) Generate(secret string, at time.Time) (string, error) {
	if !ValidSecret(secret) {
		return "", ErrInvalidSecret
	}

	return hotp.GenerateCodeCustom(secret, uint64(Counter(at)), hotpOpts())
}

// Validate checks every step of the window. It never short-circuits on the
// current step alone and returns ok=false for malformed input.
func (o *TOTP) Validate(secret, code string, at time.Time, window uint) (int64, bool) {
	if !ValidSecret(secret) || !reCode.MatchString(code) {
		return 0, false
	}

	current := Counter(at)
	w := int64(window)
	for step := current - w; step <= current+w; step++ {
		if step < 0 {
			continue
		}

		want, err := hotp.GenerateCodeCustom(secret, uint64(step), hotpOpts())
		if err != nil {
			return 0, false
		}

		if subtle.ConstantTimeCompare([]byte(want), []byte(code)) == 1 {
			return step, true
		}
	}

	return 0, false
}

// NewSecret creates a 160-bit secret and its provisioning URI.
func (o *TOTP) NewSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      uint(Period / time.Second),
		SecretSize:  SecretSize,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// ProvisioningURI builds the otpauth URI for an existing secret.
func (o *TOTP) ProvisioningURI(accountName, secret string) (string, error) {
	if !ValidSecret(secret) {
		return "", ErrInvalidSecret
	}

	raw, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(secret)
	if err != nil {
		return "", ErrInvalidSecret
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      o.issuer,
		AccountName: accountName,
		Period:      uint(Period / time.Second),
		Secret:      raw,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return "", err
	}

	return key.URL(), nil
}

func hotpOpts() hotp.ValidateOpts {
	return hotp.ValidateOpts{
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
