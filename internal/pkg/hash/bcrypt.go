// Package hash hashes and verifies admin passwords.
package hash

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash is the contract used by the admin module.
type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// Bcrypt appends a configured pepper to every password before bcrypt sees it.
// The pepper never reaches the database.
type Bcrypt struct {
	cost   int
	pepper string
}

func NewBcrypt(cost int, pepper string) *Bcrypt {
	b := &Bcrypt{cost: bcrypt.DefaultCost, pepper: pepper}
	if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
		b.cost = cost
	}

	return b
}

func (h *Bcrypt) peppered(plaintext string) []byte {
	return []byte(plaintext + h.pepper)
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(h.peppered(plaintext), h.cost)
}

// Verify reports whether plaintext matches hashed. Malformed hashes never match.
func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), h.peppered(plaintext)) == nil
}
