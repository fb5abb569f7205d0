package entity

import "time"

// PrefixLength is the number of leading ID characters printed in a pass.
const PrefixLength = 6

// Credential is one holder's registered door secret.
type Credential struct {
	ID          string
	HolderName  string
	Secret      string
	IsDisabled  bool
	IsTemporary bool
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

// Prefix returns the public resolution prefix of the credential ID.
func (c Credential) Prefix() string {
	if len(c.ID) < PrefixLength {
		return c.ID
	}

	return c.ID[:PrefixLength]
}

// Expired reports whether a temporary credential is past its expiry at now.
// An expiry equal to now counts as expired.
func (c Credential) Expired(now time.Time) bool {
	return c.IsTemporary && c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// Ineligibility returns why the credential may not open the door at now,
// or "" when it may.
func (c Credential) Ineligibility(now time.Time) Detail {
	switch {
	case c.IsDisabled:
		return DetailDisabled
	case c.Expired(now):
		return DetailExpired
	default:
		return ""
	}
}

// CredentialSummary is a credential without its secret, used for listings.
type CredentialSummary struct {
	ID          string
	HolderName  string
	IsDisabled  bool
	IsTemporary bool
	ExpiresAt   *time.Time
	CreatedAt   time.Time
}

// Summary drops the secret.
func (c Credential) Summary() CredentialSummary {
	return CredentialSummary{
		ID:          c.ID,
		HolderName:  c.HolderName,
		IsDisabled:  c.IsDisabled,
		IsTemporary: c.IsTemporary,
		ExpiresAt:   c.ExpiresAt,
		CreatedAt:   c.CreatedAt,
	}
}
