package entity

import (
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedToken is returned when a scan carries no usable code.
var ErrMalformedToken = errors.New("malformed token")

// TokenKind tells how a scanned string was recognized.
type TokenKind int

const (
	// TokenPrefixed is six alphanumerics of credential ID followed by the code.
	TokenPrefixed TokenKind = iota + 1
	// TokenLegacy is the bare six digit code.
	TokenLegacy
	// TokenEmbedded is a six digit run found inside other text.
	TokenEmbedded
)

func (k TokenKind) String() string {
	switch k {
	case TokenPrefixed:
		return "prefixed"
	case TokenLegacy:
		return "legacy"
	case TokenEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

var (
	rePrefixed = regexp.MustCompile(`^[A-Za-z0-9]{6}\d{6}$`)
	reLegacy   = regexp.MustCompile(`^\d{6}$`)
	reEmbedded = regexp.MustCompile(`\d{6}`)
)

// ScannedToken is a parsed scan.
type ScannedToken struct {
	Raw    string
	Kind   TokenKind
	Prefix string
	Code   string
}

// ParseScannedToken trims raw and recognizes, in order, the prefixed form,
// the legacy form, then the first embedded six digit run.
func ParseScannedToken(raw string) (ScannedToken, error) {
	s := strings.TrimSpace(raw)

	switch {
	case rePrefixed.MatchString(s):
		return ScannedToken{Raw: s, Kind: TokenPrefixed, Prefix: s[:PrefixLength], Code: s[PrefixLength:]}, nil
	case reLegacy.MatchString(s):
		return ScannedToken{Raw: s, Kind: TokenLegacy, Code: s}, nil
	}

	if code := reEmbedded.FindString(s); code != "" {
		return ScannedToken{Raw: s, Kind: TokenEmbedded, Code: code}, nil
	}

	return ScannedToken{}, ErrMalformedToken
}

// MaskToken keeps a few characters at each end for log correlation.
func MaskToken(token string) string {
	if len(token) > 8 {
		return token[:3] + "***" + token[len(token)-2:]
	}
	if len(token) >= 3 {
		return token[:2] + "***" + token[len(token)-1:]
	}

	return "***"
}
