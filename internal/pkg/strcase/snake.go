// Package strcase converts Go identifiers for user-facing field names.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake turns a Go field name into snake_case and keeps initialisms
// together, so CredentialID becomes credential_id and HTTPStatus http_status.
func ToLowerSnake(s string) string {
	runes := []rune(s)

	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && wordStart(runes, i) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}

	return b.String()
}

// wordStart reports whether the upper-case rune at i opens a new word.
func wordStart(runes []rune, i int) bool {
	prev := runes[i-1]
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}

	// last capital of an initialism followed by a lower-case word
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
