package entity

import (
	"errors"
	"testing"
	"time"
)

func TestParseScannedToken(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ScannedToken
		wantErr error
	}{
		{
			name: "prefixed",
			raw:  "aB3xY9123456",
			want: ScannedToken{Raw: "aB3xY9123456", Kind: TokenPrefixed, Prefix: "aB3xY9", Code: "123456"},
		},
		{
			name: "prefixed all digits is still prefixed",
			raw:  "000111222333",
			want: ScannedToken{Raw: "000111222333", Kind: TokenPrefixed, Prefix: "000111", Code: "222333"},
		},
		{
			name: "legacy with whitespace",
			raw:  "  123456\n",
			want: ScannedToken{Raw: "123456", Kind: TokenLegacy, Code: "123456"},
		},
		{
			name: "embedded",
			raw:  "code: 654321 please",
			want: ScannedToken{Raw: "code: 654321 please", Kind: TokenEmbedded, Code: "654321"},
		},
		{
			name: "embedded takes first run",
			raw:  "x1234567890",
			want: ScannedToken{Raw: "x1234567890", Kind: TokenEmbedded, Code: "123456"},
		},
		{name: "empty", raw: "", wantErr: ErrMalformedToken},
		{name: "five digits", raw: "12345", wantErr: ErrMalformedToken},
		{name: "letters only", raw: "abcdefghijkl", wantErr: ErrMalformedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScannedToken(tt.raw)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestMaskToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "aB3xY9123456", want: "aB3***56"},
		{in: "12345678", want: "12***8"},
		{in: "123456", want: "12***6"},
		{in: "ab", want: "***"},
		{in: "", want: "***"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := MaskToken(tt.in); got != tt.want {
				t.Fatalf("MaskToken(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCredential_Ineligibility(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	tests := []struct {
		name string
		c    Credential
		want Detail
	}{
		{name: "permanent", c: Credential{}, want: ""},
		{name: "disabled", c: Credential{IsDisabled: true}, want: DetailDisabled},
		{name: "temporary not yet expired", c: Credential{IsTemporary: true, ExpiresAt: &future}, want: ""},
		{name: "temporary expiring now", c: Credential{IsTemporary: true, ExpiresAt: &now}, want: DetailExpired},
		{name: "temporary expired", c: Credential{IsTemporary: true, ExpiresAt: &past}, want: DetailExpired},
		{name: "temporary without expiry", c: Credential{IsTemporary: true}, want: ""},
		{name: "expiry ignored when permanent", c: Credential{ExpiresAt: &past}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Ineligibility(now); got != tt.want {
				t.Fatalf("Ineligibility = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCredential_Prefix(t *testing.T) {
	if got := (Credential{ID: "aB3xY9kLmN"}).Prefix(); got != "aB3xY9" {
		t.Fatalf("Prefix = %q", got)
	}
	if got := (Credential{ID: "abc"}).Prefix(); got != "abc" {
		t.Fatalf("short Prefix = %q", got)
	}
}
