package otp

import (
	"net/url"
	"strings"
	"testing"
	"time"
)

// base32 of the ASCII seed "12345678901234567890" from RFC 6238 appendix B.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestTOTP_Generate_RFC6238(t *testing.T) {
	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
		{20000000000, "353130"},
	}

	o := NewTOTP("gatepass")
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			// Act
			got, err := o.Generate(rfcSecret, time.Unix(tt.unix, 0))

			// Assert
			if err != nil {
				t.Fatalf("Generate error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("Generate(%d) = %q, want %q", tt.unix, got, tt.want)
			}
		})
	}
}

func TestTOTP_RoundTrip(t *testing.T) {
	// Arrange
	o := NewTOTP("gatepass")
	at := time.Unix(1700000000, 0)

	// Act
	code, err := o.Generate("JBSWY3DPEHPK3PXP", at)
	again, _ := o.Generate("JBSWY3DPEHPK3PXP", at)
	step, ok := o.Validate("JBSWY3DPEHPK3PXP", code, at, 0)

	// Assert
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(code) != Digits || code != again {
		t.Fatalf("code = %q / %q, want a stable 6-digit code", code, again)
	}
	if !ok || step != Counter(at) {
		t.Fatalf("Validate = (%d,%v), want (%d,true)", step, ok, Counter(at))
	}
}

func TestTOTP_Validate_Window(t *testing.T) {
	o := NewTOTP("gatepass")
	// 1699999980 is the first second of its step, 1700000009 the last.
	stepStart := time.Unix(1699999980, 0)
	stepEnd := time.Unix(1700000009, 0)

	tests := []struct {
		name   string
		issued time.Time
		offset time.Duration
		window uint
		want   bool
	}{
		{name: "plus 59s", issued: stepEnd, offset: 59 * time.Second, window: 2, want: true},
		{name: "minus 59s", issued: stepStart, offset: -59 * time.Second, window: 2, want: true},
		{name: "plus 61s", issued: stepEnd, offset: 61 * time.Second, window: 2, want: false},
		{name: "minus 61s", issued: stepStart, offset: -61 * time.Second, window: 2, want: false},
		{name: "next step with no window", issued: stepEnd, offset: time.Second, window: 0, want: false},
		{name: "previous step with window one", issued: stepEnd, offset: time.Second, window: 1, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			code, err := o.Generate(rfcSecret, tt.issued)
			if err != nil {
				t.Fatalf("Generate error: %v", err)
			}

			// Act
			_, ok := o.Validate(rfcSecret, code, tt.issued.Add(tt.offset), tt.window)

			// Assert
			if ok != tt.want {
				t.Fatalf("Validate ok = %v, want %v", ok, tt.want)
			}
		})
	}
}

func TestTOTP_Validate_MatchedStep(t *testing.T) {
	// Arrange
	o := NewTOTP("gatepass")
	issued := time.Unix(1700000000, 0)
	code, _ := o.Generate(rfcSecret, issued)

	// Act
	step, ok := o.Validate(rfcSecret, code, issued.Add(2*Period), 2)

	// Assert
	if !ok || step != Counter(issued) {
		t.Fatalf("Validate = (%d,%v), want (%d,true)", step, ok, Counter(issued))
	}
}

func TestTOTP_Validate_Malformed(t *testing.T) {
	o := NewTOTP("gatepass")
	at := time.Unix(1700000000, 0)

	tests := []struct {
		name   string
		secret string
		code   string
	}{
		{name: "lowercase secret", secret: "jbswy3dpehpk3pxp", code: "123456"},
		{name: "padded secret", secret: "JBSWY3DPEHPK3PXP====", code: "123456"},
		{name: "digit outside alphabet", secret: "JBSWY3DPEHPK3PX1", code: "123456"},
		{name: "bad length", secret: "A", code: "123456"},
		{name: "empty secret", secret: "", code: "123456"},
		{name: "short code", secret: rfcSecret, code: "12345"},
		{name: "letters in code", secret: rfcSecret, code: "12a456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			_, ok := o.Validate(tt.secret, tt.code, at, DefaultWindow)

			// Assert
			if ok {
				t.Fatalf("Validate(%q, %q) = ok, want rejection", tt.secret, tt.code)
			}
		})
	}
}

func TestTOTP_NewSecret(t *testing.T) {
	// Arrange
	o := NewTOTP("gatepass")

	// Act
	secret, uri, err := o.NewSecret("Alice")

	// Assert
	if err != nil {
		t.Fatalf("NewSecret error: %v", err)
	}
	if len(secret) != 32 || !ValidSecret(secret) {
		t.Fatalf("secret = %q, want 32 base32 chars", secret)
	}
	u, err := url.Parse(uri)
	if err != nil {
		t.Fatalf("uri parse: %v", err)
	}
	if u.Scheme != "otpauth" || u.Host != "totp" {
		t.Fatalf("uri = %q, want otpauth://totp/...", uri)
	}
	if got := u.Query().Get("secret"); got != secret {
		t.Fatalf("uri secret = %q, want %q", got, secret)
	}
}

func TestTOTP_ProvisioningURI(t *testing.T) {
	// Arrange
	o := NewTOTP("gatepass")

	// Act
	uri, err := o.ProvisioningURI("Bob", rfcSecret)
	_, badErr := o.ProvisioningURI("Bob", "not-base32")

	// Assert
	if err != nil {
		t.Fatalf("ProvisioningURI error: %v", err)
	}
	if !strings.Contains(uri, "secret="+rfcSecret) || !strings.Contains(uri, "issuer=gatepass") {
		t.Fatalf("uri = %q, missing secret or issuer", uri)
	}
	if badErr != ErrInvalidSecret {
		t.Fatalf("bad secret err = %v, want ErrInvalidSecret", badErr)
	}
}

func TestRemaining(t *testing.T) {
	if got := Remaining(time.Unix(1699999980, 0)); got != 30*time.Second {
		t.Fatalf("Remaining at step start = %v, want 30s", got)
	}
	if got := Remaining(time.Unix(1700000009, 0)); got != time.Second {
		t.Fatalf("Remaining at step end = %v, want 1s", got)
	}
}
