package config

import (
	"reflect"
	"testing"
	"time"
)

func TestNewViperFromBytes(t *testing.T) {
	// Arrange
	data := []byte(`
app:
  name: gatepass
terminal:
  min_interval_ms: 1000
  lockdown_minutes: 5
  keys: "lobby:k1, garage : k2 ,broken,"
  ids: "lobby,,garage"
jwt:
  secret: c2VjcmV0
`)

	// Act
	cfg, err := NewViperFromBytes("yaml", data)

	// Assert
	if err != nil {
		t.Fatalf("NewViperFromBytes error: %v", err)
	}
	if got := cfg.GetString("app.name"); got != "gatepass" {
		t.Fatalf("app.name = %q", got)
	}
	if got := cfg.GetMillisecond("terminal.min_interval_ms"); got != time.Second {
		t.Fatalf("min_interval_ms = %v, want 1s", got)
	}
	if got := cfg.GetMinute("terminal.lockdown_minutes"); got != 5*time.Minute {
		t.Fatalf("lockdown_minutes = %v, want 5m", got)
	}
	if got, want := cfg.GetMap("terminal.keys"), map[string]string{"lobby": "k1", "garage": "k2"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	if got, want := cfg.GetArray("terminal.ids"), []string{"lobby", "garage"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want %v", got, want)
	}
	if got := string(cfg.GetBinary("jwt.secret")); got != "secret" {
		t.Fatalf("jwt.secret = %q", got)
	}
	if got := cfg.GetArray("missing"); len(got) != 0 {
		t.Fatalf("missing array = %v, want empty", got)
	}
}

func TestNewViperFromBytes_EnvOverride(t *testing.T) {
	// Arrange
	t.Setenv("DOOR_API_KEY", "from-env")

	// Act
	cfg, err := NewViperFromBytes("yaml", []byte("door:\n  api_key: from-file\n"))

	// Assert
	if err != nil {
		t.Fatalf("NewViperFromBytes error: %v", err)
	}
	if got := cfg.GetString("door.api_key"); got != "from-env" {
		t.Fatalf("door.api_key = %q, want from-env", got)
	}
}

func TestNewViperFromBytes_NoType(t *testing.T) {
	if _, err := NewViperFromBytes(" ", nil); err != ErrConfigType {
		t.Fatalf("err = %v, want ErrConfigType", err)
	}
}
