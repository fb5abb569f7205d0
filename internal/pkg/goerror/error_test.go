package goerror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "server", err: NewServer(errors.New("db down")), want: http.StatusInternalServerError},
		{name: "unavailable", err: NewUnavailable(errors.New("dial"), "Storage unavailable"), want: http.StatusServiceUnavailable},
		{name: "not found", err: NewBusiness("Credential not found", CodeNotFound), want: http.StatusNotFound},
		{name: "conflict", err: NewBusiness("Holder exists", CodeConflict), want: http.StatusConflict},
		{name: "rate limit", err: NewBusiness("Slow down", CodeTooManyRequest), want: http.StatusTooManyRequests},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "invalid input", err: NewInvalidInput(nil, "name", "required"), want: http.StatusUnprocessableEntity},
		{name: "odd kv", err: NewInvalidInput(nil, "name"), want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gerr, ok := As(tt.err)
			if !ok {
				t.Fatalf("As(%v) = false", tt.err)
			}
			if got := gerr.StatusCode(); got != tt.want {
				t.Fatalf("StatusCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNewServer_KeepsCause(t *testing.T) {
	// Arrange
	cause := errors.New("connection refused")

	// Act
	err := fmt.Errorf("verify: %w", NewServer(cause))

	// Assert
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost from chain")
	}
	gerr, _ := As(err)
	if gerr.Msg() != "Internal server error" {
		t.Fatalf("Msg = %q", gerr.Msg())
	}
	if !IsCode(err, CodeInternal) || IsCode(err, CodeNotFound) {
		t.Fatalf("IsCode mismatch")
	}
}

func TestNewInvalidInput_Fields(t *testing.T) {
	gerr, _ := As(NewInvalidInput(nil, "token", "token is required"))
	if gerr.Fields()["token"] != "token is required" {
		t.Fatalf("fields = %v", gerr.Fields())
	}
}
