package tuyaerr

import (
	"errors"
	"testing"
)

func TestIsMatchesWrappedKind(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(Connect, "session.open", "tcp dial failed", cause)

	if !Is(err, Connect) {
		t.Error("Is(err, Connect) = false, want true")
	}
	if Is(err, Timeout) {
		t.Error("Is(err, Timeout) = true, want false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through Unwrap to the cause")
	}
}

func TestNewHasNoCause(t *testing.T) {
	err := New(Configuration, "device.validate", "local key must be 16 bytes")
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
	if err.Error() == "" {
		t.Error("Error() returned empty string")
	}
}

func TestKindStringCoversAllValues(t *testing.T) {
	kinds := []Kind{Configuration, Connect, Frame, Trailer, Crypto, Negotiation, Decode, Timeout}
	seen := map[string]bool{}
	for _, k := range kinds {
		s := k.String()
		if s == "unknown" || s == "" {
			t.Errorf("Kind(%d).String() = %q", k, s)
		}
		if seen[s] {
			t.Errorf("duplicate Kind string %q", s)
		}
		seen[s] = true
	}
}
