package validate

import (
	"errors"
	"testing"
)

func TestHandle(t *testing.T) {
	tests := []struct {
		name    string
		handle  string
		wantErr error
	}{
		{"valid simple", "alice", nil},
		{"valid with underscore", "alice_b", nil},
		{"valid with digits", "alice99", nil},
		{"valid mixed case", "AliceB", nil},
		{"minimum length", "abc", nil},
		{"maximum length", "abcdefghijklmno", nil}, // 15 chars
		{"too short", "ab", ErrHandleTooShort},
		{"empty", "", ErrHandleTooShort},
		{"too long", "abcdefghijklmnop", ErrHandleTooLong}, // 16 chars
		{"contains dash", "alice-b", ErrHandleBadCharset},
		{"contains space", "alice b", ErrHandleBadCharset},
		{"contains at sign", "@alice", ErrHandleBadCharset},
		{"contains unicode", "alicé", ErrHandleBadCharset},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Handle(tt.handle)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Handle(%q) = %v, want %v", tt.handle, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeHandle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice", "alice"},
		{"ALICE_99", "alice_99"},
		{"  bob  ", "bob"},
		{"carol", "carol"},
	}

	for _, tt := range tests {
		if got := NormalizeHandle(tt.in); got != tt.want {
			t.Errorf("NormalizeHandle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsHandleError(t *testing.T) {
	if !IsHandleError(ErrHandleTooShort) {
		t.Error("expected ErrHandleTooShort to be a handle error")
	}
	if IsHandleError(errors.New("database down")) {
		t.Error("unrelated error should not be a handle error")
	}
}
