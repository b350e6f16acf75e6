package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "error with cause",
			err: Wrap(KindStorage, "token.get", "failed to load refresh token",
				errors.New("connection refused")),
			contains: []string{"[storage:token.get]", "failed to load refresh token", "connection refused"},
		},
		{
			name:     "error without cause",
			err:      New(KindAuth, "login", "invalid username or password"),
			contains: []string{"[auth:login]", "invalid username or password"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errStr := tt.err.Error()
			for _, substr := range tt.contains {
				if !strings.Contains(errStr, substr) {
					t.Errorf("error string %q does not contain %q", errStr, substr)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(KindConfig, "test", "wrapped", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Error("Unwrap should return the original error")
	}
}

func TestWrap_PreservesTypedError(t *testing.T) {
	inner := New(KindConflict, "register", "username already exists")
	outer := Wrap(KindStorage, "register", "credential insert failed", inner)

	if outer != inner {
		t.Error("Wrap should return an already-typed error unchanged")
	}
	if !IsKind(outer, KindConflict) {
		t.Error("wrapped typed error should keep its original kind")
	}
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{
			name:     "direct error kind match",
			err:      New(KindAuth, "refresh", "invalid refresh token"),
			kind:     KindAuth,
			expected: true,
		},
		{
			name:     "wrapped error kind match",
			err:      Wrap(KindStorage, "token.store", "store failed", errors.New("cause")),
			kind:     KindStorage,
			expected: true,
		},
		{
			name:     "error kind mismatch",
			err:      New(KindAuth, "refresh", "invalid refresh token"),
			kind:     KindConflict,
			expected: false,
		},
		{
			name:     "non-typed error",
			err:      errors.New("plain error"),
			kind:     KindAuth,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsKind(tt.err, tt.kind)
			if result != tt.expected {
				t.Errorf("IsKind() = %v, expected %v", result, tt.expected)
			}
		})
	}
}
