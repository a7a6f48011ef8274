package application

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"Username": "is required", "Password": "is required"}}
	if got := withFields.Error(); got != "validation failed: Password: is required; Username: is required" {
		t.Fatalf("unexpected message for populated error: %q", got)
	}
}

func TestValidationError_RequireNonBlank(t *testing.T) {
	t.Parallel()

	v := &ValidationError{}
	v.requireNonBlank("Username", "alice", "Password", "  ")
	if !v.HasErrors() {
		t.Fatalf("expected blank password to be reported")
	}
	if _, ok := v.FieldErrors["Username"]; ok {
		t.Fatalf("did not expect username to be reported")
	}

	var target *ValidationError
	if !errors.As(v.errOrNil(), &target) {
		t.Fatalf("expected errOrNil to return the validation error")
	}
	if (&ValidationError{}).errOrNil() != nil {
		t.Fatalf("expected nil for empty validation error")
	}
}
