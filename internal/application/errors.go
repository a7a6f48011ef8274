package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when a session token is missing, invalid or expired.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested user or record does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrMalformedRecord is returned when a stored document cannot be interpreted.
	ErrMalformedRecord = errors.New("application: malformed record")
	// ErrConflict is returned when a guarded update keeps losing to concurrent writers.
	ErrConflict = errors.New("application: conflicting update")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v.FieldErrors[field])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// requireNonBlank records an error for every named value that is blank.
func (v *ValidationError) requireNonBlank(pairs ...string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			v.add(pairs[i], "is required")
		}
	}
}

// errOrNil returns v as an error only when it holds issues.
func (v *ValidationError) errOrNil() error {
	if v.HasErrors() {
		return v
	}
	return nil
}
