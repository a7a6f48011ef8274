package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrInvalidCollection is returned when a collection has an empty database or name.
	ErrInvalidCollection = errors.New("persistence: invalid collection")
)

// ValidateCollection rejects collections with missing components.
func ValidateCollection(c Collection) error {
	if c.Database == "" || c.Name == "" {
		return ErrInvalidCollection
	}
	return nil
}
