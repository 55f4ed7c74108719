package kitchen

import (
	"errors"
	"fmt"

	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/storage"
)

var (
	// ErrNotFound is returned when a referenced ID does not resolve to a row.
	ErrNotFound = storage.ErrNotFound
	// ErrAuthentication is returned for any login failure.
	ErrAuthentication = auth.ErrInvalidCredentials
)

// ValidationError reports missing or malformed input. It is always returned
// before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
