package auth

import (
	"context"

	"github.com/mmynk/homekitchen/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the web or service layer code.
type Authenticator interface {
	// Authenticate verifies the member's credentials and returns the member if successful.
	// Any failure is reported as ErrInvalidCredentials so callers cannot tell
	// an unknown name from a wrong password.
	Authenticate(ctx context.Context, name, credential string) (*models.User, error)
}

// Hasher turns plaintext credentials into stored hashes and checks them.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) bool
}
