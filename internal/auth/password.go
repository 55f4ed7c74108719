package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("login failed")
	ErrEmptyPassword      = errors.New("password must not be empty")
)

// Bcrypt implements Hasher with bcrypt.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a bcrypt hasher. A zero cost selects bcrypt.DefaultCost.
func NewBcrypt(cost int) *Bcrypt {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

// Hash returns the bcrypt hash of plain.
func (b *Bcrypt) Hash(plain string) (string, error) {
	if plain == "" {
		return "", ErrEmptyPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(h), nil
}

// Compare reports whether plain matches hash.
func (b *Bcrypt) Compare(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// UserStorage defines the lookup the authenticator needs.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	GetUserByName(ctx context.Context, name string) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication.
type PasswordAuthenticator struct {
	storage UserStorage
	hasher  Hasher
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage, hasher Hasher) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		hasher:  hasher,
	}
}

// Authenticate verifies the name and password, returning the member if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, name, credential string) (*models.User, error) {
	if name == "" || credential == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := a.storage.GetUserByName(ctx, name)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !a.hasher.Compare(user.PasswordHash, credential) {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
