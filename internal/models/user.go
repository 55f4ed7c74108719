package models

import "time"

// User represents a household member account.
type User struct {
	// ID is the database-assigned identifier.
	ID int64

	// Name is the unique display name used to log in.
	Name string

	// PasswordHash is the bcrypt hash of the member's password.
	// Plaintext passwords are never stored or logged.
	PasswordHash string

	// BackgroundImage is an optional reference to an uploaded image
	// (e.g. "/static/uploads/<uuid>.jpg"). Empty means none.
	BackgroundImage string

	// CreatedAt is when the account was created.
	CreatedAt time.Time
}
