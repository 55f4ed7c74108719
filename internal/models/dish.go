package models

import "time"

// Dish is an entry in the shared dish catalog.
//
// Dishes are never removed from storage. Deleting a dish clears IsActive so
// order items and audit logs that reference it keep resolving to a name.
type Dish struct {
	ID          int64
	Name        string
	Description string
	ImageURL    string

	// CreatedBy is the ID of the member who added the dish. The member may
	// have been deleted since.
	CreatedBy int64

	// IsActive is false once the dish has been deleted. There is no way back.
	IsActive bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
