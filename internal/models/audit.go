package models

import "time"

// AuditLog is an immutable record of one mutation. It is written in the same
// transaction as the change it describes and never updated or deleted.
type AuditLog struct {
	ID int64

	// UserID is the actor. The member may have been deleted since.
	UserID int64

	// Action is the human-readable description, e.g. `created dish "Mapo Tofu"`.
	Action string

	// TableName and RecordID identify the affected row.
	TableName string
	RecordID  int64

	// OldValues is nil for creations; NewValues is nil for hard deletions.
	OldValues Snapshot
	NewValues Snapshot

	Timestamp time.Time
}
