// Package models defines the domain records of the household kitchen.
//
// # Entities
//
//   - User: a household member who can log in, add dishes and order them
//   - Dish: an entry in the shared catalog, soft-deleted via IsActive
//   - Order: a cart; the newest open order is the household's current order
//   - OrderItem: one member's customized line on an order
//   - AuditLog: an append-only before/after record of every mutation
//
// # Conventions
//
// Identifiers are database-assigned int64 keys. Relationships are held as IDs,
// never pointers, so a record may reference a user that no longer exists.
// Optional text columns are plain strings where "" means NULL.
//
// Partial updates are expressed as Fields: only keys present in the map are
// applied. Audit snapshots are Snapshot maps whose values are restricted to
// primitives, nested maps and lists so they round-trip through structpb.
package models
