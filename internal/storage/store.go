// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/homekitchen/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// Queries are the read operations available both on a Store and inside a Tx.
type Queries interface {
	// GetUser returns ErrNotFound if no user has the given ID.
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// GetUserByName returns ErrNotFound if no user has the given name.
	GetUserByName(ctx context.Context, name string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)

	// GetDish returns active and inactive dishes alike.
	GetDish(ctx context.Context, id int64) (*models.Dish, error)
	// ActiveDishes returns dishes with is_active set, in insertion order.
	ActiveDishes(ctx context.Context) ([]*models.Dish, error)

	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	// CurrentOrder returns the newest order with status "open", or
	// ErrNotFound when there is none. Ties on created_at go to the higher ID.
	CurrentOrder(ctx context.Context) (*models.Order, error)
	// ListOrders returns all orders, newest first.
	ListOrders(ctx context.Context) ([]*models.Order, error)

	GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error)
	// ListOrderItems returns the items of an order in creation order.
	ListOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error)
	// ListOrderLines is ListOrderItems joined with dish and user names.
	ListOrderLines(ctx context.Context, orderID int64) ([]*models.OrderLine, error)
	// LastOrderItem returns the newest item the user placed for the dish, or
	// ErrNotFound. Ties on created_at go to the higher ID.
	LastOrderItem(ctx context.Context, userID, dishID int64) (*models.OrderItem, error)

	// ListAuditLogs returns all audit logs, newest first.
	ListAuditLogs(ctx context.Context) ([]*models.AuditLog, error)
}

// Tx is a unit of work. Writes made through a Tx become visible only when the
// function passed to Store.WithTx returns nil.
type Tx interface {
	Queries

	// Insert* assign ID and default timestamps on the passed record.
	InsertUser(ctx context.Context, u *models.User) error
	InsertDish(ctx context.Context, d *models.Dish) error
	InsertOrder(ctx context.Context, o *models.Order) error
	InsertOrderItem(ctx context.Context, i *models.OrderItem) error
	InsertAuditLog(ctx context.Context, l *models.AuditLog) error

	// Update* write every mutable column and refresh UpdatedAt where the
	// table has one. They return ErrNotFound if the row is gone.
	UpdateUser(ctx context.Context, u *models.User) error
	UpdateDish(ctx context.Context, d *models.Dish) error
	UpdateOrder(ctx context.Context, o *models.Order) error
	UpdateOrderItem(ctx context.Context, i *models.OrderItem) error

	// Delete* physically remove a row. DeleteOrder removes the order's items
	// first. They return ErrNotFound if the row is gone.
	DeleteUser(ctx context.Context, id int64) error
	DeleteOrder(ctx context.Context, id int64) error
	DeleteOrderItem(ctx context.Context, id int64) error
}

// Store defines the interface for kitchen storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	Queries

	// WithTx runs fn in a transaction, committing if fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any resources held by the store.
	Close() error
}
