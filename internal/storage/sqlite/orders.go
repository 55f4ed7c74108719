package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
)

const orderColumns = `id, status, created_by, created_at, updated_at`

func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var createdBy sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&order.ID, &order.Status, &createdBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	order.CreatedBy = createdBy.Int64
	order.CreatedAt = fromUnix(createdAt)
	order.UpdatedAt = fromUnix(updatedAt)
	return order, nil
}

// GetOrder retrieves an order by ID.
func (q *queries) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	order, err := scanOrder(q.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// CurrentOrder retrieves the most recently created open order.
func (q *queries) CurrentOrder(ctx context.Context) (*models.Order, error) {
	order, err := scanOrder(q.q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = ?
		 ORDER BY created_at DESC, id DESC LIMIT 1`,
		models.OrderStatusOpen,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("current order: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get current order: %w", err)
	}
	return order, nil
}

// ListOrders retrieves all orders, newest first.
func (q *queries) ListOrders(ctx context.Context) ([]*models.Order, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate orders: %w", err)
	}
	return orders, nil
}

// InsertOrder persists a new order. An empty status defaults to "open".
func (t *sqliteTx) InsertOrder(ctx context.Context, order *models.Order) error {
	if order.Status == "" {
		order.Status = models.OrderStatusOpen
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = fromUnix(t.timestamp())
	}
	order.UpdatedAt = order.CreatedAt

	res, err := t.q.ExecContext(ctx,
		`INSERT INTO orders (status, created_by, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		order.Status, order.CreatedBy, toUnix(order.CreatedAt), toUnix(order.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read order ID: %w", err)
	}
	order.ID = id
	return nil
}

// UpdateOrder writes the order status and bumps updated_at.
func (t *sqliteTx) UpdateOrder(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = fromUnix(t.timestamp())

	res, err := t.q.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		order.Status, toUnix(order.UpdatedAt), order.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return checkAffected(res, "order", order.ID)
}

// DeleteOrder removes an order together with all of its items.
func (t *sqliteTx) DeleteOrder(ctx context.Context, id int64) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete order items: %w", err)
	}

	res, err := t.q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return checkAffected(res, "order", id)
}
