package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
)

const orderItemColumns = `i.id, i.order_id, i.dish_id, i.user_id, i.taste, i.preferred_time, i.location,
	i.ingredients, i.remarks, i.status, i.custom_data, i.created_at, i.updated_at`

func scanOrderItem(row rowScanner, extra ...any) (*models.OrderItem, error) {
	item := &models.OrderItem{}
	var userID sql.NullInt64
	var taste, preferredTime, location, ingredients, remarks, customData sql.NullString
	var status string
	var createdAt, updatedAt int64

	dest := []any{&item.ID, &item.OrderID, &item.DishID, &userID, &taste, &preferredTime,
		&location, &ingredients, &remarks, &status, &customData, &createdAt, &updatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}

	item.UserID = userID.Int64
	item.Taste = taste.String
	item.PreferredTime = preferredTime.String
	item.Location = location.String
	item.Ingredients = ingredients.String
	item.Remarks = remarks.String
	item.Status = models.ItemStatus(status)
	item.CreatedAt = fromUnix(createdAt)
	item.UpdatedAt = fromUnix(updatedAt)

	if customData.Valid && customData.String != "" {
		item.CustomData = &structpb.Struct{}
		if err := protojson.Unmarshal([]byte(customData.String), item.CustomData); err != nil {
			return nil, fmt.Errorf("failed to decode custom data of item %d: %w", item.ID, err)
		}
	}
	return item, nil
}

func encodeCustomData(data *structpb.Struct) (any, error) {
	if data == nil || len(data.GetFields()) == 0 {
		return nil, nil
	}
	b, err := protojson.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode custom data: %w", err)
	}
	return string(b), nil
}

// GetOrderItem retrieves an order item by ID.
func (q *queries) GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error) {
	item, err := scanOrderItem(q.q.QueryRowContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items i WHERE i.id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order item %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order item: %w", err)
	}
	return item, nil
}

// ListOrderItems retrieves the items of an order in creation order.
func (q *queries) ListOrderItems(ctx context.Context, orderID int64) ([]*models.OrderItem, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items i
		 WHERE i.order_id = ? ORDER BY i.created_at, i.id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	var items []*models.OrderItem
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order items: %w", err)
	}
	return items, nil
}

// ListOrderLines retrieves the items of an order with dish and member names.
func (q *queries) ListOrderLines(ctx context.Context, orderID int64) ([]*models.OrderLine, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+orderItemColumns+`, COALESCE(d.name, ''), COALESCE(u.name, '')
		 FROM order_items i
		 LEFT JOIN dishes d ON d.id = i.dish_id
		 LEFT JOIN users u ON u.id = i.user_id
		 WHERE i.order_id = ? ORDER BY i.created_at, i.id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.OrderLine
	for rows.Next() {
		line := &models.OrderLine{}
		item, err := scanOrderItem(rows, &line.DishName, &line.UserName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		line.OrderItem = *item
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate order lines: %w", err)
	}
	return lines, nil
}

// LastOrderItem retrieves the newest item a user placed for a dish.
func (q *queries) LastOrderItem(ctx context.Context, userID, dishID int64) (*models.OrderItem, error) {
	item, err := scanOrderItem(q.q.QueryRowContext(ctx,
		`SELECT `+orderItemColumns+` FROM order_items i
		 WHERE i.user_id = ? AND i.dish_id = ?
		 ORDER BY i.created_at DESC, i.id DESC LIMIT 1`,
		userID, dishID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order item for user %d dish %d: %w", userID, dishID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last order item: %w", err)
	}
	return item, nil
}

// InsertOrderItem persists a new order item. An empty status defaults to pending.
func (t *sqliteTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	if item.Status == "" {
		item.Status = models.ItemPending
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = fromUnix(t.timestamp())
	}
	item.UpdatedAt = item.CreatedAt

	customData, err := encodeCustomData(item.CustomData)
	if err != nil {
		return err
	}

	res, err := t.q.ExecContext(ctx,
		`INSERT INTO order_items (order_id, dish_id, user_id, taste, preferred_time, location,
			ingredients, remarks, status, custom_data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.OrderID, item.DishID, item.UserID,
		nullString(item.Taste), nullString(item.PreferredTime), nullString(item.Location),
		nullString(item.Ingredients), nullString(item.Remarks),
		string(item.Status), customData, toUnix(item.CreatedAt), toUnix(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read order item ID: %w", err)
	}
	item.ID = id
	return nil
}

// UpdateOrderItem writes the customization and status columns of an item.
func (t *sqliteTx) UpdateOrderItem(ctx context.Context, item *models.OrderItem) error {
	item.UpdatedAt = fromUnix(t.timestamp())

	customData, err := encodeCustomData(item.CustomData)
	if err != nil {
		return err
	}

	res, err := t.q.ExecContext(ctx,
		`UPDATE order_items
		 SET taste = ?, preferred_time = ?, location = ?, ingredients = ?, remarks = ?,
		     status = ?, custom_data = ?, updated_at = ?
		 WHERE id = ?`,
		nullString(item.Taste), nullString(item.PreferredTime), nullString(item.Location),
		nullString(item.Ingredients), nullString(item.Remarks),
		string(item.Status), customData, toUnix(item.UpdatedAt), item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update order item: %w", err)
	}
	return checkAffected(res, "order item", item.ID)
}

// DeleteOrderItem removes a single order item.
func (t *sqliteTx) DeleteOrderItem(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM order_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete order item: %w", err)
	}
	return checkAffected(res, "order item", id)
}
