package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
)

const dishColumns = `id, name, description, image_url, created_by, is_active, created_at, updated_at`

func scanDish(row rowScanner) (*models.Dish, error) {
	dish := &models.Dish{}
	var description, imageURL sql.NullString
	var createdBy sql.NullInt64
	var createdAt, updatedAt int64
	if err := row.Scan(&dish.ID, &dish.Name, &description, &imageURL, &createdBy,
		&dish.IsActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	dish.Description = description.String
	dish.ImageURL = imageURL.String
	dish.CreatedBy = createdBy.Int64
	dish.CreatedAt = fromUnix(createdAt)
	dish.UpdatedAt = fromUnix(updatedAt)
	return dish, nil
}

// GetDish retrieves a dish by ID whether or not it is active.
func (q *queries) GetDish(ctx context.Context, id int64) (*models.Dish, error) {
	dish, err := scanDish(q.q.QueryRowContext(ctx,
		`SELECT `+dishColumns+` FROM dishes WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dish %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dish: %w", err)
	}
	return dish, nil
}

// ActiveDishes retrieves every dish that has not been deleted, in insertion order.
func (q *queries) ActiveDishes(ctx context.Context) ([]*models.Dish, error) {
	rows, err := q.q.QueryContext(ctx,
		`SELECT `+dishColumns+` FROM dishes WHERE is_active = 1 ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	defer rows.Close()

	var dishes []*models.Dish
	for rows.Next() {
		dish, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		dishes = append(dishes, dish)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dishes: %w", err)
	}
	return dishes, nil
}

// InsertDish persists a new dish. New dishes are always active.
func (t *sqliteTx) InsertDish(ctx context.Context, dish *models.Dish) error {
	now := fromUnix(t.timestamp())
	if dish.CreatedAt.IsZero() {
		dish.CreatedAt = now
	}
	dish.UpdatedAt = dish.CreatedAt
	dish.IsActive = true

	res, err := t.q.ExecContext(ctx,
		`INSERT INTO dishes (name, description, image_url, created_by, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 1, ?, ?)`,
		dish.Name, nullString(dish.Description), nullString(dish.ImageURL), dish.CreatedBy,
		toUnix(dish.CreatedAt), toUnix(dish.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert dish: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read dish ID: %w", err)
	}
	dish.ID = id
	return nil
}

// UpdateDish writes the mutable columns of a dish and bumps updated_at.
// is_active can only be cleared, never set again.
func (t *sqliteTx) UpdateDish(ctx context.Context, dish *models.Dish) error {
	dish.UpdatedAt = fromUnix(t.timestamp())

	res, err := t.q.ExecContext(ctx,
		`UPDATE dishes
		 SET name = ?, description = ?, image_url = ?, is_active = is_active AND ?, updated_at = ?
		 WHERE id = ?`,
		dish.Name, nullString(dish.Description), nullString(dish.ImageURL), dish.IsActive,
		toUnix(dish.UpdatedAt), dish.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dish: %w", err)
	}
	return checkAffected(res, "dish", dish.ID)
}
