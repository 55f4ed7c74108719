package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
)

const userColumns = `id, name, password, background_image, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var background sql.NullString
	var createdAt int64
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.PasswordHash,
		&background,
		&createdAt,
	); err != nil {
		return nil, err
	}
	user.BackgroundImage = background.String
	user.CreatedAt = fromUnix(createdAt)
	return user, nil
}

// GetUser retrieves a user by their ID.
func (q *queries) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := scanUser(q.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return user, nil
}

// GetUserByName retrieves a user by their unique display name.
func (q *queries) GetUserByName(ctx context.Context, name string) (*models.User, error) {
	user, err := scanUser(q.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE name = ?`, name,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", name, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by name: %w", err)
	}
	return user, nil
}

// ListUsers retrieves all users in ID order.
func (q *queries) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := q.q.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// InsertUser inserts a new user into the database.
func (t *sqliteTx) InsertUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = fromUnix(t.timestamp())
	}

	res, err := t.q.ExecContext(ctx,
		`INSERT INTO users (name, password, background_image, created_at) VALUES (?, ?, ?, ?)`,
		user.Name,
		user.PasswordHash,
		nullString(user.BackgroundImage),
		toUnix(user.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user ID: %w", err)
	}
	user.ID = id
	return nil
}

// UpdateUser writes the mutable columns of an existing user.
func (t *sqliteTx) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := t.q.ExecContext(ctx,
		`UPDATE users SET name = ?, password = ?, background_image = ? WHERE id = ?`,
		user.Name, user.PasswordHash, nullString(user.BackgroundImage), user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return checkAffected(res, "user", user.ID)
}

// DeleteUser removes a user. Rows referencing the user are left in place.
func (t *sqliteTx) DeleteUser(ctx context.Context, id int64) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffected(res, "user", id)
}
