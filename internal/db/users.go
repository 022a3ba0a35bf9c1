package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"propreviews/internal/models"
)

const userColumns = `id, sub, email, name, picture, role, suspended, suspended_at, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Sub,
		&user.Email,
		&user.Name,
		&user.Picture,
		&user.Role,
		&user.Suspended,
		&user.SuspendedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser creates or updates a user based on their OIDC subject.
// Role is only applied when non-empty so an unconfigured admin claim never
// demotes an existing admin.
func (d *DB) UpsertUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (sub, email, name, picture, role)
		VALUES ($1, $2, $3, $4, COALESCE($5, 'user'))
		ON CONFLICT (sub) DO UPDATE SET
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			picture = EXCLUDED.picture,
			role = COALESCE($5, users.role),
			updated_at = NOW()
		RETURNING ` + userColumns

	u, err := scanUser(d.Pool.QueryRow(ctx, query,
		user.Sub,
		user.Email,
		user.Name,
		user.Picture,
		nullIfEmpty(user.Role),
	))
	if err != nil {
		return err
	}
	*user = *u
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// GetUserBySub retrieves a user by their OIDC subject identifier.
func (d *DB) GetUserBySub(ctx context.Context, sub string) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE sub = $1`, sub))
}

// GetUserByID retrieves a user by their UUID.
func (d *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(d.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// SetUserSuspended suspends or reinstates a user. Suspended users' reviews
// drop out of public listings and aggregates.
func (d *DB) SetUserSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	query := `
		UPDATE users
		SET suspended = $1,
			suspended_at = CASE WHEN $1 THEN NOW() ELSE NULL END,
			updated_at = NOW()
		WHERE id = $2
	`
	result, err := d.Pool.Exec(ctx, query, suspended, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// GetAdminEmails returns email addresses of active admins.
func (d *DB) GetAdminEmails(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT email FROM users
		WHERE email != '' AND role = 'admin' AND NOT suspended
	`

	rows, err := d.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}

	return emails, rows.Err()
}

// ListUsers returns all users, admins first, then by name.
func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY (role = 'admin') DESC, name ASC, email ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
