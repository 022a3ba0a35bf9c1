package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"propreviews/internal/models"
)

const (
	// DefaultSearchLimit applies when the caller passes no limit.
	DefaultSearchLimit = 50
	// MaxSearchLimit caps search result size.
	MaxSearchLimit = 200
)

const propertyColumns = `id, address, city, state, zip, property_type, description, created_by, created_at, updated_at`

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.Address,
		&p.City,
		&p.State,
		&p.Zip,
		&p.PropertyType,
		&p.Description,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanProperties(rows pgx.Rows) ([]models.Property, error) {
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *p)
	}
	return properties, rows.Err()
}

// CreateProperty inserts a property and fills in its generated fields.
func (d *DB) CreateProperty(ctx context.Context, p *models.Property) error {
	query := `
		INSERT INTO properties (address, city, state, zip, property_type, description, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	return d.Pool.QueryRow(ctx, query,
		p.Address,
		p.City,
		p.State,
		p.Zip,
		p.PropertyType,
		p.Description,
		p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// GetPropertyByID retrieves a property with its images in upload order.
func (d *DB) GetPropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	p, err := scanProperty(d.Pool.QueryRow(ctx, `SELECT `+propertyColumns+` FROM properties WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	images, err := d.ListPropertyImages(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Images = images
	return p, nil
}

// SearchProperties returns properties where query is a case-insensitive
// substring of the address, city, state or zip. A blank query matches every
// property. Results are newest first, ties broken by id.
func (d *DB) SearchProperties(ctx context.Context, query, propertyType string, limit int) ([]models.Property, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}

	q := `
		SELECT ` + propertyColumns + `
		FROM properties
		WHERE ($1 = ''
			OR address ILIKE '%' || $1 || '%'
			OR city ILIKE '%' || $1 || '%'
			OR state ILIKE '%' || $1 || '%'
			OR zip ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR property_type = $2)
		ORDER BY created_at DESC, id ASC
		LIMIT $3
	`

	rows, err := d.Pool.Query(ctx, q, escapeLike(strings.TrimSpace(query)), propertyType, limit)
	if err != nil {
		return nil, err
	}
	properties, err := scanProperties(rows)
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []models.Property{}
	}
	return properties, nil
}

// escapeLike escapes LIKE wildcards so user input only matches literally.
// Postgres uses backslash as the default LIKE escape character.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
