package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"propreviews/internal/models"
)

const imageColumns = `id, property_id, url, storage_key, position, created_at`

// ListPropertyImages returns a property's images in upload order.
func (d *DB) ListPropertyImages(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyImage, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+imageColumns+` FROM property_images
		WHERE property_id = $1
		ORDER BY position ASC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.PropertyImage
	for rows.Next() {
		var img models.PropertyImage
		if err := rows.Scan(&img.ID, &img.PropertyID, &img.URL, &img.StorageKey, &img.Position, &img.CreatedAt); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

// PutFunc stores an image blob and returns its public URL and storage key.
type PutFunc func(ctx context.Context, position int) (url, key string, err error)

// AttachImage adds an image to a property while holding the property row
// lock, so concurrent uploads cannot push the count past limit. put is
// called only once the count check has passed; if put succeeds but the
// insert fails, the caller is responsible for removing the blob.
func (d *DB) AttachImage(ctx context.Context, propertyID uuid.UUID, limit int, put PutFunc) (*models.PropertyImage, error) {
	tx, err := d.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var locked uuid.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM properties WHERE id = $1 FOR UPDATE`, propertyID).Scan(&locked)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock property: %w", err)
	}

	var count, nextPosition int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(MAX(position) + 1, 0)
		FROM property_images WHERE property_id = $1
	`, propertyID).Scan(&count, &nextPosition)
	if err != nil {
		return nil, fmt.Errorf("failed to count images: %w", err)
	}
	if count >= limit {
		return nil, ErrTooManyImages
	}

	url, key, err := put(ctx, nextPosition)
	if err != nil {
		return nil, err
	}

	img := models.PropertyImage{PropertyID: propertyID, URL: url, StorageKey: key, Position: nextPosition}
	err = tx.QueryRow(ctx, `
		INSERT INTO property_images (property_id, url, storage_key, position)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, propertyID, url, key, nextPosition).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert image: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit image: %w", err)
	}
	return &img, nil
}
