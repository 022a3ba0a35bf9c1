package db

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"propreviews/migrations"
)

// DB wraps a pgxpool connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, connString string) (*DB, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// RunMigrations runs all embedded SQL migrations.
func (d *DB) RunMigrations(connString string) error {
	sourceDriver, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, connString)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Ping checks the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.Pool.Ping(ctx)
}

// Close closes the connection pool.
func (d *DB) Close() {
	d.Pool.Close()
}

// SeedDevProperties inserts sample properties for development when the
// table is empty.
func (d *DB) SeedDevProperties(ctx context.Context) error {
	var count int
	if err := d.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM properties`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count properties: %w", err)
	}
	if count > 0 {
		return nil
	}

	properties := []struct {
		address, city, state, zip, propertyType string
	}{
		{"123 Main St", "Springfield", "IL", "62701", "apartment"},
		{"9 Harbor View Rd", "Mainville", "OH", "45039", "house"},
		{"456 Oak Ave", "Springfield", "IL", "62704", "condo"},
	}

	query := `
		INSERT INTO properties (address, city, state, zip, property_type)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, p := range properties {
		if _, err := d.Pool.Exec(ctx, query, p.address, p.city, p.state, p.zip, p.propertyType); err != nil {
			return fmt.Errorf("failed to seed property %s: %w", p.address, err)
		}
	}

	return nil
}
