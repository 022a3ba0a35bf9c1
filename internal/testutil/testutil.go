// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"propreviews/internal/db"
	"propreviews/internal/models"
)

// TestDB creates a test database connection and returns a cleanup function.
// Uses TEST_DATABASE_URL and skips the test when it is unset.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("Skipping integration test: TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	cleanupTestData(ctx, database.Pool)

	cleanup := func() {
		cleanupTestData(ctx, database.Pool)
		database.Close()
	}

	return database, cleanup
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, pool *pgxpool.Pool) {
	// Delete in order to respect foreign keys
	pool.Exec(ctx, "DELETE FROM review_reports")
	pool.Exec(ctx, "DELETE FROM reviews")
	pool.Exec(ctx, "DELETE FROM property_images")
	pool.Exec(ctx, "DELETE FROM properties")
	pool.Exec(ctx, "DELETE FROM users")
}

// CreateTestUser creates a test user with the given role.
func CreateTestUser(t *testing.T, database *db.DB, sub, role string) *models.User {
	t.Helper()

	user := &models.User{
		Sub:   sub,
		Email: sub + "@example.com",
		Name:  fmt.Sprintf("Test User %s", sub),
		Role:  role,
	}
	if err := database.UpsertUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestProperty creates an apartment at the given street address.
func CreateTestProperty(t *testing.T, database *db.DB, address string) *models.Property {
	t.Helper()

	property := &models.Property{
		Address:      address,
		City:         "Springfield",
		State:        "IL",
		Zip:          "62701",
		PropertyType: models.PropertyApartment,
	}
	if err := database.CreateProperty(context.Background(), property); err != nil {
		t.Fatalf("failed to create test property: %v", err)
	}
	return property
}
