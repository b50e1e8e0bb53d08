package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/kjannette/tradejournal/internal/db"
	"github.com/kjannette/tradejournal/internal/models"
)

// SetupDB returns a migrated database for tests. It uses Postgres when
// TEST_DATABASE_URL is set and a throwaway SQLite file otherwise.
func SetupDB(t *testing.T) *sqlx.DB {
	t.Helper()

	_ = godotenv.Load("../../.env")

	driver, dsn := "sqlite", filepath.Join(t.TempDir(), "journal_test.db")
	if url := os.Getenv("TEST_DATABASE_URL"); url != "" {
		driver, dsn = "postgres", url
	}

	d, err := db.Connect(driver, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// CreateUser inserts a user directly, bypassing password hashing.
func CreateUser(t *testing.T, d *sqlx.DB, email string) *models.User {
	t.Helper()

	var id int64
	err := d.QueryRowxContext(context.Background(), d.Rebind(
		`INSERT INTO users (name, email, hashed_password, created_at)
		 VALUES (?, ?, 'x', CURRENT_TIMESTAMP) RETURNING id`), "Test User", email).Scan(&id)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &models.User{ID: id, Name: "Test User", Email: email}
}

func Ptr[T any](v T) *T { return &v }
