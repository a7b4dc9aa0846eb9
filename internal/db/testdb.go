package db

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
)

// NewTestDB creates a fresh in-memory SQLite database with migrations applied.
func NewTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewTestFileDB creates a migrated database file in a temporary directory.
// Unlike NewTestDB it allows several pooled connections.
func NewTestFileDB(t *testing.T) *sqlx.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), "drazba.sqlite3"))
}

func openTestDB(t *testing.T, path string) *sqlx.DB {
	t.Helper()

	db, err := Open(path)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}
