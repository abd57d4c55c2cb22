package testutil

import (
	"database/sql"
	"testing"

	"timetracker/internal/storage"
)

// NewTestDB creates an in-memory SQLite database with the schema applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}
