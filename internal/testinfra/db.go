// Package testinfra provides throwaway databases for package tests.
package testinfra

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/parking-lot-reservation/internal/database"
)

// NewDB opens a file-backed SQLite database in t.TempDir(), applies the
// production schema and closes it when the test ends.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "parking.db")
	db, err := database.Open(context.Background(), database.SQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
