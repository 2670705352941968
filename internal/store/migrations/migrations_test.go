package migrations

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateUpCreatesSchema(t *testing.T) {
	db := newTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("migrate up: %v", err)
	}

	for _, table := range []string{"categories", "memories", "memory_tags", "responses"} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing after migration: %v", table, err)
		}
	}
}

func TestMigrateUpIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}
