package integrity_test

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"sqlite2pg/internal/integrity"
)

func TestCheckHealthySource(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	fixture := []string{
		`CREATE TABLE "user" (id TEXT PRIMARY KEY, name TEXT)`,
		`CREATE TABLE chat (id TEXT PRIMARY KEY, user_id TEXT)`,
		`INSERT INTO "user" (id, name) VALUES ('u1', 'a'), ('u2', 'b')`,
		`INSERT INTO chat (id, user_id) VALUES ('c1', 'u1')`,
	}
	for _, stmt := range fixture {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}

	health, err := integrity.Check(db)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(health.Tables) != 2 {
		t.Errorf("expected 2 tables, got %v", health.Tables)
	}
	if health.RowCounts["user"] != 2 || health.RowCounts["chat"] != 1 {
		t.Errorf("unexpected row counts: %v", health.RowCounts)
	}
	if health.TotalRows() != 3 {
		t.Errorf("expected 3 total rows, got %d", health.TotalRows())
	}
}

func TestCheckDanglingForeignKeysAreFindingsOnly(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	fixture := []string{
		`CREATE TABLE parent (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE child (id INTEGER PRIMARY KEY, parent_id INTEGER REFERENCES parent(id))`,
		// FK enforcement is off by default, so the dangling reference sticks.
		`INSERT INTO child (id, parent_id) VALUES (1, 999)`,
	}
	for _, stmt := range fixture {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}

	health, err := integrity.Check(db)
	if err != nil {
		t.Fatalf("Check should tolerate dangling references: %v", err)
	}
	if health.FKIssues != 1 {
		t.Errorf("expected 1 FK finding, got %d", health.FKIssues)
	}
}

func TestCheckUnreadableSource(t *testing.T) {
	// A path that does not exist: the driver only fails on first use.
	path := filepath.Join(t.TempDir(), "missing", "webui.db")
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer db.Close()

	_, err = integrity.Check(db)
	if !errors.Is(err, integrity.ErrSourceUnreadable) {
		t.Fatalf("expected ErrSourceUnreadable, got %v", err)
	}
}
