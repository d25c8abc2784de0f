package schema_test

import (
	"database/sql"
	"errors"
	"testing"

	_ "modernc.org/sqlite"

	"sqlite2pg/internal/schema"
)

func openFixture(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE "user" (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			last_active_at BIGINT NOT NULL
		)`,
		`CREATE TABLE chat (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES "user"(id),
			title TEXT,
			archived BOOLEAN NOT NULL,
			meta JSON
		)`,
		`CREATE TABLE tag (id TEXT, name TEXT)`,
		`CREATE TABLE migratehistory (id INTEGER)`,
		`CREATE TABLE alembic_version (version_num TEXT)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("fixture: %v", err)
		}
	}
	return db
}

func TestListSkipsBookkeepingTables(t *testing.T) {
	db := openFixture(t)

	names, err := schema.List(db)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []string{"user", "chat", "tag"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("position %d: expected %s, got %s", i, name, names[i])
		}
	}
}

func TestIntrospectColumns(t *testing.T) {
	db := openFixture(t)

	tbl, err := schema.Introspect(db, "chat")
	if err != nil {
		t.Fatalf("Introspect: %v", err)
	}

	if len(tbl.Columns) != 5 {
		t.Fatalf("expected 5 columns, got %d", len(tbl.Columns))
	}
	id := tbl.Columns[0]
	if id.Name != "id" || !id.IsPK {
		t.Errorf("expected id as primary key, got %+v", id)
	}
	userID := tbl.Columns[1]
	if userID.IsNullable {
		t.Errorf("user_id should be NOT NULL")
	}
	if userID.DeclType != "TEXT" {
		t.Errorf("user_id declared type = %q", userID.DeclType)
	}
	title := tbl.Columns[2]
	if !title.IsNullable || title.IsPK {
		t.Errorf("title should be plain nullable, got %+v", title)
	}

	if len(tbl.ForeignKeys) != 1 || tbl.ForeignKeys[0].RefTable != "user" {
		t.Fatalf("expected one FK to user, got %+v", tbl.ForeignKeys)
	}
	if len(tbl.Dependencies) != 1 || tbl.Dependencies[0] != "user" {
		t.Fatalf("expected dependency on user, got %v", tbl.Dependencies)
	}
}

func TestIntrospectUnknownTable(t *testing.T) {
	db := openFixture(t)

	_, err := schema.Introspect(db, "function")
	if !errors.Is(err, schema.ErrUnknownTable) {
		t.Fatalf("expected ErrUnknownTable, got %v", err)
	}
}

func TestCount(t *testing.T) {
	db := openFixture(t)
	for i := 0; i < 3; i++ {
		if _, err := db.Exec(`INSERT INTO tag (id, name) VALUES (?, ?)`, i, "t"); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	n, err := schema.Count(db, "tag")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 rows, got %d", n)
	}
}
