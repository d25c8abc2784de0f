package schema

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownTable is returned when a table expected by the pre-provisioned
// target schema is absent from the source. The target schema is assumed
// fixed and externally created, so this is fatal for the whole run.
var ErrUnknownTable = errors.New("table not found in source database")

// Bookkeeping tables that must never be migrated: the target installation
// manages its own migration history, and sqlite_sequence is engine-internal.
var skipTables = map[string]bool{
	"sqlite_sequence": true,
	"migratehistory":  true,
	"alembic_version": true,
}

// QuoteIdent quotes a SQLite identifier. PRAGMA statements and FROM clauses
// cannot take bound parameters, so every identifier that reaches the source
// connection goes through here.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// List enumerates the user tables of the source database in declaration
// order, excluding SQLite internals and migration bookkeeping tables.
func List(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sqlite_master: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		if skipTables[strings.ToLower(name)] {
			continue
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return names, nil
}

// Introspect builds the descriptor for one source table from
// PRAGMA table_info and PRAGMA foreign_key_list.
func Introspect(db *sql.DB, name string) (*Table, error) {
	t := &Table{Name: name, Dependencies: []string{}}

	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", QuoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to read schema of %s: %w", name, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid     int
			colName string
			decl    sql.NullString
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &colName, &decl, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column of %s: %w", name, err)
		}
		t.Columns = append(t.Columns, &Column{
			Name:       colName,
			DeclType:   decl.String,
			IsNullable: notNull == 0,
			IsPK:       pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns of %s: %w", name, err)
	}
	if len(t.Columns) == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownTable)
	}

	fkRows, err := db.Query(fmt.Sprintf("PRAGMA foreign_key_list(%s)", QuoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to read foreign keys of %s: %w", name, err)
	}
	defer fkRows.Close()

	seen := map[string]bool{}
	for fkRows.Next() {
		var (
			id, seq            int
			refTable, from     string
			to                 sql.NullString
			onUpdate, onDelete string
			match              string
		)
		if err := fkRows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return nil, fmt.Errorf("failed to scan foreign key of %s: %w", name, err)
		}
		if refTable == name {
			continue // self-reference never affects ordering
		}
		t.ForeignKeys = append(t.ForeignKeys, &ForeignKey{
			Column:    from,
			RefTable:  refTable,
			RefColumn: to.String,
		})
		if !seen[refTable] {
			seen[refTable] = true
			t.Dependencies = append(t.Dependencies, refTable)
		}
	}
	if err := fkRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foreign keys of %s: %w", name, err)
	}

	return t, nil
}

// Count returns the number of rows currently in a source table.
func Count(db *sql.DB, name string) (int64, error) {
	var n int64
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", QuoteIdent(name))).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows of %s: %w", name, err)
	}
	return n, nil
}
