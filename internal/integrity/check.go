// Package integrity validates that the source database is readable and
// structurally sound before the run mutates anything on the target.
package integrity

import (
	"database/sql"
	"errors"
	"fmt"

	"sqlite2pg/internal/schema"
)

var (
	// ErrSourceUnreadable covers a missing, locked, or non-database file.
	ErrSourceUnreadable = errors.New("source database unreadable")
	// ErrSourceCorrupt means the file opened but failed structural validation.
	ErrSourceCorrupt = errors.New("source database corrupt")
)

// Health is the structural health result of the source database.
type Health struct {
	Tables    []string
	RowCounts map[string]int64
	FKIssues  int // dangling foreign key references; reported, not fatal
}

// TotalRows sums the per-table row counts.
func (h *Health) TotalRows() int64 {
	var total int64
	for _, n := range h.RowCounts {
		total += n
	}
	return total
}

// Check runs PRAGMA integrity_check and PRAGMA foreign_key_check against the
// source and collects the accessible table list with per-table row counts.
// It is strictly read-only. Any failure here aborts the run before the
// target is touched.
func Check(db *sql.DB) (*Health, error) {
	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}
	if result != "ok" {
		return nil, fmt.Errorf("%w: integrity_check reported %q", ErrSourceCorrupt, result)
	}

	// Dangling references are common in legacy files and are salvageable at
	// row granularity later, so they only count as findings here.
	fkIssues := 0
	fkRows, err := db.Query("PRAGMA foreign_key_check")
	if err != nil {
		return nil, fmt.Errorf("%w: foreign_key_check: %v", ErrSourceCorrupt, err)
	}
	for fkRows.Next() {
		fkIssues++
	}
	if err := fkRows.Err(); err != nil {
		fkRows.Close()
		return nil, fmt.Errorf("%w: foreign_key_check: %v", ErrSourceCorrupt, err)
	}
	fkRows.Close()

	tables, err := schema.List(db)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceCorrupt, err)
	}

	health := &Health{
		Tables:    tables,
		RowCounts: make(map[string]int64, len(tables)),
		FKIssues:  fkIssues,
	}
	for _, name := range tables {
		n, err := schema.Count(db, name)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSourceCorrupt, err)
		}
		health.RowCounts[name] = n
	}
	return health, nil
}
