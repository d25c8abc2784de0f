package dialect

import (
	"fmt"
	"strings"
)

// PostgresDialect generates target-side SQL for PostgreSQL. It is the only
// production dialect; the migration target is fixed to PostgreSQL.
type PostgresDialect struct{}

var _ Dialect = (*PostgresDialect)(nil)

// pgReservedWords is the set of identifiers that must always be quoted.
// Open WebUI style schemas use several of these as table names ("user" in
// particular), so quoting is not optional here.
var pgReservedWords = map[string]bool{
	"all": true, "analyse": true, "analyze": true, "and": true, "any": true,
	"array": true, "as": true, "asc": true, "asymmetric": true,
	"authorization": true, "between": true, "binary": true, "both": true,
	"case": true, "cast": true, "check": true, "collate": true, "column": true,
	"concurrently": true, "constraint": true, "create": true, "cross": true,
	"current_catalog": true, "current_date": true, "current_role": true,
	"current_schema": true, "current_time": true, "current_timestamp": true,
	"current_user": true, "default": true, "deferrable": true, "desc": true,
	"distinct": true, "do": true, "else": true, "end": true, "except": true,
	"false": true, "fetch": true, "for": true, "foreign": true, "freeze": true,
	"from": true, "full": true, "grant": true, "group": true, "having": true,
	"ilike": true, "in": true, "initially": true, "inner": true,
	"intersect": true, "into": true, "is": true, "isnull": true, "join": true,
	"lateral": true, "leading": true, "left": true, "like": true, "limit": true,
	"localtime": true, "localtimestamp": true, "natural": true, "not": true,
	"notnull": true, "null": true, "offset": true, "on": true, "only": true,
	"or": true, "order": true, "outer": true, "overlaps": true, "placing": true,
	"primary": true, "references": true, "returning": true, "right": true,
	"select": true, "session_user": true, "similar": true, "some": true,
	"symmetric": true, "table": true, "tablesample": true, "then": true,
	"to": true, "trailing": true, "true": true, "union": true, "unique": true,
	"user": true, "using": true, "variadic": true, "verbose": true,
	"when": true, "where": true, "window": true, "with": true,
}

// QuoteIdent quotes an identifier when it is reserved, mixed-case, or
// contains characters outside the plain identifier set.
func (d *PostgresDialect) QuoteIdent(name string) string {
	if pgReservedWords[strings.ToLower(name)] || name != strings.ToLower(name) || !isPlainIdent(name) {
		return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
	}
	return name
}

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) InsertQuery(table string, cols []string) string {
	vals := GeneratePlaceholders(len(cols), 0, d.Placeholder)
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteIdent(table), d.quoteAll(cols), vals)
}

// BulkInsertQuery builds a single multi-row INSERT covering rowCount rows.
// Placeholders are numbered row-major, matching a flattened argument slice.
func (d *PostgresDialect) BulkInsertQuery(table string, cols []string, rowCount int) string {
	rows := make([]string, rowCount)
	for r := 0; r < rowCount; r++ {
		rows[r] = "(" + GeneratePlaceholders(len(cols), r*len(cols), d.Placeholder) + ")"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		d.QuoteIdent(table), d.quoteAll(cols), strings.Join(rows, ", "))
}

// TruncateQuery empties a target table. RESTART IDENTITY resets sequences so
// a repeated run lands on identical contents; CASCADE is required because the
// target schema carries real foreign keys.
func (d *PostgresDialect) TruncateQuery(table string) string {
	return fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", d.QuoteIdent(table))
}

func (d *PostgresDialect) quoteAll(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = d.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
