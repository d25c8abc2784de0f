package schema

// Table describes one source table: ordered columns as declared, plus the
// foreign key information needed to establish a safe migration order.
// Built fresh per run and discarded after the table is migrated.
type Table struct {
	Name         string
	Columns      []*Column
	ForeignKeys  []*ForeignKey
	Dependencies []string
}

type Column struct {
	Name       string
	DeclType   string // declared type token, e.g. "VARCHAR(255)"
	IsNullable bool
	IsPK       bool
}

type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}
