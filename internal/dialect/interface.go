package dialect

// Dialect abstracts target-side SQL generation. The engine never builds
// ad-hoc query strings: identifiers are quoted here and values always
// travel as bound parameters.
type Dialect interface {
	// Identifier / placeholder handling
	QuoteIdent(name string) string
	Placeholder(index int) string // Returns $1, ?, etc.

	// Query Generation
	InsertQuery(table string, cols []string) string
	BulkInsertQuery(table string, cols []string, rowCount int) string
	TruncateQuery(table string) string
}
