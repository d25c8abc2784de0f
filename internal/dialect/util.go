package dialect

import (
	"strings"
)

// GeneratePlaceholders is a helper to create a comma-separated placeholder
// list. The offset shifts placeholder numbering, which multi-row inserts use
// to number parameters row-major across the whole statement.
func GeneratePlaceholders(count, offset int, placeholderFunc func(int) string) string {
	placeholders := make([]string, count)
	for i := 0; i < count; i++ {
		placeholders[i] = placeholderFunc(offset + i)
	}
	return strings.Join(placeholders, ", ")
}
