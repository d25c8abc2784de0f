package dialect

import "strings"

// TargetType is the PostgreSQL-side type a source column migrates into.
type TargetType int

const (
	TypeInteger TargetType = iota
	TypeDouble
	TypeText
	TypeBytea
	TypeBoolean
	TypeTimestamp
	TypeJSON
)

func (t TargetType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeDouble:
		return "double precision"
	case TypeText:
		return "text"
	case TypeBytea:
		return "bytea"
	case TypeBoolean:
		return "boolean"
	case TypeTimestamp:
		return "timestamp"
	case TypeJSON:
		return "json"
	default:
		return "unknown"
	}
}

// MapType maps a declared SQLite column type token to its target type.
// SQLite type names are affinity hints, not strict types, so matching is by
// substring the same way SQLite itself resolves affinity. The map is static:
// one token always yields one target type.
//
// Unrecognized tokens fall back to text; ok is false so the caller can emit
// a warning. The row still migrates.
func MapType(token string) (t TargetType, ok bool) {
	norm := strings.ToUpper(strings.TrimSpace(token))
	switch {
	case norm == "":
		return TypeText, true
	case norm == "JSON" || strings.Contains(norm, "JSONB"):
		return TypeJSON, true
	case strings.Contains(norm, "INT"):
		return TypeInteger, true
	case strings.Contains(norm, "CHAR"), strings.Contains(norm, "TEXT"), strings.Contains(norm, "CLOB"):
		return TypeText, true
	case strings.Contains(norm, "BLOB"):
		return TypeBytea, true
	case strings.Contains(norm, "REAL"), strings.Contains(norm, "FLOA"),
		strings.Contains(norm, "DOUB"), strings.Contains(norm, "NUMERIC"),
		strings.Contains(norm, "DECIMAL"):
		return TypeDouble, true
	case strings.Contains(norm, "BOOL"):
		return TypeBoolean, true
	case strings.Contains(norm, "DATE"), strings.Contains(norm, "TIME"):
		return TypeTimestamp, true
	default:
		return TypeText, false
	}
}
