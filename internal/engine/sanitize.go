package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"sqlite2pg/internal/dialect"
)

var (
	// ErrCoercion means a value could not be converted to its target type.
	// Row-recoverable: the row is skipped and logged.
	ErrCoercion = errors.New("value coercion failed")
	// ErrNotNull means a NULL arrived for a non-nullable target column.
	ErrNotNull = errors.New("null value for non-nullable column")
)

// ColumnPlan is the per-column migration plan, computed once per table.
type ColumnPlan struct {
	Name     string
	Type     dialect.TargetType
	Nullable bool
}

// Sanitize coerces one raw source value into a driver-level value for its
// target column. The returned warning is non-empty when the value migrates
// in a degraded form. Pure: identical input and plan always yield identical
// output or identical error.
func Sanitize(v Value, plan ColumnPlan) (out any, warning string, err error) {
	if v.Kind == KindNull {
		if plan.Nullable {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("column %s: %w", plan.Name, ErrNotNull)
	}

	switch plan.Type {
	case dialect.TypeInteger:
		return sanitizeInteger(v, plan)
	case dialect.TypeDouble:
		return sanitizeDouble(v, plan)
	case dialect.TypeBoolean:
		return sanitizeBoolean(v, plan)
	case dialect.TypeTimestamp:
		return sanitizeTimestamp(v, plan)
	case dialect.TypeJSON:
		return sanitizeJSON(v, plan)
	case dialect.TypeBytea:
		return sanitizeBytea(v, plan)
	default: // dialect.TypeText
		return sanitizeText(v)
	}
}

func sanitizeInteger(v Value, plan ColumnPlan) (any, string, error) {
	switch v.Kind {
	case KindInt:
		return v.Int, "", nil
	case KindReal:
		if v.Real == math.Trunc(v.Real) && !math.IsInf(v.Real, 0) {
			return int64(v.Real), "", nil
		}
		return nil, "", coercionErr(plan, v, "fractional value for integer column")
	case KindText:
		n, err := strconv.ParseInt(strings.TrimSpace(stripNul(v.Text)), 10, 64)
		if err != nil {
			return nil, "", coercionErr(plan, v, "not an integer")
		}
		return n, "", nil
	default:
		return nil, "", coercionErr(plan, v, "unsupported storage class for integer column")
	}
}

func sanitizeDouble(v Value, plan ColumnPlan) (any, string, error) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), "", nil
	case KindReal:
		return v.Real, "", nil
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(stripNul(v.Text)), 64)
		if err != nil {
			return nil, "", coercionErr(plan, v, "not a number")
		}
		return f, "", nil
	default:
		return nil, "", coercionErr(plan, v, "unsupported storage class for double precision column")
	}
}

func sanitizeBoolean(v Value, plan ColumnPlan) (any, string, error) {
	switch v.Kind {
	case KindInt:
		// SQLite stores booleans as 0/1 integers.
		switch v.Int {
		case 0:
			return false, "", nil
		case 1:
			return true, "", nil
		}
		return nil, "", coercionErr(plan, v, "integer outside 0/1 for boolean column")
	case KindText:
		b, err := strconv.ParseBool(strings.TrimSpace(stripNul(v.Text)))
		if err != nil {
			return nil, "", coercionErr(plan, v, "not a boolean")
		}
		return b, "", nil
	default:
		return nil, "", coercionErr(plan, v, "unsupported storage class for boolean column")
	}
}

func sanitizeTimestamp(v Value, plan ColumnPlan) (any, string, error) {
	switch v.Kind {
	case KindInt:
		// Epoch seconds; the common legacy representation for timestamps.
		return time.Unix(v.Int, 0).UTC(), "", nil
	case KindReal:
		sec, frac := math.Modf(v.Real)
		return time.Unix(int64(sec), int64(frac*float64(time.Second))).UTC(), "", nil
	case KindText:
		// ISO-ish strings parse server-side; only NUL bytes are unsafe.
		return stripNul(v.Text), "", nil
	case KindTime:
		// The source driver already parsed the column; bind it as-is.
		return v.Time, "", nil
	default:
		return nil, "", coercionErr(plan, v, "blob for timestamp column")
	}
}

func sanitizeJSON(v Value, plan ColumnPlan) (any, string, error) {
	var s string
	switch v.Kind {
	case KindText:
		s = stripNul(v.Text)
	case KindBlob:
		s = stripNul(string(v.Blob))
	case KindInt:
		s = strconv.FormatInt(v.Int, 10)
	case KindReal:
		s = strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindTime:
		s = v.Time.UTC().Format(timeLayout)
	}
	if gjson.Valid(s) {
		return s, "", nil
	}
	// Malformed structured data must not block the row: pass it through
	// verbatim as text and let the operator decide later.
	return s, fmt.Sprintf("column %s: malformed JSON migrated verbatim", plan.Name), nil
}

func sanitizeBytea(v Value, plan ColumnPlan) (any, string, error) {
	switch v.Kind {
	case KindBlob:
		return v.Blob, "", nil
	case KindText:
		return []byte(v.Text), "", nil
	default:
		return nil, "", coercionErr(plan, v, "unsupported storage class for bytea column")
	}
}

func sanitizeText(v Value) (any, string, error) {
	switch v.Kind {
	case KindText:
		return stripNul(v.Text), "", nil
	case KindInt:
		return strconv.FormatInt(v.Int, 10), "", nil
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64), "", nil
	case KindTime:
		return v.Time.UTC().Format(timeLayout), "", nil
	default: // KindBlob
		return stripNul(string(v.Blob)), "", nil
	}
}

// stripNul removes embedded NUL bytes, which PostgreSQL rejects in text.
func stripNul(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

func coercionErr(plan ColumnPlan, v Value, reason string) error {
	return fmt.Errorf("column %s: %s (value %q): %w", plan.Name, reason, v.String(), ErrCoercion)
}
