package engine

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Kind discriminates the storage classes a SQLite cell can hold.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindReal
	KindText
	KindBlob
	KindTime
)

// timeLayout is SQLite's default text representation of timestamps.
const timeLayout = "2006-01-02 15:04:05.999999999"

// Value is a tagged variant for one raw source cell. The sanitizer consumes
// it exhaustively, so there is no untyped branching downstream of the scan.
type Value struct {
	Kind Kind
	Int  int64
	Real float64
	Text string
	Blob []byte
	Time time.Time
}

// scanValue converts what database/sql produced for a SQLite cell into a
// Value. The driver hands back int64, float64, string, []byte or nil, plus
// time.Time for columns declared DATE/DATETIME/TIMESTAMP.
func scanValue(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Value{Kind: KindNull}
	case int64:
		return Value{Kind: KindInt, Int: v}
	case float64:
		return Value{Kind: KindReal, Real: v}
	case string:
		return Value{Kind: KindText, Text: v}
	case []byte:
		b := make([]byte, len(v))
		copy(b, v)
		return Value{Kind: KindBlob, Blob: b}
	case time.Time:
		return Value{Kind: KindTime, Time: v}
	case bool:
		if v {
			return Value{Kind: KindInt, Int: 1}
		}
		return Value{Kind: KindInt, Int: 0}
	default:
		// Unknown driver type: keep a readable rendering so the row can
		// still be salvaged or logged.
		return Value{Kind: KindText, Text: fmt.Sprintf("%v", v)}
	}
}

// String renders the original value faithfully enough for manual
// reinsertion from the failure log.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindReal:
		return strconv.FormatFloat(v.Real, 'g', -1, 64)
	case KindText:
		return v.Text
	case KindBlob:
		return "x'" + hex.EncodeToString(v.Blob) + "'"
	case KindTime:
		return v.Time.UTC().Format(timeLayout)
	default:
		return "?"
	}
}
