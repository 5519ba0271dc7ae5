package sql

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/datascript/schema/field"
)

// Date and time layouts used for datetime literals.
const (
	// LegacyDateTime is the layout scripts have always been written with. It
	// uses a 12-hour clock without an AM/PM designator, so afternoon values
	// come out twelve hours early. Kept as the default for output parity.
	LegacyDateTime = "2006-01-02 03:04:05"
	// ISODateTime is the 24-hour layout.
	ISODateTime = "2006-01-02 15:04:05"
	// TimeOfDay is the layout of time-only columns.
	TimeOfDay = "15:04:05"
)

// inputLayouts are tried, in order, when a datetime value arrives as text.
var inputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	time.DateOnly,
}

// Null is the literal of an absent value.
const Null = "null"

// Ident returns name as a bracket-quoted identifier.
func Ident(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Quote returns s as a single-quoted string literal. Embedded quotes are doubled.
func Quote(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Unquote reverses Quote. It reports false if lit is not a quoted literal.
func Unquote(lit string) (string, bool) {
	if len(lit) < 2 || lit[0] != '\'' || lit[len(lit)-1] != '\'' {
		return "", false
	}
	return strings.ReplaceAll(lit[1:len(lit)-1], "''", "'"), true
}

// A Formatter renders raw column values as T-SQL literals.
// The zero value uses LegacyDateTime.
type Formatter struct {
	DateTimeLayout string
}

// Literal renders v with the default Formatter.
func Literal(v any, t field.Type) string {
	return Formatter{}.Literal(v, t)
}

// Literal renders v as a literal for a column of native type t:
//
//   - null values render as null
//   - text is quoted with embedded quotes doubled
//   - datetime is quoted using the formatter layout
//   - boolean renders as 1 or 0
//   - GUID and time-of-day values are quoted
//   - binary renders as a 0x hex string
//   - everything else renders in its natural string form
func (f Formatter) Literal(v any, t field.Type) string {
	v, ok := Value(v)
	if !ok {
		return Null
	}
	switch t {
	case field.TypeText:
		return Quote(Text(v))
	case field.TypeDateTime:
		return f.datetime(v)
	case field.TypeTime:
		if tm, ok := v.(time.Time); ok {
			return Quote(tm.Format(TimeOfDay))
		}
		return Quote(Text(v))
	case field.TypeBoolean:
		if b, ok := boolean(v); ok {
			if b {
				return "1"
			}
			return "0"
		}
	case field.TypeGUID:
		if u, ok := guid(v); ok {
			return Quote(u.String())
		}
		return Quote(Text(v))
	case field.TypeBinary:
		if b, ok := v.([]byte); ok {
			return "0x" + strings.ToUpper(hex.EncodeToString(b))
		}
	}
	return Natural(v)
}

func (f Formatter) datetime(v any) string {
	layout := f.DateTimeLayout
	if layout == "" {
		layout = LegacyDateTime
	}
	switch v := v.(type) {
	case time.Time:
		return Quote(v.Format(layout))
	case string, []byte:
		s := Text(v)
		for _, in := range inputLayouts {
			if tm, err := time.Parse(in, s); err == nil {
				return Quote(tm.Format(layout))
			}
		}
		return Quote(s)
	}
	return Natural(v)
}

// Value unwraps driver.Valuer implementations and pointers, and reports
// false if the result is absent.
func Value(v any) (any, bool) {
	for v != nil {
		switch x := v.(type) {
		case time.Time, []byte, string, uuid.UUID:
			return v, true
		case driver.Valuer:
			if rv := reflect.ValueOf(x); rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil, false
			}
			dv, err := x.Value()
			if err != nil {
				return v, true
			}
			if dv == nil {
				return nil, false
			}
			if reflect.TypeOf(dv) == reflect.TypeOf(v) {
				return dv, true
			}
			v = dv
		default:
			rv := reflect.ValueOf(v)
			if rv.Kind() != reflect.Pointer {
				return v, true
			}
			if rv.IsNil() {
				return nil, false
			}
			v = rv.Elem().Interface()
		}
	}
	return nil, false
}

// IsNull reports whether v is absent.
func IsNull(v any) bool {
	_, ok := Value(v)
	return !ok
}

// Text returns the textual form of v. Byte slices are read as text.
func Text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	}
	return Natural(v)
}

// Natural returns the natural string form of v, unquoted.
func Natural(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case time.Time:
		return v.Format(ISODateTime)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

func boolean(v any) (bool, bool) {
	switch v := v.(type) {
	case bool:
		return v, true
	case int64:
		return v != 0, true
	case int:
		return v != 0, true
	case int32:
		return v != 0, true
	case int16:
		return v != 0, true
	case int8:
		return v != 0, true
	case uint8:
		return v != 0, true
	case string, []byte:
		b, err := strconv.ParseBool(strings.TrimSpace(Text(v)))
		return b, err == nil
	}
	return false, false
}

func guid(v any) (uuid.UUID, bool) {
	switch v := v.(type) {
	case uuid.UUID:
		return v, true
	case [16]byte:
		return uuid.UUID(v), true
	case []byte:
		if len(v) == 16 {
			u, err := uuid.FromBytes(v)
			return u, err == nil
		}
		u, err := uuid.ParseBytes(v)
		return u, err == nil
	case string:
		u, err := uuid.Parse(v)
		return u, err == nil
	}
	return uuid.UUID{}, false
}
