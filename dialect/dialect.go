package dialect

import (
	"fmt"
	"strings"
)

// Source database dialects rows can be captured from.
const (
	MySQL     = "mysql"
	SQLite    = "sqlite3"
	Postgres  = "postgres"
	SQLServer = "sqlserver"
)

// Level is the target server compatibility of a generated script.
type Level int

const (
	// Modern targets SQL Server 2008 and later, which accept scalar
	// sub-selects inline in VALUES and SET lists.
	Modern Level = iota
	// Legacy targets SQL Server 2005, where every sub-select is hoisted
	// into a scalar variable declared at the top of the script.
	Legacy
)

// String implements fmt.Stringer.
func (l Level) String() string {
	switch l {
	case Modern:
		return "modern"
	case Legacy:
		return "legacy"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// ParseLevel parses a compatibility level name.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "modern", "sql2008", "2008":
		return Modern, nil
	case "legacy", "sql2005", "2005":
		return Legacy, nil
	}
	return Modern, fmt.Errorf("dialect: unknown compatibility level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}

// Strategy decides how relationship sub-selects appear in a script. It is
// selected once per table with For.
type Strategy interface {
	// SubQuery returns the text placed in a VALUES, SET or WHERE position
	// for the sub-select bound to variable.
	SubQuery(variable, selectText string) string
	// Hoisted reports whether sub-selects are assigned to variables
	// ahead of each statement.
	Hoisted() bool
	// Declare returns the declaration of a scalar variable.
	Declare(variable, sqlType string) string
	// Assign returns the statement binding a sub-select to a variable.
	Assign(variable, selectText string) string
}

// For returns the strategy of the given level.
func For(l Level) Strategy {
	if l == Legacy {
		return legacy{}
	}
	return modern{}
}

type modern struct{}

func (modern) SubQuery(_, selectText string) string {
	return "(" + selectText + ")"
}

func (modern) Hoisted() bool {
	return false
}

func (modern) Declare(variable, sqlType string) string {
	return declare(variable, sqlType)
}

func (modern) Assign(variable, selectText string) string {
	return assign(variable, selectText)
}

type legacy struct{}

func (legacy) SubQuery(variable, _ string) string {
	return variable
}

func (legacy) Hoisted() bool {
	return true
}

func (legacy) Declare(variable, sqlType string) string {
	return declare(variable, sqlType)
}

func (legacy) Assign(variable, selectText string) string {
	return assign(variable, selectText)
}

func declare(variable, sqlType string) string {
	return fmt.Sprintf("declare %s as %s;", variable, sqlType)
}

func assign(variable, selectText string) string {
	return fmt.Sprintf("SET %s = (%s)", variable, selectText)
}

// VariableName returns the scalar variable bound to a relationship column.
// Characters that are not valid in a T-SQL variable name become underscores.
func VariableName(table, column string) string {
	var b strings.Builder
	b.Grow(len(table) + len(column) + 2)
	b.WriteByte('@')
	clean(&b, table)
	b.WriteByte('_')
	clean(&b, column)
	return b.String()
}

func clean(b *strings.Builder, s string) {
	for _, r := range s {
		switch {
		case r == '_' || r == '@' || r == '#' || r == '$',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r > 0x7f:
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
}
