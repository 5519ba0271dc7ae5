package field

import (
	"fmt"
	"strings"
)

// Column describes a single column of a captured table: its name, position,
// declared size and the flags that drive statement assembly.
type Column struct {
	Name          string
	Ordinal       int // zero-based position in the table
	Size          int // declared length for text/binary types, 0 if unspecified
	Precision     int
	Scale         int
	Key           bool // part of the primary key
	Unique        bool
	Identity      bool
	AutoIncrement bool
	ReadOnly      bool
	Nullable      bool
	Type          Type
	TypeName      string // declared SQL type name, e.g. "nvarchar"
	Table         string // owning table
}

// New returns a nullable column of the given native type.
func New(name string, t Type) *Column {
	return &Column{Name: name, Type: t, TypeName: t.SQLName(), Nullable: true}
}

// Int returns a new integer column.
func Int(name string) *Column { return New(name, TypeInteger) }

// BigInt returns a new bigint column.
func BigInt(name string) *Column { return New(name, TypeInteger).Declared("bigint") }

// Decimal returns a new decimal column with the given precision and scale.
func Decimal(name string, precision, scale int) *Column {
	c := New(name, TypeDecimal)
	c.Precision, c.Scale = precision, scale
	return c
}

// Float returns a new float column.
func Float(name string) *Column { return New(name, TypeFloat) }

// String returns a new varchar column. A size of 0 means unbounded.
func String(name string, size int) *Column {
	c := New(name, TypeText)
	c.Size = size
	return c
}

// NString returns a new nvarchar column.
func NString(name string, size int) *Column { return String(name, size).Declared("nvarchar") }

// Text returns a new text column.
func Text(name string) *Column { return New(name, TypeText).Declared("text") }

// DateTime returns a new datetime column.
func DateTime(name string) *Column { return New(name, TypeDateTime) }

// Time returns a new time column.
func Time(name string) *Column { return New(name, TypeTime) }

// Bool returns a new bit column.
func Bool(name string) *Column { return New(name, TypeBoolean) }

// Bytes returns a new varbinary column.
func Bytes(name string, size int) *Column {
	c := New(name, TypeBinary)
	c.Size = size
	return c
}

// UUID returns a new uniqueidentifier column.
func UUID(name string) *Column { return New(name, TypeGUID) }

// Declared overrides the declared SQL type name.
func (c *Column) Declared(typeName string) *Column {
	c.TypeName = typeName
	return c
}

// PrimaryKey marks the column as part of the primary key. Key columns are not
// nullable.
func (c *Column) PrimaryKey() *Column {
	c.Key = true
	c.Nullable = false
	return c
}

// AsUnique marks the column as unique.
func (c *Column) AsUnique() *Column {
	c.Unique = true
	return c
}

// AsIdentity marks the column as an auto-incrementing identity column.
func (c *Column) AsIdentity() *Column {
	c.Identity = true
	c.AutoIncrement = true
	c.Nullable = false
	return c
}

// AsReadOnly marks the column as read-only (computed, rowversion...).
func (c *Column) AsReadOnly() *Column {
	c.ReadOnly = true
	return c
}

// NotNull marks the column as not nullable.
func (c *Column) NotNull() *Column {
	c.Nullable = false
	return c
}

// SQLType returns the declared type name, falling back to the native default.
func (c *Column) SQLType() string {
	if c.TypeName != "" {
		return c.TypeName
	}
	return c.Type.SQLName()
}

// Equal reports whether two columns describe the same schema entry.
func (c *Column) Equal(o *Column) bool {
	if c == nil || o == nil {
		return c == o
	}
	return EqualFold(c.Name, o.Name) &&
		c.Ordinal == o.Ordinal &&
		c.Type == o.Type &&
		c.Key == o.Key &&
		c.Unique == o.Unique &&
		c.Identity == o.Identity &&
		c.ReadOnly == o.ReadOnly
}

// String implements fmt.Stringer.
func (c *Column) String() string {
	return fmt.Sprintf("column %s[%d] type: %s", c.Name, c.Ordinal, c.Type)
}

// Columns is the ordered column set of a table.
type Columns []*Column

// Lookup returns the column with the given name, compared case-insensitively.
func (cs Columns) Lookup(name string) (*Column, bool) {
	name = Fold(name)
	for _, c := range cs {
		if Fold(c.Name) == name {
			return c, true
		}
	}
	return nil, false
}

// Index returns the position of the named column, or -1.
func (cs Columns) Index(name string) int {
	name = Fold(name)
	for i, c := range cs {
		if Fold(c.Name) == name {
			return i
		}
	}
	return -1
}

// Keys returns the primary key columns in schema order.
func (cs Columns) Keys() Columns {
	var keys Columns
	for _, c := range cs {
		if c.Key {
			keys = append(keys, c)
		}
	}
	return keys
}

// Names returns the column names in schema order.
func (cs Columns) Names() []string {
	names := make([]string, len(cs))
	for i, c := range cs {
		names[i] = c.Name
	}
	return names
}

// Clone returns a deep copy of the columns, with ordinals renumbered to the
// slice position and the owning table set.
func (cs Columns) Clone(table string) Columns {
	out := make(Columns, len(cs))
	for i, c := range cs {
		cc := *c
		cc.Ordinal = i
		if table != "" {
			cc.Table = table
		}
		out[i] = &cc
	}
	return out
}

// String returns the column names as a comma separated list.
func (cs Columns) String() string {
	return strings.Join(cs.Names(), ",")
}
