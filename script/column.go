package script

import (
	"fmt"
	"strings"

	"github.com/syssam/datascript/dialect"
	"github.com/syssam/datascript/dialect/sql"
	"github.com/syssam/datascript/schema/edge"
	"github.com/syssam/datascript/schema/field"
)

// Kind classifies how a column value is rendered.
type Kind uint8

const (
	// KindValue is a plain value formatted by its native type.
	KindValue Kind = iota
	// KindModifier is a SQL template in which :column tokens are replaced
	// with the literals of sibling columns. It renders parenthesized.
	KindModifier
	// KindSubQuery is a column with an attached relationship. It renders as
	// a sub-select, or as the scalar variable holding it.
	KindSubQuery
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindValue:
		return "value"
	case KindModifier:
		return "modifier"
	case KindSubQuery:
		return "subquery"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Modifier tags a value as a SQL template rather than data:
//
//	script.Modifier("getdate()")
//	script.Modifier("select max([Id]) + 1 from [Person] where [Team] = :team")
//
// Surrounding braces are optional.
type Modifier string

// Template returns the template text without surrounding braces.
func (m Modifier) Template() string {
	s := strings.TrimSpace(string(m))
	if isModifier(s) {
		s = s[1 : len(s)-1]
	}
	return s
}

func isModifier(s string) bool {
	return len(s) >= 2 && s[0] == '{' && s[len(s)-1] == '}'
}

// modifier reports whether a filled value is written in modifier notation.
func modifier(v any, c *field.Column) (Modifier, bool) {
	var s string
	switch v := v.(type) {
	case string:
		s = v
	case []byte:
		if !c.Type.IsText() {
			return "", false
		}
		s = string(v)
	default:
		return "", false
	}
	if !isModifier(s) {
		return "", false
	}
	return Modifier(s), true
}

// Column is one value cell of a row.
type Column struct {
	Schema *field.Column
	Value  any
	row    *Row
}

// Name returns the column name.
func (c *Column) Name() string { return c.Schema.Name }

// Relationship returns the relationship attached to the column, if any.
func (c *Column) Relationship() *edge.Relationship {
	r, _ := c.row.table.Relationship(c.Schema.Name)
	return r
}

// Kind returns how the column renders. A relationship takes precedence over
// a modifier value.
func (c *Column) Kind() Kind {
	if c.Relationship() != nil {
		return KindSubQuery
	}
	if _, ok := c.Value.(Modifier); ok {
		return KindModifier
	}
	return KindValue
}

// IsSubQuery reports whether the column has an attached relationship.
func (c *Column) IsSubQuery() bool { return c.Kind() == KindSubQuery }

// IsNull reports whether the column carries no value.
func (c *Column) IsNull() bool {
	if _, ok := c.Value.(Modifier); ok {
		return false
	}
	return sql.IsNull(c.Value)
}

// Variable returns the scalar variable that holds the column's sub-select
// under legacy compatibility.
func (c *Column) Variable() string {
	return dialect.VariableName(c.row.table.name, c.Schema.Name)
}

// SubQuery returns the rendered sub-select of a relationship column, or ""
// for other columns.
func (c *Column) SubQuery() string {
	r := c.Relationship()
	if r == nil {
		return ""
	}
	return r.Render(c.row.sibling)
}

// SetStatement returns the assignment of the sub-select to its variable.
func (c *Column) SetStatement() string {
	return c.row.table.strategy.Assign(c.Variable(), c.SubQuery())
}

// Literal returns the text of the column in a statement.
func (c *Column) Literal() string {
	switch c.Kind() {
	case KindSubQuery:
		return c.row.table.strategy.SubQuery(c.Variable(), c.SubQuery())
	case KindModifier:
		return c.expand(c.row.sibling)
	}
	return c.plain()
}

// expand renders a modifier with its tokens resolved by resolve.
func (c *Column) expand(resolve edge.Resolver) string {
	m := c.Value.(Modifier)
	return "(" + edge.Substitute(m.Template(), resolve) + ")"
}

// plain formats the value by its native type alone.
func (c *Column) plain() string {
	v := c.Value
	if m, ok := v.(Modifier); ok {
		v = string(m)
	}
	return c.row.table.formatter.Literal(v, c.Schema.Type)
}

// String implements fmt.Stringer.
func (c *Column) String() string {
	return fmt.Sprintf("%s = %s", c.Schema.Name, c.Literal())
}
