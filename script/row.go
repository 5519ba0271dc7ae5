package script

import (
	"fmt"
	"strings"

	"github.com/syssam/datascript"
	"github.com/syssam/datascript/dialect/sql"
	"github.com/syssam/datascript/schema/field"
)

// Row is one captured row of a Table.
type Row struct {
	table   *Table
	id      int
	cells   []*Column
	comment string
}

// ID returns the zero-based position of the row in its table.
func (r *Row) ID() int { return r.id }

// Table returns the owning table.
func (r *Row) Table() *Table { return r.table }

// Columns returns the value cells in schema order.
func (r *Row) Columns() []*Column { return r.cells }

// Column returns the cell of the named column, compared case-insensitively.
func (r *Row) Column(name string) (*Column, bool) {
	i := r.table.columns.Index(name)
	if i < 0 {
		return nil, false
	}
	return r.cells[i], true
}

// Comment returns the comment written before the row's statements.
func (r *Row) Comment() string { return r.comment }

// SetComment sets the comment written before the row's statements.
func (r *Row) SetComment(comment string) { r.comment = comment }

// sibling resolves :column tokens to the literal of a sibling column. A
// sibling modifier is expanded one level, its own tokens taking plain
// literals; relationship siblings render their plain value.
func (r *Row) sibling(name string) (string, bool) {
	c, ok := r.Column(name)
	if !ok {
		return "", false
	}
	if c.Kind() == KindModifier {
		return c.expand(r.plain), true
	}
	return c.plain(), true
}

// plain resolves :column tokens to the plain literal of a sibling column.
func (r *Row) plain(name string) (string, bool) {
	c, ok := r.Column(name)
	if !ok {
		return "", false
	}
	return c.plain(), true
}

// assignable reports whether a cell takes part in INSERT and SET lists.
func assignable(c *Column) bool {
	return !c.IsNull() && !c.Schema.Identity && !c.Schema.ReadOnly
}

// Fields returns the bracketed names of the assignable columns.
func (r *Row) Fields() string {
	var names []string
	for _, c := range r.cells {
		if assignable(c) {
			names = append(names, sql.Ident(c.Schema.Name))
		}
	}
	return strings.Join(names, ",")
}

// Values returns the literals of the assignable columns, parallel to Fields.
func (r *Row) Values() string {
	var values []string
	for _, c := range r.cells {
		if assignable(c) {
			values = append(values, c.Literal())
		}
	}
	return strings.Join(values, ",")
}

// SetValues returns the [name] = literal pairs of the assignable columns.
func (r *Row) SetValues() string {
	var pairs []string
	for _, c := range r.cells {
		if assignable(c) {
			pairs = append(pairs, sql.Ident(c.Schema.Name)+" = "+c.Literal())
		}
	}
	return strings.Join(pairs, ", ")
}

// WhereClause returns a predicate identifying the row. Primary key columns
// are used if any carries a value, then unique columns, then identity
// columns.
func (r *Row) WhereClause() (string, error) {
	for _, pick := range []func(*field.Column) bool{
		func(c *field.Column) bool { return c.Key },
		func(c *field.Column) bool { return c.Unique },
		func(c *field.Column) bool { return c.Identity },
	} {
		if w := r.where(pick); w != "" {
			return w, nil
		}
	}
	return "", datascript.NewNoIdentifyingColumnError(r.table.name, r.id)
}

func (r *Row) where(pick func(*field.Column) bool) string {
	var terms []string
	for _, c := range r.cells {
		if pick(c.Schema) && !c.IsNull() {
			terms = append(terms, sql.Ident(c.Schema.Name)+" = "+c.Literal())
		}
	}
	return strings.Join(terms, " and ")
}

// InsertStatement returns the INSERT statement of the row.
func (r *Row) InsertStatement() string {
	return fmt.Sprintf("INSERT INTO %s (%s)\r\nVALUES (%s)", sql.Ident(r.table.name), r.Fields(), r.Values())
}

// UpdateStatement returns the UPDATE statement of the row.
func (r *Row) UpdateStatement() (string, error) {
	where, err := r.WhereClause()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("UPDATE %s\r\n   SET %s\r\n WHERE %s", sql.Ident(r.table.name), r.SetValues(), where), nil
}

// DeleteStatement returns the DELETE statement of the row.
func (r *Row) DeleteStatement() (string, error) {
	where, err := r.WhereClause()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("DELETE FROM %s\r\n WHERE %s", sql.Ident(r.table.name), where), nil
}

// SubQueries returns the statements assigning the row's sub-selects to
// their scalar variables, one per line.
func (r *Row) SubQueries() string {
	var sets []string
	for _, c := range r.cells {
		if c.IsSubQuery() {
			sets = append(sets, c.SetStatement())
		}
	}
	return strings.Join(sets, "\r\n")
}

// String implements fmt.Stringer.
func (r *Row) String() string {
	cells := make([]string, len(r.cells))
	for i, c := range r.cells {
		cells[i] = c.String()
	}
	return fmt.Sprintf("%s[%d] %s", r.table.name, r.id, strings.Join(cells, ", "))
}
