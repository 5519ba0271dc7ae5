package script

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/syssam/datascript"
	"github.com/syssam/datascript/dialect"
	"github.com/syssam/datascript/dialect/sql"
	"github.com/syssam/datascript/dialect/sql/schema"
	"github.com/syssam/datascript/schema/edge"
	"github.com/syssam/datascript/schema/field"
)

// Table holds the schema and captured rows of one table, together with the
// metadata that shapes its script.
type Table struct {
	name        string
	restriction string
	comment     string
	database    string
	scriptName  string
	level       dialect.Level
	strategy    dialect.Strategy
	formatter   sql.Formatter
	modifiers   bool

	columns   field.Columns
	relations map[string]*edge.Relationship
	rows      []*Row
}

// TableOption configures a Table.
type TableOption func(*Table)

// WithRestriction records the WHERE restriction the rows were captured with.
// It appears in the script header.
func WithRestriction(where string) TableOption {
	return func(t *Table) { t.restriction = strings.TrimSpace(where) }
}

// WithComment sets a free-text comment written below the script header.
func WithComment(comment string) TableOption {
	return func(t *Table) { t.comment = comment }
}

// WithDatabase sets the database the script switches to with USE.
func WithDatabase(name string) TableOption {
	return func(t *Table) { t.database = name }
}

// WithScriptName sets the name of the script file the table is written to.
func WithScriptName(name string) TableOption {
	return func(t *Table) { t.scriptName = name }
}

// WithCompatibility sets the target server compatibility. The default is
// dialect.Modern.
func WithCompatibility(l dialect.Level) TableOption {
	return func(t *Table) { t.level = l }
}

// WithDateTimeLayout sets the layout of datetime literals. The default is
// sql.LegacyDateTime.
func WithDateTimeLayout(layout string) TableOption {
	return func(t *Table) { t.formatter.DateTimeLayout = layout }
}

// WithoutModifiers stops Fill from reading {...} text values as modifiers.
// Values tagged with Modifier are still treated as modifiers.
func WithoutModifiers() TableOption {
	return func(t *Table) { t.modifiers = false }
}

// NewTable returns an empty table.
func NewTable(name string, opts ...TableOption) *Table {
	t := &Table{
		name:      name,
		modifiers: true,
		relations: make(map[string]*edge.Relationship),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.strategy = dialect.For(t.level)
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Restriction returns the capture restriction.
func (t *Table) Restriction() string { return t.restriction }

// Comment returns the table comment.
func (t *Table) Comment() string { return t.comment }

// Database returns the target database name.
func (t *Table) Database() string { return t.database }

// ScriptName returns the target script name.
func (t *Table) ScriptName() string { return t.scriptName }

// Compatibility returns the target compatibility level.
func (t *Table) Compatibility() dialect.Level { return t.level }

// DateTimeLayout returns the layout of datetime literals, "" for the default.
func (t *Table) DateTimeLayout() string { return t.formatter.DateTimeLayout }

// Strategy returns the sub-select strategy of the compatibility level.
func (t *Table) Strategy() dialect.Strategy { return t.strategy }

// Columns returns the table schema, or nil before it is set.
func (t *Table) Columns() field.Columns { return t.columns }

// SetSchema establishes the schema of the table. Columns are ordered by
// ordinal. Once set, the schema can only be set again to an equal one.
func (t *Table) SetSchema(cols field.Columns) error {
	for _, c := range cols {
		if c == nil {
			return fmt.Errorf("datascript: schema of %s: nil column", t.name)
		}
	}
	ordered := make(field.Columns, len(cols))
	copy(ordered, cols)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Ordinal < ordered[j].Ordinal
	})
	ordered = ordered.Clone(t.name)
	if t.columns != nil {
		if len(ordered) != len(t.columns) {
			return datascript.NewSchemaMismatchError(t.name, -1, len(t.columns), len(ordered))
		}
		for i, c := range ordered {
			if !c.Equal(t.columns[i]) {
				return datascript.NewColumnMismatchError(t.name, c.Name)
			}
		}
		return nil
	}
	if err := schema.ValidateTable(t.name, ordered).Err(); err != nil {
		return fmt.Errorf("datascript: schema of %s: %w", t.name, err)
	}
	for name := range t.relations {
		if _, ok := ordered.Lookup(name); !ok {
			return fmt.Errorf("datascript: relationship on unknown column %s.%s", t.name, name)
		}
	}
	t.columns = ordered
	return nil
}

// Relate attaches a relationship, in {Table.Column join} notation, to a
// column. Every row then renders the column as a sub-select.
func (t *Table) Relate(column, notation string) error {
	r, err := edge.Parse(notation)
	if err != nil {
		var fe *datascript.RelationshipFormatError
		if errors.As(err, &fe) {
			fe.Column = column
		}
		return err
	}
	if t.columns != nil {
		c, ok := t.columns.Lookup(column)
		if !ok {
			return fmt.Errorf("datascript: relationship on unknown column %s.%s", t.name, column)
		}
		column = c.Name
	}
	t.relations[field.Fold(column)] = r
	return nil
}

// Relationship returns the relationship attached to a column, if any.
func (t *Table) Relationship(column string) (*edge.Relationship, bool) {
	r, ok := t.relations[field.Fold(column)]
	return r, ok
}

// Fill appends rows of raw values in schema order. The schema must be set.
// Text values written as {template} become modifiers unless the table was
// created WithoutModifiers. Either every row is appended or none is.
func (t *Table) Fill(values ...[]any) error {
	if t.columns == nil {
		return fmt.Errorf("datascript: fill %s: schema not set", t.name)
	}
	for i, v := range values {
		if len(v) != len(t.columns) {
			return datascript.NewSchemaMismatchError(t.name, len(t.rows)+i, len(t.columns), len(v))
		}
	}
	for _, v := range values {
		t.append(v)
	}
	return nil
}

// FillRows appends the rows of a database/sql result set. The first fill
// establishes the schema from the result's column types; later fills must
// match it. The context is checked between rows.
func (t *Table) FillRows(ctx context.Context, rows sql.ColumnScanner, opts ...sql.ScanOption) error {
	types, err := rows.ColumnTypes()
	if err != nil {
		return fmt.Errorf("datascript: fill %s: %w", t.name, err)
	}
	if err := t.SetSchema(sql.Columns(t.name, types, opts...)); err != nil {
		return err
	}
	var filled []*Row
	err = sql.Scan(rows, func(values []any) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		filled = append(filled, t.append(values))
		return nil
	})
	if err != nil {
		t.rows = t.rows[:len(t.rows)-len(filled)]
		return fmt.Errorf("datascript: fill %s: %w", t.name, err)
	}
	return nil
}

func (t *Table) append(values []any) *Row {
	r := &Row{table: t, id: len(t.rows), cells: make([]*Column, len(values))}
	for i, v := range values {
		if t.modifiers {
			if m, ok := modifier(v, t.columns[i]); ok {
				v = m
			}
		}
		r.cells[i] = &Column{Schema: t.columns[i], Value: v, row: r}
	}
	t.rows = append(t.rows, r)
	return r
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Rows returns the rows in fill order.
func (t *Table) Rows() []*Row { return t.rows }

// Row returns the i-th row, or nil if out of range.
func (t *Table) Row(i int) *Row {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i]
}

// Declarations returns the scalar variable declarations needed by the
// relationship columns of the rows, distinct and in first-seen order.
func (t *Table) Declarations() []string {
	if len(t.relations) == 0 {
		return nil
	}
	var (
		decls []string
		seen  = make(map[string]bool)
	)
	for _, r := range t.rows {
		for _, c := range r.cells {
			if !c.IsSubQuery() {
				continue
			}
			d := t.strategy.Declare(c.Variable(), schema.TypeDef(c.Schema))
			if !seen[d] {
				seen[d] = true
				decls = append(decls, d)
			}
		}
	}
	return decls
}

// CreateTable returns the DDL of the table schema.
func (t *Table) CreateTable() string {
	return schema.CreateTable(t.name, t.columns)
}

// String implements fmt.Stringer.
func (t *Table) String() string {
	if t.columns == nil {
		return fmt.Sprintf("%s Where %s", t.name, t.restriction)
	}
	return fmt.Sprintf("%s Where %s Rows %d", t.name, t.restriction, len(t.rows))
}
