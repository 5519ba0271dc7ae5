package load

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/syssam/datascript/dialect"
	"github.com/syssam/datascript/schema/field"
	"github.com/syssam/datascript/script"
)

// Fixture is a captured table written by hand or exported as YAML:
//
//	table: Employee
//	where: Active = 1
//	compat: legacy
//	columns:
//	  - {name: Id, type: int, key: true}
//	  - {name: Name, type: nvarchar(50)}
//	  - {name: DeptName, type: varchar(50)}
//	  - {name: DeptId, type: int}
//	relationships:
//	  DeptId: "{Department.Id [Name] = :DeptName}"
//	rows:
//	  - [1, Ann, Sales, 10]
//	  - values: [2, Bob, IT, 20]
//	    comment: transferred
type Fixture struct {
	Table          string            `yaml:"table"`
	Restriction    string            `yaml:"where,omitempty"`
	Comment        string            `yaml:"comment,omitempty"`
	Database       string            `yaml:"database,omitempty"`
	ScriptName     string            `yaml:"script,omitempty"`
	Compatibility  dialect.Level     `yaml:"compat,omitempty"`
	DateTimeLayout string            `yaml:"datetime_layout,omitempty"`
	Columns        []ColumnSpec      `yaml:"columns"`
	Relationships  map[string]string `yaml:"relationships,omitempty"`
	Rows           []RowSpec         `yaml:"rows"`
}

// ColumnSpec describes one fixture column. Type is a declared database type
// such as nvarchar(50), decimal(10,2) or uniqueidentifier.
type ColumnSpec struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Size      int    `yaml:"size,omitempty"`
	Precision int    `yaml:"precision,omitempty"`
	Scale     int    `yaml:"scale,omitempty"`
	Key       bool   `yaml:"key,omitempty"`
	Unique    bool   `yaml:"unique,omitempty"`
	Identity  bool   `yaml:"identity,omitempty"`
	ReadOnly  bool   `yaml:"readonly,omitempty"`
	Nullable  *bool  `yaml:"nullable,omitempty"`
}

// RowSpec is one fixture row, written either as a plain sequence of values
// or as a mapping with values and a comment.
type RowSpec struct {
	Comment string
	Values  []*yaml.Node
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (r *RowSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		r.Values = node.Content
		return nil
	case yaml.MappingNode:
		var row struct {
			Comment string       `yaml:"comment"`
			Values  []*yaml.Node `yaml:"values"`
		}
		if err := node.Decode(&row); err != nil {
			return err
		}
		r.Comment, r.Values = row.Comment, row.Values
		return nil
	}
	return fmt.Errorf("load: line %d: row must be a sequence or a mapping", node.Line)
}

// Validate checks the fixture metadata.
func (f Fixture) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Table, validation.Required),
		validation.Field(&f.Columns, validation.Required),
	)
}

// Validate checks a column description.
func (c ColumnSpec) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Name, validation.Required),
		validation.Field(&c.Type, validation.Required),
		validation.Field(&c.Size, validation.Min(0)),
		validation.Field(&c.Scale, validation.Min(0)),
	)
}

// Parse decodes a YAML fixture.
func Parse(data []byte) (*Fixture, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a YAML fixture from r.
func Decode(r io.Reader) (*Fixture, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("load: decode fixture: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("load: fixture %s: %w", f.Table, err)
	}
	return &f, nil
}

// ReadFile reads a YAML fixture file.
func ReadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return Parse(data)
}

// Schema returns the column schema of the fixture.
func (f *Fixture) Schema() (field.Columns, error) {
	cols := make(field.Columns, len(f.Columns))
	for i, spec := range f.Columns {
		c, err := spec.column(i)
		if err != nil {
			return nil, fmt.Errorf("load: fixture %s: %w", f.Table, err)
		}
		cols[i] = c
	}
	return cols, nil
}

func (spec ColumnSpec) column(ordinal int) (*field.Column, error) {
	m, ok := field.Lookup(spec.Type)
	if !ok {
		return nil, fmt.Errorf("column %s: unknown type %q", spec.Name, spec.Type)
	}
	c := &field.Column{
		Name:      spec.Name,
		Ordinal:   ordinal,
		Type:      m.Type(),
		TypeName:  m.SQLName(),
		Size:      spec.Size,
		Precision: spec.Precision,
		Scale:     spec.Scale,
		Key:       spec.Key,
		Unique:    spec.Unique,
		Identity:  spec.Identity,
		ReadOnly:  spec.ReadOnly,
		Nullable:  !spec.Key && !spec.Identity,
	}
	c.AutoIncrement = c.Identity
	if spec.Nullable != nil {
		c.Nullable = *spec.Nullable
	}
	if err := typeArgs(spec.Type, c); err != nil {
		return nil, fmt.Errorf("column %s: %w", spec.Name, err)
	}
	return c, nil
}

// typeArgs reads the size or precision written in a declared type, as in
// varchar(50), nvarchar(max) or decimal(10,2). Explicit fields win.
func typeArgs(declared string, c *field.Column) error {
	_, args, ok := strings.Cut(declared, "(")
	if !ok {
		return nil
	}
	args, ok = strings.CutSuffix(strings.TrimSpace(args), ")")
	if !ok {
		return fmt.Errorf("malformed type %q", declared)
	}
	first, second, scaled := strings.Cut(args, ",")
	first = strings.TrimSpace(first)
	if strings.EqualFold(first, "max") {
		return nil
	}
	n, err := strconv.Atoi(first)
	if err != nil {
		return fmt.Errorf("malformed type %q: %w", declared, err)
	}
	if c.Type != field.TypeDecimal {
		if c.Size == 0 {
			c.Size = n
		}
		return nil
	}
	if c.Precision == 0 {
		c.Precision = n
	}
	if scaled && c.Scale == 0 {
		s, err := strconv.Atoi(strings.TrimSpace(second))
		if err != nil {
			return fmt.Errorf("malformed type %q: %w", declared, err)
		}
		c.Scale = s
	}
	return nil
}

// Build returns a filled script table for the fixture. Options are applied
// after the fixture metadata.
func (f *Fixture) Build(opts ...script.TableOption) (*script.Table, error) {
	cols, err := f.Schema()
	if err != nil {
		return nil, err
	}
	meta := []script.TableOption{
		script.WithRestriction(f.Restriction),
		script.WithComment(f.Comment),
		script.WithDatabase(f.Database),
		script.WithScriptName(f.ScriptName),
		script.WithCompatibility(f.Compatibility),
	}
	if f.DateTimeLayout != "" {
		meta = append(meta, script.WithDateTimeLayout(f.DateTimeLayout))
	}
	t := script.NewTable(f.Table, append(meta, opts...)...)
	if err := t.SetSchema(cols); err != nil {
		return nil, err
	}
	for column, notation := range f.Relationships {
		if err := t.Relate(column, notation); err != nil {
			return nil, err
		}
	}
	rows := make([][]any, len(f.Rows))
	for i, r := range f.Rows {
		if len(r.Values) != len(cols) {
			return nil, fmt.Errorf("load: fixture %s row %d: want %d values, got %d", f.Table, i, len(cols), len(r.Values))
		}
		values := make([]any, len(cols))
		for j, node := range r.Values {
			v, err := Value(node, cols[j])
			if err != nil {
				return nil, fmt.Errorf("load: fixture %s row %d: %w", f.Table, i, err)
			}
			values[j] = v
		}
		rows[i] = values
	}
	if err := t.Fill(rows...); err != nil {
		return nil, err
	}
	for i, r := range f.Rows {
		if r.Comment != "" {
			t.Row(i).SetComment(r.Comment)
		}
	}
	return t, nil
}
