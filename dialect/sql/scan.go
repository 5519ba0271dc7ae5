package sql

import (
	"database/sql"
	"fmt"
	"reflect"
	"time"

	"github.com/syssam/datascript/schema/field"
)

// ScanOption configures how a result set's schema is harvested.
type ScanOption func(*scanConfig)

type scanConfig struct {
	keys     []string
	unique   []string
	identity []string
	readOnly []string
}

// WithKeys marks the named columns as the primary key.
func WithKeys(names ...string) ScanOption {
	return func(c *scanConfig) { c.keys = append(c.keys, names...) }
}

// WithUnique marks the named columns as unique.
func WithUnique(names ...string) ScanOption {
	return func(c *scanConfig) { c.unique = append(c.unique, names...) }
}

// WithIdentity marks the named columns as identity columns.
func WithIdentity(names ...string) ScanOption {
	return func(c *scanConfig) { c.identity = append(c.identity, names...) }
}

// WithReadOnly marks the named columns as read-only.
func WithReadOnly(names ...string) ScanOption {
	return func(c *scanConfig) { c.readOnly = append(c.readOnly, names...) }
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if field.EqualFold(n, name) {
			return true
		}
	}
	return false
}

// Columns harvests column descriptors from a result set. database/sql does not
// report key, unique or identity information, so those flags come from opts.
func Columns(table string, types []*sql.ColumnType, opts ...ScanOption) field.Columns {
	cfg := &scanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	cols := make(field.Columns, len(types))
	for i, ct := range types {
		name := ct.DatabaseTypeName()
		m, _ := field.Lookup(name)
		if name == "" {
			if st := ct.ScanType(); st != nil {
				if sm, ok := scanTypes[st]; ok {
					m = sm
				}
			}
		}
		c := &field.Column{
			Name:     ct.Name(),
			Ordinal:  i,
			Type:     m.Type(),
			TypeName: m.SQLName(),
			Table:    table,
			Nullable: true,
		}
		if n, ok := ct.Nullable(); ok {
			c.Nullable = n
		}
		if n, ok := ct.Length(); ok && n > 0 && n < 1<<31 {
			c.Size = int(n)
		}
		if p, s, ok := ct.DecimalSize(); ok {
			c.Precision, c.Scale = int(p), int(s)
		}
		c.Key = contains(cfg.keys, c.Name)
		c.Unique = contains(cfg.unique, c.Name)
		if contains(cfg.identity, c.Name) {
			c.Identity, c.AutoIncrement = true, true
		}
		c.ReadOnly = contains(cfg.readOnly, c.Name)
		cols[i] = c
	}
	return cols
}

// scanTypes maps the Go scan types reported by drivers that carry no declared
// type name (SQLite expressions, for example).
var scanTypes = map[reflect.Type]field.Mapping{}

func init() {
	for _, e := range []struct {
		v any
		t field.Type
	}{
		{int64(0), field.TypeInteger},
		{int32(0), field.TypeInteger},
		{float64(0), field.TypeFloat},
		{"", field.TypeText},
		{[]byte(nil), field.TypeBinary},
		{false, field.TypeBoolean},
		{time.Time{}, field.TypeDateTime},
		{sql.NullInt64{}, field.TypeInteger},
		{sql.NullFloat64{}, field.TypeFloat},
		{sql.NullString{}, field.TypeText},
		{sql.NullBool{}, field.TypeBoolean},
		{sql.NullTime{}, field.TypeDateTime},
	} {
		m, _ := field.Lookup(e.t.SQLName())
		scanTypes[reflect.TypeOf(e.v)] = m
	}
}

// Scan reads every remaining row of rows and calls fn with its values, in
// column order. Byte slices are copied, since drivers may reuse them.
func Scan(rows ColumnScanner, fn func(values []any) error) error {
	cols, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("dialect/sql: scan columns: %w", err)
	}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("dialect/sql: scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
		}
		if err := fn(values); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("dialect/sql: scan rows: %w", err)
	}
	return nil
}
