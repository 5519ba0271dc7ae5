package load

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/syssam/datascript/dialect"
	"github.com/syssam/datascript/dialect/sql"
	"github.com/syssam/datascript/schema/field"
	"github.com/syssam/datascript/script"
)

// SnapshotVersion is the version of the snapshot encoding.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when reading a snapshot of another version.
var ErrSnapshotVersion = errors.New("load: unsupported snapshot version")

// Snapshot is the msgpack form of a filled table, kept to regenerate its
// scripts without the source database.
type Snapshot struct {
	Version        int               `msgpack:"version"`
	Captured       time.Time         `msgpack:"captured"`
	Table          string            `msgpack:"table"`
	Restriction    string            `msgpack:"where,omitempty"`
	Comment        string            `msgpack:"comment,omitempty"`
	Database       string            `msgpack:"database,omitempty"`
	ScriptName     string            `msgpack:"script,omitempty"`
	Compatibility  dialect.Level     `msgpack:"compat"`
	DateTimeLayout string            `msgpack:"datetime_layout,omitempty"`
	Columns        []field.Column    `msgpack:"columns"`
	Relationships  map[string]string `msgpack:"relationships,omitempty"`
	Rows           []SnapshotRow     `msgpack:"rows"`
}

// SnapshotRow is one row of a snapshot. Modifiers lists the positions of
// values tagged as modifiers.
type SnapshotRow struct {
	Comment   string `msgpack:"comment,omitempty"`
	Values    []any  `msgpack:"values"`
	Modifiers []int  `msgpack:"modifiers,omitempty"`
}

// NewSnapshot captures the schema, rows and metadata of t.
func NewSnapshot(t *script.Table) *Snapshot {
	s := &Snapshot{
		Version:        SnapshotVersion,
		Captured:       time.Now().UTC(),
		Table:          t.Name(),
		Restriction:    t.Restriction(),
		Comment:        t.Comment(),
		Database:       t.Database(),
		ScriptName:     t.ScriptName(),
		Compatibility:  t.Compatibility(),
		DateTimeLayout: t.DateTimeLayout(),
		Columns:        make([]field.Column, len(t.Columns())),
		Rows:           make([]SnapshotRow, t.Len()),
	}
	for i, c := range t.Columns() {
		s.Columns[i] = *c
		if r, ok := t.Relationship(c.Name); ok {
			if s.Relationships == nil {
				s.Relationships = make(map[string]string)
			}
			s.Relationships[c.Name] = r.String()
		}
	}
	for i, r := range t.Rows() {
		row := SnapshotRow{Comment: r.Comment(), Values: make([]any, len(r.Columns()))}
		for j, c := range r.Columns() {
			if m, ok := c.Value.(script.Modifier); ok {
				row.Values[j] = string(m)
				row.Modifiers = append(row.Modifiers, j)
				continue
			}
			row.Values[j] = encodable(c.Value)
		}
		s.Rows[i] = row
	}
	return s
}

// encodable reduces a cell value to a form that survives msgpack unchanged.
// Times are kept as RFC 3339 text so their zone offset is preserved.
func encodable(v any) any {
	v, ok := sql.Value(v)
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case time.Time:
		return x.Format(time.RFC3339Nano)
	case string, []byte, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v
	}
	return sql.Natural(v)
}

// Build rebuilds the filled table of the snapshot.
func (s *Snapshot) Build(opts ...script.TableOption) (*script.Table, error) {
	if s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}
	meta := []script.TableOption{
		script.WithRestriction(s.Restriction),
		script.WithComment(s.Comment),
		script.WithDatabase(s.Database),
		script.WithScriptName(s.ScriptName),
		script.WithCompatibility(s.Compatibility),
		script.WithoutModifiers(),
	}
	if s.DateTimeLayout != "" {
		meta = append(meta, script.WithDateTimeLayout(s.DateTimeLayout))
	}
	t := script.NewTable(s.Table, append(meta, opts...)...)
	cols := make(field.Columns, len(s.Columns))
	for i := range s.Columns {
		c := s.Columns[i]
		cols[i] = &c
	}
	if err := t.SetSchema(cols); err != nil {
		return nil, err
	}
	for column, notation := range s.Relationships {
		if err := t.Relate(column, notation); err != nil {
			return nil, err
		}
	}
	rows := make([][]any, len(s.Rows))
	for i, r := range s.Rows {
		if len(r.Values) != len(cols) {
			return nil, fmt.Errorf("load: snapshot %s row %d: want %d values, got %d", s.Table, i, len(cols), len(r.Values))
		}
		values := make([]any, len(r.Values))
		for j, v := range r.Values {
			values[j] = decoded(v, cols[j])
		}
		for _, j := range r.Modifiers {
			if j < 0 || j >= len(values) {
				continue
			}
			if text, ok := r.Values[j].(string); ok {
				values[j] = script.Modifier(text)
			}
		}
		rows[i] = values
	}
	if err := t.Fill(rows...); err != nil {
		return nil, err
	}
	for i, r := range s.Rows {
		if r.Comment != "" {
			t.Row(i).SetComment(r.Comment)
		}
	}
	return t, nil
}

func decoded(v any, c *field.Column) any {
	text, ok := v.(string)
	if !ok || c.Type != field.TypeDateTime && c.Type != field.TypeTime {
		return v
	}
	if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
		return t
	}
	return v
}

// WriteSnapshot writes the msgpack snapshot of t to w.
func WriteSnapshot(w io.Writer, t *script.Table) error {
	bw := bufio.NewWriter(w)
	if err := msgpack.NewEncoder(bw).Encode(NewSnapshot(t)); err != nil {
		return fmt.Errorf("load: write snapshot %s: %w", t.Name(), err)
	}
	return bw.Flush()
}

// ReadSnapshot reads a msgpack snapshot from r and rebuilds its table.
func ReadSnapshot(r io.Reader, opts ...script.TableOption) (*script.Table, error) {
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	dec.UseLooseInterfaceDecoding(true)
	var s Snapshot
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("load: read snapshot: %w", err)
	}
	return s.Build(opts...)
}

// SaveSnapshot writes the snapshot of t to a file.
func SaveSnapshot(path string, t *script.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("load: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return WriteSnapshot(f, t)
}

// LoadSnapshot reads a snapshot file.
func LoadSnapshot(path string, opts ...script.TableOption) (*script.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	defer f.Close()
	return ReadSnapshot(f, opts...)
}
