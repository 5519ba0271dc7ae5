package load

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/syssam/datascript/dialect"
	"github.com/syssam/datascript/schema/field"
	"github.com/syssam/datascript/script"
)

func TestReadFile(t *testing.T) {
	f, err := ReadFile("testdata/employee.yaml")
	require.NoError(t, err)
	assert.Equal(t, "Employee", f.Table)
	assert.Equal(t, dialect.Legacy, f.Compatibility)
	require.Len(t, f.Rows, 2)
	assert.Equal(t, "transferred", f.Rows[1].Comment)

	cols, err := f.Schema()
	require.NoError(t, err)
	want := []struct {
		name      string
		typ       field.Type
		sqlType   string
		size      int
		precision int
		scale     int
	}{
		{"Id", field.TypeInteger, "int", 0, 0, 0},
		{"Name", field.TypeText, "nvarchar", 50, 0, 0},
		{"DeptName", field.TypeText, "varchar", 50, 0, 0},
		{"DeptId", field.TypeInteger, "int", 0, 0, 0},
		{"Salary", field.TypeDecimal, "decimal", 0, 10, 2},
		{"Hired", field.TypeDateTime, "datetime", 0, 0, 0},
		{"Badge", field.TypeGUID, "uniqueidentifier", 0, 0, 0},
		{"Active", field.TypeBoolean, "bit", 0, 0, 0},
		{"Photo", field.TypeBinary, "varbinary", 0, 0, 0},
	}
	require.Len(t, cols, len(want))
	for i, w := range want {
		c := cols[i]
		assert.Equal(t, w.name, c.Name)
		assert.Equal(t, i, c.Ordinal)
		assert.Equal(t, w.typ, c.Type, w.name)
		assert.Equal(t, w.sqlType, c.SQLType(), w.name)
		assert.Equal(t, w.size, c.Size, w.name)
		assert.Equal(t, w.precision, c.Precision, w.name)
		assert.Equal(t, w.scale, c.Scale, w.name)
	}
	assert.False(t, cols[0].Nullable)
	assert.True(t, cols[1].Nullable)
}

func TestFixtureBuild(t *testing.T) {
	f, err := ReadFile("testdata/employee.yaml")
	require.NoError(t, err)
	tbl, err := f.Build()
	require.NoError(t, err)

	assert.Equal(t, "Active = 1", tbl.Restriction())
	assert.Equal(t, "HR", tbl.Database())
	require.Equal(t, 2, tbl.Len())
	assert.Equal(t, "[Id],[Name],[DeptName],[DeptId],[Salary],[Hired],[Badge],[Active],[Photo]", tbl.Row(0).Fields())
	assert.Equal(t,
		"1,'O''Brien','Sales',@Employee_DeptId,1250.5,'2021-03-04 09:05:06','6ba7b810-9dad-11d1-80b4-00c04fd430c8',1,0xCAFE",
		tbl.Row(0).Values())
	assert.Equal(t, "2,'Bob','IT',@Employee_DeptId,(getdate()),0", tbl.Row(1).Values())
	assert.Equal(t, "transferred", tbl.Row(1).Comment())
	assert.Equal(t, []string{"declare @Employee_DeptId as int;"}, tbl.Declarations())

	tbl, err = f.Build(script.WithCompatibility(dialect.Modern))
	require.NoError(t, err)
	assert.Contains(t, tbl.Row(0).Values(), "(select [Id] from [Department] where [Name] = 'Sales')")
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"NoTable", "columns: [{name: Id, type: int}]\nrows: []"},
		{"NoColumns", "table: T\nrows: []"},
		{"UnnamedColumn", "table: T\ncolumns: [{type: int}]"},
		{"UntypedColumn", "table: T\ncolumns: [{name: Id}]"},
		{"UnknownField", "table: T\ncolumns: [{name: Id, type: int}]\nowner: me"},
		{"BadCompat", "table: T\ncompat: sql2000\ncolumns: [{name: Id, type: int}]"},
		{"ScalarRow", "table: T\ncolumns: [{name: Id, type: int}]\nrows: [1]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestFixtureBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"UnknownType", "table: T\ncolumns: [{name: Id, type: hierarchyid}]"},
		{"MalformedType", "table: T\ncolumns: [{name: Id, type: varchar(ten)}]"},
		{"ShortRow", "table: T\ncolumns: [{name: Id, type: int}, {name: N, type: int}]\nrows: [[1]]"},
		{"BadInt", "table: T\ncolumns: [{name: Id, type: int}]\nrows: [[one]]"},
		{"BadGUID", "table: T\ncolumns: [{name: Id, type: uuid}]\nrows: [[nope]]"},
		{"BadDateTime", "table: T\ncolumns: [{name: At, type: datetime}]\nrows: [[yesterday]]"},
		{"NestedValue", "table: T\ncolumns: [{name: Id, type: int}]\nrows: [[[1]]]"},
		{"BadRelationship", "table: T\ncolumns: [{name: Id, type: int}]\nrelationships: {Id: nope}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			require.NoError(t, err)
			_, err = f.Build()
			require.Error(t, err)
		})
	}
}

func TestValue(t *testing.T) {
	node := func(s string) *yaml.Node {
		var doc yaml.Node
		require.NoError(t, yaml.Unmarshal([]byte(s), &doc))
		return doc.Content[0]
	}
	tests := []struct {
		name string
		in   string
		col  *field.Column
		want any
	}{
		{"Null", "~", field.Int("c"), nil},
		{"Int", "42", field.Int("c"), int64(42)},
		{"Decimal", "12.50", field.Decimal("c", 10, 2), decimal.RequireFromString("12.5")},
		{"Float", "1.5", field.Float("c"), 1.5},
		{"Bool", "true", field.Bool("c"), true},
		{"Text", "hello", field.String("c", 10), "hello"},
		{"QuotedNull", `"null"`, field.String("c", 10), "null"},
		{"DateTime", "2021-03-04 21:05:06", field.DateTime("c"), time.Date(2021, 3, 4, 21, 5, 6, 0, time.UTC)},
		{"Date", "2021-03-04", field.DateTime("c"), time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC)},
		{"GUID", "6ba7b810-9dad-11d1-80b4-00c04fd430c8", field.UUID("c"), uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")},
		{"Hex", "0x00ff", field.Bytes("c", 2), []byte{0x00, 0xff}},
		{"Modifier", "'{getdate()}'", field.DateTime("c"), "{getdate()}"},
		{"Time", "09:30:00", field.Time("c"), "09:30:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Value(node(tt.in), tt.col)
			require.NoError(t, err)
			if d, ok := tt.want.(decimal.Decimal); ok {
				assert.True(t, d.Equal(got.(decimal.Decimal)))
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	f, err := ReadFile("testdata/employee.yaml")
	require.NoError(t, err)
	want, err := f.Build(script.WithScriptName("employee.sql"), script.WithDateTimeLayout("2006-01-02 15:04:05"))
	require.NoError(t, err)
	want.Row(0).SetComment("first")

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, want))
	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)

	assert.Equal(t, want.Name(), got.Name())
	assert.Equal(t, want.Restriction(), got.Restriction())
	assert.Equal(t, want.Comment(), got.Comment())
	assert.Equal(t, want.Database(), got.Database())
	assert.Equal(t, "employee.sql", got.ScriptName())
	assert.Equal(t, dialect.Legacy, got.Compatibility())
	assert.Equal(t, "2006-01-02 15:04:05", got.DateTimeLayout())
	if diff := cmp.Diff(want.Columns(), got.Columns()); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
	_, ok := got.Relationship("DeptId")
	assert.True(t, ok)

	require.Equal(t, want.Len(), got.Len())
	for i := range want.Rows() {
		assert.Equal(t, want.Row(i).Values(), got.Row(i).Values(), "row %d", i)
		assert.Equal(t, want.Row(i).Comment(), got.Row(i).Comment(), "row %d", i)
	}
	assert.Contains(t, got.Row(0).Values(), "'2021-03-04 21:05:06'")

	var a, b bytes.Buffer
	opts := []script.Option{
		script.WithClock(func() time.Time { return time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC) }),
		script.WithIdentity("u", "d", "m"),
		script.WithType(script.InsertUpdate),
	}
	require.NoError(t, script.Generate(&a, want, opts...))
	require.NoError(t, script.Generate(&b, got, opts...))
	assert.Equal(t, a.String(), b.String())
}

func TestSnapshotModifiers(t *testing.T) {
	tbl := script.NewTable("Task", script.WithoutModifiers())
	require.NoError(t, tbl.SetSchema(field.Columns{
		field.Int("Id").PrimaryKey(),
		field.String("Title", 20),
		field.DateTime("Due"),
	}))
	require.NoError(t, tbl.Fill([]any{1, "{not a modifier}", script.Modifier("getdate()")}))

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, tbl))
	got, err := ReadSnapshot(&buf)
	require.NoError(t, err)
	assert.Equal(t, "1,'{not a modifier}',(getdate())", got.Row(0).Values())
}

func TestSnapshotVersion(t *testing.T) {
	s := &Snapshot{Version: 99, Table: "T"}
	_, err := s.Build()
	require.ErrorIs(t, err, ErrSnapshotVersion)

	_, err = ReadSnapshot(bytes.NewReader([]byte{0xc1}))
	require.Error(t, err)
}

func TestSnapshotFile(t *testing.T) {
	f, err := ReadFile("testdata/employee.yaml")
	require.NoError(t, err)
	tbl, err := f.Build()
	require.NoError(t, err)

	path := t.TempDir() + "/employee.msgpack"
	require.NoError(t, SaveSnapshot(path, tbl))
	got, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Len(), got.Len())

	_, err = LoadSnapshot(t.TempDir() + "/missing.msgpack")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrSnapshotVersion))
}
