package script

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/syssam/datascript/dialect"
	"github.com/syssam/datascript/schema/field"
)

var testClock = func() time.Time { return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC) }

// testOptions makes headers deterministic.
func testOptions(opts ...Option) []Option {
	return append([]Option{
		WithClock(testClock),
		WithIdentity("tester", "EXAMPLE", "BUILD01"),
	}, opts...)
}

func personColumns() field.Columns {
	return field.Columns{
		field.Int("Id").AsIdentity(),
		field.String("Name", 50),
		field.Bool("Active"),
	}
}

func newPerson(t testing.TB, rows ...[]any) *Table {
	t.Helper()
	tbl := NewTable("Person")
	require.NoError(t, tbl.SetSchema(personColumns()))
	require.NoError(t, tbl.Fill(rows...))
	return tbl
}

func employeeColumns() field.Columns {
	return field.Columns{
		field.Int("Id").PrimaryKey(),
		field.String("Name", 50),
		field.String("DeptName", 50),
		field.Int("DeptId"),
	}
}

func newEmployee(t testing.TB, level dialect.Level, rows ...[]any) *Table {
	t.Helper()
	tbl := NewTable("Employee", WithCompatibility(level))
	require.NoError(t, tbl.SetSchema(employeeColumns()))
	require.NoError(t, tbl.Relate("DeptId", "{Department.Id [Name] = :DeptName}"))
	require.NoError(t, tbl.Fill(rows...))
	return tbl
}
