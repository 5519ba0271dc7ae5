package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/datascript/schema/field"
)

func person() field.Columns {
	return field.Columns{
		field.Int("Id").PrimaryKey().AsIdentity(),
		field.NString("Name", 50),
		field.Decimal("Salary", 10, 2).NotNull(),
		field.String("Notes", 0),
		field.Bool("Active"),
	}.Clone("Person")
}

func TestCreateTable(t *testing.T) {
	want := "CREATE TABLE [Person](\r\n" +
		"\t[Id] [int] IDENTITY(1,1) NOT NULL,\r\n" +
		"\t[Name] [nvarchar](50) NULL,\r\n" +
		"\t[Salary] [decimal](10,2) NOT NULL,\r\n" +
		"\t[Notes] [varchar](MAX) NULL,\r\n" +
		"\t[Active] [bit] NULL,\r\n" +
		"\tCONSTRAINT [PK_Person] PRIMARY KEY CLUSTERED\r\n" +
		"\t(\r\n" +
		"\t\t[Id] ASC\r\n" +
		"\t)\r\n" +
		")"
	assert.Equal(t, want, CreateTable("Person", person()))
}

func TestCreateTableCompositeKey(t *testing.T) {
	cols := field.Columns{
		field.Int("OrderId").PrimaryKey(),
		field.Int("LineNo").PrimaryKey(),
		field.Int("Qty"),
	}.Clone("OrderLine")
	got := CreateTable("OrderLine", cols)
	assert.Contains(t, got, "CONSTRAINT [PK_OrderLine] PRIMARY KEY CLUSTERED\r\n\t(\r\n\t\t[OrderId] ASC,\r\n\t\t[LineNo] ASC\r\n\t)")
	assert.Contains(t, got, "\t[OrderId] [int] NOT NULL,\r\n")
}

func TestCreateTableWithoutKey(t *testing.T) {
	cols := field.Columns{field.Text("Body"), field.UUID("Token")}.Clone("Log")
	want := "CREATE TABLE [Log](\r\n" +
		"\t[Body] [text] NULL,\r\n" +
		"\t[Token] [uniqueidentifier] NULL\r\n" +
		")"
	assert.Equal(t, want, CreateTable("Log", cols))
}

func TestTypeDef(t *testing.T) {
	tests := []struct {
		col  *field.Column
		want string
	}{
		{field.Int("a"), "int"},
		{field.BigInt("a"), "bigint"},
		{field.String("a", 20), "varchar(20)"},
		{field.NString("a", 0), "nvarchar(MAX)"},
		{field.Bytes("a", 16), "varbinary(16)"},
		{field.Decimal("a", 18, 4), "decimal(18,4)"},
		{field.Decimal("a", 0, 0), "decimal"},
		{field.Text("a"), "text"},
		{field.DateTime("a"), "datetime"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeDef(tt.col))
	}
}

func TestValidateTable(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		r := ValidateTable("Person", person())
		assert.False(t, r.HasErrors())
		assert.False(t, r.HasWarnings())
		assert.NoError(t, r.Err())
		assert.Equal(t, "No issues found", r.String())
	})

	t.Run("Errors", func(t *testing.T) {
		cols := field.Columns{
			field.Int("Id").PrimaryKey(),
			field.String("name", 10),
			field.String("NAME", -1),
			field.Decimal("Rate", 2, 5),
		}.Clone("T")
		cols[3].Ordinal = 9
		r := ValidateTable("T", cols)
		require.True(t, r.HasErrors())
		require.Len(t, r.Errors, 4)
		assert.Equal(t, "T.NAME: duplicate column name", r.Errors[0].Error())
		assert.Equal(t, "T.NAME: negative size -1", r.Errors[1].Error())
		assert.Equal(t, "T.Rate: ordinal 9 does not match position 3", r.Errors[2].Error())
		assert.Equal(t, "T.Rate: scale 5 exceeds precision 2", r.Errors[3].Error())
		assert.Error(t, r.Err())
		assert.Contains(t, r.String(), "Errors:\n  - T.NAME: duplicate column name\n")
	})

	t.Run("Empty", func(t *testing.T) {
		r := ValidateTable("", nil)
		require.Len(t, r.Errors, 2)
		assert.Equal(t, ": empty table name", r.Errors[0].Error())
		assert.Equal(t, ": table has no columns", r.Errors[1].Error())
	})

	t.Run("Warnings", func(t *testing.T) {
		key := field.Int("Id")
		key.Key = true
		r := ValidateTable("W", field.Columns{key}.Clone("W"))
		assert.False(t, r.HasErrors())
		require.Len(t, r.Warnings, 1)
		assert.Equal(t, "W.Id: nullable primary key column", r.Warnings[0].Error())

		r = ValidateTable("Log", field.Columns{field.Text("Body")}.Clone("Log"))
		require.Len(t, r.Warnings, 1)
		assert.Contains(t, r.Warnings[0].Error(), "rows cannot be updated or deleted")
		assert.Contains(t, r.String(), "Warnings:\n")
	})
}
