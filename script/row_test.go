package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/datascript"
	"github.com/syssam/datascript/dialect"
	"github.com/syssam/datascript/schema/field"
)

func TestRowInsertStatement(t *testing.T) {
	r := newPerson(t, []any{1, "O'Brien", true}).Row(0)
	assert.Equal(t, "[Name],[Active]", r.Fields())
	assert.Equal(t, "'O''Brien',1", r.Values())
	assert.Equal(t, "INSERT INTO [Person] ([Name],[Active])\r\nVALUES ('O''Brien',1)", r.InsertStatement())
}

func TestRowUpdateStatement(t *testing.T) {
	r := newPerson(t, []any{1, "O'Brien", true}).Row(0)
	stmt, err := r.UpdateStatement()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE [Person]\r\n   SET [Name] = 'O''Brien', [Active] = 1\r\n WHERE [Id] = 1", stmt)
}

func TestRowDeleteStatement(t *testing.T) {
	r := newPerson(t, []any{1, "O'Brien", true}).Row(0)
	stmt, err := r.DeleteStatement()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM [Person]\r\n WHERE [Id] = 1", stmt)
}

func TestRowNulls(t *testing.T) {
	var name *string
	r := newPerson(t, []any{7, name, nil}).Row(0)
	assert.Empty(t, r.Fields())
	assert.Empty(t, r.Values())
	assert.Empty(t, r.SetValues())
	assert.Equal(t, "INSERT INTO [Person] ()\r\nVALUES ()", r.InsertStatement())

	c, ok := r.Column("name")
	require.True(t, ok)
	assert.True(t, c.IsNull())
	assert.Equal(t, "null", c.Literal())
}

func TestRowExcludesIdentityAndReadOnly(t *testing.T) {
	tbl := NewTable("Doc")
	require.NoError(t, tbl.SetSchema(field.Columns{
		field.Int("Id").AsIdentity(),
		field.String("Title", 100),
		field.Bytes("Version", 8).Declared("rowversion").AsReadOnly(),
		field.DateTime("Created"),
	}))
	require.NoError(t, tbl.Fill([]any{3, "Plan", []byte{0, 1}, "2021-03-04 21:05:06"}))
	r := tbl.Row(0)
	assert.Equal(t, "[Title],[Created]", r.Fields())
	assert.Equal(t, "'Plan','2021-03-04 09:05:06'", r.Values())
	assert.Equal(t, "[Title] = 'Plan', [Created] = '2021-03-04 09:05:06'", r.SetValues())
}

func TestRowFieldsParallelValues(t *testing.T) {
	tbl := NewTable("Mixed")
	require.NoError(t, tbl.SetSchema(field.Columns{
		field.Int("Id").PrimaryKey(),
		field.String("A", 10),
		field.String("B", 10),
		field.Decimal("C", 10, 2),
		field.Bool("D"),
	}))
	require.NoError(t, tbl.Fill(
		[]any{1, "x, y", nil, 1.5, true},
		[]any{2, nil, "it's, here", nil, false},
		[]any{3, "", "", 0, nil},
	))
	for _, r := range tbl.Rows() {
		fields := strings.Split(r.Fields(), ",")
		assert.Len(t, splitLiterals(r.Values()), len(fields), r.String())
	}
}

// splitLiterals splits a comma separated literal list, ignoring commas
// inside quoted text.
func splitLiterals(s string) []string {
	var (
		parts []string
		start int
		quote bool
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			quote = !quote
		case ',':
			if !quote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func TestRowWhereClausePrecedence(t *testing.T) {
	tbl := NewTable("Account")
	require.NoError(t, tbl.SetSchema(field.Columns{
		field.Int("Seq").AsIdentity(),
		field.Int("Region").PrimaryKey(),
		field.Int("Number").PrimaryKey(),
		field.String("Code", 10).AsUnique(),
	}))
	require.NoError(t, tbl.Fill(
		[]any{1, 44, 1001, "A-1"},
		[]any{2, nil, nil, "B-2"},
		[]any{3, nil, nil, nil},
		[]any{nil, nil, nil, nil},
	))

	tests := []struct {
		row  int
		want string
	}{
		{0, "[Region] = 44 and [Number] = 1001"},
		{1, "[Code] = 'B-2'"},
		{2, "[Seq] = 3"},
	}
	for _, tt := range tests {
		w, err := tbl.Row(tt.row).WhereClause()
		require.NoError(t, err)
		assert.Equal(t, tt.want, w)
	}

	_, err := tbl.Row(3).WhereClause()
	require.Error(t, err)
	assert.True(t, datascript.IsNoIdentifyingColumn(err))
	var nerr *datascript.NoIdentifyingColumnError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Account", nerr.Table)
	assert.Equal(t, 3, nerr.Row)

	_, err = tbl.Row(3).UpdateStatement()
	assert.ErrorIs(t, err, datascript.ErrNoIdentifyingColumn)
	_, err = tbl.Row(3).DeleteStatement()
	assert.ErrorIs(t, err, datascript.ErrNoIdentifyingColumn)
}

func TestRowSubQueryModern(t *testing.T) {
	tbl := newEmployee(t, dialect.Modern, []any{1, "Ann", "Sales", 10})
	r := tbl.Row(0)
	const sel = "(select [Id] from [Department] where [Name] = 'Sales')"
	assert.Equal(t, "1,'Ann','Sales',"+sel, r.Values())
	assert.Contains(t, r.SetValues(), "[DeptId] = "+sel)

	c, ok := r.Column("DeptId")
	require.True(t, ok)
	assert.Equal(t, KindSubQuery, c.Kind())
	assert.Equal(t, "@Employee_DeptId", c.Variable())
	assert.Equal(t, "SET @Employee_DeptId = (select [Id] from [Department] where [Name] = 'Sales')", r.SubQueries())
}

func TestRowSubQueryLegacy(t *testing.T) {
	tbl := newEmployee(t, dialect.Legacy, []any{1, "Ann", "Sales", 10})
	r := tbl.Row(0)
	assert.Equal(t, "1,'Ann','Sales',@Employee_DeptId", r.Values())
	assert.Equal(t, "SET @Employee_DeptId = (select [Id] from [Department] where [Name] = 'Sales')", r.SubQueries())
}

func TestRowSubQueryLeadingWhere(t *testing.T) {
	tbl := NewTable("Person")
	require.NoError(t, tbl.SetSchema(field.Columns{
		field.Int("Id").AsIdentity(),
		field.String("name", 50),
		field.Int("DeptId"),
	}))
	require.NoError(t, tbl.Relate("DeptId", "{Department.Id where [Name] = :name}"))
	require.NoError(t, tbl.Fill([]any{1, "Sales", 4}))
	assert.Equal(t, "'Sales',(select [Id] from [Department] where [Name] = 'Sales')", tbl.Row(0).Values())
}

func TestRowSubQuerySiblingKinds(t *testing.T) {
	tbl := NewTable("Task")
	require.NoError(t, tbl.SetSchema(field.Columns{
		field.Int("Id").PrimaryKey(),
		field.String("Owner", 50),
		field.Int("OwnerId"),
		field.Int("ParentId"),
	}))
	require.NoError(t, tbl.Relate("OwnerId", "{User.Id [Login] = :owner}"))
	require.NoError(t, tbl.Relate("ParentId", "{Task.Id [OwnerId] = :ownerid}"))
	require.NoError(t, tbl.Fill([]any{1, "{suser_sname()}", 5, 9}))

	c, _ := tbl.Row(0).Column("ParentId")
	assert.Equal(t, "(select [Id] from [Task] where [OwnerId] = 5)", c.Literal(), "relationship siblings render plain")
	c, _ = tbl.Row(0).Column("OwnerId")
	assert.Equal(t, "(select [Id] from [User] where [Login] = (suser_sname()))", c.Literal())
}

func TestRowModifierSiblings(t *testing.T) {
	tbl := NewTable("Person")
	require.NoError(t, tbl.SetSchema(field.Columns{
		field.Int("Id").PrimaryKey(),
		field.String("Name", 50),
		field.String("Login", 50),
		field.String("Alias", 50),
		field.Int("DeptId"),
	}))
	require.NoError(t, tbl.Relate("DeptId", "{Department.Id [Head] = :login}"))
	require.NoError(t, tbl.Fill([]any{1, "{upper('x')}", "{lower(:name)}", "{:login}", 3}))

	row := tbl.Row(0)
	c, _ := row.Column("Login")
	assert.Equal(t, "(lower((upper('x'))))", c.Literal())
	c, _ = row.Column("Alias")
	assert.Equal(t, "((lower('{upper(''x'')}')))", c.Literal(), "expanded one level")
	c, _ = row.Column("DeptId")
	assert.Equal(t, "(select [Id] from [Department] where [Head] = (lower('{upper(''x'')}')))", c.Literal())
}

func TestRowModifiers(t *testing.T) {
	newTask := func(t *testing.T, opts ...TableOption) *Table {
		tbl := NewTable("Task", opts...)
		require.NoError(t, tbl.SetSchema(field.Columns{
			field.Int("Id").AsIdentity(),
			field.String("Name", 50),
			field.DateTime("Due"),
			field.Int("Seq"),
		}))
		return tbl
	}

	t.Run("Braced", func(t *testing.T) {
		tbl := newTask(t)
		require.NoError(t, tbl.Fill([]any{1, "Ann", "{getdate()}", "{select max([Seq]) + 1 from [Task] where [Name] = :NAME}"}))
		r := tbl.Row(0)
		assert.Equal(t, "'Ann',(getdate()),(select max([Seq]) + 1 from [Task] where [Name] = 'Ann')", r.Values())
		c, _ := r.Column("Due")
		assert.Equal(t, KindModifier, c.Kind())
	})

	t.Run("Tagged", func(t *testing.T) {
		tbl := newTask(t, WithoutModifiers())
		require.NoError(t, tbl.Fill([]any{1, "{literal}", Modifier("getdate()"), nil}))
		assert.Equal(t, "'{literal}',(getdate())", tbl.Row(0).Values())
	})

	t.Run("Bytes", func(t *testing.T) {
		tbl := newTask(t)
		require.NoError(t, tbl.Fill([]any{1, []byte("{upper(:name)}"), nil, []byte("{1}")}))
		c, _ := tbl.Row(0).Column("Name")
		assert.Equal(t, KindModifier, c.Kind())
		c, _ = tbl.Row(0).Column("Seq")
		assert.Equal(t, KindValue, c.Kind(), "only text columns read modifiers from bytes")
	})

	t.Run("RelationshipWins", func(t *testing.T) {
		tbl := newTask(t)
		require.NoError(t, tbl.Relate("Seq", "{Counter.Value [Name] = :name}"))
		require.NoError(t, tbl.Fill([]any{1, "Ann", nil, "{42}"}))
		c, _ := tbl.Row(0).Column("Seq")
		assert.Equal(t, KindSubQuery, c.Kind())
		assert.Equal(t, "(select [Value] from [Counter] where [Name] = 'Ann')", c.Literal())
	})
}

func TestModifierTemplate(t *testing.T) {
	assert.Equal(t, "getdate()", Modifier("{getdate()}").Template())
	assert.Equal(t, "getdate()", Modifier(" getdate() ").Template())
	assert.Equal(t, "{x", Modifier("{x").Template())
	assert.Equal(t, "subquery", KindSubQuery.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestRowComment(t *testing.T) {
	r := newPerson(t, []any{1, "Ann", true}).Row(0)
	assert.Empty(t, r.Comment())
	r.SetComment("hand edited")
	assert.Equal(t, "hand edited", r.Comment())
	assert.Equal(t, 0, r.ID())
	assert.Equal(t, "Person", r.Table().Name())
	assert.Equal(t, "Person[0] Id = 1, Name = 'Ann', Active = 1", r.String())
}
