// Package script turns captured table rows into T-SQL data scripts.
//
// A Table holds a column schema, the rows filled into it and the metadata
// that shapes its script. A Generator streams the script of a table to an
// io.Writer:
//
//	t := script.NewTable("Person", script.WithRestriction("Active = 1"))
//	if err := t.SetSchema(field.Columns{
//	    field.Int("Id").AsIdentity(),
//	    field.String("Name", 50),
//	    field.Bool("Active"),
//	}); err != nil {
//	    return err
//	}
//	if err := t.Fill([]any{1, "O'Brien", true}); err != nil {
//	    return err
//	}
//	err := script.Generate(w, t, script.WithType(script.Update))
//
// # Script Types
//
//   - Insert: one INSERT per row.
//   - Update: one UPDATE per row, identified by key, unique or identity columns.
//   - Delete: one DELETE per row.
//   - InsertUpdate: an IF EXISTS guarded UPDATE, else INSERT.
//   - DeleteInsert: a DELETE followed by an INSERT.
//   - Replace: a DELETE of the whole table, then one INSERT per row.
//
// # Relationships and Modifiers
//
// A column related with Table.Relate renders as a sub-select on another
// table, with :column tokens in the join replaced by sibling literals:
//
//	t.Relate("DeptId", "{Department.Id [Name] = :DeptName}")
//	// (select [Id] from [Department] where [Name] = 'Sales')
//
// Under dialect.Legacy the sub-select is assigned to a scalar variable ahead
// of the statement, and the statement refers to the variable.
//
// A Modifier value is a SQL template rendered in place of a literal:
//
//	t.Fill([]any{1, "{getdate()}"}) // (getdate())
package script
