package schema

import (
	"fmt"
	"strings"

	"github.com/syssam/datascript/dialect/sql"
	"github.com/syssam/datascript/schema/field"
)

// CreateTable returns the CREATE TABLE statement of a table. Columns appear
// in schema order, followed by a clustered primary key constraint when any
// column is flagged as key.
//
//	CREATE TABLE [Person](
//		[Id] [int] IDENTITY(1,1) NOT NULL,
//		[Name] [nvarchar](50) NULL,
//		CONSTRAINT [PK_Person] PRIMARY KEY CLUSTERED
//		(
//			[Id] ASC
//		)
//	)
func CreateTable(table string, cols field.Columns) string {
	defs := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		var b strings.Builder
		fmt.Fprintf(&b, "\t%s %s%s", sql.Ident(c.Name), sql.Ident(c.SQLType()), TypeParams(c))
		if c.Identity {
			b.WriteString(" IDENTITY(1,1)")
		}
		if c.Nullable {
			b.WriteString(" NULL")
		} else {
			b.WriteString(" NOT NULL")
		}
		defs = append(defs, b.String())
	}
	if keys := cols.Keys(); len(keys) > 0 {
		pk := make([]string, len(keys))
		for i, k := range keys {
			pk[i] = "\t\t" + sql.Ident(k.Name) + " ASC"
		}
		defs = append(defs, fmt.Sprintf("\tCONSTRAINT %s PRIMARY KEY CLUSTERED\r\n\t(\r\n%s\r\n\t)",
			sql.Ident("PK_"+table), strings.Join(pk, ",\r\n")))
	}
	return fmt.Sprintf("CREATE TABLE %s(\r\n%s\r\n)", sql.Ident(table), strings.Join(defs, ",\r\n"))
}

// TypeDef returns the full type of a column, as used in variable
// declarations: varchar(50), nvarchar(MAX), decimal(10,2), int.
func TypeDef(c *field.Column) string {
	return c.SQLType() + TypeParams(c)
}

// TypeParams returns the parenthesized type arguments of a column, if its
// declared type takes any. Sized types without a size use MAX.
func TypeParams(c *field.Column) string {
	switch strings.ToLower(c.SQLType()) {
	case "char", "nchar", "varchar", "nvarchar", "binary", "varbinary":
		if c.Size > 0 {
			return fmt.Sprintf("(%d)", c.Size)
		}
		return "(MAX)"
	case "decimal", "numeric":
		if c.Precision > 0 {
			return fmt.Sprintf("(%d,%d)", c.Precision, c.Scale)
		}
	}
	return ""
}
