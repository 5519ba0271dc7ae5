// Package field describes the columns of a captured table.
//
// A Column carries the metadata every other part of the engine reads: name,
// ordinal position, declared size, numeric precision and scale, the key,
// unique, identity and read-only flags, nullability and a canonical native
// Type. Columns are normally harvested from a database/sql result through the
// Lookup mapping table, or built by hand:
//
//	cols := field.Columns{
//	    field.Int("Id").AsIdentity().PrimaryKey(),
//	    field.String("Name", 50),
//	    field.Bool("Active"),
//	}
//
// # Native Types
//
// The native type decides how a value is rendered as a literal:
//
//	field.TypeText      // quoted, embedded quotes doubled
//	field.TypeDateTime  // quoted fixed-format timestamp
//	field.TypeBoolean   // 1 or 0
//	field.TypeGUID      // quoted
//	field.TypeBinary    // 0x hex
//	everything else     // natural string form
//
// # Type Mapping
//
// Lookup resolves driver type names (ColumnType.DatabaseTypeName) from SQL
// Server, PostgreSQL, MySQL and SQLite:
//
//	m, ok := field.Lookup("decimal(10,2)")
//	m.Type()    // field.TypeDecimal
//	m.SQLName() // "decimal"
package field
