// Package sql renders column values as T-SQL literals and captures rows from
// database/sql sources.
//
// # Literals
//
// Literal formats a raw value for a column of a given native type:
//
//	sql.Literal(nil, field.TypeText)             // null
//	sql.Literal("O'Brien", field.TypeText)       // 'O''Brien'
//	sql.Literal(true, field.TypeBoolean)         // 1
//	sql.Literal(t, field.TypeDateTime)           // '2021-03-04 09:05:06'
//	sql.Literal([]byte{0xca}, field.TypeBinary)  // 0xCA
//	sql.Literal(42, field.TypeInteger)           // 42
//
// Null detection unwraps pointers and driver.Valuer implementations, so
// sql.NullString and friends render as null when invalid.
//
// A Formatter with DateTimeLayout set to ISODateTime switches datetime
// literals to a 24-hour clock. The zero Formatter keeps LegacyDateTime.
//
// Identifiers in generated scripts are bracketed with Ident.
//
// # Capture
//
// A Driver wraps a *sql.DB opened with any registered database/sql driver:
//
//	drv, err := sql.Open("pgx", dsn)
//	if err != nil {
//	    return err
//	}
//	defer drv.Close()
//
//	rows, err := drv.Capture(ctx, "Person", "Active = 1")
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
//
//	types, _ := rows.ColumnTypes()
//	cols := sql.Columns("Person", types, sql.WithKeys("Id"))
//	err = sql.Scan(rows, func(values []any) error {
//	    // one call per row, values in column order
//	    return nil
//	})
//
// database/sql does not report key, unique or identity flags. Columns takes
// them as options and resolves native types through field.Lookup, falling
// back to the driver's scan type.
package sql
