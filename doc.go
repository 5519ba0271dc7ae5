// Package datascript generates T-SQL data scripts from the rows of a table.
//
// The engine is split across sub-packages:
//
//   - schema/field: column descriptors and the type mapping table
//   - schema/edge: relationship notation
//   - dialect: compatibility levels and their sub-select strategies
//   - dialect/sql: literal formatting and row capture from database/sql
//   - dialect/sql/schema: CREATE TABLE generation and schema validation
//   - script: tables, rows and the script generator
//   - load: YAML fixtures and msgpack snapshots
//   - config: settings from file, environment and flags
//
// This package holds the errors shared by all of them. Sentinels are matched
// with errors.Is, the typed errors with errors.As:
//
//	err := script.Generate(w, t, script.WithType(script.Update))
//	if datascript.IsNoIdentifyingColumn(err) {
//	    var gerr *datascript.GenerateError
//	    if errors.As(err, &gerr) {
//	        log.Printf("row %d of %s has no key", gerr.Row, gerr.Table)
//	    }
//	}
package datascript
