// Package load reads tables from YAML fixtures and msgpack snapshots.
//
// A fixture is written by hand and converted column by column:
//
//	f, err := load.ReadFile("testdata/employee.yaml")
//	if err != nil {
//	    return err
//	}
//	t, err := f.Build()
//
// A snapshot keeps a captured table, including values tagged as modifiers,
// so its scripts can be regenerated without the source database.
package load
