// Package schema groups the descriptions of a scripted table.
//
//   - [field]: columns, their native types and the driver type mapping
//   - [edge]: relationships that look a column value up in another table
//
// DDL generation and schema validation live in dialect/sql/schema, next to
// the literal formatting they depend on.
package schema
