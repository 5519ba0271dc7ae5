// Package dialect selects how generated T-SQL scripts express relationship
// lookups for a target server, and names the source databases rows can be
// captured from.
//
// # Compatibility Levels
//
// Two levels are supported:
//
//   - Modern: SQL Server 2008 and later. Sub-selects appear inline.
//   - Legacy: SQL Server 2005. Sub-selects are hoisted into scalar variables.
//
// A Strategy is chosen once per table and consulted by the script writer:
//
//	s := dialect.For(dialect.Legacy)
//	v := dialect.VariableName("Person", "DeptId") // @Person_DeptId
//	s.Declare(v, "int")                            // declare @Person_DeptId as int;
//	s.Assign(v, "select [Id] from [Department] where [Name] = 'Sales'")
//	s.SubQuery(v, "select ...")                    // @Person_DeptId
//
// Under Modern the same call returns the parenthesized sub-select.
//
// # Source Dialects
//
// The MySQL, SQLite, Postgres and SQLServer constants identify the database a
// table was captured from. They affect identifier quoting of the capture
// query only; generated scripts are always T-SQL.
//
// # Sub-packages
//
//   - dialect/sql: identifier and literal formatting, row capture
//   - dialect/sql/schema: CREATE TABLE generation and schema validation
package dialect
