// Package edge parses and renders relationships: lookups of a column value
// from another table, correlated with the current row.
//
// A relationship is written as
//
//	{Department.Id [Name] = :deptname}
//
// which selects [Id] from [Department] for the row whose [Name] equals the
// literal of the current row's deptname column. Tokens are matched
// case-insensitively and tokens inside quoted literals are left alone.
package edge
