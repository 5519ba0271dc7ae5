package field

import (
	"strings"

	"golang.org/x/text/cases"
)

// A Type is the canonical native type tag of a column. It decides how values
// are rendered as literals and how the column is declared in DDL.
type Type uint8

// List of native types.
const (
	TypeOther Type = iota
	TypeInteger
	TypeDecimal
	TypeFloat
	TypeText
	TypeDateTime
	TypeTime
	TypeBoolean
	TypeBinary
	TypeGUID
	endTypes
)

var typeNames = [...]string{
	TypeOther:    "other",
	TypeInteger:  "integer",
	TypeDecimal:  "decimal",
	TypeFloat:    "float",
	TypeText:     "text",
	TypeDateTime: "datetime",
	TypeTime:     "time",
	TypeBoolean:  "boolean",
	TypeBinary:   "binary",
	TypeGUID:     "guid",
}

// sqlNames holds the T-SQL type used when a column was built without an
// explicit declared type name.
var sqlNames = [...]string{
	TypeOther:    "sql_variant",
	TypeInteger:  "int",
	TypeDecimal:  "decimal",
	TypeFloat:    "float",
	TypeText:     "varchar",
	TypeDateTime: "datetime",
	TypeTime:     "time",
	TypeBoolean:  "bit",
	TypeBinary:   "varbinary",
	TypeGUID:     "uniqueidentifier",
}

// String returns the string representation of a type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeOther]
}

// SQLName returns the default T-SQL type name for the type.
func (t Type) SQLName() string {
	if t < endTypes {
		return sqlNames[t]
	}
	return sqlNames[TypeOther]
}

// IsText reports if the type is one of the char/varchar/text family.
func (t Type) IsText() bool { return t == TypeText }

// IsNumeric reports if the type is numeric.
func (t Type) IsNumeric() bool {
	return t == TypeInteger || t == TypeDecimal || t == TypeFloat
}

// Valid reports if the given type if known type.
func (t Type) Valid() bool { return t < endTypes }

// ParseType parses the string form of a Type, as printed by String. Declared
// database type names are accepted as well and resolved through Lookup.
func ParseType(s string) (Type, bool) {
	name := Fold(strings.TrimSpace(s))
	for i, n := range typeNames {
		if n == name {
			return Type(i), true
		}
	}
	if m, ok := mappings[normalize(s)]; ok {
		return m.typ, true
	}
	return TypeOther, false
}

// A Mapping ties a database type descriptor to its native type and to the T-SQL
// type name used when the column is declared.
type Mapping struct {
	typ     Type
	sqlName string
}

// Type returns the native type of the mapping.
func (m Mapping) Type() Type { return m.typ }

// SQLName returns the T-SQL type name of the mapping.
func (m Mapping) SQLName() string { return m.sqlName }

// mappings resolves the type names reported by database/sql drivers
// (ColumnType.DatabaseTypeName) for SQL Server, PostgreSQL, MySQL and SQLite.
var mappings = map[string]Mapping{
	// text family
	"CHAR":       {TypeText, "char"},
	"NCHAR":      {TypeText, "nchar"},
	"VARCHAR":    {TypeText, "varchar"},
	"NVARCHAR":   {TypeText, "nvarchar"},
	"TEXT":       {TypeText, "text"},
	"NTEXT":      {TypeText, "ntext"},
	"BPCHAR":     {TypeText, "char"},
	"TINYTEXT":   {TypeText, "varchar"},
	"MEDIUMTEXT": {TypeText, "text"},
	"LONGTEXT":   {TypeText, "text"},
	"CHARACTER":  {TypeText, "char"},
	"CLOB":       {TypeText, "text"},
	"XML":        {TypeText, "xml"},
	"JSON":       {TypeText, "nvarchar"},
	"JSONB":      {TypeText, "nvarchar"},
	"ENUM":       {TypeText, "varchar"},
	"CITEXT":     {TypeText, "nvarchar"},

	// integers
	"TINYINT":   {TypeInteger, "tinyint"},
	"SMALLINT":  {TypeInteger, "smallint"},
	"MEDIUMINT": {TypeInteger, "int"},
	"INT":       {TypeInteger, "int"},
	"INTEGER":   {TypeInteger, "int"},
	"BIGINT":    {TypeInteger, "bigint"},
	"INT2":      {TypeInteger, "smallint"},
	"INT4":      {TypeInteger, "int"},
	"INT8":      {TypeInteger, "bigint"},
	"SERIAL":    {TypeInteger, "int"},
	"BIGSERIAL": {TypeInteger, "bigint"},
	"YEAR":      {TypeInteger, "smallint"},

	// exact numerics
	"DECIMAL":    {TypeDecimal, "decimal"},
	"NUMERIC":    {TypeDecimal, "decimal"},
	"MONEY":      {TypeDecimal, "money"},
	"SMALLMONEY": {TypeDecimal, "smallmoney"},

	// approximate numerics
	"FLOAT":            {TypeFloat, "float"},
	"FLOAT4":           {TypeFloat, "real"},
	"FLOAT8":           {TypeFloat, "float"},
	"REAL":             {TypeFloat, "real"},
	"DOUBLE":           {TypeFloat, "float"},
	"DOUBLE PRECISION": {TypeFloat, "float"},

	// date and time
	"DATE":           {TypeDateTime, "date"},
	"DATETIME":       {TypeDateTime, "datetime"},
	"DATETIME2":      {TypeDateTime, "datetime2"},
	"SMALLDATETIME":  {TypeDateTime, "smalldatetime"},
	"DATETIMEOFFSET": {TypeDateTime, "datetimeoffset"},
	"TIMESTAMP":      {TypeDateTime, "datetime"},
	"TIMESTAMPTZ":    {TypeDateTime, "datetimeoffset"},
	"TIME":           {TypeTime, "time"},
	"TIMETZ":         {TypeTime, "time"},

	// boolean
	"BIT":     {TypeBoolean, "bit"},
	"BOOL":    {TypeBoolean, "bit"},
	"BOOLEAN": {TypeBoolean, "bit"},

	// binary
	"BINARY":     {TypeBinary, "binary"},
	"VARBINARY":  {TypeBinary, "varbinary"},
	"IMAGE":      {TypeBinary, "image"},
	"BYTEA":      {TypeBinary, "varbinary"},
	"BLOB":       {TypeBinary, "varbinary"},
	"TINYBLOB":   {TypeBinary, "varbinary"},
	"MEDIUMBLOB": {TypeBinary, "varbinary"},
	"LONGBLOB":   {TypeBinary, "varbinary"},
	"ROWVERSION": {TypeBinary, "rowversion"},

	// identifiers
	"UNIQUEIDENTIFIER": {TypeGUID, "uniqueidentifier"},
	"UUID":             {TypeGUID, "uniqueidentifier"},
}

// Lookup resolves a database type descriptor such as "NVARCHAR", "int4" or
// "decimal(10,2)" to its mapping. Unknown descriptors resolve to TypeOther and
// keep their lower-cased name.
func Lookup(dbType string) (Mapping, bool) {
	key := normalize(dbType)
	if m, ok := mappings[key]; ok {
		return m, true
	}
	if key == "" {
		return Mapping{TypeOther, sqlNames[TypeOther]}, false
	}
	return Mapping{TypeOther, strings.ToLower(key)}, false
}

// normalize strips size arguments and modifiers from a type descriptor.
func normalize(dbType string) string {
	s := strings.TrimSpace(dbType)
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, " UNSIGNED")
	s = strings.TrimPrefix(s, "UNSIGNED ")
	return s
}

// Fold returns the case-folded form of s, used for every case-insensitive
// column name comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
