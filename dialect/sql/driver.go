package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/datascript/dialect"
)

// Driver captures table rows from a source database.
type Driver struct {
	Conn
	dialect string
}

// NewDriver creates a new Driver with the given Conn and dialect.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{dialect: dialect, Conn: c}
}

// Open wraps the database/sql.Open method and returns a Driver for the
// registered database/sql driver name.
func Open(driverName, source string) (*Driver, error) {
	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", driverName, err)
	}
	return OpenDB(driverName, db), nil
}

// OpenDB wraps the given database/sql.DB with a Driver.
func OpenDB(driverName string, db *sql.DB) *Driver {
	name := Dialect(driverName)
	return NewDriver(name, Conn{db, name})
}

// DB returns the underlying *sql.DB instance.
func (d Driver) DB() *sql.DB {
	return d.Querier.(*sql.DB)
}

// Dialect returns the source dialect of the driver.
func (d Driver) Dialect() string {
	return d.dialect
}

// Close closes the underlying connection.
func (d *Driver) Close() error { return d.DB().Close() }

// Dialect maps a database/sql driver name to its source dialect.
// Unknown names are returned unchanged.
func Dialect(driverName string) string {
	switch n := strings.ToLower(driverName); {
	case strings.HasPrefix(n, "pgx"), strings.HasPrefix(n, "postgres"):
		return dialect.Postgres
	case strings.HasPrefix(n, "mysql"):
		return dialect.MySQL
	case strings.HasPrefix(n, "sqlite"):
		return dialect.SQLite
	case n == "mssql", strings.HasPrefix(n, "sqlserver"):
		return dialect.SQLServer
	default:
		return driverName
	}
}

// Querier wraps the standard QueryContext method.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn runs capture queries on a Querier.
type Conn struct {
	Querier
	dialect string
}

// Query runs query and returns its rows. The caller must close them.
func (c Conn) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: query: %w", err)
	}
	return &Rows{rows}, nil
}

// Capture selects the rows of table restricted by where. An empty
// restriction selects every row.
func (c Conn) Capture(ctx context.Context, table, where string) (*Rows, error) {
	if table == "" {
		return nil, errors.New("dialect/sql: capture: empty table name")
	}
	return c.Query(ctx, SelectQuery(c.dialect, table, where))
}

// SelectQuery returns the statement capturing the rows of a table, with the
// table name quoted for the source dialect.
func SelectQuery(dialectName, table, where string) string {
	if strings.TrimSpace(where) == "" {
		where = "1=1"
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s", QuoteIdent(dialectName, table), where)
}

// QuoteIdent quotes an identifier for the source dialect. Dotted names are
// quoted part by part.
func QuoteIdent(dialectName, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		switch dialectName {
		case dialect.MySQL:
			parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
		case dialect.Postgres, dialect.SQLite:
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
		default:
			parts[i] = Ident(p)
		}
	}
	return strings.Join(parts, ".")
}

type (
	// Rows wraps the sql.Rows to avoid locks copy.
	Rows struct{ ColumnScanner }
	// NullString is an alias to sql.NullString.
	NullString = sql.NullString
	// NullInt64 is an alias to sql.NullInt64.
	NullInt64 = sql.NullInt64
	// NullTime represents a time.Time that may be null.
	NullTime = sql.NullTime
)

// ColumnScanner is the interface that wraps the standard
// sql.Rows methods used for capturing rows.
type ColumnScanner interface {
	Close() error
	ColumnTypes() ([]*sql.ColumnType, error)
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}
