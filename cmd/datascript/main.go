// datascript writes T-SQL data scripts for the rows of a table, read from a
// YAML fixture, a msgpack snapshot or a live database.
//
//	datascript --input employee.yaml --type insert-update --compat legacy
//	datascript --driver pgx --dsn postgres://... --table Employee --where "Active = 1" --keys Id
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
	flag "github.com/spf13/pflag"

	"github.com/syssam/datascript/config"
)

var configFilePath = flag.String("config", "", "path to config file")

func init() {
	registerFlags(flag.CommandLine)
}

// registerFlags defines the flags bound to configuration keys by
// config.FlagKeys.
func registerFlags(fs *flag.FlagSet) {
	fs.String("input", "", "fixture (.yaml) or snapshot (.msgpack) to read rows from")
	fs.String("driver", "", "database/sql driver to capture rows with (pgx, postgres, mysql, sqlite)")
	fs.String("dsn", "", "data source name of the captured database")
	fs.String("table", "", "table to capture")
	fs.String("where", "", "restriction of the captured rows")
	fs.StringSlice("keys", nil, "primary key columns of the captured table")
	fs.StringSlice("identity", nil, "identity columns of the captured table")
	fs.String("type", "insert", "script type: insert, update, delete, insert-update, delete-insert, replace")
	fs.String("compat", "modern", "compatibility level: modern or legacy")
	fs.Bool("transaction", true, "wrap the script in a transaction")
	fs.Int("progress", 0, "rows between progress markers (0 disables them)")
	fs.String("database", "", "database to USE before the statements")
	fs.String("comment", "", "comment written in the script header")
	fs.String("datetime", "legacy", "datetime literal layout: legacy, iso or a Go time layout")
	fs.Int("workers", 0, "scripts generated concurrently for an input directory (0 uses GOMAXPROCS)")
	fs.String("out", "", "script file (default <table>_<n>_<type>.sql)")
	fs.String("dir", ".", "output directory")
	fs.Bool("ddl", false, "also write the CREATE TABLE script")
	fs.String("snapshot", "", "also save the rows to a msgpack snapshot")
	fs.Bool("watch", false, "regenerate when the input fixture changes")
	fs.String("log-level", "info", "log level: trace, debug, info, warn, error")
	fs.String("log-format", "console", "log format: console or json")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFilePath, flag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	err = cfg.Validate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "validating config: %v\n", err)
		os.Exit(1)
	}

	zlog, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	a := newApp(cfg, zlog)
	if cfg.Output.Watch {
		err = a.watch(ctx)
	} else {
		_, err = a.run(ctx)
	}
	if err != nil {
		zlog.Fatal().Err(err).Msg("generating script")
	}
}

func newLogger(cfg config.Config) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return zerolog.Nop(), err
	}
	var zlog zerolog.Logger
	if cfg.LogFormat == "json" {
		zlog = zerolog.New(os.Stderr)
	} else {
		zlog = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return zlog.Level(level).With().Timestamp().Logger(), nil
}
