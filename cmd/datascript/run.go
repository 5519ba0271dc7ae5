package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-openapi/inflect"
	"github.com/rs/zerolog"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/syssam/datascript"
	"github.com/syssam/datascript/config"
	"github.com/syssam/datascript/dialect/sql"
	"github.com/syssam/datascript/load"
	"github.com/syssam/datascript/script"
)

const snapshotExt = ".msgpack"

// app runs one configured generation. Script paths picked for a table are
// kept, so watch runs overwrite the scripts of the first run.
type app struct {
	cfg   config.Config
	log   zerolog.Logger
	stats *script.Stats
	now   func() time.Time

	mu      sync.Mutex
	paths   map[string]string
	written map[string]bool
}

func newApp(cfg config.Config, log zerolog.Logger) *app {
	return &app{
		cfg:     cfg,
		log:     log,
		stats:   &script.Stats{},
		now:     time.Now,
		paths:   make(map[string]string),
		written: make(map[string]bool),
	}
}

// wrote reports if path is a snapshot this app saved.
func (a *app) wrote(path string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.written[filepath.Clean(path)]
}

// run reads the configured source and writes its scripts, returning the
// script paths in table order.
func (a *app) run(ctx context.Context) ([]string, error) {
	start := a.now()
	tables, err := a.tables(ctx)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no tables found in %s", a.cfg.Source.Input)
	}
	paths, err := a.generate(ctx, tables)
	for _, p := range paths {
		if p != "" {
			a.log.Info().Str("script", p).Msg("script written")
		}
	}
	if err != nil {
		return paths, err
	}
	for i, t := range tables {
		if err := a.byproducts(t, paths[i], len(tables) > 1); err != nil {
			return paths, err
		}
	}
	s := a.stats.Snapshot()
	a.log.Info().
		Int64("scripts", s.Scripts).
		Int64("rows", s.Rows).
		Int64("statements", s.Statements).
		Int64("bytes", s.Bytes).
		Dur("elapsed", a.now().Sub(start)).
		Msg("generation complete")
	return paths, nil
}

// tables returns the filled tables of the source: the captured table of a
// database, the table of one input file, or the tables of every fixture and
// snapshot in an input directory.
func (a *app) tables(ctx context.Context) ([]*script.Table, error) {
	src := a.cfg.Source
	if src.Driver != "" {
		t, err := a.capture(ctx)
		if err != nil {
			return nil, err
		}
		return []*script.Table{t}, nil
	}
	info, err := os.Stat(src.Input)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		t, err := a.read(src.Input)
		if err != nil {
			return nil, err
		}
		return []*script.Table{t}, nil
	}
	entries, err := os.ReadDir(src.Input)
	if err != nil {
		return nil, err
	}
	var tables []*script.Table
	for _, e := range entries {
		if e.IsDir() || !isInput(e.Name()) {
			continue
		}
		t, err := a.read(filepath.Join(src.Input, e.Name()))
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func isInput(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", snapshotExt:
		return true
	}
	return false
}

// read loads a fixture or snapshot file. The file's own compatibility and
// datetime layout are kept; the configured database, comment and modifier
// settings override it when set.
func (a *app) read(path string) (*script.Table, error) {
	var (
		s    = a.cfg.Script
		opts []script.TableOption
	)
	if s.Database != "" {
		opts = append(opts, script.WithDatabase(s.Database))
	}
	if s.Comment != "" {
		opts = append(opts, script.WithComment(s.Comment))
	}
	if !s.Modifiers {
		opts = append(opts, script.WithoutModifiers())
	}
	var (
		t   *script.Table
		err error
	)
	if strings.EqualFold(filepath.Ext(path), snapshotExt) {
		t, err = load.LoadSnapshot(path, opts...)
	} else {
		var f *load.Fixture
		if f, err = load.ReadFile(path); err == nil {
			t, err = f.Build(opts...)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	a.log.Debug().Str("input", path).Str("table", t.Name()).Int("rows", t.Len()).Msg("input read")
	return t, a.relate(t)
}

// capture selects the configured rows from the source database.
func (a *app) capture(ctx context.Context) (*script.Table, error) {
	src := a.cfg.Source
	drv, err := sql.Open(src.Driver, src.DSN)
	if err != nil {
		return nil, err
	}
	defer drv.Close()

	var (
		capturer sql.Capturer
		stats    *sql.StatsDriver
	)
	if a.log.GetLevel() <= zerolog.DebugLevel {
		capturer = sql.NewDebugDriver(drv, a.log)
	} else {
		stats = sql.NewStatsDriver(drv, sql.WithSlowThreshold(src.SlowQuery), sql.WithSlowQueryLog(a.log))
		capturer = stats
	}

	rows, err := capturer.Capture(ctx, src.Table, src.Where)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	opts := append(a.cfg.Script.TableOptions(), script.WithRestriction(src.Where))
	t := script.NewTable(src.Table, opts...)
	if err := t.FillRows(ctx, rows, src.ScanOptions()...); err != nil {
		return nil, err
	}
	if stats != nil {
		a.log.Debug().Stringer("queries", stats.QueryStats().Stats()).Msg("capture stats")
	}
	a.log.Info().Str("table", t.Name()).Str("dialect", drv.Dialect()).Int("rows", t.Len()).Msg("rows captured")
	return t, a.relate(t)
}

// relate attaches the configured relationships that name a column of t.
// Relationship keys are matched case-insensitively.
func (a *app) relate(t *script.Table) error {
	for column, notation := range a.cfg.Source.Relationships {
		if _, ok := t.Columns().Lookup(column); !ok {
			continue
		}
		if err := t.Relate(column, notation); err != nil {
			return err
		}
	}
	return nil
}

// generate writes the scripts of tables concurrently. Each script goes to a
// temporary file renamed into place once it is complete; the scripts of
// failed tables are discarded and their paths left empty.
func (a *app) generate(ctx context.Context, tables []*script.Table) ([]string, error) {
	if dir := a.cfg.Output.Dir; dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	paths := make([]string, len(tables))
	jobs := make([]script.Job, len(tables))
	files := make([]*os.File, len(tables))
	defer func() {
		for _, f := range files {
			if f != nil {
				_ = f.Close()
				_ = os.Remove(f.Name())
			}
		}
	}()
	for i, t := range tables {
		p, err := a.scriptPath(t, len(tables) > 1)
		if err != nil {
			return nil, err
		}
		f, err := os.CreateTemp(filepath.Dir(p), ".datascript-*")
		if err != nil {
			return nil, err
		}
		paths[i], files[i] = p, f
		if err := f.Chmod(0o644); err != nil {
			return nil, err
		}
		jobs[i] = script.Job{Table: t, Writer: f}
	}

	opts := append(a.cfg.Script.GeneratorOptions(), script.WithLogger(a.log), script.WithStats(a.stats))
	genErr := script.New(opts...).GenerateAll(ctx, jobs, a.cfg.Script.Workers)
	failed, all := failedTables(genErr)

	closeErrs := make([]error, len(files))
	for i, f := range files {
		closeErrs[i] = f.Close()
	}
	for i, f := range files {
		files[i] = nil
		if all || failed[tables[i].Name()] || closeErrs[i] != nil {
			_ = os.Remove(f.Name())
			paths[i] = ""
			continue
		}
		if err := os.Rename(f.Name(), paths[i]); err != nil {
			_ = os.Remove(f.Name())
			paths[i] = ""
			closeErrs[i] = err
		}
	}
	return paths, errors.Join(append([]error{genErr}, closeErrs...)...)
}

// failedTables names the tables of the generate errors in err. all is set when
// a failure cannot be tied to a table.
func failedTables(err error) (failed map[string]bool, all bool) {
	if err == nil {
		return nil, false
	}
	errs := []error{err}
	var agg *datascript.AggregateError
	if errors.As(err, &agg) {
		errs = agg.Errors
	}
	failed = make(map[string]bool, len(errs))
	for _, err := range errs {
		var gerr *datascript.GenerateError
		if !errors.As(err, &gerr) {
			return nil, true
		}
		failed[gerr.Table] = true
	}
	return failed, false
}

// scriptPath picks the script file of t: the configured output file, the
// script name the table carries, or the first unused default name.
func (a *app) scriptPath(t *script.Table, many bool) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if p, ok := a.paths[t.Name()]; ok {
		return p, nil
	}
	dir := a.cfg.Output.Dir
	var p string
	switch {
	case a.cfg.Output.File != "" && !many:
		p = a.cfg.Output.File
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
	case t.ScriptName() != "":
		p = filepath.Join(dir, t.ScriptName())
	default:
		taken := make([]string, 0, len(a.paths))
		for _, p := range a.paths {
			taken = append(taken, p)
		}
		var err error
		if p, err = nextScriptName(dir, t.Name(), a.cfg.Script.Type, taken); err != nil {
			return "", err
		}
	}
	a.paths[t.Name()] = p
	return p, nil
}

// nextScriptName returns the first <table>_<n>_<type>.sql in dir that neither
// exists nor is taken, counting n from zero.
func nextScriptName(dir, table string, typ script.ScriptType, taken []string) (string, error) {
	suffix := inflect.Underscore(typ.String())
	for n := 0; ; n++ {
		p := filepath.Join(dir, fmt.Sprintf("%s_%d_%s.sql", table, n, suffix))
		if slices.Contains(taken, p) {
			continue
		}
		_, err := os.Stat(p)
		if errors.Is(err, fs.ErrNotExist) {
			return p, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// byproducts writes the DDL and snapshot of t next to its script. When
// several tables are generated the snapshot name carries the table name.
func (a *app) byproducts(t *script.Table, scriptPath string, many bool) error {
	out := a.cfg.Output
	if out.DDL {
		p := strings.TrimSuffix(scriptPath, filepath.Ext(scriptPath)) + ".ddl.sql"
		if err := os.WriteFile(p, []byte(t.CreateTable()), 0o644); err != nil {
			return err
		}
		a.log.Info().Str("ddl", p).Msg("ddl written")
	}
	if out.Snapshot != "" {
		p := out.Snapshot
		if many {
			ext := filepath.Ext(p)
			p = strings.TrimSuffix(p, ext) + "_" + t.Name() + ext
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(out.Dir, p)
		}
		a.mu.Lock()
		a.written[filepath.Clean(p)] = true
		a.mu.Unlock()
		if err := load.SaveSnapshot(p, t); err != nil {
			return err
		}
		a.log.Info().Str("snapshot", p).Msg("snapshot saved")
	}
	return nil
}
