package script

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/syssam/datascript"
	"github.com/syssam/datascript/dialect/sql"
)

// ScriptType selects the statements written for each row.
type ScriptType int

// Script types.
const (
	Insert ScriptType = iota
	Update
	Delete
	InsertUpdate
	DeleteInsert
	Replace
)

var scriptTypeNames = [...]string{
	Insert:       "Insert",
	Update:       "Update",
	Delete:       "Delete",
	InsertUpdate: "InsertUpdate",
	DeleteInsert: "DeleteInsert",
	Replace:      "Replace",
}

// String implements fmt.Stringer.
func (s ScriptType) String() string {
	if s.Valid() {
		return scriptTypeNames[s]
	}
	return fmt.Sprintf("ScriptType(%d)", int(s))
}

// Valid reports if the script type is one of the supported types.
func (s ScriptType) Valid() bool {
	return s >= Insert && s <= Replace
}

// ParseScriptType parses a script type name, case-insensitively.
// Upsert is accepted for InsertUpdate.
func ParseScriptType(s string) (ScriptType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	name = strings.NewReplacer("-", "", "_", "", " ", "").Replace(name)
	if name == "upsert" {
		return InsertUpdate, nil
	}
	for i, n := range scriptTypeNames {
		if strings.ToLower(n) == name {
			return ScriptType(i), nil
		}
	}
	return Insert, fmt.Errorf("%w: %q", datascript.ErrUnknownScriptType, s)
}

// MarshalText implements encoding.TextMarshaler.
func (s ScriptType) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", datascript.ErrUnknownScriptType, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ScriptType) UnmarshalText(text []byte) error {
	v, err := ParseScriptType(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Generator writes table scripts. A Generator is safe for concurrent use
// as long as each call gets its own table and writer.
type Generator struct {
	typ         ScriptType
	transaction bool
	progress    int
	now         func() time.Time
	user        string
	domain      string
	machine     string
	log         zerolog.Logger
	stats       *Stats
}

// Option configures a Generator.
type Option func(*Generator)

// WithType sets the script type. The default is Insert.
func WithType(t ScriptType) Option {
	return func(g *Generator) { g.typ = t }
}

// WithTransaction sets whether the script is wrapped in a transaction.
// The default is true.
func WithTransaction(wrap bool) Option {
	return func(g *Generator) { g.transaction = wrap }
}

// WithProgressGap prints a progress marker every n rows, and once at the
// end. Zero disables progress markers.
func WithProgressGap(n int) Option {
	return func(g *Generator) { g.progress = max(n, 0) }
}

// WithClock sets the source of the header timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIdentity sets the user, domain and machine named in the header.
// They default to the current process environment.
func WithIdentity(user, domain, machine string) Option {
	return func(g *Generator) { g.user, g.domain, g.machine = user, domain, machine }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) { g.log = log }
}

// WithStats records generation counters into s.
func WithStats(s *Stats) Option {
	return func(g *Generator) { g.stats = s }
}

// New returns a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		typ:         Insert,
		transaction: true,
		now:         time.Now,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.user == "" && g.domain == "" && g.machine == "" {
		g.user, g.domain, g.machine = environment()
	}
	return g
}

// Type returns the script type of the generator.
func (g *Generator) Type() ScriptType { return g.typ }

func environment() (name, domain, machine string) {
	machine, _ = os.Hostname()
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	if d, n, ok := strings.Cut(name, `\`); ok {
		domain, name = d, n
	}
	if domain == "" {
		domain = os.Getenv("USERDOMAIN")
	}
	if domain == "" {
		domain = machine
	}
	return name, domain, machine
}

// HeaderTimeLayout is the layout of the header timestamp.
const HeaderTimeLayout = "2006-01-02 15:04:05"

// Generate writes the script of t to w with a new Generator.
func Generate(w io.Writer, t *Table, opts ...Option) error {
	return New(opts...).Generate(context.Background(), w, t)
}

// Generate writes the script of t to w. Rows are written as they are
// assembled; on error the output written so far is incomplete and must be
// discarded. The context is checked between rows. The writer is flushed
// but never closed.
func (g *Generator) Generate(ctx context.Context, w io.Writer, t *Table) (err error) {
	if !g.typ.Valid() {
		return datascript.NewGenerateError(t.name, -1, fmt.Errorf("%w: %d", datascript.ErrUnknownScriptType, int(g.typ)))
	}
	var (
		start = time.Now()
		cw    = &countWriter{w: w}
		b     = bufio.NewWriter(cw)
		sw    = &scriptWriter{w: b}
		n     = len(t.rows)
		log   = g.log.With().Str("table", t.name).Stringer("type", g.typ).Logger()
	)
	defer func() {
		if g.stats != nil {
			g.stats.record(n, sw.statements, cw.n, time.Since(start), err)
		}
		if err != nil {
			log.Error().Err(err).Msg("script generation failed")
		}
	}()

	log.Debug().Int("rows", n).Stringer("compat", t.level).Msg("generating script")
	g.header(sw, t)
	if t.database != "" {
		sw.line("USE " + sql.Ident(t.database))
	}
	if g.transaction {
		sw.line("BEGIN TRANSACTION")
	}
	if t.strategy.Hoisted() {
		if decls := t.Declarations(); len(decls) > 0 {
			sw.line("/** sub query declarations **/")
			sw.line(strings.Join(decls, "\r\n"))
		}
	}
	if g.typ == Replace {
		sw.linef("/** delete all records from %s **/", t.name)
		sw.line("DELETE FROM " + sql.Ident(t.name))
		sw.statements++
	}

	var hoist hoistState
	for i, r := range t.rows {
		if err := ctx.Err(); err != nil {
			return datascript.NewGenerateError(t.name, i, err)
		}
		if r.comment != "" {
			sw.linef("/** %s **/", r.comment)
		}
		sw.linef("/** %s:%s:%d/%d **/", t.name, g.typ, i, n)
		if t.strategy.Hoisted() {
			if set, ok := hoist.next(r.SubQueries()); ok {
				sw.line(set)
			}
		}
		if err := g.statements(sw, r); err != nil {
			return datascript.NewGenerateError(t.name, i, err)
		}
		if count := i + 1; g.progress > 0 && count%g.progress == 0 {
			sw.linef("PRINT '%s:%d/%d COMPLETE'", t.name, count, n)
		}
		if sw.err != nil {
			return datascript.NewGenerateError(t.name, i, sw.err)
		}
	}
	if g.progress > 0 {
		sw.linef("PRINT '%s:%d/%d COMPLETE'", t.name, n, n)
	}
	if g.transaction {
		sw.line("COMMIT;")
		sw.line("-- ROLLBACK;")
	}
	if sw.err != nil {
		return datascript.NewGenerateError(t.name, -1, sw.err)
	}
	if err := b.Flush(); err != nil {
		return datascript.NewGenerateError(t.name, -1, err)
	}
	log.Debug().Int64("bytes", cw.n).Dur("elapsed", time.Since(start)).Msg("script generated")
	return nil
}

func (g *Generator) header(sw *scriptWriter, t *Table) {
	sw.linef("/** Auto-Generated %s Script. Created %s by %s@%s on %s **/",
		g.typ, g.now().Format(HeaderTimeLayout), g.user, g.domain, g.machine)
	where := ""
	if t.restriction != "" {
		where = " Where: " + t.restriction
	}
	sw.linef("/** %s %d Rows. Table: %s%s **/", g.typ, len(t.rows), t.name, where)
	if t.comment != "" {
		sw.linef("/** %s **/", t.comment)
	}
}

// statements writes the statements of one row for the script type.
func (g *Generator) statements(sw *scriptWriter, r *Row) error {
	switch g.typ {
	case Insert, Replace:
		sw.line(r.InsertStatement())
		sw.statements++
	case Update:
		stmt, err := r.UpdateStatement()
		if err != nil {
			return err
		}
		sw.line(stmt)
		sw.statements++
	case Delete:
		stmt, err := r.DeleteStatement()
		if err != nil {
			return err
		}
		sw.line(stmt)
		sw.statements++
	case InsertUpdate:
		where, err := r.WhereClause()
		if err != nil {
			return err
		}
		update, err := r.UpdateStatement()
		if err != nil {
			return err
		}
		sw.linef("IF EXISTS(select * from %s where %s)", sql.Ident(r.table.name), where)
		sw.line(update)
		sw.line("ELSE")
		sw.line(r.InsertStatement())
		sw.statements++
	case DeleteInsert:
		stmt, err := r.DeleteStatement()
		if err != nil {
			return err
		}
		sw.line(stmt)
		sw.line(r.InsertStatement())
		sw.statements += 2
	}
	return nil
}

// hoistState carries the last scalar variable SET block written, so that
// consecutive rows needing the same assignments do not repeat them.
type hoistState struct {
	last string
}

// next reports whether set must be written, and remembers it if so.
func (h *hoistState) next(set string) (string, bool) {
	if set == "" || set == h.last {
		return "", false
	}
	h.last = set
	return set, true
}

// scriptWriter writes \r\n terminated lines and keeps the first error.
type scriptWriter struct {
	w          *bufio.Writer
	err        error
	statements int
}

func (s *scriptWriter) line(text string) {
	if s.err != nil {
		return
	}
	if _, err := s.w.WriteString(text); err != nil {
		s.err = err
		return
	}
	_, s.err = s.w.WriteString("\r\n")
}

func (s *scriptWriter) linef(format string, args ...any) {
	s.line(fmt.Sprintf(format, args...))
}

// countWriter counts the bytes written through it.
type countWriter struct {
	w io.Writer
	n int64
}

func (c *countWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
