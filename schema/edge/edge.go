package edge

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/syssam/datascript"
	"github.com/syssam/datascript/dialect/sql"
	"github.com/syssam/datascript/schema/field"
)

// Relationship is a correlated lookup of a column value from another table,
// written in notation as {Table.Column join}. The join template refers to
// columns of the current row with :columnName tokens.
type Relationship struct {
	Table  string // table selected from
	Column string // column selected
	Join   string // predicate template restricting the lookup
}

// Parse parses relationship notation such as
//
//	{Department.Id [Name] = :deptname}
//
// Surrounding braces and whitespace are optional.
func Parse(notation string) (*Relationship, error) {
	s := strings.TrimSpace(notation)
	s = strings.TrimPrefix(s, "{")
	s = strings.TrimSuffix(s, "}")
	s = strings.TrimSpace(s)

	target, join, ok := cut(s)
	if !ok {
		return nil, datascript.NewRelationshipFormatError(notation)
	}
	table, column, ok := strings.Cut(target, ".")
	if !ok || table == "" || column == "" || strings.Contains(column, ".") {
		return nil, datascript.NewRelationshipFormatError(notation)
	}
	return &Relationship{
		Table:  unbracket(table),
		Column: unbracket(column),
		Join:   join,
	}, nil
}

// MustParse is like Parse but panics if the notation cannot be parsed.
func MustParse(notation string) *Relationship {
	r, err := Parse(notation)
	if err != nil {
		panic(err)
	}
	return r
}

// cut splits s around the first run of whitespace.
func cut(s string) (before, after string, found bool) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, "", false
	}
	after = strings.TrimSpace(s[i:])
	return s[:i], after, after != ""
}

func unbracket(s string) string {
	if len(s) > 1 && s[0] == '[' && s[len(s)-1] == ']' {
		return s[1 : len(s)-1]
	}
	return s
}

// A Resolver returns the literal for a named column of the current row.
type Resolver func(column string) (string, bool)

// Render returns the sub-select for the relationship:
//
//	select [Column] from [Table] where <join>
//
// Every :columnName token in the join is replaced with the literal returned
// by resolve. A join that starts with the WHERE keyword is not doubled.
func (r *Relationship) Render(resolve Resolver) string {
	join := strings.TrimSpace(r.Join)
	if len(join) > 5 && strings.EqualFold(join[:5], "where") && unicode.IsSpace(rune(join[5])) {
		join = strings.TrimSpace(join[5:])
	}
	return fmt.Sprintf("select %s from %s where %s", sql.Ident(r.Column), sql.Ident(r.Table), Substitute(join, resolve))
}

// Columns returns the distinct column names referenced by the join tokens,
// in order of appearance.
func (r *Relationship) Columns() []string {
	var (
		names []string
		seen  = make(map[string]bool)
	)
	scan(r.Join, func(name string) {
		if k := field.Fold(name); !seen[k] {
			seen[k] = true
			names = append(names, name)
		}
	})
	return names
}

// String returns the relationship in notation form.
func (r *Relationship) String() string {
	return fmt.Sprintf("{%s.%s %s}", r.Table, r.Column, r.Join)
}

// Substitute replaces every :name token in template with the literal returned
// by resolve. Names are matched case-insensitively by the resolver; tokens the
// resolver does not know are left as written.
func Substitute(template string, resolve Resolver) string {
	if !strings.Contains(template, ":") {
		return template
	}
	var (
		b   strings.Builder
		pos int
	)
	b.Grow(len(template))
	tokens(template, func(start, end int) {
		name := template[start+1 : end]
		lit, ok := resolve(name)
		if !ok {
			return
		}
		b.WriteString(template[pos:start])
		b.WriteString(lit)
		pos = end
	})
	b.WriteString(template[pos:])
	return b.String()
}

func scan(template string, fn func(name string)) {
	tokens(template, func(start, end int) {
		fn(template[start+1 : end])
	})
}

// tokens calls fn with the byte range of each :name token outside of quoted
// string literals and bracketed identifiers.
func tokens(s string, fn func(start, end int)) {
	inQuote := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\'':
			inQuote = !inQuote
		case c == '[' && !inQuote:
			i = closing(s, i)
		case c == ':' && !inQuote:
			j := i + 1
			for j < len(s) && isNameByte(s[j]) {
				j++
			}
			if j > i+1 {
				fn(i, j)
				i = j - 1
			}
		}
	}
}

// closing returns the index of the ']' ending the identifier opened at i, or
// the last index of s if it is unterminated. A doubled ]] is an escaped
// bracket.
func closing(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		if s[j] != ']' {
			continue
		}
		if j+1 < len(s) && s[j+1] == ']' {
			j++
			continue
		}
		return j
	}
	return len(s) - 1
}

func isNameByte(c byte) bool {
	return c == '_' || c == '@' || c == '$' || c == '#' ||
		'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' || c >= 0x80
}

