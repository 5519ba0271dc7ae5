package datascript

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for script generation.
var (
	// ErrSchemaMismatch is returned when a row's columns disagree with the
	// table's established schema.
	ErrSchemaMismatch = errors.New("datascript: schema mismatch")

	// ErrNoIdentifyingColumn is returned when a WHERE clause cannot be built
	// because no key, unique or identity column carries a value.
	ErrNoIdentifyingColumn = errors.New("datascript: no identifying column available")

	// ErrRelationshipFormat is returned when relationship notation cannot be
	// parsed into a table, a column and a join expression.
	ErrRelationshipFormat = errors.New("datascript: invalid relationship format")

	// ErrUnknownScriptType is returned for script types outside the supported set.
	ErrUnknownScriptType = errors.New("datascript: unknown script type")
)

// SchemaMismatchError reports a row (or a second schema) that does not line up
// with the schema a table was first filled with.
type SchemaMismatchError struct {
	Table  string
	Row    int    // -1 when the mismatch is not tied to a row
	Column string // offending column, if known
	Want   int    // expected column count
	Got    int    // actual column count
}

// Error returns the error string.
func (e *SchemaMismatchError) Error() string {
	var b strings.Builder
	b.WriteString("datascript: schema mismatch on table ")
	b.WriteString(e.Table)
	if e.Row >= 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, ": column %q differs", e.Column)
		return b.String()
	}
	fmt.Fprintf(&b, ": want %d columns, got %d", e.Want, e.Got)
	return b.String()
}

// Is reports whether the target error matches SchemaMismatchError.
func (e *SchemaMismatchError) Is(err error) bool {
	return err == ErrSchemaMismatch
}

// NewSchemaMismatchError returns a column-count mismatch for the given row.
func NewSchemaMismatchError(table string, row, want, got int) *SchemaMismatchError {
	return &SchemaMismatchError{Table: table, Row: row, Want: want, Got: got}
}

// NewColumnMismatchError returns a mismatch naming the column that differs.
func NewColumnMismatchError(table, column string) *SchemaMismatchError {
	return &SchemaMismatchError{Table: table, Row: -1, Column: column}
}

// IsSchemaMismatch returns true if the error is a SchemaMismatchError.
func IsSchemaMismatch(err error) bool {
	if err == nil {
		return false
	}
	var e *SchemaMismatchError
	return errors.As(err, &e) || errors.Is(err, ErrSchemaMismatch)
}

// NoIdentifyingColumnError is returned when none of the primary key, unique or
// identity columns of a row hold a non-null value.
type NoIdentifyingColumnError struct {
	Table string
	Row   int
}

// Error returns the error string.
func (e *NoIdentifyingColumnError) Error() string {
	return fmt.Sprintf("datascript: no identifying column available for table %s row %d", e.Table, e.Row)
}

// Is reports whether the target error matches NoIdentifyingColumnError.
func (e *NoIdentifyingColumnError) Is(err error) bool {
	return err == ErrNoIdentifyingColumn
}

// NewNoIdentifyingColumnError returns a new NoIdentifyingColumnError.
func NewNoIdentifyingColumnError(table string, row int) *NoIdentifyingColumnError {
	return &NoIdentifyingColumnError{Table: table, Row: row}
}

// IsNoIdentifyingColumn returns true if the error is a NoIdentifyingColumnError.
func IsNoIdentifyingColumn(err error) bool {
	if err == nil {
		return false
	}
	var e *NoIdentifyingColumnError
	return errors.As(err, &e) || errors.Is(err, ErrNoIdentifyingColumn)
}

// RelationshipFormatError reports relationship notation that does not parse.
type RelationshipFormatError struct {
	Notation string
	Column   string // column the notation was attached to, if known
}

// Error returns the error string.
func (e *RelationshipFormatError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("datascript: invalid relationship format %q on column %s", e.Notation, e.Column)
	}
	return fmt.Sprintf("datascript: invalid relationship format %q", e.Notation)
}

// Is reports whether the target error matches RelationshipFormatError.
func (e *RelationshipFormatError) Is(err error) bool {
	return err == ErrRelationshipFormat
}

// NewRelationshipFormatError returns a new RelationshipFormatError.
func NewRelationshipFormatError(notation string) *RelationshipFormatError {
	return &RelationshipFormatError{Notation: notation}
}

// IsRelationshipFormat returns true if the error is a RelationshipFormatError.
func IsRelationshipFormat(err error) bool {
	if err == nil {
		return false
	}
	var e *RelationshipFormatError
	return errors.As(err, &e) || errors.Is(err, ErrRelationshipFormat)
}

// GenerateError wraps a failure raised while generating a table's script with
// enough context to locate it.
type GenerateError struct {
	Table  string
	Row    int    // -1 when the failure happened outside the row loop
	Column string // optional
	Err    error
}

// Error returns the error string.
func (e *GenerateError) Error() string {
	var b strings.Builder
	b.WriteString("datascript: generating ")
	b.WriteString(e.Table)
	if e.Row >= 0 {
		fmt.Fprintf(&b, " row %d", e.Row)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GenerateError) Unwrap() error {
	return e.Err
}

// NewGenerateError returns a new GenerateError. The column is taken from err
// when it wraps a schema mismatch or relationship error naming one.
func NewGenerateError(table string, row int, err error) *GenerateError {
	return &GenerateError{Table: table, Row: row, Column: columnOf(err), Err: err}
}

func columnOf(err error) string {
	var (
		mismatch *SchemaMismatchError
		relation *RelationshipFormatError
	)
	switch {
	case errors.As(err, &mismatch):
		return mismatch.Column
	case errors.As(err, &relation):
		return relation.Column
	}
	return ""
}

// IsGenerateError returns true if the error is a GenerateError.
func IsGenerateError(err error) bool {
	if err == nil {
		return false
	}
	var e *GenerateError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during a batch run.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "datascript: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("datascript: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As see each one.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
