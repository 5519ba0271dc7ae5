package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/syssam/datascript/schema/field"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Err joins the validation errors, or returns nil if there are none.
// Warnings are not included.
func (r *ValidationResult) Err() error {
	if !r.HasErrors() {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	if len(r.Errors) > 0 {
		sb.WriteString("Errors:\n")
		for _, e := range r.Errors {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			sb.WriteString("\n")
		}
	}
	if len(r.Warnings) > 0 {
		sb.WriteString("Warnings:\n")
		for _, w := range r.Warnings {
			sb.WriteString("  - ")
			sb.WriteString(w.Error())
			sb.WriteString("\n")
		}
	}
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateTable validates the column set of a table.
//
// Errors make the schema unusable: an empty table or column name, duplicate
// column names (compared case-insensitively), ordinals that are not the
// column positions, negative sizes and decimal scales beyond precision.
//
// Warnings flag schemas that only support part of the script types: no key,
// unique or identity column means rows cannot be updated or deleted, and
// nullable key columns may not identify a row.
//
// Example:
//
//	result := schema.ValidateTable("Person", cols)
//	if err := result.Err(); err != nil {
//	    return err
//	}
//	if result.HasWarnings() {
//	    log.Println("Warnings:", result)
//	}
func ValidateTable(table string, cols field.Columns) *ValidationResult {
	result := &ValidationResult{}
	fail := func(column, format string, args ...any) {
		result.Errors = append(result.Errors, &ValidationError{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
	}
	warn := func(column, format string, args ...any) {
		result.Warnings = append(result.Warnings, &ValidationError{Table: table, Column: column, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(table) == "" {
		fail("", "empty table name")
	}
	if len(cols) == 0 {
		fail("", "table has no columns")
		return result
	}

	var (
		names       = make(map[string]bool, len(cols))
		identifying bool
	)
	for i, c := range cols {
		if c == nil {
			fail("", "column %d is nil", i)
			continue
		}
		if strings.TrimSpace(c.Name) == "" {
			fail("", "column %d has an empty name", i)
		}
		k := field.Fold(c.Name)
		if names[k] {
			fail(c.Name, "duplicate column name")
		}
		names[k] = true
		if c.Ordinal != i {
			fail(c.Name, "ordinal %d does not match position %d", c.Ordinal, i)
		}
		if c.Size < 0 {
			fail(c.Name, "negative size %d", c.Size)
		}
		if c.Scale > c.Precision && c.Precision > 0 {
			fail(c.Name, "scale %d exceeds precision %d", c.Scale, c.Precision)
		}
		if c.Key && c.Nullable {
			warn(c.Name, "nullable primary key column")
		}
		if c.Key || c.Unique || c.Identity {
			identifying = true
		}
	}
	if !identifying {
		warn("", "no key, unique or identity column; rows cannot be updated or deleted")
	}
	return result
}
