package sqleval

import (
	"fmt"
	"strings"
)

// EvalError is implemented by every error that a query evaluation can
// legitimately end with. Writers print such errors in place of a result.
type EvalError interface {
	error
	evalError()
}

// InvalidTableError is returned when a source or a column qualifier names a
// table that isn't loaded.
type InvalidTableError struct {
	Table string
}

func (e *InvalidTableError) Error() string {
	return fmt.Sprintf("ERROR: Unknown table name \"%s\".", e.Table)
}

// InvalidColumnError is returned when a column reference matches nothing.
type InvalidColumnError struct {
	Column string
}

func (e *InvalidColumnError) Error() string {
	return fmt.Sprintf("ERROR: Column reference \"%s\" does not exist.", e.Column)
}

// AmbiguousColumnError is returned when an unqualified column reference
// matches columns of more than one table.
type AmbiguousColumnError struct {
	Column string
	// Tables lists the matching table aliases in discovery order.
	Tables []string
}

func (e *AmbiguousColumnError) Error() string {
	quoted := make([]string, len(e.Tables))
	for i, t := range e.Tables {
		quoted[i] = fmt.Sprintf("\"%s\"", t)
	}
	return fmt.Sprintf("ERROR: Column reference \"%s\" is ambiguous; present in multiple tables: %s.",
		e.Column, strings.Join(quoted, ", "))
}

// InvalidOperandTypesError is returned when the two sides of a comparison
// have different types.
type InvalidOperandTypesError struct {
	Op          Operator
	Left, Right ValueTypeID
}

func (e *InvalidOperandTypesError) Error() string {
	return fmt.Sprintf("ERROR: Incompatible types to \"%s\": %s and %s.", e.Op, e.Left, e.Right)
}

func (*InvalidTableError) evalError()        {}
func (*InvalidColumnError) evalError()       {}
func (*AmbiguousColumnError) evalError()     {}
func (*InvalidOperandTypesError) evalError() {}
