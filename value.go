package sqleval

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type ValueTypeID int

const (
	undefined ValueTypeID = iota
	Int
	Text
)

// Value is a typed cell or literal. Data is an int64 for Int and a string
// for Text.
type Value struct {
	Type ValueTypeID
	Data any
}

// IntValue and TextValue are shorthands for building literals.
func IntValue(n int64) Value { return Value{Int, n} }
func TextValue(s string) Value { return Value{Text, s} }

// getTypeID maps a type tag from a table header to a type.
func getTypeID(s string) (ValueTypeID, error) {
	switch s {
	case "int":
		return Int, nil
	case "str":
		return Text, nil
	}
	return undefined, errors.Errorf("unknown column type %q", s)
}

func (t ValueTypeID) String() string {
	switch t {
	case Int:
		return "int"
	case Text:
		return "str"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func (v Value) String() string {
	if s, ok := v.Data.(string); ok && v.Type == Text {
		return "'" + textEscaper.Replace(s) + "'"
	}
	return fmt.Sprintf("%v", v.Data)
}

// accepts reports whether a raw cell fits into a column of type t.
func (t ValueTypeID) accepts(cell any) bool {
	switch cell.(type) {
	case int64:
		return t == Int
	case string:
		return t == Text
	}
	return false
}

// compare returns -1, 0 or 1. Both values must already be known to have the
// same type and hold normalized data.
func (v Value) compare(b Value) int {
	switch v.Type {
	case Int:
		x, y := v.Data.(int64), b.Data.(int64)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case Text:
		x, y := v.Data.(string), b.Data.(string)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	default:
		panic(fmt.Errorf("compare: unexpected value type %s", v.Type))
	}
}

// apply evaluates "a op b". Operands of different types are an
// InvalidOperandTypesError.
func (op Operator) apply(a, b Value) (bool, error) {
	if a.Type != b.Type {
		return false, &InvalidOperandTypesError{Op: op, Left: a.Type, Right: b.Type}
	}
	c := a.compare(b)
	switch op {
	case OpEq:
		return c == 0, nil
	case OpNe, "<>":
		return c != 0, nil
	case OpLt:
		return c < 0, nil
	case OpLe:
		return c <= 0, nil
	case OpGt:
		return c > 0, nil
	case OpGe:
		return c >= 0, nil
	default:
		return false, errors.Errorf("unsupported operator: %s", op)
	}
}
